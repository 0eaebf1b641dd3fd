package link

import (
	"net/url"
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`https?://\S+`)

// Returns the first http(s) URL found in free-form text, or "" if there is none.
func ExtractFirstURL(text string) string {
	if text == "" {
		return ""
	}
	return urlPattern.FindString(text)
}

// Reports whether s looks like an absolute HTTP or HTTPS URL with a host.
func IsHTTPURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}
