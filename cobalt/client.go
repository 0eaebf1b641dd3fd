package cobalt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/truemediaorg/cobaltbot/model"
)

const maxResponseBytes = 1 << 20

type Client struct {
	baseURL    string
	apiKey     string
	HTTPClient *http.Client
}

// NewClient builds a client on top of a shared HTTP client. Timeouts and redirect
// handling belong to httpClient.
func NewClient(apiKey string, baseURL url.URL, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL.String(), "/"),
		HTTPClient: httpClient,
	}
}

// ResolveMedia issues exactly one request to the JSON endpoint and decodes the
// response variant. It does not interpret it.
func (c Client) ResolveMedia(ctx context.Context, request ResolveRequest) (Response, error) {
	reqBody, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/api/json", c.baseURL), bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Add("Authorization", "Api-Key "+c.apiKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, transportError(fmt.Sprintf("resolution API unreachable: %v", err), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError(fmt.Sprintf("error reading resolution API response: %v", err), err)
	}

	if resp.StatusCode != http.StatusOK {
		message := fmt.Sprintf("resolution API returned HTTP %d", resp.StatusCode)
		// Newer instances explain non-200 responses in the body
		if decoded, err := DecodeResponse(respBody); err == nil {
			if errResp, ok := decoded.(ErrorResponse); ok && errResp.Message() != "" {
				message = fmt.Sprintf("%s: %s", message, errResp.Message())
			}
		}
		return nil, transportError(message, nil)
	}

	return DecodeResponse(respBody)
}

// Resolve turns a source URL into a single direct media URL and its kind.
// Every failure is a *ResolutionError.
func (c Client) Resolve(ctx context.Context, sourceURL string, audioOnly bool) (model.ResolutionResult, error) {
	resp, err := c.ResolveMedia(ctx, ResolveRequest{URL: sourceURL, IsAudioOnly: audioOnly})
	if err != nil {
		var resErr *ResolutionError
		if errors.As(err, &resErr) {
			return model.ResolutionResult{}, resErr
		}
		return model.ResolutionResult{}, transportError(err.Error(), err)
	}
	return resp.Result(audioOnly)
}

// ProbeSize asks the media host for the size of directURL with a HEAD request.
// Any failure means the size is unknown, which is not an error.
func (c Client) ProbeSize(ctx context.Context, directURL string, timeout time.Duration) (int64, bool) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, directURL, nil)
	if err != nil {
		return 0, false
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, false
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return 0, false
	}
	size, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	if err != nil || size <= 0 {
		return 0, false
	}
	return size, true
}
