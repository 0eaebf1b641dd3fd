package cobalt

// Status is the tag the resolution API puts on every response. The fields that
// accompany a response depend on it.
type Status string

const (
	StatusRedirect Status = "redirect"
	StatusSuccess  Status = "success"
	StatusStream   Status = "stream"
	StatusPicker   Status = "picker"
	StatusError    Status = "error"
	// Older instances use this instead of an error response when throttling.
	StatusRateLimit Status = "rate-limit"
)
