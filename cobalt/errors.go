package cobalt

import "errors"

var (
	ErrTransport         = errors.New("transport error")
	ErrMalformedResponse = errors.New("malformed response")
	ErrRemoteRejection   = errors.New("remote rejection")
)

const defaultFailureMessage = "resolution failed"

// ResolutionError is the single error type surfaced by Resolve. Message is meant
// to be shown to the user as-is; Kind is one of the sentinel errors above.
type ResolutionError struct {
	Kind    error
	Message string
	Err     error
}

func (e *ResolutionError) Error() string {
	return e.Message
}

func (e *ResolutionError) Is(target error) bool {
	return target == e.Kind
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func transportError(message string, err error) *ResolutionError {
	return &ResolutionError{Kind: ErrTransport, Message: message, Err: err}
}

func malformedError(message string, err error) *ResolutionError {
	return &ResolutionError{Kind: ErrMalformedResponse, Message: message, Err: err}
}

func rejectionError(message string) *ResolutionError {
	if message == "" {
		message = defaultFailureMessage
	}
	return &ResolutionError{Kind: ErrRemoteRejection, Message: message}
}
