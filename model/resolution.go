package model

import (
	"errors"

	"github.com/truemediaorg/cobaltbot/link"
)

var ErrInvalidSourceURL = errors.New("source URL must be an absolute http(s) URL")

// ResolutionRequest is built per inbound message and never persisted.
type ResolutionRequest struct {
	SourceURL string
	AudioOnly bool
}

func NewResolutionRequest(sourceURL string, audioOnly bool) (ResolutionRequest, error) {
	if !link.IsHTTPURL(sourceURL) {
		return ResolutionRequest{}, ErrInvalidSourceURL
	}
	return ResolutionRequest{SourceURL: sourceURL, AudioOnly: audioOnly}, nil
}

// ResolutionResult is consumed immediately by delivery and never cached.
type ResolutionResult struct {
	DirectURL string
	Kind      Kind
}
