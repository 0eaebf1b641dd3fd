package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewResolutionRequest(t *testing.T) {
	t.Run("accepts absolute http URLs", func(t *testing.T) {
		req, err := NewResolutionRequest("https://www.tiktok.com/@foo/video/1", true)
		assert.NoError(t, err)
		assert.Equal(t, "https://www.tiktok.com/@foo/video/1", req.SourceURL)
		assert.True(t, req.AudioOnly)
	})

	t.Run("rejects anything else", func(t *testing.T) {
		_, err := NewResolutionRequest("tiktok.com/@foo", false)
		assert.ErrorIs(t, err, ErrInvalidSourceURL)
	})
}

func TestDefaultKind(t *testing.T) {
	assert.Equal(t, KindAudio, DefaultKind(true))
	assert.Equal(t, KindVideo, DefaultKind(false))
}
