package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/truemediaorg/cobaltbot/cobalt"
	"github.com/truemediaorg/cobaltbot/config"
	"github.com/truemediaorg/cobaltbot/model"
)

func TestNewHTTPClient(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "landed")
	}))
	defer target.Close()
	redirector := httptest.NewServer(http.RedirectHandler(target.URL, http.StatusFound))
	defer redirector.Close()

	t.Run("follows redirects when configured to", func(t *testing.T) {
		resp, err := NewHTTPClient(config.CobaltConfig{Timeout: time.Second, FollowRedirects: true}).Get(redirector.URL)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("stops at the first response otherwise", func(t *testing.T) {
		resp, err := NewHTTPClient(config.CobaltConfig{Timeout: time.Second}).Get(redirector.URL)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusFound, resp.StatusCode)
	})
}

func TestCobaltService(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.Header().Set("Content-Length", "1048576")
		default:
			fmt.Fprint(w, `{"status":"redirect","url":"https://cdn.example/v.mp4"}`)
		}
	}))
	defer api.Close()
	apiURL, _ := url.Parse(api.URL)
	cfg := config.Config{Cobalt: config.CobaltConfig{ApiURL: *apiURL, ProbeTimeout: time.Second}}
	svc := NewCobaltService(cfg, api.Client())

	t.Run("resolves requests", func(t *testing.T) {
		result, err := svc.Resolve(context.TODO(), model.ResolutionRequest{SourceURL: "https://youtu.be/abc"})
		require.NoError(t, err)
		assert.Equal(t, model.ResolutionResult{DirectURL: "https://cdn.example/v.mp4", Kind: model.KindVideo}, result)
	})

	t.Run("probes sizes with the shared client", func(t *testing.T) {
		size, ok := svc.ProbeSize(context.TODO(), api.URL+"/v.mp4")
		assert.True(t, ok)
		assert.Equal(t, int64(1048576), size)
	})
}

func TestResolutionResultLabel(t *testing.T) {
	assert.Equal(t, "ok", resolutionResultLabel(nil))
	assert.Equal(t, "transport", resolutionResultLabel(&cobalt.ResolutionError{Kind: cobalt.ErrTransport}))
	assert.Equal(t, "malformed", resolutionResultLabel(&cobalt.ResolutionError{Kind: cobalt.ErrMalformedResponse}))
	assert.Equal(t, "rejected", resolutionResultLabel(&cobalt.ResolutionError{Kind: cobalt.ErrRemoteRejection}))
	assert.Equal(t, "other", resolutionResultLabel(context.Canceled))
}
