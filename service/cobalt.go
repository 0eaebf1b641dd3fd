package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/truemediaorg/cobaltbot/cobalt"
	"github.com/truemediaorg/cobaltbot/config"
	"github.com/truemediaorg/cobaltbot/metrics"
	"github.com/truemediaorg/cobaltbot/model"

	log "github.com/sirupsen/logrus"
)

// NewHTTPClient builds the pooled client shared by resolution and size probes for
// the lifetime of the process. It is safe for concurrent use.
func NewHTTPClient(cfg config.CobaltConfig) *http.Client {
	client := &http.Client{
		Timeout: cfg.Timeout,
	}
	if !cfg.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client
}

type CobaltService struct {
	config config.CobaltConfig
	client *cobalt.Client
}

func NewCobaltService(cfg config.Config, httpClient *http.Client) *CobaltService {
	client := cobalt.NewClient(cfg.Cobalt.ApiKey, cfg.Cobalt.ApiURL, httpClient)
	log.Infof("Cobalt client initialized. Host: %s", cfg.Cobalt.ApiURL.String())

	return &CobaltService{
		config: cfg.Cobalt,
		client: client,
	}
}

// Resolve makes a single attempt; failures are returned as *cobalt.ResolutionError.
func (s *CobaltService) Resolve(ctx context.Context, request model.ResolutionRequest) (model.ResolutionResult, error) {
	start := time.Now()
	log.WithField("sourceURL", request.SourceURL).WithField("audioOnly", request.AudioOnly).Info("resolution request")
	result, err := s.client.Resolve(ctx, request.SourceURL, request.AudioOnly)
	metrics.ObserveResolution(resolutionResultLabel(err), time.Since(start))
	if err != nil {
		return model.ResolutionResult{}, err
	}
	log.WithField("directURL", result.DirectURL).WithField("kind", result.Kind).Debug("resolved")
	return result, nil
}

func (s *CobaltService) ProbeSize(ctx context.Context, directURL string) (int64, bool) {
	return s.client.ProbeSize(ctx, directURL, s.config.ProbeTimeout)
}

func resolutionResultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, cobalt.ErrTransport):
		return "transport"
	case errors.Is(err, cobalt.ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, cobalt.ErrRemoteRejection):
		return "rejected"
	default:
		return "other"
	}
}
