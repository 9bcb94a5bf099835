// Package fetcher composes the probe and browser fetchers.
package fetcher

import (
	"context"

	"go.uber.org/zap"

	"github.com/potomac-labs/actions-ingest/internal/actions"
	"github.com/potomac-labs/actions-ingest/internal/fetcher/detector"
)

// Promoting tries a cheap plain-HTTP probe first and promotes to the
// browser-backed fetcher when the detector decides the probe result is not
// usable (SPA shell, script-only body).
type Promoting struct {
	probe    actions.Fetcher
	headless actions.Fetcher
	detector *detector.Heuristic
	logger   *zap.Logger
}

// NewPromoting builds the composite fetcher.
func NewPromoting(probe, headless actions.Fetcher, det *detector.Heuristic, logger *zap.Logger) *Promoting {
	return &Promoting{
		probe:    probe,
		headless: headless,
		detector: det,
		logger:   logger,
	}
}

// Fetch probes first, then renders with the browser if needed.
func (p *Promoting) Fetch(ctx context.Context, request actions.FetchRequest) (actions.FetchResponse, error) {
	resp, err := p.probe.Fetch(ctx, request)
	if err == nil && !p.detector.ShouldPromote(resp) {
		if p.detector.IsInterstitial(resp.Body) {
			return actions.FetchResponse{}, actions.ErrBotInterstitial
		}
		return resp, nil
	}
	if err != nil {
		p.logger.Debug("probe fetch failed, promoting to headless",
			zap.String("url", request.URL), zap.Error(err))
	} else {
		p.logger.Debug("probe promoted to headless", zap.String("url", request.URL))
	}

	rendered, err := p.headless.Fetch(ctx, request)
	if err != nil {
		return actions.FetchResponse{}, err
	}
	return rendered, nil
}
