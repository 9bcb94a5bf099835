// Package collyfetcher implements a plain-HTTP probe Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/potomac-labs/actions-ingest/internal/actions"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher implements actions.Fetcher with a single synchronous GET. It does
// no JavaScript execution; the caller decides whether to promote to a
// browser-backed fetch.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET using a cloned collector.
func (f *Fetcher) Fetch(ctx context.Context, request actions.FetchRequest) (actions.FetchResponse, error) {
	if err := ctx.Err(); err != nil {
		return actions.FetchResponse{}, fmt.Errorf("probe fetch canceled: %w", err)
	}

	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.SetRequestTimeout(f.cfg.Timeout)

	var (
		result   actions.FetchResponse
		fetchErr error
	)
	start := time.Now()

	collector.OnRequest(func(r *colly.Request) {
		for key, values := range request.Headers {
			for _, v := range values {
				r.Headers.Add(key, v)
			}
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		headers := http.Header{}
		if r.Headers != nil {
			headers = r.Headers.Clone()
		}
		result = actions.FetchResponse{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    headers,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("probe fetch %s: %w", request.URL, err)
	})

	if err := collector.Visit(request.URL); err != nil {
		return actions.FetchResponse{}, fmt.Errorf("visit %s: %w", request.URL, err)
	}
	collector.Wait()

	if fetchErr != nil {
		return actions.FetchResponse{}, fetchErr
	}
	if result.StatusCode == 0 {
		return actions.FetchResponse{}, fmt.Errorf("no response received for %s", request.URL)
	}
	return result, nil
}
