// Package rendered implements a Fetcher backed by a hosted rendering API.
package rendered

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/potomac-labs/actions-ingest/internal/actions"
)

// Config controls the rendering API client.
type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// Client implements actions.Fetcher against a hosted rendering service.
// The service executes JavaScript remotely and returns structured page
// data as JSON, which flows into the structured extraction strategy.
type Client struct {
	cfg  Config
	http *http.Client
}

// New builds a Client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("rendering endpoint is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("rendering api key is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type renderRequest struct {
	URL     string        `json:"url"`
	Options renderOptions `json:"options"`
}

type renderOptions struct {
	WaitForSelector string `json:"waitForSelector,omitempty"`
	JavaScript      bool   `json:"javascript"`
	Timeout         int    `json:"timeout"`
}

// Fetch asks the rendering service for the page and returns the raw JSON
// payload as the response body.
func (c *Client) Fetch(ctx context.Context, request actions.FetchRequest) (actions.FetchResponse, error) {
	payload := renderRequest{
		URL: request.URL,
		Options: renderOptions{
			WaitForSelector: request.WaitForSelector,
			JavaScript:      true,
			Timeout:         int(c.cfg.Timeout.Milliseconds()),
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return actions.FetchResponse{}, fmt.Errorf("marshal render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return actions.FetchResponse{}, fmt.Errorf("build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return actions.FetchResponse{}, fmt.Errorf("render %s: %w", request.URL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return actions.FetchResponse{}, fmt.Errorf("read render response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return actions.FetchResponse{}, fmt.Errorf("rendering service unavailable (%d) for %s", resp.StatusCode, request.URL)
	}
	if resp.StatusCode != http.StatusOK {
		return actions.FetchResponse{}, fmt.Errorf("rendering service rejected %s: status %d", request.URL, resp.StatusCode)
	}

	return actions.FetchResponse{
		URL:        request.URL,
		StatusCode: resp.StatusCode,
		Headers:    resp.Header.Clone(),
		Body:       data,
		Duration:   time.Since(start),
		Rendered:   true,
	}, nil
}
