package fetcher

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/potomac-labs/actions-ingest/internal/actions"
	"github.com/potomac-labs/actions-ingest/internal/fetcher/detector"
)

type fakeFetcher struct {
	resp  actions.FetchResponse
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, _ actions.FetchRequest) (actions.FetchResponse, error) {
	f.calls++
	return f.resp, f.err
}

func staticBody() []byte {
	return []byte("<html><body>" + strings.Repeat("listing content ", 256) + "</body></html>")
}

func TestPromoting_ProbeResultUsed(t *testing.T) {
	t.Parallel()

	probe := &fakeFetcher{resp: actions.FetchResponse{StatusCode: 200, Body: staticBody()}}
	headless := &fakeFetcher{}
	p := NewPromoting(probe, headless, detector.NewHeuristic(2048, 512), zap.NewNop())

	resp, err := p.Fetch(context.Background(), actions.FetchRequest{URL: "https://example.gov/"})
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, 1, probe.calls)
	require.Zero(t, headless.calls)
}

func TestPromoting_SPAShellPromotes(t *testing.T) {
	t.Parallel()

	probe := &fakeFetcher{resp: actions.FetchResponse{
		StatusCode: 200,
		Body:       append(staticBody(), []byte(`<div id="root"></div>`)...),
	}}
	headless := &fakeFetcher{resp: actions.FetchResponse{StatusCode: 200, Body: staticBody(), Rendered: true}}
	p := NewPromoting(probe, headless, detector.NewHeuristic(2048, 512), zap.NewNop())

	resp, err := p.Fetch(context.Background(), actions.FetchRequest{URL: "https://example.gov/"})
	require.NoError(t, err)
	require.True(t, resp.Rendered)
	require.Equal(t, 1, headless.calls)
}

func TestPromoting_ProbeErrorPromotes(t *testing.T) {
	t.Parallel()

	probe := &fakeFetcher{err: errors.New("connection reset")}
	headless := &fakeFetcher{resp: actions.FetchResponse{StatusCode: 200, Body: staticBody(), Rendered: true}}
	p := NewPromoting(probe, headless, detector.NewHeuristic(2048, 512), zap.NewNop())

	resp, err := p.Fetch(context.Background(), actions.FetchRequest{URL: "https://example.gov/"})
	require.NoError(t, err)
	require.True(t, resp.Rendered)
}

func TestPromoting_InterstitialSurfaces(t *testing.T) {
	t.Parallel()

	probe := &fakeFetcher{resp: actions.FetchResponse{
		StatusCode: 200,
		Body:       append(staticBody(), []byte("verify you are human")...),
	}}
	headless := &fakeFetcher{}
	p := NewPromoting(probe, headless, detector.NewHeuristic(2048, 512), zap.NewNop())

	_, err := p.Fetch(context.Background(), actions.FetchRequest{URL: "https://example.gov/"})
	require.ErrorIs(t, err, actions.ErrBotInterstitial)
	require.Zero(t, headless.calls)
}
