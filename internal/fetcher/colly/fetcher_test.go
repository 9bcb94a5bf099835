package collyfetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/potomac-labs/actions-ingest/internal/actions"
)

func TestFetch_ReturnsBodyAndMetadata(t *testing.T) {
	t.Parallel()

	var gotUA, gotHeader string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		gotHeader = r.Header.Get("X-Probe")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>listing</body></html>"))
	}))
	defer ts.Close()

	f := New(Config{UserAgent: "actions-ingest/1.0"})
	headers := http.Header{}
	headers.Set("X-Probe", "yes")

	resp, err := f.Fetch(context.Background(), actions.FetchRequest{URL: ts.URL, Headers: headers})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(resp.Body), "listing")
	require.Equal(t, "actions-ingest/1.0", gotUA)
	require.Equal(t, "yes", gotHeader)
	require.False(t, resp.Rendered)
	require.Positive(t, resp.Duration)
}

func TestFetch_ServerErrorSurfaces(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	f := New(Config{})
	_, err := f.Fetch(context.Background(), actions.FetchRequest{URL: ts.URL})
	require.Error(t, err)
}

func TestFetch_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := New(Config{})
	_, err := f.Fetch(ctx, actions.FetchRequest{URL: "https://example.invalid/"})
	require.ErrorIs(t, err, context.Canceled)
}
