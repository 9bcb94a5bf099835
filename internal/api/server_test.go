package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/potomac-labs/actions-ingest/internal/actions"
	"github.com/potomac-labs/actions-ingest/internal/config"
)

type fakeController struct {
	running     bool
	started     int
	checks      int
	checkErr    error
	lastRunTime *time.Time
}

func (f *fakeController) Start(_ context.Context) {
	f.started++
	f.running = true
}

func (f *fakeController) ManualCheck(_ context.Context) error {
	f.checks++
	return f.checkErr
}

func (f *fakeController) Status() actions.RunStatus {
	return actions.RunStatus{
		IsRunning:     f.running,
		LastRunTime:   f.lastRunTime,
		CheckInterval: "30m0s",
	}
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestServer(controller *fakeController, secret string) *Server {
	cfg := config.Config{}
	cfg.Cron.Secret = secret
	return NewServer(controller, &fakeClock{now: time.Unix(1700000000, 0).UTC()}, cfg, zap.NewNop())
}

func TestTrigger_StartsIdleScheduler(t *testing.T) {
	t.Parallel()

	controller := &fakeController{}
	srv := newTestServer(controller, "s3cret")

	req := httptest.NewRequest(http.MethodPost, "/v1/ingest/trigger", nil)
	req.Header.Set("X-Cron-Secret", "s3cret")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, controller.started)
	require.Zero(t, controller.checks)

	var resp triggerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, "ingestion scheduler started", resp.Message)
	require.True(t, resp.Status.IsRunning)
	require.Equal(t, "30m0s", resp.Status.CheckInterval)
}

func TestTrigger_RunsCheckWhenAlreadyRunning(t *testing.T) {
	t.Parallel()

	controller := &fakeController{running: true}
	srv := newTestServer(controller, "s3cret")

	req := httptest.NewRequest(http.MethodPost, "/v1/ingest/trigger", nil)
	req.Header.Set("X-Cron-Secret", "s3cret")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, controller.started)
	require.Equal(t, 1, controller.checks)
}

func TestTrigger_RejectsBadSecret(t *testing.T) {
	t.Parallel()

	controller := &fakeController{}
	srv := newTestServer(controller, "s3cret")

	req := httptest.NewRequest(http.MethodPost, "/v1/ingest/trigger", nil)
	req.Header.Set("X-Cron-Secret", "wrong")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Zero(t, controller.started)
	require.Zero(t, controller.checks)
}

func TestTrigger_WrongMethodIs405(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeController{}, "")

	req := httptest.NewRequest(http.MethodGet, "/v1/ingest/trigger", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestTrigger_CheckFailureIs500WithDetail(t *testing.T) {
	t.Parallel()

	controller := &fakeController{running: true, checkErr: errors.New("listing fetch blew up")}
	srv := newTestServer(controller, "")

	req := httptest.NewRequest(http.MethodPost, "/v1/ingest/trigger", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp triggerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.Contains(t, resp.Message, "listing fetch blew up")
}

func TestStatusEndpoint(t *testing.T) {
	t.Parallel()

	lastRun := time.Unix(1699999000, 0).UTC()
	controller := &fakeController{running: true, lastRunTime: &lastRun}
	srv := newTestServer(controller, "")

	req := httptest.NewRequest(http.MethodGet, "/v1/ingest/status", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp triggerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Status.IsRunning)
	require.NotNil(t, resp.Status.LastRunTime)
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeController{}, "s3cret")

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}
