// Package api exposes the HTTP interface for the ingestion service.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/potomac-labs/actions-ingest/internal/actions"
	"github.com/potomac-labs/actions-ingest/internal/config"
	"github.com/potomac-labs/actions-ingest/internal/telemetry"
)

const cronSecretHeader = "X-Cron-Secret"

// Controller is the scheduler surface the API drives.
type Controller interface {
	Start(ctx context.Context)
	ManualCheck(ctx context.Context) error
	Status() actions.RunStatus
}

// Server wires HTTP handlers to the scheduler.
type Server struct {
	router     chi.Router
	controller Controller
	clock      actions.Clock
	cfg        config.Config
	logger     *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(controller Controller, clock actions.Clock, cfg config.Config, logger *zap.Logger) *Server {
	s := &Server{
		controller: controller,
		clock:      clock,
		cfg:        cfg,
		logger:     logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(telemetry.Middleware)
	r.Use(timeoutMiddleware(60 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", telemetry.Handler())

	r.Route("/v1/ingest", func(r chi.Router) {
		r.Post("/trigger", s.trigger)
		r.Get("/status", s.status)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// triggerResponse is the envelope for trigger and status replies.
type triggerResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	Status    actions.RunStatus `json:"status"`
}

// trigger starts the scheduler if it is idle, or runs a one-off check when
// the loop is already active.
func (s *Server) trigger(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Cron.Secret != "" && r.Header.Get(cronSecretHeader) != s.cfg.Cron.Secret {
		writeError(w, http.StatusUnauthorized, "invalid cron secret")
		return
	}

	var message string
	if s.controller.Status().IsRunning {
		if err := s.controller.ManualCheck(r.Context()); err != nil {
			s.logger.Error("manual check failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, triggerResponse{
				Success:   false,
				Message:   "ingestion check failed: " + err.Error(),
				Timestamp: s.clock.Now(),
				Status:    s.controller.Status(),
			})
			return
		}
		message = "ingestion check completed"
	} else {
		s.controller.Start(context.WithoutCancel(r.Context()))
		message = "ingestion scheduler started"
	}

	writeJSON(w, http.StatusOK, triggerResponse{
		Success:   true,
		Message:   message,
		Timestamp: s.clock.Now(),
		Status:    s.controller.Status(),
	})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Cron.Secret != "" && r.Header.Get(cronSecretHeader) != s.cfg.Cron.Secret {
		writeError(w, http.StatusUnauthorized, "invalid cron secret")
		return
	}
	writeJSON(w, http.StatusOK, triggerResponse{
		Success:   true,
		Message:   "scheduler status",
		Timestamp: s.clock.Now(),
		Status:    s.controller.Status(),
	})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
