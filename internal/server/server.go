// Package server exposes validation and analysis of Goodreads exports over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/lepinkainen/readingwrapped/internal/config"
	"github.com/lepinkainen/readingwrapped/internal/goodreads"
	"github.com/lepinkainen/readingwrapped/internal/ratelimit"
	"github.com/lepinkainen/readingwrapped/internal/report"
)

const (
	limiterIdle      = 5 * time.Minute
	dailyLimiterIdle = 24 * time.Hour
	shutdownTimeout  = 10 * time.Second
)

// Analyzer is the report service used by the handlers.
type Analyzer interface {
	Validate(r io.Reader) goodreads.ValidationResult
	Analyze(ctx context.Context, r io.Reader, period goodreads.Period) (*report.Report, error)
}

// Server is the HTTP API.
type Server struct {
	analyzer Analyzer
	settings config.ServerSettings
	period   goodreads.Period
	limits   *ratelimit.Keyed
	daily    *ratelimit.Keyed
	handler  http.Handler
}

// New builds the API around analyzer. Every analysis uses period.
func New(analyzer Analyzer, settings config.ServerSettings, period goodreads.Period) *Server {
	if settings.MaxUploadBytes <= 0 {
		settings.MaxUploadBytes = 16 << 20
	}
	if settings.RatePerMinute <= 0 {
		settings.RatePerMinute = 10
	}
	if settings.Burst <= 0 {
		settings.Burst = settings.RatePerMinute
	}
	if settings.RatePerDay <= 0 {
		settings.RatePerDay = 100
	}

	s := &Server{
		analyzer: analyzer,
		settings: settings,
		period:   period,
		limits:   ratelimit.NewKeyed(settings.RatePerMinute, settings.Burst, limiterIdle),
		daily:    ratelimit.NewKeyedPer(settings.RatePerDay, 24*time.Hour, settings.RatePerDay, dailyLimiterIdle),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /test", s.handleTest)
	mux.HandleFunc("POST /validate", s.handleValidate)
	mux.HandleFunc("POST /analyze", s.handleAnalyze)

	var h http.Handler = mux
	h = requestSizeLimitMiddleware(settings.MaxUploadBytes)(h)
	h = rateLimitMiddleware(
		clientLimit{limits: s.limits, retryAfter: time.Minute},
		clientLimit{limits: s.daily, retryAfter: s.daily.Interval()},
	)(h)
	h = corsMiddleware(settings.AllowedOrigins)(h)
	h = securityHeadersMiddleware(h)
	h = recoveryMiddleware(h)
	h = accessLogMiddleware(h)
	h = requestIDMiddleware(h)
	s.handler = h

	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.settings.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       time.Minute,
	}

	go s.pruneLimiters(ctx)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", listener.Addr().String())
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) pruneLimiters(ctx context.Context) {
	ticker := time.NewTicker(limiterIdle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.limits.Prune() + s.daily.Prune(); n > 0 {
				slog.Debug("Pruned idle client limiters", "count", n)
			}
		}
	}
}
