// Package telemetry reports fatal errors to Sentry.
package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shopdex/internal/domain"
)

const serverName = "shopdex"

// Config holds the Sentry settings. An empty DSN disables reporting.
type Config struct {
	DSN              string
	Environment      string
	Release          string
	TracesSampleRate float64
	Debug            bool
}

// Init initializes Sentry and returns a function that flushes pending events.
// Initialization failures are logged and leave reporting disabled.
func Init(cfg Config, logger *zap.Logger) func() {
	if cfg.DSN == "" {
		return func() {}
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		ServerName:       serverName,
		EnableTracing:    cfg.TracesSampleRate > 0,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
	})
	if err != nil {
		logger.Warn("Sentry init failed, continuing without error reporting", zap.Error(err))
		return func() {}
	}

	logger.Info("Sentry initialized",
		zap.String("environment", cfg.Environment),
		zap.Float64("traces_sample_rate", cfg.TracesSampleRate),
	)
	return func() { sentry.Flush(5 * time.Second) }
}

// Reporter sends search failures to Sentry.
type Reporter struct{}

// CaptureError captures err on the request hub when there is one.
// Budget exhaustion is expected operation and is not reported.
func (Reporter) CaptureError(ctx context.Context, err error) {
	if err == nil || errors.Is(err, domain.ErrBudgetExceeded) || errors.Is(err, context.Canceled) {
		return
	}
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}

// Middleware gives each request its own hub and reports panics before
// re-raising them for the recoverer.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub := sentry.GetHubFromContext(r.Context())
		if hub == nil {
			hub = sentry.CurrentHub().Clone()
		}
		hub.Scope().SetRequest(r)
		ctx := sentry.SetHubOnContext(r.Context(), hub)

		defer func() {
			if rec := recover(); rec != nil {
				hub.RecoverWithContext(ctx, rec)
				panic(rec)
			}
		}()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
