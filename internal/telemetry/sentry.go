// Package telemetry reports errors and traces to Sentry.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"go.uber.org/zap"
)

const serviceName = "soclens"

// Config holds the configuration for Sentry initialization.
type Config struct {
	DSN         string
	Environment string
	SampleRate  float64
	Release     string
}

// Init initializes Sentry and returns a function that flushes pending events.
// An empty DSN or a failed initialization yields a no-op flush; reporting is
// never a reason to refuse startup.
func Init(cfg Config, logger *zap.Logger) func() {
	if cfg.DSN == "" {
		return func() {}
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		ServerName:       serviceName,
		SampleRate:       cfg.SampleRate,
		EnableTracing:    true,
		TracesSampleRate: cfg.SampleRate,
		TracesSampler: sentry.TracesSampler(func(ctx sentry.SamplingContext) float64 {
			if ctx.Span.Name == "GET /health" || ctx.Span.Name == "GET /metrics" {
				return 0.0
			}
			return cfg.SampleRate
		}),
	})
	if err != nil {
		logger.Warn("sentry init failed, continuing without error reporting", zap.Error(err))
		return func() {}
	}

	logger.Info("sentry initialized",
		zap.String("environment", cfg.Environment),
		zap.Float64("sample_rate", cfg.SampleRate),
	)
	return func() { sentry.Flush(5 * time.Second) }
}

// Middleware binds a per-request hub to the request context. Panics are
// re-raised so the JSON recoverer still answers the client.
func Middleware(next http.Handler) http.Handler {
	return sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle(next)
}

// CaptureError captures an error to Sentry with the current context.
func CaptureError(ctx context.Context, err error, tags map[string]string) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		hub.CaptureException(err)
	})
}

// Span wraps sentry.Span.
type Span struct {
	inner *sentry.Span
}

// End finishes the span.
func (s *Span) End() {
	if s.inner != nil {
		s.inner.Finish()
	}
}

// SetError marks the span as errored.
func (s *Span) SetError(err error) {
	if s.inner != nil && err != nil {
		s.inner.Status = sentry.SpanStatusInternalError
		s.inner.SetData("error", err.Error())
	}
}

// StartSpan creates a child span when a transaction is in the context and a
// new transaction otherwise.
func StartSpan(ctx context.Context, op, description string) (context.Context, *Span) {
	var span *sentry.Span
	if parent := sentry.SpanFromContext(ctx); parent != nil {
		span = parent.StartChild(op)
	} else {
		span = sentry.StartSpan(ctx, op, sentry.WithTransactionName(op))
	}
	span.Description = description
	return span.Context(), &Span{inner: span}
}
