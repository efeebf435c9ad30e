// Package observability wires Sentry error reporting.
package observability

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/mkarlsen/tradescribe/internal/config"
)

// InitSentry initializes the global Sentry client. A disabled config or
// empty DSN is not an error; events are simply dropped.
func InitSentry(cfg config.SentryConfig, release, environment string) error {
	if !cfg.Enabled || cfg.DSN == "" {
		return nil
	}
	return sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Release:          release,
		Environment:      environment,
		AttachStacktrace: true,
		TracesSampleRate: 0.1,
	})
}

// Flush drains buffered events before shutdown, bounded by the context
// deadline or two seconds, whichever comes first.
func Flush(ctx context.Context) {
	timeout := 2 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	sentry.Flush(timeout)
}

// CaptureError reports an error to Sentry when a client is configured.
func CaptureError(err error) {
	if err == nil {
		return
	}
	sentry.CaptureException(err)
}
