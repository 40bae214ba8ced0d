package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/dietbot/internal/config"
)

// SetupSentry initializes error reporting. With an empty DSN it does nothing
// and CaptureError becomes a no-op. The returned flush function waits for
// queued events and is never nil.
func SetupSentry(cfg config.SentryConfig, release string) (func(), error) {
	noop := func() {}
	if cfg.DSN == "" {
		log.Debug().Msg("sentry DSN not configured, error reporting disabled")
		return noop, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     release,
		BeforeSend:  scrubEvent,
	})
	if err != nil {
		return noop, fmt.Errorf("sentry init: %w", err)
	}
	log.Info().Str("environment", cfg.Environment).Msg("sentry initialized")
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// sensitiveHeaders never leave the process.
var sensitiveHeaders = []string{"Authorization", "Cookie", "X-Admin-Token", "X-Line-Signature"}

func scrubEvent(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event.Request != nil {
		for _, h := range sensitiveHeaders {
			delete(event.Request.Headers, h)
		}
		event.Request.Cookies = ""
	}
	return event
}

// CaptureError reports err with the given tags on the hub bound to ctx, or on
// a clone of the current hub.
func CaptureError(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}
	if hub.Client() == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		hub.CaptureException(err)
	})
}
