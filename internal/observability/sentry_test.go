package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tbourn/dietbot/internal/config"
)

func TestSetupSentry_EmptyDSN_NoOp(t *testing.T) {
	flush, err := SetupSentry(config.SentryConfig{}, "test")
	if err != nil || flush == nil {
		t.Fatalf("expected no-op, got flush=%v err=%v", flush != nil, err)
	}
	flush()
	// no client bound: must not panic
	CaptureError(context.Background(), errors.New("boom"), map[string]string{"k": "v"})
	CaptureError(context.Background(), nil, nil)
}

func TestSetupSentry_BadDSN(t *testing.T) {
	if _, err := SetupSentry(config.SentryConfig{DSN: "::not a dsn"}, "test"); err == nil {
		t.Fatalf("expected error for malformed DSN")
	}
}

type captureTransport struct {
	events []*sentry.Event
}

func (c *captureTransport) Configure(sentry.ClientOptions) {}
func (c *captureTransport) SendEvent(e *sentry.Event) { c.events = append(c.events, e) }
func (c *captureTransport) Flush(_ time.Duration) bool { return true }
func (c *captureTransport) FlushWithContext(context.Context) bool { return true }
func (c *captureTransport) Close() {}

func TestCaptureError_UsesHubFromContext(t *testing.T) {
	tr := &captureTransport{}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:        "https://key@o0.ingest.sentry.io/1",
		Transport:  tr,
		BeforeSend: scrubEvent,
	})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	hub := sentry.NewHub(client, sentry.NewScope())
	ctx := sentry.SetHubOnContext(context.Background(), hub)

	CaptureError(ctx, errors.New("backfill failed"), map[string]string{"kind": "backfill"})

	if len(tr.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(tr.events))
	}
	if got := tr.events[0].Tags["kind"]; got != "backfill" {
		t.Fatalf("tag kind = %q", got)
	}
}

func TestScrubEvent_DropsSecrets(t *testing.T) {
	ev := &sentry.Event{Request: &sentry.Request{
		Headers: map[string]string{"X-Admin-Token": "s", "Authorization": "Bearer x", "Accept": "json"},
		Cookies: "a=b",
	}}
	out := scrubEvent(ev, nil)
	if _, ok := out.Request.Headers["X-Admin-Token"]; ok {
		t.Fatalf("admin token kept")
	}
	if out.Request.Headers["Accept"] != "json" || out.Request.Cookies != "" {
		t.Fatalf("request = %+v", out.Request)
	}
}
