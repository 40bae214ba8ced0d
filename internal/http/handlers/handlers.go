package handlers

import (
	"context"

	"github.com/tbourn/dietbot/internal/line"
	"github.com/tbourn/dietbot/internal/repo"
	"github.com/tbourn/dietbot/internal/services"
)

// EventHandler processes one webhook event.
type EventHandler interface {
	Handle(ctx context.Context, ev line.Event) (services.Outcome, error)
}

// RetryStore remembers processed redelivery keys.
type RetryStore interface {
	Remember(ctx context.Context, key string, requestID uint, status int) error
}

// EventLog remembers individual webhook events by their platform event id,
// so a redelivered batch skips the events that were already stored.
type EventLog interface {
	Processed(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string, requestID uint) error
}

// RequestActions are the operator actions on inbound requests.
type RequestActions interface {
	Unreplied(ctx context.Context, limit int) ([]repo.UnrepliedRow, error)
	Reply(ctx context.Context, id uint, message string) error
	SendSummary(ctx context.Context, id uint, date string) (string, error)
	SetStatus(ctx context.Context, id uint, status string) error
	Discard(ctx context.Context, id uint) error
}

// DailyReporter renders the daily report text.
type DailyReporter interface {
	Daily(ctx context.Context, subjectID, date string) (string, error)
}

// Backfiller loads historical ranges.
type Backfiller interface {
	Run(ctx context.Context, subjectID, start, end string, includeGoal bool) (*services.BackfillSummary, error)
}

// Reconciler fills gaps in stored nutrition rows.
type Reconciler interface {
	Reconcile(ctx context.Context, subjectID, start, end string) (*services.ReconcileSummary, error)
}

// SubjectData covers goal snapshots and stored nutrition reads.
type SubjectData interface {
	SnapshotGoal(ctx context.Context, subjectID, start, end string) (int, error)
	Nutrition(ctx context.Context, subjectID, start, end string) (*services.StoredNutrition, error)
}

// Authorizer completes the diet-tracker OAuth flow.
type Authorizer interface {
	AuthCodeURL(subjectID string) string
	Exchange(ctx context.Context, subjectID, code string) error
}

// Handlers bundles the HTTP handlers and their dependencies.
type Handlers struct {
	Events    EventHandler
	Retries   RetryStore
	EventLog  EventLog
	Requests  RequestActions
	Reports   DailyReporter
	Backfills Backfiller
	Gaps      Reconciler
	Subjects  SubjectData
	OAuth     Authorizer
}
