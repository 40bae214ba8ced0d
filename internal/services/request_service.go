// Package services – RequestService
//
// RequestService implements the operator actions on inbound requests: list
// the pending queue, reply with free text, send the daily summary with the
// stored advice, change status and discard.

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/dietbot/internal/domain"
	"github.com/tbourn/dietbot/internal/normalize"
	"github.com/tbourn/dietbot/internal/repo"
	"github.com/tbourn/dietbot/internal/utils"
)

const (
	defaultUnrepliedLimit = 20
	maxUnrepliedLimit     = 200
)

// RequestService manages the request lifecycle.
type RequestService struct {
	DB        *gorm.DB
	Messenger Messenger
	Reports   *ReportService
}

// Unreplied returns pending requests, newest first. limit <= 0 means 20.
func (s *RequestService) Unreplied(ctx context.Context, limit int) ([]repo.UnrepliedRow, error) {
	limit = utils.ClampLimit(limit, defaultUnrepliedLimit, maxUnrepliedLimit)
	rows, err := repo.ListUnreplied(ctx, s.DB, limit)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []repo.UnrepliedRow{}
	}
	return rows, nil
}

// Reply pushes message to the request's subject and marks it replied with
// the sent text.
func (s *RequestService) Reply(ctx context.Context, id uint, message string) error {
	ctx, span := otel.Tracer("services/RequestService").Start(ctx, "Reply",
		trace.WithAttributes(attribute.Int("request.id", int(id))),
	)
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return ErrEmptyMessage
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return s.send(ctx, r, message)
}

// SendSummary pushes the daily report for date followed by the stored
// advice, then marks the request replied. It returns the sent text.
func (s *RequestService) SendSummary(ctx context.Context, id uint, date string) (string, error) {
	ctx, span := otel.Tracer("services/RequestService").Start(ctx, "SendSummary",
		trace.WithAttributes(
			attribute.Int("request.id", int(id)),
			attribute.String("date", date),
		),
	)
	defer span.End()

	if _, ok := normalize.Date(date); !ok {
		return "", ErrInvalidDate
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}
	report, err := s.Reports.Daily(ctx, r.SubjectID, date)
	if err != nil {
		return "", err
	}
	text := SummaryMessage(report, r.AdviceText)
	if err := s.send(ctx, r, text); err != nil {
		return "", err
	}
	return text, nil
}

// SetStatus moves a request to status.
func (s *RequestService) SetStatus(ctx context.Context, id uint, status string) error {
	st := domain.RequestStatus(strings.ToLower(strings.TrimSpace(status)))
	if !st.Valid() {
		return ErrInvalidStatus
	}
	return s.setStatus(ctx, id, st)
}

// Discard marks a request ignored.
func (s *RequestService) Discard(ctx context.Context, id uint) error {
	return s.setStatus(ctx, id, domain.StatusIgnored)
}

func (s *RequestService) setStatus(ctx context.Context, id uint, st domain.RequestStatus) error {
	if err := repo.SetRequestStatus(ctx, s.DB, id, st); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrRequestNotFound
		}
		return err
	}
	return nil
}

func (s *RequestService) load(ctx context.Context, id uint) (*domain.InboundRequest, error) {
	r, err := repo.GetRequest(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if r.SubjectID == "" {
		return nil, ErrNoRecipient
	}
	return r, nil
}

// send pushes text and records it as the request's final text.
func (s *RequestService) send(ctx context.Context, r *domain.InboundRequest, text string) error {
	if err := s.Messenger.Push(ctx, r.SubjectID, text); err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	return repo.MarkReplied(ctx, s.DB, r.ID, text)
}
