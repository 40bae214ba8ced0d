// Package services – WebhookService
//
// WebhookService handles one messaging-platform event synchronously: sync the
// sender's profile, classify the text, store the request, then generate and
// store advice. Only storing the request can fail the event; profile and
// advice problems are logged, the latter leaving the advice empty.

package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/dietbot/internal/domain"
	"github.com/tbourn/dietbot/internal/line"
	"github.com/tbourn/dietbot/internal/normalize"
	"github.com/tbourn/dietbot/internal/observability"
	"github.com/tbourn/dietbot/internal/repo"
)

// Event outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeIgnored = "ignored"
)

// Outcome is the result of handling one event.
type Outcome struct {
	Status      string             `json:"status"`
	RequestID   uint               `json:"request_id,omitempty"`
	RequestType domain.RequestType `json:"request_type,omitempty"`
	Reason      string             `json:"reason,omitempty"`
	AdviceReady bool               `json:"advice_ready"`
}

// Tokyo is the zone calendar dates of inbound messages are taken in.
var Tokyo = loadTokyo()

func loadTokyo() *time.Location {
	if loc, err := time.LoadLocation("Asia/Tokyo"); err == nil {
		return loc
	}
	return time.FixedZone("JST", 9*60*60)
}

// WebhookService processes inbound events.
type WebhookService struct {
	DB         *gorm.DB
	Messenger  Messenger
	Classifier Classifier
	Advisor    *Advisor

	Location *time.Location
	Now      func() time.Time
}

func (s *WebhookService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *WebhookService) loc() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return Tokyo
}

// Handle processes ev. Unsupported event types and events without text are
// ignored without error.
func (s *WebhookService) Handle(ctx context.Context, ev line.Event) (Outcome, error) {
	ctx, span := otel.Tracer("services/WebhookService").Start(ctx, "Handle",
		trace.WithAttributes(
			attribute.String("event.type", ev.Type),
			attribute.String("user.id", ev.Source.UserID),
		),
	)
	defer span.End()

	if ev.Type != line.EventMessage && ev.Type != line.EventPostback {
		observability.InboundEvent("unsupported")
		return Outcome{Status: OutcomeIgnored, Reason: "unsupported event type: " + ev.Type}, nil
	}
	text := strings.TrimSpace(ev.Text())
	if text == "" {
		observability.InboundEvent("empty")
		return Outcome{Status: OutcomeIgnored, Reason: "no text in event"}, nil
	}

	userID := ev.Source.UserID
	at := ev.Time(s.now()).In(s.loc())
	lg := log.Ctx(ctx).With().Str("subject_id", userID).Logger()

	if userID != "" {
		s.syncProfile(ctx, userID, at)
	}

	typ := s.Classifier.Classify(ctx, text)
	observability.InboundEvent(string(typ))
	span.SetAttributes(attribute.String("request.type", string(typ)))

	req := &domain.InboundRequest{
		SubjectID:   userID,
		Message:     text,
		RequestType: typ,
		ReceivedAt:  at.UTC(),
	}
	if err := repo.CreateRequest(ctx, s.DB, req); err != nil {
		return Outcome{}, err
	}
	out := Outcome{Status: OutcomeSuccess, RequestID: req.ID, RequestType: typ}

	if s.Advisor == nil {
		return out, nil
	}
	advice, err := s.Advisor.Advise(ctx, userID, typ, text, normalize.DateOf(at))
	if err != nil {
		span.RecordError(err)
		lg.Warn().Err(err).Uint("request_id", req.ID).Str("request_type", string(typ)).Msg("advice generation failed")
		observability.CaptureError(ctx, err, map[string]string{"op": "advice", "request_type": string(typ)})
		return out, nil
	}
	if advice == "" {
		return out, nil
	}
	if err := repo.SetRequestAdvice(ctx, s.DB, req.ID, advice); err != nil {
		lg.Error().Err(err).Uint("request_id", req.ID).Msg("store advice failed")
		return out, nil
	}
	out.AdviceReady = true
	return out, nil
}

// syncProfile refreshes the subject row. Failures are logged; a failed
// profile lookup still records the contact.
func (s *WebhookService) syncProfile(ctx context.Context, userID string, at time.Time) {
	p := repo.Profile{SubjectID: userID}
	if s.Messenger != nil {
		prof, err := s.Messenger.Profile(ctx, userID)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("subject_id", userID).Msg("profile sync failed")
		} else {
			p.Name = prof.DisplayName
			p.PictureURL = prof.PictureURL
		}
	}
	if err := repo.UpsertSubject(ctx, s.DB, p, at.UTC()); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("subject_id", userID).Msg("subject upsert failed")
	}
}
