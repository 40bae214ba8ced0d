package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/dietbot/internal/domain"
	"github.com/tbourn/dietbot/internal/line"
	"github.com/tbourn/dietbot/internal/repo"
)

func textEvent(user, text string, ts time.Time) line.Event {
	return line.Event{
		Type:      line.EventMessage,
		Timestamp: ts.UnixMilli(),
		Source:    line.Source{Type: "user", UserID: user},
		Message:   &line.Message{ID: "m1", Type: "text", Text: text},
	}
}

func TestWebhook_MealFeedbackUsesTokyoDate(t *testing.T) {
	db := newSvcDB(t)
	days := &stubDays{day: &DayData{Date: "2025-08-12"}}
	model := &fakeLLM{reply: "いい感じです"}
	s := &WebhookService{
		DB:         db,
		Messenger:  &fakeMessenger{profile: &line.Profile{DisplayName: "Hanako", PictureURL: "https://p/1"}},
		Classifier: fixedClassifier(domain.TypeMealFeedback),
		Advisor:    &Advisor{LLM: model, Days: days},
	}
	// 16:30 UTC on the 11th is 01:30 on the 12th in Tokyo
	ts := time.Date(2025, 8, 11, 16, 30, 0, 0, time.UTC)

	out, err := s.Handle(context.Background(), textEvent("U1", " 今日の食事を見て ", ts))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if out.Status != OutcomeSuccess || out.RequestType != domain.TypeMealFeedback || !out.AdviceReady {
		t.Fatalf("outcome = %+v", out)
	}
	if days.date != "2025-08-12" {
		t.Fatalf("advice date = %q; want Tokyo calendar date", days.date)
	}

	req, _ := repo.GetRequest(context.Background(), db, out.RequestID)
	if req.Message != "今日の食事を見て" || req.Status != domain.StatusPending || *req.AdviceText != "いい感じです" {
		t.Fatalf("request = %+v", req)
	}
	if !req.ReceivedAt.Equal(ts) {
		t.Fatalf("received_at = %v", req.ReceivedAt)
	}
	sub, err := repo.GetSubject(context.Background(), db, "U1")
	if err != nil || sub.Name != "Hanako" || sub.PictureURL != "https://p/1" {
		t.Fatalf("subject = %+v (%v)", sub, err)
	}
}

func TestWebhook_IgnoredEvents(t *testing.T) {
	s := &WebhookService{DB: newSvcDB(t), Classifier: fixedClassifier(domain.TypeOther)}
	ctx := context.Background()

	out, err := s.Handle(ctx, line.Event{Type: "follow", Source: line.Source{UserID: "U1"}})
	if err != nil || out.Status != OutcomeIgnored {
		t.Fatalf("follow = %+v (%v)", out, err)
	}
	out, err = s.Handle(ctx, line.Event{Type: line.EventMessage, Message: &line.Message{Type: "sticker"}})
	if err != nil || out.Status != OutcomeIgnored {
		t.Fatalf("sticker = %+v (%v)", out, err)
	}
}

func TestWebhook_PostbackWithFailures(t *testing.T) {
	db := newSvcDB(t)
	if err := repo.UpsertSubject(context.Background(), db, repo.Profile{SubjectID: "U1", Name: "Hanako"}, time.Now()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s := &WebhookService{
		DB:         db,
		Messenger:  &fakeMessenger{profileErr: errors.New("line 404")},
		Classifier: fixedClassifier(domain.TypeOther),
		Advisor:    &Advisor{LLM: &fakeLLM{err: errors.New("model down")}},
		Now:        func() time.Time { return time.Date(2025, 8, 12, 0, 0, 0, 0, time.UTC) },
	}
	ev := line.Event{Type: line.EventPostback, Source: line.Source{UserID: "U1"}, Postback: &line.Postback{Data: "action=advice"}}

	out, err := s.Handle(context.Background(), ev)
	if err != nil || out.Status != OutcomeSuccess || out.AdviceReady {
		t.Fatalf("outcome = %+v (%v)", out, err)
	}
	req, _ := repo.GetRequest(context.Background(), db, out.RequestID)
	if req.Message != "action=advice" || req.AdviceText != nil {
		t.Fatalf("advice failure must leave advice empty: %+v", req)
	}
	sub, _ := repo.GetSubject(context.Background(), db, "U1")
	if sub.Name != "Hanako" || sub.LastContactAt == nil {
		t.Fatalf("failed profile lookup must keep the name and record contact: %+v", sub)
	}
}
