// Package services – AggregationService
//
// AggregationService fetches one day of meal and body data for a subject,
// normalizes it and writes it through the daily upserts. It also takes goal
// snapshots: the current goal from user info replicated across a date range.
//
// Observability: public methods are OpenTelemetry-instrumented with the
// subject and date range.

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/dietbot/internal/domain"
	"github.com/tbourn/dietbot/internal/normalize"
	"github.com/tbourn/dietbot/internal/observability"
	"github.com/tbourn/dietbot/internal/repo"
)

// MaxRangeDays caps goal snapshots and reconciliation ranges.
const MaxRangeDays = 366

// DayData is one day as fetched and normalized.
type DayData struct {
	Date string

	// Meal is the selected per-day object of the meal payload; nil when the
	// payload held no days.
	Meal normalize.Object
	// Nutrition is valid when HasNutrition is set.
	Nutrition    normalize.Day
	HasNutrition bool

	Body normalize.BodyDay
	// Goal holds the targets the meal payload carries under basis.all.
	Goal domain.Macros
}

// AggregationService persists single days and goal snapshots.
type AggregationService struct {
	DB  *gorm.DB
	API DietAPI
	Now func() time.Time
}

func (s *AggregationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// FetchDay loads and normalizes one day without writing anything.
func (s *AggregationService) FetchDay(ctx context.Context, subjectID, date string) (*DayData, error) {
	d, ok := normalize.Date(date)
	if !ok {
		return nil, ErrInvalidDate
	}
	meal, err := s.API.MealWithBasis(ctx, subjectID, d, d)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	body, err := s.API.Anthropometric(ctx, subjectID, d, d)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	out := &DayData{Date: d, Body: normalize.BodyFor(body, d)}
	if obj := normalize.SelectDay(normalize.MealResolver.Days(meal), d); obj != nil {
		out.Meal = obj
		out.Goal = normalize.ExtractDayGoal(obj)
		out.Nutrition, out.HasNutrition = normalize.ExtractDay(obj)
	}
	return out, nil
}

// SyncDay fetches one day and upserts its nutrition and body rows. A day
// object without a parseable date is not written; a body day with no metric
// is not written either.
func (s *AggregationService) SyncDay(ctx context.Context, subjectID, date string) (*DayData, error) {
	ctx, span := otel.Tracer("services/AggregationService").Start(ctx, "SyncDay",
		trace.WithAttributes(
			attribute.String("user.id", subjectID),
			attribute.String("date", date),
		),
	)
	defer span.End()

	day, err := s.FetchDay(ctx, subjectID, date)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if day.HasNutrition {
		n := day.Nutrition
		if err := repo.UpsertNutrition(ctx, s.DB, subjectID, n.Date, repo.NutritionFields{
			Totals:    n.Totals,
			Breakdown: n.Breakdown,
		}); err != nil {
			return nil, fmt.Errorf("save nutrition %s: %w", n.Date, err)
		}
		observability.RowsWritten("nutrition", 1)
	}
	wrote, err := repo.UpsertBody(ctx, s.DB, subjectID, day.Date, repo.BodyFields{
		WeightKg:   day.Body.WeightKg,
		BodyFatPct: day.Body.BodyFatPct,
	})
	if err != nil {
		return nil, fmt.Errorf("save body %s: %w", day.Date, err)
	}
	if wrote {
		observability.RowsWritten("body", 1)
	}

	log.Ctx(ctx).Debug().
		Str("subject_id", subjectID).
		Str("date", day.Date).
		Bool("nutrition", day.HasNutrition).
		Bool("body", wrote).
		Msg("day synced")
	return day, nil
}

// SnapshotGoal fetches the subject's current goal and writes it onto every
// date in [start, end], then stores it as the subject's current goal. The
// rows record the goal at fetch time, not the goal in force on each date.
// It returns the number of goal rows written.
func (s *AggregationService) SnapshotGoal(ctx context.Context, subjectID, start, end string) (int, error) {
	ctx, span := otel.Tracer("services/AggregationService").Start(ctx, "SnapshotGoal",
		trace.WithAttributes(
			attribute.String("user.id", subjectID),
			attribute.String("range.start", start),
			attribute.String("range.end", end),
		),
	)
	defer span.End()

	dates, err := checkedRange(start, end)
	if err != nil {
		return 0, err
	}
	info, err := s.API.UserInfo(ctx, subjectID)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	goal, ok := normalize.ExtractGoal(info)
	if !ok {
		return 0, ErrNoGoal
	}

	written := 0
	for _, d := range dates {
		if err := repo.UpsertGoal(ctx, s.DB, subjectID, d, goal); err != nil {
			observability.RowsWritten("goal", written)
			return written, fmt.Errorf("save goal %s: %w", d, err)
		}
		written++
	}
	observability.RowsWritten("goal", written)

	if err := repo.SetSubjectGoal(ctx, s.DB, subjectID, domain.GoalSnapshot{Macros: goal, FetchedAt: s.now()}); err != nil {
		return written, fmt.Errorf("save current goal: %w", err)
	}
	return written, nil
}

// StoredNutrition is a subject's persisted nutrition rows over a range with
// the change marker used for conditional reads.
type StoredNutrition struct {
	Rows         []domain.NutritionDaily
	Count        int64
	LastModified *time.Time
}

// Nutrition returns the stored nutrition rows in [start, end], oldest first.
func (s *AggregationService) Nutrition(ctx context.Context, subjectID, start, end string) (*StoredNutrition, error) {
	if strings.TrimSpace(subjectID) == "" {
		return nil, ErrNoSubject
	}
	dates, err := checkedRange(start, end)
	if err != nil {
		return nil, err
	}
	start, end = dates[0], dates[len(dates)-1]
	n, last, err := repo.NutritionStats(ctx, s.DB, subjectID, start, end)
	if err != nil {
		return nil, err
	}
	out := &StoredNutrition{Rows: []domain.NutritionDaily{}, Count: n, LastModified: last}
	if n == 0 {
		return out, nil
	}
	if out.Rows, err = repo.ListNutrition(ctx, s.DB, subjectID, start, end); err != nil {
		return nil, err
	}
	return out, nil
}

// checkedRange expands [start, end] and enforces MaxRangeDays.
func checkedRange(start, end string) ([]string, error) {
	dates := normalize.Range(start, end)
	if len(dates) == 0 {
		return nil, ErrInvalidRange
	}
	if len(dates) > MaxRangeDays {
		return nil, ErrRangeTooLarge
	}
	return dates, nil
}
