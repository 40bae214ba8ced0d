// Package services – GapService
//
// GapService finds the dates in a range whose nutrition row is missing or
// incomplete, groups them into contiguous runs and re-fetches one run per
// upstream call.

package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/dietbot/internal/domain"
	"github.com/tbourn/dietbot/internal/normalize"
	"github.com/tbourn/dietbot/internal/observability"
	"github.com/tbourn/dietbot/internal/repo"
)

// Run is an inclusive span of consecutive calendar dates.
type Run struct {
	Start string `json:"start_date"`
	End   string `json:"end_date"`
}

// Days returns the number of dates in the run.
func (r Run) Days() int { return len(normalize.Range(r.Start, r.End)) }

// FindGaps returns the maximal runs of consecutive dates that have no row in
// rows or whose row is incomplete. dates must be in ascending order.
func FindGaps(dates []string, rows []domain.NutritionDaily) []Run {
	complete := make(map[string]bool, len(rows))
	for _, r := range rows {
		if !r.Incomplete() {
			complete[r.Date] = true
		}
	}

	var runs []Run
	open := false
	for _, d := range dates {
		if complete[d] {
			open = false
			continue
		}
		if open && normalize.NextDay(runs[len(runs)-1].End) == d {
			runs[len(runs)-1].End = d
			continue
		}
		runs = append(runs, Run{Start: d, End: d})
		open = true
	}
	return runs
}

// ReconcileSummary reports a reconciliation run.
type ReconcileSummary struct {
	Runs       []Run `json:"runs"`
	Written    int   `json:"written"`
	Unparsed   int   `json:"unparsed_days"`
	FailedRuns int   `json:"failed_runs"`
}

// GapService re-fetches incomplete nutrition days.
type GapService struct {
	DB  *gorm.DB
	API DietAPI
	// Pace spaces out upstream calls; nil means no pacing.
	Pace *rate.Limiter
}

// Reconcile fills the gaps of [start, end]. A failed fetch is logged and
// counted; storage errors abort the run with the progress made so far.
// The run is not cancelled when ctx is.
func (s *GapService) Reconcile(ctx context.Context, subjectID, start, end string) (sum *ReconcileSummary, err error) {
	dates, err := checkedRange(start, end)
	if err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer("services/GapService").Start(context.WithoutCancel(ctx), "Reconcile",
		trace.WithAttributes(
			attribute.String("user.id", subjectID),
			attribute.String("range.start", start),
			attribute.String("range.end", end),
		),
	)
	defer span.End()
	defer func() { finishBatch(ctx, "reconcile", subjectID, err) }()

	rows, err := repo.ListNutrition(ctx, s.DB, subjectID, dates[0], dates[len(dates)-1])
	if err != nil {
		return nil, err
	}

	sum = &ReconcileSummary{Runs: FindGaps(dates, rows)}
	if sum.Runs == nil {
		sum.Runs = []Run{}
	}
	span.SetAttributes(attribute.Int("gap.runs", len(sum.Runs)))

	lg := log.Ctx(ctx).With().Str("subject_id", subjectID).Logger()
	for _, run := range sum.Runs {
		pace(ctx, s.Pace)
		payload, ferr := s.API.MealWithBasis(ctx, subjectID, run.Start, run.End)
		if ferr != nil {
			sum.FailedRuns++
			lg.Warn().Err(ferr).Str("run_start", run.Start).Str("run_end", run.End).Msg("gap fetch failed, skipping run")
			continue
		}
		n, unparsed, werr := writeNutritionDays(ctx, s.DB, subjectID, payload)
		sum.Written += n
		sum.Unparsed += unparsed
		if werr != nil {
			return sum, werr
		}
	}
	lg.Info().
		Int("runs", len(sum.Runs)).
		Int("written", sum.Written).
		Int("failed_runs", sum.FailedRuns).
		Msg("reconcile done")
	return sum, nil
}

// writeNutritionDays upserts every dated day object of a meal payload.
func writeNutritionDays(ctx context.Context, db *gorm.DB, subjectID string, payload any) (written, unparsed int, err error) {
	defer func() { observability.RowsWritten("nutrition", written) }()
	for _, obj := range normalize.MealResolver.Days(payload) {
		day, ok := normalize.ExtractDay(obj)
		if !ok {
			unparsed++
			continue
		}
		if err := repo.UpsertNutrition(ctx, db, subjectID, day.Date, repo.NutritionFields{
			Totals:    day.Totals,
			Breakdown: day.Breakdown,
		}); err != nil {
			return written, unparsed, fmt.Errorf("save nutrition %s: %w", day.Date, err)
		}
		written++
	}
	return written, unparsed, nil
}

// pace waits for a token; a nil limiter does not wait.
func pace(ctx context.Context, l *rate.Limiter) {
	if l != nil {
		_ = l.Wait(ctx)
	}
}

// finishBatch records the outcome of a batch run and reports failures.
func finishBatch(ctx context.Context, kind, subjectID string, err error) {
	observability.BatchRun(kind, err)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("subject_id", subjectID).Str("kind", kind).Msg("batch run failed")
		observability.CaptureError(ctx, err, map[string]string{"kind": kind, "subject_id": subjectID})
	}
}
