// Package services – BackfillService
//
// BackfillService loads an arbitrary date range in fixed-size chunks. Each
// chunk fetches body metrics and meals independently; a failed fetch is
// logged and skipped so one bad chunk never aborts the range.

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

	"github.com/tbourn/dietbot/internal/normalize"
	"github.com/tbourn/dietbot/internal/observability"
	"github.com/tbourn/dietbot/internal/repo"
)

const defaultChunkDays = 7

// Chunks splits [start, end] into consecutive runs of at most size days.
// It returns nil for an invalid range.
func Chunks(start, end string, size int) []Run {
	if size < 1 {
		size = defaultChunkDays
	}
	dates := normalize.Range(start, end)
	var out []Run
	for i := 0; i < len(dates); i += size {
		j := min(i+size, len(dates)) - 1
		out = append(out, Run{Start: dates[i], End: dates[j]})
	}
	return out
}

// BackfillSummary reports a backfill run. RowsWritten counts body and
// nutrition rows together.
type BackfillSummary struct {
	Start           string `json:"start_date"`
	End             string `json:"end_date"`
	Chunks          int    `json:"chunks"`
	RowsWritten     int    `json:"rows_written"`
	BodyRows        int    `json:"body_rows"`
	NoBodyMetric    int    `json:"no_body_metric_days"`
	NutritionDays   int    `json:"nutrition_days"`
	UnparsedDays    int    `json:"unparsed_days"`
	FailedBodyFetch int    `json:"failed_body_chunks"`
	FailedMealFetch int    `json:"failed_meal_chunks"`
	GoalRows        int    `json:"goal_rows"`
	GoalError       string `json:"goal_error,omitempty"`
}

// BackfillService loads historical ranges.
type BackfillService struct {
	DB        *gorm.DB
	API       DietAPI
	ChunkDays int
	// Pace spaces out upstream calls; nil means no pacing.
	Pace *rate.Limiter
	// Goals takes the optional goal snapshot over the same range.
	Goals *AggregationService
}

// Run backfills [start, end] chunk by chunk, sequentially. Committed chunks
// stay committed when a later one fails to save. With includeGoal the current
// goal is replicated across the range as well; a goal failure is reported in
// the summary only. The run is not cancelled when ctx is.
func (s *BackfillService) Run(ctx context.Context, subjectID, start, end string, includeGoal bool) (sum *BackfillSummary, err error) {
	chunks := Chunks(start, end, s.ChunkDays)
	if len(chunks) == 0 {
		return nil, ErrInvalidRange
	}

	ctx, span := otel.Tracer("services/BackfillService").Start(context.WithoutCancel(ctx), "Run",
		trace.WithAttributes(
			attribute.String("user.id", subjectID),
			attribute.String("range.start", start),
			attribute.String("range.end", end),
			attribute.Int("chunks", len(chunks)),
		),
	)
	defer span.End()
	defer func() { finishBatch(ctx, "backfill", subjectID, err) }()

	sum = &BackfillSummary{Start: chunks[0].Start, End: chunks[len(chunks)-1].End, Chunks: len(chunks)}
	lg := log.Ctx(ctx).With().Str("subject_id", subjectID).Logger()

	for i, ch := range chunks {
		clg := lg.With().Int("chunk", i).Str("run_start", ch.Start).Str("run_end", ch.End).Logger()

		pace(ctx, s.Pace)
		if body, ferr := s.API.Anthropometric(ctx, subjectID, ch.Start, ch.End); ferr != nil {
			sum.FailedBodyFetch++
			clg.Warn().Err(ferr).Msg("body fetch failed, skipping chunk")
		} else if err := s.writeBody(ctx, subjectID, ch, body, sum); err != nil {
			return sum, err
		}

		pace(ctx, s.Pace)
		if meal, ferr := s.API.MealWithBasis(ctx, subjectID, ch.Start, ch.End); ferr != nil {
			sum.FailedMealFetch++
			clg.Warn().Err(ferr).Msg("meal fetch failed, skipping chunk")
		} else {
			n, unparsed, werr := writeNutritionDays(ctx, s.DB, subjectID, meal)
			sum.NutritionDays += n
			sum.RowsWritten += n
			sum.UnparsedDays += unparsed
			if werr != nil {
				return sum, werr
			}
		}
		clg.Debug().Int("rows_written", sum.RowsWritten).Msg("chunk done")
	}

	if includeGoal && s.Goals != nil {
		n, gerr := s.Goals.SnapshotGoal(ctx, subjectID, sum.Start, sum.End)
		sum.GoalRows = n
		if gerr != nil {
			sum.GoalError = gerr.Error()
			lg.Warn().Err(gerr).Msg("goal snapshot failed")
		}
	}

	lg.Info().
		Int("rows_written", sum.RowsWritten).
		Int("nutrition_days", sum.NutritionDays).
		Int("no_body_metric_days", sum.NoBodyMetric).
		Int("failed_chunks", sum.FailedBodyFetch+sum.FailedMealFetch).
		Msg("backfill done")
	return sum, nil
}

// writeBody upserts the chunk's body days. Every chunk date without a weight
// or body-fat value counts as a no-metric day.
func (s *BackfillService) writeBody(ctx context.Context, subjectID string, ch Run, payload any, sum *BackfillSummary) error {
	days, unparsed := normalize.ExtractBody(payload)
	sum.UnparsedDays += unparsed

	byDate := make(map[string]normalize.BodyDay, len(days))
	for _, d := range days {
		byDate[d.Date] = d
	}
	written := 0
	defer func() { observability.RowsWritten("body", written) }()
	for _, date := range normalize.Range(ch.Start, ch.End) {
		d, ok := byDate[date]
		if !ok || d.Empty() {
			sum.NoBodyMetric++
			continue
		}
		if _, err := repo.UpsertBody(ctx, s.DB, subjectID, date, repo.BodyFields{
			WeightKg:   d.WeightKg,
			BodyFatPct: d.BodyFatPct,
		}); err != nil {
			return fmt.Errorf("save body %s: %w", date, err)
		}
		written++
		sum.BodyRows++
		sum.RowsWritten++
	}
	return nil
}
