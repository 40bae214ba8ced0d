package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/tbourn/dietbot/internal/repo"
)

func TestChunks(t *testing.T) {
	got := Chunks("2025-08-01", "2025/08/10", 4)
	want := []Run{
		{Start: "2025-08-01", End: "2025-08-04"},
		{Start: "2025-08-05", End: "2025-08-08"},
		{Start: "2025-08-09", End: "2025-08-10"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Chunks = %+v", got)
	}
	if n := len(Chunks("2025-01-01", "2025-03-01", 0)); n != 9 {
		t.Fatalf("default chunk size: %d chunks; want 9", n)
	}
	if Chunks("2025-08-10", "2025-08-01", 7) != nil {
		t.Fatalf("reversed range must yield nil")
	}
	if got := Chunks("2025-08-01", "2025-08-01", 7); len(got) != 1 || got[0].Days() != 1 {
		t.Fatalf("single day = %+v", got)
	}
}

// mealDays renders a meal payload with one summary total per date.
func mealDays(dates ...string) string {
	s := `{"meal_with_basis":[`
	for i, d := range dates {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf(`{"date":%q,"meal_histories_summary":{"all":{"calorie":1000},"noon":{"calorie":1000}}}`, d)
	}
	return s + `]}`
}

func TestBackfill_PartialFailuresAreSkipped(t *testing.T) {
	api := &fakeAPI{
		body: func(start, _ string) (any, error) {
			if start == "2025-08-01" {
				return nil, errUpstream
			}
			// 08-04 has a weight, 08-05 only a placeholder, 08-06 is absent
			return decode(t, `{"data":[{"date":"2025-08-04","weight":65.2},{"date":"2025-08-05","weight":"-"},{"date":"?"}]}`), nil
		},
		meal: func(start, _ string) (any, error) {
			if start == "2025-08-04" {
				return nil, errUpstream
			}
			return decode(t, mealDays("2025/08/01", "2025/08/02", "2025/08/03")), nil
		},
	}
	db := newSvcDB(t)
	s := &BackfillService{DB: db, API: api, ChunkDays: 3}

	sum, err := s.Run(context.Background(), "U1", "2025-08-01", "2025-08-06", false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := BackfillSummary{
		Start: "2025-08-01", End: "2025-08-06", Chunks: 2,
		RowsWritten: 4, BodyRows: 1, NoBodyMetric: 2, NutritionDays: 3,
		UnparsedDays: 1, FailedBodyFetch: 1, FailedMealFetch: 1,
	}
	if *sum != want {
		t.Fatalf("summary = %+v\nwant      %+v", *sum, want)
	}
	if len(api.calls) != 4 {
		t.Fatalf("both endpoints must be called per chunk: %v", api.calls)
	}

	body, _ := repo.ListBody(context.Background(), db, "U1", "2025-08-01", "2025-08-31")
	if len(body) != 1 || body[0].Date != "2025-08-04" {
		t.Fatalf("body rows = %+v", body)
	}
	nut, _ := repo.ListNutrition(context.Background(), db, "U1", "2025-08-01", "2025-08-31")
	if len(nut) != 3 {
		t.Fatalf("nutrition rows = %d", len(nut))
	}
}

func TestBackfill_WithGoalAndInvalidRange(t *testing.T) {
	db := newSvcDB(t)
	api := &fakeAPI{info: func() (any, error) {
		return decode(t, `{"goal":{"calorie":1700}}`), nil
	}}
	s := &BackfillService{DB: db, API: api, ChunkDays: 7, Goals: &AggregationService{DB: db, API: api}}

	if _, err := s.Run(context.Background(), "U1", "2025-08-05", "2025-08-01", true); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	sum, err := s.Run(context.Background(), "U1", "2025-08-01", "2025-08-02", true)
	if err != nil || sum.GoalRows != 2 || sum.GoalError != "" {
		t.Fatalf("summary = %+v (%v)", sum, err)
	}

	api.info = func() (any, error) { return nil, errUpstream }
	sum, err = s.Run(context.Background(), "U1", "2025-08-01", "2025-08-02", true)
	if err != nil || sum.GoalError == "" {
		t.Fatalf("goal failure belongs in the summary: %+v (%v)", sum, err)
	}
}
