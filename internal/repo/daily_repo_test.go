package repo

import (
	"context"
	"testing"

	"github.com/tbourn/dietbot/internal/domain"
)

func TestUpsertNutrition_InsertThenUpdate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	bd := domain.Breakdown{domain.SlotNoon: {Calorie: domain.Float(700)}}
	if err := UpsertNutrition(ctx, db, "u1", "2025-08-12", NutritionFields{
		Totals:    domain.Macros{Calorie: domain.Float(700)},
		Breakdown: bd,
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := UpsertNutrition(ctx, db, "u1", "2025-08-12", NutritionFields{
		Totals: domain.Macros{Calorie: domain.Float(900), Protein: domain.Float(30)},
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	rows, err := ListNutrition(ctx, db, "u1", "2025-08-01", "2025-08-31")
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected exactly one row, got %d (%v)", len(rows), err)
	}
	r := rows[0]
	if *r.CalorieKcal != 900 || *r.ProteinG != 30 || r.FatG != nil || r.CarbG != nil {
		t.Fatalf("totals not overwritten: %+v", r)
	}
	if noon, ok := r.MealsBreakdown[domain.SlotNoon]; !ok || *noon.Calorie != 700 {
		t.Fatalf("totals-only save must keep breakdown, got %+v", r.MealsBreakdown)
	}
}

func TestUpsertNutrition_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	f := NutritionFields{
		Totals: domain.Macros{Calorie: domain.Float(1800)},
		Breakdown: domain.Breakdown{
			domain.SlotMorning: {Calorie: domain.Float(500)},
			domain.SlotNight:   {Calorie: domain.Float(1300), Fat: domain.Float(40)},
		},
	}
	snapshot := func() domain.NutritionDaily {
		rows, err := ListNutrition(ctx, db, "u1", "2025-08-12", "2025-08-12")
		if err != nil || len(rows) != 1 {
			t.Fatalf("list: %d rows (%v)", len(rows), err)
		}
		r := rows[0]
		r.CreatedAt, r.UpdatedAt = r.CreatedAt.UTC(), r.UpdatedAt.UTC()
		return r
	}

	if err := UpsertNutrition(ctx, db, "u1", "2025-08-12", f); err != nil {
		t.Fatalf("first: %v", err)
	}
	first := snapshot()
	if err := UpsertNutrition(ctx, db, "u1", "2025-08-12", f); err != nil {
		t.Fatalf("second: %v", err)
	}
	second := snapshot()

	if first.ID != second.ID || *first.CalorieKcal != *second.CalorieKcal ||
		first.ProteinG != nil || second.ProteinG != nil ||
		len(first.MealsBreakdown) != len(second.MealsBreakdown) ||
		*second.MealsBreakdown[domain.SlotNight].Fat != 40 {
		t.Fatalf("state changed across identical writes:\n%+v\n%+v", first, second)
	}
}

func TestUpsertBody_PartialFieldsAndEmpty(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ok, err := UpsertBody(ctx, db, "u1", "2025-08-12", BodyFields{})
	if err != nil || ok {
		t.Fatalf("empty body should not be written: ok=%v err=%v", ok, err)
	}
	if ok, err := UpsertBody(ctx, db, "u1", "2025-08-12", BodyFields{WeightKg: domain.Float(65.4), BodyFatPct: domain.Float(18)}); err != nil || !ok {
		t.Fatalf("insert: ok=%v err=%v", ok, err)
	}
	if _, err := UpsertBody(ctx, db, "u1", "2025-08-12", BodyFields{WeightKg: domain.Float(65.0)}); err != nil {
		t.Fatalf("update: %v", err)
	}
	rows, err := ListBody(ctx, db, "u1", "2025-08-12", "2025-08-12")
	if err != nil || len(rows) != 1 {
		t.Fatalf("list: %d (%v)", len(rows), err)
	}
	if *rows[0].WeightKg != 65.0 || rows[0].BodyFatPct == nil || *rows[0].BodyFatPct != 18 {
		t.Fatalf("unsupplied body fat must be kept: %+v", rows[0])
	}
}

func TestUpsertGoal_ReplicatesAndOverwrites(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	g := domain.Macros{Calorie: domain.Float(1800), Protein: domain.Float(90), Fat: domain.Float(50), Carb: domain.Float(230)}
	for _, d := range []string{"2025-08-01", "2025-08-02"} {
		if err := UpsertGoal(ctx, db, "u1", d, g); err != nil {
			t.Fatalf("goal %s: %v", d, err)
		}
	}
	if err := UpsertGoal(ctx, db, "u1", "2025-08-02", domain.Macros{Calorie: domain.Float(1700)}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	rows, err := ListGoals(ctx, db, "u1", "2025-08-01", "2025-08-02")
	if err != nil || len(rows) != 2 {
		t.Fatalf("list: %d (%v)", len(rows), err)
	}
	if *rows[0].TargetCalorieKcal != 1800 || *rows[0].TargetCarbG != 230 {
		t.Fatalf("day 1 = %+v", rows[0])
	}
	if *rows[1].TargetCalorieKcal != 1700 || rows[1].TargetProteinG != nil {
		t.Fatalf("goal rows write all targets: %+v", rows[1])
	}
}

func TestListNutrition_RangeAndSubjectScoped(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	for _, d := range []string{"2025-07-31", "2025-08-01", "2025-08-03", "2025-08-04"} {
		if err := UpsertNutrition(ctx, db, "u1", d, NutritionFields{}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if err := UpsertNutrition(ctx, db, "u2", "2025-08-02", NutritionFields{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	rows, err := ListNutrition(ctx, db, "u1", "2025-08-01", "2025-08-03")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 || rows[0].Date != "2025-08-01" || rows[1].Date != "2025-08-03" {
		t.Fatalf("rows = %+v", rows)
	}

	n, latest, err := NutritionStats(ctx, db, "u1", "2025-08-01", "2025-08-31")
	if err != nil || n != 3 || latest == nil {
		t.Fatalf("stats = %d %v %v", n, latest, err)
	}
	if n, latest, err := NutritionStats(ctx, db, "nobody", "2025-08-01", "2025-08-31"); err != nil || n != 0 || latest != nil {
		t.Fatalf("empty stats = %d %v %v", n, latest, err)
	}
}
