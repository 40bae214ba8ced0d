// This file implements the aggregation writer: insert-or-update of the three
// daily tables keyed by (user_id, date).
//
// Each upsert runs in its own transaction as an explicit read, then insert or
// update. A concurrent writer that inserts the same key between the read and
// the insert surfaces as a unique violation; the insert is rolled back to a
// savepoint and the write is retried as an update, so the last writer wins.
//
// Only the supplied columns are in the update set. Absent values are written
// as NULL when supplied, never as zero.

package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/dietbot/internal/domain"
)

// BodyFields are the body columns to write. nil fields are left untouched.
type BodyFields struct {
	WeightKg   *float64
	BodyFatPct *float64
}

// NutritionFields are the nutrition columns to write. All four totals are
// always written; Breakdown is written only when non-empty, so a totals-only
// save keeps any stored breakdown.
type NutritionFields struct {
	Totals    domain.Macros
	Breakdown domain.Breakdown
}

// UpsertBody writes body metrics for (subjectID, date). It reports false and
// writes nothing when neither value is supplied.
func UpsertBody(ctx context.Context, db *gorm.DB, subjectID, date string, f BodyFields) (bool, error) {
	set := map[string]any{}
	if f.WeightKg != nil {
		set["weight_kg"] = f.WeightKg
	}
	if f.BodyFatPct != nil {
		set["body_fat_pct"] = f.BodyFatPct
	}
	if len(set) == 0 {
		return false, nil
	}
	row := &domain.BodyDaily{SubjectID: subjectID, Date: date, WeightKg: f.WeightKg, BodyFatPct: f.BodyFatPct}
	return true, upsertDaily(ctx, db, &domain.BodyDaily{}, row, subjectID, date, set)
}

// UpsertNutrition writes intake totals and, when supplied, the breakdown.
func UpsertNutrition(ctx context.Context, db *gorm.DB, subjectID, date string, f NutritionFields) error {
	set := map[string]any{
		"calorie_kcal": f.Totals.Calorie,
		"protein_g":    f.Totals.Protein,
		"fat_g":        f.Totals.Fat,
		"carb_g":       f.Totals.Carb,
	}
	if len(f.Breakdown) > 0 {
		set["meals_breakdown"] = f.Breakdown
	}
	row := &domain.NutritionDaily{
		SubjectID:      subjectID,
		Date:           date,
		CalorieKcal:    f.Totals.Calorie,
		ProteinG:       f.Totals.Protein,
		FatG:           f.Totals.Fat,
		CarbG:          f.Totals.Carb,
		MealsBreakdown: f.Breakdown,
	}
	return upsertDaily(ctx, db, &domain.NutritionDaily{}, row, subjectID, date, set)
}

// UpsertGoal writes all four goal targets for one date.
func UpsertGoal(ctx context.Context, db *gorm.DB, subjectID, date string, goal domain.Macros) error {
	set := map[string]any{
		"target_calorie_kcal": goal.Calorie,
		"target_protein_g":    goal.Protein,
		"target_fat_g":        goal.Fat,
		"target_carb_g":       goal.Carb,
	}
	row := &domain.GoalDaily{
		SubjectID:         subjectID,
		Date:              date,
		TargetCalorieKcal: goal.Calorie,
		TargetProteinG:    goal.Protein,
		TargetFatG:        goal.Fat,
		TargetCarbG:       goal.Carb,
	}
	return upsertDaily(ctx, db, &domain.GoalDaily{}, row, subjectID, date, set)
}

func upsertDaily(ctx context.Context, db *gorm.DB, model, row any, subjectID, date string, set map[string]any) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(model).Where("user_id = ? AND date = ?", subjectID, date).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			if err := tx.SavePoint("daily_insert").Error; err != nil {
				return err
			}
			err := tx.Create(row).Error
			if err == nil {
				return nil
			}
			if !isDuplicate(err) {
				return err
			}
			if err := tx.RollbackTo("daily_insert").Error; err != nil {
				return err
			}
		}
		set["updated_at"] = time.Now().UTC()
		return tx.Model(model).Where("user_id = ? AND date = ?", subjectID, date).Updates(set).Error
	})
}

// ListNutrition returns stored nutrition rows with start <= date <= end,
// ordered by date.
func ListNutrition(ctx context.Context, db *gorm.DB, subjectID, start, end string) ([]domain.NutritionDaily, error) {
	var rows []domain.NutritionDaily
	err := db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", subjectID, start, end).
		Order("date ASC").
		Find(&rows).Error
	return rows, err
}

// ListBody returns stored body rows in [start, end], ordered by date.
func ListBody(ctx context.Context, db *gorm.DB, subjectID, start, end string) ([]domain.BodyDaily, error) {
	var rows []domain.BodyDaily
	err := db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", subjectID, start, end).
		Order("date ASC").
		Find(&rows).Error
	return rows, err
}

// ListGoals returns stored goal rows in [start, end], ordered by date.
func ListGoals(ctx context.Context, db *gorm.DB, subjectID, start, end string) ([]domain.GoalDaily, error) {
	var rows []domain.GoalDaily
	err := db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", subjectID, start, end).
		Order("date ASC").
		Find(&rows).Error
	return rows, err
}
