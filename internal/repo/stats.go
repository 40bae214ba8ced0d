// This file provides small aggregate queries used for conditional responses
// (ETag generation) in the HTTP layer.

package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/dietbot/internal/domain"
)

// NutritionStats returns the number of nutrition rows a subject has in
// [start, end] and the greatest UpdatedAt among them (nil when there are none).
func NutritionStats(ctx context.Context, db *gorm.DB, subjectID, start, end string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.NutritionDaily{}).
		Where("user_id = ? AND date >= ? AND date <= ?", subjectID, start, end)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
