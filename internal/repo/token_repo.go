package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/dietbot/internal/domain"
)

// GetToken returns the stored API credentials of a subject or ErrNotFound.
func GetToken(ctx context.Context, db *gorm.DB, subjectID string) (*domain.OAuthToken, error) {
	var t domain.OAuthToken
	err := db.WithContext(ctx).Where("user_id = ?", subjectID).Take(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SaveToken inserts or replaces a subject's credentials. An empty refresh
// token keeps the stored one, since providers may omit it on refresh.
func SaveToken(ctx context.Context, db *gorm.DB, subjectID, access, refresh string, expiresAt time.Time) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur domain.OAuthToken
		err := tx.Where("user_id = ?", subjectID).Take(&cur).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&domain.OAuthToken{
				SubjectID:    subjectID,
				AccessToken:  access,
				RefreshToken: refresh,
				ExpiresAt:    expiresAt.UTC(),
			}).Error
		}
		if err != nil {
			return err
		}
		set := map[string]any{
			"access_token": access,
			"expires_at":   expiresAt.UTC(),
			"updated_at":   time.Now().UTC(),
		}
		if refresh != "" {
			set["refresh_token"] = refresh
		}
		return tx.Model(&domain.OAuthToken{}).Where("user_id = ?", subjectID).Updates(set).Error
	})
}
