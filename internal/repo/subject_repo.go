package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/dietbot/internal/domain"
)

// Profile is what the messaging platform tells us about a subject.
type Profile struct {
	SubjectID  string
	Name       string
	PictureURL string
}

// UpsertSubject creates the subject or refreshes its contact time. Name and
// picture are only overwritten with non-empty values.
func UpsertSubject(ctx context.Context, db *gorm.DB, p Profile, contactAt time.Time) error {
	name := strings.TrimSpace(p.Name)
	pic := strings.TrimSpace(p.PictureURL)
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s domain.Subject
		err := tx.Where("user_id = ?", p.SubjectID).Take(&s).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err != nil {
			s = domain.Subject{SubjectID: p.SubjectID, Name: name, PictureURL: pic, LastContactAt: &contactAt}
			cerr := tx.Create(&s).Error
			if cerr == nil || !isDuplicate(cerr) {
				return cerr
			}
		}
		set := map[string]any{"last_contact_at": contactAt, "updated_at": time.Now().UTC()}
		if name != "" {
			set["name"] = name
		}
		if pic != "" {
			set["picture_url"] = pic
		}
		return tx.Model(&domain.Subject{}).Where("user_id = ?", p.SubjectID).Updates(set).Error
	})
}

// GetSubject fetches a subject or ErrNotFound.
func GetSubject(ctx context.Context, db *gorm.DB, subjectID string) (*domain.Subject, error) {
	var s domain.Subject
	if err := db.WithContext(ctx).Where("user_id = ?", subjectID).Take(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// SetSubjectGoal stores the latest goal snapshot on the subject, creating the
// subject row if needed.
func SetSubjectGoal(ctx context.Context, db *gorm.DB, subjectID string, goal domain.GoalSnapshot) error {
	res := db.WithContext(ctx).Model(&domain.Subject{}).
		Where("user_id = ?", subjectID).
		Updates(map[string]any{"current_goal": goal, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	err := db.WithContext(ctx).Create(&domain.Subject{SubjectID: subjectID, CurrentGoal: goal}).Error
	if isDuplicate(err) {
		return SetSubjectGoal(ctx, db, subjectID, goal)
	}
	return err
}
