package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/dietbot/internal/domain"
)

// CreateRequest persists a new inbound request.
func CreateRequest(ctx context.Context, db *gorm.DB, r *domain.InboundRequest) error {
	if r.Status == "" {
		r.Status = domain.StatusPending
	}
	return db.WithContext(ctx).Create(r).Error
}

// GetRequest fetches one request by id or ErrNotFound.
func GetRequest(ctx context.Context, db *gorm.DB, id uint) (*domain.InboundRequest, error) {
	var r domain.InboundRequest
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// SetRequestAdvice stores generated advice without touching status.
func SetRequestAdvice(ctx context.Context, db *gorm.DB, id uint, advice string) error {
	return updateRequest(ctx, db, id, map[string]any{"advice_text": advice})
}

// SetRequestStatus moves a request to status.
func SetRequestStatus(ctx context.Context, db *gorm.DB, id uint, status domain.RequestStatus) error {
	return updateRequest(ctx, db, id, map[string]any{"status": status})
}

// MarkReplied records the text that was sent and sets status replied.
func MarkReplied(ctx context.Context, db *gorm.DB, id uint, sent string) error {
	return updateRequest(ctx, db, id, map[string]any{
		"status":      domain.StatusReplied,
		"advice_text": sent,
	})
}

func updateRequest(ctx context.Context, db *gorm.DB, id uint, set map[string]any) error {
	set["updated_at"] = time.Now().UTC()
	res := db.WithContext(ctx).Model(&domain.InboundRequest{}).Where("id = ?", id).Updates(set)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UnrepliedRow is a pending request joined with the subject display name.
type UnrepliedRow struct {
	ID          uint               `json:"id"`
	SubjectID   string             `json:"user_id"      gorm:"column:user_id"`
	UserName    string             `json:"user_name"`
	Message     string             `json:"message"`
	RequestType domain.RequestType `json:"request_type"`
	ReceivedAt  time.Time          `json:"timestamp"`
	AdviceText  *string            `json:"advice_text"`
}

// ListUnreplied returns pending requests, newest first. Requests from subjects
// without a users row get an empty name.
func ListUnreplied(ctx context.Context, db *gorm.DB, limit int) ([]UnrepliedRow, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []UnrepliedRow
	err := db.WithContext(ctx).
		Table("requests AS r").
		Select("r.id, r.user_id, COALESCE(u.name, '') AS user_name, r.message, r.request_type, r.received_at, r.advice_text").
		Joins("LEFT JOIN users u ON u.user_id = r.user_id").
		Where("r.status = ?", domain.StatusPending).
		Order("r.received_at DESC").
		Order("r.id DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
