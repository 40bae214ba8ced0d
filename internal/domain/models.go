// Package domain defines the persistence models for subjects, their daily
// body/nutrition/goal records, and inbound chat requests. These types are
// mapped with GORM and form the core data layer of the coordinator.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Subject is the end user whose data is tracked, keyed by the opaque
// identifier issued by the messaging platform.
//
// Fields:
//   - SubjectID: platform user id (primary key).
//   - Name: display name; never overwritten by an empty value.
//   - PictureURL: last known profile photo reference.
//   - LastContactAt: time of the most recent inbound event.
//   - Tags: free-form labels set by operators.
//   - CurrentGoal: last fetched goal targets (snapshot, not history).
type Subject struct {
	SubjectID     string       `json:"user_id"          gorm:"column:user_id;type:varchar(64);primaryKey"`
	Name          string       `json:"name"             gorm:"type:varchar(255);not null;default:''"`
	PictureURL    string       `json:"picture_url"      gorm:"type:text;not null;default:''"`
	LastContactAt *time.Time   `json:"last_contact_at"`
	Tags          Tags         `json:"tags"             gorm:"type:text"`
	CurrentGoal   GoalSnapshot `json:"current_goal"     gorm:"type:text"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// TableName returns the database table name for Subject.
func (Subject) TableName() string { return "users" }

// OAuthToken holds the diet-tracking API credentials of one subject.
type OAuthToken struct {
	SubjectID    string    `gorm:"column:user_id;type:varchar(64);primaryKey"`
	AccessToken  string    `gorm:"type:text;not null"`
	RefreshToken string    `gorm:"type:text;not null"`
	ExpiresAt    time.Time `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the database table name for OAuthToken.
func (OAuthToken) TableName() string { return "oauth_tokens" }

// BodyDaily is one day of body composition for a subject. (subject, date) is
// unique; later writes win.
type BodyDaily struct {
	ID         uint      `json:"-"                 gorm:"primaryKey;autoIncrement"`
	SubjectID  string    `json:"user_id"           gorm:"column:user_id;type:varchar(64);not null;uniqueIndex:ux_body_user_date,priority:1"`
	Date       string    `json:"date"              gorm:"type:varchar(10);not null;uniqueIndex:ux_body_user_date,priority:2"`
	WeightKg   *float64  `json:"weight_kg"`
	BodyFatPct *float64  `json:"body_fat_pct"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for BodyDaily.
func (BodyDaily) TableName() string { return "user_body_daily" }

// NutritionDaily is one day of intake totals plus the per-slot breakdown.
type NutritionDaily struct {
	ID             uint      `json:"-"               gorm:"primaryKey;autoIncrement"`
	SubjectID      string    `json:"user_id"         gorm:"column:user_id;type:varchar(64);not null;uniqueIndex:ux_nutrition_user_date,priority:1"`
	Date           string    `json:"date"            gorm:"type:varchar(10);not null;uniqueIndex:ux_nutrition_user_date,priority:2"`
	CalorieKcal    *float64  `json:"calorie_kcal"`
	ProteinG       *float64  `json:"protein_g"`
	FatG           *float64  `json:"fat_g"`
	CarbG          *float64  `json:"carb_g"`
	MealsBreakdown Breakdown `json:"meals_breakdown" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the database table name for NutritionDaily.
func (NutritionDaily) TableName() string { return "user_nutrition_daily" }

// Totals returns the stored day totals as a Macros tuple.
func (n NutritionDaily) Totals() Macros {
	return Macros{Calorie: n.CalorieKcal, Protein: n.ProteinG, Fat: n.FatG, Carb: n.CarbG}
}

// Incomplete reports whether the row needs reconciliation: any total unset,
// or no breakdown stored.
func (n NutritionDaily) Incomplete() bool {
	return !n.Totals().Complete() || len(n.MealsBreakdown) == 0
}

// GoalDaily is the goal snapshot replicated onto one date. The same fetched
// "current goal" is written across a whole requested range, so rows reflect
// the goal at fetch time rather than the goal in force on that date.
type GoalDaily struct {
	ID                uint      `json:"-"                   gorm:"primaryKey;autoIncrement"`
	SubjectID         string    `json:"user_id"             gorm:"column:user_id;type:varchar(64);not null;uniqueIndex:ux_goal_user_date,priority:1"`
	Date              string    `json:"date"                gorm:"type:varchar(10);not null;uniqueIndex:ux_goal_user_date,priority:2"`
	TargetCalorieKcal *float64  `json:"target_calorie_kcal"`
	TargetProteinG    *float64  `json:"target_protein_g"`
	TargetFatG        *float64  `json:"target_fat_g"`
	TargetCarbG       *float64  `json:"target_carb_g"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName returns the database table name for GoalDaily.
func (GoalDaily) TableName() string { return "user_goal_daily" }

// RequestStatus is the lifecycle state of an inbound request.
type RequestStatus string

const (
	StatusPending RequestStatus = "pending"
	StatusReplied RequestStatus = "replied"
	StatusIgnored RequestStatus = "ignored"
)

// Valid reports whether s is one of the closed set of statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusReplied, StatusIgnored:
		return true
	}
	return false
}

// RequestType is the classification label of an inbound message.
type RequestType string

const (
	TypeMealFeedback    RequestType = "meal_feedback"
	TypeWorkoutQuestion RequestType = "workout_question"
	TypeSystemQuestion  RequestType = "system_question"
	TypeOther           RequestType = "other"
)

// InboundRequest is one classified inbound message. It is created on receipt,
// mutated by advice generation and by reply/discard actions, and never deleted.
type InboundRequest struct {
	ID          uint          `json:"id"           gorm:"primaryKey;autoIncrement"`
	SubjectID   string        `json:"user_id"      gorm:"column:user_id;type:varchar(64);not null;index"`
	Message     string        `json:"message"      gorm:"type:text;not null"`
	RequestType RequestType   `json:"request_type" gorm:"type:varchar(32);not null"`
	Status      RequestStatus `json:"status"       gorm:"type:varchar(16);not null;default:'pending';index;check:status IN ('pending','replied','ignored')"`
	AdviceText  *string       `json:"advice_text"  gorm:"type:text"`
	ReceivedAt  time.Time     `json:"timestamp"    gorm:"not null;index"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// TableName returns the database table name for InboundRequest.
func (InboundRequest) TableName() string { return "requests" }

// Tags is a JSON-encoded label set.
type Tags []string

// Value implements driver.Valuer.
func (t Tags) Value() (driver.Value, error) {
	if len(t) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal([]string(t))
	return string(raw), err
}

// Scan implements sql.Scanner.
func (t *Tags) Scan(src any) error {
	raw, err := jsonBytes(src)
	if err != nil || raw == nil {
		*t = nil
		return err
	}
	return json.Unmarshal(raw, (*[]string)(t))
}

// GoalSnapshot is the last fetched goal of a subject.
type GoalSnapshot struct {
	Macros
	FetchedAt time.Time `json:"fetched_at"`
}

// Value implements driver.Valuer; an empty snapshot is stored as NULL.
func (g GoalSnapshot) Value() (driver.Value, error) {
	if g.IsEmpty() && g.FetchedAt.IsZero() {
		return nil, nil
	}
	raw, err := json.Marshal(g)
	return string(raw), err
}

// Scan implements sql.Scanner.
func (g *GoalSnapshot) Scan(src any) error {
	raw, err := jsonBytes(src)
	if err != nil || raw == nil {
		*g = GoalSnapshot{}
		return err
	}
	if err := json.Unmarshal(raw, g); err != nil {
		return fmt.Errorf("scan goal snapshot: %w", err)
	}
	return nil
}
