package services

import (
	"context"

	"github.com/tbourn/dietbot/internal/domain"
	"github.com/tbourn/dietbot/internal/line"
)

// DietAPI is the part of the Calomeal client the services use. Dates are
// canonical YYYY-MM-DD; payloads are decoded JSON of unknown shape.
type DietAPI interface {
	Anthropometric(ctx context.Context, subjectID, start, end string) (any, error)
	MealWithBasis(ctx context.Context, subjectID, start, end string) (any, error)
	UserInfo(ctx context.Context, subjectID string) (any, error)
}

// Messenger delivers text to a subject and looks up profiles.
type Messenger interface {
	Push(ctx context.Context, to, text string) error
	Profile(ctx context.Context, userID string) (*line.Profile, error)
}

// Classifier labels an inbound message. It never fails.
type Classifier interface {
	Classify(ctx context.Context, text string) domain.RequestType
}
