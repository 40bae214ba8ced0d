package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/dietbot/internal/cache"
	"github.com/tbourn/dietbot/internal/domain"
	"github.com/tbourn/dietbot/internal/line"
	"github.com/tbourn/dietbot/internal/llm"
	"github.com/tbourn/dietbot/internal/normalize"
	"github.com/tbourn/dietbot/internal/repo"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func decode(t *testing.T, s string) any {
	t.Helper()
	v, err := normalize.Decode([]byte(s))
	if err != nil {
		t.Fatalf("decode %q: %v", s, err)
	}
	return v
}

var errUpstream = errors.New("upstream 503")

// fakeAPI answers from per-endpoint funcs and records every call as
// "op start end".
type fakeAPI struct {
	mu    sync.Mutex
	calls []string
	// stale records, per call, whether the context allowed cached reads.
	stale []bool

	meal func(start, end string) (any, error)
	body func(start, end string) (any, error)
	info func() (any, error)
}

func (f *fakeAPI) record(ctx context.Context, op, start, end string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op+" "+start+" "+end)
	f.stale = append(f.stale, cache.StaleAllowed(ctx))
}

func (f *fakeAPI) MealWithBasis(ctx context.Context, _, start, end string) (any, error) {
	f.record(ctx, "meal", start, end)
	if f.meal == nil {
		return map[string]any{}, nil
	}
	return f.meal(start, end)
}

func (f *fakeAPI) Anthropometric(ctx context.Context, _, start, end string) (any, error) {
	f.record(ctx, "body", start, end)
	if f.body == nil {
		return map[string]any{}, nil
	}
	return f.body(start, end)
}

func (f *fakeAPI) UserInfo(ctx context.Context, _ string) (any, error) {
	f.record(ctx, "info", "", "")
	if f.info == nil {
		return map[string]any{}, nil
	}
	return f.info()
}

type pushed struct{ to, text string }

type fakeMessenger struct {
	pushes     []pushed
	pushErr    error
	profile    *line.Profile
	profileErr error
}

func (m *fakeMessenger) Push(_ context.Context, to, text string) error {
	if m.pushErr != nil {
		return m.pushErr
	}
	m.pushes = append(m.pushes, pushed{to, text})
	return nil
}

func (m *fakeMessenger) Profile(_ context.Context, userID string) (*line.Profile, error) {
	if m.profileErr != nil {
		return nil, m.profileErr
	}
	if m.profile != nil {
		return m.profile, nil
	}
	return &line.Profile{UserID: userID}, nil
}

// fakeLLM records requests and answers with reply or err.
type fakeLLM struct {
	reqs  []llm.Request
	reply string
	err   error
}

func (f *fakeLLM) Complete(_ context.Context, r llm.Request) (string, error) {
	f.reqs = append(f.reqs, r)
	return f.reply, f.err
}

type fixedClassifier domain.RequestType

func (c fixedClassifier) Classify(context.Context, string) domain.RequestType {
	return domain.RequestType(c)
}

func seedRequest(t *testing.T, db *gorm.DB, subjectID string, advice *string) *domain.InboundRequest {
	t.Helper()
	r := &domain.InboundRequest{SubjectID: subjectID, Message: "見てください", RequestType: domain.TypeMealFeedback}
	if err := repo.CreateRequest(context.Background(), db, r); err != nil {
		t.Fatalf("seed request: %v", err)
	}
	if advice != nil {
		if err := repo.SetRequestAdvice(context.Background(), db, r.ID, *advice); err != nil {
			t.Fatalf("seed advice: %v", err)
		}
	}
	return r
}
