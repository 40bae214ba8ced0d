package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/dietbot/internal/http/middleware"
	"github.com/tbourn/dietbot/internal/line"
	"github.com/tbourn/dietbot/internal/repo"
	"github.com/tbourn/dietbot/internal/services"
)

// ---------- fakes ----------

type fakeEvents struct {
	seen []line.Event
	out  func(line.Event) (services.Outcome, error)
}

func (f *fakeEvents) Handle(_ context.Context, ev line.Event) (services.Outcome, error) {
	f.seen = append(f.seen, ev)
	return f.out(ev)
}

type fakeRetries struct {
	keys []string
	ids  []uint
	err  error
}

func (f *fakeRetries) Remember(_ context.Context, key string, requestID uint, _ int) error {
	f.keys = append(f.keys, key)
	f.ids = append(f.ids, requestID)
	return f.err
}

type fakeEventLog struct {
	done   map[string]bool
	marked []string
	err    error
}

func (f *fakeEventLog) Processed(_ context.Context, id string) (bool, error) {
	return f.done[id], f.err
}

func (f *fakeEventLog) MarkProcessed(_ context.Context, id string, _ uint) error {
	f.marked = append(f.marked, id)
	return nil
}

type fakeRequests struct {
	rows      []repo.UnrepliedRow
	limit     int
	replies   map[uint]string
	summaries map[uint]string
	statuses  map[uint]string
	err       error
}

func newFakeRequests() *fakeRequests {
	return &fakeRequests{replies: map[uint]string{}, summaries: map[uint]string{}, statuses: map[uint]string{}}
}

func (f *fakeRequests) Unreplied(_ context.Context, limit int) ([]repo.UnrepliedRow, error) {
	f.limit = limit
	return f.rows, f.err
}

func (f *fakeRequests) Reply(_ context.Context, id uint, message string) error {
	f.replies[id] = message
	return f.err
}

func (f *fakeRequests) SendSummary(_ context.Context, id uint, date string) (string, error) {
	f.summaries[id] = date
	return "summary for " + date, f.err
}

func (f *fakeRequests) SetStatus(_ context.Context, id uint, status string) error {
	f.statuses[id] = status
	return f.err
}

func (f *fakeRequests) Discard(_ context.Context, id uint) error {
	f.statuses[id] = "ignored"
	return f.err
}

type fakeReports struct {
	text string
	err  error
	args []string
}

func (f *fakeReports) Daily(_ context.Context, subjectID, date string) (string, error) {
	f.args = []string{subjectID, date}
	return f.text, f.err
}

type fakeBatch struct {
	args        []string
	includeGoal bool
	backfill    *services.BackfillSummary
	reconcile   *services.ReconcileSummary
	goalRows    int
	stored      *services.StoredNutrition
	err         error
}

func (f *fakeBatch) Run(_ context.Context, subjectID, start, end string, includeGoal bool) (*services.BackfillSummary, error) {
	f.args, f.includeGoal = []string{subjectID, start, end}, includeGoal
	return f.backfill, f.err
}

func (f *fakeBatch) Reconcile(_ context.Context, subjectID, start, end string) (*services.ReconcileSummary, error) {
	f.args = []string{subjectID, start, end}
	return f.reconcile, f.err
}

func (f *fakeBatch) SnapshotGoal(_ context.Context, subjectID, start, end string) (int, error) {
	f.args = []string{subjectID, start, end}
	return f.goalRows, f.err
}

func (f *fakeBatch) Nutrition(_ context.Context, subjectID, start, end string) (*services.StoredNutrition, error) {
	f.args = []string{subjectID, start, end}
	return f.stored, f.err
}

type fakeOAuth struct {
	exchanged map[string]string
	err       error
}

func (f *fakeOAuth) AuthCodeURL(subjectID string) string {
	return "https://provider.example/auth?state=" + subjectID
}

func (f *fakeOAuth) Exchange(_ context.Context, subjectID, code string) error {
	if f.exchanged == nil {
		f.exchanged = map[string]string{}
	}
	f.exchanged[subjectID] = code
	return f.err
}

var errBoom = errors.New("boom")

// ---------- router + request helpers ----------

// newRouter mounts h the way the production router does, minus auth and
// rate limiting.
func newRouter(h *Handlers, lookup middleware.IdempotencyLookup) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	r.POST("/webhook/line",
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{Header: line.HeaderRetryKey}, lookup),
		h.Webhook)

	admin := r.Group("/admin")
	admin.GET("/requests/unreplied", h.ListUnreplied)
	admin.GET("/reports/daily", h.DailyReport)
	admin.POST("/requests/:id/reply", h.Reply)
	admin.POST("/requests/:id/summary", h.SendSummary)
	admin.PUT("/requests/:id/status", h.UpdateStatus)
	admin.POST("/requests/:id/discard", h.Discard)
	admin.POST("/subjects/:id/backfill", h.Backfill)
	admin.POST("/subjects/:id/reconcile", h.Reconcile)
	admin.POST("/subjects/:id/goal", h.SnapshotGoal)
	admin.GET("/subjects/:id/nutrition", h.ListNutrition)

	r.GET("/oauth/start", h.OAuthStart)
	r.GET("/oauth/callback", h.OAuthCallback)
	return r
}

func do(r http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d; want %d (body %s)", w.Code, status, w.Body.String())
	}
	if got := decodeBody[ErrorResponse](t, w); got.Code != code || got.RequestID == "" {
		t.Fatalf("error = %+v; want code %q with request id", got, code)
	}
}

func ts(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
