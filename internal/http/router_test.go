package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/dietbot/internal/config"
	"github.com/tbourn/dietbot/internal/domain"
	"github.com/tbourn/dietbot/internal/http/handlers"
	"github.com/tbourn/dietbot/internal/http/middleware"
	"github.com/tbourn/dietbot/internal/line"
	"github.com/tbourn/dietbot/internal/repo"
	"github.com/tbourn/dietbot/internal/services"
)

// --- fakes for the handler ports the routes below reach ---

type countingEvents struct{ calls int }

func (e *countingEvents) Handle(context.Context, line.Event) (services.Outcome, error) {
	e.calls++
	return services.Outcome{Status: services.OutcomeSuccess, RequestID: uint(e.calls)}, nil
}

type emptyRequests struct{}

func (emptyRequests) Unreplied(context.Context, int) ([]repo.UnrepliedRow, error) {
	return []repo.UnrepliedRow{}, nil
}
func (emptyRequests) Reply(context.Context, uint, string) error { return nil }
func (emptyRequests) SendSummary(context.Context, uint, string) (string, error) {
	return "", nil
}
func (emptyRequests) SetStatus(context.Context, uint, string) error { return nil }
func (emptyRequests) Discard(context.Context, uint) error           { return nil }

type emptySubjects struct{}

func (emptySubjects) SnapshotGoal(context.Context, string, string, string) (int, error) { return 0, nil }
func (emptySubjects) Nutrition(context.Context, string, string, string) (*services.StoredNutrition, error) {
	return &services.StoredNutrition{Rows: []domain.NutritionDaily{}}, nil
}

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", uuid.NewString())
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

func baseConfig() config.Config {
	return config.Config{
		APIBasePath:    "/",
		RateRPS:        100,
		RateBurst:      10,
		IdempotencyTTL: time.Hour,
		OTEL:           config.OTELConfig{ServiceName: "test-svc"},
	}
}

func newEngine(t *testing.T, cfg config.Config, h *handlers.Handlers) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	db := newTestDB(t)
	RegisterRoutes(r, db, h, cfg)
	return r, db
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r, _ := newEngine(t, baseConfig(), &handlers.Handlers{})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" || w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("baseline headers missing: %v", w.Header())
	}

	w = serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "dietbot_http_requests_total") {
		t.Fatalf("GET /metrics bad: code=%d", w.Code)
	}

	w = serve(r, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}
	var e handlers.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil || e.Code != handlers.ErrCodeNotFound {
		t.Fatalf("404 envelope = %s", w.Body.String())
	}

	w = serve(r, httptest.NewRequest(http.MethodPost, "/health", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}

	// swagger is off unless enabled
	if w = serve(r, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)); w.Code != http.StatusNotFound {
		t.Fatalf("swagger should be disabled, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := baseConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	r, _ := newEngine(t, cfg, &handlers.Handlers{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	w := serve(r, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("ACAO = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = serve(r, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("foreign origin echoed: %q", got)
	}
}

func TestRegisterRoutes_Gzip(t *testing.T) {
	r, _ := newEngine(t, baseConfig(), &handlers.Handlers{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	if w := serve(r, req); w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("Content-Encoding = %q", w.Header().Get("Content-Encoding"))
	}
}

func TestRegisterRoutes_AdminAuthAndCaching(t *testing.T) {
	cfg := baseConfig()
	cfg.AdminToken = "s3cret"
	cfg.APIBasePath = "/api"
	r, _ := newEngine(t, cfg, &handlers.Handlers{Requests: emptyRequests{}, Subjects: emptySubjects{}})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/admin/requests/unreplied", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token = %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/requests/unreplied", nil)
	req.Header.Set(middleware.HeaderAdminToken, "s3cret")
	w = serve(r, req)
	if w.Code != http.StatusOK {
		t.Fatalf("with token = %d body=%s", w.Code, w.Body.String())
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("request listing must not be cached: %v", w.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/subjects/U1/nutrition?start_date=2025-08-01&end_date=2025-08-02", nil)
	req.Header.Set(middleware.HeaderAdminToken, "s3cret")
	w = serve(r, req)
	if w.Code != http.StatusOK || w.Header().Get("Cache-Control") == "no-store" {
		t.Fatalf("nutrition = %d cache=%q", w.Code, w.Header().Get("Cache-Control"))
	}

	// routes only exist under the base path
	req = httptest.NewRequest(http.MethodGet, "/admin/requests/unreplied", nil)
	req.Header.Set(middleware.HeaderAdminToken, "s3cret")
	if w = serve(r, req); w.Code != http.StatusNotFound {
		t.Fatalf("unprefixed admin = %d", w.Code)
	}
}

func webhookRequest(secret, retryKey string, body []byte) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhook/line", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(line.HeaderSignature, line.Sign(secret, body))
	}
	if retryKey != "" {
		req.Header.Set(line.HeaderRetryKey, retryKey)
	}
	return req
}

func TestRegisterRoutes_WebhookSignatureAndRedelivery(t *testing.T) {
	cfg := baseConfig()
	cfg.Line.ChannelSecret = "channel-secret"
	ev := &countingEvents{}
	r, db := newEngine(t, cfg, &handlers.Handlers{Events: ev})

	body := []byte(`{"events":[{"type":"message","source":{"type":"user","userId":"U1"},"message":{"id":"1","type":"text","text":"hi"}}]}`)

	if w := serve(r, webhookRequest("", "", body)); w.Code != http.StatusUnauthorized {
		t.Fatalf("unsigned = %d", w.Code)
	}
	if w := serve(r, webhookRequest("other-secret", "", body)); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong secret = %d", w.Code)
	}
	if ev.calls != 0 {
		t.Fatalf("rejected deliveries reached the handler")
	}

	key := uuid.NewString()
	w := serve(r, webhookRequest(cfg.Line.ChannelSecret, key, body))
	if w.Code != http.StatusOK {
		t.Fatalf("signed = %d body=%s", w.Code, w.Body.String())
	}
	rec, err := repo.GetIdempotency(context.Background(), db, WebhookScope, key, time.Now())
	if err != nil || rec.RequestID != 1 || rec.Status != http.StatusOK {
		t.Fatalf("stored key = %+v err=%v", rec, err)
	}

	w = serve(r, webhookRequest(cfg.Line.ChannelSecret, key, body))
	var resp handlers.WebhookResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Status != "duplicate" {
		t.Fatalf("redelivery = %d %s", w.Code, w.Body.String())
	}
	if ev.calls != 1 {
		t.Fatalf("redelivery processed again: calls=%d", ev.calls)
	}
}

func TestRetryStore_DuplicateIsNotAnError(t *testing.T) {
	db := newTestDB(t)
	s := retryStore{db: db, ttl: time.Hour}
	ctx := context.Background()

	if err := s.Remember(ctx, "k1", 7, http.StatusOK); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := s.Remember(ctx, "k1", 8, http.StatusOK); err != nil {
		t.Fatalf("second: %v", err)
	}

	seen := seenRetryKey(db)
	if ok, err := seen(ctx, "k1", time.Now()); !ok || err != nil {
		t.Fatalf("seen(k1) = %v %v", ok, err)
	}
	if ok, err := seen(ctx, "k2", time.Now()); ok || err != nil {
		t.Fatalf("seen(k2) = %v %v", ok, err)
	}
	if ok, _ := seen(ctx, "k1", time.Now().Add(2*time.Hour)); ok {
		t.Fatalf("expired key still seen")
	}
}

// flakyEvents fails the first delivery of event "m2" and counts handled
// events by message id.
type flakyEvents struct {
	handled map[string]int
	failed  bool
}

func (e *flakyEvents) Handle(_ context.Context, ev line.Event) (services.Outcome, error) {
	id := ev.Message.ID
	if id == "m2" && !e.failed {
		e.failed = true
		return services.Outcome{}, errors.New("db down")
	}
	e.handled[id]++
	return services.Outcome{Status: services.OutcomeSuccess, RequestID: uint(len(e.handled))}, nil
}

func TestRegisterRoutes_WebhookSkipsStoredEventsOnRedelivery(t *testing.T) {
	ev := &flakyEvents{handled: map[string]int{}}
	r, db := newEngine(t, baseConfig(), &handlers.Handlers{Events: ev})

	body := []byte(`{"events":[
 {"type":"message","webhookEventId":"E1","source":{"type":"user","userId":"U1"},"message":{"id":"m1","type":"text","text":"朝ごはん"}},
 {"type":"message","webhookEventId":"E2","source":{"type":"user","userId":"U1"},"message":{"id":"m2","type":"text","text":"昼ごはん"}}
]}`)

	if w := serve(r, webhookRequest("", "k-a", body)); w.Code != http.StatusInternalServerError {
		t.Fatalf("first delivery = %d body=%s", w.Code, w.Body.String())
	}
	w := serve(r, webhookRequest("", "k-b", body))
	if w.Code != http.StatusOK {
		t.Fatalf("redelivery = %d body=%s", w.Code, w.Body.String())
	}
	var resp handlers.WebhookResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || len(resp.Results) != 2 {
		t.Fatalf("redelivery body = %s", w.Body.String())
	}
	if resp.Results[0].Status != "duplicate" || resp.Results[1].Status != services.OutcomeSuccess {
		t.Fatalf("results = %+v", resp.Results)
	}
	if ev.handled["m1"] != 1 || ev.handled["m2"] != 1 {
		t.Fatalf("handled = %v", ev.handled)
	}
	for _, id := range []string{"E1", "E2"} {
		if _, err := repo.GetIdempotency(context.Background(), db, EventScope, id, time.Now()); err != nil {
			t.Fatalf("event %s not recorded: %v", id, err)
		}
	}
}

func TestEventLog_ScopedAndIdempotent(t *testing.T) {
	db := newTestDB(t)
	l := eventLog{db: db, ttl: time.Hour}
	ctx := context.Background()

	if done, err := l.Processed(ctx, "E1"); done || err != nil {
		t.Fatalf("fresh = %v %v", done, err)
	}
	if err := l.MarkProcessed(ctx, "E1", 3); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := l.MarkProcessed(ctx, "E1", 4); err != nil {
		t.Fatalf("mark twice: %v", err)
	}
	if done, err := l.Processed(ctx, "E1"); !done || err != nil {
		t.Fatalf("marked = %v %v", done, err)
	}

	// same key under the redelivery scope is a different record
	if ok, err := seenRetryKey(db)(ctx, "E1", time.Now()); ok || err != nil {
		t.Fatalf("event id leaked into retry scope: %v %v", ok, err)
	}
}

func TestRegisterRoutes_Swagger(t *testing.T) {
	cfg := baseConfig()
	cfg.SwaggerEnabled = true
	r, _ := newEngine(t, cfg, &handlers.Handlers{})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/webhook/line") {
		t.Fatalf("doc.json = %d", w.Code)
	}
}
