package handlers

import (
	"net/http"
	"testing"

	"github.com/tbourn/dietbot/internal/domain"
	"github.com/tbourn/dietbot/internal/repo"
	"github.com/tbourn/dietbot/internal/services"
)

func adminHandlers(req *fakeRequests, rep *fakeReports) *Handlers {
	return &Handlers{Requests: req, Reports: rep}
}

func TestListUnreplied(t *testing.T) {
	advice := "野菜を増やしましょう"
	reqs := newFakeRequests()
	reqs.rows = []repo.UnrepliedRow{{
		ID: 3, SubjectID: "U1", UserName: "Aki", Message: "見て",
		RequestType: domain.TypeMealFeedback, ReceivedAt: ts("2025-08-12T09:00:00Z"), AdviceText: &advice,
	}}
	r := newRouter(adminHandlers(reqs, nil), noReplay)

	w := do(r, http.MethodGet, "/admin/requests/unreplied?limit=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	got := decodeBody[UnrepliedResponse](t, w)
	if len(got.Data) != 1 || got.Data[0].ID != 3 || *got.Data[0].AdviceText != advice {
		t.Fatalf("data = %+v", got.Data)
	}
	if reqs.limit != 5 {
		t.Fatalf("limit = %d", reqs.limit)
	}

	// non-numeric limit falls back to the service default
	do(r, http.MethodGet, "/admin/requests/unreplied?limit=abc", "")
	if reqs.limit != 0 {
		t.Fatalf("limit = %d; want 0", reqs.limit)
	}

	reqs.err = errBoom
	expectError(t, do(r, http.MethodGet, "/admin/requests/unreplied", ""), http.StatusInternalServerError, ErrCodeInternal)
}

func TestDailyReport(t *testing.T) {
	rep := &fakeReports{text: "2025/08/12 の記録"}
	r := newRouter(adminHandlers(newFakeRequests(), rep), noReplay)

	w := do(r, http.MethodGet, "/admin/reports/daily?user_id=U1&date=2025/08/12", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decodeBody[ReportResponse](t, w); got.Text != rep.text {
		t.Fatalf("text = %q", got.Text)
	}
	if rep.args[0] != "U1" || rep.args[1] != "2025/08/12" {
		t.Fatalf("args = %v", rep.args)
	}

	expectError(t, do(r, http.MethodGet, "/admin/reports/daily?user_id=U1", ""), http.StatusBadRequest, ErrCodeBadRequest)

	rep.err = services.ErrInvalidDate
	expectError(t, do(r, http.MethodGet, "/admin/reports/daily?user_id=U1&date=nope", ""), http.StatusBadRequest, ErrCodeBadRequest)

	rep.err = services.ErrNoGoal
	expectError(t, do(r, http.MethodGet, "/admin/reports/daily?user_id=U1&date=2025-08-12", ""), http.StatusBadGateway, ErrCodeNoGoal)
}

func TestReply(t *testing.T) {
	reqs := newFakeRequests()
	r := newRouter(adminHandlers(reqs, nil), noReplay)

	w := do(r, http.MethodPost, "/admin/requests/9/reply", `{"message":"いいですね"}`)
	if w.Code != http.StatusOK || decodeBody[OKResponse](t, w).Status != "ok" {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
	if reqs.replies[9] != "いいですね" {
		t.Fatalf("replies = %v", reqs.replies)
	}

	expectError(t, do(r, http.MethodPost, "/admin/requests/9/reply", `{"message":"   "}`), http.StatusBadRequest, ErrCodeBadRequest)
	expectError(t, do(r, http.MethodPost, "/admin/requests/0/reply", `{"message":"x"}`), http.StatusBadRequest, ErrCodeBadRequest)
	expectError(t, do(r, http.MethodPost, "/admin/requests/abc/reply", `{"message":"x"}`), http.StatusBadRequest, ErrCodeBadRequest)

	reqs.err = services.ErrRequestNotFound
	expectError(t, do(r, http.MethodPost, "/admin/requests/404/reply", `{"message":"x"}`), http.StatusNotFound, ErrCodeNotFound)

	reqs.err = services.ErrDeliveryFailed
	expectError(t, do(r, http.MethodPost, "/admin/requests/9/reply", `{"message":"x"}`), http.StatusBadGateway, ErrCodeBadGateway)
}

func TestSendSummary(t *testing.T) {
	reqs := newFakeRequests()
	r := newRouter(adminHandlers(reqs, nil), noReplay)

	w := do(r, http.MethodPost, "/admin/requests/4/summary", `{"date":"2025-08-12"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decodeBody[SummaryResponse](t, w); got.Text != "summary for 2025-08-12" {
		t.Fatalf("text = %q", got.Text)
	}

	expectError(t, do(r, http.MethodPost, "/admin/requests/4/summary", `{}`), http.StatusBadRequest, ErrCodeBadRequest)

	reqs.err = services.ErrNoRecipient
	expectError(t, do(r, http.MethodPost, "/admin/requests/4/summary", `{"date":"2025-08-12"}`), http.StatusBadRequest, ErrCodeNoRecipient)
}

func TestUpdateStatusAndDiscard(t *testing.T) {
	reqs := newFakeRequests()
	r := newRouter(adminHandlers(reqs, nil), noReplay)

	if w := do(r, http.MethodPut, "/admin/requests/2/status", `{"status":"replied"}`); w.Code != http.StatusOK {
		t.Fatalf("status update = %d", w.Code)
	}
	if reqs.statuses[2] != "replied" {
		t.Fatalf("statuses = %v", reqs.statuses)
	}
	if w := do(r, http.MethodPost, "/admin/requests/5/discard", ""); w.Code != http.StatusOK {
		t.Fatalf("discard = %d", w.Code)
	}
	if reqs.statuses[5] != "ignored" {
		t.Fatalf("statuses = %v", reqs.statuses)
	}

	expectError(t, do(r, http.MethodPut, "/admin/requests/2/status", `{}`), http.StatusBadRequest, ErrCodeBadRequest)

	reqs.err = services.ErrInvalidStatus
	expectError(t, do(r, http.MethodPut, "/admin/requests/2/status", `{"status":"archived"}`), http.StatusBadRequest, ErrCodeBadRequest)

	reqs.err = services.ErrRequestNotFound
	expectError(t, do(r, http.MethodPost, "/admin/requests/77/discard", ""), http.StatusNotFound, ErrCodeNotFound)
}
