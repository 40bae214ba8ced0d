package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/dietbot/internal/domain"
	"github.com/tbourn/dietbot/internal/services"
)

// RangeRequest is an inclusive date range.
type RangeRequest struct {
	StartDate string `json:"start_date" binding:"required" example:"2025-08-01"`
	EndDate   string `json:"end_date" binding:"required" example:"2025-08-31"`
}

// BackfillRequest is a range plus the optional goal snapshot.
type BackfillRequest struct {
	RangeRequest
	IncludeGoal bool `json:"include_goal"`
}

// BackfillResponse wraps the run summary.
type BackfillResponse struct {
	Status string                    `json:"status" example:"ok"`
	Result *services.BackfillSummary `json:"result"`
}

// ReconcileResponse wraps the reconciliation summary.
type ReconcileResponse struct {
	Status string                     `json:"status" example:"ok"`
	Result *services.ReconcileSummary `json:"result"`
}

// GoalResponse reports how many goal rows were written.
type GoalResponse struct {
	Status      string `json:"status" example:"ok"`
	RowsWritten int    `json:"rows_written" example:"31"`
}

// NutritionResponse lists stored nutrition rows.
type NutritionResponse struct {
	Status string                  `json:"status" example:"ok"`
	Data   []domain.NutritionDaily `json:"data"`
}

// Backfill godoc
// @Summary      Backfill body and nutrition history
// @Description  Fetches the range chunk by chunk and writes every parseable day. Fetch failures are counted, not fatal.
// @Tags         subjects
// @Accept       json
// @Produce      json
// @Param        X-Admin-Token  header  string           false  "Admin token"
// @Param        id             path    string           true   "User ID"
// @Param        body           body    BackfillRequest  true   "Range"
// @Success      200  {object}  BackfillResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /admin/subjects/{id}/backfill [post]
func (h *Handlers) Backfill(c *gin.Context) {
	var body BackfillRequest
	if !bindRange(c, &body) {
		return
	}
	sum, err := h.Backfills.Run(c.Request.Context(), c.Param("id"), body.StartDate, body.EndDate, body.IncludeGoal)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, BackfillResponse{Status: "ok", Result: sum})
}

// Reconcile godoc
// @Summary      Re-fetch days with missing or incomplete nutrition
// @Tags         subjects
// @Accept       json
// @Produce      json
// @Param        X-Admin-Token  header  string        false  "Admin token"
// @Param        id             path    string        true   "User ID"
// @Param        body           body    RangeRequest  true   "Range"
// @Success      200  {object}  ReconcileResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /admin/subjects/{id}/reconcile [post]
func (h *Handlers) Reconcile(c *gin.Context) {
	var body RangeRequest
	if !bindRange(c, &body) {
		return
	}
	sum, err := h.Gaps.Reconcile(c.Request.Context(), c.Param("id"), body.StartDate, body.EndDate)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ReconcileResponse{Status: "ok", Result: sum})
}

// SnapshotGoal godoc
// @Summary      Replicate the current goal across a range
// @Tags         subjects
// @Accept       json
// @Produce      json
// @Param        X-Admin-Token  header  string        false  "Admin token"
// @Param        id             path    string        true   "User ID"
// @Param        body           body    RangeRequest  true   "Range"
// @Success      200  {object}  GoalResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      502  {object}  ErrorResponse
// @Router       /admin/subjects/{id}/goal [post]
func (h *Handlers) SnapshotGoal(c *gin.Context) {
	var body RangeRequest
	if !bindRange(c, &body) {
		return
	}
	n, err := h.Subjects.SnapshotGoal(c.Request.Context(), c.Param("id"), body.StartDate, body.EndDate)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, GoalResponse{Status: "ok", RowsWritten: n})
}

// ListNutrition godoc
// @Summary      List stored daily nutrition
// @Description  Supports conditional requests through ETag / If-None-Match.
// @Tags         subjects
// @Produce      json
// @Param        X-Admin-Token  header  string  false  "Admin token"
// @Param        id             path    string  true   "User ID"
// @Param        start_date     query   string  true   "First date"
// @Param        end_date       query   string  true   "Last date"
// @Success      200  {object}  NutritionResponse
// @Success      304  {string}  string  "not modified"
// @Failure      400  {object}  ErrorResponse
// @Router       /admin/subjects/{id}/nutrition [get]
func (h *Handlers) ListNutrition(c *gin.Context) {
	start, end := c.Query("start_date"), c.Query("end_date")
	if start == "" || end == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "start_date and end_date are required")
		return
	}
	got, err := h.Subjects.Nutrition(c.Request.Context(), c.Param("id"), start, end)
	if err != nil {
		failErr(c, err)
		return
	}

	if got.LastModified != nil {
		etag := fmt.Sprintf(`W/"%d-%d"`, got.Count, got.LastModified.UnixNano())
		c.Header("ETag", etag)
		c.Header("Last-Modified", got.LastModified.UTC().Format(http.TimeFormat))
		if match := c.GetHeader("If-None-Match"); match != "" && strings.Contains(match, etag) {
			c.Status(http.StatusNotModified)
			return
		}
	}
	ok(c, http.StatusOK, NutritionResponse{Status: "ok", Data: got.Rows})
}

// rangeBody is implemented by request bodies that carry a date range.
type rangeBody interface {
	dates() (string, string)
}

func (r *RangeRequest) dates() (string, string) { return r.StartDate, r.EndDate }

// bindRange decodes a range body, answering 400 when dates are missing.
func bindRange(c *gin.Context, body rangeBody) bool {
	if err := c.ShouldBindJSON(body); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "start_date and end_date are required")
		return false
	}
	if start, end := body.dates(); strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "start_date and end_date are required")
		return false
	}
	return true
}
