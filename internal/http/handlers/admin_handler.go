package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/dietbot/internal/repo"
	"github.com/tbourn/dietbot/internal/utils"
)

// UnrepliedResponse lists pending requests.
type UnrepliedResponse struct {
	Status string              `json:"status" example:"ok"`
	Data   []repo.UnrepliedRow `json:"data"`
}

// ReportResponse carries a rendered daily report.
type ReportResponse struct {
	Status string `json:"status" example:"ok"`
	Text   string `json:"text"`
}

// ReplyRequest is the body of a free-text reply.
type ReplyRequest struct {
	Message string `json:"message" binding:"required" example:"Great job today!"`
}

// SummaryRequest selects the report date of a summary reply.
type SummaryRequest struct {
	Date string `json:"date" binding:"required" example:"2025-08-12"`
}

// SummaryResponse echoes the text that was sent.
type SummaryResponse struct {
	Status string `json:"status" example:"ok"`
	Text   string `json:"text"`
}

// StatusRequest moves a request to another status.
type StatusRequest struct {
	Status string `json:"status" binding:"required" example:"ignored"`
}

// ListUnreplied godoc
// @Summary      List pending requests
// @Tags         admin
// @Produce      json
// @Param        X-Admin-Token  header  string  false  "Admin token"
// @Param        limit          query   int     false  "Max rows (default 20, max 200)"
// @Success      200  {object}  UnrepliedResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /admin/requests/unreplied [get]
func (h *Handlers) ListUnreplied(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 0)
	rows, err := h.Requests.Unreplied(c.Request.Context(), limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, UnrepliedResponse{Status: "ok", Data: rows})
}

// DailyReport godoc
// @Summary      Render the daily report of a user
// @Tags         admin
// @Produce      json
// @Param        X-Admin-Token  header  string  false  "Admin token"
// @Param        user_id        query   string  true   "User ID"
// @Param        date           query   string  true   "Date (YYYY-MM-DD or YYYY/MM/DD)"
// @Success      200  {object}  ReportResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      502  {object}  ErrorResponse
// @Router       /admin/reports/daily [get]
func (h *Handlers) DailyReport(c *gin.Context) {
	subjectID := strings.TrimSpace(c.Query("user_id"))
	date := strings.TrimSpace(c.Query("date"))
	if subjectID == "" || date == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id and date are required")
		return
	}
	text, err := h.Reports.Daily(c.Request.Context(), subjectID, date)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ReportResponse{Status: "ok", Text: text})
}

// Reply godoc
// @Summary      Reply to a request with free text
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        X-Admin-Token  header  string        false  "Admin token"
// @Param        id             path    int           true   "Request ID"
// @Param        body           body    ReplyRequest  true   "Reply"
// @Success      200  {object}  OKResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      502  {object}  ErrorResponse
// @Router       /admin/requests/{id}/reply [post]
func (h *Handlers) Reply(c *gin.Context) {
	id, good := requestID(c)
	if !good {
		return
	}
	var body ReplyRequest
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Message) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message is required")
		return
	}
	if err := h.Requests.Reply(c.Request.Context(), id, body.Message); err != nil {
		failErr(c, err)
		return
	}
	okStatus(c)
}

// SendSummary godoc
// @Summary      Send the daily summary with the drafted advice
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        X-Admin-Token  header  string          false  "Admin token"
// @Param        id             path    int             true   "Request ID"
// @Param        body           body    SummaryRequest  true   "Report date"
// @Success      200  {object}  SummaryResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      502  {object}  ErrorResponse
// @Router       /admin/requests/{id}/summary [post]
func (h *Handlers) SendSummary(c *gin.Context) {
	id, good := requestID(c)
	if !good {
		return
	}
	var body SummaryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "date is required")
		return
	}
	text, err := h.Requests.SendSummary(c.Request.Context(), id, body.Date)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, SummaryResponse{Status: "ok", Text: text})
}

// UpdateStatus godoc
// @Summary      Change the status of a request
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        X-Admin-Token  header  string         false  "Admin token"
// @Param        id             path    int            true   "Request ID"
// @Param        body           body    StatusRequest  true   "pending, replied or ignored"
// @Success      200  {object}  OKResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/requests/{id}/status [put]
func (h *Handlers) UpdateStatus(c *gin.Context) {
	id, good := requestID(c)
	if !good {
		return
	}
	var body StatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status is required")
		return
	}
	if err := h.Requests.SetStatus(c.Request.Context(), id, body.Status); err != nil {
		failErr(c, err)
		return
	}
	okStatus(c)
}

// Discard godoc
// @Summary      Discard a request
// @Tags         admin
// @Produce      json
// @Param        X-Admin-Token  header  string  false  "Admin token"
// @Param        id             path    int     true   "Request ID"
// @Success      200  {object}  OKResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/requests/{id}/discard [post]
func (h *Handlers) Discard(c *gin.Context) {
	id, good := requestID(c)
	if !good {
		return
	}
	if err := h.Requests.Discard(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}
	okStatus(c)
}

// requestID parses the :id path parameter, answering 400 when it is not a
// positive integer.
func requestID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request id")
		return 0, false
	}
	return uint(id), true
}
