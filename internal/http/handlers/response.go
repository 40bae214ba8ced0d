// Package handlers provides HTTP handler implementations for the webhook,
// admin and OAuth routes.
//
// This file defines the response helpers shared by all endpoints. Errors use
// ErrorResponse with a stable code; fail() logs 5xx with the request logger
// and reports them to Sentry; errorFor() maps service errors onto statuses.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/dietbot/internal/calomeal"
	"github.com/tbourn/dietbot/internal/http/middleware"
	"github.com/tbourn/dietbot/internal/observability"
	"github.com/tbourn/dietbot/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message
	Message string `json:"message" example:"request not found"`
}

// OKResponse acknowledges an action without a payload of its own.
type OKResponse struct {
	Status string `json:"status" example:"ok"`
}

// fail aborts with the error envelope. Server errors are logged and captured.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail is the exported variant of fail() for the router's fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr maps err onto a status and code. Unexpected errors are reported to
// Sentry with the route and answered with a generic 500.
func failErr(c *gin.Context, err error) {
	status, code, msg := errorFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		observability.CaptureError(c.Request.Context(), err, map[string]string{
			"route": c.FullPath(),
			"code":  code,
		})
	}
	fail(c, status, code, msg)
}

func errorFor(err error) (status int, code, msg string) {
	var apiErr *calomeal.StatusError
	switch {
	case errors.Is(err, services.ErrRequestNotFound):
		return http.StatusNotFound, ErrCodeNotFound, "request not found"
	case errors.Is(err, services.ErrInvalidDate):
		return http.StatusBadRequest, ErrCodeBadRequest, "invalid date"
	case errors.Is(err, services.ErrInvalidRange), errors.Is(err, services.ErrRangeTooLarge):
		return http.StatusBadRequest, ErrCodeInvalidRange, err.Error()
	case errors.Is(err, services.ErrEmptyMessage):
		return http.StatusBadRequest, ErrCodeBadRequest, "message is required"
	case errors.Is(err, services.ErrInvalidStatus):
		return http.StatusBadRequest, ErrCodeBadRequest, "status must be one of pending, replied, ignored"
	case errors.Is(err, services.ErrNoRecipient):
		return http.StatusBadRequest, ErrCodeNoRecipient, "request has no user to send to"
	case errors.Is(err, services.ErrNoSubject):
		return http.StatusBadRequest, ErrCodeBadRequest, "user_id is required"
	case errors.Is(err, calomeal.ErrNoToken):
		return http.StatusConflict, ErrCodeNotLinked, "user has not linked the diet-tracking account"
	case errors.Is(err, services.ErrNoGoal):
		return http.StatusBadGateway, ErrCodeNoGoal, "no goal in user info"
	case errors.Is(err, services.ErrDeliveryFailed):
		return http.StatusBadGateway, ErrCodeBadGateway, "message delivery failed"
	case errors.As(err, &apiErr), errors.Is(err, services.ErrUpstream):
		return http.StatusBadGateway, ErrCodeBadGateway, "upstream request failed"
	}
	return http.StatusInternalServerError, ErrCodeInternal, "internal server error"
}

func ok(c *gin.Context, status int, body any) { c.JSON(status, body) }

func okStatus(c *gin.Context) { c.JSON(http.StatusOK, OKResponse{Status: "ok"}) }
