// Package middleware contains the Gin middleware shared by the webhook, admin
// and OAuth routes.
//
// This file provides request correlation, the structured access log and panic
// recovery:
//
//   - RequestID() reuses or generates X-Request-ID and stores it on the context.
//   - requestLogger attaches a request-scoped zerolog.Logger both to the Gin
//     context and to the request's context.Context, so services logging
//     through log.Ctx(ctx) inherit request_id and route fields. The access
//     log itself is written by RedactingLogger.
//   - Recovery() turns panics into the JSON error envelope and reports them to
//     Sentry.
//
// Order: RequestID, then RedactingLogger, then Recovery.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/dietbot/internal/observability"
)

const (
	requestIDKey      = "requestID"
	requestIDHeader   = "X-Request-ID"
	loggerKey         = "logger"
	maxQueryLogLength = 2048
)

// identityKey holds the authenticated caller class ("admin", "line") set by
// AdminAuth and LineSignature.
const identityKey = "identity"

// RequestID attaches (or propagates) a correlation identifier per request.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// requestLogger builds the request-scoped logger and installs it on both the
// Gin context and the request context.
func requestLogger(c *gin.Context) *zerolog.Logger {
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	l := log.With().
		Str("request_id", c.GetString(requestIDKey)).
		Str("method", c.Request.Method).
		Str("path", path).
		Str("remote_ip", c.ClientIP()).
		Logger()

	c.Set(loggerKey, &l)
	c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))
	return &l
}

// Recovery intercepts panics, logs the stack, reports to Sentry and answers
// with a JSON 500 when nothing was written yet.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid := c.GetString(requestIDKey)
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("request_id", rid).
				Msg("panic recovered")
			observability.CaptureError(c.Request.Context(), fmt.Errorf("panic: %v", rec), map[string]string{
				"request_id": rid,
				"route":      c.FullPath(),
			})

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Header(requestIDHeader, rid)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": rid,
				"code":       "internal_error",
				"message":    "internal server error",
			})
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger, or the global logger when
// none was attached.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// Identity returns the caller class set by the auth middleware, if any.
func Identity(c *gin.Context) string { return c.GetString(identityKey) }

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
