// This file holds the two authentication gates: a shared admin token for the
// dashboard routes and the platform signature for webhook deliveries.

package middleware

import (
	"bytes"
	"crypto/subtle"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/dietbot/internal/line"
)

// HeaderAdminToken carries the shared admin secret.
const HeaderAdminToken = "X-Admin-Token"

// AdminAuth requires X-Admin-Token to equal token. An empty token disables
// the check.
func AdminAuth(token string) gin.HandlerFunc {
	want := []byte(token)
	return func(c *gin.Context) {
		if token != "" && subtle.ConstantTimeCompare([]byte(c.GetHeader(HeaderAdminToken)), want) != 1 {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "missing or invalid admin token")
			return
		}
		c.Set(identityKey, "admin")
		c.Next()
	}
}

// LineSignature verifies X-Line-Signature over the raw body when secret is
// set, then restores the body for the handler.
func LineSignature(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Set(identityKey, "line")
			c.Next()
			return
		}
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				abortJSON(c, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
				return
			}
			abortJSON(c, http.StatusBadRequest, "bad_request", "unreadable body")
			return
		}
		if !line.VerifySignature(secret, body, c.GetHeader(line.HeaderSignature)) {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "invalid signature")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Set(identityKey, "line")
		c.Next()
	}
}

// abortJSON writes the standard error envelope from middleware, which cannot
// import the handlers package.
func abortJSON(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.GetString(requestIDKey),
		"code":       code,
		"message":    msg,
	})
}
