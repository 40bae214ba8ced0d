// This file implements RedactingLogger, the access logger used by the router.
// It never logs bodies, masks credential headers and scrubs LINE user IDs,
// emails and phone numbers from query strings and header values.

package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// RedactOptions adds header names whose values are replaced with
// "[REDACTED]". Matching is case-insensitive and merged with the defaults.
type RedactOptions struct {
	MaskHeaders []string
}

// defaultMasked are always masked: generic credentials plus the admin token
// and the webhook signature.
var defaultMasked = []string{
	"authorization",
	"cookie",
	"set-cookie",
	"x-admin-token",
	"x-line-signature",
}

var (
	// LINE user, group and room IDs: one of U/C/R and 32 lowercase hex digits.
	lineIDRE = regexp.MustCompile(`\b[UCR][0-9a-f]{32}\b`)
	uuidRE   = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`)
	emailRE  = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE  = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// Redact scrubs identifiers from s. UUIDs go before phones so the loose phone
// pattern cannot eat their digit groups.
func Redact(s string) string {
	if s == "" {
		return s
	}
	s = lineIDRE.ReplaceAllString(s, "[REDACTED:line_id]")
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// RedactingLogger installs the request-scoped logger and writes one access
// log line per request: info, warn for 4xx, error for 5xx or Gin errors.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	masked := make(map[string]struct{}, len(defaultMasked)+len(opts.MaskHeaders))
	for _, h := range append(defaultMasked, opts.MaskHeaders...) {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()
		query := Redact(truncate(c.Request.URL.RawQuery, maxQueryLogLength))
		headers := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := masked[strings.ToLower(k)]; ok {
				headers[k] = "[REDACTED]"
				continue
			}
			headers[k] = Redact(strings.Join(vv, ", "))
		}

		l := requestLogger(c)
		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case len(c.Errors) > 0:
			ev = l.Error().Str("errors", Redact(c.Errors.String()))
		case status >= 500:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		}
		ev.
			Str("identity", Identity(c)).
			Str("query", query).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}
