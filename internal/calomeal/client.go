// Package calomeal is the client for the Calomeal diet-tracking API.
//
// Every call is made on behalf of one subject: the Transport looks up that
// subject's OAuth token, refreshes it when close to expiry, and retries once
// after a forced refresh when the API answers 401. Responses are returned as
// decoded JSON (see normalize.Decode) for the normalization layer to resolve.
package calomeal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/dietbot/internal/cache"
	"github.com/tbourn/dietbot/internal/config"
	"github.com/tbourn/dietbot/internal/normalize"
	"github.com/tbourn/dietbot/internal/observability"
)

const (
	pathAnthropometric = "/api/anthropometric"
	pathMealWithBasis  = "/api/meal_with_basis"
	pathUserInfo       = "/api/user_info"

	maxBody = 8 << 20
)

// Client calls the Calomeal API. It is safe for concurrent use.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	// Cache holds single-day payloads for CacheTTL; nil disables caching.
	// Every fetch refreshes it, but only calls whose context carries
	// cache.AllowStale read from it.
	Cache    cache.Cache
	CacheTTL time.Duration
}

// New returns a client for cfg whose requests are authorized by src.
func New(cfg config.CalomealConfig, src TokenSource, c cache.Cache, ttl time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		HTTP: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &Transport{Source: src},
		},
		Cache:    c,
		CacheTTL: ttl,
	}
}

// Anthropometric returns daily weight and body-fat records in [start, end].
func (c *Client) Anthropometric(ctx context.Context, subjectID, start, end string) (any, error) {
	form := url.Values{
		"start_date": {normalize.Slash(start)},
		"end_date":   {normalize.Slash(end)},
		"unit":       {"day"},
	}
	return c.post(ctx, subjectID, pathAnthropometric, form, start == end)
}

// MealWithBasis returns meals, per-slot summaries and goal basis per day in [start, end].
func (c *Client) MealWithBasis(ctx context.Context, subjectID, start, end string) (any, error) {
	form := url.Values{
		"start_date": {normalize.Slash(start)},
		"end_date":   {normalize.Slash(end)},
	}
	return c.post(ctx, subjectID, pathMealWithBasis, form, start == end)
}

// UserInfo returns the subject's profile including the current goal.
func (c *Client) UserInfo(ctx context.Context, subjectID string) (any, error) {
	return c.post(ctx, subjectID, pathUserInfo, nil, false)
}

func (c *Client) post(ctx context.Context, subjectID, path string, form url.Values, cacheable bool) (any, error) {
	op := strings.TrimPrefix(path, "/api/")
	ctx, span := otel.Tracer("calomeal").Start(ctx, op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("user.id", subjectID)),
	)
	defer span.End()

	key := ""
	if cacheable && c.Cache != nil {
		key = "calomeal:" + op + ":" + subjectID + ":" + form.Encode()
	}
	if key != "" && cache.StaleAllowed(ctx) {
		if b, ok := c.Cache.Get(ctx, key); ok {
			if v, err := normalize.Decode(b); err == nil {
				span.SetAttributes(attribute.Bool("cache.hit", true))
				return v, nil
			}
		}
	}

	start := time.Now()
	body, err := c.do(ctx, subjectID, op, path, form)
	observability.ObserveUpstream("calomeal", op, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	v, err := normalize.Decode(body)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("calomeal %s: decode: %w", op, err)
	}
	if key != "" {
		c.Cache.Set(ctx, key, body, c.CacheTTL)
	}
	return v, nil
}

func (c *Client) do(ctx context.Context, subjectID, op, path string, form url.Values) ([]byte, error) {
	var (
		req *http.Request
		err error
	)
	if form != nil {
		req, err = http.NewRequestWithContext(WithSubject(ctx, subjectID), http.MethodPost, c.BaseURL+path, strings.NewReader(form.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(WithSubject(ctx, subjectID), http.MethodPost, c.BaseURL+path, nil)
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
		}
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	log.Ctx(ctx).Debug().Str("subject_id", subjectID).Str("op", op).Str("form", form.Encode()).Msg("calomeal request")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calomeal %s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("calomeal %s: read body: %w", op, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Op: op, Code: resp.StatusCode, Body: truncate(string(body), 300)}
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "")
}
