// Package line talks to the LINE Messaging API: push messages, profile
// lookups and webhook signature checks.
package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/dietbot/internal/config"
	"github.com/tbourn/dietbot/internal/observability"
)

// MaxTextRunes is the longest text message the platform accepts.
const MaxTextRunes = 5000

var (
	ErrNotConfigured  = errors.New("line: channel access token not configured")
	ErrEmptyRecipient = errors.New("line: recipient is empty")
)

// APIError is a non-200 response from the Messaging API.
type APIError struct {
	Op   string
	Code int
	Body string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("line %s: status %d: %s", e.Op, e.Code, e.Body)
}

// Profile is the public profile of a LINE user.
type Profile struct {
	UserID        string `json:"userId"`
	DisplayName   string `json:"displayName"`
	PictureURL    string `json:"pictureUrl"`
	StatusMessage string `json:"statusMessage"`
}

// Client is a minimal Messaging API client.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// New returns a client for cfg. A missing access token is reported on use.
func New(cfg config.LineConfig) *Client {
	return &Client{
		BaseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		Token:   cfg.ChannelAccessToken,
		HTTP:    &http.Client{Timeout: cfg.Timeout},
	}
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []textMessage `json:"messages"`
}

// Push sends one text message to a user, truncated to MaxTextRunes.
func (c *Client) Push(ctx context.Context, to, text string) error {
	if c.Token == "" {
		return ErrNotConfigured
	}
	if strings.TrimSpace(to) == "" {
		return ErrEmptyRecipient
	}
	body, err := json.Marshal(pushRequest{
		To:       to,
		Messages: []textMessage{{Type: "text", Text: Truncate(text)}},
	})
	if err != nil {
		return err
	}
	_, err = c.call(ctx, "push", http.MethodPost, "/v2/bot/message/push", body, to)
	return err
}

// Profile fetches the display name and picture of userID.
func (c *Client) Profile(ctx context.Context, userID string) (*Profile, error) {
	if c.Token == "" {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(userID) == "" {
		return nil, ErrEmptyRecipient
	}
	b, err := c.call(ctx, "profile", http.MethodGet, "/v2/bot/profile/"+url.PathEscape(userID), nil, userID)
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("line profile: decode: %w", err)
	}
	return &p, nil
}

func (c *Client) call(ctx context.Context, op, method, path string, body []byte, userID string) ([]byte, error) {
	ctx, span := otel.Tracer("line").Start(ctx, op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	start := time.Now()
	b, err := c.send(ctx, op, method, path, body)
	observability.ObserveUpstream("line", op, start, err)
	if err != nil {
		span.RecordError(err)
	}
	return b, err
}

func (c *Client) send(ctx context.Context, op, method, path string, body []byte) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("line %s: %w", op, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("line %s: read body: %w", op, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Op: op, Code: resp.StatusCode, Body: string(b)}
	}
	return b, nil
}

// Truncate cuts text to MaxTextRunes characters.
func Truncate(text string) string {
	r := []rune(text)
	if len(r) <= MaxTextRunes {
		return text
	}
	return string(r[:MaxTextRunes])
}
