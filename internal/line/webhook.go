package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"time"
)

// Headers set by the platform on webhook deliveries.
const (
	HeaderSignature = "X-Line-Signature"
	HeaderRetryKey  = "X-Line-Retry-Key"
)

// VerifySignature reports whether signature is the base64 HMAC-SHA256 of body
// under the channel secret.
func VerifySignature(secret string, body []byte, signature string) bool {
	got, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), got)
}

// Sign computes the signature the platform would send for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// WebhookBody is the envelope of one webhook delivery.
type WebhookBody struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

// Event is one webhook event. Only the fields the bot reads are decoded.
type Event struct {
	Type           string    `json:"type"`
	Timestamp      int64     `json:"timestamp"` // epoch milliseconds
	WebhookEventID string    `json:"webhookEventId"`
	Source         Source    `json:"source"`
	Message        *Message  `json:"message,omitempty"`
	Postback       *Postback `json:"postback,omitempty"`
}

type Source struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

type Message struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text"`
}

type Postback struct {
	Data string `json:"data"`
}

// Event types the bot acts on.
const (
	EventMessage  = "message"
	EventPostback = "postback"
)

// Text returns the message text or postback data, depending on the event type.
func (e Event) Text() string {
	switch e.Type {
	case EventMessage:
		if e.Message != nil {
			return e.Message.Text
		}
	case EventPostback:
		if e.Postback != nil {
			return e.Postback.Data
		}
	}
	return ""
}

// Time is the event timestamp, or now when the event carries none.
func (e Event) Time(now time.Time) time.Time {
	if e.Timestamp <= 0 {
		return now
	}
	return time.UnixMilli(e.Timestamp)
}
