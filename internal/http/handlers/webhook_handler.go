package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/dietbot/internal/http/middleware"
	"github.com/tbourn/dietbot/internal/line"
	"github.com/tbourn/dietbot/internal/services"
)

// WebhookResponse acknowledges one webhook delivery.
type WebhookResponse struct {
	// success when at least one event was stored, otherwise ignored or duplicate
	Status  string             `json:"status" example:"success"`
	Message string             `json:"message,omitempty"`
	Results []services.Outcome `json:"results"`
}

const statusDuplicate = "duplicate"

// Webhook godoc
// @Summary      Receive messaging-platform events
// @Description  Handles message and postback events: stores the request, classifies it and drafts advice. Other event types are acknowledged and ignored.
// @Tags         webhook
// @Accept       json
// @Produce      json
// @Param        X-Line-Signature  header  string  false  "Base64 HMAC-SHA256 of the body (required when a channel secret is configured)"
// @Param        X-Line-Retry-Key  header  string  false  "Redelivery key"
// @Param        body  body      line.WebhookBody  true  "Event envelope"
// @Success      200   {object}  WebhookResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /webhook/line [post]
func (h *Handlers) Webhook(c *gin.Context) {
	if middleware.IsReplay(c) {
		ok(c, http.StatusOK, WebhookResponse{
			Status:  statusDuplicate,
			Message: "redelivery already processed",
			Results: []services.Outcome{},
		})
		return
	}

	var body line.WebhookBody
	if err := c.ShouldBindJSON(&body); err != nil {
		if errors.Is(err, io.EOF) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "empty body")
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid event envelope")
		return
	}

	ctx := c.Request.Context()
	lg := middleware.LoggerFrom(c)
	resp := WebhookResponse{Status: services.OutcomeIgnored, Results: make([]services.Outcome, 0, len(body.Events))}
	var lastID uint
	for i, ev := range body.Events {
		if h.eventDone(c, ev.WebhookEventID) {
			resp.Results = append(resp.Results, services.Outcome{Status: statusDuplicate, Reason: "event already processed"})
			continue
		}
		out, err := h.Events.Handle(ctx, ev)
		if err != nil {
			// events stored before this one are skipped by id on redelivery
			lg.Error().Err(err).Int("event", i).Str("event_type", ev.Type).Msg("webhook event failed")
			failErr(c, err)
			return
		}
		if ev.WebhookEventID != "" && h.EventLog != nil {
			if err := h.EventLog.MarkProcessed(ctx, ev.WebhookEventID, out.RequestID); err != nil {
				lg.Warn().Err(err).Str("webhook_event_id", ev.WebhookEventID).Msg("remember event failed")
			}
		}
		if out.Status == services.OutcomeSuccess {
			resp.Status = services.OutcomeSuccess
			lastID = out.RequestID
		}
		resp.Results = append(resp.Results, out)
	}
	if len(body.Events) == 0 {
		resp.Message = "no events"
	}

	if key, has := middleware.GetIdempotencyKey(c); has && h.Retries != nil {
		if err := h.Retries.Remember(ctx, key, lastID, http.StatusOK); err != nil {
			lg.Warn().Err(err).Msg("remember retry key failed")
		}
	}
	ok(c, http.StatusOK, resp)
}

// eventDone reports whether the event with id was stored by an earlier
// delivery. A lookup error is logged and the event is processed.
func (h *Handlers) eventDone(c *gin.Context, id string) bool {
	if id == "" || h.EventLog == nil {
		return false
	}
	done, err := h.EventLog.Processed(c.Request.Context(), id)
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Str("webhook_event_id", id).Msg("event lookup failed")
		return false
	}
	return done
}
