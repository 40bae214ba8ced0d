// Package httpapi wires the Gin transport to the handlers and middleware:
// tracing, correlation IDs, redacted access logs, panic recovery, metrics,
// compression, CORS, security headers, webhook signature checks, redelivery
// detection, admin auth and rate limiting.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/dietbot/docs" // registers swagger docs
	"github.com/tbourn/dietbot/internal/config"
	"github.com/tbourn/dietbot/internal/http/handlers"
	"github.com/tbourn/dietbot/internal/http/middleware"
	"github.com/tbourn/dietbot/internal/line"
	"github.com/tbourn/dietbot/internal/repo"
)

// Scopes of the idempotency table: whole-delivery redelivery keys and
// individual webhook event ids.
const (
	WebhookScope = "line-webhook"
	EventScope   = "line-event"
)

// retryStore persists processed redelivery keys.
type retryStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// Remember records key. A concurrent delivery that already recorded it is not
// an error.
func (s retryStore) Remember(ctx context.Context, key string, requestID uint, status int) error {
	_, err := repo.CreateIdempotency(ctx, s.db, WebhookScope, key, requestID, status, s.ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// eventLog records processed webhook event ids.
type eventLog struct {
	db  *gorm.DB
	ttl time.Duration
}

func (l eventLog) Processed(ctx context.Context, eventID string) (bool, error) {
	_, err := repo.GetIdempotency(ctx, l.db, EventScope, eventID, time.Now().UTC())
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (l eventLog) MarkProcessed(ctx context.Context, eventID string, requestID uint) error {
	_, err := repo.CreateIdempotency(ctx, l.db, EventScope, eventID, requestID, http.StatusOK, l.ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// seenRetryKey reports whether a redelivery key was already processed.
func seenRetryKey(db *gorm.DB) middleware.IdempotencyLookup {
	return func(ctx context.Context, key string, now time.Time) (bool, error) {
		_, err := repo.GetIdempotency(ctx, db, WebhookScope, key, now)
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		return err == nil, err
	}
}

// RegisterRoutes attaches all middleware and endpoints to r. When h.Retries
// or h.EventLog is nil, redelivery keys and event ids are stored in db.
//
// Middleware order matters:
//  1. OpenTelemetry
//  2. RequestID
//  3. RedactingLogger
//  4. Recovery (after the logger so panics carry the request id)
//  5. Body size limiter
//  6. Metrics
//  7. gzip, CORS and security headers
//
// Route groups then add signature or token auth, redelivery detection and
// the rate limiter, in that order, so the limiter can key on identity.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, h *handlers.Handlers, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(1 << 20))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	if h.Retries == nil {
		h.Retries = retryStore{db: db, ttl: cfg.IdempotencyTTL}
	}
	if h.EventLog == nil {
		h.EventLog = eventLog{db: db, ttl: cfg.IdempotencyTTL}
	}
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIdentityOrIP())

	r.POST("/webhook/line",
		middleware.LineSignature(cfg.Line.ChannelSecret),
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{Header: line.HeaderRetryKey}, seenRetryKey(db)),
		rl.Handler(),
		h.Webhook,
	)

	oauth := r.Group("/oauth", rl.Handler())
	{
		oauth.GET("/start", h.OAuthStart)
		oauth.GET("/callback", h.OAuthCallback)
	}

	base := groupWithPrefix(r, cfg.APIBasePath)
	admin := base.Group("/admin", middleware.AdminAuth(cfg.AdminToken), rl.Handler())
	{
		// message text and reports are never cached
		private := admin.Group("", middleware.SecurityHeaders(middleware.SecurityOptions{NoStore: true}))
		private.GET("/requests/unreplied", h.ListUnreplied)
		private.GET("/reports/daily", h.DailyReport)
		private.POST("/requests/:id/reply", h.Reply)
		private.POST("/requests/:id/summary", h.SendSummary)
		private.PUT("/requests/:id/status", h.UpdateStatus)
		private.POST("/requests/:id/discard", h.Discard)

		admin.POST("/subjects/:id/backfill", h.Backfill)
		admin.POST("/subjects/:id/reconcile", h.Reconcile)
		admin.POST("/subjects/:id/goal", h.SnapshotGoal)
		admin.GET("/subjects/:id/nutrition", h.ListNutrition)
	}
}

var (
	corsMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsHeaders = []string{
		"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match",
		middleware.HeaderAdminToken, line.HeaderSignature, line.HeaderRetryKey,
	}
	corsExpose = []string{"X-Request-ID", "Content-Length", "ETag", "Last-Modified"}
)

// corsMiddleware allows every origin when none are configured, otherwise
// echoes allowlisted origins.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	if len(origins) == 0 {
		return []gin.HandlerFunc{
			// ACAO: * even without an Origin header, so plain health checks see it.
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins:  true,
				AllowMethods:     corsMethods,
				AllowHeaders:     corsHeaders,
				ExposeHeaders:    corsExpose,
				AllowCredentials: false,
				MaxAge:           12 * time.Hour,
			}),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     corsMethods,
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    corsExpose,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}),
	}
}

// limitBody caps request bodies at maxBytes; oversized reads fail downstream.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
