// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server, storage,
// third-party client, batch and observability settings. Values are read once
// at start-up and passed into explicitly constructed clients.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// SentryConfig defines error reporting settings. An empty DSN disables it.
type SentryConfig struct {
	DSN         string
	Environment string
}

// DBConfig selects the storage engine.
type DBConfig struct {
	Driver string // sqlite|postgres
	Path   string // SQLite file
	URL    string // Postgres DSN
}

// CalomealConfig holds the diet-tracking API client settings.
type CalomealConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Timeout      time.Duration
}

// LineConfig holds the messaging platform settings.
type LineConfig struct {
	ChannelAccessToken string
	ChannelSecret      string // enables X-Line-Signature verification when set
	APIBaseURL         string
	Timeout            time.Duration
}

// LLMConfig selects and configures the language-model backend.
type LLMConfig struct {
	Provider      string // openai|gemini|none
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	GeminiKey     string
	GeminiModel   string
	Timeout       time.Duration
}

// BatchConfig bounds backfill and reconciliation runs.
type BatchConfig struct {
	ChunkDays int     // days per third-party fetch
	FetchRPS  float64 // pacing of sequential fetches; 0 disables pacing
}

// CacheConfig configures the optional payload cache.
type CacheConfig struct {
	RedisURL string
	TTL      time.Duration
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 60s; advice generation is synchronous
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	DB DBConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS       CORSConfig
	Security   SecurityConfig
	AdminToken string // X-Admin-Token; empty disables the check

	// Idempotency of webhook redeliveries
	IdempotencyTTL time.Duration

	Calomeal CalomealConfig
	Line     LineConfig
	LLM      LLMConfig
	Batch    BatchConfig
	Cache    CacheConfig
	FAQPath  string // optional Markdown FAQ for app-usage questions

	// Observability
	OTEL   OTELConfig
	Sentry SentryConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 90*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/")),

		DB: DBConfig{
			Driver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			Path:   getenv("DB_PATH", "dietbot.db"),
			URL:    getenv("DATABASE_URL", ""),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},
		AdminToken: getenv("ADMIN_TOKEN", ""),

		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		Calomeal: CalomealConfig{
			BaseURL:      strings.TrimRight(getenv("CALOMEAL_BASE_URL", "https://test-connect.calomeal.com"), "/"),
			ClientID:     getenv("CALOMEAL_CLIENT_ID", ""),
			ClientSecret: getenv("CALOMEAL_CLIENT_SECRET", ""),
			RedirectURL:  getenv("CALOMEAL_REDIRECT_URL", ""),
			Timeout:      getdur("CALOMEAL_TIMEOUT", 30*time.Second),
		},
		Line: LineConfig{
			ChannelAccessToken: getenv("LINE_CHANNEL_ACCESS_TOKEN", ""),
			ChannelSecret:      getenv("LINE_CHANNEL_SECRET", ""),
			APIBaseURL:         strings.TrimRight(getenv("LINE_API_BASE_URL", "https://api.line.me"), "/"),
			Timeout:            getdur("LINE_TIMEOUT", 15*time.Second),
		},
		LLM: LLMConfig{
			Provider:      strings.ToLower(getenv("LLM_PROVIDER", "openai")),
			OpenAIKey:     getenv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: strings.TrimRight(getenv("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
			OpenAIModel:   getenv("OPENAI_MODEL", "gpt-4o"),
			GeminiKey:     getenv("GEMINI_API_KEY", ""),
			GeminiModel:   getenv("GEMINI_MODEL", "gemini-1.5-flash"),
			Timeout:       getdur("LLM_TIMEOUT", 30*time.Second),
		},
		Batch: BatchConfig{
			ChunkDays: getint("BACKFILL_CHUNK_DAYS", 7),
			FetchRPS:  getfloat("FETCH_RPS", 1.0),
		},
		Cache: CacheConfig{
			RedisURL: getenv("REDIS_URL", ""),
			TTL:      getdur("CACHE_TTL", 5*time.Minute),
		},
		FAQPath: getenv("FAQ_PATH", ""),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "dietbot"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
		Sentry: SentryConfig{
			DSN:         getenv("SENTRY_DSN", ""),
			Environment: getenv("SENTRY_ENVIRONMENT", "production"),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.DB.Driver == "postgresql" || cfg.DB.Driver == "pg" {
		cfg.DB.Driver = "postgres"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DB.URL) == "" {
			return cfg, errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.Calomeal.Timeout <= 0 || cfg.Line.Timeout <= 0 || cfg.LLM.Timeout <= 0 {
		return cfg, errors.New("client timeouts must be positive durations")
	}
	switch cfg.LLM.Provider {
	case "openai", "gemini", "none":
	default:
		return cfg, errors.New("LLM_PROVIDER must be one of: openai, gemini, none")
	}
	if cfg.Batch.ChunkDays < 1 {
		return cfg, errors.New("BACKFILL_CHUNK_DAYS must be >= 1")
	}
	if cfg.Batch.FetchRPS < 0 {
		return cfg, errors.New("FETCH_RPS must be >= 0")
	}
	if cfg.Cache.TTL < 0 {
		return cfg, errors.New("CACHE_TTL must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
