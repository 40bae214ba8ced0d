// Package llm wraps the language-model backends behind one Completer
// interface. The backend is chosen by LLM_PROVIDER; "none" yields a
// Completer that always reports ErrNotConfigured so callers can fall back.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tbourn/dietbot/internal/config"
)

var (
	// ErrNotConfigured means no usable backend or credentials are set.
	ErrNotConfigured = errors.New("llm: not configured")
	// ErrEmptyCompletion means the backend answered without any text.
	ErrEmptyCompletion = errors.New("llm: empty completion")
)

// Request is a single-turn prompt.
type Request struct {
	System      string
	User        string
	Temperature *float32 // nil keeps the backend default
	MaxTokens   int      // 0 keeps the backend default
}

// Completer produces a completion for one prompt.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Temp is a convenience for Request.Temperature.
func Temp(v float32) *float32 { return &v }

// Disabled is the Completer used when LLM_PROVIDER=none.
type Disabled struct{}

func (Disabled) Complete(context.Context, Request) (string, error) { return "", ErrNotConfigured }

// New builds the configured backend. The returned close function releases
// backend resources and is never nil.
func New(ctx context.Context, cfg config.LLMConfig) (Completer, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		if cfg.OpenAIKey == "" {
			return Disabled{}, noop, nil
		}
		return NewOpenAI(cfg), noop, nil
	case "gemini":
		if cfg.GeminiKey == "" {
			return Disabled{}, noop, nil
		}
		g, err := NewGemini(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		return g, g.Close, nil
	case "none", "":
		return Disabled{}, noop, nil
	default:
		return nil, noop, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
