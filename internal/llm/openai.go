package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/tbourn/dietbot/internal/config"
	"github.com/tbourn/dietbot/internal/observability"
)

// OpenAI calls the chat-completions endpoint of an OpenAI-compatible API.
type OpenAI struct {
	apiKey string
	model  string
	client openai.Client
}

// NewOpenAI returns a client for cfg. Failed calls are not retried.
func NewOpenAI(cfg config.LLMConfig) *OpenAI {
	key := strings.TrimSpace(cfg.OpenAIKey)
	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithMaxRetries(0),
	}
	if u := strings.TrimSpace(cfg.OpenAIBaseURL); u != "" {
		opts = append(opts, option.WithBaseURL(u))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return &OpenAI{
		apiKey: key,
		model:  strings.TrimSpace(cfg.OpenAIModel),
		client: openai.NewClient(opts...),
	}
}

func (c *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" || c.model == "" {
		return "", ErrNotConfigured
	}
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if s := strings.TrimSpace(req.System); s != "" {
		msgs = append(msgs, openai.SystemMessage(s))
	}
	msgs = append(msgs, openai.UserMessage(req.User))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: msgs,
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(float64(*req.Temperature))
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	observability.ObserveUpstream("openai", "chat_completions", start, err)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			msg := strings.TrimSpace(apiErr.Message)
			if msg == "" {
				msg = apiErr.Error()
			}
			return "", fmt.Errorf("openai: status %d: %s", apiErr.StatusCode, msg)
		}
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
