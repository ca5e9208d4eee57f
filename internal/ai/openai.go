package ai

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenAIClient talks to the OpenAI chat completions API, or to OpenRouter's
// compatible endpoint when Provider is ProviderOpenRouter.
type OpenAIClient struct {
	client   openai.Client
	provider Provider
	logger   *slog.Logger
}

// NewOpenAIClient builds the client with SDK retries disabled; a failed call
// is reported once.
func NewOpenAIClient(opts ClientOptions) *OpenAIClient {
	provider := opts.Provider
	if provider == "" {
		provider = ProviderOpenAI
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	base := strings.TrimSpace(opts.BaseURL)
	if provider == ProviderOpenRouter {
		if base == "" {
			base = defaultOpenRouterBaseURL
		}
		reqOpts = append(reqOpts,
			option.WithHeader("HTTP-Referer", envOr("OPENROUTER_SITE", "http://localhost")),
			option.WithHeader("X-Title", envOr("OPENROUTER_TITLE", "prompt-perfect")),
		)
	}
	if base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(strings.TrimRight(base, "/")+"/"))
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIClient{
		client:   openai.NewClient(reqOpts...),
		provider: provider,
		logger:   logger,
	}
}

// Complete sends the messages in order and returns the first choice's content.
func (c *OpenAIClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	model := req.Model
	if c.provider == ProviderOpenRouter {
		model = mapModelForOpenRouter(model)
	}
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	c.logger.Debug("chat completion request", "provider", c.provider, "model", model, "messages", len(msgs))
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Temperature: openai.Float(req.Temperature),
		Messages:    msgs,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	content := resp.Choices[0].Message.Content
	c.logger.Debug("chat completion reply", "provider", c.provider, "model", resp.Model, "body", preview(content, 4096))
	return content, nil
}

// mapModelForOpenRouter namespaces bare model names for OpenRouter, e.g.
// "gpt-4.1-mini" becomes "openai/gpt-4.1-mini". OPENROUTER_MODEL wins when set.
func mapModelForOpenRouter(model string) string {
	if env := strings.TrimSpace(os.Getenv("OPENROUTER_MODEL")); env != "" {
		return env
	}
	m := strings.TrimSpace(model)
	if m == "" || strings.Contains(m, "/") {
		return m
	}
	if strings.HasPrefix(m, "gemini") {
		return "google/" + m
	}
	return "openai/" + m
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
