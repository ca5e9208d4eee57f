// Package promptbuilder turns a structured scene description into positive
// and negative image prompts by asking a chat model for a JSON reply.
package promptbuilder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rkirkendall/prompt-perfect/internal/ai"
)

const (
	DefaultModel       = "gpt-4.1-mini"
	DefaultTemperature = 0.1
)

// RequestConfig selects the credential, backend and sampling for one call.
type RequestConfig struct {
	// APIKey wins over the provider's environment variable when non-blank.
	APIKey      string
	Model       string
	Temperature float64
	Provider    ai.Provider
	BaseURL     string
}

// Result is the node output.
type Result struct {
	Prompt   string `json:"prompt"`
	Negative string `json:"negative"`
	Debug    string `json:"debug_json"`
}

// ClientFactory creates the chat client once the credential is known.
type ClientFactory func(ctx context.Context, opts ai.ClientOptions) (ai.ChatClient, error)

// Builder runs the field → instruction → chat → parse flow. A Builder holds
// no per-call state and may be shared.
type Builder struct {
	newClient  ClientFactory
	lookupEnv  LookupEnvFunc
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithClientFactory replaces ai.NewClient.
func WithClientFactory(f ClientFactory) Option {
	return func(b *Builder) { b.newClient = f }
}

// WithLookupEnv replaces os.LookupEnv for credential resolution.
func WithLookupEnv(f LookupEnvFunc) Option {
	return func(b *Builder) { b.lookupEnv = f }
}

// WithHTTPClient sets the HTTP client handed to the backends. Timeouts are
// configured here.
func WithHTTPClient(c *http.Client) Option {
	return func(b *Builder) { b.httpClient = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// New returns a Builder using the real backends unless overridden.
func New(opts ...Option) *Builder {
	b := &Builder{newClient: ai.NewClient}
	for _, o := range opts {
		o(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Build performs one synchronous chat round trip. Credential and temperature
// problems are reported before any network activity. A reply that is not a
// JSON object degrades to the raw text instead of failing.
func (b *Builder) Build(ctx context.Context, fields FieldSet, cfg RequestConfig) (Result, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = ai.ProviderOpenAI
	}
	key, err := ResolveCredential(cfg.APIKey, provider.CredentialEnv(), b.lookupEnv)
	if err != nil {
		return Result{}, err
	}
	if cfg.Temperature < 0 || cfg.Temperature > 1 {
		return Result{}, fmt.Errorf("%w: got %v", ErrInvalidTemperature, cfg.Temperature)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = provider.DefaultModel()
	}

	fields = fields.Trimmed()
	payload, err := fields.UserPayload()
	if err != nil {
		return Result{}, fmt.Errorf("encode user payload: %w", err)
	}

	client, err := b.newClient(ctx, ai.ClientOptions{
		Provider:   provider,
		APIKey:     key,
		BaseURL:    cfg.BaseURL,
		HTTPClient: b.httpClient,
		Logger:     b.logger,
	})
	if err != nil {
		return Result{}, &RemoteCallError{Provider: string(provider), Model: model, Err: err}
	}

	b.logger.Info("requesting prompt", "provider", provider, "model", model, "temperature", cfg.Temperature)
	content, err := client.Complete(ctx, ai.ChatRequest{
		Model:       model,
		Temperature: cfg.Temperature,
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: SystemInstruction},
			{Role: ai.RoleUser, Content: payload},
		},
	})
	if err != nil {
		if errors.Is(err, ai.ErrNoChoices) {
			return Result{}, err
		}
		return Result{}, &RemoteCallError{Provider: string(provider), Model: model, Err: err}
	}
	content = strings.TrimSpace(content)

	rep, ok := parseReply(content)
	if !ok {
		b.logger.Warn("model reply is not a JSON object, returning raw text", "model", model, "length", len(content))
		debug, err := encodeJSON(map[string]string{"raw": content}, false)
		if err != nil {
			return Result{}, fmt.Errorf("encode debug: %w", err)
		}
		return Result{Prompt: content, Negative: fields.NegativesExtra, Debug: debug}, nil
	}

	debug, err := encodeJSON(debugPayload{Fields: fields, Notes: rep.Notes, ModelUsed: model}, true)
	if err != nil {
		return Result{}, fmt.Errorf("encode debug: %w", err)
	}
	return Result{
		Prompt:   rep.Prompt,
		Negative: MergeNegatives(rep.Negative, fields.NegativesExtra),
		Debug:    debug,
	}, nil
}

// MergeNegatives appends extra to negative with ", " when both are non-empty.
func MergeNegatives(negative, extra string) string {
	negative = strings.TrimSpace(negative)
	extra = strings.TrimSpace(extra)
	switch {
	case extra == "":
		return negative
	case negative == "":
		return extra
	default:
		return negative + ", " + extra
	}
}
