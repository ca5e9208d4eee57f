// Package ai holds the chat-completion backends used to turn a system
// instruction and a user payload into a single reply text.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// Role is a chat message author.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one chat turn.
type Message struct {
	Role    Role
	Content string
}

// ChatRequest is a single chat-completion call.
type ChatRequest struct {
	Model       string
	Temperature float64
	Messages    []Message
}

// ChatClient sends one chat request and returns the text of the first choice.
type ChatClient interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// ErrNoChoices is returned when the API answers without any choice or candidate.
var ErrNoChoices = errors.New("no text returned by model")

// Provider selects the chat backend.
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderOpenRouter Provider = "openrouter"
	ProviderGemini     Provider = "gemini"
)

// ParseProvider accepts a provider name case-insensitively. Blank means OpenAI.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ProviderOpenAI, nil
	case ProviderOpenAI, ProviderOpenRouter, ProviderGemini:
		return p, nil
	default:
		return "", fmt.Errorf("unknown provider %q (want openai, openrouter or gemini)", s)
	}
}

// CredentialEnv is the environment variable holding the provider's API key.
func (p Provider) CredentialEnv() string {
	switch p {
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

// DefaultModel is used when a request names no model.
func (p Provider) DefaultModel() string {
	switch p {
	case ProviderOpenRouter:
		return "openai/gpt-4.1-mini"
	case ProviderGemini:
		return "gemini-2.5-flash"
	default:
		return "gpt-4.1-mini"
	}
}

// BaseURLEnv is the environment variable that overrides the provider endpoint.
func (p Provider) BaseURLEnv() string {
	switch p {
	case ProviderOpenRouter:
		return "OPENROUTER_BASE_URL"
	case ProviderGemini:
		return "GEMINI_BASE_URL"
	default:
		return "OPENAI_BASE_URL"
	}
}

// ClientOptions configures NewClient.
type ClientOptions struct {
	Provider Provider
	APIKey   string
	// BaseURL overrides the provider's default endpoint when set.
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewClient builds the ChatClient for opts.Provider.
func NewClient(ctx context.Context, opts ClientOptions) (ChatClient, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	switch opts.Provider {
	case "", ProviderOpenAI, ProviderOpenRouter:
		return NewOpenAIClient(opts), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, opts)
	default:
		return nil, fmt.Errorf("unknown provider %q", opts.Provider)
	}
}

// preview shortens s for debug logs.
func preview(s string, n int) string {
	if len(s) > n {
		return s[:n] + "... [truncated]"
	}
	return s
}
