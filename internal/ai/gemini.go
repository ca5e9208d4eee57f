package ai

import (
	"context"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient sends the system message as a Gemini system instruction and
// the user messages as contents.
type GeminiClient struct {
	client *genai.Client
	logger *slog.Logger
}

// NewGeminiClient creates a Gemini API backed client.
func NewGeminiClient(ctx context.Context, opts ClientOptions) (*GeminiClient, error) {
	cfg := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if b := strings.TrimSpace(opts.BaseURL); b != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: b}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiClient{client: client, logger: logger}, nil
}

// Complete returns the concatenated text parts of the first candidate.
// Thought parts are skipped.
func (c *GeminiClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	var system []string
	var contents []*genai.Content
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
	}
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if len(system) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	model := mapModelForGemini(req.Model)
	c.logger.Debug("gemini generate request", "model", model, "contents", len(contents))
	res, err := c.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", err
	}
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", ErrNoChoices
	}
	var out strings.Builder
	for _, p := range res.Candidates[0].Content.Parts {
		if p.Text != "" && !p.Thought {
			out.WriteString(p.Text)
		}
	}
	c.logger.Debug("gemini generate reply", "model", model, "body", preview(out.String(), 4096))
	return out.String(), nil
}

// mapModelForGemini normalizes model names for the native SDK:
//   - "google/gemini-2.5-flash" -> "gemini-2.5-flash"
//   - "gemini-2.5-flash:free"   -> "gemini-2.5-flash"
//
// "models/..." resource names pass through.
func mapModelForGemini(model string) string {
	m := strings.TrimSpace(model)
	if strings.HasPrefix(m, "models/") {
		return m
	}
	m = strings.TrimPrefix(m, "google/")
	if i := strings.IndexByte(m, ':'); i >= 0 {
		m = m[:i]
	}
	return m
}
