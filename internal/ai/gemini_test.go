package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiClient_Complete(t *testing.T) {
	var body map[string]any
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"prompt\":"},{"text":"\"P\"}"}]}}]}`))
	}))
	defer srv.Close()

	c, err := NewGeminiClient(context.Background(), ClientOptions{Provider: ProviderGemini, APIKey: "g-key", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), ChatRequest{
		Model:       "google/gemini-2.5-flash",
		Temperature: 0.25,
		Messages:    []Message{{Role: RoleSystem, Content: "sys"}, {Role: RoleUser, Content: "usr"}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"prompt":"P"}`, out)
	assert.True(t, strings.HasSuffix(path, "models/gemini-2.5-flash:generateContent"), path)
	assert.Contains(t, body, "systemInstruction")
	assert.Len(t, body["contents"], 1)
}

func TestGeminiClient_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c, err := NewGeminiClient(context.Background(), ClientOptions{APIKey: "g-key", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), ChatRequest{Model: "gemini-2.5-flash", Messages: []Message{{Role: RoleUser, Content: "x"}}})
	assert.ErrorIs(t, err, ErrNoChoices)
}

func TestGeminiClient_SkipsThoughtParts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"thinking about lenses","thought":true},{"text":"{\"prompt\":\"P\"}"}]}}]}`))
	}))
	defer srv.Close()

	c, err := NewGeminiClient(context.Background(), ClientOptions{APIKey: "g-key", BaseURL: srv.URL})
	require.NoError(t, err)
	out, err := c.Complete(context.Background(), ChatRequest{Model: "gemini-2.5-flash", Messages: []Message{{Role: RoleUser, Content: "x"}}})
	require.NoError(t, err)
	assert.Equal(t, `{"prompt":"P"}`, out)
}

func TestGeminiClient_NoRetryOnFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":500,"message":"backend exploded","status":"INTERNAL"}}`))
	}))
	defer srv.Close()

	c, err := NewGeminiClient(context.Background(), ClientOptions{APIKey: "g-key", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), ChatRequest{Model: "gemini-2.5-flash", Messages: []Message{{Role: RoleUser, Content: "x"}}})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoChoices)
	assert.Equal(t, int32(1), calls.Load())
}

func TestMapModelForGemini(t *testing.T) {
	tests := map[string]string{
		"gemini-2.5-flash":             "gemini-2.5-flash",
		"google/gemini-2.5-flash":      "gemini-2.5-flash",
		"gemini-2.5-flash:free":        "gemini-2.5-flash",
		"google/gemini-2.5-flash:free": "gemini-2.5-flash",
		"models/gemini-2.5-flash":      "models/gemini-2.5-flash",
		"  gemini-2.5-flash-lite  ":    "gemini-2.5-flash-lite",
	}
	for in, want := range tests {
		assert.Equal(t, want, mapModelForGemini(in), in)
	}
}
