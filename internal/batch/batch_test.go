package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkirkendall/prompt-perfect/internal/promptbuilder"
)

type stubBuilder struct {
	mu       sync.Mutex
	inFlight atomic.Int32
	peak     int32
	fail     map[string]error
}

func (s *stubBuilder) Build(ctx context.Context, f promptbuilder.FieldSet, _ promptbuilder.RequestConfig) (promptbuilder.Result, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	s.mu.Lock()
	if n > s.peak {
		s.peak = n
	}
	s.mu.Unlock()
	if err := s.fail[f.Subject]; err != nil {
		return promptbuilder.Result{}, err
	}
	return promptbuilder.Result{Prompt: "prompt for " + f.Subject, Negative: f.NegativesExtra, Debug: "{}"}, nil
}

func TestRunner_OrderAndErrors(t *testing.T) {
	sb := &stubBuilder{fail: map[string]error{"bad": errors.New("remote down")}}
	r := NewRunner(sb, promptbuilder.RequestConfig{}, Options{Concurrency: 3}, nil)

	records := []promptbuilder.FieldSet{{Subject: "a"}, {Subject: "bad"}, {Subject: "c", NegativesExtra: "blur"}, {Subject: "d"}}
	out, err := r.Run(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, out, 4)

	for i, o := range out {
		assert.Equal(t, i, o.Index)
		assert.NotEmpty(t, o.ID)
	}
	assert.Equal(t, "prompt for a", out[0].Prompt)
	assert.Equal(t, "remote down", out[1].Error)
	assert.Empty(t, out[1].Prompt)
	assert.Equal(t, "blur", out[2].Negative)
	assert.LessOrEqual(t, sb.peak, int32(3))
}

func TestRunner_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRunner(&stubBuilder{}, promptbuilder.RequestConfig{}, Options{RequestsPerSecond: 1}, nil)
	_, err := r.Run(ctx, []promptbuilder.FieldSet{{Subject: "a"}, {Subject: "b"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadFieldSets(t *testing.T) {
	jsonl := "{\"subject\":\"mug\",\"negatives_extra\":\"logo\"}\n\n{\"style\":\"noir\"}\n"
	got, err := ReadFieldSets(strings.NewReader(jsonl), "jsonl")
	require.NoError(t, err)
	assert.Equal(t, []promptbuilder.FieldSet{{Subject: "mug", NegativesExtra: "logo"}, {Style: "noir"}}, got)

	got, err = ReadFieldSets(strings.NewReader(`[{"camera":"50mm"}]`), "json")
	require.NoError(t, err)
	assert.Equal(t, []promptbuilder.FieldSet{{Camera: "50mm"}}, got)

	yml := "- subject: mug\n  lighting: softbox\n- model_hint: flux\n"
	got, err = ReadFieldSets(strings.NewReader(yml), "yaml")
	require.NoError(t, err)
	assert.Equal(t, []promptbuilder.FieldSet{{Subject: "mug", Lighting: "softbox"}, {ModelHint: "flux"}}, got)

	_, err = ReadFieldSets(strings.NewReader("{oops\n"), "jsonl")
	assert.ErrorContains(t, err, "line 1")

	_, err = ReadFieldSets(strings.NewReader(""), "csv")
	assert.Error(t, err)
}

func TestWriteJSONL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSONL(&buf, []Outcome{{ID: "x", Index: 0, Prompt: "a <b>"}, {ID: "y", Index: 1, Error: "e"}}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "a <b>")
	var o Outcome
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &o))
	assert.Equal(t, "e", o.Error)
}
