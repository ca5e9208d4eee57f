// Package batch runs many independent prompt builds with bounded
// concurrency and request pacing.
package batch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/rkirkendall/prompt-perfect/internal/promptbuilder"
)

const (
	DefaultConcurrency = 2
	maxLineBytes       = 1 << 20
)

// Builder is the part of promptbuilder.Builder the runner needs.
type Builder interface {
	Build(ctx context.Context, fields promptbuilder.FieldSet, cfg promptbuilder.RequestConfig) (promptbuilder.Result, error)
}

// Outcome is one line of batch output. Error is set instead of the result
// fields when that record failed.
type Outcome struct {
	ID       string `json:"id"`
	Index    int    `json:"index"`
	Prompt   string `json:"prompt,omitempty"`
	Negative string `json:"negative,omitempty"`
	Debug    string `json:"debug_json,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Options tunes a Runner.
type Options struct {
	Concurrency int
	// RequestsPerSecond caps how fast calls start; zero or less means no cap.
	RequestsPerSecond float64
}

// Runner fans records out to a Builder.
type Runner struct {
	builder     Builder
	cfg         promptbuilder.RequestConfig
	concurrency int
	limiter     *rate.Limiter
	logger      *slog.Logger
}

func NewRunner(b Builder, cfg promptbuilder.RequestConfig, opts Options, logger *slog.Logger) *Runner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		builder:     b,
		cfg:         cfg,
		concurrency: opts.Concurrency,
		limiter:     rate.NewLimiter(limit, 1),
		logger:      logger,
	}
}

// Run builds every record and returns outcomes in input order. A failing
// record is reported in its Outcome and does not stop the others; only
// context cancellation aborts the run.
func (r *Runner) Run(ctx context.Context, records []promptbuilder.FieldSet) ([]Outcome, error) {
	out := make([]Outcome, len(records))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.concurrency)

	for i, fields := range records {
		eg.Go(func() error {
			if err := r.limiter.Wait(egCtx); err != nil {
				return err
			}
			o := Outcome{ID: uuid.NewString(), Index: i}
			res, err := r.builder.Build(egCtx, fields, r.cfg)
			if err != nil {
				if ctxErr := egCtx.Err(); ctxErr != nil {
					return ctxErr
				}
				r.logger.Warn("batch record failed", "index", i, "id", o.ID, "error", err)
				o.Error = err.Error()
			} else {
				o.Prompt, o.Negative, o.Debug = res.Prompt, res.Negative, res.Debug
			}
			out[i] = o
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadFieldSets decodes records. format is "jsonl" (one object per line,
// blank lines skipped), "json" (an array) or "yaml" (a sequence).
func ReadFieldSets(rd io.Reader, format string) ([]promptbuilder.FieldSet, error) {
	switch strings.ToLower(format) {
	case "", "jsonl", "ndjson":
		var out []promptbuilder.FieldSet
		sc := bufio.NewScanner(rd)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		line := 0
		for sc.Scan() {
			line++
			b := bytes.TrimSpace(sc.Bytes())
			if len(b) == 0 {
				continue
			}
			var f promptbuilder.FieldSet
			if err := json.Unmarshal(b, &f); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			out = append(out, f)
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return out, nil
	case "json":
		var out []promptbuilder.FieldSet
		if err := json.NewDecoder(rd).Decode(&out); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		return out, nil
	case "yaml", "yml":
		var out []promptbuilder.FieldSet
		if err := yaml.NewDecoder(rd).Decode(&out); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown batch format %q", format)
	}
}

// WriteJSONL writes one JSON object per outcome.
func WriteJSONL(w io.Writer, outcomes []Outcome) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, o := range outcomes {
		if err := enc.Encode(o); err != nil {
			return err
		}
	}
	return nil
}
