// Package node declares the Prompt Perfect node the way a graph editor host
// reads it, and runs it from a loose map of host-supplied inputs.
package node

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rkirkendall/prompt-perfect/internal/promptbuilder"
)

const (
	ID          = "PromptPerfectGPT"
	DisplayName = "Prompt Perfect (ChatGPT)"
	Category    = "Prompting"
	Function    = "run"
	Description = "Turns structured scene fields into a photoreal positive prompt, a negative prompt and a debug payload using a chat model."
)

// Type is a host socket/widget type.
type Type string

const (
	TypeString Type = "STRING"
	TypeFloat  Type = "FLOAT"
)

// Input is one declared node input.
type Input struct {
	Name      string
	Type      Type
	Default   any
	Multiline bool
	Min       *float64
	Max       *float64
	Step      *float64
}

// options is the widget option object that follows the type in the
// host's [type, options] input tuple.
func (in Input) options() map[string]any {
	opts := map[string]any{"default": in.Default}
	switch in.Type {
	case TypeString:
		opts["multiline"] = in.Multiline
	case TypeFloat:
		if in.Min != nil {
			opts["min"] = *in.Min
		}
		if in.Max != nil {
			opts["max"] = *in.Max
		}
		if in.Step != nil {
			opts["step"] = *in.Step
		}
	}
	return opts
}

// Descriptor is the full node declaration.
type Descriptor struct {
	ID          string
	DisplayName string
	Category    string
	Function    string
	Description string
	Required    []Input
	Optional    []Input
	ReturnTypes []Type
	ReturnNames []string
}

func ptr(f float64) *float64 { return &f }

// Describe returns the Prompt Perfect declaration.
func Describe() Descriptor {
	return Descriptor{
		ID:          ID,
		DisplayName: DisplayName,
		Category:    Category,
		Function:    Function,
		Description: Description,
		Required: []Input{
			{Name: "style", Type: TypeString, Default: "photoreal premium product photography"},
			{Name: "subject", Type: TypeString, Default: "main subject", Multiline: true},
			{Name: "environment", Type: TypeString, Default: "environment / set / context", Multiline: true},
			{Name: "lighting", Type: TypeString, Default: "lighting description", Multiline: true},
			{Name: "camera", Type: TypeString, Default: "camera + lens + framing", Multiline: true},
			{Name: "composition", Type: TypeString, Default: "composition + focus priorities", Multiline: true},
			{Name: "constraints", Type: TypeString, Default: "consistency constraints, scale, realism rules", Multiline: true},
			{Name: "negatives_extra", Type: TypeString, Default: "extra negatives (optional)", Multiline: true},
		},
		Optional: []Input{
			{Name: "model_hint", Type: TypeString, Default: ""},
			{Name: "api_key", Type: TypeString, Default: ""},
			{Name: "model", Type: TypeString, Default: promptbuilder.DefaultModel},
			{Name: "temperature", Type: TypeFloat, Default: promptbuilder.DefaultTemperature, Min: ptr(0), Max: ptr(1), Step: ptr(0.05)},
		},
		ReturnTypes: []Type{TypeString, TypeString, TypeString},
		ReturnNames: []string{"prompt", "negative", "debug_json"},
	}
}

// ObjectInfo renders d in the host's object_info JSON shape, keyed by node ID.
// input_order keeps the declaration order that the JSON maps lose.
func (d Descriptor) ObjectInfo() map[string]any {
	required := make(map[string]any, len(d.Required))
	optional := make(map[string]any, len(d.Optional))
	var reqOrder, optOrder []string
	for _, in := range d.Required {
		required[in.Name] = []any{in.Type, in.options()}
		reqOrder = append(reqOrder, in.Name)
	}
	for _, in := range d.Optional {
		optional[in.Name] = []any{in.Type, in.options()}
		optOrder = append(optOrder, in.Name)
	}
	return map[string]any{
		d.ID: map[string]any{
			"name":         d.ID,
			"display_name": d.DisplayName,
			"description":  d.Description,
			"category":     d.Category,
			"function":     d.Function,
			"output_node":  false,
			"input": map[string]any{
				"required": required,
				"optional": optional,
			},
			"input_order": map[string]any{
				"required": reqOrder,
				"optional": optOrder,
			},
			"output":      d.ReturnTypes,
			"output_name": d.ReturnNames,
		},
	}
}

// Lookup returns the declared input by name.
func (d Descriptor) Lookup(name string) (Input, bool) {
	for _, in := range d.Required {
		if in.Name == name {
			return in, true
		}
	}
	for _, in := range d.Optional {
		if in.Name == name {
			return in, true
		}
	}
	return Input{}, false
}

// Builder is the part of promptbuilder.Builder the node needs.
type Builder interface {
	Build(ctx context.Context, fields promptbuilder.FieldSet, cfg promptbuilder.RequestConfig) (promptbuilder.Result, error)
}

// Node runs the declared function.
type Node struct {
	builder  Builder
	desc     Descriptor
	defaults promptbuilder.RequestConfig
	logger   *slog.Logger
}

// New returns a Node calling b. Provider and base URL always come from
// defaults, which the host declaration does not expose. The configured key
// and model fill in when the host leaves api_key blank or omits model.
func New(b Builder, defaults promptbuilder.RequestConfig, logger *slog.Logger) *Node {
	if logger == nil {
		logger = slog.Default()
	}
	return &Node{builder: b, desc: Describe(), defaults: defaults, logger: logger}
}

// Outputs is the node result in declared output order.
type Outputs [3]string

// NewOutputs orders r as prompt, negative, debug_json.
func NewOutputs(r promptbuilder.Result) Outputs {
	return Outputs{r.Prompt, r.Negative, r.Debug}
}

// Run fills missing inputs with their declared defaults, checks value types
// and builds the prompt.
func (n *Node) Run(ctx context.Context, inputs map[string]any) (Outputs, error) {
	vals, err := n.resolve(inputs)
	if err != nil {
		return Outputs{}, err
	}
	s := func(name string) string { return vals[name].(string) }
	fields := promptbuilder.FieldSet{
		Style:          s("style"),
		Subject:        s("subject"),
		Environment:    s("environment"),
		Lighting:       s("lighting"),
		Camera:         s("camera"),
		Composition:    s("composition"),
		Constraints:    s("constraints"),
		ModelHint:      s("model_hint"),
		NegativesExtra: s("negatives_extra"),
	}
	cfg := promptbuilder.RequestConfig{
		APIKey:      s("api_key"),
		Model:       s("model"),
		Temperature: vals["temperature"].(float64),
		Provider:    n.defaults.Provider,
		BaseURL:     n.defaults.BaseURL,
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		cfg.APIKey = n.defaults.APIKey
	}
	if m, ok := inputs["model"]; !ok || m == nil {
		// Blank lets the builder pick the provider's default model.
		cfg.Model = n.defaults.Model
	}
	res, err := n.builder.Build(ctx, fields, cfg)
	if err != nil {
		return Outputs{}, err
	}
	return NewOutputs(res), nil
}

func (n *Node) resolve(inputs map[string]any) (map[string]any, error) {
	for name := range inputs {
		if _, ok := n.desc.Lookup(name); !ok {
			n.logger.Debug("ignoring undeclared input", "node", n.desc.ID, "input", name)
		}
	}
	all := append(append([]Input{}, n.desc.Required...), n.desc.Optional...)
	out := make(map[string]any, len(all))
	for _, in := range all {
		val, ok := inputs[in.Name]
		if !ok || val == nil {
			val = in.Default
		}
		v, err := coerce(in, val)
		if err != nil {
			return nil, err
		}
		out[in.Name] = v
	}
	return out, nil
}

// coerce checks val against the declared type. FLOAT accepts any numeric
// JSON shape and enforces min/max.
func coerce(in Input, val any) (any, error) {
	switch in.Type {
	case TypeString:
		s, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("input %q: expected STRING, got %T", in.Name, val)
		}
		return s, nil
	case TypeFloat:
		var f float64
		switch v := val.(type) {
		case float64:
			f = v
		case float32:
			f = float64(v)
		case int:
			f = float64(v)
		case int64:
			f = float64(v)
		case json.Number:
			parsed, err := v.Float64()
			if err != nil {
				return nil, fmt.Errorf("input %q: %w", in.Name, err)
			}
			f = parsed
		default:
			return nil, fmt.Errorf("input %q: expected FLOAT, got %T", in.Name, val)
		}
		if in.Min != nil && f < *in.Min {
			return nil, fmt.Errorf("input %q: %v is below minimum %v", in.Name, f, *in.Min)
		}
		if in.Max != nil && f > *in.Max {
			return nil, fmt.Errorf("input %q: %v is above maximum %v", in.Name, f, *in.Max)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("input %q: unsupported type %s", in.Name, in.Type)
	}
}
