package promptbuilder

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FieldSet holds the structured scene description sent to the model. Field
// order is the order of the serialized user payload.
type FieldSet struct {
	Style          string `json:"style" yaml:"style"`
	Subject        string `json:"subject" yaml:"subject"`
	Environment    string `json:"environment" yaml:"environment"`
	Lighting       string `json:"lighting" yaml:"lighting"`
	Camera         string `json:"camera" yaml:"camera"`
	Composition    string `json:"composition" yaml:"composition"`
	Constraints    string `json:"constraints" yaml:"constraints"`
	ModelHint      string `json:"model_hint" yaml:"model_hint"`
	NegativesExtra string `json:"negatives_extra" yaml:"negatives_extra"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (f FieldSet) Trimmed() FieldSet {
	return FieldSet{
		Style:          strings.TrimSpace(f.Style),
		Subject:        strings.TrimSpace(f.Subject),
		Environment:    strings.TrimSpace(f.Environment),
		Lighting:       strings.TrimSpace(f.Lighting),
		Camera:         strings.TrimSpace(f.Camera),
		Composition:    strings.TrimSpace(f.Composition),
		Constraints:    strings.TrimSpace(f.Constraints),
		ModelHint:      strings.TrimSpace(f.ModelHint),
		NegativesExtra: strings.TrimSpace(f.NegativesExtra),
	}
}

// UserPayload renders the trimmed fields as the indented JSON user message.
func (f FieldSet) UserPayload() (string, error) {
	return encodeJSON(f.Trimmed(), true)
}

// encodeJSON marshals v without HTML escaping so prompt text with <, > or &
// reaches the model and the debug output as typed.
func encodeJSON(v any, indent bool) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
