package promptbuilder

import (
	"bytes"
	"encoding/json"
	"strings"
)

// reply is the decoded model answer. Notes keeps the raw JSON value.
type reply struct {
	Prompt   string
	Negative string
	Notes    json.RawMessage
}

type debugPayload struct {
	Fields    FieldSet        `json:"fields"`
	Notes     json.RawMessage `json:"notes"`
	ModelUsed string          `json:"model_used"`
}

var emptyNotes = json.RawMessage(`""`)

// parseReply decodes content as a JSON object. ok is false for anything
// else, including valid JSON that is not an object.
func parseReply(content string) (reply, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &obj); err != nil || obj == nil {
		return reply{}, false
	}
	notes, ok := obj["notes"]
	if !ok {
		notes = emptyNotes
	}
	return reply{
		Prompt:   textValue(obj["prompt"]),
		Negative: textValue(obj["negative"]),
		Notes:    notes,
	}, true
}

// textValue renders a JSON value as trimmed text: strings unquoted, null and
// missing as "", anything else in compact JSON form.
func textValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return buf.String()
}
