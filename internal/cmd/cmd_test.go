package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkirkendall/prompt-perfect/internal/promptbuilder"
)

func TestCollectFields_FileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fields.yaml")
	require.NoError(t, os.WriteFile(path, []byte("subject: mug\nlighting: softbox\nnegatives_extra: logo\n"), 0o644))

	var local promptbuilder.FieldSet
	c := &cobra.Command{Use: "x"}
	for _, ff := range fieldFlags(&local) {
		c.Flags().StringVar(ff.dst, ff.name, "", ff.usage)
	}
	require.NoError(t, c.Flags().Parse([]string{"--lighting", "window light"}))

	saved, savedFile := fields, fieldsFile
	t.Cleanup(func() { fields, fieldsFile = saved, savedFile })
	fields, fieldsFile = local, path

	got, err := collectFields(c)
	require.NoError(t, err)
	assert.Equal(t, "mug", got.Subject)
	assert.Equal(t, "window light", got.Lighting)
	assert.Equal(t, "logo", got.NegativesExtra)
}

func TestReadFieldsFile(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "f.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"camera":"85mm","model_hint":"flux"}`), 0o644))
	got, err := readFieldsFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, promptbuilder.FieldSet{Camera: "85mm", ModelHint: "flux"}, got)

	_, err = readFieldsFile(filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "fields file not found")
}

func TestFormatFromExt(t *testing.T) {
	assert.Equal(t, "yaml", formatFromExt("a.YML"))
	assert.Equal(t, "json", formatFromExt("a.json"))
	assert.Equal(t, "jsonl", formatFromExt("a.jsonl"))
	assert.Equal(t, "jsonl", formatFromExt("-"))
}

func TestUpdateHint(t *testing.T) {
	assert.Contains(t, updateHint("linux"), "install.sh")
	assert.Contains(t, updateHint("windows"), "install.ps1")
	assert.Empty(t, updateHint("plan9"))
}

func TestCheckForUpdate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "prompt-perfect/")
		_, _ = w.Write([]byte(`{"tag_name":" v9.9.9 "}`))
	}))
	defer srv.Close()

	st, err := checkForUpdate(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "v9.9.9", st.Latest)
	assert.True(t, st.Newer())

	var buf bytes.Buffer
	printUpdateStatus(&buf, st, "linux")
	assert.Contains(t, buf.String(), "prompt-perfect v9.9.9 is available")
	assert.Contains(t, buf.String(), "install.sh")

	buf.Reset()
	printUpdateStatus(&buf, updateStatus{Current: "v1.0.0", Latest: "v1.0.0"}, "linux")
	assert.Equal(t, "prompt-perfect v1.0.0 is up to date\n", buf.String())
}

func TestCheckForUpdate_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := checkForUpdate(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "403")
}

func TestPrintResult(t *testing.T) {
	res := promptbuilder.Result{Prompt: "P", Negative: "N", Debug: `{"raw":"P"}`}

	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, res, false))
	assert.Equal(t, "Prompt:\nP\n\nNegative:\nN\n\nDebug:\n{\"raw\":\"P\"}\n", buf.String())

	buf.Reset()
	require.NoError(t, printResult(&buf, res, true))
	var back promptbuilder.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, res, back)
}

func TestRootCommand_EndToEnd(t *testing.T) {
	var sawSystem bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		sawSystem = len(body.Messages) == 2 && body.Messages[0].Role == "system"
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c","object":"chat.completion","created":1,"model":"gpt-4.1-mini","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"{\"prompt\":\"P\",\"negative\":\"N\",\"notes\":\"X\"}"}}]}`))
	}))
	defer srv.Close()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-test")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"--base-url", srv.URL, "--subject", "mug", "--negatives-extra", "blur", "--json"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.True(t, sawSystem)

	var res promptbuilder.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, "P", res.Prompt)
	assert.Equal(t, "N, blur", res.Negative)
	assert.True(t, strings.Contains(res.Debug, `"model_used": "gpt-4.1-mini"`), res.Debug)
}
