package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/rkirkendall/prompt-perfect/internal/config"
	"github.com/rkirkendall/prompt-perfect/internal/promptbuilder"
	"github.com/rkirkendall/prompt-perfect/internal/version"
)

var (
	cfgFile     string
	fieldsFile  string
	jsonOut     bool
	versionFlag bool
	fields      promptbuilder.FieldSet

	rootCmd = &cobra.Command{
		Use:   "prompt-perfect",
		Short: "Prompt Perfect: structured scene fields to photoreal image prompts",
		Long: "Prompt Perfect sends structured scene fields (style, subject, environment, lighting, camera, composition, constraints) " +
			"to a chat model under a fixed art-direction brief and prints the resulting positive prompt, negative prompt and debug JSON.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if versionFlag {
				fmt.Fprintln(cmd.OutOrStdout(), version.Version)
				return nil
			}
			notifyUpdate(cmd.Context(), cmd.ErrOrStderr())

			fs, err := collectFields(cmd)
			if err != nil {
				return err
			}
			cfg, err := config.FromViper(viper.GetViper())
			if err != nil {
				return err
			}
			res, err := newBuilder(cfg).Build(cmd.Context(), fs, cfg.RequestConfig())
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res, jsonOut)
		},
		Example: `prompt-perfect \
  --subject "matte black ceramic mug, brand label facing camera" \
  --environment "walnut desk by a window" \
  --lighting "overcast window light from the left" \
  --negatives-extra "steam, coffee spills"`,
	}
)

// fieldFlags pairs each flag with the FieldSet member it fills.
func fieldFlags(f *promptbuilder.FieldSet) []struct {
	name  string
	dst   *string
	usage string
} {
	return []struct {
		name  string
		dst   *string
		usage string
	}{
		{"style", &f.Style, "Overall photographic style"},
		{"subject", &f.Subject, "Main subject or product"},
		{"environment", &f.Environment, "Environment, set or context"},
		{"lighting", &f.Lighting, "Lighting description"},
		{"camera", &f.Camera, "Camera, lens and framing"},
		{"composition", &f.Composition, "Composition and focus priorities"},
		{"constraints", &f.Constraints, "Consistency, scale and realism constraints"},
		{"model-hint", &f.ModelHint, "Target image model hint (qwen / flux / wan / sd)"},
		{"negatives-extra", &f.NegativesExtra, "Extra negatives appended to the model's negative prompt"},
	}
}

// collectFields reads --fields when given, then applies any field flags set
// explicitly on the command line.
func collectFields(cmd *cobra.Command) (promptbuilder.FieldSet, error) {
	var fs promptbuilder.FieldSet
	if fieldsFile != "" {
		loaded, err := readFieldsFile(fieldsFile)
		if err != nil {
			return fs, err
		}
		fs = loaded
	}
	dst := fieldFlags(&fs)
	for i, ff := range fieldFlags(&fields) {
		if cmd.Flags().Changed(ff.name) {
			*dst[i].dst = *ff.dst
		}
	}
	return fs, nil
}

func readFieldsFile(path string) (promptbuilder.FieldSet, error) {
	var fs promptbuilder.FieldSet
	b, err := os.ReadFile(path)
	if err != nil {
		return fs, fmt.Errorf("fields file not found: %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &fs)
	default:
		err = json.Unmarshal(b, &fs)
	}
	if err != nil {
		return fs, fmt.Errorf("parse fields file %s: %w", path, err)
	}
	return fs, nil
}

func newBuilder(cfg config.Config) *promptbuilder.Builder {
	return promptbuilder.New(
		promptbuilder.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		promptbuilder.WithLogger(slog.Default()),
	)
}

func printResult(w io.Writer, res promptbuilder.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	_, err := fmt.Fprintf(w, "Prompt:\n%s\n\nNegative:\n%s\n\nDebug:\n%s\n", res.Prompt, res.Negative, res.Debug)
	return err
}

func setupLogging(w io.Writer) error {
	level := slog.LevelInfo
	if viper.GetBool(config.KeyDebug) {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.prompt-perfect.yaml)")
	pf.String("provider", "openai", "Chat backend: openai, openrouter or gemini")
	pf.String("model", "", "Chat model (default gpt-4.1-mini, or the provider's default)")
	pf.Float64("temperature", promptbuilder.DefaultTemperature, "Sampling temperature in [0.0, 1.0]")
	pf.String("api-key", "", "API key (falls back to OPENAI_API_KEY / OPENROUTER_API_KEY / GEMINI_API_KEY)")
	pf.String("base-url", "", "Override the provider endpoint")
	pf.Duration("timeout", config.DefaultTimeout, "HTTP timeout for the chat call")
	pf.Bool("debug", false, "Log request and reply details to stderr")
	for key, flag := range map[string]string{
		config.KeyProvider:    "provider",
		config.KeyModel:       "model",
		config.KeyTemperature: "temperature",
		config.KeyAPIKey:      "api-key",
		config.KeyBaseURL:     "base-url",
		config.KeyTimeout:     "timeout",
		config.KeyDebug:       "debug",
	} {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}

	for _, ff := range fieldFlags(&fields) {
		rootCmd.Flags().StringVar(ff.dst, ff.name, "", ff.usage)
	}
	rootCmd.Flags().StringVar(&fieldsFile, "fields", "", "JSON or YAML file holding the fields (flags override it)")
	rootCmd.Flags().BoolVar(&jsonOut, "json", false, "Print the result as one JSON object")
	rootCmd.Flags().BoolVarP(&versionFlag, "version", "v", false, "Print version and exit")
}

func initConfig() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}
	if err := config.Init(viper.GetViper(), cfgFile); err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}
}
