package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rkirkendall/prompt-perfect/internal/batch"
	"github.com/rkirkendall/prompt-perfect/internal/config"
)

var (
	batchInput       string
	batchFormat      string
	batchOutput      string
	batchConcurrency int
	batchRPS         float64
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Build prompts for many field sets and write JSONL results",
		Long:  "Read field sets from a JSONL, JSON or YAML file (or stdin with '-'), build each one independently, and write one JSON result per line. A failed record carries an error and does not stop the batch.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if batchInput == "" {
				return fmt.Errorf("--input is required")
			}
			var in io.Reader = cmd.InOrStdin()
			if batchInput != "-" {
				f, err := os.Open(batchInput)
				if err != nil {
					return fmt.Errorf("input not found: %s", batchInput)
				}
				defer f.Close()
				in = f
			}
			format := batchFormat
			if format == "" {
				format = formatFromExt(batchInput)
			}
			records, err := batch.ReadFieldSets(in, format)
			if err != nil {
				return err
			}

			cfg, err := config.FromViper(viper.GetViper())
			if err != nil {
				return err
			}
			runner := batch.NewRunner(newBuilder(cfg), cfg.RequestConfig(), batch.Options{
				Concurrency:       batchConcurrency,
				RequestsPerSecond: batchRPS,
			}, nil)
			outcomes, err := runner.Run(cmd.Context(), records)
			if err != nil {
				return err
			}

			var out io.Writer = cmd.OutOrStdout()
			if batchOutput != "" && batchOutput != "-" {
				if dir := filepath.Dir(batchOutput); dir != "." {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						return fmt.Errorf("failed to create output dir %s: %w", dir, err)
					}
				}
				f, err := os.Create(batchOutput)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return batch.WriteJSONL(out, outcomes)
		},
		Example: `prompt-perfect batch --input shots.jsonl --output results.jsonl --concurrency 4 --rps 2`,
	}
	cmd.Flags().StringVarP(&batchInput, "input", "i", "", "Field sets file, or '-' for stdin (required)")
	cmd.Flags().StringVar(&batchFormat, "format", "", "Input format: jsonl, json or yaml (default from extension)")
	cmd.Flags().StringVarP(&batchOutput, "output", "o", "", "Write JSONL results here instead of stdout")
	cmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", batch.DefaultConcurrency, "Builds in flight at once")
	cmd.Flags().Float64Var(&batchRPS, "rps", 0, "Maximum builds started per second (0 = unlimited)")
	return cmd
}

func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	default:
		return "jsonl"
	}
}

func init() { rootCmd.AddCommand(newBatchCmd()) }
