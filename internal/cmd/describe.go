package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rkirkendall/prompt-perfect/internal/node"
)

var describeFormat string

func newDescribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the node declaration as the graph editor host reads it",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := node.Describe().ObjectInfo()
			switch describeFormat {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(info)
			default:
				return fmt.Errorf("--format must be json or yaml, got %q", describeFormat)
			}
		},
		Example: `prompt-perfect describe --format yaml`,
	}
	cmd.Flags().StringVar(&describeFormat, "format", "json", "Output format: json or yaml")
	return cmd
}

func init() { rootCmd.AddCommand(newDescribeCmd()) }
