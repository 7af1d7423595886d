// Package layout provides the "layout" CLI subcommand: parse and print
// declarative MEMORY layout files.
package layout

import (
	"fmt"
	"os"

	"github.com/mamba-lang/mamba/pkg/nucleus/layout"
	"github.com/spf13/cobra"
)

// Cmd is the "layout" command group, mounted under the root command.
var Cmd = &cobra.Command{
	Use:   "layout",
	Short: "Parse and inspect declarative memory layout files",
}

var printCmd = &cobra.Command{
	Use:   "print <file>",
	Short: "Parse a layout file and print each region's directives",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lay, err := parseFile(args[0])
		if err != nil {
			return err
		}
		for _, region := range lay.Regions {
			fmt.Fprintln(cmd.OutOrStdout(), region.String())
		}
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Parse a layout file and report a non-zero exit if it is malformed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lay, err := parseFile(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d region(s) OK\n", args[0], len(lay.Regions))
		return nil
	},
}

func init() {
	Cmd.AddCommand(printCmd, checkCmd)
}

func parseFile(path string) (*layout.Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	lay, err := layout.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return lay, nil
}
