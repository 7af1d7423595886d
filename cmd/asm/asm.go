// Package asm provides the "asm" CLI subcommand: assemble a .mtext
// program against the built-in reference instruction descriptor table
// into a relocatable object file.
package asm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	nasm "github.com/mamba-lang/mamba/pkg/nucleus/asm"
	"github.com/spf13/cobra"
)

var outPath string

// Cmd is the "asm" command, mounted under the root command.
var Cmd = &cobra.Command{
	Use:   "asm <file.mtext>",
	Short: "Assemble a .mtext program into a relocatable object file",
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

func init() {
	Cmd.Flags().StringVar(&outPath, "out", "", "object file to write (default: <input base name>.o)")
}

func run(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	prog, err := nasm.Parse(string(data))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	name := objName(path)
	f, err := nasm.Assemble(prog, nasm.DefaultTarget(), name)
	if err != nil {
		return fmt.Errorf("assembling %s: %w", path, err)
	}

	out := outPath
	if out == "" {
		out = name + ".o"
	}
	if err := os.WriteFile(out, []byte(f.Serialize()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s: %s\n", path, out, f.String())
	return nil
}

func objName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
