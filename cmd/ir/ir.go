// Package ir provides the "ir" CLI subcommand: parse, verify and dump
// textual IR modules, the same terse os.ReadFile-then-process shape as
// the cmd/cpu subcommands.
package ir

import (
	"fmt"
	"os"

	"github.com/mamba-lang/mamba/pkg/nucleus/ir"
	"github.com/mamba-lang/mamba/pkg/nucleus/verify"
	"github.com/spf13/cobra"
)

// Cmd is the "ir" command group, mounted under the root command.
var Cmd = &cobra.Command{
	Use:   "ir",
	Short: "Inspect and verify textual SSA IR modules",
}

var verifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Parse a module and run the dominance/phi/use verifier over every function",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := parseFile(args[0])
		if err != nil {
			return err
		}

		var failed bool
		for _, fn := range m.Functions {
			if err := verify.Function(fn); err != nil {
				failed = true
				fmt.Fprintln(cmd.ErrOrStderr(), err)
			}
		}
		if failed {
			return fmt.Errorf("verification failed")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d function(s) verified\n", m.Name, len(m.Functions))
		return nil
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Parse a module and print it back in canonical textual form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := parseFile(args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), m.String())
		return nil
	},
}

var callsCmd = &cobra.Command{
	Use:   "calls <file> <function>",
	Short: "List the distinct callee names a function references",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := parseFile(args[0])
		if err != nil {
			return err
		}
		fn := m.Function(args[1])
		if fn == nil {
			return fmt.Errorf("no function named %q in %s", args[1], args[0])
		}
		for _, callee := range ir.CallTargets(fn) {
			fmt.Fprintln(cmd.OutOrStdout(), callee)
		}
		return nil
	},
}

var blocksCmd = &cobra.Command{
	Use:   "blocks <file> <function> --op <opcode>",
	Short: "List the blocks in a function containing at least one instruction of the given opcode",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := parseFile(args[0])
		if err != nil {
			return err
		}
		fn := m.Function(args[1])
		if fn == nil {
			return fmt.Errorf("no function named %q in %s", args[1], args[0])
		}
		op, ok := ir.OpByName(opFlag)
		if !ok {
			return fmt.Errorf("unknown opcode %q", opFlag)
		}
		for _, blk := range ir.BlocksWithOp(fn, op) {
			fmt.Fprintln(cmd.OutOrStdout(), blk.Name)
		}
		return nil
	},
}

var opFlag string

func init() {
	blocksCmd.Flags().StringVar(&opFlag, "op", "", "opcode mnemonic to filter by (e.g. call, phi, add)")
	_ = blocksCmd.MarkFlagRequired("op")
	Cmd.AddCommand(verifyCmd, dumpCmd, callsCmd, blocksCmd)
}

func parseFile(path string) (*ir.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	m, err := ir.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}
