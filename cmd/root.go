package cmd

import (
	"log/slog"
	"os"

	"github.com/mamba-lang/mamba/cmd/asm"
	"github.com/mamba-lang/mamba/cmd/ir"
	"github.com/mamba-lang/mamba/cmd/layout"
	"github.com/mamba-lang/mamba/cmd/link"
	"github.com/mamba-lang/mamba/pkg/nucleus/diag"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	logFile string
	verbose bool

	// Log is the nucleus-wide structured logger, built in initLogging
	// once -log-file/-verbose have been parsed.
	Log *slog.Logger
)

// RootCmd is the base command when the binary is called with no
// subcommand.
var RootCmd = &cobra.Command{
	Use:   "mamba",
	Short: "The nucleus toolchain: IR, linking and memory layout",
	Long: `mamba is a compiler toolchain nucleus: a typed SSA IR and verifier,
an instruction-encoding framework, a relocation engine, an object file
model, a declarative memory layout grammar, and a linker.

This CLI drives that nucleus directly: parse/verify/dump IR text,
assemble .mtext programs into object files, link object files under a
layout, and parse/print layout files.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. It is called by main.main() exactly once.
func Execute() {
	err := RootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.mamba.yaml)")
	RootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON diagnostics to this file")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug-level diagnostics")

	RootCmd.AddCommand(ir.Cmd, asm.Cmd, link.Cmd, layout.Cmd)
	cobra.OnInitialize(initConfig, initLogging)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".mamba")
	}

	viper.AutomaticEnv()
	viper.SetDefault("layout.searchPaths", []string{"."})
	viper.SetDefault("isa.target", "")

	_ = viper.ReadInConfig()
}

// initLogging builds the nucleus-wide logger per the -verbose/-log-file flags.
func initLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	cfg := diag.Config{Level: level}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		cobra.CheckErr(err)
		cfg.JSONFile = f
	}

	Log = diag.New(cfg)
}
