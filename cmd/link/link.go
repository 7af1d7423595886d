// Package link provides the "link" CLI subcommand: merge relocatable
// object files under a memory layout and emit each region's bytes.
package link

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mamba-lang/mamba/pkg/nucleus/layout"
	"github.com/mamba-lang/mamba/pkg/nucleus/linker"
	"github.com/mamba-lang/mamba/pkg/nucleus/obj"
	"github.com/mamba-lang/mamba/pkg/nucleus/reloc"
	"github.com/mamba-lang/mamba/pkg/utils"
	"github.com/spf13/cobra"
)

var (
	layoutPath string
	outDir     string
)

// Cmd is the "link" command, mounted under the root command.
var Cmd = &cobra.Command{
	Use:   "link <object-file>...",
	Short: "Merge object files under a memory layout and write the linked image",
	Args:  cobra.MinimumNArgs(1),
	RunE:  run,
}

func init() {
	Cmd.Flags().StringVar(&layoutPath, "layout", "", "memory layout file (default: implicit single region at address 0)")
	Cmd.Flags().StringVar(&outDir, "out", ".", "directory to write each region's bytes into")
}

func run(cmd *cobra.Command, args []string) error {
	objs := make([]*obj.File, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		f, err := obj.Deserialize(string(data))
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		objs = append(objs, f)
	}

	var lay *layout.Layout
	if layoutPath != "" {
		data, err := os.ReadFile(layoutPath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", layoutPath, err)
		}
		lay, err = layout.Parse(string(data))
		if err != nil {
			return fmt.Errorf("parsing %s: %w", layoutPath, err)
		}
	} else {
		lay = &layout.Layout{}
	}

	img, err := linker.Link(objs, lay, reloc.DefaultRegistry())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", outDir, err)
	}
	for name, bytes := range img.Regions {
		path := filepath.Join(outDir, name+".bin")
		if err := os.WriteFile(path, bytes, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bytes\n", path, len(bytes))
	}

	names := make([]string, 0, len(img.Symbols))
	for name := range img.Symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", name, utils.FormatUintHex(img.Symbols[name], 8))
	}
	return nil
}
