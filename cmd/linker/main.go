// Command linker merges one or more OBJ modules into a load module or,
// failing full resolution, an object module carrying the remaining
// unresolved references (§6).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/r2k-toolchain/mips/linker"
	"github.com/r2k-toolchain/mips/logging"
	"github.com/r2k-toolchain/mips/obj"
)

func main() {
	var (
		output  string
		verbose int
	)

	cmd := &cobra.Command{
		Use:   "linker INPUT...",
		Short: "Link OBJ modules into a load module",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args, output, verbose)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVarP(&output, "output", "o", "a.out.obj", "output OBJ file path")
	cmd.Flags().CountVarP(&verbose, "verbose", "v", "increase log verbosity")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(inputs []string, output string, verbose int) error {
	log := logging.Default()
	if lvl, ok := logging.LevelFromEnv(os.Getenv("R2K_LOG")); ok {
		log.SetLevel(lvl)
	}
	if verbose > 0 {
		log.SetLevel(logging.LevelFromVerbosity(verbose))
	}

	mods := make([]*obj.Module, 0, len(inputs))
	for _, path := range inputs {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("linker: %w", err)
		}
		mod, err := obj.Read(data)
		if err != nil {
			return fmt.Errorf("linker: %s: %w", path, err)
		}
		mods = append(mods, mod)
	}

	out, err := linker.Link(mods, log)
	if err != nil {
		return fmt.Errorf("linker: %w", err)
	}

	mode := os.FileMode(0644)
	if out.IsLoadModule() {
		mode = 0755
	}
	if err := os.WriteFile(output, out.Write(), mode); err != nil {
		return fmt.Errorf("linker: write %s: %w", output, err)
	}
	return nil
}
