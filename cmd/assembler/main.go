// Command assembler turns a MIPS assembly source file into an OBJ
// container (§6).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/r2k-toolchain/mips/asm"
	"github.com/r2k-toolchain/mips/logging"
	"github.com/r2k-toolchain/mips/parser"
)

func main() {
	var (
		output  string
		verbose int
	)

	cmd := &cobra.Command{
		Use:   "assembler INPUT",
		Short: "Assemble a MIPS source file into an OBJ module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], output, verbose)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVarP(&output, "output", "o", "out.obj", "output OBJ file path")
	cmd.Flags().CountVarP(&verbose, "verbose", "v", "increase log verbosity")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(input, output string, verbose int) error {
	log := logging.Default()
	if lvl, ok := logging.LevelFromEnv(os.Getenv("R2K_LOG")); ok {
		log.SetLevel(lvl)
	}
	if verbose > 0 {
		log.SetLevel(logging.LevelFromVerbosity(verbose))
	}

	src, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("assembler: %w", err)
	}

	prog, err := parser.Parse(string(src), input)
	if err != nil {
		return fmt.Errorf("assembler: parse: %w", err)
	}

	ir, err := asm.Assemble(prog, log)
	if err != nil {
		return fmt.Errorf("assembler: assemble: %w", err)
	}

	mod, err := asm.Lower(ir)
	if err != nil {
		return fmt.Errorf("assembler: lower: %w", err)
	}

	if err := os.WriteFile(output, mod.Write(), 0644); err != nil {
		return fmt.Errorf("assembler: write %s: %w", output, err)
	}
	return nil
}
