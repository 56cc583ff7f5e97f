// Command debugger loads an OBJ load module and drives it through the
// interactive step/continue/breakpoint REPL (§4.9, §6).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/r2k-toolchain/mips/config"
	"github.com/r2k-toolchain/mips/debugger"
	"github.com/r2k-toolchain/mips/emu"
	"github.com/r2k-toolchain/mips/logging"
	"github.com/r2k-toolchain/mips/obj"
)

func main() {
	var (
		disableDelaySlots bool
		configPath        string
		verbose           int
	)

	cmd := &cobra.Command{
		Use:   "debugger FILE",
		Short: "Interactively step a MIPS load module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			delaySlotsFlagSet := cmd.Flags().Changed("disable-delay-slots")
			return run(args[0], configPath, disableDelaySlots, delaySlotsFlagSet, verbose)
		},
		SilenceUsage: true,
	}
	cmd.Flags().BoolVar(&disableDelaySlots, "disable-delay-slots", false, "disable delay-slot semantics")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "optional JSON configuration file (§4.11)")
	cmd.Flags().CountVarP(&verbose, "verbose", "v", "increase log verbosity")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(path, configPath string, disableDelaySlots, delaySlotsFlagSet bool, verbose int) error {
	log := logging.Default()
	if lvl, ok := logging.LevelFromEnv(os.Getenv("R2K_LOG")); ok {
		log.SetLevel(lvl)
	}
	if verbose > 0 {
		log.SetLevel(logging.LevelFromVerbosity(verbose))
	}

	// The debugger's own baseline is delay slots on (it shows real
	// hardware timing), unlike the assembler/simulator default of off
	// for toolchain-assembled code (§4.8). A config file's
	// enable_delay_slots overrides that baseline; an explicit
	// --disable-delay-slots overrides both.
	cfg := config.Default()
	cfg.EnableDelaySlots = true
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("debugger: %w", err)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("debugger: %w", err)
	}
	enableDelaySlots := cfg.EnableDelaySlots
	if delaySlotsFlagSet {
		enableDelaySlots = !disableDelaySlots
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("debugger: %w", err)
	}
	mod, err := obj.Read(data)
	if err != nil {
		return fmt.Errorf("debugger: %s: %w", path, err)
	}
	if !mod.IsLoadModule() {
		return fmt.Errorf("debugger: %s is not a load module", path)
	}

	opts := []emu.Option{
		emu.WithDelaySlots(enableDelaySlots),
		emu.WithPageSize(cfg.MemoryPageSize),
		emu.WithStdinBufferSize(cfg.StdinBufferSize),
		emu.WithLogger(log),
	}
	if !cfg.StdoutUnbuffered {
		opts = append(opts, emu.WithBufferedStdout())
	}
	e := emu.NewEmulator(mod, opts...)
	d := debugger.New(e, os.Stdin, os.Stderr)
	err = d.Run()
	e.Flush()
	return err
}
