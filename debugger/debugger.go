// Package debugger is the interactive REPL driving an emu.Emulator one
// instruction (or breakpoint span) at a time (§4.9).
package debugger

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/r2k-toolchain/mips/emu"
	"github.com/r2k-toolchain/mips/parser"
)

// Prompt is written to Out before each command is read.
const Prompt = "mips-debugger> "

// Debugger wraps an Emulator with breakpoints and a trace toggle, reading
// commands from In and writing prompts/responses to Out. Program stdout
// and stderr pass straight through the Emulator, untouched by the REPL.
type Debugger struct {
	Emu         *emu.Emulator
	In          *bufio.Scanner
	Out         io.Writer
	Breakpoints map[uint32]bool
	Trace       bool
}

// New returns a Debugger reading commands from in and writing REPL
// output to out.
func New(e *emu.Emulator, in io.Reader, out io.Writer) *Debugger {
	return &Debugger{
		Emu:         e,
		In:          bufio.NewScanner(in),
		Out:         out,
		Breakpoints: make(map[uint32]bool),
	}
}

// Run drives the REPL until the program halts, an exit/quit command is
// read, or the input stream ends.
func (d *Debugger) Run() error {
	for d.Emu.Running {
		fmt.Fprint(d.Out, Prompt)
		if !d.In.Scan() {
			return d.In.Err()
		}
		quit, err := d.dispatch(d.In.Text())
		if err != nil {
			fmt.Fprintf(d.Out, "error: %v\n", err)
			continue
		}
		if quit {
			return nil
		}
	}
	return nil
}

func (d *Debugger) dispatch(line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch fields[0] {
	case "step", "s":
		return false, d.step()
	case "continue", "c":
		return false, d.continueRun()
	case "breakpoint", "b":
		if len(fields) != 2 {
			return false, fmt.Errorf("usage: breakpoint ADDR")
		}
		return false, d.setBreakpoint(fields[1])
	case "trace":
		if len(fields) != 2 {
			return false, fmt.Errorf("usage: trace on|off")
		}
		return false, d.setTrace(fields[1])
	case "print", "p":
		d.printRegisters()
		return false, nil
	case "exit", "quit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q", fields[0])
	}
}

func (d *Debugger) step() error {
	if !d.Emu.Running {
		return nil
	}
	pc := d.Emu.PC
	if err := d.Emu.Step(); err != nil {
		return err
	}
	if d.Trace {
		fmt.Fprintf(d.Out, "stepped %#08x -> %#08x\n", pc, d.Emu.PC)
	}
	return nil
}

// continueRun steps until running is cleared or the next fetch address
// is a breakpoint.
func (d *Debugger) continueRun() error {
	for d.Emu.Running {
		if err := d.step(); err != nil {
			return err
		}
		if d.Breakpoints[d.Emu.PC] {
			fmt.Fprintf(d.Out, "breakpoint at %#08x\n", d.Emu.PC)
			return nil
		}
	}
	return nil
}

func (d *Debugger) setBreakpoint(arg string) error {
	addr, err := parseHexAddr(arg)
	if err != nil {
		return err
	}
	d.Breakpoints[addr] = true
	fmt.Fprintf(d.Out, "breakpoint set at %#08x\n", addr)
	return nil
}

func parseHexAddr(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return uint32(v), nil
}

func (d *Debugger) setTrace(arg string) error {
	switch arg {
	case "on":
		d.Trace = true
	case "off":
		d.Trace = false
	default:
		return fmt.Errorf("usage: trace on|off")
	}
	return nil
}

func (d *Debugger) printRegisters() {
	fmt.Fprintf(d.Out, "pc=%#08x next_pc=%#08x hi=%#08x lo=%#08x running=%v return_code=%d\n",
		d.Emu.PC, d.Emu.NextPC, d.Emu.Regs.HI, d.Emu.Regs.LO, d.Emu.Running, d.Emu.ReturnCode)
	for i := 0; i < 32; i++ {
		fmt.Fprintf(d.Out, "$%-4s = %#08x", parser.RegisterName(uint8(i)), d.Emu.Regs.ReadReg(uint8(i)))
		if i%4 == 3 {
			fmt.Fprintln(d.Out)
		} else {
			fmt.Fprint(d.Out, "  ")
		}
	}
	if 32%4 != 0 {
		fmt.Fprintln(d.Out)
	}
}
