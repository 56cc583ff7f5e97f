package emu

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/r2k-toolchain/mips/insts"
	"github.com/r2k-toolchain/mips/logging"
	"github.com/r2k-toolchain/mips/obj"
)

// Register indices beyond the syscall ABI ones, named per the o32 ABI.
const (
	regRA = 31
	regSP = 29
)

// Emulator is a MIPS R2000 process: register file, memory, and the
// program-counter/delay-slot state driving fetch-decode-execute (§4.8).
type Emulator struct {
	Regs   *RegFile
	Memory *Memory

	PC     uint32
	NextPC uint32

	Running    bool
	ReturnCode int32

	EnableDelaySlots bool
	MaxInstructions  uint64
	PageSize         uint32
	StdinBufferSize  int

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Log    *logging.Logger

	alu    *ALU
	branch *BranchUnit

	stdinReader  *bufio.Reader
	stdoutWriter *bufio.Writer
	executed     uint64
}

// defaultStdinBufferSize is the READ_INT/READ_STR buffer size absent a
// config override (§4.11).
const defaultStdinBufferSize = 4096

// Option configures an Emulator at construction.
type Option func(*Emulator)

// WithStdin overrides the reader READ_INT/READ_STR consume.
func WithStdin(r io.Reader) Option { return func(e *Emulator) { e.Stdin = r } }

// WithStdout overrides the writer PRINT_INT/PRINT_STR write to.
func WithStdout(w io.Writer) Option { return func(e *Emulator) { e.Stdout = w } }

// WithStderr overrides the writer diagnostics are written to.
func WithStderr(w io.Writer) Option { return func(e *Emulator) { e.Stderr = w } }

// WithDelaySlots turns on delay-slot semantics (off by default, matching
// toolchain-assembled code).
func WithDelaySlots(enabled bool) Option {
	return func(e *Emulator) { e.EnableDelaySlots = enabled }
}

// WithMaxInstructions bounds Run to n executed steps, 0 for unbounded.
func WithMaxInstructions(n uint64) Option {
	return func(e *Emulator) { e.MaxInstructions = n }
}

// WithLogger overrides the diagnostic logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Emulator) { e.Log = logging.OrDefault(l) }
}

// WithPageSize overrides the memory page granularity (§4.11's
// memory_page_size), 0 meaning DefaultPageSize.
func WithPageSize(n uint32) Option {
	return func(e *Emulator) { e.PageSize = n }
}

// WithStdinBufferSize overrides READ_INT/READ_STR's stdin buffer size
// (§4.11), non-positive meaning defaultStdinBufferSize.
func WithStdinBufferSize(n int) Option {
	return func(e *Emulator) { e.StdinBufferSize = n }
}

// WithBufferedStdout wraps the current Stdout in a buffered writer,
// flushed whenever the program halts (§4.11's stdout_unbuffered=false,
// the default). Apply after WithStdout, if both are used, so the buffer
// wraps the intended writer.
func WithBufferedStdout() Option {
	return func(e *Emulator) {
		e.stdoutWriter = bufio.NewWriter(e.Stdout)
		e.Stdout = e.stdoutWriter
	}
}

// NewEmulator constructs a process image from a linked load module:
// sections placed at their fixed base addresses, $sp initialised to
// STACK_BOTTOM, and pc/nextPC set from the module's entry point.
func NewEmulator(mod *obj.Module, opts ...Option) *Emulator {
	e := &Emulator{
		Regs:   &RegFile{},
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Log:    logging.Default(),
	}
	e.alu = &ALU{Regs: e.Regs}
	e.branch = &BranchUnit{Regs: e.Regs}
	for _, opt := range opts {
		opt(e)
	}
	e.Memory = NewMemoryWithPageSize(e.PageSize)
	e.loadModule(mod)
	return e
}

func (e *Emulator) loadModule(mod *obj.Module) {
	e.Memory.LoadBytes(obj.TextOffset, mod.Text)
	e.Memory.LoadBytes(mod.SectionBase(obj.RData), mod.RData)
	e.Memory.LoadBytes(mod.SectionBase(obj.Data), mod.Data)
	e.Memory.LoadBytes(mod.SectionBase(obj.SData), mod.SData)

	e.Regs.WriteReg(regSP, obj.StackBottom)
	e.PC = mod.Entry
	e.NextPC = mod.Entry + 4
	e.Running = true
}

// Step fetches, decodes and executes one instruction, advancing the
// program counter per the configured delay-slot semantics.
func (e *Emulator) Step() error {
	if !e.Running {
		return nil
	}
	word := e.Memory.ReadWord(e.PC)
	instr, err := insts.Decode(word)
	if err != nil {
		e.Running = false
		err = fmt.Errorf("emu: decode at %#x: %w", e.PC, err)
		e.Log.Error("%v", err)
		e.Flush()
		return err
	}

	taken, err := e.safeExecute(instr)
	if err != nil {
		e.Running = false
		e.Log.Error("%v", err)
		e.Flush()
		return err
	}
	if !taken {
		e.PC = e.NextPC
		e.NextPC += 4
	}
	e.executed++
	if !e.Running {
		e.Flush()
	}
	return nil
}

// Flush flushes any buffered stdout accumulated via WithBufferedStdout.
// A no-op when stdout is unbuffered.
func (e *Emulator) Flush() error {
	if e.stdoutWriter == nil {
		return nil
	}
	return e.stdoutWriter.Flush()
}

// Run steps until the program halts, a step errors, or MaxInstructions
// is reached (if nonzero).
func (e *Emulator) Run() error {
	for e.Running {
		if e.MaxInstructions != 0 && e.executed >= e.MaxInstructions {
			return fmt.Errorf("emu: exceeded max instruction count %d", e.MaxInstructions)
		}
		if err := e.Step(); err != nil {
			return err
		}
	}
	return nil
}

// sext16 sign-extends a 16-bit immediate to a 32-bit address offset.
func sext16(imm int16) uint32 { return uint32(int32(imm)) }

// safeExecute runs execute, recovering a signed-overflow implementation
// abort (§4.8) into a normal returned error rather than crashing the
// process.
func (e *Emulator) safeExecute(instr insts.Instruction) (taken bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			if asErr, ok := r.(error); ok {
				err = asErr
			} else {
				err = fmt.Errorf("emu: trap: %v", r)
			}
		}
	}()
	return e.execute(instr)
}

// execute dispatches instr, returning whether it was a taken jump/branch
// (in which case Step must not apply the generic pc/nextPC advance).
func (e *Emulator) execute(instr insts.Instruction) (bool, error) {
	switch instr.Kind {
	case insts.KindR:
		return e.executeR(instr)
	case insts.KindI:
		return e.executeI(instr)
	case insts.KindJ:
		return e.executeJ(instr)
	default:
		return false, nil
	}
}

func (e *Emulator) executeR(in insts.Instruction) (bool, error) {
	switch in.Op {
	case insts.OpSLL:
		e.alu.Sll(in.Rd, in.Rt, in.Shift)
	case insts.OpSRL:
		e.alu.Srl(in.Rd, in.Rt, in.Shift)
	case insts.OpSRA:
		e.alu.Sra(in.Rd, in.Rt, in.Shift)
	case insts.OpSLLV:
		e.alu.Sllv(in.Rd, in.Rt, in.Rs)
	case insts.OpSRLV:
		e.alu.Srlv(in.Rd, in.Rt, in.Rs)
	case insts.OpSRAV:
		e.alu.Srav(in.Rd, in.Rt, in.Rs)
	case insts.OpJR:
		target := e.Regs.ReadReg(in.Rs)
		e.branch.Take(&e.PC, &e.NextPC, target, e.EnableDelaySlots)
		return true, nil
	case insts.OpJALR:
		rd := in.Rd
		if rd == 0 {
			rd = regRA
		}
		target := e.Regs.ReadReg(in.Rs)
		e.branch.Link(rd, e.PC, e.EnableDelaySlots)
		e.branch.Take(&e.PC, &e.NextPC, target, e.EnableDelaySlots)
		return true, nil
	case insts.OpSYSCALL:
		if err := e.doSyscall(); err != nil {
			return false, err
		}
	case insts.OpBREAK:
		e.Running = false
	case insts.OpMFHI:
		e.alu.Mfhi(in.Rd)
	case insts.OpMTHI:
		e.alu.Mthi(in.Rs)
	case insts.OpMFLO:
		e.alu.Mflo(in.Rd)
	case insts.OpMTLO:
		e.alu.Mtlo(in.Rs)
	case insts.OpMULT:
		e.alu.Mult(in.Rs, in.Rt)
	case insts.OpMULTU:
		e.alu.MultU(in.Rs, in.Rt)
	case insts.OpDIV:
		if err := e.alu.Div(in.Rs, in.Rt); err != nil {
			return false, err
		}
	case insts.OpDIVU:
		if err := e.alu.DivU(in.Rs, in.Rt); err != nil {
			return false, err
		}
	case insts.OpADD:
		e.alu.Add(in.Rd, in.Rs, in.Rt)
	case insts.OpADDU:
		e.alu.AddU(in.Rd, in.Rs, in.Rt)
	case insts.OpSUB:
		e.alu.Sub(in.Rd, in.Rs, in.Rt)
	case insts.OpSUBU:
		e.alu.SubU(in.Rd, in.Rs, in.Rt)
	case insts.OpAND:
		e.alu.And(in.Rd, in.Rs, in.Rt)
	case insts.OpOR:
		e.alu.Or(in.Rd, in.Rs, in.Rt)
	case insts.OpXOR:
		e.alu.Xor(in.Rd, in.Rs, in.Rt)
	case insts.OpNOR:
		e.alu.Nor(in.Rd, in.Rs, in.Rt)
	case insts.OpSLT:
		e.alu.Slt(in.Rd, in.Rs, in.Rt)
	case insts.OpSLTU:
		e.alu.SltU(in.Rd, in.Rs, in.Rt)
	default:
		return false, fmt.Errorf("emu: unhandled R-type op %s", in.Op)
	}
	return false, nil
}

func (e *Emulator) executeI(in insts.Instruction) (bool, error) {
	switch in.Op {
	case insts.OpADDI:
		e.alu.AddImm(in.Rt, in.Rs, in.Imm16)
	case insts.OpADDIU:
		e.alu.AddImmU(in.Rt, in.Rs, in.Imm16)
	case insts.OpANDI:
		e.alu.AndImm(in.Rt, in.Rs, uint16(in.Imm16))
	case insts.OpORI:
		e.alu.OrImm(in.Rt, in.Rs, uint16(in.Imm16))
	case insts.OpXORI:
		e.alu.XorImm(in.Rt, in.Rs, uint16(in.Imm16))
	case insts.OpSLTI:
		e.alu.SltImm(in.Rt, in.Rs, in.Imm16)
	case insts.OpSLTIU:
		e.alu.SltImmU(in.Rt, in.Rs, in.Imm16)
	case insts.OpLUI:
		e.alu.Lui(in.Rt, uint16(in.Imm16))

	case insts.OpBEQ:
		return e.takeIf(e.Regs.ReadReg(in.Rs) == e.Regs.ReadReg(in.Rt), in.Imm16), nil
	case insts.OpBNE:
		return e.takeIf(e.Regs.ReadReg(in.Rs) != e.Regs.ReadReg(in.Rt), in.Imm16), nil
	case insts.OpBGTZ:
		return e.takeIf(int32(e.Regs.ReadReg(in.Rs)) > 0, in.Imm16), nil
	case insts.OpBLEZ:
		return e.takeIf(int32(e.Regs.ReadReg(in.Rs)) <= 0, in.Imm16), nil
	case insts.OpBLTZ:
		return e.takeIf(int32(e.Regs.ReadReg(in.Rs)) < 0, in.Imm16), nil
	case insts.OpBGEZ:
		return e.takeIf(int32(e.Regs.ReadReg(in.Rs)) >= 0, in.Imm16), nil
	case insts.OpBLTZAL:
		e.branch.Link(regRA, e.PC, e.EnableDelaySlots)
		return e.takeIf(int32(e.Regs.ReadReg(in.Rs)) < 0, in.Imm16), nil
	case insts.OpBGEZAL:
		e.branch.Link(regRA, e.PC, e.EnableDelaySlots)
		return e.takeIf(int32(e.Regs.ReadReg(in.Rs)) >= 0, in.Imm16), nil

	case insts.OpLB:
		e.Regs.WriteReg(in.Rt, uint32(int32(int8(e.Memory.ReadByte(e.Regs.ReadReg(in.Rs)+sext16(in.Imm16))))))
	case insts.OpLBU:
		e.Regs.WriteReg(in.Rt, uint32(e.Memory.ReadByte(e.Regs.ReadReg(in.Rs)+sext16(in.Imm16))))
	case insts.OpLH:
		e.Regs.WriteReg(in.Rt, uint32(int32(int16(e.Memory.ReadHalf(e.Regs.ReadReg(in.Rs)+sext16(in.Imm16))))))
	case insts.OpLHU:
		e.Regs.WriteReg(in.Rt, uint32(e.Memory.ReadHalf(e.Regs.ReadReg(in.Rs)+sext16(in.Imm16))))
	case insts.OpLW, insts.OpLWL, insts.OpLWR:
		e.Regs.WriteReg(in.Rt, e.Memory.ReadWord(e.Regs.ReadReg(in.Rs)+sext16(in.Imm16)))
	case insts.OpSB:
		e.Memory.WriteByte(e.Regs.ReadReg(in.Rs)+sext16(in.Imm16), uint8(e.Regs.ReadReg(in.Rt)))
	case insts.OpSH:
		e.Memory.WriteHalf(e.Regs.ReadReg(in.Rs)+sext16(in.Imm16), uint16(e.Regs.ReadReg(in.Rt)))
	case insts.OpSW, insts.OpSWL, insts.OpSWR:
		e.Memory.WriteWord(e.Regs.ReadReg(in.Rs)+sext16(in.Imm16), e.Regs.ReadReg(in.Rt))

	default:
		return false, fmt.Errorf("emu: unhandled I-type op %s", in.Op)
	}
	return false, nil
}

// takeIf evaluates a conditional branch: if cond holds, applies the
// taken-jump PC update and reports taken=true; otherwise leaves pc/nextPC
// for Step's generic advance.
func (e *Emulator) takeIf(cond bool, offset int16) bool {
	if !cond {
		return false
	}
	target := BranchOffsetTarget(e.PC, offset)
	e.branch.Take(&e.PC, &e.NextPC, target, e.EnableDelaySlots)
	return true
}

func (e *Emulator) executeJ(in insts.Instruction) (bool, error) {
	target := insts.JumpTarget(e.PC, in.Target)
	if in.Op == insts.OpJAL {
		e.branch.Link(regRA, e.PC, e.EnableDelaySlots)
	}
	e.branch.Take(&e.PC, &e.NextPC, target, e.EnableDelaySlots)
	return true, nil
}
