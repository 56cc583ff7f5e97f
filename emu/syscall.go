package emu

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Register indices used by the syscall ABI, named per the MIPS o32 ABI.
const (
	regV0 = 2
	regA0 = 4
	regA1 = 5
)

// Syscall service numbers selected via $v0 (§4.8).
const (
	SyscallPrintInt = 1
	SyscallPrintStr = 4
	SyscallReadInt  = 5
	SyscallReadStr  = 8
	SyscallExit     = 17
)

// doSyscall dispatches on $v0 against e's stdin/stdout. An unrecognised
// code is logged as a warning and does not stop execution.
func (e *Emulator) doSyscall() error {
	code := e.Regs.ReadReg(regV0)
	switch code {
	case SyscallPrintInt:
		v := int32(e.Regs.ReadReg(regA0))
		fmt.Fprintf(e.Stdout, "%d", v)
	case SyscallPrintStr:
		addr := e.Regs.ReadReg(regA0)
		io.WriteString(e.Stdout, e.Memory.ReadString(addr))
	case SyscallReadInt:
		line, err := e.readLine()
		if err != nil && line == "" {
			return err
		}
		n, err := strconv.ParseInt(strings.TrimSpace(line), 10, 32)
		if err != nil {
			return fmt.Errorf("emu: READ_INT: %w", err)
		}
		e.Regs.WriteReg(regV0, uint32(int32(n)))
	case SyscallReadStr:
		addr := e.Regs.ReadReg(regA0)
		max := e.Regs.ReadReg(regA1)
		e.readStrInto(addr, max)
	case SyscallExit:
		e.ReturnCode = int32(e.Regs.ReadReg(regA0))
		e.Running = false
	default:
		e.Log.Warn("unhandled syscall code %d", code)
	}
	return nil
}

// readLine reads one line from stdin, trimming the trailing newline. It
// lazily wraps Stdin in a *bufio.Reader on first use.
func (e *Emulator) readLine() (string, error) {
	raw, err := e.readRawLine()
	return strings.TrimRight(raw, "\r\n"), err
}

// readRawLine reads one line from stdin, keeping any trailing '\n'. It
// lazily wraps Stdin in a *bufio.Reader sized per StdinBufferSize (§4.11)
// on first use.
func (e *Emulator) readRawLine() (string, error) {
	if e.stdinReader == nil {
		size := e.StdinBufferSize
		if size <= 0 {
			size = defaultStdinBufferSize
		}
		e.stdinReader = bufio.NewReaderSize(e.Stdin, size)
	}
	return e.stdinReader.ReadString('\n')
}

// readStrInto implements READ_STR: up to max-1 bytes or until '\n',
// written to [addr, addr+length) followed by '\n' if one was consumed and
// a terminating NUL.
func (e *Emulator) readStrInto(addr, max uint32) {
	if max == 0 {
		return
	}
	raw, _ := e.readRawLine()
	sawNewline := strings.HasSuffix(raw, "\n")
	line := strings.TrimRight(raw, "\r\n")

	limit := int(max) - 1
	if len(line) > limit {
		line = line[:limit]
		sawNewline = false
	}

	i := uint32(0)
	for ; i < uint32(len(line)); i++ {
		e.Memory.WriteByte(addr+i, line[i])
	}
	if sawNewline && i < max-1 {
		e.Memory.WriteByte(addr+i, '\n')
		i++
	}
	e.Memory.WriteByte(addr+i, 0)
}
