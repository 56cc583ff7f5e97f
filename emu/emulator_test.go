package emu_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/r2k-toolchain/mips/emu"
	"github.com/r2k-toolchain/mips/insts"
	"github.com/r2k-toolchain/mips/obj"
)

func be32(w uint32) []byte {
	return []byte{byte(w >> 24), byte(w >> 16), byte(w >> 8), byte(w)}
}

func mustEncode(in insts.Instruction) uint32 {
	w, err := insts.Encode(in)
	Expect(err).NotTo(HaveOccurred())
	return w
}

// program builds a load module whose text is the concatenation of the
// encoded instructions, entry at obj.TextOffset.
func program(instrs ...insts.Instruction) *obj.Module {
	mod := obj.NewModule()
	var buf bytes.Buffer
	for _, in := range instrs {
		buf.Write(be32(mustEncode(in)))
	}
	mod.Text = buf.Bytes()
	mod.Entry = obj.TextOffset
	return mod
}

var _ = Describe("Emulator", func() {
	Describe("NewEmulator", func() {
		It("initialises the stack pointer and entry point", func() {
			mod := program(insts.RType(insts.OpADD, 0, 0, 8, 0))
			e := emu.NewEmulator(mod)

			Expect(e.Regs.ReadReg(29)).To(Equal(obj.StackBottom))
			Expect(e.PC).To(Equal(obj.TextOffset))
			Expect(e.Running).To(BeTrue())
		})
	})

	Describe("arithmetic", func() {
		It("adds two registers", func() {
			mod := program(insts.RType(insts.OpADD, 8, 9, 10, 0))
			e := emu.NewEmulator(mod)
			e.Regs.WriteReg(8, 2)
			e.Regs.WriteReg(9, 3)

			Expect(e.Step()).To(Succeed())
			Expect(e.Regs.ReadReg(10)).To(Equal(uint32(5)))
		})

		It("traps on signed add overflow", func() {
			mod := program(insts.RType(insts.OpADD, 8, 9, 10, 0))
			e := emu.NewEmulator(mod)
			e.Regs.WriteReg(8, 0x7FFFFFFF)
			e.Regs.WriteReg(9, 1)

			err := e.Step()
			Expect(err).To(HaveOccurred())
			Expect(err).To(MatchError(emu.ErrArithmeticOverflow))
		})

		It("wraps addu on overflow instead of trapping", func() {
			mod := program(insts.RType(insts.OpADDU, 8, 9, 10, 0))
			e := emu.NewEmulator(mod)
			e.Regs.WriteReg(8, 0xFFFFFFFF)
			e.Regs.WriteReg(9, 1)

			Expect(e.Step()).To(Succeed())
			Expect(e.Regs.ReadReg(10)).To(Equal(uint32(0)))
		})

		It("traps div on divide by zero", func() {
			mod := program(insts.RType(insts.OpDIV, 8, 9, 0, 0))
			e := emu.NewEmulator(mod)
			e.Regs.WriteReg(8, 10)
			e.Regs.WriteReg(9, 0)

			err := e.Step()
			Expect(err).To(MatchError(emu.ErrDivideByZero))
		})
	})

	Describe("branching without delay slots", func() {
		It("fetches the next instruction from the branch target immediately", func() {
			mod := program(
				insts.IType(insts.OpBEQ, 0, 0, 1), // beq $zero,$zero,1 -> skip one word
				insts.RType(insts.OpADD, 0, 0, 8, 0),
				insts.RType(insts.OpADD, 0, 0, 9, 0),
			)
			e := emu.NewEmulator(mod)
			e.Regs.WriteReg(8, 1)
			e.Regs.WriteReg(9, 1)

			Expect(e.Step()).To(Succeed()) // the branch
			Expect(e.PC).To(Equal(obj.TextOffset + 8))

			Expect(e.Step()).To(Succeed()) // the skipped-to instruction
			Expect(e.Regs.ReadReg(9)).To(Equal(uint32(0)))
		})
	})

	Describe("branching with delay slots", func() {
		It("executes the delay-slot instruction before the jump takes effect", func() {
			mod := program(
				insts.IType(insts.OpBEQ, 0, 0, 1),
				insts.RType(insts.OpADD, 0, 0, 8, 0), // delay slot, should still run
				insts.RType(insts.OpADD, 0, 0, 9, 0), // branch target, fetched after the delay slot
			)
			e := emu.NewEmulator(mod, emu.WithDelaySlots(true))
			e.Regs.WriteReg(8, 1)
			e.Regs.WriteReg(9, 1)

			Expect(e.Step()).To(Succeed()) // branch: pc <- delay slot
			Expect(e.PC).To(Equal(obj.TextOffset + 4))

			Expect(e.Step()).To(Succeed()) // delay slot executes
			Expect(e.Regs.ReadReg(8)).To(Equal(uint32(0)))
			Expect(e.PC).To(Equal(obj.TextOffset + 8))
		})
	})

	Describe("jal/jalr return address", func() {
		It("records pc+8 with delay slots enabled", func() {
			mod := program(insts.JType(insts.OpJAL, 0))
			e := emu.NewEmulator(mod, emu.WithDelaySlots(true))

			Expect(e.Step()).To(Succeed())
			Expect(e.Regs.ReadReg(31)).To(Equal(obj.TextOffset + 8))
		})

		It("records pc+4 with delay slots disabled", func() {
			mod := program(insts.JType(insts.OpJAL, 0))
			e := emu.NewEmulator(mod)

			Expect(e.Step()).To(Succeed())
			Expect(e.Regs.ReadReg(31)).To(Equal(obj.TextOffset + 4))
		})
	})

	Describe("syscalls", func() {
		It("PRINT_INT writes a decimal integer to stdout", func() {
			mod := program(insts.RType(insts.OpSYSCALL, 0, 0, 0, 0))
			out := &bytes.Buffer{}
			e := emu.NewEmulator(mod, emu.WithStdout(out))
			e.Regs.WriteReg(2, 1)
			e.Regs.WriteReg(4, uint32(int32(-7)))

			Expect(e.Step()).To(Succeed())
			Expect(out.String()).To(Equal("-7"))
		})

		It("PRINT_STR writes a NUL-terminated string to stdout", func() {
			mod := program(insts.RType(insts.OpSYSCALL, 0, 0, 0, 0))
			out := &bytes.Buffer{}
			e := emu.NewEmulator(mod, emu.WithStdout(out))
			addr := obj.DataOffset
			for i, b := range []byte("hi\x00") {
				e.Memory.WriteByte(addr+uint32(i), b)
			}
			e.Regs.WriteReg(2, 4)
			e.Regs.WriteReg(4, addr)

			Expect(e.Step()).To(Succeed())
			Expect(out.String()).To(Equal("hi"))
		})

		It("READ_INT parses one line from stdin", func() {
			mod := program(insts.RType(insts.OpSYSCALL, 0, 0, 0, 0))
			in := strings.NewReader("42\n")
			e := emu.NewEmulator(mod, emu.WithStdin(in))
			e.Regs.WriteReg(2, 5)

			Expect(e.Step()).To(Succeed())
			Expect(int32(e.Regs.ReadReg(2))).To(Equal(int32(42)))
		})

		It("EXIT2 sets return code and clears running", func() {
			mod := program(insts.RType(insts.OpSYSCALL, 0, 0, 0, 0))
			e := emu.NewEmulator(mod)
			e.Regs.WriteReg(2, 17)
			e.Regs.WriteReg(4, 7)

			Expect(e.Step()).To(Succeed())
			Expect(e.Running).To(BeFalse())
			Expect(e.ReturnCode).To(Equal(int32(7)))
		})

		It("break clears running without a code", func() {
			mod := program(insts.Instruction{Kind: insts.KindR, Op: insts.OpBREAK})
			e := emu.NewEmulator(mod)

			Expect(e.Step()).To(Succeed())
			Expect(e.Running).To(BeFalse())
			Expect(e.ReturnCode).To(Equal(int32(0)))
		})
	})

	Describe("memory", func() {
		It("returns zero for an unmapped page and allows byte-level stores", func() {
			mem := emu.NewMemory()
			Expect(mem.ReadWord(0x10000000)).To(Equal(uint32(0)))

			mem.WriteWord(0x10000000, 0xDEADBEEF)
			Expect(mem.ReadWord(0x10000000)).To(Equal(uint32(0xDEADBEEF)))
		})

		It("reads a NUL-terminated string", func() {
			mem := emu.NewMemory()
			mem.LoadBytes(0x10000000, []byte("go\x00"))
			Expect(mem.ReadString(0x10000000)).To(Equal("go"))
		})

		It("honours a configured page size", func() {
			mem := emu.NewMemoryWithPageSize(256)
			mem.WriteByte(0x1000_0100, 7)
			Expect(mem.ReadByte(0x1000_0100)).To(Equal(uint8(7)))
			Expect(mem.ReadByte(0x1000_0000)).To(Equal(uint8(0)))
		})
	})

	Describe("configuration options", func() {
		It("withholds buffered stdout until Flush is called", func() {
			mod := program(insts.RType(insts.OpSYSCALL, 0, 0, 0, 0))
			var out bytes.Buffer
			e := emu.NewEmulator(mod, emu.WithStdout(&out), emu.WithBufferedStdout())
			e.Regs.WriteReg(2, 1) // PRINT_INT
			e.Regs.WriteReg(4, 9)

			Expect(e.Step()).To(Succeed())
			Expect(out.String()).To(BeEmpty())

			Expect(e.Flush()).To(Succeed())
			Expect(out.String()).To(Equal("9"))
		})

		It("auto-flushes buffered stdout once the program halts", func() {
			mod := program(
				insts.IType(insts.OpADDIU, 0, 2, 1), // li $v0, 1 (PRINT_INT)
				insts.IType(insts.OpADDIU, 0, 4, 9), // li $a0, 9
				insts.RType(insts.OpSYSCALL, 0, 0, 0, 0),
				insts.IType(insts.OpADDIU, 0, 2, 17), // li $v0, 17 (EXIT2)
				insts.IType(insts.OpADDIU, 0, 4, 0),
				insts.RType(insts.OpSYSCALL, 0, 0, 0, 0),
			)
			var out bytes.Buffer
			e := emu.NewEmulator(mod, emu.WithStdout(&out), emu.WithBufferedStdout())

			Expect(e.Run()).To(Succeed())
			Expect(out.String()).To(Equal("9"))
		})
	})
})
