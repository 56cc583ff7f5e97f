package debugger_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/r2k-toolchain/mips/debugger"
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

var _ = Describe("Debugger", func() {
	// li $t0, 5 ; li $t0, 6 ; li $v0, 17 ; li $a0, 0 ; syscall (exit)
	newEmu := func() *emu.Emulator {
		mod := program(
			insts.IType(insts.OpADDIU, 0, 8, 5),
			insts.IType(insts.OpADDIU, 0, 8, 6),
			insts.IType(insts.OpADDIU, 0, 2, 17),
			insts.IType(insts.OpADDIU, 0, 4, 0),
			insts.RType(insts.OpSYSCALL, 0, 0, 0, 0),
		)
		return emu.NewEmulator(mod)
	}

	It("steps one instruction per 'step' command", func() {
		e := newEmu()
		var out bytes.Buffer
		in := strings.NewReader("step\nexit\n")
		d := debugger.New(e, in, &out)

		Expect(d.Run()).To(Succeed())
		Expect(e.Regs.ReadReg(8)).To(Equal(uint32(5)))
		Expect(e.Running).To(BeTrue())
	})

	It("runs to completion with 'continue'", func() {
		e := newEmu()
		var out bytes.Buffer
		in := strings.NewReader("continue\n")
		d := debugger.New(e, in, &out)

		Expect(d.Run()).To(Succeed())
		Expect(e.Running).To(BeFalse())
		Expect(e.ReturnCode).To(Equal(int32(0)))
	})

	It("stops at a breakpoint set with 'breakpoint'", func() {
		e := newEmu()
		var out bytes.Buffer
		target := obj.TextOffset + 8 // third instruction: li $v0, 17
		in := strings.NewReader("breakpoint " + hexString(target) + "\ncontinue\nexit\n")
		d := debugger.New(e, in, &out)

		Expect(d.Run()).To(Succeed())
		Expect(e.PC).To(Equal(target))
		Expect(e.Running).To(BeTrue())
		Expect(out.String()).To(ContainSubstring("breakpoint at"))
	})

	It("emits a trace line per step when tracing is on", func() {
		e := newEmu()
		var out bytes.Buffer
		in := strings.NewReader("trace on\nstep\nexit\n")
		d := debugger.New(e, in, &out)

		Expect(d.Run()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("stepped"))
	})

	It("prints registers with 'print'", func() {
		e := newEmu()
		var out bytes.Buffer
		in := strings.NewReader("print\nexit\n")
		d := debugger.New(e, in, &out)

		Expect(d.Run()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("pc="))
		Expect(out.String()).To(ContainSubstring("$zero"))
	})

	It("quits on 'exit' without running the program", func() {
		e := newEmu()
		var out bytes.Buffer
		in := strings.NewReader("exit\n")
		d := debugger.New(e, in, &out)

		Expect(d.Run()).To(Succeed())
		Expect(e.Regs.ReadReg(8)).To(Equal(uint32(0)))
	})

	It("reports an error and keeps prompting on an unknown command", func() {
		e := newEmu()
		var out bytes.Buffer
		in := strings.NewReader("bogus\nexit\n")
		d := debugger.New(e, in, &out)

		Expect(d.Run()).To(Succeed())
		Expect(out.String()).To(ContainSubstring(`error: unknown command "bogus"`))
	})
})

func hexString(v uint32) string {
	const hexDigits = "0123456789abcdef"
	b := []byte{'0', 'x', 0, 0, 0, 0, 0, 0, 0, 0}
	for i := 0; i < 8; i++ {
		b[9-i] = hexDigits[(v>>(4*uint(i)))&0xF]
	}
	return string(b)
}
