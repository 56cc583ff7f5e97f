package linker_test

import (
	"testing"

	"github.com/r2k-toolchain/mips/asm"
	"github.com/r2k-toolchain/mips/linker"
	"github.com/r2k-toolchain/mips/obj"
	"github.com/r2k-toolchain/mips/parser"
)

func assembleModule(t *testing.T, src, name string) *obj.Module {
	t.Helper()
	prog, err := parser.Parse(src, name)
	if err != nil {
		t.Fatalf("parse %s: %v", name, err)
	}
	ir, err := asm.Assemble(prog, nil)
	if err != nil {
		t.Fatalf("assemble %s: %v", name, err)
	}
	mod, err := asm.Lower(ir)
	if err != nil {
		t.Fatalf("lower %s: %v", name, err)
	}
	return mod
}

func be32(b []byte, off uint32) uint32 {
	return uint32(b[off])<<24 | uint32(b[off+1])<<16 | uint32(b[off+2])<<8 | uint32(b[off+3])
}

func TestLinkCrossModuleJump(t *testing.T) {
	aSrc := "\t.text\n\t.globl __start\n\t.globl callee\n__start:\n\tjal callee\n\tli $v0, 17\n\tli $a0, 0\n\tsyscall\n"
	bSrc := "\t.text\n\t.globl callee\ncallee:\n\tjr $ra\n"

	aMod := assembleModule(t, aSrc, "a.s")
	bMod := assembleModule(t, bSrc, "b.s")

	out, err := linker.Link([]*obj.Module{aMod, bMod}, nil)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if len(out.References) != 0 {
		t.Fatalf("unresolved references remain: %+v", out.References)
	}
	if out.Entry != obj.TextOffset {
		t.Fatalf("entry = %#x, want %#x", out.Entry, obj.TextOffset)
	}

	word := be32(out.Text, 0)
	if op := word >> 26; op != 0x03 {
		t.Fatalf("jal opcode clobbered: top bits = %#x", op)
	}
	calleeValue := obj.TextOffset + 16 // displaced past a's 4 instructions
	wantPseudo := (calleeValue & 0x0FFFFFFC) >> 2
	if got := word & 0x03FFFFFF; got != wantPseudo {
		t.Fatalf("jal target = %#x, want %#x", got, wantPseudo)
	}
}

func TestLinkMissingStartLinksStub(t *testing.T) {
	src := "\t.text\n\t.globl loop\nloop:\n\tj loop\n"
	mod := assembleModule(t, src, "noentry.s")

	out, err := linker.Link([]*obj.Module{mod}, nil)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if len(out.References) != 0 {
		t.Fatalf("unresolved references remain: %+v", out.References)
	}
	// __start comes from the linked-in stub, placed after the 1-word
	// user text.
	if out.Entry != obj.TextOffset+4 {
		t.Fatalf("entry = %#x, want %#x", out.Entry, obj.TextOffset+4)
	}
}

func TestLinkUnresolvedReferenceYieldsZeroEntry(t *testing.T) {
	src := "\t.text\n\t.globl __start\n\t.globl missing\n__start:\n\tjal missing\n"
	mod := assembleModule(t, src, "dangling.s")

	out, err := linker.Link([]*obj.Module{mod}, nil)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if out.Entry != 0 {
		t.Fatalf("entry = %#x, want 0", out.Entry)
	}
	if len(out.References) != 1 {
		t.Fatalf("expected one unresolved reference, got %d", len(out.References))
	}
}
