package asm_test

import (
	"testing"

	"github.com/r2k-toolchain/mips/asm"
	"github.com/r2k-toolchain/mips/insts"
	"github.com/r2k-toolchain/mips/parser"
)

func TestHelloWorldTextSize(t *testing.T) {
	src := `
	.data
msg:	.asciiz "Hi\n"
	.text
	.globl __start
__start:
	li	$v0, 4
	la	$a0, msg
	syscall
	li	$v0, 17
	li	$a0, 0
	syscall
`
	prog, err := parser.Parse(src, "hello.s")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := asm.Assemble(prog, nil)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if string(out.Data) != "Hi\n\x00" {
		t.Fatalf("data section = %q, want %q", out.Data, "Hi\n\x00")
	}
	// li $v0,4 (1) + la (2) + syscall (1) + li $v0,17 (1) + li $a0,0 (1) + syscall (1) = 7
	if len(out.Text) != 7 {
		t.Fatalf("text length = %d, want 7", len(out.Text))
	}
	sym, ok := out.Symbols["__start"]
	if !ok || sym.Offset != 0 {
		t.Fatalf("__start symbol = %+v, ok=%v", sym, ok)
	}
	if len(out.References) != 1 {
		t.Fatalf("expected one reference (la msg), got %d", len(out.References))
	}
}

func TestConstantArithmeticAndWord(t *testing.T) {
	src := "K = 1 + 2*3\n.data\n.word K,K,K\n"
	prog, err := parser.Parse(src, "k.s")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := asm.Assemble(prog, nil)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	want := []byte{0, 0, 0, 7, 0, 0, 0, 7, 0, 0, 0, 7}
	if len(out.Data) != len(want) {
		t.Fatalf("data = %v, want %v", out.Data, want)
	}
	for i := range want {
		if out.Data[i] != want[i] {
			t.Fatalf("data[%d] = %d, want %d", i, out.Data[i], want[i])
		}
	}
}

func TestHalfAutoAlign(t *testing.T) {
	src := ".data\n.byte 1\nlabel:\t.half 0x1234\n"
	prog, err := parser.Parse(src, "half.s")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := asm.Assemble(prog, nil)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	want := []byte{0x01, 0x00, 0x12, 0x34}
	if len(out.Data) != len(want) {
		t.Fatalf("data = %v, want %v", out.Data, want)
	}
	for i := range want {
		if out.Data[i] != want[i] {
			t.Fatalf("data[%d] = %#02x, want %#02x", i, out.Data[i], want[i])
		}
	}
	sym, ok := out.Symbols["label"]
	if !ok || sym.Offset != 2 {
		t.Fatalf("label offset = %+v, ok=%v, want 2", sym, ok)
	}
}

func TestBranchEncoding(t *testing.T) {
	src := "\t.text\n\tbeq $t0, $t1, L\n\tsll $zero, $zero, 0\n\tsll $zero, $zero, 0\nL:\tsll $zero, $zero, 0\n"
	prog, err := parser.Parse(src, "branch.s")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := asm.Assemble(prog, nil)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	word, err := insts.Encode(out.Text[0])
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	imm := int16(uint16(word & 0xFFFF))
	if imm != 2 {
		t.Fatalf("branch immediate = %d, want 2", imm)
	}
}

func TestLiSizing(t *testing.T) {
	cases := []struct {
		src  string
		size int
	}{
		{"\t.text\n\tli $t0, 0x00001234\n", 1},
		{"\t.text\n\tli $t0, 0x12340000\n", 1},
		{"\t.text\n\tli $t0, 0x12345678\n", 2},
	}
	for _, c := range cases {
		prog, err := parser.Parse(c.src, "li.s")
		if err != nil {
			t.Fatalf("parse %q: %v", c.src, err)
		}
		out, err := asm.Assemble(prog, nil)
		if err != nil {
			t.Fatalf("assemble %q: %v", c.src, err)
		}
		if len(out.Text) != c.size {
			t.Fatalf("%q: text len = %d, want %d", c.src, len(out.Text), c.size)
		}
	}
}
