package insts_test

import (
	"testing"

	"github.com/r2k-toolchain/mips/insts"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		instr  insts.Instruction
		opcode uint8
	}{
		{"add", insts.RType(insts.OpADD, 8, 9, 10, 0), 0x00},
		{"sll", insts.RType(insts.OpSLL, 0, 8, 9, 4), 0x00},
		{"jr", insts.RType(insts.OpJR, 31, 0, 0, 0), 0x00},
		{"addi", insts.IType(insts.OpADDI, 8, 9, -1), 0x08},
		{"addiu", insts.IType(insts.OpADDIU, 8, 9, 0x7FFF), 0x09},
		{"beq", insts.IType(insts.OpBEQ, 8, 9, 2), 0x04},
		{"bltz", insts.IType(insts.OpBLTZ, 8, 0, -4), 0x01},
		{"bgezal", insts.IType(insts.OpBGEZAL, 8, 0, 4), 0x01},
		{"lui", insts.IType(insts.OpLUI, 0, 9, 0x1234), 0x0F},
		{"lw", insts.IType(insts.OpLW, 29, 8, 16), 0x23},
		{"j", insts.JType(insts.OpJ, 0x0000123), 0x02},
		{"jal", insts.JType(insts.OpJAL, 0x3FFFFFF), 0x03},
		{"break", insts.BreakInstruction(0xABCDE), 0x00},
		{"word", insts.WordInstruction(0xDEADBEEF), 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			word, err := insts.Encode(c.instr)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if c.instr.Kind != insts.KindWord {
				got := uint8((word >> 26) & 0x3F)
				if got != c.opcode {
					t.Fatalf("opcode: got 0x%02X want 0x%02X", got, c.opcode)
				}
			}

			if c.instr.Kind == insts.KindWord {
				// Decode never yields KindWord; a raw word is checked on
				// the encode side, which must emit it verbatim.
				if word != c.instr.Word {
					t.Fatalf("word mismatch: got %#x want %#x", word, c.instr.Word)
				}
				return
			}

			decoded, err := insts.Decode(word)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}

			reEncoded, err := insts.Encode(decoded)
			if err != nil {
				t.Fatalf("re-Encode: %v", err)
			}
			if reEncoded != word {
				t.Fatalf("decode(encode(I)) != I: got word %#x want %#x", reEncoded, word)
			}
		})
	}
}

func TestNeedsOffset(t *testing.T) {
	branches := []insts.Op{insts.OpBEQ, insts.OpBNE, insts.OpBGTZ, insts.OpBLEZ,
		insts.OpBLTZ, insts.OpBGEZ, insts.OpBLTZAL, insts.OpBGEZAL}
	for _, op := range branches {
		if !insts.NeedsOffset(op) {
			t.Errorf("NeedsOffset(%s) = false, want true", op)
		}
	}

	nonBranches := []insts.Op{insts.OpADD, insts.OpADDI, insts.OpLW, insts.OpJ, insts.OpJAL}
	for _, op := range nonBranches {
		if insts.NeedsOffset(op) {
			t.Errorf("NeedsOffset(%s) = true, want false", op)
		}
	}
}

func TestJumpTarget(t *testing.T) {
	// pc=0, pseudo=3 -> (4 & 0xF0000000) | (3<<2) = 12
	got := insts.JumpTarget(0, 3)
	if got != 12 {
		t.Fatalf("JumpTarget(0,3) = %#x, want 12", got)
	}

	got = insts.JumpTarget(0x00401000, 0x100)
	want := (uint32(0x00401004) & 0xF0000000) | (0x100 << 2)
	if got != want {
		t.Fatalf("JumpTarget = %#x, want %#x", got, want)
	}
}

func TestBreakCodeRoundTrip(t *testing.T) {
	instr := insts.BreakInstruction(0x5A5A5)
	word, err := insts.Encode(instr)
	if err != nil {
		t.Fatal(err)
	}
	if (word>>6)&0xFFFFF != 0x5A5A5 {
		t.Fatalf("break code not in bits[25:6]: word=%#x", word)
	}
	decoded, err := insts.Decode(word)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Code != 0x5A5A5 {
		t.Fatalf("decoded code = %#x, want 0x5A5A5", decoded.Code)
	}
}
