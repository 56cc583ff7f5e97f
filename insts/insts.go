// Package insts provides MIPS R2000 instruction definitions and the
// bit-exact 32-bit encoding/decoding contract shared by the assembler,
// linker and simulator.
package insts

// Kind distinguishes the structural shape of an instruction word.
type Kind uint8

// Instruction shapes, per the R2000 encoding.
const (
	KindR Kind = iota
	KindI
	KindJ
	KindWord
)

// Op identifies a concrete mnemonic. The numeric value carries no meaning
// outside this package; encode/decode consult the opcode tables in
// decoder.go.
type Op uint8

// R-type opcodes.
const (
	OpSLL Op = iota
	OpSRL
	OpSRA
	OpSLLV
	OpSRLV
	OpSRAV
	OpJR
	OpJALR
	OpSYSCALL
	OpBREAK
	OpMFHI
	OpMTHI
	OpMFLO
	OpMTLO
	OpMULT
	OpMULTU
	OpDIV
	OpDIVU
	OpADD
	OpADDU
	OpSUB
	OpSUBU
	OpAND
	OpOR
	OpXOR
	OpNOR
	OpSLT
	OpSLTU

	// I-type opcodes.
	OpADDI
	OpADDIU
	OpANDI
	OpBEQ
	OpBNE
	OpBGTZ
	OpBLEZ
	OpBLTZ
	OpBGEZ
	OpBLTZAL
	OpBGEZAL
	OpLUI
	OpLB
	OpLBU
	OpLH
	OpLHU
	OpLW
	OpLWL
	OpLWR
	OpORI
	OpSLTI
	OpSLTIU
	OpSB
	OpSH
	OpSW
	OpSWL
	OpSWR
	OpXORI

	// J-type opcodes.
	OpJ
	OpJAL
)

var opNames = map[Op]string{
	OpSLL: "sll", OpSRL: "srl", OpSRA: "sra", OpSLLV: "sllv", OpSRLV: "srlv",
	OpSRAV: "srav", OpJR: "jr", OpJALR: "jalr", OpSYSCALL: "syscall",
	OpBREAK: "break", OpMFHI: "mfhi", OpMTHI: "mthi", OpMFLO: "mflo",
	OpMTLO: "mtlo", OpMULT: "mult", OpMULTU: "multu", OpDIV: "div",
	OpDIVU: "divu", OpADD: "add", OpADDU: "addu", OpSUB: "sub",
	OpSUBU: "subu", OpAND: "and", OpOR: "or", OpXOR: "xor", OpNOR: "nor",
	OpSLT: "slt", OpSLTU: "sltu",
	OpADDI: "addi", OpADDIU: "addiu", OpANDI: "andi", OpBEQ: "beq",
	OpBNE: "bne", OpBGTZ: "bgtz", OpBLEZ: "blez", OpBLTZ: "bltz",
	OpBGEZ: "bgez", OpBLTZAL: "bltzal", OpBGEZAL: "bgezal", OpLUI: "lui",
	OpLB: "lb", OpLBU: "lbu", OpLH: "lh", OpLHU: "lhu", OpLW: "lw",
	OpLWL: "lwl", OpLWR: "lwr", OpORI: "ori", OpSLTI: "slti",
	OpSLTIU: "sltiu", OpSB: "sb", OpSH: "sh", OpSW: "sw", OpSWL: "swl",
	OpSWR: "swr", OpXORI: "xori",
	OpJ: "j", OpJAL: "jal",
}

// String renders the canonical assembly mnemonic for op.
func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "?"
}

// NeedsOffset reports whether op's 16-bit immediate field is a PC-relative
// branch offset (in units of instructions) rather than a plain immediate.
func NeedsOffset(op Op) bool {
	switch op {
	case OpBEQ, OpBNE, OpBGTZ, OpBLEZ, OpBLTZ, OpBGEZ, OpBLTZAL, OpBGEZAL:
		return true
	default:
		return false
	}
}

// IsLink reports whether op is a branch-and-link or jump-and-link form
// that writes a return address register.
func IsLink(op Op) bool {
	switch op {
	case OpBLTZAL, OpBGEZAL, OpJAL, OpJALR:
		return true
	default:
		return false
	}
}

// Instruction is the typed, decoded form of a 32-bit MIPS word.
//
// Only the fields relevant to Kind are meaningful; the zero value of the
// others is ignored by Encode and by the simulator.
type Instruction struct {
	Kind Kind
	Op   Op

	// R-type fields.
	Rs, Rt, Rd uint8
	Shift      uint8
	// Code carries the 20-bit break code for OpBREAK; it overlays the
	// rs/rt/rd/shift subfields (bits [25:6] of the word) per the R2000
	// break encoding.
	Code uint32

	// I-type fields.
	Imm16 int16

	// J-type fields.
	Target uint32 // 26-bit pseudo-address

	// KindWord: a raw data word embedded in the text stream via .word.
	Word uint32
}

// RType builds an R-type instruction.
func RType(op Op, rs, rt, rd, shift uint8) Instruction {
	return Instruction{Kind: KindR, Op: op, Rs: rs, Rt: rt, Rd: rd, Shift: shift}
}

// IType builds an I-type instruction with a signed 16-bit immediate.
func IType(op Op, rs, rt uint8, imm16 int16) Instruction {
	return Instruction{Kind: KindI, Op: op, Rs: rs, Rt: rt, Imm16: imm16}
}

// JType builds a J-type instruction with a 26-bit pseudo-address.
func JType(op Op, target uint32) Instruction {
	return Instruction{Kind: KindJ, Op: op, Target: target & 0x03FFFFFF}
}

// BreakInstruction builds the special-cased R-type break instruction
// carrying a 20-bit code.
func BreakInstruction(code uint32) Instruction {
	return Instruction{Kind: KindR, Op: OpBREAK, Code: code & 0xFFFFF}
}

// WordInstruction builds a raw data word embedded in the text section.
func WordInstruction(w uint32) Instruction {
	return Instruction{Kind: KindWord, Word: w}
}
