package insts

import "fmt"

// Opcode values occupying bits [31:26] of the word. OpcodeRType (0) marks
// an R-type instruction, dispatched further by function code.
const (
	opcodeRType  = 0x00
	opcodeRegimm = 0x01
	opcodeJ      = 0x02
	opcodeJAL    = 0x03
	opcodeBEQ    = 0x04
	opcodeBNE    = 0x05
	opcodeBLEZ   = 0x06
	opcodeBGTZ   = 0x07
	opcodeADDI   = 0x08
	opcodeADDIU  = 0x09
	opcodeSLTI   = 0x0A
	opcodeSLTIU  = 0x0B
	opcodeANDI   = 0x0C
	opcodeORI    = 0x0D
	opcodeXORI   = 0x0E
	opcodeLUI    = 0x0F
	opcodeLB     = 0x20
	opcodeLH     = 0x21
	opcodeLWL    = 0x22
	opcodeLW     = 0x23
	opcodeLBU    = 0x24
	opcodeLHU    = 0x25
	opcodeLWR    = 0x26
	opcodeSB     = 0x28
	opcodeSH     = 0x29
	opcodeSWL    = 0x2A
	opcodeSW     = 0x2B
	opcodeSWR    = 0x2E
)

// REGIMM sub-opcodes, carried in the rt field when opcode == opcodeRegimm.
const (
	regimmBLTZ   = 0x00
	regimmBGEZ   = 0x01
	regimmBLTZAL = 0x10
	regimmBGEZAL = 0x11
)

// Function codes occupying bits [5:0] of an R-type word.
const (
	functSLL     = 0x00
	functSRL     = 0x02
	functSRA     = 0x03
	functSLLV    = 0x04
	functSRLV    = 0x06
	functSRAV    = 0x07
	functJR      = 0x08
	functJALR    = 0x09
	functSYSCALL = 0x0C
	functBREAK   = 0x0D
	functMFHI    = 0x10
	functMTHI    = 0x11
	functMFLO    = 0x12
	functMTLO    = 0x13
	functMULT    = 0x18
	functMULTU   = 0x19
	functDIV     = 0x1A
	functDIVU    = 0x1B
	functADD     = 0x20
	functADDU    = 0x21
	functSUB     = 0x22
	functSUBU    = 0x23
	functAND     = 0x24
	functOR      = 0x25
	functXOR     = 0x26
	functNOR     = 0x27
	functSLT     = 0x2A
	functSLTU    = 0x2B
)

var functByOp = map[Op]uint8{
	OpSLL: functSLL, OpSRL: functSRL, OpSRA: functSRA, OpSLLV: functSLLV,
	OpSRLV: functSRLV, OpSRAV: functSRAV, OpJR: functJR, OpJALR: functJALR,
	OpSYSCALL: functSYSCALL, OpBREAK: functBREAK, OpMFHI: functMFHI,
	OpMTHI: functMTHI, OpMFLO: functMFLO, OpMTLO: functMTLO,
	OpMULT: functMULT, OpMULTU: functMULTU, OpDIV: functDIV,
	OpDIVU: functDIVU, OpADD: functADD, OpADDU: functADDU, OpSUB: functSUB,
	OpSUBU: functSUBU, OpAND: functAND, OpOR: functOR, OpXOR: functXOR,
	OpNOR: functNOR, OpSLT: functSLT, OpSLTU: functSLTU,
}

var opByFunct = func() map[uint8]Op {
	m := make(map[uint8]Op, len(functByOp))
	for op, f := range functByOp {
		m[f] = op
	}
	return m
}()

var opcodeByOp = map[Op]uint8{
	OpADDI: opcodeADDI, OpADDIU: opcodeADDIU, OpANDI: opcodeANDI,
	OpBEQ: opcodeBEQ, OpBNE: opcodeBNE, OpBGTZ: opcodeBGTZ,
	OpBLEZ: opcodeBLEZ, OpLUI: opcodeLUI, OpLB: opcodeLB, OpLBU: opcodeLBU,
	OpLH: opcodeLH, OpLHU: opcodeLHU, OpLW: opcodeLW, OpLWL: opcodeLWL,
	OpLWR: opcodeLWR, OpORI: opcodeORI, OpSLTI: opcodeSLTI,
	OpSLTIU: opcodeSLTIU, OpSB: opcodeSB, OpSH: opcodeSH, OpSW: opcodeSW,
	OpSWL: opcodeSWL, OpSWR: opcodeSWR, OpXORI: opcodeXORI,
	OpJ: opcodeJ, OpJAL: opcodeJAL,
}

var opByOpcode = func() map[uint8]Op {
	m := make(map[uint8]Op, len(opcodeByOp))
	for op, oc := range opcodeByOp {
		if oc == opcodeJ || oc == opcodeJAL {
			continue
		}
		m[oc] = op
	}
	return m
}()

var regimmByOp = map[Op]uint8{
	OpBLTZ: regimmBLTZ, OpBGEZ: regimmBGEZ, OpBLTZAL: regimmBLTZAL,
	OpBGEZAL: regimmBGEZAL,
}

var opByRegimm = func() map[uint8]Op {
	m := make(map[uint8]Op, len(regimmByOp))
	for op, r := range regimmByOp {
		m[r] = op
	}
	return m
}()

// Encode renders instr to its big-endian 32-bit word. For R/I/J kinds the
// returned word's top 6 bits equal the mnemonic's opcode; a KindWord
// instruction encodes to its raw word unchanged.
func Encode(instr Instruction) (uint32, error) {
	switch instr.Kind {
	case KindR:
		return encodeR(instr)
	case KindI:
		return encodeI(instr)
	case KindJ:
		return encodeJ(instr)
	case KindWord:
		return instr.Word, nil
	default:
		return 0, fmt.Errorf("insts: unknown instruction kind %d", instr.Kind)
	}
}

func encodeR(instr Instruction) (uint32, error) {
	funct, ok := functByOp[instr.Op]
	if !ok {
		return 0, fmt.Errorf("insts: %s is not an R-type op", instr.Op)
	}
	if instr.Op == OpBREAK {
		code := instr.Code & 0xFFFFF
		rs := uint32((code >> 15) & 0x1F)
		rt := uint32((code >> 10) & 0x1F)
		rd := uint32((code >> 5) & 0x1F)
		sh := uint32(code & 0x1F)
		return assembleR(0, rs, rt, rd, sh, uint32(funct)), nil
	}
	return assembleR(0, uint32(instr.Rs), uint32(instr.Rt), uint32(instr.Rd),
		uint32(instr.Shift), uint32(funct)), nil
}

func assembleR(op, rs, rt, rd, shift, funct uint32) uint32 {
	return (op&0x3F)<<26 | (rs&0x1F)<<21 | (rt&0x1F)<<16 | (rd&0x1F)<<11 |
		(shift&0x1F)<<6 | (funct & 0x3F)
}

func encodeI(instr Instruction) (uint32, error) {
	var opcode uint32
	var rt uint32
	switch instr.Op {
	case OpBLTZ, OpBGEZ, OpBLTZAL, OpBGEZAL:
		opcode = opcodeRegimm
		rt = uint32(regimmByOp[instr.Op])
	default:
		oc, ok := opcodeByOp[instr.Op]
		if !ok {
			return 0, fmt.Errorf("insts: %s is not an I-type op", instr.Op)
		}
		opcode = uint32(oc)
		rt = uint32(instr.Rt)
	}
	return (opcode&0x3F)<<26 | (uint32(instr.Rs)&0x1F)<<21 | (rt&0x1F)<<16 |
		uint32(uint16(instr.Imm16)), nil
}

func encodeJ(instr Instruction) (uint32, error) {
	opcode, ok := opcodeByOp[instr.Op]
	if !ok {
		return 0, fmt.Errorf("insts: %s is not a J-type op", instr.Op)
	}
	return (uint32(opcode)&0x3F)<<26 | (instr.Target & 0x03FFFFFF), nil
}

// Decode parses a 32-bit big-endian word into its typed instruction. It
// never returns KindWord: raw data words are only ever produced
// explicitly by the assembler/linker, never inferred from decoding.
func Decode(word uint32) (Instruction, error) {
	opcode := uint8((word >> 26) & 0x3F)
	switch opcode {
	case opcodeRType:
		return decodeR(word)
	case opcodeJ, opcodeJAL:
		return decodeJ(word, opcode)
	case opcodeRegimm:
		return decodeRegimm(word)
	default:
		return decodeI(word, opcode)
	}
}

func decodeR(word uint32) (Instruction, error) {
	funct := uint8(word & 0x3F)
	op, ok := opByFunct[funct]
	if !ok {
		return Instruction{}, fmt.Errorf("insts: unknown function code 0x%02X", funct)
	}
	if op == OpBREAK {
		code := (word >> 6) & 0xFFFFF
		return BreakInstruction(code), nil
	}
	rs := uint8((word >> 21) & 0x1F)
	rt := uint8((word >> 16) & 0x1F)
	rd := uint8((word >> 11) & 0x1F)
	shift := uint8((word >> 6) & 0x1F)
	return RType(op, rs, rt, rd, shift), nil
}

func decodeI(word uint32, opcode uint8) (Instruction, error) {
	op, ok := opByOpcode[opcode]
	if !ok {
		return Instruction{}, fmt.Errorf("insts: unknown opcode 0x%02X", opcode)
	}
	rs := uint8((word >> 21) & 0x1F)
	rt := uint8((word >> 16) & 0x1F)
	imm := int16(uint16(word & 0xFFFF))
	return IType(op, rs, rt, imm), nil
}

func decodeRegimm(word uint32) (Instruction, error) {
	sub := uint8((word >> 16) & 0x1F)
	op, ok := opByRegimm[sub]
	if !ok {
		return Instruction{}, fmt.Errorf("insts: unknown regimm sub-opcode 0x%02X", sub)
	}
	rs := uint8((word >> 21) & 0x1F)
	imm := int16(uint16(word & 0xFFFF))
	return IType(op, rs, 0, imm), nil
}

func decodeJ(word uint32, opcode uint8) (Instruction, error) {
	op := OpJ
	if opcode == opcodeJAL {
		op = OpJAL
	}
	return JType(op, word&0x03FFFFFF), nil
}

// JumpTarget resolves a J-type pseudo-address to an absolute byte address,
// given the program counter of the jump instruction itself:
// (pc+4 & 0xF0000000) | (pseudo << 2).
func JumpTarget(pc uint32, pseudoAddress uint32) uint32 {
	pcAfterDelay := pc + 4
	return (pcAfterDelay & 0xF0000000) | (pseudoAddress << 2)
}
