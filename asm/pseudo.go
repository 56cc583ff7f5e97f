package asm

import (
	"github.com/r2k-toolchain/mips/ast"
	"github.com/r2k-toolchain/mips/insts"
	"github.com/r2k-toolchain/mips/obj"
)

// atRegister is the assembler-temporary register ($at, index 1) used by
// pseudo-instruction expansions that need scratch space.
const atRegister uint8 = 1

// raRegister is the return-address register ($ra, index 31).
const raRegister uint8 = 31

// plainOps is the reverse of insts' mnemonic table: every non-pseudo
// mnemonic this assembler accepts.
var plainOps = map[string]insts.Op{
	"sll": insts.OpSLL, "srl": insts.OpSRL, "sra": insts.OpSRA,
	"sllv": insts.OpSLLV, "srlv": insts.OpSRLV, "srav": insts.OpSRAV,
	"jr": insts.OpJR, "jalr": insts.OpJALR, "syscall": insts.OpSYSCALL,
	"break": insts.OpBREAK, "mfhi": insts.OpMFHI, "mthi": insts.OpMTHI,
	"mflo": insts.OpMFLO, "mtlo": insts.OpMTLO, "mult": insts.OpMULT,
	"multu": insts.OpMULTU, "div": insts.OpDIV, "divu": insts.OpDIVU,
	"add": insts.OpADD, "addu": insts.OpADDU, "sub": insts.OpSUB,
	"subu": insts.OpSUBU, "and": insts.OpAND, "or": insts.OpOR,
	"xor": insts.OpXOR, "nor": insts.OpNOR, "slt": insts.OpSLT,
	"sltu": insts.OpSLTU,
	"addi": insts.OpADDI, "addiu": insts.OpADDIU, "andi": insts.OpANDI,
	"beq": insts.OpBEQ, "bne": insts.OpBNE, "bgtz": insts.OpBGTZ,
	"blez": insts.OpBLEZ, "bltz": insts.OpBLTZ, "bgez": insts.OpBGEZ,
	"bltzal": insts.OpBLTZAL, "bgezal": insts.OpBGEZAL, "lui": insts.OpLUI,
	"lb": insts.OpLB, "lbu": insts.OpLBU, "lh": insts.OpLH, "lhu": insts.OpLHU,
	"lw": insts.OpLW, "lwl": insts.OpLWL, "lwr": insts.OpLWR, "ori": insts.OpORI,
	"slti": insts.OpSLTI, "sltiu": insts.OpSLTIU, "sb": insts.OpSB,
	"sh": insts.OpSH, "sw": insts.OpSW, "swl": insts.OpSWL, "swr": insts.OpSWR,
	"xori": insts.OpXORI,
	"j":    insts.OpJ, "jal": insts.OpJAL,
}

func liFitsOneWord(v int64) bool {
	u := uint32(v)
	return u&0xFFFF0000 == 0 || u&0x0000FFFF == 0
}

// expandedSize returns the number of 32-bit words instr occupies in the
// text stream, per §4.5.1. It may evaluate the immediate expression of
// pseudo forms whose size depends on the value (li, mul/div/rem), which
// can fail with ErrUnknownConstant.
func (b *Builder) expandedSize(instr ast.Instruction) (uint32, error) {
	switch instr.Mnemonic {
	case "li":
		v, err := b.evalExpr(instr.Operands[1].Expr)
		if err != nil {
			return 0, err
		}
		if liFitsOneWord(v) {
			return 1, nil
		}
		return 2, nil
	case "la":
		return 2, nil
	case "move", "not":
		return 1, nil
	case "mul", "div", "rem":
		if instr.Mnemonic == "div" && len(instr.Operands) != 3 {
			return 1, nil // the real 2-operand div, see lowerInstruction
		}
		if len(instr.Operands) == 3 && instr.Operands[2].Kind == ast.OperandRegister {
			return 2, nil
		}
		v, err := b.evalExpr(instr.Operands[2].Expr)
		if err != nil {
			return 0, err
		}
		size := uint32(2)
		if !liFitsOneWord(v) {
			size++
		}
		return size, nil
	default:
		return 1, nil
	}
}

// lowerInstruction expands instr to its concrete insts.Instruction
// stream and records any relocations/references it needs, given the
// instruction's own byte offset within the text section.
func (b *Builder) lowerInstruction(instr ast.Instruction, byteOffset uint32) ([]insts.Instruction, error) {
	switch instr.Mnemonic {
	case "li":
		return b.lowerLi(instr)
	case "la":
		return b.lowerLa(instr, byteOffset)
	case "move":
		rt := instr.Operands[0].Reg
		rs := instr.Operands[1].Reg
		return []insts.Instruction{insts.RType(insts.OpOR, rs, 0, rt, 0)}, nil
	case "not":
		rd := instr.Operands[0].Reg
		rs := instr.Operands[1].Reg
		return []insts.Instruction{insts.RType(insts.OpNOR, rs, 0, rd, 0)}, nil
	case "mul":
		return b.lowerMulDivRem(instr, insts.OpMULT, insts.OpMFLO)
	case "div":
		if len(instr.Operands) == 3 {
			return b.lowerMulDivRem(instr, insts.OpDIV, insts.OpMFLO)
		}
		return b.lowerPlainR2(instr, insts.OpDIV)
	case "rem":
		return b.lowerMulDivRem(instr, insts.OpDIV, insts.OpMFHI)
	}
	return b.lowerPlain(instr, byteOffset)
}

func (b *Builder) lowerLi(instr ast.Instruction) ([]insts.Instruction, error) {
	rd := instr.Operands[0].Reg
	v, err := b.evalExpr(instr.Operands[1].Expr)
	if err != nil {
		return nil, err
	}
	u := uint32(v)
	if u&0xFFFF0000 == 0 {
		return []insts.Instruction{insts.IType(insts.OpORI, 0, rd, int16(uint16(u)))}, nil
	}
	if u&0x0000FFFF == 0 {
		return []insts.Instruction{insts.IType(insts.OpLUI, 0, rd, int16(uint16(u>>16)))}, nil
	}
	return []insts.Instruction{
		insts.IType(insts.OpLUI, 0, atRegister, int16(uint16(u>>16))),
		insts.IType(insts.OpORI, atRegister, rd, int16(uint16(u))),
	}, nil
}

// lowerLa always expands to a lui/ori pair targeting a label address,
// recording a SplitImm relocation or reference at the lui's offset.
func (b *Builder) lowerLa(instr ast.Instruction, byteOffset uint32) ([]insts.Instruction, error) {
	rd := instr.Operands[0].Reg
	name, ok := instr.Operands[1].Expr.(ast.Name)
	if !ok {
		return nil, diag(ErrUnknownSymbol, instr.Pos.Start, instr.Pos.End)
	}
	// A same-module Text label carries its section offset in the two
	// immediates; the SplitImm relocation then adds the section base.
	var hi, lo uint16
	if sym, ok := b.symbols[name.Value]; ok && sym.Location == obj.Text {
		hi, lo = uint16(sym.Offset>>16), uint16(sym.Offset)
	}
	b.recordSplitImm(name.Value, byteOffset)
	return []insts.Instruction{
		insts.IType(insts.OpLUI, 0, atRegister, int16(hi)),
		insts.IType(insts.OpORI, atRegister, rd, int16(lo)),
	}, nil
}

func (b *Builder) recordSplitImm(name string, byteOffset uint32) {
	sym, ok := b.symbols[name]
	if ok && sym.Location == obj.Text {
		b.relocations = append(b.relocations, obj.Relocation{
			Address: byteOffset, Section: obj.Text, Type: obj.SplitImm,
		})
		return
	}
	strIdx := b.strings.Insert(name)
	b.references = append(b.references, obj.Reference{
		Address: byteOffset, StrIdx: strIdx, Section: obj.Text,
		Method: obj.MethodReplace, Target: obj.TargetSplitImm,
	})
}

func (b *Builder) lowerMulDivRem(instr ast.Instruction, mathOp, resultOp insts.Op) ([]insts.Instruction, error) {
	rd := instr.Operands[0].Reg
	rs := instr.Operands[1].Reg
	if instr.Operands[2].Kind == ast.OperandRegister {
		rt := instr.Operands[2].Reg
		return []insts.Instruction{
			insts.RType(mathOp, rs, rt, 0, 0),
			insts.RType(resultOp, 0, 0, rd, 0),
		}, nil
	}
	v, err := b.evalExpr(instr.Operands[2].Expr)
	if err != nil {
		return nil, err
	}
	u := uint32(v)
	var li []insts.Instruction
	switch {
	case u&0xFFFF0000 == 0:
		li = []insts.Instruction{insts.IType(insts.OpORI, 0, atRegister, int16(uint16(u)))}
	case u&0x0000FFFF == 0:
		li = []insts.Instruction{insts.IType(insts.OpLUI, 0, atRegister, int16(uint16(u>>16)))}
	default:
		li = []insts.Instruction{
			insts.IType(insts.OpLUI, 0, atRegister, int16(uint16(u>>16))),
			insts.IType(insts.OpORI, atRegister, atRegister, int16(uint16(u))),
		}
	}
	out := append(li, insts.RType(mathOp, rs, atRegister, 0, 0))
	out = append(out, insts.RType(resultOp, 0, 0, rd, 0))
	return out, nil
}

// lowerPlainR2 handles the real 2-operand div/divu form (rs, rt).
func (b *Builder) lowerPlainR2(instr ast.Instruction, op insts.Op) ([]insts.Instruction, error) {
	rs := instr.Operands[0].Reg
	rt := instr.Operands[1].Reg
	return []insts.Instruction{insts.RType(op, rs, rt, 0, 0)}, nil
}
