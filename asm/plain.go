package asm

import (
	"github.com/r2k-toolchain/mips/ast"
	"github.com/r2k-toolchain/mips/insts"
	"github.com/r2k-toolchain/mips/obj"
)

var rrrOps = map[string]bool{
	"add": true, "addu": true, "sub": true, "subu": true, "and": true,
	"or": true, "xor": true, "nor": true, "slt": true, "sltu": true,
}

var shiftOps = map[string]bool{"sll": true, "srl": true, "sra": true}
var shiftVOps = map[string]bool{"sllv": true, "srlv": true, "srav": true}
var mulDivOps = map[string]bool{"mult": true, "multu": true, "divu": true}
var rriOps = map[string]bool{
	"addi": true, "addiu": true, "andi": true, "ori": true, "xori": true,
	"slti": true, "sltiu": true,
}
var memOps = map[string]bool{
	"lb": true, "lbu": true, "lh": true, "lhu": true, "lw": true,
	"lwl": true, "lwr": true, "sb": true, "sh": true, "sw": true,
	"swl": true, "swr": true,
}
var branch2Ops = map[string]bool{"beq": true, "bne": true}
var branch1Ops = map[string]bool{
	"bgtz": true, "blez": true, "bltz": true, "bgez": true,
	"bltzal": true, "bgezal": true,
}

// lowerPlain handles every non-pseudo mnemonic's operand shape.
func (b *Builder) lowerPlain(instr ast.Instruction, byteOffset uint32) ([]insts.Instruction, error) {
	m := instr.Mnemonic
	op, known := plainOps[m]
	if !known {
		return nil, diag(ErrUnknownMnemonic, instr.Pos.Start, instr.Pos.End)
	}
	ops := instr.Operands

	switch {
	case rrrOps[m]:
		return one(insts.RType(op, ops[1].Reg, ops[2].Reg, ops[0].Reg, 0)), nil
	case shiftOps[m]:
		shamt, err := b.evalExpr(ops[2].Expr)
		if err != nil {
			return nil, err
		}
		return one(insts.RType(op, 0, ops[1].Reg, ops[0].Reg, uint8(shamt))), nil
	case shiftVOps[m]:
		return one(insts.RType(op, ops[2].Reg, ops[1].Reg, ops[0].Reg, 0)), nil
	case mulDivOps[m]:
		return one(insts.RType(op, ops[0].Reg, ops[1].Reg, 0, 0)), nil
	case m == "jr":
		return one(insts.RType(op, ops[0].Reg, 0, 0, 0)), nil
	case m == "jalr":
		if len(ops) == 1 {
			return one(insts.RType(op, ops[0].Reg, 0, raRegister, 0)), nil
		}
		return one(insts.RType(op, ops[1].Reg, 0, ops[0].Reg, 0)), nil
	case m == "mfhi", m == "mflo":
		return one(insts.RType(op, 0, 0, ops[0].Reg, 0)), nil
	case m == "mthi", m == "mtlo":
		return one(insts.RType(op, ops[0].Reg, 0, 0, 0)), nil
	case m == "syscall":
		return one(insts.RType(op, 0, 0, 0, 0)), nil
	case m == "break":
		code := int64(0)
		if len(ops) == 1 {
			v, err := b.evalExpr(ops[0].Expr)
			if err != nil {
				return nil, err
			}
			code = v
		}
		return one(insts.BreakInstruction(uint32(code))), nil
	case rriOps[m]:
		imm, err := b.evalExpr(ops[2].Expr)
		if err != nil {
			return nil, err
		}
		return one(insts.IType(op, ops[1].Reg, ops[0].Reg, int16(imm))), nil
	case m == "lui":
		imm, err := b.evalExpr(ops[1].Expr)
		if err != nil {
			return nil, err
		}
		return one(insts.IType(op, 0, ops[0].Reg, int16(imm))), nil
	case memOps[m]:
		rt := ops[0].Reg
		base := ops[1].Reg
		imm, err := b.evalExpr(ops[1].Expr)
		if err != nil {
			return nil, err
		}
		return one(insts.IType(op, base, rt, int16(imm))), nil
	case branch2Ops[m]:
		imm, err := b.branchImmediate(ops[2], byteOffset)
		if err != nil {
			return nil, err
		}
		return one(insts.IType(op, ops[0].Reg, ops[1].Reg, imm)), nil
	case branch1Ops[m]:
		imm, err := b.branchImmediate(ops[1], byteOffset)
		if err != nil {
			return nil, err
		}
		return one(insts.IType(op, ops[0].Reg, 0, imm)), nil
	case m == "j", m == "jal":
		return one(b.jumpInstruction(op, ops[0], byteOffset)), nil
	default:
		return nil, diag(ErrUnknownMnemonic, instr.Pos.Start, instr.Pos.End)
	}
}

func one(i insts.Instruction) []insts.Instruction { return []insts.Instruction{i} }

// branchImmediate resolves a branch's target operand to its 16-bit
// PC-relative offset (§4.5.1): either a bare numeric offset in
// instruction units, or a Text-section label resolved against byteOffset.
func (b *Builder) branchImmediate(target ast.Operand, byteOffset uint32) (int16, error) {
	name, isName := target.Expr.(ast.Name)
	if !isName {
		v, err := b.evalExpr(target.Expr)
		if err != nil {
			return 0, err
		}
		return int16(v), nil
	}
	sym, ok := b.symbols[name.Value]
	if !ok || sym.Location != obj.Text || sym.Kind == obj.Import {
		return 0, diag(ErrBranchOutOfText, name.Pos.Start, name.Pos.End)
	}
	imm := int64(sym.Offset)/4 - int64(byteOffset)/4 - 1
	return int16(imm), nil
}

// jumpInstruction resolves a j/jal target to its 26-bit pseudo-address,
// recording a JumpAddress relocation (same-module Text symbol) or
// reference (elsewhere) at the jump's own offset.
func (b *Builder) jumpInstruction(op insts.Op, target ast.Operand, byteOffset uint32) insts.Instruction {
	name, isName := target.Expr.(ast.Name)
	if !isName {
		v, _ := b.evalExpr(target.Expr)
		return insts.JType(op, uint32(v))
	}
	sym, ok := b.symbols[name.Value]
	if ok && sym.Location == obj.Text {
		b.relocations = append(b.relocations, obj.Relocation{
			Address: byteOffset, Section: obj.Text, Type: obj.JumpAddress,
		})
		pseudo := (sym.Offset & 0x0FFFFFFC) >> 2
		return insts.JType(op, pseudo)
	}
	var offset uint32
	if ok {
		offset = (sym.Offset & 0x0FFFFFFC) >> 2
	}
	strIdx := b.strings.Insert(name.Value)
	b.references = append(b.references, obj.Reference{
		Address: byteOffset, StrIdx: strIdx, Section: obj.Text,
		Method: obj.MethodReplace, Target: obj.TargetJumpAddress,
	})
	return insts.JType(op, offset)
}
