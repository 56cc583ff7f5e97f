package asm

import (
	"github.com/r2k-toolchain/mips/ast"
	"github.com/r2k-toolchain/mips/insts"
	"github.com/r2k-toolchain/mips/ir"
	"github.com/r2k-toolchain/mips/logging"
	"github.com/r2k-toolchain/mips/obj"
)

// Assemble runs both passes over prog and returns the resulting IR
// program, or the first diagnostic encountered.
func Assemble(prog *ast.Program, log *logging.Logger) (*ir.Program, error) {
	b := NewBuilder(log)
	if err := b.pass1(prog); err != nil {
		return nil, err
	}
	text, err := b.pass2(prog)
	if err != nil {
		return nil, err
	}
	out := ir.NewProgram()
	out.Text = text
	out.RData = b.rdata
	out.Data = b.data
	out.SData = b.sdata
	out.SBssSize = b.sbssSize
	out.BssSize = b.bssSize
	out.Symbols = b.symbols
	out.Relocations = b.relocations
	out.References = b.references
	out.Strings = b.strings
	return out, nil
}

// pass1 discovers symbols, evaluates constants, fully materialises the
// data sections, and accounts for the text stream's expanded size.
func (b *Builder) pass1(prog *ast.Program) error {
	for _, item := range prog.Items {
		switch v := item.(type) {
		case ast.ConstantDef:
			val, err := b.evalExpr(v.Expr)
			if err != nil {
				return err
			}
			b.constants[v.Name] = val
		case ast.Label:
			if err := b.defineLabel(v.Name, v.Pos.Start); err != nil {
				return err
			}
		case ast.Directive:
			if err := b.handleDirectivePass1(v); err != nil {
				return err
			}
		case ast.Instruction:
			size, err := b.expandedSize(v)
			if err != nil {
				return err
			}
			b.textWordIndex += size
			b.clearPendingLabel()
		}
	}
	return nil
}

// pass2 re-walks prog, emitting the final instruction stream, flushing
// deferred text_words immediately before each instruction (and after the
// last one, for any trailing entries), and lowering every instruction
// via pseudo expansion.
func (b *Builder) pass2(prog *ast.Program) ([]insts.Instruction, error) {
	b.resetForPass2()
	var text []insts.Instruction

	flush := func() {
		for _, w := range b.textWords[b.textWordIndex] {
			text = append(text, insts.WordInstruction(w))
		}
		delete(b.textWords, b.textWordIndex)
		b.textWordIndex++
	}

	for _, item := range prog.Items {
		switch v := item.(type) {
		case ast.ConstantDef, ast.Label:
			// Already processed in pass 1; no section/offset effect.
		case ast.Directive:
			if err := b.handleDirectivePass2(v); err != nil {
				return nil, err
			}
		case ast.Instruction:
			for len(b.textWords[b.textWordIndex]) > 0 {
				flush()
			}
			byteOffset := b.textWordIndex * 4
			lowered, err := b.lowerInstruction(v, byteOffset)
			if err != nil {
				return nil, err
			}
			text = append(text, lowered...)
			b.textWordIndex += uint32(len(lowered))
		}
	}
	// Trailing text_words with no following instruction.
	for len(b.textWords) > 0 {
		if _, ok := b.textWords[b.textWordIndex]; !ok {
			break
		}
		flush()
	}
	return text, nil
}

// Lower materialises a completed IR program into an obj.Module (C6):
// encoding instructions, copying data sections verbatim, and converting
// the symbol/relocation/reference tables to their wire form.
func Lower(p *ir.Program) (*obj.Module, error) {
	m := obj.NewModule()
	m.RData = p.RData
	m.Data = p.Data
	m.SData = p.SData
	m.SBssSize = p.SBssSize
	m.BssSize = p.BssSize
	m.Relocations = p.Relocations
	m.References = p.References
	m.Strings = p.Strings

	text := make([]byte, 0, len(p.Text)*4)
	for _, instr := range p.Text {
		word, err := insts.Encode(instr)
		if err != nil {
			return nil, err
		}
		text = append(text, byte(word>>24), byte(word>>16), byte(word>>8), byte(word))
	}
	m.Text = text

	for _, sym := range p.Symbols {
		s := *sym
		if _, ok := m.Strings.GetOffset(s.Name); !ok {
			m.Strings.Insert(s.Name)
		}
		off, _ := m.Strings.GetOffset(s.Name)
		s.StringOffset = off
		m.Symbols = append(m.Symbols, s)
	}
	return m, nil
}
