// Package ir is the assembler's in-memory intermediate representation:
// the typed instruction stream and data sections produced by the two
// assembly passes, ready for lowering into an obj.Module.
package ir

import (
	"github.com/r2k-toolchain/mips/insts"
	"github.com/r2k-toolchain/mips/obj"
)

// Program is the complete output of the assembler core.
type Program struct {
	Text  []insts.Instruction
	RData []byte
	Data  []byte
	SData []byte

	SBssSize uint32
	BssSize  uint32

	Symbols     map[string]*obj.Symbol
	Relocations []obj.Relocation
	References  []obj.Reference
	Strings     *obj.StringTable
}

// NewProgram returns an empty Program ready for the assembler's two
// passes.
func NewProgram() *Program {
	return &Program{
		Symbols: make(map[string]*obj.Symbol),
		Strings: obj.NewStringTable(),
	}
}

// TextByteLen returns the current text section length in bytes (4 bytes
// per emitted instruction).
func (p *Program) TextByteLen() uint32 {
	return uint32(len(p.Text)) * 4
}
