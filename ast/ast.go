// Package ast defines the abstract program the assembly parser emits.
// Per this toolchain's design, the concrete grammar of the assembly
// surface language is an external collaborator's concern (see the
// sibling parser package); the assembler (package asm) consumes only
// these types.
package ast

// Span locates an item or expression in the source text for
// diagnostics. The parser package fills Start with the 1-based line and
// End with the 1-based column of the first token; it is not a byte range.
type Span struct {
	Start, End int
}

// Program is the parser's complete output: an ordered list of items.
type Program struct {
	Items []Item
}

// Item is one of ConstantDef, Directive, Label, Instruction.
type Item interface {
	itemSpan() Span
}

// ConstantDef binds name to the value of Expr, evaluated against the
// constants known so far.
type ConstantDef struct {
	Name string
	Expr Expr
	Pos  Span
}

func (c ConstantDef) itemSpan() Span { return c.Pos }

// Label declares name at the current offset of the current section.
type Label struct {
	Name string
	Pos  Span
}

func (l Label) itemSpan() Span { return l.Pos }

// Directive is an assembler directive (".text", ".word", ".globl", ...)
// together with whichever of its argument forms applies.
type Directive struct {
	Name string
	Pos  Span

	// .align N / .space K
	IntArg Expr

	// .byte / .half
	Values []Expr

	// .word: each entry is either a numeric expression or a bare symbol
	// name, with an optional repeat count (nil means 1).
	Words []WordValue

	// .globl NAME
	Ident string

	// .ascii / .asciiz: the raw (still-escaped) string body.
	StringArg string
}

func (d Directive) itemSpan() Span { return d.Pos }

// WordValue is one operand of a .word directive.
type WordValue struct {
	Value      Expr   // set when !IsSymbol
	SymbolName string // set when IsSymbol
	IsSymbol   bool
	Repeat     Expr // nil means repeat once
}

// Instruction is a real or pseudo machine instruction with its operand
// list, as written in the source (register names not yet resolved to
// the ABI numbering is the parser's job, not the assembler's).
type Instruction struct {
	Mnemonic string
	Operands []Operand
	Pos      Span
}

func (i Instruction) itemSpan() Span { return i.Pos }

// OperandKind distinguishes the shape of an Instruction operand.
type OperandKind uint8

const (
	OperandRegister OperandKind = iota
	// OperandImmediate also covers bare label/constant references: a
	// single ast.Name expression that the assembler resolves against
	// either the constants map or the symbol table depending on
	// context.
	OperandImmediate
	OperandMemory // offset(base-register), e.g. lw $t0, 4($sp)
)

// Operand is one operand of an Instruction.
type Operand struct {
	Kind OperandKind

	Reg uint8 // OperandRegister, and the base of OperandMemory

	Expr Expr // OperandImmediate, and the offset of OperandMemory
}
