// Package asm implements the two-pass assembler core: lowering a parsed
// ast.Program into an ir.Program (pseudo-instruction expansion, symbol
// resolution, relocation/reference emission), and lowering that IR into
// an obj.Module.
package asm

import (
	"errors"
	"fmt"
)

// Sentinel error kinds, matched with errors.Is against the wrapped
// diagnostic returned from Assemble.
var (
	ErrUnknownConstant     = errors.New("asm: unknown constant")
	ErrDuplicateDefinition = errors.New("asm: duplicate definition")
	ErrBadDirective        = errors.New("asm: directive not valid in this section")
	ErrBranchOutOfText     = errors.New("asm: branch target is not in the text section")
	ErrInvalidEscape       = errors.New("asm: invalid escape sequence")
	ErrNonASCII            = errors.New("asm: non-ASCII string literal")
	ErrAlignTooLarge       = errors.New("asm: alignment too large for the text section")
	ErrUnknownSymbol       = errors.New("asm: unknown symbol")
	ErrUnknownMnemonic     = errors.New("asm: unknown mnemonic")
)

// Diagnostic wraps an error with the source span it occurred at.
type Diagnostic struct {
	Err   error
	Start int
	End   int
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%v (span %d-%d)", d.Err, d.Start, d.End)
}

func (d *Diagnostic) Unwrap() error { return d.Err }

func diag(err error, start, end int) error {
	return &Diagnostic{Err: err, Start: start, End: end}
}
