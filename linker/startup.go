package linker

import (
	"sync"

	"github.com/r2k-toolchain/mips/asm"
	"github.com/r2k-toolchain/mips/obj"
	"github.com/r2k-toolchain/mips/parser"
)

// startupSource is r2k_startup.s (C11): the minimal program providing
// __start when a linked program's own modules define none. It performs a
// clean exit(0), so a program lacking an entry point simply does nothing
// rather than crashing on an undefined-PC fetch.
const startupSource = `
	.text
	.globl __start
__start:
	li	$v0, 17
	li	$a0, 0
	syscall
`

var (
	startupOnce   sync.Once
	startupModule *obj.Module
)

// StartupStub returns the pre-assembled r2k_startup.obj module, assembling
// it from startupSource on first use and caching the result.
func StartupStub() *obj.Module {
	startupOnce.Do(func() {
		prog, err := parser.Parse(startupSource, "r2k_startup.s")
		if err != nil {
			panic("linker: r2k_startup.s failed to parse: " + err.Error())
		}
		ir, err := asm.Assemble(prog, nil)
		if err != nil {
			panic("linker: r2k_startup.s failed to assemble: " + err.Error())
		}
		mod, err := asm.Lower(ir)
		if err != nil {
			panic("linker: r2k_startup.s failed to lower: " + err.Error())
		}
		startupModule = mod
	})
	return startupModule
}
