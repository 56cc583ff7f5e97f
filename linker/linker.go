// Package linker merges assembled OBJ modules, applies relocations and
// resolves symbol references against fixed load addresses, and produces
// a load module ready for the simulator (§4.7).
package linker

import (
	"strings"

	"github.com/r2k-toolchain/mips/logging"
	"github.com/r2k-toolchain/mips/obj"
)

// Link merges mods in order, relocates and resolves the result, links in
// the startup stub if no module defines __start, and finalises the load
// module's entry point. log may be nil.
func Link(mods []*obj.Module, log *logging.Logger) (*obj.Module, error) {
	log = logging.OrDefault(log)
	if len(mods) == 0 {
		return obj.NewModule(), nil
	}

	merged := mods[0]
	for _, m := range mods[1:] {
		merged = Merge(merged, m)
	}

	if err := ApplyRelocations(merged); err != nil {
		return nil, err
	}
	unresolved, err := ResolveReferences(merged)
	if err != nil {
		return nil, err
	}

	if !definesStart(merged) {
		merged = Merge(merged, StartupStub())
		if err := ApplyRelocations(merged); err != nil {
			return nil, err
		}
		unresolved, err = ResolveReferences(merged)
		if err != nil {
			return nil, err
		}
	}

	finalizeEntry(merged, unresolved, log)
	return merged, nil
}

func definesStart(m *obj.Module) bool {
	for _, s := range m.Symbols {
		if s.Name == "__start" && hasDefinition(s.Kind) {
			return true
		}
	}
	return false
}

// finalizeEntry sets m.Entry per §4.7's load-module finalisation rule.
func finalizeEntry(m *obj.Module, unresolved []string, log *logging.Logger) {
	if len(m.References) > 0 {
		m.Entry = 0
		log.Info("unresolved references remain: %s", strings.Join(unresolved, ", "))
		return
	}
	for _, s := range m.Symbols {
		if s.Name == "__start" && hasDefinition(s.Kind) {
			m.Entry = obj.TextOffset + s.Offset
			return
		}
	}
	m.Entry = obj.TextOffset
}
