package linker

import (
	"fmt"

	"github.com/r2k-toolchain/mips/obj"
)

// ResolveReferences resolves every reference in m whose symbol is now
// defined (§4.7), patching the target bytes and removing the entry.
// Unresolved references (symbol still External, or simply absent) are
// left in m.References, and their symbol names are returned for logging.
func ResolveReferences(m *obj.Module) ([]string, error) {
	byName := make(map[string]obj.Symbol, len(m.Symbols))
	for _, s := range m.Symbols {
		byName[s.Name] = s
	}

	var remaining []obj.Reference
	var unresolved []string

	for _, r := range m.References {
		name, _ := m.Strings.StringAt(r.StrIdx)
		sym, ok := byName[name]
		if !ok || sym.Location == obj.External {
			remaining = append(remaining, r)
			unresolved = append(unresolved, name)
			continue
		}

		var symbolValue uint32
		switch sym.Location {
		case obj.Undefined, obj.Absolute:
			symbolValue = sym.Offset
		default:
			symbolValue = sym.Offset + m.SectionBase(sym.Location)
		}

		buf := sectionBuf(m, r.Section)
		if err := applyReference(buf, r, symbolValue); err != nil {
			return nil, err
		}
	}

	m.References = remaining
	return unresolved, nil
}

func applyReference(buf []byte, r obj.Reference, symbolValue uint32) error {
	switch r.Target {
	case obj.TargetImm:
		existing := uint32(be16(buf, r.Address+2))
		result := combineRef(r.Method, existing, symbolValue&0xFFFF)
		putBE16(buf, r.Address+2, uint16(result))
	case obj.TargetHalfWord:
		existing := uint32(be16(buf, r.Address))
		result := combineRef(r.Method, existing, symbolValue&0xFFFF)
		putBE16(buf, r.Address, uint16(result))
	case obj.TargetSplitImm:
		existing := uint32(be16(buf, r.Address+2))<<16 | uint32(be16(buf, r.Address+6))
		result := combineRef(r.Method, existing, symbolValue)
		putBE16(buf, r.Address+2, uint16(result>>16))
		putBE16(buf, r.Address+6, uint16(result))
	case obj.TargetWord:
		existing := be32(buf, r.Address)
		result := combineRef(r.Method, existing, symbolValue)
		putBE32(buf, r.Address, result)
	case obj.TargetJumpAddress:
		word := be32(buf, r.Address)
		existing := word & 0x03FFFFFF
		computed := (symbolValue & 0x0FFFFFFC) >> 2
		result := combineRef(r.Method, existing, computed) & 0x03FFFFFF
		putBE32(buf, r.Address, (word&0xFC000000)|result)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownRefTarget, r.Target)
	}
	return nil
}

// combineRef folds a reference's computed patch value into the bytes
// already present at its target, per method.
func combineRef(method obj.RefMethod, existing, computed uint32) uint32 {
	switch method {
	case obj.MethodAdd:
		return existing + computed
	case obj.MethodSubtract:
		return computed - existing
	default: // MethodReplace
		return computed
	}
}
