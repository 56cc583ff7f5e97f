package linker

import "github.com/r2k-toolchain/mips/obj"

func sectionLen(m *obj.Module, s obj.Section) uint32 {
	switch s {
	case obj.Text:
		return uint32(len(m.Text))
	case obj.RData:
		return uint32(len(m.RData))
	case obj.Data:
		return uint32(len(m.Data))
	case obj.SData:
		return uint32(len(m.SData))
	default:
		return 0
	}
}

// hasDefinition reports whether kind corresponds to a symbol that is
// actually defined in this module, as opposed to an unresolved import.
func hasDefinition(kind obj.SymbolKind) bool {
	return kind == obj.Local || kind == obj.Export
}

// Merge concatenates left and right's sections, summed bss sizes, a
// deduplicated string table, and rewritten symbol/relocation/reference
// tables, per §4.7. Relocation/reference addresses and label symbol
// offsets from right are displaced by the corresponding section's size
// in left; any Import symbol, from either side, whose name is defined in
// the merged table is dropped.
func Merge(left, right *obj.Module) *obj.Module {
	m := obj.NewModule()
	m.Text = append(append([]byte{}, left.Text...), right.Text...)
	m.RData = append(append([]byte{}, left.RData...), right.RData...)
	m.Data = append(append([]byte{}, left.Data...), right.Data...)
	m.SData = append(append([]byte{}, left.SData...), right.SData...)
	m.SBssSize = left.SBssSize + right.SBssSize
	m.BssSize = left.BssSize + right.BssSize

	for _, name := range left.Strings.Strings() {
		m.Strings.Insert(name)
	}
	for _, name := range right.Strings.Strings() {
		m.Strings.Insert(name)
	}

	definedNames := make(map[string]bool)

	for _, s := range left.Symbols {
		s.StringOffset = m.Strings.Insert(s.Name)
		m.Symbols = append(m.Symbols, s)
		if hasDefinition(s.Kind) {
			definedNames[s.Name] = true
		}
	}
	for _, s := range right.Symbols {
		if s.IsLabel {
			s.Offset += sectionLen(left, s.Location)
		}
		s.StringOffset = m.Strings.Insert(s.Name)
		if hasDefinition(s.Kind) {
			definedNames[s.Name] = true
		}
		m.Symbols = append(m.Symbols, s)
	}

	filtered := m.Symbols[:0]
	for _, s := range m.Symbols {
		if s.Kind == obj.Import && definedNames[s.Name] {
			continue
		}
		filtered = append(filtered, s)
	}
	m.Symbols = filtered

	m.Relocations = append(m.Relocations, left.Relocations...)
	for _, r := range right.Relocations {
		r.Address += sectionLen(left, r.Section)
		m.Relocations = append(m.Relocations, r)
	}

	for _, r := range left.References {
		name, _ := left.Strings.StringAt(r.StrIdx)
		r.StrIdx = m.Strings.Insert(name)
		m.References = append(m.References, r)
	}
	for _, r := range right.References {
		name, _ := right.Strings.StringAt(r.StrIdx)
		r.StrIdx = m.Strings.Insert(name)
		r.Address += sectionLen(left, r.Section)
		m.References = append(m.References, r)
	}

	return m
}
