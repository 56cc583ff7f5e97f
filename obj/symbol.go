package obj

// SymbolKind classifies a symbol's binding, derived from its wire flags.
type SymbolKind uint8

const (
	Local SymbolKind = iota
	Import
	Export
)

func (k SymbolKind) String() string {
	switch k {
	case Local:
		return "local"
	case Import:
		return "import"
	case Export:
		return "export"
	default:
		return "unknown-kind"
	}
}

// Symbol flag bits within SymbolEntry.Flags. Bits [3:0] hold the section
// number (see Section); the remaining bits are pinned here as part of
// this toolchain's binary contract.
const (
	symSectionMask uint32 = 0x0F
	SymDefLabel    uint32 = 1 << 4
	SymDefSeen     uint32 = 1 << 5
	SymGlobal      uint32 = 1 << 6
)

// SymbolEntry is the 12-byte on-disk representation of a symbol: a flags
// word, a value (byte offset within its section), and a string-table
// index naming it.
type SymbolEntry struct {
	Flags uint32
	Value uint32
	StrIdx uint32
}

// MakeSymbolFlags packs a section, label/seen/global bits into a flags
// word.
func MakeSymbolFlags(section Section, isLabel, seen, global bool) uint32 {
	flags := uint32(section) & symSectionMask
	if isLabel {
		flags |= SymDefLabel
	}
	if seen {
		flags |= SymDefSeen
	}
	if global {
		flags |= SymGlobal
	}
	return flags
}

// ParseSymbolFlags unpacks a flags word into its constituent bits.
func ParseSymbolFlags(flags uint32) (section Section, isLabel, seen, global bool) {
	section = Section(flags & symSectionMask)
	isLabel = flags&SymDefLabel != 0
	seen = flags&SymDefSeen != 0
	global = flags&SymGlobal != 0
	return
}

// KindFromFlags derives the logical Local/Import/Export kind from the
// seen/global bits: Import is global-but-unseen, Export is
// global-and-seen, Local is seen-but-not-global.
func KindFromFlags(seen, global bool) SymbolKind {
	switch {
	case global && !seen:
		return Import
	case global && seen:
		return Export
	default:
		return Local
	}
}

// Symbol is the assembler/linker's in-memory view of a symbol: a name
// (held in a StringTable), its binding, and its location.
type Symbol struct {
	Name         string
	Location     Section
	Offset       uint32
	StringOffset uint32
	Kind         SymbolKind
	// IsLabel marks this symbol as addressing code/data (as opposed to a
	// purely absolute value); the linker adjusts a label's Offset by its
	// section's base displacement when merging modules, where the flag
	// is preserved across the SymbolEntry's Flags word.
	IsLabel bool
}

// ToEntry converts a Symbol to its wire SymbolEntry form.
func (s Symbol) ToEntry() SymbolEntry {
	global := s.Kind == Import || s.Kind == Export
	seen := s.Kind == Local || s.Kind == Export
	return SymbolEntry{
		Flags:  MakeSymbolFlags(s.Location, s.IsLabel, seen, global),
		Value:  s.Offset,
		StrIdx: s.StringOffset,
	}
}

// SymbolFromEntry converts a wire SymbolEntry (plus its resolved name)
// back to a Symbol.
func SymbolFromEntry(e SymbolEntry, name string) Symbol {
	section, isLabel, seen, global := ParseSymbolFlags(e.Flags)
	return Symbol{
		Name:         name,
		Location:     section,
		Offset:       e.Value,
		StringOffset: e.StrIdx,
		Kind:         KindFromFlags(seen, global),
		IsLabel:      isLabel,
	}
}
