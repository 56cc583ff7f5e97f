package obj

// RelocType identifies how a relocation entry patches its target bytes
// once a section's base address becomes known.
type RelocType uint8

const (
	LowerImm RelocType = iota
	UpperImm
	SplitImm
	Word
	JumpAddress
)

func (t RelocType) String() string {
	switch t {
	case LowerImm:
		return "lower-imm"
	case UpperImm:
		return "upper-imm"
	case SplitImm:
		return "split-imm"
	case Word:
		return "word"
	case JumpAddress:
		return "jump-address"
	default:
		return "unknown-reloc"
	}
}

// Relocation is an intra-module fix-up: a byte offset within a section,
// to be patched by Type once that section's load address is known.
type Relocation struct {
	Address uint32
	Section Section
	Type    RelocType
}

// RelocationEntry is the 8-byte on-disk representation of a Relocation.
type RelocationEntry struct {
	Address uint32
	Section uint8
	Type    uint8
	_       uint8
	_       uint8
}

// ToEntry converts r to its wire form.
func (r Relocation) ToEntry() RelocationEntry {
	return RelocationEntry{Address: r.Address, Section: uint8(r.Section), Type: uint8(r.Type)}
}

// RelocationFromEntry converts a wire RelocationEntry back to a Relocation.
func RelocationFromEntry(e RelocationEntry) Relocation {
	return Relocation{Address: e.Address, Section: Section(e.Section), Type: RelocType(e.Type)}
}
