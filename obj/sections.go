// Package obj implements the bit-exact OBJ container format shared by
// the assembler, linker and simulator: a header, ten fixed-order
// sections, and the relocation/reference/symbol/string tables.
package obj

// Section identifies one of the module's ten sections. The numeric value
// is part of the binary contract (§4.2) and must not be renumbered.
type Section uint8

const (
	Undefined Section = 0
	Text      Section = 1
	RData     Section = 2
	Data      Section = 3
	SData     Section = 4
	SBss      Section = 5
	Bss       Section = 6
	Absolute  Section = 7
	External  Section = 8
)

var sectionNames = map[Section]string{
	Undefined: "undefined", Text: "text", RData: "rdata", Data: "data",
	SData: "sdata", SBss: "sbss", Bss: "bss", Absolute: "absolute",
	External: "external",
}

func (s Section) String() string {
	if name, ok := sectionNames[s]; ok {
		return name
	}
	return "unknown-section"
}

// dataBearing reports whether a section stores raw bytes inline in the
// module (true for Text/RData/Data/SData) as opposed to only a size
// (SBss/Bss).
func dataBearing(s Section) bool {
	switch s {
	case Text, RData, Data, SData:
		return true
	default:
		return false
	}
}

// Fixed load addresses a load module's sections are placed at (§4.7/§4.8).
const (
	TextOffset uint32 = 0x00400000
	DataOffset uint32 = 0x10000000
)

// StackBottom is the initial stack pointer value given to a fresh
// simulator process.
const StackBottom uint32 = 0x7FFFEFFF

// SectionBase returns the load address of section s within m, given the
// fixed TextOffset/DataOffset scheme: rdata, data and sdata are packed
// back-to-back after DataOffset in that order.
func (m *Module) SectionBase(s Section) uint32 {
	switch s {
	case Text:
		return TextOffset
	case RData:
		return DataOffset
	case Data:
		return DataOffset + uint32(len(m.RData))
	case SData:
		return DataOffset + uint32(len(m.RData)) + uint32(len(m.Data))
	default:
		return 0
	}
}
