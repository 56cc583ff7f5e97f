package linker

import (
	"fmt"

	"github.com/r2k-toolchain/mips/obj"
)

// sectionBuf returns the mutable byte slice backing section s within m,
// or nil for sections with no inline bytes.
func sectionBuf(m *obj.Module, s obj.Section) []byte {
	switch s {
	case obj.Text:
		return m.Text
	case obj.RData:
		return m.RData
	case obj.Data:
		return m.Data
	case obj.SData:
		return m.SData
	default:
		return nil
	}
}

func be16(b []byte, off uint32) uint16 {
	return uint16(b[off])<<8 | uint16(b[off+1])
}

func putBE16(b []byte, off uint32, v uint16) {
	b[off] = byte(v >> 8)
	b[off+1] = byte(v)
}

func be32(b []byte, off uint32) uint32 {
	return uint32(b[off])<<24 | uint32(b[off+1])<<16 | uint32(b[off+2])<<8 | uint32(b[off+3])
}

func putBE32(b []byte, off uint32, v uint32) {
	b[off] = byte(v >> 24)
	b[off+1] = byte(v >> 16)
	b[off+2] = byte(v >> 8)
	b[off+3] = byte(v)
}

// ApplyRelocations patches every relocation in m against the section base
// addresses now known from m's own layout (§4.7), then clears the
// relocation list.
func ApplyRelocations(m *obj.Module) error {
	for _, r := range m.Relocations {
		base := m.SectionBase(r.Section)
		buf := sectionBuf(m, r.Section)
		if err := applyRelocation(buf, r, base); err != nil {
			return err
		}
	}
	m.Relocations = nil
	return nil
}

func applyRelocation(buf []byte, r obj.Relocation, base uint32) error {
	switch r.Type {
	case obj.LowerImm:
		cur := be16(buf, r.Address+2)
		putBE16(buf, r.Address+2, cur+uint16(base&0xFFFF))
	case obj.UpperImm:
		cur := be16(buf, r.Address+2)
		putBE16(buf, r.Address+2, cur+uint16((base>>16)&0xFFFF))
	case obj.SplitImm:
		upper := be16(buf, r.Address+2)
		putBE16(buf, r.Address+2, upper+uint16(base>>16))
		lower := be16(buf, r.Address+6)
		putBE16(buf, r.Address+6, lower+uint16(base&0xFFFF))
	case obj.Word:
		cur := be32(buf, r.Address)
		putBE32(buf, r.Address, cur+base)
	case obj.JumpAddress:
		word := be32(buf, r.Address)
		pseudo := word & 0x03FFFFFF
		newPseudo := (pseudo + ((base & 0x0FFFFFFC) >> 2)) & 0x03FFFFFF
		putBE32(buf, r.Address, (word&0xFC000000)|newPseudo)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownRelocType, r.Type)
	}
	return nil
}
