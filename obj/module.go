package obj

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Magic identifies an OBJ byte stream.
const Magic uint16 = 0xFACE

// Version identifies the header's encoding generation. Two encodings are
// recognised on read; this toolchain always writes Version1.
type Version uint16

const (
	Version1 Version = 0x0F22
	Version2 Version = 0x18DC
)

const (
	relocationEntrySize = 8
	referenceEntrySize  = 12
	symbolEntrySize     = 12
	headerSize          = 2 + 2 + 4 + 4 + 4*10
)

// Module is a fully decoded OBJ container: header fields, the four
// data-bearing sections, the two size-only BSS sections, and the
// relocation/reference/symbol/string tables.
type Module struct {
	Version Version
	Flags   uint32
	Entry   uint32

	Text  []byte
	RData []byte
	Data  []byte
	SData []byte

	SBssSize uint32
	BssSize  uint32

	Relocations []Relocation
	References  []Reference
	Symbols     []Symbol
	Strings     *StringTable
}

// NewModule returns an empty, non-load module.
func NewModule() *Module {
	return &Module{Version: Version1, Strings: NewStringTable()}
}

// IsLoadModule reports whether m is a load module: a nonzero entry point
// with no outstanding relocations or references.
func (m *Module) IsLoadModule() bool {
	return m.Entry != 0 && len(m.Relocations) == 0 && len(m.References) == 0
}

func sectionBytes(m *Module, s Section) []byte {
	switch s {
	case Text:
		return m.Text
	case RData:
		return m.RData
	case Data:
		return m.Data
	case SData:
		return m.SData
	default:
		return nil
	}
}

// Write serialises m to its bit-exact OBJ byte form.
func (m *Module) Write() []byte {
	var buf bytes.Buffer

	sizes := [10]uint32{
		uint32(len(m.Text)), uint32(len(m.RData)), uint32(len(m.Data)), uint32(len(m.SData)),
		m.SBssSize, m.BssSize,
		uint32(len(m.Relocations)), uint32(len(m.References)), uint32(len(m.Symbols)),
		m.Strings.Size(),
	}

	binary.Write(&buf, binary.BigEndian, Magic)
	binary.Write(&buf, binary.BigEndian, uint16(Version1))
	binary.Write(&buf, binary.BigEndian, m.Flags)
	binary.Write(&buf, binary.BigEndian, m.Entry)
	for _, sz := range sizes {
		binary.Write(&buf, binary.BigEndian, sz)
	}

	buf.Write(m.Text)
	buf.Write(m.RData)
	buf.Write(m.Data)
	buf.Write(m.SData)
	// SBss/Bss: size only, no bytes.

	for _, r := range m.Relocations {
		e := r.ToEntry()
		binary.Write(&buf, binary.BigEndian, e.Address)
		buf.WriteByte(e.Section)
		buf.WriteByte(e.Type)
		buf.WriteByte(0)
		buf.WriteByte(0)
	}

	for _, r := range m.References {
		e := r.ToEntry()
		binary.Write(&buf, binary.BigEndian, e.Address)
		binary.Write(&buf, binary.BigEndian, e.StrIdx)
		buf.WriteByte(e.Section)
		buf.WriteByte(e.RefType)
		buf.WriteByte(0)
		buf.WriteByte(0)
	}

	for _, s := range m.Symbols {
		e := s.ToEntry()
		binary.Write(&buf, binary.BigEndian, e.Flags)
		binary.Write(&buf, binary.BigEndian, e.Value)
		binary.Write(&buf, binary.BigEndian, e.StrIdx)
	}

	buf.Write(m.Strings.AsBytes())

	return buf.Bytes()
}

// Read parses data into a Module. It fails with ErrInvalidModule if the
// magic or version do not match a recognised encoding.
func Read(data []byte) (*Module, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: truncated header", ErrInvalidModule)
	}
	r := bytes.NewReader(data)

	var magic uint16
	binary.Read(r, binary.BigEndian, &magic)
	if magic != Magic {
		return nil, fmt.Errorf("%w: bad magic %#04x", ErrInvalidModule, magic)
	}

	var version uint16
	binary.Read(r, binary.BigEndian, &version)
	if Version(version) != Version1 && Version(version) != Version2 {
		return nil, fmt.Errorf("%w: unrecognised version %#04x", ErrInvalidModule, version)
	}

	m := &Module{Version: Version(version), Strings: NewStringTable()}
	binary.Read(r, binary.BigEndian, &m.Flags)
	binary.Read(r, binary.BigEndian, &m.Entry)

	var sizes [10]uint32
	for i := range sizes {
		binary.Read(r, binary.BigEndian, &sizes[i])
	}

	readBytes := func(n uint32) ([]byte, error) {
		b := make([]byte, n)
		if _, err := r.Read(b); err != nil && n > 0 {
			return nil, fmt.Errorf("%w: %v", ErrInvalidModule, err)
		}
		return b, nil
	}

	var err error
	if m.Text, err = readBytes(sizes[0]); err != nil {
		return nil, err
	}
	if m.RData, err = readBytes(sizes[1]); err != nil {
		return nil, err
	}
	if m.Data, err = readBytes(sizes[2]); err != nil {
		return nil, err
	}
	if m.SData, err = readBytes(sizes[3]); err != nil {
		return nil, err
	}
	m.SBssSize = sizes[4]
	m.BssSize = sizes[5]

	relocCount, refCount, symCount, strBytes := sizes[6], sizes[7], sizes[8], sizes[9]

	m.Relocations = make([]Relocation, 0, relocCount)
	for i := uint32(0); i < relocCount; i++ {
		var e RelocationEntry
		binary.Read(r, binary.BigEndian, &e.Address)
		e.Section, _ = r.ReadByte()
		e.Type, _ = r.ReadByte()
		r.ReadByte()
		r.ReadByte()
		m.Relocations = append(m.Relocations, RelocationFromEntry(e))
	}

	m.References = make([]Reference, 0, refCount)
	for i := uint32(0); i < refCount; i++ {
		var e ReferenceEntry
		binary.Read(r, binary.BigEndian, &e.Address)
		binary.Read(r, binary.BigEndian, &e.StrIdx)
		e.Section, _ = r.ReadByte()
		e.RefType, _ = r.ReadByte()
		r.ReadByte()
		r.ReadByte()
		m.References = append(m.References, ReferenceFromEntry(e))
	}

	rawSymbols := make([]SymbolEntry, 0, symCount)
	for i := uint32(0); i < symCount; i++ {
		var e SymbolEntry
		binary.Read(r, binary.BigEndian, &e.Flags)
		binary.Read(r, binary.BigEndian, &e.Value)
		binary.Read(r, binary.BigEndian, &e.StrIdx)
		rawSymbols = append(rawSymbols, e)
	}

	strBuf, err := readBytes(strBytes)
	if err != nil {
		return nil, err
	}
	m.Strings = ParseStringTable(strBuf)

	m.Symbols = make([]Symbol, 0, len(rawSymbols))
	for _, e := range rawSymbols {
		name, _ := m.Strings.StringAt(e.StrIdx)
		m.Symbols = append(m.Symbols, SymbolFromEntry(e, name))
	}

	return m, nil
}
