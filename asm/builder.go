package asm

import (
	"github.com/r2k-toolchain/mips/logging"
	"github.com/r2k-toolchain/mips/obj"
)

// Builder holds the mutable state threaded through both assembler
// passes: the active section and its auto-align switch, the constants
// and symbol tables, the data-bearing section buffers, and the
// relocation/reference/string tables that pass 2 drains into an
// ir.Program.
type Builder struct {
	log *logging.Logger

	section   obj.Section
	autoAlign bool

	// pendingLabel names the most recently seen label not yet followed
	// by a non-ConstantDef item; it anchors to the next aligning
	// directive's padded offset (§4.5, the pending-label buffer).
	pendingLabel string
	hasPending   bool

	constants map[string]int64
	symbols   map[string]*obj.Symbol

	rdata []byte
	data  []byte
	sdata []byte

	sbssSize uint32
	bssSize  uint32

	// textWordIndex is the running word count of the text stream as
	// pass 1 walks it: it advances once per emitted instruction (scaled
	// by its expanded size) and once per literal word recorded via a
	// text-section .word directive.
	textWordIndex uint32
	textWords     map[uint32][]uint32

	relocations []obj.Relocation
	references  []obj.Reference
	strings     *obj.StringTable
}

// NewBuilder returns a Builder ready for pass1, logging warnings through
// log (a nil log discards them).
func NewBuilder(log *logging.Logger) *Builder {
	if log == nil {
		log = logging.New(discardWriter{}, logging.LevelError+1)
	}
	return &Builder{
		log:       log,
		section:   obj.Text,
		autoAlign: true,
		constants: make(map[string]int64),
		symbols:   make(map[string]*obj.Symbol),
		textWords: make(map[uint32][]uint32),
		strings:   obj.NewStringTable(),
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// resetForPass2 restores the section, auto-align switch and pending
// label to their initial state and rewinds textWordIndex to 0, so pass 2
// re-derives the same section switches and the same word offsets pass 1
// used as textWords keys.
func (b *Builder) resetForPass2() {
	b.section = obj.Text
	b.autoAlign = true
	b.pendingLabel = ""
	b.hasPending = false
	b.textWordIndex = 0
}

// currentOffset returns the current byte offset within b.section.
func (b *Builder) currentOffset() uint32 {
	switch b.section {
	case obj.Text:
		return b.textWordIndex * 4
	case obj.Data:
		return uint32(len(b.data))
	case obj.RData:
		return uint32(len(b.rdata))
	case obj.SData:
		return uint32(len(b.sdata))
	default:
		return 0
	}
}

// sectionBuf returns a pointer to the byte slice backing b.section, or
// nil for Text (tracked by word index, not a byte buffer) or a section
// that cannot hold bytes.
func (b *Builder) sectionBuf() *[]byte {
	switch b.section {
	case obj.Data:
		return &b.data
	case obj.RData:
		return &b.rdata
	case obj.SData:
		return &b.sdata
	default:
		return nil
	}
}

func (b *Builder) appendBytes(p []byte) {
	buf := b.sectionBuf()
	*buf = append(*buf, p...)
}

func (b *Builder) clearPendingLabel() {
	b.pendingLabel = ""
	b.hasPending = false
}

// bumpPendingLabel shifts the pending label's recorded offset by pad,
// used when an aligning directive pads the section it anchors to.
func (b *Builder) bumpPendingLabel(pad uint32) {
	if !b.hasPending {
		return
	}
	if sym, ok := b.symbols[b.pendingLabel]; ok {
		sym.Offset += pad
	}
}

// defineLabel records name at the current section/offset, applying the
// Import -> Export promotion rule.
func (b *Builder) defineLabel(name string, pos int) error {
	offset := b.currentOffset()
	if existing, ok := b.symbols[name]; ok {
		if existing.Kind == obj.Import {
			existing.Kind = obj.Export
			existing.Location = b.section
			existing.Offset = offset
			b.pendingLabel = name
			b.hasPending = true
			return nil
		}
		return diag(ErrDuplicateDefinition, pos, pos)
	}
	b.symbols[name] = &obj.Symbol{
		Name:     name,
		Location: b.section,
		Offset:   offset,
		Kind:     obj.Local,
		IsLabel:  true,
	}
	b.pendingLabel = name
	b.hasPending = true
	return nil
}

// wordValueFor looks up name and reports whether it lives in the current
// section ("local": its section offset is returned, handled by a
// Relocation) or elsewhere ("foreign": value 0, handled by a Reference
// with method Replace); ok is false for an unknown name.
func (b *Builder) wordValueFor(name string) (value uint32, local bool, ok bool) {
	sym, found := b.symbols[name]
	if !found {
		return 0, false, false
	}
	if sym.Location == b.section {
		return sym.Offset, true, true
	}
	return 0, false, true
}
