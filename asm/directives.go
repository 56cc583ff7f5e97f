package asm

import (
	"strings"

	"github.com/r2k-toolchain/mips/ast"
	"github.com/r2k-toolchain/mips/obj"
)

// handleDirectivePass1 grows data sections, switches the active
// section, and records symbol-bearing .word entries; it never emits
// instruction text (§4.5).
func (b *Builder) handleDirectivePass1(d ast.Directive) error {
	switch d.Name {
	case ".text":
		b.section, b.autoAlign = obj.Text, true
		b.clearPendingLabel()
	case ".data":
		b.section, b.autoAlign = obj.Data, true
		b.clearPendingLabel()
	case ".rdata":
		b.section, b.autoAlign = obj.RData, true
		b.clearPendingLabel()
	case ".sdata":
		b.section, b.autoAlign = obj.SData, true
		b.clearPendingLabel()
	case ".globl":
		if err := b.handleGlobl(d); err != nil {
			return err
		}
	case ".align":
		if err := b.handleAlign(d); err != nil {
			return err
		}
	case ".space":
		if b.section == obj.Text {
			return diag(ErrBadDirective, d.Pos.Start, d.Pos.End)
		}
		n, err := b.evalExpr(d.IntArg)
		if err != nil {
			return err
		}
		b.appendBytes(make([]byte, n))
		b.clearPendingLabel()
	case ".byte":
		if b.section == obj.Text {
			return diag(ErrBadDirective, d.Pos.Start, d.Pos.End)
		}
		for _, e := range d.Values {
			v, err := b.evalExpr(e)
			if err != nil {
				return err
			}
			if v < -128 || v > 255 {
				b.log.Warn("truncating .byte value %d to 8 bits", v)
			}
			b.appendBytes([]byte{byte(v)})
		}
		b.clearPendingLabel()
	case ".half":
		if b.section == obj.Text {
			return diag(ErrBadDirective, d.Pos.Start, d.Pos.End)
		}
		if b.autoAlign {
			b.alignTo(1)
		}
		for _, e := range d.Values {
			v, err := b.evalExpr(e)
			if err != nil {
				return err
			}
			if v < -32768 || v > 65535 {
				b.log.Warn("truncating .half value %d to 16 bits", v)
			}
			b.appendBytes([]byte{byte(v >> 8), byte(v)})
		}
		b.clearPendingLabel()
	case ".word":
		if err := b.handleWordPass1(d); err != nil {
			return err
		}
	case ".ascii", ".asciiz":
		if b.section == obj.Text {
			return diag(ErrBadDirective, d.Pos.Start, d.Pos.End)
		}
		raw, err := unescapeString(d.StringArg)
		if err != nil {
			return diag(err, d.Pos.Start, d.Pos.End)
		}
		b.appendBytes([]byte(raw))
		if d.Name == ".asciiz" {
			b.appendBytes([]byte{0})
		}
		b.clearPendingLabel()
	}
	return nil
}

// handleDirectivePass2 replays only the section/offset bookkeeping a
// directive affects; the byte content of data sections was already
// produced by pass 1 and must not be appended again.
func (b *Builder) handleDirectivePass2(d ast.Directive) error {
	switch d.Name {
	case ".text":
		b.section, b.autoAlign = obj.Text, true
	case ".data":
		b.section, b.autoAlign = obj.Data, true
	case ".rdata":
		b.section, b.autoAlign = obj.RData, true
	case ".sdata":
		b.section, b.autoAlign = obj.SData, true
	case ".align":
		if b.section == obj.Text {
			return nil
		}
		n, err := b.evalExpr(d.IntArg)
		if err != nil {
			return err
		}
		if n == 0 {
			b.autoAlign = false
		}
	}
	// A text-section .word needs no bookkeeping here: pass 2 emits its
	// words through the deferred text_words flush, which also advances
	// textWordIndex past them.
	return nil
}

func (b *Builder) handleGlobl(d ast.Directive) error {
	name := d.Ident
	if existing, ok := b.symbols[name]; ok {
		if existing.Kind == obj.Local {
			existing.Kind = obj.Export
			b.clearPendingLabel()
			return nil
		}
		return diag(ErrDuplicateDefinition, d.Pos.Start, d.Pos.End)
	}
	b.symbols[name] = &obj.Symbol{
		Name:     name,
		Location: obj.External,
		Offset:   0,
		Kind:     obj.Import,
		IsLabel:  true,
	}
	b.clearPendingLabel()
	return nil
}

func (b *Builder) handleAlign(d ast.Directive) error {
	n, err := b.evalExpr(d.IntArg)
	if err != nil {
		return err
	}
	if n == 0 {
		b.autoAlign = false
		b.clearPendingLabel()
		return nil
	}
	if b.section == obj.Text {
		if n > 2 {
			return diag(ErrAlignTooLarge, d.Pos.Start, d.Pos.End)
		}
		b.log.Warn(".align %d in text section is a no-op", n)
		b.clearPendingLabel()
		return nil
	}
	b.alignTo(uint(n))
	b.clearPendingLabel()
	return nil
}

// alignTo pads the current data section to a 2^n-byte boundary,
// bumping the pending label (if any) by the pad amount.
func (b *Builder) alignTo(n uint) {
	boundary := uint32(1) << n
	offset := b.currentOffset()
	pad := (boundary - (offset % boundary)) % boundary
	if pad == 0 {
		return
	}
	b.appendBytes(make([]byte, pad))
	b.bumpPendingLabel(pad)
}

func (b *Builder) handleWordPass1(d ast.Directive) error {
	if b.section != obj.Text && b.autoAlign {
		b.alignTo(2) // 4-byte boundary, expressed as shift 2
	}
	for _, wv := range d.Words {
		repeat := int64(1)
		if wv.Repeat != nil {
			r, err := b.evalExpr(wv.Repeat)
			if err != nil {
				return err
			}
			repeat = r
		}
		for i := int64(0); i < repeat; i++ {
			word, err := b.emitWordValue(wv)
			if err != nil {
				return err
			}
			if b.section == obj.Text {
				b.textWords[b.textWordIndex] = append(b.textWords[b.textWordIndex], word)
				b.textWordIndex++
			} else {
				var buf [4]byte
				buf[0] = byte(word >> 24)
				buf[1] = byte(word >> 16)
				buf[2] = byte(word >> 8)
				buf[3] = byte(word)
				b.appendBytes(buf[:])
			}
		}
	}
	b.clearPendingLabel()
	return nil
}

// emitWordValue evaluates one .word operand, recording a relocation or
// reference when it names a symbol, and returns the 32-bit placeholder
// to store at the current offset.
func (b *Builder) emitWordValue(wv ast.WordValue) (uint32, error) {
	offset := b.currentOffset()
	if !wv.IsSymbol {
		v, err := b.evalExpr(wv.Value)
		if err != nil {
			return 0, err
		}
		return uint32(v), nil
	}
	if c, ok := b.constants[wv.SymbolName]; ok {
		return uint32(c), nil
	}
	value, local, ok := b.wordValueFor(wv.SymbolName)
	if !ok {
		return 0, diag(ErrUnknownSymbol, 0, 0)
	}
	if local {
		b.relocations = append(b.relocations, obj.Relocation{
			Address: offset, Section: b.section, Type: obj.Word,
		})
		return value, nil
	}
	strIdx := b.strings.Insert(wv.SymbolName)
	b.references = append(b.references, obj.Reference{
		Address: offset, StrIdx: strIdx, Section: b.section,
		Method: obj.MethodReplace, Target: obj.TargetWord,
	})
	return 0, nil
}

// wordEntryCount returns the total number of 32-bit slots a .word
// directive occupies, honouring repeat counts, without recording
// relocations/references.
func (b *Builder) wordEntryCount(d ast.Directive) (uint32, error) {
	var total uint32
	for _, wv := range d.Words {
		repeat := int64(1)
		if wv.Repeat != nil {
			r, err := b.evalExpr(wv.Repeat)
			if err != nil {
				return 0, err
			}
			repeat = r
		}
		total += uint32(repeat)
	}
	return total, nil
}

// unescapeString expands the backslash escapes recognised by
// .ascii/.asciiz and rejects non-ASCII bytes or a trailing backslash.
func unescapeString(s string) (string, error) {
	var sb strings.Builder
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r > 127 {
			return "", ErrNonASCII
		}
		if r != '\\' {
			sb.WriteRune(r)
			continue
		}
		i++
		if i >= len(runes) {
			return "", ErrInvalidEscape
		}
		switch runes[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\':
			sb.WriteByte('\\')
		case '\'':
			sb.WriteByte('\'')
		case '"':
			sb.WriteByte('"')
		default:
			return "", ErrInvalidEscape
		}
	}
	return sb.String(), nil
}
