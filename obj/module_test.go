package obj_test

import (
	"bytes"
	"testing"

	"github.com/r2k-toolchain/mips/obj"
)

func TestRoundTripEmptyModule(t *testing.T) {
	m := obj.NewModule()
	data := m.Write()

	got, err := obj.Read(data)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Entry != 0 || got.IsLoadModule() {
		t.Fatalf("empty module should not be a load module")
	}
	if !bytes.Equal(got.Write(), data) {
		t.Fatalf("write(read(data)) != data")
	}
}

func TestRoundTripWithSectionsAndTables(t *testing.T) {
	m := obj.NewModule()
	m.Text = []byte{0, 1, 2, 3, 4, 5, 6, 7}
	m.Data = []byte{9, 9, 9, 9}
	m.SBssSize = 16
	m.BssSize = 32

	off := m.Strings.Insert("msg")
	m.Symbols = append(m.Symbols, obj.Symbol{
		Name: "msg", Location: obj.Data, Offset: 0, StringOffset: off,
		Kind: obj.Local, IsLabel: true,
	})
	m.Relocations = append(m.Relocations, obj.Relocation{Address: 4, Section: obj.Text, Type: obj.Word})
	m.References = append(m.References, obj.Reference{
		Address: 0, StrIdx: off, Section: obj.Text, Method: obj.MethodReplace, Target: obj.TargetSplitImm,
	})

	data := m.Write()
	got, err := obj.Read(data)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if !bytes.Equal(got.Text, m.Text) || !bytes.Equal(got.Data, m.Data) {
		t.Fatalf("section bytes mismatch")
	}
	if got.SBssSize != 16 || got.BssSize != 32 {
		t.Fatalf("bss sizes mismatch")
	}
	if len(got.Symbols) != 1 || got.Symbols[0].Name != "msg" || got.Symbols[0].Kind != obj.Local {
		t.Fatalf("symbol round trip failed: %+v", got.Symbols)
	}
	if len(got.Relocations) != 1 || got.Relocations[0].Type != obj.Word {
		t.Fatalf("relocation round trip failed: %+v", got.Relocations)
	}
	if len(got.References) != 1 || got.References[0].Method != obj.MethodReplace || got.References[0].Target != obj.TargetSplitImm {
		t.Fatalf("reference round trip failed: %+v", got.References)
	}

	if !bytes.Equal(got.Write(), data) {
		t.Fatalf("write(read(data)) != data (not byte-exact)")
	}
}

func TestLoadModuleRequiresNonzeroEntry(t *testing.T) {
	m := obj.NewModule()
	if m.IsLoadModule() {
		t.Fatalf("fresh module should not be a load module")
	}
	m.Entry = 0x00400000
	if !m.IsLoadModule() {
		t.Fatalf("module with nonzero entry should be a load module")
	}
}

func TestReadRejectsBadMagic(t *testing.T) {
	data := []byte{0x00, 0x00, 0x0F, 0x22}
	data = append(data, make([]byte, 48)...)
	if _, err := obj.Read(data); err == nil {
		t.Fatalf("expected error for bad magic")
	}
}

func TestStringTableDedup(t *testing.T) {
	st := obj.NewStringTable()
	a := st.Insert("hello")
	b := st.Insert("world")
	c := st.Insert("hello")
	if a != c {
		t.Fatalf("duplicate insert returned different offset: %d != %d", a, c)
	}
	if b == a {
		t.Fatalf("distinct strings collided at offset %d", a)
	}
	off, ok := st.GetOffset("world")
	if !ok || off != b {
		t.Fatalf("GetOffset mismatch: got (%d,%v) want (%d,true)", off, ok, b)
	}
	if string(st.AsBytes()) != "hello\x00world\x00" {
		t.Fatalf("unexpected serialised bytes: %q", st.AsBytes())
	}
}
