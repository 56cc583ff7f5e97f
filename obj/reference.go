package obj

// RefMethod says how a resolved symbol value combines with the existing
// bytes at a reference's target.
type RefMethod uint8

const (
	MethodAdd RefMethod = iota
	MethodReplace
	MethodSubtract
)

// RefTarget identifies which bit-field(s) of the instruction stream a
// reference patches.
type RefTarget uint8

const (
	TargetImm RefTarget = iota
	TargetHalfWord
	TargetSplitImm
	TargetWord
	TargetJumpAddress
)

// Reference is an inter-module, symbol-driven fix-up: a byte offset
// within a section, naming a symbol by its string-table index, to be
// patched according to Method and Target once the symbol resolves.
type Reference struct {
	Address   uint32
	StrIdx    uint32
	Section   Section
	Method    RefMethod
	Target    RefTarget
}

// ReferenceEntry is the 12-byte on-disk representation of a Reference.
// RefType packs Method and Target into a single byte: bits [2:0] hold
// Target (0-4), bits [4:3] hold Method (0-2). This layout is this
// toolchain's own choice (the wire bit assignment is not narrated by the
// source material); the obj round-trip test exercises it through
// Write/Read but does not check the byte value itself.
type ReferenceEntry struct {
	Address uint32
	StrIdx  uint32
	Section uint8
	RefType uint8
	_       uint8
	_       uint8
}

const (
	refTargetMask uint8 = 0x07
	refMethodShift       = 3
	refMethodMask uint8 = 0x03
)

// packRefType combines method and target into the wire RefType byte.
func packRefType(method RefMethod, target RefTarget) uint8 {
	return (uint8(target) & refTargetMask) | ((uint8(method) & refMethodMask) << refMethodShift)
}

// unpackRefType splits a wire RefType byte into method and target.
func unpackRefType(b uint8) (RefMethod, RefTarget) {
	target := RefTarget(b & refTargetMask)
	method := RefMethod((b >> refMethodShift) & refMethodMask)
	return method, target
}

// ToEntry converts r to its wire form.
func (r Reference) ToEntry() ReferenceEntry {
	return ReferenceEntry{
		Address: r.Address,
		StrIdx:  r.StrIdx,
		Section: uint8(r.Section),
		RefType: packRefType(r.Method, r.Target),
	}
}

// ReferenceFromEntry converts a wire ReferenceEntry back to a Reference.
func ReferenceFromEntry(e ReferenceEntry) Reference {
	method, target := unpackRefType(e.RefType)
	return Reference{
		Address: e.Address,
		StrIdx:  e.StrIdx,
		Section: Section(e.Section),
		Method:  method,
		Target:  target,
	}
}
