package parser

// registerNames is the fixed ABI name -> index mapping. Index 0..31 in
// this exact order.
var registerNames = []string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

var registerIndex = func() map[string]uint8 {
	m := make(map[string]uint8, len(registerNames))
	for i, name := range registerNames {
		m[name] = uint8(i)
	}
	return m
}()

// RegisterByName resolves an ABI register name (without the leading $)
// to its index.
func RegisterByName(name string) (uint8, bool) {
	idx, ok := registerIndex[name]
	return idx, ok
}

// RegisterName returns the canonical ABI name for a register index.
func RegisterName(idx uint8) string {
	if int(idx) < len(registerNames) {
		return registerNames[idx]
	}
	return "?"
}
