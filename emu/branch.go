package emu

// BranchUnit implements the jump/branch instructions' PC-update and
// return-address semantics, consulted by Emulator.execute (§4.8).
type BranchUnit struct {
	Regs *RegFile
}

// Take applies a taken jump or branch's effect on the fetch/next-fetch
// registers, per the delay-slot configuration. With delaySlots, the
// instruction already queued in nextPC (the delay slot) runs first;
// without, the jump takes effect immediately.
func (b *BranchUnit) Take(pc, nextPC *uint32, target uint32, delaySlots bool) {
	if delaySlots {
		*pc = *nextPC
		*nextPC = target
		return
	}
	*nextPC = target
	*pc = *nextPC
	*nextPC += 4
}

// Link writes the return address for jal/jalr into rd: pc+8 with delay
// slots (skipping the delay-slot instruction), pc+4 without.
func (b *BranchUnit) Link(rd uint8, pc uint32, delaySlots bool) {
	if delaySlots {
		b.Regs.WriteReg(rd, pc+8)
	} else {
		b.Regs.WriteReg(rd, pc+4)
	}
}

// BranchOffsetTarget computes a branch's target address from the
// instruction's own address and its signed word-granularity offset.
func BranchOffsetTarget(pc uint32, offset int16) uint32 {
	return uint32(int64(pc) + 4 + int64(offset)*4)
}
