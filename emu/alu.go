package emu

import "fmt"

// ErrArithmeticOverflow is raised by a signed add/sub whose result
// overflows 32 bits, per the R2000's trapping arithmetic ops.
var ErrArithmeticOverflow = fmt.Errorf("emu: arithmetic overflow")

// ErrDivideByZero is raised by div with a zero divisor.
var ErrDivideByZero = fmt.Errorf("emu: divide by zero")

// ALU implements the register-file-mutating arithmetic, logic and
// comparison instructions.
type ALU struct {
	Regs *RegFile
}

func addOverflows(a, b, sum int32) bool {
	return (a >= 0) == (b >= 0) && (sum >= 0) != (a >= 0)
}

func subOverflows(a, b, diff int32) bool {
	return (a >= 0) != (b >= 0) && (diff >= 0) != (a >= 0)
}

// Add implements add: signed 32-bit addition. Overflow is an
// implementation abort (§4.8), reported by panicking with
// ErrArithmeticOverflow; Emulator.Step recovers it into a normal error.
func (a *ALU) Add(rd, rs, rt uint8) {
	x := int32(a.Regs.ReadReg(rs))
	y := int32(a.Regs.ReadReg(rt))
	sum := x + y
	if addOverflows(x, y, sum) {
		panic(ErrArithmeticOverflow)
	}
	a.Regs.WriteReg(rd, uint32(sum))
}

// AddImm implements addi.
func (a *ALU) AddImm(rt, rs uint8, imm int16) {
	x := int32(a.Regs.ReadReg(rs))
	y := int32(imm)
	sum := x + y
	if addOverflows(x, y, sum) {
		panic(ErrArithmeticOverflow)
	}
	a.Regs.WriteReg(rt, uint32(sum))
}

// AddU implements addu: wraps modulo 2^32, never traps.
func (a *ALU) AddU(rd, rs, rt uint8) {
	a.Regs.WriteReg(rd, a.Regs.ReadReg(rs)+a.Regs.ReadReg(rt))
}

// AddImmU implements addiu.
func (a *ALU) AddImmU(rt, rs uint8, imm int16) {
	a.Regs.WriteReg(rt, a.Regs.ReadReg(rs)+uint32(int32(imm)))
}

// Sub implements sub. Overflow is an implementation abort, per Add.
func (a *ALU) Sub(rd, rs, rt uint8) {
	x := int32(a.Regs.ReadReg(rs))
	y := int32(a.Regs.ReadReg(rt))
	diff := x - y
	if subOverflows(x, y, diff) {
		panic(ErrArithmeticOverflow)
	}
	a.Regs.WriteReg(rd, uint32(diff))
}

// SubU implements subu: wraps, never traps.
func (a *ALU) SubU(rd, rs, rt uint8) {
	a.Regs.WriteReg(rd, a.Regs.ReadReg(rs)-a.Regs.ReadReg(rt))
}

// And implements and: bitwise AND of two registers.
func (a *ALU) And(rd, rs, rt uint8) {
	a.Regs.WriteReg(rd, a.Regs.ReadReg(rs)&a.Regs.ReadReg(rt))
}

func (a *ALU) AndImm(rt, rs uint8, imm uint16) {
	a.Regs.WriteReg(rt, a.Regs.ReadReg(rs)&uint32(imm))
}

func (a *ALU) Or(rd, rs, rt uint8) {
	a.Regs.WriteReg(rd, a.Regs.ReadReg(rs)|a.Regs.ReadReg(rt))
}

func (a *ALU) OrImm(rt, rs uint8, imm uint16) {
	a.Regs.WriteReg(rt, a.Regs.ReadReg(rs)|uint32(imm))
}

func (a *ALU) Xor(rd, rs, rt uint8) {
	a.Regs.WriteReg(rd, a.Regs.ReadReg(rs)^a.Regs.ReadReg(rt))
}

func (a *ALU) XorImm(rt, rs uint8, imm uint16) {
	a.Regs.WriteReg(rt, a.Regs.ReadReg(rs)^uint32(imm))
}

func (a *ALU) Nor(rd, rs, rt uint8) {
	a.Regs.WriteReg(rd, ^(a.Regs.ReadReg(rs) | a.Regs.ReadReg(rt)))
}

// Slt implements slt: signed less-than comparison, 1 or 0.
func (a *ALU) Slt(rd, rs, rt uint8) {
	if int32(a.Regs.ReadReg(rs)) < int32(a.Regs.ReadReg(rt)) {
		a.Regs.WriteReg(rd, 1)
	} else {
		a.Regs.WriteReg(rd, 0)
	}
}

func (a *ALU) SltImm(rt, rs uint8, imm int16) {
	if int32(a.Regs.ReadReg(rs)) < int32(imm) {
		a.Regs.WriteReg(rt, 1)
	} else {
		a.Regs.WriteReg(rt, 0)
	}
}

// SltU implements sltu: unsigned less-than comparison.
func (a *ALU) SltU(rd, rs, rt uint8) {
	if a.Regs.ReadReg(rs) < a.Regs.ReadReg(rt) {
		a.Regs.WriteReg(rd, 1)
	} else {
		a.Regs.WriteReg(rd, 0)
	}
}

func (a *ALU) SltImmU(rt, rs uint8, imm int16) {
	if a.Regs.ReadReg(rs) < uint32(imm) {
		a.Regs.WriteReg(rt, 1)
	} else {
		a.Regs.WriteReg(rt, 0)
	}
}

func (a *ALU) Sll(rd, rt uint8, shift uint8) {
	a.Regs.WriteReg(rd, a.Regs.ReadReg(rt)<<shift)
}

func (a *ALU) Srl(rd, rt uint8, shift uint8) {
	a.Regs.WriteReg(rd, a.Regs.ReadReg(rt)>>shift)
}

func (a *ALU) Sra(rd, rt uint8, shift uint8) {
	a.Regs.WriteReg(rd, uint32(int32(a.Regs.ReadReg(rt))>>shift))
}

func (a *ALU) Sllv(rd, rt, rs uint8) {
	a.Regs.WriteReg(rd, a.Regs.ReadReg(rt)<<(a.Regs.ReadReg(rs)&0x1F))
}

func (a *ALU) Srlv(rd, rt, rs uint8) {
	a.Regs.WriteReg(rd, a.Regs.ReadReg(rt)>>(a.Regs.ReadReg(rs)&0x1F))
}

func (a *ALU) Srav(rd, rt, rs uint8) {
	a.Regs.WriteReg(rd, uint32(int32(a.Regs.ReadReg(rt))>>(a.Regs.ReadReg(rs)&0x1F)))
}

func (a *ALU) Lui(rt uint8, imm uint16) {
	a.Regs.WriteReg(rt, uint32(imm)<<16)
}

// Mult implements mult: signed 64-bit product split across HI:LO.
func (a *ALU) Mult(rs, rt uint8) {
	prod := int64(int32(a.Regs.ReadReg(rs))) * int64(int32(a.Regs.ReadReg(rt)))
	a.Regs.HI = uint32(uint64(prod) >> 32)
	a.Regs.LO = uint32(prod)
}

// MultU implements multu: unsigned 64-bit product.
func (a *ALU) MultU(rs, rt uint8) {
	prod := uint64(a.Regs.ReadReg(rs)) * uint64(a.Regs.ReadReg(rt))
	a.Regs.HI = uint32(prod >> 32)
	a.Regs.LO = uint32(prod)
}

// Div implements div: signed quotient in LO, remainder in HI. Traps on a
// zero divisor.
func (a *ALU) Div(rs, rt uint8) error {
	divisor := int32(a.Regs.ReadReg(rt))
	if divisor == 0 {
		return ErrDivideByZero
	}
	dividend := int32(a.Regs.ReadReg(rs))
	a.Regs.LO = uint32(dividend / divisor)
	a.Regs.HI = uint32(dividend % divisor)
	return nil
}

// DivU implements divu: unsigned quotient/remainder.
func (a *ALU) DivU(rs, rt uint8) error {
	divisor := a.Regs.ReadReg(rt)
	if divisor == 0 {
		return ErrDivideByZero
	}
	dividend := a.Regs.ReadReg(rs)
	a.Regs.LO = dividend / divisor
	a.Regs.HI = dividend % divisor
	return nil
}

func (a *ALU) Mfhi(rd uint8) { a.Regs.WriteReg(rd, a.Regs.HI) }
func (a *ALU) Mflo(rd uint8) { a.Regs.WriteReg(rd, a.Regs.LO) }
func (a *ALU) Mthi(rs uint8) { a.Regs.HI = a.Regs.ReadReg(rs) }
func (a *ALU) Mtlo(rs uint8) { a.Regs.LO = a.Regs.ReadReg(rs) }
