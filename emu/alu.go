// Package emu provides functional SPARC V8 (LEON3) emulation.
package emu

import "github.com/sarchlab/leonsim/insts"

// ALU implements SPARC integer arithmetic, logic, shift and multiply
// operations. It reads the live PSR, Y and ASR18 but never writes them:
// every operation returns its buffered status registers for write-back.
type ALU struct {
	state *State
}

// NewALU creates a new ALU reading from the given core state.
func NewALU(state *State) *ALU {
	return &ALU{state: state}
}

// Result is an ALU outcome waiting for write-back.
type Result struct {
	// Value is the value for rd.
	Value uint32
	// Pending holds the buffered PSR, Y and ASR18.
	Pending Pending
	// Variant is the write-back variant of the operation.
	Variant WBVariant
}

// Execute computes op on the operands rs1 and rs2 (rs2 is the immediate for
// i=1 forms). It returns false if op is not an ALU operation.
func (a *ALU) Execute(op insts.Op, rs1, rs2 uint32) (Result, bool) {
	variant, ok := WriteBackVariant(op)
	if !ok {
		return Result{}, false
	}

	p := a.state.Pending()
	var value uint32

	switch op {
	case insts.OpADD, insts.OpADDcc:
		value = rs1 + rs2
		if op == insts.OpADDcc {
			p.PSR = AddICC(p.PSR, rs1, rs2, value)
		}
	case insts.OpADDX, insts.OpADDXcc:
		value = rs1 + rs2 + p.PSR.Carry()
		if op == insts.OpADDXcc {
			p.PSR = AddICC(p.PSR, rs1, rs2, value)
		}
	case insts.OpSUB, insts.OpSUBcc:
		value = rs1 - rs2
		if op == insts.OpSUBcc {
			p.PSR = SubICC(p.PSR, rs1, rs2, value)
		}
	case insts.OpSUBX, insts.OpSUBXcc:
		value = rs1 - rs2 - p.PSR.Carry()
		if op == insts.OpSUBXcc {
			p.PSR = SubICC(p.PSR, rs1, rs2, value)
		}
	case insts.OpAND, insts.OpANDcc:
		value = rs1 & rs2
	case insts.OpANDN, insts.OpANDNcc:
		value = rs1 &^ rs2
	case insts.OpOR, insts.OpORcc:
		value = rs1 | rs2
	case insts.OpORN, insts.OpORNcc:
		value = rs1 | ^rs2
	case insts.OpXOR, insts.OpXORcc:
		value = rs1 ^ rs2
	case insts.OpXNOR, insts.OpXNORcc:
		value = ^(rs1 ^ rs2)
	case insts.OpSLL:
		value = rs1 << (rs2 & 0x1F)
	case insts.OpSRL:
		value = rs1 >> (rs2 & 0x1F)
	case insts.OpSRA:
		value = uint32(int32(rs1) >> (rs2 & 0x1F))
	case insts.OpUMUL, insts.OpUMULcc:
		product := uint64(rs1) * uint64(rs2)
		value = uint32(product)
		p.Y = uint32(product >> 32)
	case insts.OpSMUL, insts.OpSMULcc:
		product := uint64(int64(int32(rs1)) * int64(int32(rs2)))
		value = uint32(product)
		p.Y = uint32(product >> 32)
	case insts.OpMULScc:
		value = a.mulStep(&p, rs1, rs2)
	case insts.OpUMAC:
		value = a.umac(&p, rs1, rs2)
	case insts.OpSMAC:
		value = a.smac(&p, rs1, rs2)
	default:
		return Result{}, false
	}

	switch op {
	case insts.OpANDcc, insts.OpANDNcc, insts.OpORcc, insts.OpORNcc,
		insts.OpXORcc, insts.OpXNORcc, insts.OpUMULcc, insts.OpSMULcc:
		p.PSR = LogicICC(p.PSR, value)
	}

	return Result{Value: value, Pending: p, Variant: variant}, true
}

// mulStep performs one MULScc step of a 32-step shift-and-add multiply.
func (a *ALU) mulStep(p *Pending, rs1, rs2 uint32) uint32 {
	icc := p.PSR.ICC()
	op1 := rs1 >> 1
	if icc.N != icc.V {
		op1 |= signBit
	}

	var op2 uint32
	if p.Y&1 != 0 {
		op2 = rs2
	}

	result := op1 + op2
	p.Y = (rs1&1)<<31 | p.Y>>1
	p.PSR = AddICC(p.PSR, op1, op2, result)
	return result
}

const (
	macBits = 40
	macMask = uint64(1)<<macBits - 1
)

// accumulator returns the 40-bit MAC accumulator {Y[7:0], ASR18}.
func accumulator(p *Pending) uint64 {
	return uint64(p.Y&0xFF)<<32 | uint64(p.ASR18)
}

// setAccumulator stores a 40-bit value into {Y[7:0], ASR18}.
func setAccumulator(p *Pending, acc uint64) {
	acc &= macMask
	p.Y = p.Y&^0xFF | uint32(acc>>32)
	p.ASR18 = uint32(acc)
}

// umac multiplies the unsigned low halfwords and adds into the accumulator.
func (a *ALU) umac(p *Pending, rs1, rs2 uint32) uint32 {
	acc := accumulator(p) + uint64(rs1&0xFFFF)*uint64(rs2&0xFFFF)
	setAccumulator(p, acc)
	return uint32(acc)
}

// smac multiplies the signed low halfwords and adds into the accumulator.
func (a *ALU) smac(p *Pending, rs1, rs2 uint32) uint32 {
	acc := accumulator(p)
	if acc&(1<<(macBits-1)) != 0 {
		acc |= ^macMask
	}
	sum := int64(acc) + int64(int16(rs1))*int64(int16(rs2))
	setAccumulator(p, uint64(sum))
	return uint32(sum)
}
