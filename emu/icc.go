// Package emu provides functional SPARC V8 (LEON3) emulation.
package emu

// The condition-code evaluators are pure: they take the buffered PSR and
// return it with the ICC field recomputed. Nothing reaches the live PSR until
// a write-back variant that commits the PSR runs.

const signBit = 0x80000000

// LogicICC computes the condition codes of a logical operation or a multiply:
// N and Z from result, V and C cleared.
func LogicICC(psr PSR, result uint32) PSR {
	return psr.WithICC(ICC{
		N: result&signBit != 0,
		Z: result == 0,
	})
}

// AddICC computes the condition codes of result = rs1 + rs2 (+ carry).
func AddICC(psr PSR, rs1, rs2, result uint32) PSR {
	return psr.WithICC(ICC{
		N: result&signBit != 0,
		Z: result == 0,
		// Both operands share a sign the result does not have.
		V: ((rs1&rs2&^result)|(^rs1&^rs2&result))&signBit != 0,
		// Unsigned carry out of bit 31.
		C: ((rs1&rs2)|((rs1|rs2)&^result))&signBit != 0,
	})
}

// SubICC computes the condition codes of result = rs1 - rs2 (- carry).
// C is the borrow.
func SubICC(psr PSR, rs1, rs2, result uint32) PSR {
	return psr.WithICC(ICC{
		N: result&signBit != 0,
		Z: result == 0,
		V: ((rs1&^rs2&^result)|(^rs1&rs2&result))&signBit != 0,
		C: ((^rs1&rs2)|((^rs1|rs2)&result))&signBit != 0,
	})
}
