// Package emu provides functional SPARC V8 (LEON3) emulation.
package emu

// PSR is the bit-packed SPARC Processor Status Register.
//
//	31:28 impl | 27:24 ver | 23:20 icc (n z v c) | 13 EC | 12 EF |
//	11:8 PIL | 7 S | 6 PS | 5 ET | 4:0 CWP
type PSR uint32

// PSR field masks.
const (
	PSRMaskCWP PSR = 0x1F
	PSRMaskET  PSR = 1 << 5
	PSRMaskPS  PSR = 1 << 6
	PSRMaskS   PSR = 1 << 7
	PSRMaskPIL PSR = 0xF << 8
	PSRMaskICC PSR = 0xF << 20

	psrC PSR = 1 << 20
	psrV PSR = 1 << 21
	psrZ PSR = 1 << 22
	psrN PSR = 1 << 23
)

// ICC holds the integer condition codes.
type ICC struct {
	// N is the negative flag.
	N bool
	// Z is the zero flag.
	Z bool
	// V is the overflow flag.
	V bool
	// C is the carry flag.
	C bool
}

// ICC extracts the integer condition codes.
func (p PSR) ICC() ICC {
	return ICC{
		N: p&psrN != 0,
		Z: p&psrZ != 0,
		V: p&psrV != 0,
		C: p&psrC != 0,
	}
}

// WithICC returns p with its condition codes replaced by icc.
func (p PSR) WithICC(icc ICC) PSR {
	p &^= PSRMaskICC
	if icc.N {
		p |= psrN
	}
	if icc.Z {
		p |= psrZ
	}
	if icc.V {
		p |= psrV
	}
	if icc.C {
		p |= psrC
	}
	return p
}

// CWP returns the current window pointer.
func (p PSR) CWP() uint32 {
	return uint32(p & PSRMaskCWP)
}

// WithCWP returns p with the current window pointer replaced by cwp.
func (p PSR) WithCWP(cwp uint32) PSR {
	return (p &^ PSRMaskCWP) | PSR(cwp)&PSRMaskCWP
}

// Carry returns the C flag as 0 or 1, for ADDX/SUBX.
func (p PSR) Carry() uint32 {
	if p&psrC != 0 {
		return 1
	}
	return 0
}
