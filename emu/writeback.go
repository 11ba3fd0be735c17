// Package emu provides functional SPARC V8 (LEON3) emulation.
package emu

import (
	"fmt"

	"github.com/sarchlab/leonsim/insts"
)

// WBVariant selects which buffered status registers a write-back commits.
// The set is closed: one tag per commit pattern the integer unit uses.
type WBVariant uint8

// Write-back variants.
const (
	// WBPlain commits rd only.
	WBPlain WBVariant = iota
	// WBICC commits rd and the buffered ICC.
	WBICC
	// WBY commits rd and the buffered Y.
	WBY
	// WBYICC commits rd, the buffered ICC and Y.
	WBYICC
	// WBYICCASR commits rd, the buffered ICC, Y and ASR18.
	WBYICCASR
	// WBYASR commits rd, the buffered Y and ASR18.
	WBYASR
)

var wbNames = [...]string{
	WBPlain:   "plain",
	WBICC:     "icc",
	WBY:       "y",
	WBYICC:    "y-icc",
	WBYICCASR: "y-icc-asr",
	WBYASR:    "y-asr",
}

// String returns the variant name.
func (v WBVariant) String() string {
	if int(v) < len(wbNames) {
		return wbNames[v]
	}
	return fmt.Sprintf("WBVariant(%d)", uint8(v))
}

// Pending holds the buffered status registers an instruction computes before
// write-back decides which of them become architectural.
type Pending struct {
	PSR   PSR
	Y     uint32
	ASR18 uint32
}

// Pending returns buffered copies of the live PSR, Y and ASR18.
func (s *State) Pending() Pending {
	return Pending{
		PSR:   s.PSR,
		Y:     s.Y,
		ASR18: s.ASR18,
	}
}

// WriteBack commits an instruction result: rd <- result, then the buffered
// registers variant names. Only the ICC field of the buffered PSR is merged,
// so a CWP change made by the same instruction is never undone.
// An unknown variant is rejected before anything is written.
func (s *State) WriteBack(variant WBVariant, rd uint8, result uint32, p Pending) error {
	if int(variant) >= len(wbNames) {
		return fmt.Errorf("unknown write-back variant %d", uint8(variant))
	}

	s.WriteReg(rd, result)

	switch variant {
	case WBPlain:
	case WBICC:
		s.commitICC(p)
	case WBY:
		s.Y = p.Y
	case WBYICC:
		s.commitICC(p)
		s.Y = p.Y
	case WBYICCASR:
		s.commitICC(p)
		s.Y = p.Y
		s.ASR18 = p.ASR18
	case WBYASR:
		s.Y = p.Y
		s.ASR18 = p.ASR18
	}

	return nil
}

func (s *State) commitICC(p Pending) {
	s.PSR = s.PSR.WithICC(p.PSR.ICC())
}

// writeBackVariants maps every result-producing opcode to its write-back
// variant. Stores, branches, Ticc and the WR instructions have no rd result.
var writeBackVariants = map[insts.Op]WBVariant{
	insts.OpADD:     WBPlain,
	insts.OpADDX:    WBPlain,
	insts.OpSUB:     WBPlain,
	insts.OpSUBX:    WBPlain,
	insts.OpAND:     WBPlain,
	insts.OpANDN:    WBPlain,
	insts.OpOR:      WBPlain,
	insts.OpORN:     WBPlain,
	insts.OpXOR:     WBPlain,
	insts.OpXNOR:    WBPlain,
	insts.OpSLL:     WBPlain,
	insts.OpSRL:     WBPlain,
	insts.OpSRA:     WBPlain,
	insts.OpSETHI:   WBPlain,
	insts.OpSAVE:    WBPlain,
	insts.OpRESTORE: WBPlain,
	insts.OpRDY:     WBPlain,
	insts.OpRDASR18: WBPlain,
	insts.OpRDPSR:   WBPlain,
	insts.OpRDWIM:   WBPlain,
	insts.OpJMPL:    WBPlain,
	insts.OpCALL:    WBPlain,
	insts.OpLD:      WBPlain,
	insts.OpLDUB:    WBPlain,
	insts.OpLDSB:    WBPlain,
	insts.OpLDUH:    WBPlain,
	insts.OpLDSH:    WBPlain,

	insts.OpADDcc:  WBICC,
	insts.OpADDXcc: WBICC,
	insts.OpSUBcc:  WBICC,
	insts.OpSUBXcc: WBICC,
	insts.OpANDcc:  WBICC,
	insts.OpANDNcc: WBICC,
	insts.OpORcc:   WBICC,
	insts.OpORNcc:  WBICC,
	insts.OpXORcc:  WBICC,
	insts.OpXNORcc: WBICC,

	insts.OpUMUL: WBY,
	insts.OpSMUL: WBY,

	insts.OpUMULcc: WBYICC,
	insts.OpSMULcc: WBYICC,
	insts.OpMULScc: WBYICC,

	insts.OpUMAC: WBYASR,
	insts.OpSMAC: WBYASR,
}

// WriteBackVariant returns the write-back variant of op. The second result
// is false for opcodes that produce no register result.
func WriteBackVariant(op insts.Op) (WBVariant, bool) {
	v, ok := writeBackVariants[op]
	return v, ok
}
