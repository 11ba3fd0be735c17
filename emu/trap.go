// Package emu provides functional SPARC V8 (LEON3) emulation.
package emu

import (
	"errors"
	"fmt"
)

// TrapType is a SPARC V8 trap type (the tt field of TBR).
type TrapType uint8

// SPARC V8 trap types raised by the core.
const (
	TrapIllegalInstruction   TrapType = 0x02
	TrapWindowOverflow       TrapType = 0x05
	TrapWindowUnderflow      TrapType = 0x06
	TrapMemAddressNotAligned TrapType = 0x07

	// TrapInstructionBase is the trap type of "ta 0"; Ticc raises
	// TrapInstructionBase + (software trap number & 0x7F).
	TrapInstructionBase TrapType = 0x80
)

// SyscallTrapNumber is the software trap number used for system calls (ta 0x10).
const SyscallTrapNumber = 0x10

var trapNames = map[TrapType]string{
	TrapIllegalInstruction:   "illegal_instruction",
	TrapWindowOverflow:       "window_overflow",
	TrapWindowUnderflow:      "window_underflow",
	TrapMemAddressNotAligned: "mem_address_not_aligned",
}

// String returns the SPARC name of the trap type.
func (t TrapType) String() string {
	if t >= TrapInstructionBase {
		return fmt.Sprintf("trap_instruction(0x%02X)", uint8(t-TrapInstructionBase))
	}
	if name, ok := trapNames[t]; ok {
		return name
	}
	return fmt.Sprintf("trap(0x%02X)", uint8(t))
}

// SoftwareTrap returns the trap type raised by "ta n".
func SoftwareTrap(n uint32) TrapType {
	return TrapInstructionBase + TrapType(n&0x7F)
}

// Trap is an architectural trap condition raised by an instruction.
// When a Trap is returned the architectural state is exactly as it was
// before the trapping instruction started.
type Trap struct {
	// Type is the SPARC trap type.
	Type TrapType

	// PC and NPC locate the trapping instruction.
	PC  uint32
	NPC uint32

	// Window is the window the rotation tried to enter, for window traps.
	Window uint32

	// Addr is the offending address, for alignment traps.
	Addr uint32
}

// Error implements error.
func (t *Trap) Error() string {
	switch t.Type {
	case TrapWindowOverflow, TrapWindowUnderflow:
		return fmt.Sprintf("%v entering window %d at PC=0x%08X", t.Type, t.Window, t.PC)
	case TrapMemAddressNotAligned:
		return fmt.Sprintf("%v for address 0x%08X at PC=0x%08X", t.Type, t.Addr, t.PC)
	default:
		return fmt.Sprintf("%v at PC=0x%08X", t.Type, t.PC)
	}
}

// IsTrap reports whether err is, or wraps, a Trap of type tt.
func IsTrap(err error, tt TrapType) bool {
	var t *Trap
	return errors.As(err, &t) && t.Type == tt
}
