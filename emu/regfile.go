// Package emu provides functional SPARC V8 (LEON3) emulation.
package emu

// Register file geometry.
const (
	// NumGlobals is the number of global registers (%g0-%g7).
	NumGlobals = 8
	// NumLogicalRegs is the number of registers visible at once (r0-r31).
	NumLogicalRegs = 32
	// WindowStride is the number of physical registers each window owns.
	WindowStride = 16
)

// RegFile represents the SPARC integer register file.
//
// It holds the 8 globals and a circular bank of WindowStride registers per
// window. Physical slots are numbered 0-7 for the globals followed by the
// windowed bank. Logical registers r8-r31 are resolved against a window
// pointer by Physical; the register file itself does not track the CWP.
type RegFile struct {
	// globals holds %g0-%g7. globals[0] is never written.
	globals [NumGlobals]uint32

	// windowed holds WindowStride * numWindows registers.
	windowed []uint32

	numWindows uint32
}

// NewRegFile creates a register file with numWindows register windows.
func NewRegFile(numWindows int) *RegFile {
	return &RegFile{
		windowed:   make([]uint32, WindowStride*numWindows),
		numWindows: uint32(numWindows),
	}
}

// NumWindows returns the number of register windows.
func (r *RegFile) NumWindows() int {
	return int(r.numWindows)
}

// NumPhysical returns the number of physical register slots.
func (r *RegFile) NumPhysical() int {
	return NumGlobals + len(r.windowed)
}

// Physical maps logical register reg in window cwp to its physical slot.
// Logical registers r8-r31 of window cwp live at windowed slot
// (cwp*16 + reg) mod (16*numWindows), so the outs of window cwp are the ins
// of window cwp-1.
func (r *RegFile) Physical(reg uint8, cwp uint32) int {
	if reg < NumGlobals {
		return int(reg)
	}
	slot := (cwp*WindowStride + uint32(reg)) % (WindowStride * r.numWindows)
	return NumGlobals + int(slot)
}

// ReadPhysical reads a physical slot.
func (r *RegFile) ReadPhysical(idx int) uint32 {
	if idx < NumGlobals {
		return r.globals[idx]
	}
	return r.windowed[idx-NumGlobals]
}

// WritePhysical writes a physical slot. Writes to %g0 are ignored.
func (r *RegFile) WritePhysical(idx int, value uint32) {
	switch {
	case idx == 0:
		return
	case idx < NumGlobals:
		r.globals[idx] = value
	default:
		r.windowed[idx-NumGlobals] = value
	}
}

// Read reads logical register reg as seen from window cwp.
// Registers >= 32 read as 0.
func (r *RegFile) Read(reg uint8, cwp uint32) uint32 {
	if reg >= NumLogicalRegs {
		return 0
	}
	return r.ReadPhysical(r.Physical(reg, cwp))
}

// Write writes logical register reg as seen from window cwp.
// Writes to %g0 and to registers >= 32 are ignored.
func (r *RegFile) Write(reg uint8, cwp uint32, value uint32) {
	if reg >= NumLogicalRegs {
		return
	}
	r.WritePhysical(r.Physical(reg, cwp), value)
}

// physicalSlots copies every physical slot, globals first.
func (r *RegFile) physicalSlots() []uint32 {
	slots := make([]uint32, 0, r.NumPhysical())
	slots = append(slots, r.globals[:]...)
	return append(slots, r.windowed...)
}
