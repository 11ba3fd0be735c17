// Package emu provides functional SPARC V8 (LEON3) emulation.
package emu

// State is the architectural state of one simulated LEON3 hart.
//
// Every field is owned by the instruction-execution driver. PSR, Y and ASR18
// are changed by instructions only through WriteBack, the window rotations
// and the WR instructions; tests and trap handlers may set them directly.
type State struct {
	Sequencer

	// Regs is the windowed integer register file.
	Regs *RegFile

	// PSR holds the condition codes and the current window pointer.
	PSR PSR

	// WIM is the window invalid mask; bit w set means window w is invalid.
	WIM uint32

	// Y holds the high word of multiplies and bits 39:32 of the MAC accumulator.
	Y uint32

	// ASR18 holds bits 31:0 of the LEON3 MAC accumulator.
	ASR18 uint32

	config Config
}

// NewState creates a core state for cfg, already reset.
func NewState(cfg Config) (*State, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &State{config: cfg}
	s.Reset()
	return s, nil
}

// Config returns the configuration the state was created with.
func (s *State) Config() Config {
	return s.config
}

// NumWindows returns the number of register windows.
func (s *State) NumWindows() uint32 {
	return uint32(s.config.NumWindows)
}

// Reset puts the state in its reset configuration: all registers cleared,
// CWP=0, PSR/WIM/Y/ASR18 zero and PC at the reset vector.
func (s *State) Reset() {
	s.Regs = NewRegFile(s.config.NumWindows)
	s.PSR = 0
	s.WIM = 0
	s.Y = 0
	s.ASR18 = 0
	s.SetPC(s.config.ResetPC)
}

// ReadReg reads logical register reg in the current window.
func (s *State) ReadReg(reg uint8) uint32 {
	return s.Regs.Read(reg, s.PSR.CWP())
}

// WriteReg writes logical register reg in the current window.
// Writes to %g0 are ignored.
func (s *State) WriteReg(reg uint8, value uint32) {
	s.Regs.Write(reg, s.PSR.CWP(), value)
}

// View returns the physical slot behind each logical register r0-r31 in
// the current window.
func (s *State) View() [NumLogicalRegs]int {
	var view [NumLogicalRegs]int
	cwp := s.PSR.CWP()
	for reg := range view {
		view[reg] = s.Regs.Physical(uint8(reg), cwp)
	}
	return view
}

// IncrementWindow moves to window CWP+1 (RESTORE direction).
// If the target window is marked in WIM, it returns a window_underflow
// Trap and leaves the state unchanged.
func (s *State) IncrementWindow() error {
	n := s.NumWindows()
	newCWP := (s.PSR.CWP() + 1) % n
	if s.WIM&(1<<newCWP) != 0 {
		return s.windowTrap(TrapWindowUnderflow, newCWP)
	}

	s.PSR = s.PSR.WithCWP(newCWP)
	return nil
}

// DecrementWindow moves to window CWP-1 (SAVE direction), wrapping from 0
// to NumWindows-1. If the target window is marked in WIM, it returns a
// window_overflow Trap and leaves the state unchanged.
func (s *State) DecrementWindow() error {
	n := s.NumWindows()
	newCWP := (s.PSR.CWP() + n - 1) % n
	if s.WIM&(1<<newCWP) != 0 {
		return s.windowTrap(TrapWindowOverflow, newCWP)
	}

	s.PSR = s.PSR.WithCWP(newCWP)
	return nil
}

func (s *State) windowTrap(tt TrapType, window uint32) *Trap {
	return &Trap{
		Type:   tt,
		PC:     s.PC,
		NPC:    s.NPC,
		Window: window,
	}
}

// Snapshot is a deep copy of the architectural state.
type Snapshot struct {
	// Regs holds every physical register slot, globals first.
	Regs []uint32

	PSR   PSR
	WIM   uint32
	Y     uint32
	ASR18 uint32
	PC    uint32
	NPC   uint32
	Annul bool
}

// Snapshot captures the complete architectural state.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Regs:  s.Regs.physicalSlots(),
		PSR:   s.PSR,
		WIM:   s.WIM,
		Y:     s.Y,
		ASR18: s.ASR18,
		PC:    s.PC,
		NPC:   s.NPC,
		Annul: s.Annulled(),
	}
}
