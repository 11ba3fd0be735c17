// Package traps provides reference trap handlers for the LEON3 core.
//
// WindowHandler plays the part of the supervisor's window overflow and
// underflow handlers: it spills the oldest window to its stack frame when a
// SAVE runs out of windows and fills it back when a RESTORE reaches it.
package traps

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/leonsim/emu"
)

// ErrUnhandledTrap is returned for traps a handler does not service.
var ErrUnhandledTrap = errors.New("unhandled trap")

// ErrMisalignedFrame is returned when a window's stack pointer cannot hold
// a register save area.
var ErrMisalignedFrame = errors.New("misaligned register save area")

// Logical registers of a window's save area: locals %l0-%l7 then ins
// %i0-%i7, stored as 16 consecutive words at the window's %sp.
const (
	regSP        uint8 = 14 // %o6
	firstLocal   uint8 = 16
	saveAreaRegs       = 16
)

// WordStore is word-addressed storage for register save areas.
// emu.Memory and cache.Port both satisfy it.
type WordStore interface {
	Read32(addr uint32) uint32
	Write32(addr uint32, value uint32)
}

// Stats counts the windows moved by a WindowHandler.
type Stats struct {
	Spills uint64
	Fills  uint64
}

// WindowHandler services window_overflow and window_underflow traps.
// After it returns the trapped SAVE or RESTORE can be executed again.
type WindowHandler struct {
	store  WordStore
	logger *logrus.Logger
	stats  Stats
}

// Option configures a WindowHandler.
type Option func(*WindowHandler)

// WithLogger sets the logger used to trace spills and fills.
func WithLogger(logger *logrus.Logger) Option {
	return func(h *WindowHandler) {
		h.logger = logger
	}
}

// NewWindowHandler creates a handler that saves windows into store.
func NewWindowHandler(store WordStore, opts ...Option) *WindowHandler {
	h := &WindowHandler{
		store:  store,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Stats returns the spill and fill counts.
func (h *WindowHandler) Stats() Stats {
	return h.stats
}

// HandleTrap implements emu.TrapHandler.
func (h *WindowHandler) HandleTrap(s *emu.State, t *emu.Trap) error {
	switch t.Type {
	case emu.TrapWindowOverflow:
		return h.spill(s, t.Window)
	case emu.TrapWindowUnderflow:
		return h.fill(s, t.Window)
	default:
		return fmt.Errorf("%w: %v", ErrUnhandledTrap, t)
	}
}

// spill makes window w usable for a SAVE. The outs of w are the ins of
// window w-1, the oldest live frame, so w-1 goes to its stack frame and
// becomes the new invalid window.
func (h *WindowHandler) spill(s *emu.State, w uint32) error {
	n := s.NumWindows()
	victim := (w + n - 1) % n

	sp := s.Regs.Read(regSP, victim)
	if sp&3 != 0 {
		return fmt.Errorf("%w: spilling window %d to 0x%08X", ErrMisalignedFrame, victim, sp)
	}

	for i := uint8(0); i < saveAreaRegs; i++ {
		h.store.Write32(sp+4*uint32(i), s.Regs.Read(firstLocal+i, victim))
	}

	s.WIM = 1 << victim
	h.stats.Spills++
	h.logger.WithFields(logrus.Fields{
		"window": victim,
		"sp":     fmt.Sprintf("0x%08X", sp),
	}).Debug("window spilled")
	return nil
}

// fill restores window w for a RESTORE. Its %sp is the current window's
// %fp; the window after it becomes the new invalid window.
func (h *WindowHandler) fill(s *emu.State, w uint32) error {
	n := s.NumWindows()

	sp := s.Regs.Read(regSP, w)
	if sp&3 != 0 {
		return fmt.Errorf("%w: filling window %d from 0x%08X", ErrMisalignedFrame, w, sp)
	}

	for i := uint8(0); i < saveAreaRegs; i++ {
		s.Regs.Write(firstLocal+i, w, h.store.Read32(sp+4*uint32(i)))
	}

	s.WIM = 1 << ((w + 1) % n)
	h.stats.Fills++
	h.logger.WithFields(logrus.Fields{
		"window": w,
		"sp":     fmt.Sprintf("0x%08X", sp),
	}).Debug("window filled")
	return nil
}
