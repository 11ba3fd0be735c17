// Package emu provides functional SPARC V8 (LEON3) emulation.
package emu

import (
	"errors"
	"fmt"
)

// LEON3 supports between 2 and 32 register windows.
const (
	MinWindows = 2
	MaxWindows = 32
)

// ErrInvalidConfig is returned when a core configuration is rejected.
var ErrInvalidConfig = errors.New("invalid core configuration")

// Config holds the configuration of a simulated core. It is fixed when the
// core state is created.
type Config struct {
	// NumWindows is the number of register windows (NWINDOWS).
	NumWindows int

	// ResetPC is the address execution starts from after reset.
	ResetPC uint32
}

// DefaultConfig returns the LEON3 default: 8 windows, reset vector 0.
func DefaultConfig() Config {
	return Config{
		NumWindows: 8,
		ResetPC:    0,
	}
}

// Validate checks that the configuration describes a valid core.
func (c Config) Validate() error {
	if c.NumWindows < MinWindows || c.NumWindows > MaxWindows {
		return fmt.Errorf("%w: num_windows %d out of range [%d, %d]",
			ErrInvalidConfig, c.NumWindows, MinWindows, MaxWindows)
	}
	if c.ResetPC&3 != 0 {
		return fmt.Errorf("%w: reset_pc 0x%08X is not word aligned", ErrInvalidConfig, c.ResetPC)
	}
	return nil
}
