package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds latency values for different instruction classes.
// Values follow the LEON3 integer unit with a 16x16 multiplier.
type TimingConfig struct {
	// ALULatency is the execution latency for ALU, shift, SETHI and
	// MULScc operations. Default: 1 cycle.
	ALULatency uint64 `json:"alu_latency"`

	// BranchLatency is the latency of Bicc and CALL. Default: 1 cycle.
	BranchLatency uint64 `json:"branch_latency"`

	// JumpLatency is the latency of JMPL, which needs the computed target.
	// Default: 3 cycles.
	JumpLatency uint64 `json:"jump_latency"`

	// LoadLatency is the latency for single-word loads assuming a
	// cache hit. Default: 2 cycles.
	LoadLatency uint64 `json:"load_latency"`

	// StoreLatency is the latency for single-word stores. Default: 2 cycles.
	StoreLatency uint64 `json:"store_latency"`

	// MultiplyLatency is the latency of UMUL/SMUL(cc). Default: 4 cycles.
	MultiplyLatency uint64 `json:"multiply_latency"`

	// MACLatency is the latency of UMAC/SMAC. Default: 2 cycles.
	MACLatency uint64 `json:"mac_latency"`

	// WindowLatency is the latency of SAVE and RESTORE. Default: 1 cycle.
	WindowLatency uint64 `json:"window_latency"`

	// StateRegLatency is the latency of RD/WR of Y, ASR18, PSR and WIM.
	// Default: 1 cycle.
	StateRegLatency uint64 `json:"state_reg_latency"`

	// TrapLatency is the latency of Ticc, including trap entry.
	// Default: 5 cycles.
	TrapLatency uint64 `json:"trap_latency"`
}

// DefaultTimingConfig returns a TimingConfig with LEON3 default values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		ALULatency:      1,
		BranchLatency:   1,
		JumpLatency:     3,
		LoadLatency:     2,
		StoreLatency:    2,
		MultiplyLatency: 4,
		MACLatency:      2,
		WindowLatency:   1,
		StateRegLatency: 1,
		TrapLatency:     5,
	}
}

// LoadConfig loads a TimingConfig from a JSON file. Fields missing from the
// file keep their default values.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that all latency values are valid (> 0).
func (c *TimingConfig) Validate() error {
	fields := []struct {
		name  string
		value uint64
	}{
		{"alu_latency", c.ALULatency},
		{"branch_latency", c.BranchLatency},
		{"jump_latency", c.JumpLatency},
		{"load_latency", c.LoadLatency},
		{"store_latency", c.StoreLatency},
		{"multiply_latency", c.MultiplyLatency},
		{"mac_latency", c.MACLatency},
		{"window_latency", c.WindowLatency},
		{"state_reg_latency", c.StateRegLatency},
		{"trap_latency", c.TrapLatency},
	}

	for _, f := range fields {
		if f.value == 0 {
			return fmt.Errorf("%s must be > 0", f.name)
		}
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
