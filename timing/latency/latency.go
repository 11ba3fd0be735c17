// Package latency provides instruction timing models for LEON3 simulation.
//
// The latency values follow the LEON3 integer unit and can be configured
// via TimingConfig.
package latency

import (
	"github.com/sarchlab/leonsim/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default LEON3 timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the execution latency in cycles for the given instruction.
func (t *Table) GetLatency(inst *insts.Instruction) uint64 {
	if inst == nil {
		return 1
	}

	switch inst.Op {
	case insts.OpCALL, insts.OpBicc:
		return t.config.BranchLatency

	case insts.OpJMPL:
		return t.config.JumpLatency

	case insts.OpTicc:
		return t.config.TrapLatency

	case insts.OpLD, insts.OpLDUB, insts.OpLDSB, insts.OpLDUH, insts.OpLDSH:
		return t.config.LoadLatency

	case insts.OpST, insts.OpSTB, insts.OpSTH:
		return t.config.StoreLatency

	case insts.OpUMUL, insts.OpUMULcc, insts.OpSMUL, insts.OpSMULcc:
		return t.config.MultiplyLatency

	case insts.OpUMAC, insts.OpSMAC:
		return t.config.MACLatency

	case insts.OpSAVE, insts.OpRESTORE:
		return t.config.WindowLatency

	case insts.OpRDY, insts.OpRDASR18, insts.OpRDPSR, insts.OpRDWIM,
		insts.OpWRY, insts.OpWRASR18, insts.OpWRPSR, insts.OpWRWIM:
		return t.config.StateRegLatency

	case insts.OpUnknown:
		return 1

	default:
		return t.config.ALULatency
	}
}

// IsMemoryOp returns true if the instruction accesses memory.
func (t *Table) IsMemoryOp(inst *insts.Instruction) bool {
	return inst != nil && inst.Format == insts.FormatMem
}

// IsBranchOp returns true if the instruction is a control transfer.
func (t *Table) IsBranchOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	switch inst.Op {
	case insts.OpCALL, insts.OpBicc, insts.OpJMPL:
		return true
	default:
		return false
	}
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
