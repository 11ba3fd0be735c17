// Package emu provides functional SPARC V8 (LEON3) emulation.
package emu

import "github.com/sarchlab/leonsim/insts"

// LoadStoreUnit implements SPARC integer load and store operations.
type LoadStoreUnit struct {
	state  *State
	memory *Memory
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// core state and memory.
func NewLoadStoreUnit(state *State, memory *Memory) *LoadStoreUnit {
	return &LoadStoreUnit{
		state:  state,
		memory: memory,
	}
}

// accessSize returns the access width in bytes of a memory opcode.
func accessSize(op insts.Op) uint32 {
	switch op {
	case insts.OpLDUB, insts.OpLDSB, insts.OpSTB:
		return 1
	case insts.OpLDUH, insts.OpLDSH, insts.OpSTH:
		return 2
	default:
		return 4
	}
}

func (lsu *LoadStoreUnit) checkAlignment(op insts.Op, addr uint32) error {
	if addr&(accessSize(op)-1) == 0 {
		return nil
	}
	return &Trap{
		Type: TrapMemAddressNotAligned,
		PC:   lsu.state.PC,
		NPC:  lsu.state.NPC,
		Addr: addr,
	}
}

// Load performs a load into rd: rd = mem[addr], sign or zero extended.
func (lsu *LoadStoreUnit) Load(op insts.Op, rd uint8, addr uint32) error {
	if err := lsu.checkAlignment(op, addr); err != nil {
		return err
	}

	var value uint32
	switch op {
	case insts.OpLD:
		value = lsu.memory.Read32(addr)
	case insts.OpLDUB:
		value = uint32(lsu.memory.Read8(addr))
	case insts.OpLDSB:
		value = insts.SignExtend(uint32(lsu.memory.Read8(addr)), 8)
	case insts.OpLDUH:
		value = uint32(lsu.memory.Read16(addr))
	case insts.OpLDSH:
		value = insts.SignExtend(uint32(lsu.memory.Read16(addr)), 16)
	}

	return lsu.state.WriteBack(WBPlain, rd, value, lsu.state.Pending())
}

// Store performs a store of rd: mem[addr] = rd, truncated to the access size.
func (lsu *LoadStoreUnit) Store(op insts.Op, rd uint8, addr uint32) error {
	if err := lsu.checkAlignment(op, addr); err != nil {
		return err
	}

	value := lsu.state.ReadReg(rd)
	switch op {
	case insts.OpST:
		lsu.memory.Write32(addr, value)
	case insts.OpSTB:
		lsu.memory.Write8(addr, uint8(value))
	case insts.OpSTH:
		lsu.memory.Write16(addr, uint16(value))
	}
	return nil
}
