// Package emu provides functional SPARC V8 (LEON3) emulation.
package emu

import "github.com/sarchlab/leonsim/insts"

// BranchUnit implements SPARC delayed control transfers.
type BranchUnit struct {
	state *State
}

// NewBranchUnit creates a new BranchUnit connected to the given core state.
func NewBranchUnit(state *State) *BranchUnit {
	return &BranchUnit{state: state}
}

// Bicc performs a conditional branch with a delay slot.
//
// If the condition holds, the delay slot runs and execution continues at
// PC + disp; otherwise execution falls through. With the annul bit set the
// delay slot is annulled when the branch is untaken, and also when it is
// the unconditional "ba,a".
func (b *BranchUnit) Bicc(cond insts.Cond, disp int32, annul bool) {
	s := b.state
	taken := b.CheckCondition(cond)

	if taken {
		s.DelayedJump(s.PC + uint32(disp))
	} else {
		s.StepSequential()
	}

	if annul && (!taken || cond == insts.CondA) {
		s.Annul()
	}
}

// CALL saves the address of the CALL in %o7 and jumps to PC + disp.
func (b *BranchUnit) CALL(disp int32) error {
	s := b.state
	pc := s.PC
	if err := s.WriteBack(WBPlain, 15, pc, s.Pending()); err != nil {
		return err
	}
	s.DelayedJump(pc + uint32(disp))
	return nil
}

// JMPL saves the address of the JMPL in rd and jumps to target.
// A misaligned target raises mem_address_not_aligned before anything is
// written.
func (b *BranchUnit) JMPL(rd uint8, target uint32) error {
	s := b.state
	if target&3 != 0 {
		return &Trap{
			Type: TrapMemAddressNotAligned,
			PC:   s.PC,
			NPC:  s.NPC,
			Addr: target,
		}
	}

	pc := s.PC
	if err := s.WriteBack(WBPlain, rd, pc, s.Pending()); err != nil {
		return err
	}
	s.DelayedJump(target)
	return nil
}

// CheckCondition evaluates a SPARC integer condition against the live ICC.
func (b *BranchUnit) CheckCondition(cond insts.Cond) bool {
	return EvalCond(cond, b.state.PSR.ICC())
}

// EvalCond evaluates a SPARC integer condition against icc.
func EvalCond(cond insts.Cond, icc ICC) bool {
	switch cond {
	case insts.CondN:
		return false
	case insts.CondE:
		return icc.Z
	case insts.CondLE:
		return icc.Z || (icc.N != icc.V)
	case insts.CondL:
		return icc.N != icc.V
	case insts.CondLEU:
		return icc.C || icc.Z
	case insts.CondCS:
		return icc.C
	case insts.CondNEG:
		return icc.N
	case insts.CondVS:
		return icc.V
	case insts.CondA:
		return true
	case insts.CondNE:
		return !icc.Z
	case insts.CondG:
		return !(icc.Z || (icc.N != icc.V))
	case insts.CondGE:
		return icc.N == icc.V
	case insts.CondGU:
		return !(icc.C || icc.Z)
	case insts.CondCC:
		return !icc.C
	case insts.CondPOS:
		return !icc.N
	case insts.CondVC:
		return !icc.V
	default:
		return false
	}
}
