// Package emu provides functional SPARC V8 (LEON3) emulation.
package emu

// Sequencer holds the PC/nPC pair and the annul flag of the delay slot.
type Sequencer struct {
	// PC is the address of the instruction being executed.
	PC uint32
	// NPC is the address of the next instruction.
	NPC uint32

	annul bool
}

// SetPC redirects execution to pc, with nPC following it.
func (q *Sequencer) SetPC(pc uint32) {
	q.PC = pc
	q.NPC = pc + 4
	q.annul = false
}

// StepSequential advances past a non-control-transfer instruction:
// PC <- nPC, nPC <- nPC + 4.
func (q *Sequencer) StepSequential() {
	q.PC = q.NPC
	q.NPC += 4
}

// DelayedJump performs a delayed control transfer: the instruction at nPC
// (the delay slot) runs next, then execution continues at target.
func (q *Sequencer) DelayedJump(target uint32) {
	q.PC = q.NPC
	q.NPC = target
}

// Annul marks the next instruction (the delay slot) as annulled.
func (q *Sequencer) Annul() {
	q.annul = true
}

// Annulled reports whether the next instruction is annulled.
func (q *Sequencer) Annulled() bool {
	return q.annul
}

// SkipAnnulled steps over an annulled delay slot without executing it and
// clears the annul flag.
func (q *Sequencer) SkipAnnulled() {
	q.annul = false
	q.StepSequential()
}
