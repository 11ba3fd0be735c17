// Package emu provides functional SPARC V8 (LEON3) emulation.
package emu

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/leonsim/insts"
)

// ErrMaxInstructions is returned once the instruction limit is reached.
var ErrMaxInstructions = errors.New("max instructions reached")

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Exited is true if the program terminated (via exit syscall).
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int64

	// Err is set if an error occurred during execution. An unhandled
	// architectural trap is reported as a *Trap.
	Err error

	// Annulled is true if the step skipped an annulled delay slot.
	Annulled bool

	// Trap is the trap raised during the step, if any.
	Trap *Trap
}

// TrapHandler services traps the core raises.
//
// HandleTrap is called with the state exactly as it was before the trapping
// instruction. Returning nil resumes execution at the PC/nPC left in s, so
// a handler that leaves them untouched makes the instruction run again.
type TrapHandler interface {
	HandleTrap(s *State, t *Trap) error
}

// CycleModel reports the cycle cost of an instruction.
type CycleModel interface {
	GetLatency(inst *insts.Instruction) uint64
}

// Emulator executes SPARC V8 instructions functionally.
type Emulator struct {
	config         Config
	state          *State
	memory         *Memory
	decoder        *insts.Decoder
	syscallHandler SyscallHandler
	trapHandler    TrapHandler
	cycleModel     CycleModel
	logger         *logrus.Logger

	// Execution units
	alu        *ALU
	lsu        *LoadStoreUnit
	branchUnit *BranchUnit

	// I/O
	stdout io.Writer
	stderr io.Writer

	// Execution state
	stepCount        uint64 // includes trapped attempts
	instructionCount uint64 // retired only
	cycleCount       uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithNumWindows sets the number of register windows.
func WithNumWindows(n int) EmulatorOption {
	return func(e *Emulator) {
		e.config.NumWindows = n
	}
}

// WithResetPC sets the reset vector.
func WithResetPC(pc uint32) EmulatorOption {
	return func(e *Emulator) {
		e.config.ResetPC = pc
	}
}

// WithMemory makes the emulator use memory instead of a fresh one, so that
// trap handlers and cache models can share it.
func WithMemory(memory *Memory) EmulatorOption {
	return func(e *Emulator) {
		e.memory = memory
	}
}

// WithStdout sets a custom stdout writer.
func WithStdout(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stdout = w
	}
}

// WithStderr sets a custom stderr writer.
func WithStderr(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stderr = w
	}
}

// WithSyscallHandler sets a custom syscall handler.
func WithSyscallHandler(handler SyscallHandler) EmulatorOption {
	return func(e *Emulator) {
		e.syscallHandler = handler
	}
}

// WithTrapHandler sets the handler that services traps. Without one, traps
// stop execution and are reported through StepResult.Err.
func WithTrapHandler(handler TrapHandler) EmulatorOption {
	return func(e *Emulator) {
		e.trapHandler = handler
	}
}

// WithLogger sets the logger used for step and trap tracing.
func WithLogger(logger *logrus.Logger) EmulatorOption {
	return func(e *Emulator) {
		e.logger = logger
	}
}

// WithLatencyTable enables cycle counting with the given model.
func WithLatencyTable(model CycleModel) EmulatorOption {
	return func(e *Emulator) {
		e.cycleModel = model
	}
}

// WithMaxInstructions sets the maximum number of steps to execute, trapped
// attempts included. A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// NewEmulator creates a new LEON3 emulator.
func NewEmulator(opts ...EmulatorOption) (*Emulator, error) {
	e := &Emulator{
		config:  DefaultConfig(),
		memory:  NewMemory(),
		decoder: insts.NewDecoder(),
		logger:  logrus.StandardLogger(),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}

	// Apply options first (may set the configuration and stdout/stderr)
	for _, opt := range opts {
		opt(e)
	}

	state, err := NewState(e.config)
	if err != nil {
		return nil, fmt.Errorf("creating core state: %w", err)
	}
	e.state = state

	// Create execution units
	e.alu = NewALU(state)
	e.lsu = NewLoadStoreUnit(state, e.memory)
	e.branchUnit = NewBranchUnit(state)

	if e.syscallHandler == nil {
		e.syscallHandler = NewDefaultSyscallHandler(state, e.memory, e.stdout, e.stderr)
	}

	return e, nil
}

// State returns the emulator's architectural state.
func (e *Emulator) State() *State {
	return e.state
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// InstructionCount returns the number of retired instructions. Annulled
// delay slots count; an attempt that raised a trap does not.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// Cycles returns the cycles accumulated by the latency table.
// It stays 0 when no latency table is configured.
func (e *Emulator) Cycles() uint64 {
	return e.cycleCount
}

// LoadProgram copies program into memory at entry and starts execution there.
func (e *Emulator) LoadProgram(entry uint32, program []byte) {
	e.memory.LoadProgram(entry, program)
	e.state.SetPC(entry)
}

// Reset resets the architectural state and counters. Memory is kept.
func (e *Emulator) Reset() {
	e.state.Reset()
	e.stepCount = 0
	e.instructionCount = 0
	e.cycleCount = 0
}

// Step executes a single instruction, or skips an annulled delay slot.
func (e *Emulator) Step() StepResult {
	if e.maxInstructions > 0 && e.stepCount >= e.maxInstructions {
		return StepResult{Err: ErrMaxInstructions}
	}
	e.stepCount++

	s := e.state
	if s.Annulled() {
		e.trace(s.PC, "annulled")
		s.SkipAnnulled()
		e.instructionCount++
		if e.cycleModel != nil {
			e.cycleCount++
		}
		return StepResult{Annulled: true}
	}

	// 1. Fetch
	word := e.memory.Read32(s.PC)

	// 2. Decode
	inst := e.decoder.Decode(word)
	e.trace(s.PC, inst.Op.String())

	// 3. Execute
	result := e.execute(inst)
	if result.Trap != nil {
		return result
	}

	e.instructionCount++
	if e.cycleModel != nil {
		e.cycleCount += e.cycleModel.GetLatency(inst)
	}

	return result
}

// Run executes instructions until the program exits or an error occurs.
// Returns the exit code (-1 if error).
func (e *Emulator) Run() int64 {
	for {
		result := e.Step()
		if result.Exited {
			return result.ExitCode
		}
		if result.Err != nil {
			_, _ = fmt.Fprintf(e.stderr, "Emulation error: %v\n", result.Err)
			return -1
		}
	}
}

func (e *Emulator) trace(pc uint32, what string) {
	if !e.logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	e.logger.WithFields(logrus.Fields{
		"pc":  fmt.Sprintf("0x%08X", pc),
		"npc": fmt.Sprintf("0x%08X", e.state.NPC),
		"cwp": e.state.PSR.CWP(),
	}).Debug(what)
}

// execute dispatches and executes a decoded instruction.
func (e *Emulator) execute(inst *insts.Instruction) StepResult {
	s := e.state

	switch inst.Format {
	case insts.FormatCall:
		return e.transferred(e.branchUnit.CALL(inst.Disp))
	case insts.FormatBranch:
		e.branchUnit.Bicc(inst.Cond, inst.Disp, inst.Annul)
		return StepResult{}
	case insts.FormatSethi:
		return e.sequential(s.WriteBack(WBPlain, inst.Rd, inst.Imm, s.Pending()))
	case insts.FormatArith:
		return e.executeArith(inst)
	case insts.FormatMem:
		return e.executeMem(inst)
	default:
		return e.raise(e.illegal())
	}
}

// operand2 returns the second source operand: simm13 or r[rs2].
func (e *Emulator) operand2(inst *insts.Instruction) uint32 {
	if inst.HasImm {
		return inst.Imm
	}
	return e.state.ReadReg(inst.Rs2)
}

// executeArith executes format 3 arithmetic and control instructions.
func (e *Emulator) executeArith(inst *insts.Instruction) StepResult {
	s := e.state
	op1 := s.ReadReg(inst.Rs1)
	op2 := e.operand2(inst)

	switch inst.Op {
	case insts.OpJMPL:
		return e.transferred(e.branchUnit.JMPL(inst.Rd, op1+op2))
	case insts.OpTicc:
		return e.executeTicc(inst, op1+op2)
	case insts.OpSAVE:
		return e.sequential(e.rotate(s.DecrementWindow, inst.Rd, op1+op2))
	case insts.OpRESTORE:
		return e.sequential(e.rotate(s.IncrementWindow, inst.Rd, op1+op2))
	case insts.OpRDY:
		return e.sequential(s.WriteBack(WBPlain, inst.Rd, s.Y, s.Pending()))
	case insts.OpRDASR18:
		return e.sequential(s.WriteBack(WBPlain, inst.Rd, s.ASR18, s.Pending()))
	case insts.OpRDPSR:
		return e.sequential(s.WriteBack(WBPlain, inst.Rd, uint32(s.PSR), s.Pending()))
	case insts.OpRDWIM:
		return e.sequential(s.WriteBack(WBPlain, inst.Rd, s.WIM, s.Pending()))
	case insts.OpWRY, insts.OpWRASR18, insts.OpWRPSR, insts.OpWRWIM:
		// WR writes r[rs1] xor operand2.
		return e.sequential(e.writeStateReg(inst.Op, op1^op2))
	}

	res, ok := e.alu.Execute(inst.Op, op1, op2)
	if !ok {
		return e.raise(e.illegal())
	}
	return e.sequential(s.WriteBack(res.Variant, inst.Rd, res.Value, res.Pending))
}

// rotate performs the window half of SAVE/RESTORE. The sum was computed in
// the old window; rd is written in the new one. A window trap leaves
// everything untouched.
func (e *Emulator) rotate(shift func() error, rd uint8, sum uint32) error {
	if err := shift(); err != nil {
		return err
	}
	return e.state.WriteBack(WBPlain, rd, sum, e.state.Pending())
}

// writeStateReg executes WRY, WRASR18, WRPSR and WRWIM.
func (e *Emulator) writeStateReg(op insts.Op, value uint32) error {
	s := e.state
	n := s.NumWindows()

	switch op {
	case insts.OpWRY:
		s.Y = value
	case insts.OpWRASR18:
		s.ASR18 = value
	case insts.OpWRPSR:
		if PSR(value).CWP() >= n {
			return e.illegal()
		}
		s.PSR = PSR(value)
	case insts.OpWRWIM:
		s.WIM = value & (uint32(1)<<n - 1)
	}
	return nil
}

// executeTicc executes a conditional software trap. "ta 0x10" goes to the
// syscall handler and continues with the next instruction.
func (e *Emulator) executeTicc(inst *insts.Instruction, num uint32) StepResult {
	s := e.state
	if !e.branchUnit.CheckCondition(inst.Cond) {
		s.StepSequential()
		return StepResult{}
	}

	tt := SoftwareTrap(num)
	if tt == SoftwareTrap(SyscallTrapNumber) {
		// Advance PC first (execution resumes after the trap instruction)
		s.StepSequential()
		r := e.syscallHandler.Handle()
		return StepResult{
			Exited:   r.Exited,
			ExitCode: r.ExitCode,
		}
	}

	return e.raise(&Trap{Type: tt, PC: s.PC, NPC: s.NPC})
}

// executeMem executes format 3 load/store instructions.
func (e *Emulator) executeMem(inst *insts.Instruction) StepResult {
	addr := e.state.ReadReg(inst.Rs1) + e.operand2(inst)

	switch inst.Op {
	case insts.OpST, insts.OpSTB, insts.OpSTH:
		return e.sequential(e.lsu.Store(inst.Op, inst.Rd, addr))
	default:
		return e.sequential(e.lsu.Load(inst.Op, inst.Rd, addr))
	}
}

func (e *Emulator) illegal() *Trap {
	return &Trap{
		Type: TrapIllegalInstruction,
		PC:   e.state.PC,
		NPC:  e.state.NPC,
	}
}

// sequential finishes a non-control-transfer instruction.
func (e *Emulator) sequential(err error) StepResult {
	if err != nil {
		return e.fail(err)
	}
	e.state.StepSequential()
	return StepResult{}
}

// transferred finishes a control transfer that already set PC/nPC.
func (e *Emulator) transferred(err error) StepResult {
	if err != nil {
		return e.fail(err)
	}
	return StepResult{}
}

func (e *Emulator) fail(err error) StepResult {
	var t *Trap
	if errors.As(err, &t) {
		return e.raise(t)
	}
	return StepResult{Err: err}
}

// raise delivers a trap to the trap handler, if any.
func (e *Emulator) raise(t *Trap) StepResult {
	fields := logrus.Fields{
		"tt":     t.Type.String(),
		"pc":     fmt.Sprintf("0x%08X", t.PC),
		"window": t.Window,
	}

	if e.trapHandler == nil {
		e.logger.WithFields(fields).Debug("unhandled trap")
		return StepResult{Err: t, Trap: t}
	}

	if err := e.trapHandler.HandleTrap(e.state, t); err != nil {
		e.logger.WithFields(fields).WithError(err).Warn("trap handler failed")
		return StepResult{Err: fmt.Errorf("%w: handler: %w", t, err), Trap: t}
	}

	e.logger.WithFields(fields).Debug("trap handled")
	return StepResult{Trap: t}
}
