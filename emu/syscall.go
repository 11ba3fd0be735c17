// Package emu provides functional SPARC V8 (LEON3) emulation.
package emu

import "io"

// SPARC Linux syscall numbers.
const (
	SyscallExit  uint32 = 1 // exit(status)
	SyscallRead  uint32 = 3 // read(fd, buf, count)
	SyscallWrite uint32 = 4 // write(fd, buf, count)
)

// Linux error codes.
const (
	EBADF  = 9  // Bad file descriptor
	ENOSYS = 38 // Function not implemented
	EIO    = 5  // I/O error
)

// Registers of the SPARC syscall convention.
const (
	regG1 uint8 = 1
	regO0 uint8 = 8
	regO1 uint8 = 9
	regO2 uint8 = 10
)

// syscallChunk bounds the host buffer used for a single read or write.
// syscallMaxWrite caps the bytes one write call moves; the rest is left
// to the guest as a short write.
const (
	syscallChunk    = 4096
	syscallMaxWrite = 16 * syscallChunk
)

// SyscallResult represents the result of a syscall execution.
type SyscallResult struct {
	// Exited is true if the syscall caused program termination.
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int64
}

// SyscallHandler is the interface for handling "ta 0x10" syscalls.
type SyscallHandler interface {
	// Handle executes the syscall indicated by the core state.
	// SPARC Linux syscall convention:
	//   - Syscall number in %g1
	//   - Arguments in %o0-%o5
	//   - Return value in %o0, carry set on error
	Handle() SyscallResult
}

// DefaultSyscallHandler provides a basic syscall handler implementation.
type DefaultSyscallHandler struct {
	state  *State
	memory *Memory
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// NewDefaultSyscallHandler creates a default syscall handler.
func NewDefaultSyscallHandler(state *State, memory *Memory, stdout, stderr io.Writer) *DefaultSyscallHandler {
	return &DefaultSyscallHandler{
		state:  state,
		memory: memory,
		stdout: stdout,
		stderr: stderr,
	}
}

// SetStdin sets the stdin reader for the syscall handler.
func (h *DefaultSyscallHandler) SetStdin(stdin io.Reader) {
	h.stdin = stdin
}

// Handle executes the syscall indicated by the core state.
func (h *DefaultSyscallHandler) Handle() SyscallResult {
	switch h.state.ReadReg(regG1) {
	case SyscallRead:
		return h.handleRead()
	case SyscallWrite:
		return h.handleWrite()
	case SyscallExit:
		return h.handleExit()
	default:
		h.setError(ENOSYS)
		return SyscallResult{}
	}
}

// handleExit handles the exit syscall (1).
func (h *DefaultSyscallHandler) handleExit() SyscallResult {
	return SyscallResult{
		Exited:   true,
		ExitCode: int64(int32(h.state.ReadReg(regO0))),
	}
}

// handleRead handles the read syscall (3). At most syscallChunk bytes are
// transferred per call; the guest sees a short read and retries.
func (h *DefaultSyscallHandler) handleRead() SyscallResult {
	fd := h.state.ReadReg(regO0)
	bufPtr := h.state.ReadReg(regO1)
	count := h.state.ReadReg(regO2)

	// Only stdin (fd=0) is supported for now
	if fd != 0 {
		h.setError(EBADF)
		return SyscallResult{}
	}

	// If no stdin is configured, return EOF
	if h.stdin == nil {
		h.setReturn(0)
		return SyscallResult{}
	}

	if count > syscallChunk {
		count = syscallChunk
	}

	buf := make([]byte, count)
	n, err := h.stdin.Read(buf)
	if err != nil && n == 0 {
		h.setReturn(0)
		return SyscallResult{}
	}

	for i := 0; i < n; i++ {
		h.memory.Write8(bufPtr+uint32(i), buf[i])
	}

	h.setReturn(uint32(n))
	return SyscallResult{}
}

// handleWrite handles the write syscall (4). Guest memory is copied out in
// syscallChunk pieces; a short write ends the transfer.
func (h *DefaultSyscallHandler) handleWrite() SyscallResult {
	fd := h.state.ReadReg(regO0)
	bufPtr := h.state.ReadReg(regO1)
	count := h.state.ReadReg(regO2)

	var writer io.Writer
	switch fd {
	case 1:
		writer = h.stdout
	case 2:
		writer = h.stderr
	default:
		h.setError(EBADF)
		return SyscallResult{}
	}

	if count > syscallMaxWrite {
		count = syscallMaxWrite
	}

	var chunk [syscallChunk]byte
	var written uint32
	for written < count {
		size := count - written
		if size > syscallChunk {
			size = syscallChunk
		}
		for i := uint32(0); i < size; i++ {
			chunk[i] = h.memory.Read8(bufPtr + written + i)
		}

		n, err := writer.Write(chunk[:size])
		written += uint32(n)
		if err != nil {
			if written == 0 {
				h.setError(EIO)
				return SyscallResult{}
			}
			break
		}
		if uint32(n) < size {
			break
		}
	}

	h.setReturn(written)
	return SyscallResult{}
}

// setReturn reports success: %o0 = value, carry clear.
func (h *DefaultSyscallHandler) setReturn(value uint32) {
	h.commit(value, false)
}

// setError reports failure the SPARC way: %o0 = errno, carry set.
func (h *DefaultSyscallHandler) setError(errno int) {
	h.commit(uint32(errno), true)
}

// commit stores the syscall result through the icc write-back path.
func (h *DefaultSyscallHandler) commit(value uint32, carry bool) {
	p := h.state.Pending()
	icc := p.PSR.ICC()
	icc.C = carry
	p.PSR = p.PSR.WithICC(icc)

	// WBICC is always a known variant.
	_ = h.state.WriteBack(WBICC, regO0, value, p)
}
