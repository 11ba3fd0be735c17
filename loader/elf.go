// Package loader provides ELF binary loading for SPARC V8 (LEON3) executables.
package loader

import (
	"debug/elf"
	"fmt"
	"io"

	"github.com/sarchlab/leonsim/emu"
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// DefaultStackTop is the initial %sp for programs. It leaves room for the
// 64-byte register save area of the first frame below the top of RAM on a
// typical LEON3 board (RAM at 0x40000000, 16MB).
const DefaultStackTop = 0x40FFFF00

// addressSpaceEnd is one past the last guest address.
const addressSpaceEnd = 1 << 32

// Segment represents a loadable segment from an ELF binary.
type Segment struct {
	// VirtAddr is the virtual address where this segment should be loaded.
	VirtAddr uint32
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint32
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Program represents a loaded ELF program ready for execution.
type Program struct {
	// EntryPoint is the virtual address where execution should begin.
	EntryPoint uint32
	// Segments contains all loadable segments from the ELF file.
	Segments []Segment
	// InitialSP is the initial stack pointer value.
	InitialSP uint32
}

// Load parses a 32-bit big-endian SPARC ELF binary and returns a Program
// ready for loading into the emulator's memory.
func Load(path string) (*Program, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("not a 32-bit ELF file")
	}

	if f.Machine != elf.EM_SPARC && f.Machine != elf.EM_SPARC32PLUS {
		return nil, fmt.Errorf("not a SPARC ELF file (machine type: %v)", f.Machine)
	}

	prog := &Program{
		EntryPoint: uint32(f.Entry),
		InitialSP:  DefaultStackTop,
	}

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		if phdr.Memsz < phdr.Filesz {
			return nil, fmt.Errorf("segment at 0x%x: memory size %d is smaller than file size %d",
				phdr.Vaddr, phdr.Memsz, phdr.Filesz)
		}
		if phdr.Vaddr+phdr.Memsz > addressSpaceEnd {
			return nil, fmt.Errorf("segment at 0x%x with size %d does not fit the 32-bit address space",
				phdr.Vaddr, phdr.Memsz)
		}

		// Reading through the segment reader keeps the allocation bounded by
		// the bytes actually present in the file.
		data, err := io.ReadAll(phdr.Open())
		if err != nil {
			return nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
		}
		if uint64(len(data)) != phdr.Filesz {
			return nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
				phdr.Vaddr, len(data), phdr.Filesz)
		}

		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= SegmentFlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= SegmentFlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= SegmentFlagRead
		}

		prog.Segments = append(prog.Segments, Segment{
			VirtAddr: uint32(phdr.Vaddr),
			Data:     data,
			MemSize:  uint32(phdr.Memsz),
			Flags:    flags,
		})
	}

	return prog, nil
}

// Install copies the segments into e's memory, zero-filling BSS, points
// the PC at the entry point and sets %sp to InitialSP.
func (p *Program) Install(e *emu.Emulator) {
	memory := e.Memory()
	for _, seg := range p.Segments {
		memory.LoadProgram(seg.VirtAddr, seg.Data)
		for i := uint32(len(seg.Data)); i < seg.MemSize; i++ {
			memory.Write8(seg.VirtAddr+i, 0)
		}
	}

	e.State().SetPC(p.EntryPoint)
	e.State().WriteReg(14, p.InitialSP)
}
