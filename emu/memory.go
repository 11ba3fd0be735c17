// Package emu provides functional SPARC V8 (LEON3) emulation.
package emu

const (
	pageBits = 12
	pageSize = 1 << pageBits
	pageMask = pageSize - 1
)

// Memory is a sparse, big-endian, byte-addressable 32-bit address space.
// Unwritten locations read as zero.
type Memory struct {
	pages map[uint32]*[pageSize]byte
}

// NewMemory creates an empty memory.
func NewMemory() *Memory {
	return &Memory{pages: make(map[uint32]*[pageSize]byte)}
}

func (m *Memory) page(addr uint32, create bool) *[pageSize]byte {
	key := addr >> pageBits
	p, ok := m.pages[key]
	if !ok && create {
		p = new([pageSize]byte)
		m.pages[key] = p
	}
	return p
}

// Read8 reads a byte.
func (m *Memory) Read8(addr uint32) uint8 {
	p := m.page(addr, false)
	if p == nil {
		return 0
	}
	return p[addr&pageMask]
}

// Write8 writes a byte.
func (m *Memory) Write8(addr uint32, value uint8) {
	m.page(addr, true)[addr&pageMask] = value
}

// Read16 reads a big-endian halfword.
func (m *Memory) Read16(addr uint32) uint16 {
	return uint16(m.Read8(addr))<<8 | uint16(m.Read8(addr+1))
}

// Write16 writes a big-endian halfword.
func (m *Memory) Write16(addr uint32, value uint16) {
	m.Write8(addr, uint8(value>>8))
	m.Write8(addr+1, uint8(value))
}

// Read32 reads a big-endian word.
func (m *Memory) Read32(addr uint32) uint32 {
	return uint32(m.Read16(addr))<<16 | uint32(m.Read16(addr+2))
}

// Write32 writes a big-endian word.
func (m *Memory) Write32(addr uint32, value uint32) {
	m.Write16(addr, uint16(value>>16))
	m.Write16(addr+2, uint16(value))
}

// LoadProgram copies program into memory starting at addr.
func (m *Memory) LoadProgram(addr uint32, program []byte) {
	for i, b := range program {
		m.Write8(addr+uint32(i), b)
	}
}
