package cache

// Port gives word-sized access to a Cache and accumulates the access
// latency, so it can stand in for memory on a data path.
type Port struct {
	cache  *Cache
	cycles uint64
}

// NewPort creates a word port on c.
func NewPort(c *Cache) *Port {
	return &Port{cache: c}
}

// Read32 reads a big-endian word through the cache.
func (p *Port) Read32(addr uint32) uint32 {
	r := p.cache.Read(uint64(addr), 4)
	p.cycles += r.Latency
	return uint32(r.Data)
}

// Write32 writes a big-endian word through the cache.
func (p *Port) Write32(addr uint32, value uint32) {
	r := p.cache.Write(uint64(addr), 4, uint64(value))
	p.cycles += r.Latency
}

// Cycles returns the total latency of the accesses made through the port.
func (p *Port) Cycles() uint64 {
	return p.cycles
}
