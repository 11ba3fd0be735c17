package insts

// SignExtend sign-extends the low length bits of bitSeq to 32 bits.
// Bits above length are expected to be clear.
func SignExtend(bitSeq uint32, length uint) uint32 {
	if length == 0 || length >= 32 {
		return bitSeq
	}
	if bitSeq&(1<<(length-1)) != 0 {
		bitSeq |= 0xFFFFFFFF << length
	}
	return bitSeq
}
