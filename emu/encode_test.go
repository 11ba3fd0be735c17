package emu_test

import (
	"encoding/binary"

	"github.com/sarchlab/leonsim/insts"
)

// SPARC register numbers used by the test programs.
const (
	g0 = 0
	g1 = 1
	g2 = 2
	g3 = 3
	o0 = 8
	o1 = 9
	o2 = 10
	sp = 14
	o7 = 15
	l0 = 16
	i0 = 24
	fp = 30
)

const nop = 0x01000000

func encodeArith(op3, rd, rs1, rs2 uint32) uint32 {
	return 2<<30 | rd<<25 | op3<<19 | rs1<<14 | rs2
}

func encodeArithImm(op3, rd, rs1 uint32, simm13 int32) uint32 {
	return 2<<30 | rd<<25 | op3<<19 | rs1<<14 | 1<<13 | uint32(simm13)&0x1FFF
}

func encodeMemImm(op3, rd, rs1 uint32, simm13 int32) uint32 {
	return 3<<30 | rd<<25 | op3<<19 | rs1<<14 | 1<<13 | uint32(simm13)&0x1FFF
}

func encodeSethi(rd, imm22 uint32) uint32 {
	return rd<<25 | 4<<22 | imm22&0x3FFFFF
}

// encodeBicc encodes a branch; disp is in words.
func encodeBicc(cond insts.Cond, annul bool, disp int32) uint32 {
	var a uint32
	if annul {
		a = 1
	}
	return a<<29 | uint32(cond)<<25 | 2<<22 | uint32(disp)&0x3FFFFF
}

// encodeCall encodes CALL; disp is in words.
func encodeCall(disp int32) uint32 {
	return 1<<30 | uint32(disp)&0x3FFFFFFF
}

func encodeTa(n int32) uint32 {
	return encodeArithImm(0x3A, uint32(insts.CondA), g0, n)
}

func addImm(rd, rs1 uint32, imm int32) uint32 { return encodeArithImm(0x00, rd, rs1, imm) }
func subccImm(rd, rs1 uint32, imm int32) uint32 {
	return encodeArithImm(0x14, rd, rs1, imm)
}
func save(frame int32) uint32 { return encodeArithImm(0x3C, sp, sp, frame) }
func restore() uint32         { return encodeArith(0x3D, g0, g0, g0) }
func retl() uint32            { return encodeArithImm(0x38, g0, o7, 8) }

// program converts instruction words to big-endian bytes.
func program(words ...uint32) []byte {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint32(buf[4*i:], w)
	}
	return buf
}
