package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/leonsim/emu"
	"github.com/sarchlab/leonsim/insts"
)

var _ = Describe("ALU", func() {
	var (
		s   *emu.State
		alu *emu.ALU
	)

	BeforeEach(func() {
		s = newState(8)
		alu = emu.NewALU(s)
	})

	execute := func(op insts.Op, rs1, rs2 uint32) emu.Result {
		res, ok := alu.Execute(op, rs1, rs2)
		Expect(ok).To(BeTrue())
		return res
	}

	DescribeTable("should compute results",
		func(op insts.Op, rs1, rs2, want uint32) {
			Expect(execute(op, rs1, rs2).Value).To(Equal(want))
		},
		Entry("add", insts.OpADD, uint32(3), uint32(4), uint32(7)),
		Entry("sub wraps", insts.OpSUB, uint32(0), uint32(1), uint32(0xFFFFFFFF)),
		Entry("and", insts.OpAND, uint32(0xF0F0), uint32(0xFF00), uint32(0xF000)),
		Entry("andn", insts.OpANDN, uint32(0xF0F0), uint32(0xFF00), uint32(0x00F0)),
		Entry("or", insts.OpOR, uint32(0xF0F0), uint32(0x0F00), uint32(0xFFF0)),
		Entry("orn", insts.OpORN, uint32(0), uint32(0xFFFFFFF0), uint32(0xF)),
		Entry("xor", insts.OpXOR, uint32(0xFF), uint32(0x0F), uint32(0xF0)),
		Entry("xnor", insts.OpXNOR, uint32(0xFF), uint32(0x0F), uint32(0xFFFFFF0F)),
		Entry("sll", insts.OpSLL, uint32(1), uint32(31), uint32(0x80000000)),
		Entry("sll uses five bits", insts.OpSLL, uint32(1), uint32(33), uint32(2)),
		Entry("srl", insts.OpSRL, uint32(0x80000000), uint32(31), uint32(1)),
		Entry("sra", insts.OpSRA, uint32(0x80000000), uint32(31), uint32(0xFFFFFFFF)),
	)

	It("should add and subtract the carry", func() {
		s.PSR = s.PSR.WithICC(emu.ICC{C: true})
		Expect(execute(insts.OpADDX, 1, 1).Value).To(Equal(uint32(3)))
		Expect(execute(insts.OpSUBX, 5, 1).Value).To(Equal(uint32(3)))
	})

	It("should chain a 64-bit add through ADDcc and ADDX", func() {
		lo := execute(insts.OpADDcc, 0xFFFFFFFF, 1)
		Expect(s.WriteBack(lo.Variant, g1, lo.Value, lo.Pending)).To(Succeed())
		hi := execute(insts.OpADDX, 0, 0)
		Expect(lo.Value).To(BeZero())
		Expect(hi.Value).To(Equal(uint32(1)))
	})

	It("should buffer status without touching live state", func() {
		s.Y = 0x1234
		before := s.Snapshot()

		res := execute(insts.OpUMULcc, 0xFFFFFFFF, 2)

		Expect(s.Snapshot()).To(Equal(before))
		Expect(res.Variant).To(Equal(emu.WBYICC))
		Expect(res.Pending.Y).To(Equal(uint32(1)))
		Expect(res.Value).To(Equal(uint32(0xFFFFFFFE)))
		Expect(res.Pending.PSR.ICC()).To(Equal(emu.ICC{N: true}))
	})

	It("should clear V and C for logical cc operations", func() {
		s.PSR = s.PSR.WithICC(emu.ICC{V: true, C: true})
		res := execute(insts.OpANDcc, 0xF0, 0x0F)
		Expect(res.Pending.PSR.ICC()).To(Equal(emu.ICC{Z: true}))
	})

	It("should leave the ICC alone for plain operations", func() {
		s.PSR = s.PSR.WithICC(emu.ICC{V: true})
		res := execute(insts.OpADD, 0x7FFFFFFF, 1)
		Expect(res.Pending.PSR.ICC()).To(Equal(emu.ICC{V: true}))
	})

	It("should multiply signed into Y", func() {
		res := execute(insts.OpSMUL, 0xFFFFFFFF, 3) // -1 * 3
		Expect(res.Value).To(Equal(uint32(0xFFFFFFFD)))
		Expect(res.Pending.Y).To(Equal(uint32(0xFFFFFFFF)))
		Expect(res.Variant).To(Equal(emu.WBY))
	})

	It("should multiply unsigned into Y", func() {
		res := execute(insts.OpUMUL, 0x80000000, 4)
		Expect(res.Value).To(BeZero())
		Expect(res.Pending.Y).To(Equal(uint32(2)))
	})

	It("should multiply with 32 MULScc steps", func() {
		const a, b = uint32(1234), uint32(5678)

		s.Y = a
		s.PSR = s.PSR.WithICC(emu.ICC{})
		var partial uint32
		for i := 0; i < 32; i++ {
			res := execute(insts.OpMULScc, partial, b)
			Expect(s.WriteBack(res.Variant, g1, res.Value, res.Pending)).To(Succeed())
			partial = res.Value
		}
		// A final step with a zero multiplicand shifts the last partial bit into Y.
		res := execute(insts.OpMULScc, partial, 0)
		Expect(s.WriteBack(res.Variant, g1, res.Value, res.Pending)).To(Succeed())

		Expect(s.Y).To(Equal(a * b))
	})

	Describe("MAC", func() {
		It("should accumulate unsigned halfword products", func() {
			s.ASR18 = 10
			res := execute(insts.OpUMAC, 0xFFFF0003, 0x00010004)
			Expect(res.Value).To(Equal(uint32(22)))
			Expect(res.Pending.ASR18).To(Equal(uint32(22)))
			Expect(res.Variant).To(Equal(emu.WBYASR))
		})

		It("should carry into Y[7:0] and keep the upper Y bits", func() {
			s.Y = 0xABCDEF00
			s.ASR18 = 0xFFFFFFFF
			res := execute(insts.OpUMAC, 1, 1)
			Expect(res.Pending.ASR18).To(BeZero())
			Expect(res.Pending.Y).To(Equal(uint32(0xABCDEF01)))
		})

		It("should wrap at 40 bits", func() {
			s.Y = 0xFF
			s.ASR18 = 0xFFFFFFFF
			res := execute(insts.OpUMAC, 1, 1)
			Expect(res.Pending.Y & 0xFF).To(BeZero())
			Expect(res.Pending.ASR18).To(BeZero())
		})

		It("should accumulate signed halfword products", func() {
			res := execute(insts.OpSMAC, 0xFFFF, 2) // -1 * 2
			Expect(res.Value).To(Equal(uint32(0xFFFFFFFE)))
			Expect(res.Pending.Y & 0xFF).To(Equal(uint32(0xFF)))
			Expect(res.Pending.ASR18).To(Equal(uint32(0xFFFFFFFE)))
		})

		It("should treat the accumulator as signed", func() {
			s.Y = 0xFF
			s.ASR18 = 0xFFFFFFFF // -1
			res := execute(insts.OpSMAC, 1, 1)
			Expect(res.Value).To(BeZero())
			Expect(res.Pending.Y & 0xFF).To(BeZero())
		})
	})

	It("should refuse non-ALU operations", func() {
		_, ok := alu.Execute(insts.OpST, 1, 2)
		Expect(ok).To(BeFalse())
	})
})
