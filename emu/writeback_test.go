package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/leonsim/emu"
	"github.com/sarchlab/leonsim/insts"
)

var _ = Describe("WriteBack", func() {
	var (
		s       *emu.State
		pending emu.Pending
	)

	BeforeEach(func() {
		s = newState(8)
		s.PSR = s.PSR.WithCWP(2)
		s.Y = 0x11111111
		s.ASR18 = 0x22222222

		pending = s.Pending()
		pending.PSR = pending.PSR.WithICC(emu.ICC{N: true, C: true})
		pending.Y = 0xAAAAAAAA
		pending.ASR18 = 0xBBBBBBBB
	})

	DescribeTable("should commit exactly the fields the variant names",
		func(variant emu.WBVariant, icc, y, asr bool) {
			before := s.Snapshot()

			Expect(s.WriteBack(variant, o0, 0xDEADBEEF, pending)).To(Succeed())

			want := before
			want.Regs = append([]uint32(nil), before.Regs...)
			want.Regs[s.Regs.Physical(o0, 2)] = 0xDEADBEEF
			if icc {
				want.PSR = before.PSR.WithICC(emu.ICC{N: true, C: true})
			}
			if y {
				want.Y = 0xAAAAAAAA
			}
			if asr {
				want.ASR18 = 0xBBBBBBBB
			}
			Expect(s.Snapshot()).To(Equal(want))
		},
		Entry("plain", emu.WBPlain, false, false, false),
		Entry("icc", emu.WBICC, true, false, false),
		Entry("y", emu.WBY, false, true, false),
		Entry("y-icc", emu.WBYICC, true, true, false),
		Entry("y-icc-asr", emu.WBYICCASR, true, true, true),
		Entry("y-asr", emu.WBYASR, false, true, true),
	)

	It("should reject an unknown variant without writing anything", func() {
		before := s.Snapshot()

		err := s.WriteBack(emu.WBVariant(42), o0, 0xDEADBEEF, pending)

		Expect(err).To(HaveOccurred())
		Expect(s.Snapshot()).To(Equal(before))
	})

	It("should discard results written to %g0 but still commit status", func() {
		Expect(s.WriteBack(emu.WBYICC, g0, 7, pending)).To(Succeed())
		Expect(s.ReadReg(g0)).To(BeZero())
		Expect(s.Y).To(Equal(uint32(0xAAAAAAAA)))
		Expect(s.PSR.ICC()).To(Equal(emu.ICC{N: true, C: true}))
	})

	It("should not revert the CWP from the buffered PSR", func() {
		Expect(s.DecrementWindow()).To(Succeed())
		Expect(s.WriteBack(emu.WBICC, l0, 1, pending)).To(Succeed())
		Expect(s.PSR.CWP()).To(Equal(uint32(1)))
	})

	It("should name every variant", func() {
		Expect(emu.WBYICCASR.String()).To(Equal("y-icc-asr"))
		Expect(emu.WBVariant(42).String()).To(Equal("WBVariant(42)"))
	})

	DescribeTable("should map instructions to write-back variants",
		func(op insts.Op, want emu.WBVariant) {
			v, ok := emu.WriteBackVariant(op)
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(want))
		},
		Entry("add", insts.OpADD, emu.WBPlain),
		Entry("addx", insts.OpADDX, emu.WBPlain),
		Entry("sub", insts.OpSUB, emu.WBPlain),
		Entry("subx", insts.OpSUBX, emu.WBPlain),
		Entry("and", insts.OpAND, emu.WBPlain),
		Entry("andn", insts.OpANDN, emu.WBPlain),
		Entry("or", insts.OpOR, emu.WBPlain),
		Entry("orn", insts.OpORN, emu.WBPlain),
		Entry("xor", insts.OpXOR, emu.WBPlain),
		Entry("xnor", insts.OpXNOR, emu.WBPlain),
		Entry("sll", insts.OpSLL, emu.WBPlain),
		Entry("srl", insts.OpSRL, emu.WBPlain),
		Entry("sra", insts.OpSRA, emu.WBPlain),
		Entry("sethi", insts.OpSETHI, emu.WBPlain),
		Entry("save", insts.OpSAVE, emu.WBPlain),
		Entry("restore", insts.OpRESTORE, emu.WBPlain),
		Entry("rd %y", insts.OpRDY, emu.WBPlain),
		Entry("rd %asr18", insts.OpRDASR18, emu.WBPlain),
		Entry("rd %psr", insts.OpRDPSR, emu.WBPlain),
		Entry("rd %wim", insts.OpRDWIM, emu.WBPlain),
		Entry("jmpl", insts.OpJMPL, emu.WBPlain),
		Entry("call", insts.OpCALL, emu.WBPlain),
		Entry("ld", insts.OpLD, emu.WBPlain),
		Entry("ldub", insts.OpLDUB, emu.WBPlain),
		Entry("ldsb", insts.OpLDSB, emu.WBPlain),
		Entry("lduh", insts.OpLDUH, emu.WBPlain),
		Entry("ldsh", insts.OpLDSH, emu.WBPlain),
		Entry("addcc", insts.OpADDcc, emu.WBICC),
		Entry("addxcc", insts.OpADDXcc, emu.WBICC),
		Entry("subcc", insts.OpSUBcc, emu.WBICC),
		Entry("subxcc", insts.OpSUBXcc, emu.WBICC),
		Entry("andcc", insts.OpANDcc, emu.WBICC),
		Entry("andncc", insts.OpANDNcc, emu.WBICC),
		Entry("orcc", insts.OpORcc, emu.WBICC),
		Entry("orncc", insts.OpORNcc, emu.WBICC),
		Entry("xorcc", insts.OpXORcc, emu.WBICC),
		Entry("xnorcc", insts.OpXNORcc, emu.WBICC),
		Entry("umul", insts.OpUMUL, emu.WBY),
		Entry("smul", insts.OpSMUL, emu.WBY),
		Entry("umulcc", insts.OpUMULcc, emu.WBYICC),
		Entry("smulcc", insts.OpSMULcc, emu.WBYICC),
		Entry("mulscc", insts.OpMULScc, emu.WBYICC),
		Entry("umac", insts.OpUMAC, emu.WBYASR),
		Entry("smac", insts.OpSMAC, emu.WBYASR),
	)

	DescribeTable("should report no variant for instructions without a register result",
		func(op insts.Op) {
			_, ok := emu.WriteBackVariant(op)
			Expect(ok).To(BeFalse())
		},
		Entry("bicc", insts.OpBicc),
		Entry("ticc", insts.OpTicc),
		Entry("st", insts.OpST),
		Entry("stb", insts.OpSTB),
		Entry("sth", insts.OpSTH),
		Entry("wr %y", insts.OpWRY),
		Entry("wr %asr18", insts.OpWRASR18),
		Entry("wr %psr", insts.OpWRPSR),
		Entry("wr %wim", insts.OpWRWIM),
		Entry("unknown", insts.OpUnknown),
	)
})
