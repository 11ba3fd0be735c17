package traps_test

import (
	"encoding/binary"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/sarchlab/leonsim/emu"
	"github.com/sarchlab/leonsim/timing/cache"
	"github.com/sarchlab/leonsim/traps"
)

const (
	regSP = 14
	regL0 = 16
)

func newState() *emu.State {
	s, err := emu.NewState(emu.DefaultConfig())
	Expect(err).NotTo(HaveOccurred())
	return s
}

var _ = Describe("WindowHandler", func() {
	var (
		s       *emu.State
		memory  *emu.Memory
		handler *traps.WindowHandler
		hook    *test.Hook
	)

	BeforeEach(func() {
		s = newState()
		memory = emu.NewMemory()

		var logger *logrus.Logger
		logger, hook = test.NewNullLogger()
		logger.SetLevel(logrus.DebugLevel)
		handler = traps.NewWindowHandler(memory, traps.WithLogger(logger))
	})

	Describe("Overflow", func() {
		BeforeEach(func() {
			// SAVE from window 2 into window 1 finds it invalid.
			s.PSR = s.PSR.WithCWP(2)
			s.WIM = 1 << 1
			s.Regs.Write(regSP, 0, 0x2000)
			for i := uint8(0); i < 16; i++ {
				s.Regs.Write(regL0+i, 0, 0x100+uint32(i))
			}
		})

		It("should spill the oldest window to its stack frame", func() {
			err := handler.HandleTrap(s, &emu.Trap{Type: emu.TrapWindowOverflow, Window: 1})

			Expect(err).NotTo(HaveOccurred())
			for i := uint32(0); i < 16; i++ {
				Expect(memory.Read32(0x2000 + 4*i)).To(Equal(0x100 + i))
			}
			Expect(s.WIM).To(Equal(uint32(1 << 0)))
			Expect(s.PSR.CWP()).To(Equal(uint32(2)))
			Expect(handler.Stats()).To(Equal(traps.Stats{Spills: 1}))
		})

		It("should log the spill", func() {
			Expect(handler.HandleTrap(s, &emu.Trap{Type: emu.TrapWindowOverflow, Window: 1})).
				To(Succeed())

			Expect(hook.LastEntry().Message).To(Equal("window spilled"))
			Expect(hook.LastEntry().Data).To(HaveKeyWithValue("sp", "0x00002000"))
		})

		It("should let the trapped SAVE proceed", func() {
			Expect(handler.HandleTrap(s, &emu.Trap{Type: emu.TrapWindowOverflow, Window: 1})).
				To(Succeed())
			Expect(s.DecrementWindow()).To(Succeed())
			Expect(s.PSR.CWP()).To(Equal(uint32(1)))
		})

		It("should refuse a misaligned stack pointer", func() {
			s.Regs.Write(regSP, 0, 0x2002)
			before := s.Snapshot()

			err := handler.HandleTrap(s, &emu.Trap{Type: emu.TrapWindowOverflow, Window: 1})

			Expect(errors.Is(err, traps.ErrMisalignedFrame)).To(BeTrue())
			Expect(s.Snapshot()).To(Equal(before))
		})
	})

	Describe("Underflow", func() {
		It("should fill the window from the current frame pointer", func() {
			// RESTORE from window 2 into window 3 finds it invalid.
			s.PSR = s.PSR.WithCWP(2)
			s.WIM = 1 << 3
			s.WriteReg(30, 0x3000) // %fp of window 2 is %sp of window 3
			for i := uint32(0); i < 16; i++ {
				memory.Write32(0x3000+4*i, 0x200+i)
			}

			err := handler.HandleTrap(s, &emu.Trap{Type: emu.TrapWindowUnderflow, Window: 3})

			Expect(err).NotTo(HaveOccurred())
			for i := uint8(0); i < 16; i++ {
				Expect(s.Regs.Read(regL0+i, 3)).To(Equal(0x200 + uint32(i)))
			}
			Expect(s.WIM).To(Equal(uint32(1 << 4)))
			Expect(handler.Stats().Fills).To(Equal(uint64(1)))
		})

		It("should wrap the new invalid window", func() {
			s.PSR = s.PSR.WithCWP(6)
			s.WIM = 1 << 7

			Expect(handler.HandleTrap(s, &emu.Trap{Type: emu.TrapWindowUnderflow, Window: 7})).
				To(Succeed())
			Expect(s.WIM).To(Equal(uint32(1)))
		})
	})

	It("should not service other traps", func() {
		err := handler.HandleTrap(s, &emu.Trap{Type: emu.TrapIllegalInstruction})
		Expect(errors.Is(err, traps.ErrUnhandledTrap)).To(BeTrue())
	})

	It("should spill through a data cache port", func() {
		c := cache.New(cache.DefaultDCacheConfig(), cache.NewMemoryBacking(memory))
		port := cache.NewPort(c)
		handler = traps.NewWindowHandler(port)

		s.PSR = s.PSR.WithCWP(2)
		s.WIM = 1 << 1
		s.Regs.Write(regSP, 0, 0x2000)
		s.Regs.Write(regL0, 0, 0xABCD)

		Expect(handler.HandleTrap(s, &emu.Trap{Type: emu.TrapWindowOverflow, Window: 1})).
			To(Succeed())

		Expect(port.Cycles()).To(BeNumerically(">", 0))
		Expect(memory.Read32(0x2000)).To(BeZero())
		c.Flush()
		Expect(memory.Read32(0x2000)).To(Equal(uint32(0xABCD)))
	})
})

// Register numbers and encoders for the recursion program.
const (
	g0 = 0
	g1 = 1
	o0 = 8
	i0 = 24
	i7 = 31
)

func arithImm(op3, rd, rs1 uint32, simm13 int32) uint32 {
	return 2<<30 | rd<<25 | op3<<19 | rs1<<14 | 1<<13 | uint32(simm13)&0x1FFF
}

func bicc(cond, disp uint32) uint32 {
	return cond<<25 | 2<<22 | disp&0x3FFFFF
}

func call(disp int32) uint32 {
	return 1<<30 | uint32(disp)&0x3FFFFFFF
}

// sumProgram computes n + (n-1) + ... + 1 with one register window per
// level of recursion and exits with the sum.
func sumProgram(n int32) []byte {
	const (
		nop     = 0x01000000
		restore = 0x81E80000
		condE   = 1
	)
	ret := arithImm(0x38, g0, i7, 8)

	words := []uint32{
		0x1D000040,                   // sethi %hi(0x10000), %sp
		arithImm(0x00, o0, g0, n),    // mov n, %o0
		call(4),                      // call sum
		nop,                          // delay slot
		arithImm(0x00, g1, g0, 1),    // mov SYS_exit, %g1
		arithImm(0x3A, 8, g0, 0x10),  // ta 0x10
		0x9DE3BFA0,                   // sum: save %sp, -96, %sp
		arithImm(0x14, g0, i0, 0),    // cmp %i0, 0
		bicc(condE, 8),               // be base
		nop,                          // delay slot
		arithImm(0x00, o0, i0, -1),   // sub %i0, 1, %o0
		call(-5),                     // call sum
		nop,                          // delay slot
		2<<30 | i0<<25 | i0<<14 | o0, // add %i0, %o0, %i0
		ret,                          // ret
		restore,                      // restore
		ret,                          // base: ret
		restore,                      // restore
	}

	code := make([]byte, 4*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint32(code[4*i:], w)
	}
	return code
}

var _ = Describe("Deep recursion", func() {
	var (
		memory  *emu.Memory
		handler *traps.WindowHandler
		e       *emu.Emulator
	)

	BeforeEach(func() {
		memory = emu.NewMemory()
		handler = traps.NewWindowHandler(memory)

		var err error
		e, err = emu.NewEmulator(
			emu.WithMemory(memory),
			emu.WithTrapHandler(handler),
			emu.WithMaxInstructions(10000),
		)
		Expect(err).NotTo(HaveOccurred())
		e.LoadProgram(0x1000, sumProgram(20))
		e.State().WIM = 1 << 1
	})

	It("should run more frames than the core has windows", func() {
		Expect(e.Run()).To(Equal(int64(210)))

		// 21 frames on top of main, 7 of which fit in the windows.
		Expect(handler.Stats()).To(Equal(traps.Stats{Spills: 15, Fills: 15}))
		Expect(e.State().PSR.CWP()).To(BeZero())
	})

	It("should stop with the trap when no handler is installed", func() {
		plain, err := emu.NewEmulator(emu.WithMaxInstructions(10000))
		Expect(err).NotTo(HaveOccurred())
		plain.LoadProgram(0x1000, sumProgram(20))
		plain.State().WIM = 1 << 1

		var result emu.StepResult
		for result.Err == nil && !result.Exited {
			result = plain.Step()
		}

		Expect(emu.IsTrap(result.Err, emu.TrapWindowOverflow)).To(BeTrue())
		Expect(plain.State().PSR.CWP()).To(Equal(uint32(2)))
	})
})
