// Package insts provides SPARC V8 (LEON3) instruction definitions and decoding.
package insts

// Op represents a SPARC opcode.
type Op uint16

// SPARC V8 and LEON3 opcodes.
const (
	OpUnknown Op = iota

	// Control transfer
	OpCALL
	OpBicc
	OpJMPL
	OpTicc

	// SETHI (SETHI 0, %g0 is the canonical NOP)
	OpSETHI

	// Arithmetic and logic
	OpADD
	OpADDcc
	OpADDX
	OpADDXcc
	OpSUB
	OpSUBcc
	OpSUBX
	OpSUBXcc
	OpAND
	OpANDcc
	OpANDN
	OpANDNcc
	OpOR
	OpORcc
	OpORN
	OpORNcc
	OpXOR
	OpXORcc
	OpXNOR
	OpXNORcc
	OpSLL
	OpSRL
	OpSRA

	// Multiply and multiply-accumulate
	OpUMUL
	OpUMULcc
	OpSMUL
	OpSMULcc
	OpMULScc
	OpUMAC
	OpSMAC

	// State register access
	OpRDY
	OpRDASR18
	OpRDPSR
	OpRDWIM
	OpWRY
	OpWRASR18
	OpWRPSR
	OpWRWIM

	// Register windows
	OpSAVE
	OpRESTORE

	// Memory
	OpLD
	OpLDUB
	OpLDSB
	OpLDUH
	OpLDSH
	OpST
	OpSTB
	OpSTH
)

var opNames = map[Op]string{
	OpUnknown: "unknown",
	OpCALL:    "call",
	OpBicc:    "bicc",
	OpJMPL:    "jmpl",
	OpTicc:    "ticc",
	OpSETHI:   "sethi",
	OpADD:     "add",
	OpADDcc:   "addcc",
	OpADDX:    "addx",
	OpADDXcc:  "addxcc",
	OpSUB:     "sub",
	OpSUBcc:   "subcc",
	OpSUBX:    "subx",
	OpSUBXcc:  "subxcc",
	OpAND:     "and",
	OpANDcc:   "andcc",
	OpANDN:    "andn",
	OpANDNcc:  "andncc",
	OpOR:      "or",
	OpORcc:    "orcc",
	OpORN:     "orn",
	OpORNcc:   "orncc",
	OpXOR:     "xor",
	OpXORcc:   "xorcc",
	OpXNOR:    "xnor",
	OpXNORcc:  "xnorcc",
	OpSLL:     "sll",
	OpSRL:     "srl",
	OpSRA:     "sra",
	OpUMUL:    "umul",
	OpUMULcc:  "umulcc",
	OpSMUL:    "smul",
	OpSMULcc:  "smulcc",
	OpMULScc:  "mulscc",
	OpUMAC:    "umac",
	OpSMAC:    "smac",
	OpRDY:     "rd %y",
	OpRDASR18: "rd %asr18",
	OpRDPSR:   "rd %psr",
	OpRDWIM:   "rd %wim",
	OpWRY:     "wr %y",
	OpWRASR18: "wr %asr18",
	OpWRPSR:   "wr %psr",
	OpWRWIM:   "wr %wim",
	OpSAVE:    "save",
	OpRESTORE: "restore",
	OpLD:      "ld",
	OpLDUB:    "ldub",
	OpLDSB:    "ldsb",
	OpLDUH:    "lduh",
	OpLDSH:    "ldsh",
	OpST:      "st",
	OpSTB:     "stb",
	OpSTH:     "sth",
}

// String returns the assembler mnemonic of the opcode.
func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "unknown"
}

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatCall           // Format 1: CALL disp30
	FormatSethi          // Format 2: SETHI imm22
	FormatBranch         // Format 2: Bicc disp22
	FormatArith          // Format 3, op=2: arithmetic, logic, control
	FormatMem            // Format 3, op=3: load/store
)

// Cond represents a SPARC integer condition code (Bicc / Ticc cond field).
type Cond uint8

// SPARC integer condition codes.
const (
	CondN   Cond = 0b0000 // Never
	CondE   Cond = 0b0001 // Equal (Z)
	CondLE  Cond = 0b0010 // Less or equal (Z or (N xor V))
	CondL   Cond = 0b0011 // Less (N xor V)
	CondLEU Cond = 0b0100 // Less or equal unsigned (C or Z)
	CondCS  Cond = 0b0101 // Carry set (C)
	CondNEG Cond = 0b0110 // Negative (N)
	CondVS  Cond = 0b0111 // Overflow set (V)
	CondA   Cond = 0b1000 // Always
	CondNE  Cond = 0b1001 // Not equal (not Z)
	CondG   Cond = 0b1010 // Greater (not (Z or (N xor V)))
	CondGE  Cond = 0b1011 // Greater or equal (not (N xor V))
	CondGU  Cond = 0b1100 // Greater unsigned (not (C or Z))
	CondCC  Cond = 0b1101 // Carry clear (not C)
	CondPOS Cond = 0b1110 // Positive (not N)
	CondVC  Cond = 0b1111 // Overflow clear (not V)
)

// Instruction represents a decoded SPARC instruction.
type Instruction struct {
	Op     Op     // Operation code
	Format Format // Encoding format
	Word   uint32 // Raw instruction word

	Rd  uint8 // Destination register (source for stores)
	Rs1 uint8 // First source register
	Rs2 uint8 // Second source register (when HasImm is false)

	// HasImm is the i bit: the second operand is Imm instead of Rs2.
	HasImm bool
	// Imm is the sign-extended simm13, or imm22<<10 for SETHI.
	Imm uint32

	// Disp is the signed byte displacement of CALL and Bicc.
	Disp int32
	// Cond is the condition of Bicc and Ticc.
	Cond Cond
	// Annul is the a bit of Bicc.
	Annul bool
}

// IsNop reports whether the instruction is the canonical NOP (sethi 0, %g0).
func (i *Instruction) IsNop() bool {
	return i.Op == OpSETHI && i.Rd == 0 && i.Imm == 0
}

// Decoder decodes SPARC machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new SPARC instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit SPARC instruction word.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{Op: OpUnknown, Format: FormatUnknown, Word: word}

	switch word >> 30 { // op, bits [31:30]
	case 0b00:
		d.decodeFormat2(word, inst)
	case 0b01:
		d.decodeCall(word, inst)
	case 0b10:
		d.decodeArith(word, inst)
	case 0b11:
		d.decodeMem(word, inst)
	}

	return inst
}

// decodeCall decodes CALL.
// Format: 01 | disp30
func (d *Decoder) decodeCall(word uint32, inst *Instruction) {
	inst.Format = FormatCall
	inst.Op = OpCALL
	inst.Disp = int32(word << 2) // disp30 * 4, sign comes from bit 29
	inst.Rd = 15                 // %o7 receives the address of the CALL
}

// decodeFormat2 decodes SETHI and Bicc.
// SETHI: 00 | rd | 100 | imm22
// Bicc:  00 | a | cond | 010 | disp22
func (d *Decoder) decodeFormat2(word uint32, inst *Instruction) {
	op2 := (word >> 22) & 0x7 // bits [24:22]

	switch op2 {
	case 0b100:
		inst.Format = FormatSethi
		inst.Op = OpSETHI
		inst.Rd = uint8((word >> 25) & 0x1F)
		inst.Imm = (word & 0x3FFFFF) << 10
	case 0b010:
		inst.Format = FormatBranch
		inst.Op = OpBicc
		inst.Annul = (word>>29)&0x1 == 1
		inst.Cond = Cond((word >> 25) & 0xF)
		inst.Disp = int32(SignExtend(word&0x3FFFFF, 22) << 2)
	}
}

// arithOps maps op3 of format 3 (op=2) to opcodes. RD/WR and Ticc are
// resolved separately because they depend on other fields.
var arithOps = map[uint32]Op{
	0x00: OpADD,
	0x01: OpAND,
	0x02: OpOR,
	0x03: OpXOR,
	0x04: OpSUB,
	0x05: OpANDN,
	0x06: OpORN,
	0x07: OpXNOR,
	0x08: OpADDX,
	0x0A: OpUMUL,
	0x0B: OpSMUL,
	0x0C: OpSUBX,
	0x10: OpADDcc,
	0x11: OpANDcc,
	0x12: OpORcc,
	0x13: OpXORcc,
	0x14: OpSUBcc,
	0x15: OpANDNcc,
	0x16: OpORNcc,
	0x17: OpXNORcc,
	0x18: OpADDXcc,
	0x1A: OpUMULcc,
	0x1B: OpSMULcc,
	0x1C: OpSUBXcc,
	0x24: OpMULScc,
	0x25: OpSLL,
	0x26: OpSRL,
	0x27: OpSRA,
	0x29: OpRDPSR,
	0x2A: OpRDWIM,
	0x31: OpWRPSR,
	0x32: OpWRWIM,
	0x38: OpJMPL,
	0x3C: OpSAVE,
	0x3D: OpRESTORE,
	0x3E: OpUMAC,
	0x3F: OpSMAC,
}

// memOps maps op3 of format 3 (op=3) to opcodes.
var memOps = map[uint32]Op{
	0x00: OpLD,
	0x01: OpLDUB,
	0x02: OpLDUH,
	0x04: OpST,
	0x05: OpSTB,
	0x06: OpSTH,
	0x09: OpLDSB,
	0x0A: OpLDSH,
}

// decodeOperands fills the fields shared by every format 3 instruction.
// Format: op | rd | op3 | rs1 | i | asi/simm13 | rs2
func (d *Decoder) decodeOperands(word uint32, inst *Instruction) {
	inst.Rd = uint8((word >> 25) & 0x1F)
	inst.Rs1 = uint8((word >> 14) & 0x1F)
	inst.HasImm = (word>>13)&0x1 == 1
	if inst.HasImm {
		inst.Imm = SignExtend(word&0x1FFF, 13)
	} else {
		inst.Rs2 = uint8(word & 0x1F)
	}
}

// decodeArith decodes format 3 arithmetic/control instructions (op=2).
func (d *Decoder) decodeArith(word uint32, inst *Instruction) {
	op3 := (word >> 19) & 0x3F // bits [24:19]
	d.decodeOperands(word, inst)

	switch op3 {
	case 0x28:
		// RDY is rs1=0; rs1=18 reads the LEON3 MAC extension register.
		switch inst.Rs1 {
		case 0:
			inst.Op = OpRDY
		case 18:
			inst.Op = OpRDASR18
		default:
			return
		}
	case 0x30:
		switch inst.Rd {
		case 0:
			inst.Op = OpWRY
		case 18:
			inst.Op = OpWRASR18
		default:
			return
		}
	case 0x3A:
		inst.Op = OpTicc
		inst.Cond = Cond((word >> 25) & 0xF)
	default:
		op, ok := arithOps[op3]
		if !ok {
			return
		}
		inst.Op = op
	}

	inst.Format = FormatArith
}

// decodeMem decodes format 3 load/store instructions (op=3).
func (d *Decoder) decodeMem(word uint32, inst *Instruction) {
	op3 := (word >> 19) & 0x3F
	op, ok := memOps[op3]
	if !ok {
		return
	}

	d.decodeOperands(word, inst)
	inst.Format = FormatMem
	inst.Op = op
}
