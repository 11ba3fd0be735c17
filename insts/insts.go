// Package insts provides SPARC V8 (LEON3) instruction definitions and decoding.
//
// This package decodes 32-bit SPARC machine words into structured
// instruction representations. It supports:
//   - Format 1: CALL
//   - Format 2: SETHI (and NOP), Bicc with the annul bit
//   - Format 3 arithmetic: ALU, shifts, multiply, MULScc, LEON3 UMAC/SMAC,
//     RD/WR of Y, ASR18, PSR and WIM, JMPL, Ticc, SAVE, RESTORE
//   - Format 3 memory: LD, LDUB, LDSB, LDUH, LDSH, ST, STB, STH
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x82006001) // add %g1, 1, %g1
//	fmt.Printf("Op: %v, Rd: %d, Rs1: %d, Imm: %d\n", inst.Op, inst.Rd, inst.Rs1, inst.Imm)
package insts
