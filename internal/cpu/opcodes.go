package cpu

// addrMode identifies a 6502 addressing mode.
type addrMode uint8

const (
	modeImplied addrMode = iota
	modeAccumulator
	modeImmediate
	modeZeroPage
	modeZeroPageX
	modeZeroPageY
	modeRelative
	modeAbsolute
	modeAbsoluteX
	modeAbsoluteY
	modeIndirect
	modeIndexedIndirect // (zp,X)
	modeIndirectIndexed // (zp),Y
)

// operation identifies an instruction independent of addressing mode.
// The zero value marks an unassigned opcode (JAM/KIL and the handful of
// unstable unofficials games do not rely on).
type operation uint8

const (
	opNone operation = iota
	opADC
	opAND
	opASL
	opBCC
	opBCS
	opBEQ
	opBIT
	opBMI
	opBNE
	opBPL
	opBRK
	opBVC
	opBVS
	opCLC
	opCLD
	opCLI
	opCLV
	opCMP
	opCPX
	opCPY
	opDEC
	opDEX
	opDEY
	opEOR
	opINC
	opINX
	opINY
	opJMP
	opJSR
	opLDA
	opLDX
	opLDY
	opLSR
	opNOP
	opORA
	opPHA
	opPHP
	opPLA
	opPLP
	opROL
	opROR
	opRTI
	opRTS
	opSBC
	opSEC
	opSED
	opSEI
	opSTA
	opSTX
	opSTY
	opTAX
	opTAY
	opTSX
	opTXA
	opTXS
	opTYA
	// Unofficial opcodes with stable behaviour.
	opLAX
	opSAX
	opDCP
	opISB
	opSLO
	opRLA
	opSRE
	opRRA
)

// opcode carries the decode metadata for one opcode byte. pageCycle marks
// read instructions that pay one extra cycle when indexing crosses a page.
type opcode struct {
	name      operation
	mode      addrMode
	size      uint8
	cycles    uint8
	pageCycle bool
}

var opcodes = [256]opcode{
	// Official instructions.
	0x69: {opADC, modeImmediate, 2, 2, false},
	0x65: {opADC, modeZeroPage, 2, 3, false},
	0x75: {opADC, modeZeroPageX, 2, 4, false},
	0x6D: {opADC, modeAbsolute, 3, 4, false},
	0x7D: {opADC, modeAbsoluteX, 3, 4, true},
	0x79: {opADC, modeAbsoluteY, 3, 4, true},
	0x61: {opADC, modeIndexedIndirect, 2, 6, false},
	0x71: {opADC, modeIndirectIndexed, 2, 5, true},

	0x29: {opAND, modeImmediate, 2, 2, false},
	0x25: {opAND, modeZeroPage, 2, 3, false},
	0x35: {opAND, modeZeroPageX, 2, 4, false},
	0x2D: {opAND, modeAbsolute, 3, 4, false},
	0x3D: {opAND, modeAbsoluteX, 3, 4, true},
	0x39: {opAND, modeAbsoluteY, 3, 4, true},
	0x21: {opAND, modeIndexedIndirect, 2, 6, false},
	0x31: {opAND, modeIndirectIndexed, 2, 5, true},

	0x0A: {opASL, modeAccumulator, 1, 2, false},
	0x06: {opASL, modeZeroPage, 2, 5, false},
	0x16: {opASL, modeZeroPageX, 2, 6, false},
	0x0E: {opASL, modeAbsolute, 3, 6, false},
	0x1E: {opASL, modeAbsoluteX, 3, 7, false},

	0x90: {opBCC, modeRelative, 2, 2, false},
	0xB0: {opBCS, modeRelative, 2, 2, false},
	0xF0: {opBEQ, modeRelative, 2, 2, false},
	0x30: {opBMI, modeRelative, 2, 2, false},
	0xD0: {opBNE, modeRelative, 2, 2, false},
	0x10: {opBPL, modeRelative, 2, 2, false},
	0x50: {opBVC, modeRelative, 2, 2, false},
	0x70: {opBVS, modeRelative, 2, 2, false},

	0x24: {opBIT, modeZeroPage, 2, 3, false},
	0x2C: {opBIT, modeAbsolute, 3, 4, false},

	0x00: {opBRK, modeImplied, 1, 7, false},

	0x18: {opCLC, modeImplied, 1, 2, false},
	0xD8: {opCLD, modeImplied, 1, 2, false},
	0x58: {opCLI, modeImplied, 1, 2, false},
	0xB8: {opCLV, modeImplied, 1, 2, false},

	0xC9: {opCMP, modeImmediate, 2, 2, false},
	0xC5: {opCMP, modeZeroPage, 2, 3, false},
	0xD5: {opCMP, modeZeroPageX, 2, 4, false},
	0xCD: {opCMP, modeAbsolute, 3, 4, false},
	0xDD: {opCMP, modeAbsoluteX, 3, 4, true},
	0xD9: {opCMP, modeAbsoluteY, 3, 4, true},
	0xC1: {opCMP, modeIndexedIndirect, 2, 6, false},
	0xD1: {opCMP, modeIndirectIndexed, 2, 5, true},

	0xE0: {opCPX, modeImmediate, 2, 2, false},
	0xE4: {opCPX, modeZeroPage, 2, 3, false},
	0xEC: {opCPX, modeAbsolute, 3, 4, false},

	0xC0: {opCPY, modeImmediate, 2, 2, false},
	0xC4: {opCPY, modeZeroPage, 2, 3, false},
	0xCC: {opCPY, modeAbsolute, 3, 4, false},

	0xC6: {opDEC, modeZeroPage, 2, 5, false},
	0xD6: {opDEC, modeZeroPageX, 2, 6, false},
	0xCE: {opDEC, modeAbsolute, 3, 6, false},
	0xDE: {opDEC, modeAbsoluteX, 3, 7, false},

	0xCA: {opDEX, modeImplied, 1, 2, false},
	0x88: {opDEY, modeImplied, 1, 2, false},

	0x49: {opEOR, modeImmediate, 2, 2, false},
	0x45: {opEOR, modeZeroPage, 2, 3, false},
	0x55: {opEOR, modeZeroPageX, 2, 4, false},
	0x4D: {opEOR, modeAbsolute, 3, 4, false},
	0x5D: {opEOR, modeAbsoluteX, 3, 4, true},
	0x59: {opEOR, modeAbsoluteY, 3, 4, true},
	0x41: {opEOR, modeIndexedIndirect, 2, 6, false},
	0x51: {opEOR, modeIndirectIndexed, 2, 5, true},

	0xE6: {opINC, modeZeroPage, 2, 5, false},
	0xF6: {opINC, modeZeroPageX, 2, 6, false},
	0xEE: {opINC, modeAbsolute, 3, 6, false},
	0xFE: {opINC, modeAbsoluteX, 3, 7, false},

	0xE8: {opINX, modeImplied, 1, 2, false},
	0xC8: {opINY, modeImplied, 1, 2, false},

	0x4C: {opJMP, modeAbsolute, 3, 3, false},
	0x6C: {opJMP, modeIndirect, 3, 5, false},
	0x20: {opJSR, modeAbsolute, 3, 6, false},

	0xA9: {opLDA, modeImmediate, 2, 2, false},
	0xA5: {opLDA, modeZeroPage, 2, 3, false},
	0xB5: {opLDA, modeZeroPageX, 2, 4, false},
	0xAD: {opLDA, modeAbsolute, 3, 4, false},
	0xBD: {opLDA, modeAbsoluteX, 3, 4, true},
	0xB9: {opLDA, modeAbsoluteY, 3, 4, true},
	0xA1: {opLDA, modeIndexedIndirect, 2, 6, false},
	0xB1: {opLDA, modeIndirectIndexed, 2, 5, true},

	0xA2: {opLDX, modeImmediate, 2, 2, false},
	0xA6: {opLDX, modeZeroPage, 2, 3, false},
	0xB6: {opLDX, modeZeroPageY, 2, 4, false},
	0xAE: {opLDX, modeAbsolute, 3, 4, false},
	0xBE: {opLDX, modeAbsoluteY, 3, 4, true},

	0xA0: {opLDY, modeImmediate, 2, 2, false},
	0xA4: {opLDY, modeZeroPage, 2, 3, false},
	0xB4: {opLDY, modeZeroPageX, 2, 4, false},
	0xAC: {opLDY, modeAbsolute, 3, 4, false},
	0xBC: {opLDY, modeAbsoluteX, 3, 4, true},

	0x4A: {opLSR, modeAccumulator, 1, 2, false},
	0x46: {opLSR, modeZeroPage, 2, 5, false},
	0x56: {opLSR, modeZeroPageX, 2, 6, false},
	0x4E: {opLSR, modeAbsolute, 3, 6, false},
	0x5E: {opLSR, modeAbsoluteX, 3, 7, false},

	0xEA: {opNOP, modeImplied, 1, 2, false},

	0x09: {opORA, modeImmediate, 2, 2, false},
	0x05: {opORA, modeZeroPage, 2, 3, false},
	0x15: {opORA, modeZeroPageX, 2, 4, false},
	0x0D: {opORA, modeAbsolute, 3, 4, false},
	0x1D: {opORA, modeAbsoluteX, 3, 4, true},
	0x19: {opORA, modeAbsoluteY, 3, 4, true},
	0x01: {opORA, modeIndexedIndirect, 2, 6, false},
	0x11: {opORA, modeIndirectIndexed, 2, 5, true},

	0x48: {opPHA, modeImplied, 1, 3, false},
	0x08: {opPHP, modeImplied, 1, 3, false},
	0x68: {opPLA, modeImplied, 1, 4, false},
	0x28: {opPLP, modeImplied, 1, 4, false},

	0x2A: {opROL, modeAccumulator, 1, 2, false},
	0x26: {opROL, modeZeroPage, 2, 5, false},
	0x36: {opROL, modeZeroPageX, 2, 6, false},
	0x2E: {opROL, modeAbsolute, 3, 6, false},
	0x3E: {opROL, modeAbsoluteX, 3, 7, false},

	0x6A: {opROR, modeAccumulator, 1, 2, false},
	0x66: {opROR, modeZeroPage, 2, 5, false},
	0x76: {opROR, modeZeroPageX, 2, 6, false},
	0x6E: {opROR, modeAbsolute, 3, 6, false},
	0x7E: {opROR, modeAbsoluteX, 3, 7, false},

	0x40: {opRTI, modeImplied, 1, 6, false},
	0x60: {opRTS, modeImplied, 1, 6, false},

	0xE9: {opSBC, modeImmediate, 2, 2, false},
	0xE5: {opSBC, modeZeroPage, 2, 3, false},
	0xF5: {opSBC, modeZeroPageX, 2, 4, false},
	0xED: {opSBC, modeAbsolute, 3, 4, false},
	0xFD: {opSBC, modeAbsoluteX, 3, 4, true},
	0xF9: {opSBC, modeAbsoluteY, 3, 4, true},
	0xE1: {opSBC, modeIndexedIndirect, 2, 6, false},
	0xF1: {opSBC, modeIndirectIndexed, 2, 5, true},

	0x38: {opSEC, modeImplied, 1, 2, false},
	0xF8: {opSED, modeImplied, 1, 2, false},
	0x78: {opSEI, modeImplied, 1, 2, false},

	0x85: {opSTA, modeZeroPage, 2, 3, false},
	0x95: {opSTA, modeZeroPageX, 2, 4, false},
	0x8D: {opSTA, modeAbsolute, 3, 4, false},
	0x9D: {opSTA, modeAbsoluteX, 3, 5, false},
	0x99: {opSTA, modeAbsoluteY, 3, 5, false},
	0x81: {opSTA, modeIndexedIndirect, 2, 6, false},
	0x91: {opSTA, modeIndirectIndexed, 2, 6, false},

	0x86: {opSTX, modeZeroPage, 2, 3, false},
	0x96: {opSTX, modeZeroPageY, 2, 4, false},
	0x8E: {opSTX, modeAbsolute, 3, 4, false},

	0x84: {opSTY, modeZeroPage, 2, 3, false},
	0x94: {opSTY, modeZeroPageX, 2, 4, false},
	0x8C: {opSTY, modeAbsolute, 3, 4, false},

	0xAA: {opTAX, modeImplied, 1, 2, false},
	0xA8: {opTAY, modeImplied, 1, 2, false},
	0xBA: {opTSX, modeImplied, 1, 2, false},
	0x8A: {opTXA, modeImplied, 1, 2, false},
	0x9A: {opTXS, modeImplied, 1, 2, false},
	0x98: {opTYA, modeImplied, 1, 2, false},

	// Unofficial NOP variants.
	0x1A: {opNOP, modeImplied, 1, 2, false},
	0x3A: {opNOP, modeImplied, 1, 2, false},
	0x5A: {opNOP, modeImplied, 1, 2, false},
	0x7A: {opNOP, modeImplied, 1, 2, false},
	0xDA: {opNOP, modeImplied, 1, 2, false},
	0xFA: {opNOP, modeImplied, 1, 2, false},
	0x80: {opNOP, modeImmediate, 2, 2, false},
	0x82: {opNOP, modeImmediate, 2, 2, false},
	0x89: {opNOP, modeImmediate, 2, 2, false},
	0xC2: {opNOP, modeImmediate, 2, 2, false},
	0xE2: {opNOP, modeImmediate, 2, 2, false},
	0x04: {opNOP, modeZeroPage, 2, 3, false},
	0x44: {opNOP, modeZeroPage, 2, 3, false},
	0x64: {opNOP, modeZeroPage, 2, 3, false},
	0x14: {opNOP, modeZeroPageX, 2, 4, false},
	0x34: {opNOP, modeZeroPageX, 2, 4, false},
	0x54: {opNOP, modeZeroPageX, 2, 4, false},
	0x74: {opNOP, modeZeroPageX, 2, 4, false},
	0xD4: {opNOP, modeZeroPageX, 2, 4, false},
	0xF4: {opNOP, modeZeroPageX, 2, 4, false},
	0x0C: {opNOP, modeAbsolute, 3, 4, false},
	0x1C: {opNOP, modeAbsoluteX, 3, 4, true},
	0x3C: {opNOP, modeAbsoluteX, 3, 4, true},
	0x5C: {opNOP, modeAbsoluteX, 3, 4, true},
	0x7C: {opNOP, modeAbsoluteX, 3, 4, true},
	0xDC: {opNOP, modeAbsoluteX, 3, 4, true},
	0xFC: {opNOP, modeAbsoluteX, 3, 4, true},

	// Stable unofficial opcodes.
	0xEB: {opSBC, modeImmediate, 2, 2, false},

	0xA7: {opLAX, modeZeroPage, 2, 3, false},
	0xB7: {opLAX, modeZeroPageY, 2, 4, false},
	0xAF: {opLAX, modeAbsolute, 3, 4, false},
	0xBF: {opLAX, modeAbsoluteY, 3, 4, true},
	0xA3: {opLAX, modeIndexedIndirect, 2, 6, false},
	0xB3: {opLAX, modeIndirectIndexed, 2, 5, true},

	0x87: {opSAX, modeZeroPage, 2, 3, false},
	0x97: {opSAX, modeZeroPageY, 2, 4, false},
	0x8F: {opSAX, modeAbsolute, 3, 4, false},
	0x83: {opSAX, modeIndexedIndirect, 2, 6, false},

	0xC7: {opDCP, modeZeroPage, 2, 5, false},
	0xD7: {opDCP, modeZeroPageX, 2, 6, false},
	0xCF: {opDCP, modeAbsolute, 3, 6, false},
	0xDF: {opDCP, modeAbsoluteX, 3, 7, false},
	0xDB: {opDCP, modeAbsoluteY, 3, 7, false},
	0xC3: {opDCP, modeIndexedIndirect, 2, 8, false},
	0xD3: {opDCP, modeIndirectIndexed, 2, 8, false},

	0xE7: {opISB, modeZeroPage, 2, 5, false},
	0xF7: {opISB, modeZeroPageX, 2, 6, false},
	0xEF: {opISB, modeAbsolute, 3, 6, false},
	0xFF: {opISB, modeAbsoluteX, 3, 7, false},
	0xFB: {opISB, modeAbsoluteY, 3, 7, false},
	0xE3: {opISB, modeIndexedIndirect, 2, 8, false},
	0xF3: {opISB, modeIndirectIndexed, 2, 8, false},

	0x07: {opSLO, modeZeroPage, 2, 5, false},
	0x17: {opSLO, modeZeroPageX, 2, 6, false},
	0x0F: {opSLO, modeAbsolute, 3, 6, false},
	0x1F: {opSLO, modeAbsoluteX, 3, 7, false},
	0x1B: {opSLO, modeAbsoluteY, 3, 7, false},
	0x03: {opSLO, modeIndexedIndirect, 2, 8, false},
	0x13: {opSLO, modeIndirectIndexed, 2, 8, false},

	0x27: {opRLA, modeZeroPage, 2, 5, false},
	0x37: {opRLA, modeZeroPageX, 2, 6, false},
	0x2F: {opRLA, modeAbsolute, 3, 6, false},
	0x3F: {opRLA, modeAbsoluteX, 3, 7, false},
	0x3B: {opRLA, modeAbsoluteY, 3, 7, false},
	0x23: {opRLA, modeIndexedIndirect, 2, 8, false},
	0x33: {opRLA, modeIndirectIndexed, 2, 8, false},

	0x47: {opSRE, modeZeroPage, 2, 5, false},
	0x57: {opSRE, modeZeroPageX, 2, 6, false},
	0x4F: {opSRE, modeAbsolute, 3, 6, false},
	0x5F: {opSRE, modeAbsoluteX, 3, 7, false},
	0x5B: {opSRE, modeAbsoluteY, 3, 7, false},
	0x43: {opSRE, modeIndexedIndirect, 2, 8, false},
	0x53: {opSRE, modeIndirectIndexed, 2, 8, false},

	0x67: {opRRA, modeZeroPage, 2, 5, false},
	0x77: {opRRA, modeZeroPageX, 2, 6, false},
	0x6F: {opRRA, modeAbsolute, 3, 6, false},
	0x7F: {opRRA, modeAbsoluteX, 3, 7, false},
	0x7B: {opRRA, modeAbsoluteY, 3, 7, false},
	0x63: {opRRA, modeIndexedIndirect, 2, 8, false},
	0x73: {opRRA, modeIndirectIndexed, 2, 8, false},
}
