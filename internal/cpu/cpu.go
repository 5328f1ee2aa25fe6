// Package cpu implements the 6502 processor core used in the NES.
package cpu

import (
	"errors"
	"fmt"
)

// Bus is the CPU's view of the memory map.
type Bus interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// Status flag bits.
const (
	flagC uint8 = 1 << iota // carry
	flagZ                   // zero
	flagI                   // interrupt disable
	flagD                   // decimal (unused on the NES)
	flagB                   // break
	flagU                   // unused, reads as set
	flagV                   // overflow
	flagN                   // negative
)

const (
	stackBase   = 0x0100
	nmiVector   = 0xFFFA
	resetVector = 0xFFFC
	irqVector   = 0xFFFE
)

// ErrJammed is returned when the CPU fetches a JAM/KIL opcode. The processor
// cannot recover from these; the bus latches the error until reset.
var ErrJammed = errors.New("cpu jammed on illegal opcode")

// CPU is a 6502 core. It executes one instruction per Step and reports the
// cycle cost so the bus can keep the PPU in its fixed 3:1 dot ratio.
type CPU struct {
	A  uint8
	X  uint8
	Y  uint8
	SP uint8
	P  uint8
	PC uint16

	bus    Bus
	cycles uint64

	nmiPending bool
	irqPending bool
}

// State is a value snapshot of the CPU registers, used by save states.
type State struct {
	A, X, Y, SP, P uint8
	PC             uint16
	Cycles         uint64
	NMIPending     bool
	IRQPending     bool
}

// New creates a CPU attached to the given bus. Call Reset before stepping.
func New(bus Bus) *CPU {
	return &CPU{bus: bus}
}

// Reset puts the CPU in its power-up state and loads PC from the reset
// vector. The hardware reset sequence costs 7 cycles.
func (c *CPU) Reset() {
	c.A = 0
	c.X = 0
	c.Y = 0
	c.SP = 0xFD
	c.P = flagI | flagU | flagB
	c.PC = c.read16(resetVector)
	c.nmiPending = false
	c.irqPending = false
	c.cycles += 7
}

// SignalNMI requests a non-maskable interrupt, serviced before the next
// instruction.
func (c *CPU) SignalNMI() {
	c.nmiPending = true
}

// SignalIRQ requests a maskable interrupt. It is ignored while the I flag
// is set.
func (c *CPU) SignalIRQ() {
	c.irqPending = true
}

// Cycles returns the total cycle count since power-up.
func (c *CPU) Cycles() uint64 {
	return c.cycles
}

// State captures the register file.
func (c *CPU) State() State {
	return State{
		A: c.A, X: c.X, Y: c.Y, SP: c.SP, P: c.P,
		PC:         c.PC,
		Cycles:     c.cycles,
		NMIPending: c.nmiPending,
		IRQPending: c.irqPending,
	}
}

// Restore overwrites the register file from a snapshot.
func (c *CPU) Restore(s State) {
	c.A, c.X, c.Y, c.SP, c.P = s.A, s.X, s.Y, s.SP, s.P
	c.PC = s.PC
	c.cycles = s.Cycles
	c.nmiPending = s.NMIPending
	c.irqPending = s.IRQPending
}

// Step services any pending interrupt, executes one instruction, and returns
// the cycles consumed. A JAM opcode returns ErrJammed with the PC unmoved.
func (c *CPU) Step() (int, error) {
	cycles := 0

	// Interrupts are edge-checked between instructions. NMI wins over IRQ
	// and ignores the I flag.
	if c.nmiPending {
		c.nmiPending = false
		c.interrupt(nmiVector)
		cycles += 7
	} else if c.irqPending && c.P&flagI == 0 {
		c.irqPending = false
		c.interrupt(irqVector)
		cycles += 7
	}

	code := c.bus.Read(c.PC)
	op := opcodes[code]
	if op.name == 0 {
		return cycles, fmt.Errorf("%w: opcode $%02X at $%04X", ErrJammed, code, c.PC)
	}

	addr, crossed := c.operand(op.mode)
	c.PC += uint16(op.size)

	cycles += int(op.cycles)
	if crossed && op.pageCycle {
		cycles++
	}
	cycles += c.execute(op.name, op.mode, addr, crossed)

	c.cycles += uint64(cycles)
	return cycles, nil
}

// operand resolves the effective address for the current instruction without
// moving PC. The second result reports a page-boundary crossing, which costs
// an extra cycle on read instructions and taken branches.
func (c *CPU) operand(mode addrMode) (uint16, bool) {
	switch mode {
	case modeImplied, modeAccumulator:
		return 0, false

	case modeImmediate:
		return c.PC + 1, false

	case modeZeroPage:
		return uint16(c.bus.Read(c.PC + 1)), false

	case modeZeroPageX:
		return uint16(c.bus.Read(c.PC+1) + c.X), false

	case modeZeroPageY:
		return uint16(c.bus.Read(c.PC+1) + c.Y), false

	case modeRelative:
		offset := int8(c.bus.Read(c.PC + 1))
		next := c.PC + 2
		target := uint16(int32(next) + int32(offset))
		return target, pageCrossed(next, target)

	case modeAbsolute:
		return c.read16(c.PC + 1), false

	case modeAbsoluteX:
		base := c.read16(c.PC + 1)
		addr := base + uint16(c.X)
		return addr, pageCrossed(base, addr)

	case modeAbsoluteY:
		base := c.read16(c.PC + 1)
		addr := base + uint16(c.Y)
		return addr, pageCrossed(base, addr)

	case modeIndirect:
		// JMP ($xxFF) wraps the high-byte fetch to the start of the
		// same page, replicating the 6502 bug.
		ptr := c.read16(c.PC + 1)
		return c.read16Bug(ptr), false

	case modeIndexedIndirect:
		zp := c.bus.Read(c.PC+1) + c.X
		return c.read16ZP(zp), false

	case modeIndirectIndexed:
		zp := c.bus.Read(c.PC + 1)
		base := c.read16ZP(zp)
		addr := base + uint16(c.Y)
		return addr, pageCrossed(base, addr)

	default:
		return 0, false
	}
}

func pageCrossed(a, b uint16) bool {
	return a&0xFF00 != b&0xFF00
}

func (c *CPU) read16(address uint16) uint16 {
	lo := uint16(c.bus.Read(address))
	hi := uint16(c.bus.Read(address + 1))
	return hi<<8 | lo
}

// read16Bug reads a word without carrying the page when the low byte wraps.
func (c *CPU) read16Bug(address uint16) uint16 {
	lo := uint16(c.bus.Read(address))
	hiAddr := address&0xFF00 | uint16(uint8(address)+1)
	hi := uint16(c.bus.Read(hiAddr))
	return hi<<8 | lo
}

// read16ZP reads a word from the zero page, wrapping within it.
func (c *CPU) read16ZP(zp uint8) uint16 {
	lo := uint16(c.bus.Read(uint16(zp)))
	hi := uint16(c.bus.Read(uint16(zp + 1)))
	return hi<<8 | lo
}

// Stack helpers.

func (c *CPU) push(v uint8) {
	c.bus.Write(stackBase+uint16(c.SP), v)
	c.SP--
}

func (c *CPU) pull() uint8 {
	c.SP++
	return c.bus.Read(stackBase + uint16(c.SP))
}

func (c *CPU) push16(v uint16) {
	c.push(uint8(v >> 8))
	c.push(uint8(v))
}

func (c *CPU) pull16() uint16 {
	lo := uint16(c.pull())
	hi := uint16(c.pull())
	return hi<<8 | lo
}

// Flag helpers.

func (c *CPU) setFlag(flag uint8, on bool) {
	if on {
		c.P |= flag
	} else {
		c.P &^= flag
	}
}

func (c *CPU) flag(flag uint8) bool {
	return c.P&flag != 0
}

func (c *CPU) setZN(v uint8) {
	c.setFlag(flagZ, v == 0)
	c.setFlag(flagN, v&0x80 != 0)
}

// interrupt pushes PC and status (B clear) and jumps through the vector.
func (c *CPU) interrupt(vector uint16) {
	c.push16(c.PC)
	c.push(c.P&^flagB | flagU)
	c.setFlag(flagI, true)
	c.PC = c.read16(vector)
}
