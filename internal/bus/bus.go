// Package bus wires the CPU, PPU, memory and controllers together and drives
// them on the NTSC clock: three PPU dots per CPU cycle.
package bus

import (
	"errors"
	"fmt"

	"nesenv/internal/cartridge"
	"nesenv/internal/cpu"
	"nesenv/internal/input"
	"nesenv/internal/memory"
	"nesenv/internal/ppu"
)

const ppuDotsPerCPUCycle = 3

// ErrHalted is returned by Step and RunFrame after the CPU jams. The error is
// sticky; only Reset clears it.
var ErrHalted = errors.New("console halted")

// Bus owns the full console. Components are exported through accessors so the
// snapshot layer can capture and restore them.
type Bus struct {
	cpu    *cpu.CPU
	ppu    *ppu.PPU
	mem    *memory.CPUMemory
	ppuMem *memory.PPUMemory
	cart   *cartridge.Cartridge
	pad1   *input.Controller
	pad2   *input.Controller

	stall     int // pending OAM DMA cycles
	frameDone bool
	err       error
}

// New assembles a console around the cartridge and performs a power-on reset.
func New(cart *cartridge.Cartridge) *Bus {
	b := &Bus{cart: cart}

	b.pad1 = input.New()
	b.pad2 = input.New()
	b.ppuMem = memory.NewPPUMemory(cart)
	b.ppu = ppu.New(b.ppuMem, b.onNMI, b.onFrame)
	b.mem = memory.NewCPUMemory(cart, b.ppu, b.pad1, b.pad2, b.onDMA)
	b.cpu = cpu.New(b.mem)

	b.cpu.Reset()
	return b
}

func (b *Bus) onNMI() {
	b.cpu.SignalNMI()
}

func (b *Bus) onFrame() {
	b.frameDone = true
}

// onDMA copies a 256-byte page into OAM. The copy suspends the CPU for 513
// cycles, one more when it starts on an odd cycle.
func (b *Bus) onDMA(page uint8) {
	base := uint16(page) << 8
	for i := uint16(0); i < 256; i++ {
		b.ppu.WriteOAMByte(b.mem.Read(base + i))
	}
	b.stall += 513
	if b.cpu.Cycles()%2 == 1 {
		b.stall++
	}
}

// Step executes one CPU instruction, pays any pending DMA stall, and clocks
// the PPU three dots per cycle. It returns the CPU cycles consumed.
func (b *Bus) Step() (int, error) {
	if b.err != nil {
		return 0, b.err
	}

	cycles, err := b.cpu.Step()
	if err != nil {
		b.err = fmt.Errorf("%w: %v", ErrHalted, err)
		return cycles, b.err
	}

	cycles += b.stall
	b.stall = 0

	for i := 0; i < cycles*ppuDotsPerCPUCycle; i++ {
		b.ppu.Step()
	}
	return cycles, nil
}

// RunFrame steps until the PPU enters vertical blank, completing one video
// frame. It returns the CPU cycles consumed.
func (b *Bus) RunFrame() (int, error) {
	b.frameDone = false
	total := 0
	for !b.frameDone {
		cycles, err := b.Step()
		total += cycles
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Reset power-cycles the console: RAM is refilled with the power-on pattern,
// the PPU and CPU restart, and a halted console becomes runnable again.
// Controller and cartridge battery RAM survive, as on real hardware.
func (b *Bus) Reset() {
	b.mem.PowerUp()
	b.ppu.Reset()
	b.cpu.Reset()
	b.stall = 0
	b.frameDone = false
	b.err = nil
}

// Halted reports the sticky halt error, or nil while the console is runnable.
func (b *Bus) Halted() error {
	return b.err
}

// CPU returns the processor core.
func (b *Bus) CPU() *cpu.CPU { return b.cpu }

// PPU returns the picture processor.
func (b *Bus) PPU() *ppu.PPU { return b.ppu }

// Mem returns the CPU address space.
func (b *Bus) Mem() *memory.CPUMemory { return b.mem }

// PPUMem returns the PPU address space.
func (b *Bus) PPUMem() *memory.PPUMemory { return b.ppuMem }

// Cart returns the loaded cartridge.
func (b *Bus) Cart() *cartridge.Cartridge { return b.cart }

// Controller1 returns the first joypad.
func (b *Bus) Controller1() *input.Controller { return b.pad1 }

// Controller2 returns the second joypad.
func (b *Bus) Controller2() *input.Controller { return b.pad2 }

// Stall returns pending DMA stall cycles, captured by save states.
func (b *Bus) Stall() int { return b.stall }

// SetStall restores pending DMA stall cycles from a save state.
func (b *Bus) SetStall(cycles int) { b.stall = cycles }
