// Package memory implements the console's CPU and PPU address spaces, routing
// accesses between RAM, the PPU registers, the controllers and the cartridge.
package memory

import "nesenv/internal/cartridge"

const ramSize = 0x0800

// PPURegisters is the register interface the PPU exposes at $2000-$2007,
// plus the OAM port that DMA pushes bytes through.
type PPURegisters interface {
	ReadRegister(address uint16) uint8
	WriteRegister(address uint16, value uint8)
	WriteOAMByte(value uint8)
}

// Controller is one joypad as seen from $4016/$4017.
type Controller interface {
	Read() uint8
	Write(value uint8)
}

// CPUMemory is the 6502 address space. Unmapped reads return the last value
// seen on the bus (open bus); the APU registers accept writes but are not
// modeled.
type CPUMemory struct {
	ram   [ramSize]uint8
	cart  *cartridge.Cartridge
	ppu   PPURegisters
	pad1  Controller
	pad2  Controller
	onDMA func(page uint8)

	openBus uint8
}

// NewCPUMemory wires up the CPU address space. onDMA is invoked with the
// source page when the program writes $4014; the bus performs the transfer
// so it can account the stall cycles.
func NewCPUMemory(cart *cartridge.Cartridge, ppu PPURegisters, pad1, pad2 Controller, onDMA func(page uint8)) *CPUMemory {
	m := &CPUMemory{cart: cart, ppu: ppu, pad1: pad1, pad2: pad2, onDMA: onDMA}
	m.PowerUp()
	return m
}

// PowerUp fills RAM with the fixed power-on pattern so cold boots are
// reproducible: four bytes of $00 alternating with four bytes of $FF.
func (m *CPUMemory) PowerUp() {
	for i := range m.ram {
		if i&4 == 0 {
			m.ram[i] = 0x00
		} else {
			m.ram[i] = 0xFF
		}
	}
	m.openBus = 0
}

func (m *CPUMemory) Read(address uint16) uint8 {
	var value uint8
	switch {
	case address < 0x2000:
		value = m.ram[address%ramSize]
	case address < 0x4000:
		value = m.ppu.ReadRegister(0x2000 + address%8)
	case address == 0x4016:
		value = m.pad1.Read()&0x1F | m.openBus&0xE0
	case address == 0x4017:
		value = m.pad2.Read()&0x1F | m.openBus&0xE0
	case address < 0x6000:
		// APU registers and expansion area: open bus.
		value = m.openBus
	default:
		value = m.cart.ReadPRG(address)
	}
	m.openBus = value
	return value
}

func (m *CPUMemory) Write(address uint16, value uint8) {
	m.openBus = value
	switch {
	case address < 0x2000:
		m.ram[address%ramSize] = value
	case address < 0x4000:
		m.ppu.WriteRegister(0x2000+address%8, value)
	case address == 0x4014:
		if m.onDMA != nil {
			m.onDMA(value)
		}
	case address == 0x4016:
		m.pad1.Write(value)
		m.pad2.Write(value)
	case address < 0x6000:
		// APU and test registers accept writes silently.
	default:
		m.cart.WritePRG(address, value)
	}
}

// RAM exposes the 2KB work RAM. The slice aliases live memory; agents read
// score and game-over bytes through it between frames.
func (m *CPUMemory) RAM() []uint8 {
	return m.ram[:]
}

// CopyRAM copies work RAM into buf for a save state.
func (m *CPUMemory) CopyRAM(buf []uint8) {
	copy(buf, m.ram[:])
}

// RestoreRAM overwrites work RAM from buf.
func (m *CPUMemory) RestoreRAM(buf []uint8) {
	copy(m.ram[:], buf)
}

// OpenBus returns the current bus latch, captured by save states.
func (m *CPUMemory) OpenBus() uint8 {
	return m.openBus
}

// SetOpenBus restores the bus latch from a save state.
func (m *CPUMemory) SetOpenBus(value uint8) {
	m.openBus = value
}
