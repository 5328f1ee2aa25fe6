package cartridge

import "fmt"

// mapperMMC1 implements mapper 1 (MMC1/SxROM). Registers are loaded one bit
// at a time through a serial shift register: five writes to $8000-$FFFF fill
// it, and the target register is selected by the address of the fifth write.
// Bit 7 of any write resets the shift register and locks PRG mode 3.
type mapperMMC1 struct {
	cart *Cartridge

	shift uint8 // serial shift register, bit 4 set marks the fill level
	ctrl  uint8 // mirroring, PRG mode, CHR mode
	chr0  uint8
	chr1  uint8
	prg   uint8

	prgBanks uint8 // 16KB units
	chrBanks uint8 // 4KB units
}

const mmc1ShiftReset = 0x10

func newMapperMMC1(cart *Cartridge) *mapperMMC1 {
	m := &mapperMMC1{
		cart:     cart,
		shift:    mmc1ShiftReset,
		ctrl:     0x0C, // PRG mode 3: fix last bank at $C000
		prgBanks: uint8(len(cart.prgROM) / 0x4000),
		chrBanks: uint8(len(cart.chrMem) / 0x1000),
	}
	return m
}

func (m *mapperMMC1) ReadPRG(address uint16) uint8 {
	switch {
	case address >= 0x8000:
		return m.cart.prgROM[m.prgOffset(address)]
	case address >= 0x6000:
		return m.cart.sram[address-0x6000]
	default:
		return 0
	}
}

// prgOffset translates a CPU address into a PRG ROM offset for the current
// PRG banking mode (ctrl bits 2-3).
func (m *mapperMMC1) prgOffset(address uint16) int {
	bank := m.prg % m.prgBanks
	offset := int(address - 0x8000)
	switch (m.ctrl >> 2) & 0x03 {
	case 0, 1:
		// 32KB mode: low bit of the bank number is ignored. Images smaller
		// than 32KB wrap, mirroring the way the address lines fold.
		return (int(bank&0xFE)*0x4000 + offset) % len(m.cart.prgROM)
	case 2:
		// First bank fixed at $8000, switchable bank at $C000.
		if address < 0xC000 {
			return offset
		}
		return int(bank)*0x4000 + (offset - 0x4000)
	default:
		// Switchable bank at $8000, last bank fixed at $C000.
		if address < 0xC000 {
			return int(bank)*0x4000 + offset
		}
		return int(m.prgBanks-1)*0x4000 + (offset - 0x4000)
	}
}

func (m *mapperMMC1) WritePRG(address uint16, value uint8) {
	switch {
	case address >= 0x8000:
		m.loadShift(address, value)
	case address >= 0x6000:
		m.cart.sram[address-0x6000] = value
	}
}

func (m *mapperMMC1) loadShift(address uint16, value uint8) {
	if value&0x80 != 0 {
		m.shift = mmc1ShiftReset
		m.ctrl |= 0x0C
		return
	}
	complete := m.shift&0x01 != 0
	m.shift = (m.shift >> 1) | ((value & 0x01) << 4)
	if !complete {
		return
	}
	reg := m.shift & 0x1F
	m.shift = mmc1ShiftReset
	switch {
	case address < 0xA000:
		m.ctrl = reg
	case address < 0xC000:
		m.chr0 = reg
	case address < 0xE000:
		m.chr1 = reg
	default:
		m.prg = reg & 0x0F
	}
}

func (m *mapperMMC1) ReadCHR(address uint16) uint8 {
	return m.cart.chrMem[m.chrOffset(address)]
}

func (m *mapperMMC1) WriteCHR(address uint16, value uint8) {
	if m.cart.hasCHRRAM {
		m.cart.chrMem[m.chrOffset(address)] = value
	}
}

// chrOffset translates a PPU address into a CHR offset. Ctrl bit 4 selects
// between one 8KB bank and two independent 4KB banks.
func (m *mapperMMC1) chrOffset(address uint16) int {
	address &= 0x1FFF
	if m.chrBanks == 0 {
		return int(address)
	}
	if m.ctrl&0x10 == 0 {
		// 8KB mode: low bit of chr0 ignored.
		bank := (m.chr0 & 0xFE) % m.chrBanks
		return int(bank)*0x1000 + int(address)
	}
	if address < 0x1000 {
		return int(m.chr0%m.chrBanks)*0x1000 + int(address)
	}
	return int(m.chr1%m.chrBanks)*0x1000 + int(address-0x1000)
}

func (m *mapperMMC1) Mirror() MirrorMode {
	switch m.ctrl & 0x03 {
	case 0:
		return MirrorSingleScreen0
	case 1:
		return MirrorSingleScreen1
	case 2:
		return MirrorVertical
	default:
		return MirrorHorizontal
	}
}

func (m *mapperMMC1) SaveRegs() []uint8 {
	return []uint8{m.shift, m.ctrl, m.chr0, m.chr1, m.prg}
}

func (m *mapperMMC1) LoadRegs(regs []uint8) error {
	if len(regs) != 5 {
		return fmt.Errorf("MMC1 expects 5 register bytes, got %d", len(regs))
	}
	m.shift = regs[0]
	m.ctrl = regs[1]
	m.chr0 = regs[2]
	m.chr1 = regs[3]
	m.prg = regs[4]
	return nil
}
