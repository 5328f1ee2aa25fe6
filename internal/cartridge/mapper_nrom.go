package cartridge

import "fmt"

// mapperNROM implements mapper 0 (NROM): no bank switching. A 16KB PRG ROM
// is mirrored across the 32KB window; CHR is a single fixed 8KB bank.
type mapperNROM struct {
	cart    *Cartridge
	prgMask uint16
}

func newMapperNROM(cart *Cartridge) *mapperNROM {
	mask := uint16(0x7FFF)
	if len(cart.prgROM) <= 0x4000 {
		mask = 0x3FFF
	}
	return &mapperNROM{cart: cart, prgMask: mask}
}

func (m *mapperNROM) ReadPRG(address uint16) uint8 {
	switch {
	case address >= 0x8000:
		return m.cart.prgROM[(address-0x8000)&m.prgMask]
	case address >= 0x6000:
		return m.cart.sram[address-0x6000]
	default:
		return 0
	}
}

func (m *mapperNROM) WritePRG(address uint16, value uint8) {
	if address >= 0x6000 && address < 0x8000 {
		m.cart.sram[address-0x6000] = value
	}
	// ROM writes have no registers to hit on NROM.
}

func (m *mapperNROM) ReadCHR(address uint16) uint8 {
	return m.cart.chrMem[address&0x1FFF]
}

func (m *mapperNROM) WriteCHR(address uint16, value uint8) {
	if m.cart.hasCHRRAM {
		m.cart.chrMem[address&0x1FFF] = value
	}
}

func (m *mapperNROM) Mirror() MirrorMode {
	return m.cart.mirror
}

func (m *mapperNROM) SaveRegs() []uint8 {
	return nil
}

func (m *mapperNROM) LoadRegs(regs []uint8) error {
	if len(regs) != 0 {
		return fmt.Errorf("NROM has no mapper registers, got %d bytes", len(regs))
	}
	return nil
}
