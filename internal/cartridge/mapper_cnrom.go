package cartridge

import "fmt"

// mapperCNROM implements mapper 3 (CNROM): fixed PRG, switchable 8KB CHR
// bank selected by writes to $8000-$FFFF.
type mapperCNROM struct {
	cart     *Cartridge
	chrBank  uint8
	numBanks uint8
	prgMask  uint16
}

func newMapperCNROM(cart *Cartridge) *mapperCNROM {
	mask := uint16(0x7FFF)
	if len(cart.prgROM) <= 0x4000 {
		mask = 0x3FFF
	}
	banks := uint8(len(cart.chrMem) / 0x2000)
	if banks == 0 {
		banks = 1
	}
	return &mapperCNROM{cart: cart, numBanks: banks, prgMask: mask}
}

func (m *mapperCNROM) ReadPRG(address uint16) uint8 {
	switch {
	case address >= 0x8000:
		return m.cart.prgROM[(address-0x8000)&m.prgMask]
	case address >= 0x6000:
		return m.cart.sram[address-0x6000]
	default:
		return 0
	}
}

func (m *mapperCNROM) WritePRG(address uint16, value uint8) {
	switch {
	case address >= 0x8000:
		m.chrBank = value % m.numBanks
	case address >= 0x6000:
		m.cart.sram[address-0x6000] = value
	}
}

func (m *mapperCNROM) ReadCHR(address uint16) uint8 {
	base := int(m.chrBank) * 0x2000
	return m.cart.chrMem[base+int(address&0x1FFF)]
}

func (m *mapperCNROM) WriteCHR(address uint16, value uint8) {
	if m.cart.hasCHRRAM {
		base := int(m.chrBank) * 0x2000
		m.cart.chrMem[base+int(address&0x1FFF)] = value
	}
}

func (m *mapperCNROM) Mirror() MirrorMode {
	return m.cart.mirror
}

func (m *mapperCNROM) SaveRegs() []uint8 {
	return []uint8{m.chrBank}
}

func (m *mapperCNROM) LoadRegs(regs []uint8) error {
	if len(regs) != 1 {
		return fmt.Errorf("CNROM expects 1 register byte, got %d", len(regs))
	}
	m.chrBank = regs[0] % m.numBanks
	return nil
}
