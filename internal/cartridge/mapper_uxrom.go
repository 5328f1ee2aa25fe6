package cartridge

import "fmt"

// mapperUxROM implements mapper 2 (UxROM): a switchable 16KB PRG bank at
// $8000 and the last 16KB bank fixed at $C000. Any write to $8000-$FFFF
// selects the low bank. CHR is an unbanked 8KB, usually RAM.
type mapperUxROM struct {
	cart     *Cartridge
	prgBank  uint8
	numBanks uint8
}

func newMapperUxROM(cart *Cartridge) *mapperUxROM {
	return &mapperUxROM{
		cart:     cart,
		numBanks: uint8(len(cart.prgROM) / 0x4000),
	}
}

func (m *mapperUxROM) ReadPRG(address uint16) uint8 {
	switch {
	case address >= 0xC000:
		base := (int(m.numBanks) - 1) * 0x4000
		return m.cart.prgROM[base+int(address-0xC000)]
	case address >= 0x8000:
		base := int(m.prgBank%m.numBanks) * 0x4000
		return m.cart.prgROM[base+int(address-0x8000)]
	case address >= 0x6000:
		return m.cart.sram[address-0x6000]
	default:
		return 0
	}
}

func (m *mapperUxROM) WritePRG(address uint16, value uint8) {
	switch {
	case address >= 0x8000:
		m.prgBank = value % m.numBanks
	case address >= 0x6000:
		m.cart.sram[address-0x6000] = value
	}
}

func (m *mapperUxROM) ReadCHR(address uint16) uint8 {
	return m.cart.chrMem[address&0x1FFF]
}

func (m *mapperUxROM) WriteCHR(address uint16, value uint8) {
	if m.cart.hasCHRRAM {
		m.cart.chrMem[address&0x1FFF] = value
	}
}

func (m *mapperUxROM) Mirror() MirrorMode {
	return m.cart.mirror
}

func (m *mapperUxROM) SaveRegs() []uint8 {
	return []uint8{m.prgBank}
}

func (m *mapperUxROM) LoadRegs(regs []uint8) error {
	if len(regs) != 1 {
		return fmt.Errorf("UxROM expects 1 register byte, got %d", len(regs))
	}
	m.prgBank = regs[0] % m.numBanks
	return nil
}
