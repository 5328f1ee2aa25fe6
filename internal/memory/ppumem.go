package memory

import "nesenv/internal/cartridge"

// vramSize is 4KB so four-screen cartridges get distinct nametables; the
// common two-screen modes only ever address the first 2KB.
const vramSize = 0x1000

// nametableLayout maps (mirror mode, nametable index) to a physical VRAM
// quadrant.
var nametableLayout = [5][4]uint16{
	cartridge.MirrorHorizontal:    {0, 0, 1, 1},
	cartridge.MirrorVertical:      {0, 1, 0, 1},
	cartridge.MirrorSingleScreen0: {0, 0, 0, 0},
	cartridge.MirrorSingleScreen1: {1, 1, 1, 1},
	cartridge.MirrorFourScreen:    {0, 1, 2, 3},
}

// PPUMemory is the PPU address space below palette RAM: pattern tables on the
// cartridge and the console's nametable VRAM. Mirroring is resolved on every
// access because MMC1 can switch modes at runtime.
type PPUMemory struct {
	cart *cartridge.Cartridge
	vram [vramSize]uint8
}

// NewPPUMemory builds the PPU address space for the given cartridge.
func NewPPUMemory(cart *cartridge.Cartridge) *PPUMemory {
	return &PPUMemory{cart: cart}
}

// MirrorAddress folds a $2000-$3EFF nametable address into VRAM.
func MirrorAddress(mode cartridge.MirrorMode, address uint16) uint16 {
	address = (address - 0x2000) % 0x1000
	table := address / 0x0400
	offset := address % 0x0400
	return nametableLayout[mode][table]*0x0400 + offset
}

func (m *PPUMemory) Read(address uint16) uint8 {
	address %= 0x4000
	switch {
	case address < 0x2000:
		return m.cart.ReadCHR(address)
	default:
		return m.vram[MirrorAddress(m.cart.Mirror(), address)]
	}
}

func (m *PPUMemory) Write(address uint16, value uint8) {
	address %= 0x4000
	switch {
	case address < 0x2000:
		m.cart.WriteCHR(address, value)
	default:
		m.vram[MirrorAddress(m.cart.Mirror(), address)] = value
	}
}

// CopyVRAM copies nametable RAM into buf for a save state.
func (m *PPUMemory) CopyVRAM(buf []uint8) {
	copy(buf, m.vram[:])
}

// RestoreVRAM overwrites nametable RAM from buf.
func (m *PPUMemory) RestoreVRAM(buf []uint8) {
	copy(m.vram[:], buf)
}

// VRAMSize reports the nametable RAM size in bytes.
func (m *PPUMemory) VRAMSize() int {
	return vramSize
}
