package cartridge

// ROMBuilder assembles minimal iNES images for tests. It places a program at
// $8000, fills the vectors, and emits a header describing the requested
// mapper and bank layout.
type ROMBuilder struct {
	prgBanks    uint8
	chrBanks    uint8
	mapperID    uint8
	mirror      MirrorMode
	program     []uint8
	prgData     map[uint16]uint8
	chrData     []uint8
	resetVector uint16
	nmiVector   uint16
	irqVector   uint16
}

// NewROMBuilder returns a builder for a 16KB NROM image with all vectors
// pointing at $8000.
func NewROMBuilder() *ROMBuilder {
	return &ROMBuilder{
		prgBanks:    1,
		chrBanks:    1,
		mirror:      MirrorHorizontal,
		prgData:     make(map[uint16]uint8),
		resetVector: 0x8000,
		nmiVector:   0x8000,
		irqVector:   0x8000,
	}
}

// WithPRGBanks sets the PRG ROM size in 16KB units.
func (b *ROMBuilder) WithPRGBanks(n uint8) *ROMBuilder {
	b.prgBanks = n
	return b
}

// WithCHRBanks sets the CHR ROM size in 8KB units; zero selects CHR RAM.
func (b *ROMBuilder) WithCHRBanks(n uint8) *ROMBuilder {
	b.chrBanks = n
	return b
}

// WithMapper sets the iNES mapper number.
func (b *ROMBuilder) WithMapper(id uint8) *ROMBuilder {
	b.mapperID = id
	return b
}

// WithMirroring sets the header mirroring flag.
func (b *ROMBuilder) WithMirroring(m MirrorMode) *ROMBuilder {
	b.mirror = m
	return b
}

// WithProgram places code at the reset vector target ($8000).
func (b *ROMBuilder) WithProgram(code []uint8) *ROMBuilder {
	b.program = append([]uint8(nil), code...)
	return b
}

// WithPRGData writes raw bytes at a CPU address in $8000-$FFFF.
func (b *ROMBuilder) WithPRGData(address uint16, data []uint8) *ROMBuilder {
	for i, v := range data {
		b.prgData[address+uint16(i)] = v
	}
	return b
}

// WithCHRData seeds the beginning of CHR bank 0.
func (b *ROMBuilder) WithCHRData(data []uint8) *ROMBuilder {
	b.chrData = append([]uint8(nil), data...)
	return b
}

// WithVectors sets the NMI, reset and IRQ vectors.
func (b *ROMBuilder) WithVectors(nmi, reset, irq uint16) *ROMBuilder {
	b.nmiVector = nmi
	b.resetVector = reset
	b.irqVector = irq
	return b
}

// Build assembles the iNES image.
func (b *ROMBuilder) Build() []uint8 {
	prgSize := int(b.prgBanks) * 0x4000
	chrSize := int(b.chrBanks) * 0x2000

	header := make([]uint8, 16)
	copy(header, inesMagic[:])
	header[4] = b.prgBanks
	header[5] = b.chrBanks
	flags6 := (b.mapperID & 0x0F) << 4
	if b.mirror == MirrorVertical {
		flags6 |= 0x01
	}
	if b.mirror == MirrorFourScreen {
		flags6 |= 0x08
	}
	header[6] = flags6
	header[7] = b.mapperID & 0xF0

	prg := make([]uint8, prgSize)
	copy(prg, b.program)
	for addr, v := range b.prgData {
		if addr >= 0x8000 {
			offset := int(addr-0x8000) % prgSize
			prg[offset] = v
		}
	}

	// Vectors live in the last six bytes of the PRG image, which mapper
	// fixed-bank rules place at $FFFA-$FFFF.
	prg[prgSize-6] = uint8(b.nmiVector)
	prg[prgSize-5] = uint8(b.nmiVector >> 8)
	prg[prgSize-4] = uint8(b.resetVector)
	prg[prgSize-3] = uint8(b.resetVector >> 8)
	prg[prgSize-2] = uint8(b.irqVector)
	prg[prgSize-1] = uint8(b.irqVector >> 8)

	chr := make([]uint8, chrSize)
	copy(chr, b.chrData)

	rom := make([]uint8, 0, 16+prgSize+chrSize)
	rom = append(rom, header...)
	rom = append(rom, prg...)
	rom = append(rom, chr...)
	return rom
}
