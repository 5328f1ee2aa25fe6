// Package cartridge implements iNES ROM parsing and the cartridge mappers.
package cartridge

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Errors reported by the ROM loader.
var (
	ErrInvalidROM        = errors.New("invalid iNES ROM image")
	ErrUnsupportedMapper = errors.New("unsupported mapper")
)

// MirrorMode represents nametable mirroring.
type MirrorMode uint8

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorSingleScreen0
	MirrorSingleScreen1
	MirrorFourScreen
)

// Mapper routes CPU and PPU addresses through the cartridge's current bank
// selection. The mapper set is closed; variants are chosen by iNES mapper id
// at load time. SaveRegs and LoadRegs expose the bank-selection registers so
// snapshots can capture and restore mapper state.
type Mapper interface {
	ReadPRG(address uint16) uint8
	WritePRG(address uint16, value uint8)
	ReadCHR(address uint16) uint8
	WriteCHR(address uint16, value uint8)

	// Mirror returns the effective nametable mirroring. Most mappers pass
	// the header mode through; MMC1 controls it from a register.
	Mirror() MirrorMode

	SaveRegs() []uint8
	LoadRegs(regs []uint8) error
}

// Cartridge owns the ROM banks and the mapper driving them. The ROM data is
// immutable after load; only CHR RAM, PRG RAM and the mapper registers change.
type Cartridge struct {
	prgROM []uint8
	chrMem []uint8 // CHR ROM, or CHR RAM when the header declares no CHR banks
	sram   [0x2000]uint8

	mapperID  uint8
	mapper    Mapper
	mirror    MirrorMode
	hasCHRRAM bool
	battery   bool
}

type inesHeader struct {
	Magic      [4]uint8
	PRGBanks   uint8 // 16KB units
	CHRBanks   uint8 // 8KB units
	Flags6     uint8
	Flags7     uint8
	PRGRAMSize uint8
	TV1        uint8
	TV2        uint8
	Padding    [5]uint8
}

var inesMagic = [4]uint8{'N', 'E', 'S', 0x1A}

// LoadFromFile loads a cartridge from an iNES file on disk.
func LoadFromFile(filename string) (*Cartridge, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// LoadFromBytes loads a cartridge from an in-memory iNES image.
func LoadFromBytes(data []byte) (*Cartridge, error) {
	return Load(bytes.NewReader(data))
}

// Load parses an iNES image from r and returns a cartridge with its mapper
// initialized. It fails with ErrInvalidROM on a malformed header and with
// ErrUnsupportedMapper when the mapper id has no implementation.
func Load(r io.Reader) (*Cartridge, error) {
	var header inesHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: short header", ErrInvalidROM)
	}
	if header.Magic != inesMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidROM)
	}
	if header.PRGBanks == 0 {
		return nil, fmt.Errorf("%w: zero PRG banks", ErrInvalidROM)
	}

	cart := &Cartridge{
		mapperID: (header.Flags6 >> 4) | (header.Flags7 & 0xF0),
		battery:  header.Flags6&0x02 != 0,
	}

	switch {
	case header.Flags6&0x08 != 0:
		cart.mirror = MirrorFourScreen
	case header.Flags6&0x01 != 0:
		cart.mirror = MirrorVertical
	default:
		cart.mirror = MirrorHorizontal
	}

	// 512-byte trainer precedes the PRG data; skip it.
	if header.Flags6&0x04 != 0 {
		if _, err := io.CopyN(io.Discard, r, 512); err != nil {
			return nil, fmt.Errorf("%w: truncated trainer", ErrInvalidROM)
		}
	}

	cart.prgROM = make([]uint8, int(header.PRGBanks)*0x4000)
	if _, err := io.ReadFull(r, cart.prgROM); err != nil {
		return nil, fmt.Errorf("%w: truncated PRG data", ErrInvalidROM)
	}

	if header.CHRBanks > 0 {
		cart.chrMem = make([]uint8, int(header.CHRBanks)*0x2000)
		if _, err := io.ReadFull(r, cart.chrMem); err != nil {
			return nil, fmt.Errorf("%w: truncated CHR data", ErrInvalidROM)
		}
	} else {
		cart.chrMem = make([]uint8, 0x2000)
		cart.hasCHRRAM = true
	}

	mapper, err := newMapper(cart)
	if err != nil {
		return nil, err
	}
	cart.mapper = mapper
	return cart, nil
}

// newMapper selects the mapper implementation for the cartridge's mapper id.
func newMapper(cart *Cartridge) (Mapper, error) {
	switch cart.mapperID {
	case 0:
		return newMapperNROM(cart), nil
	case 1:
		return newMapperMMC1(cart), nil
	case 2:
		return newMapperUxROM(cart), nil
	case 3:
		return newMapperCNROM(cart), nil
	default:
		return nil, fmt.Errorf("%w: mapper %d", ErrUnsupportedMapper, cart.mapperID)
	}
}

// ReadPRG reads from the CPU-visible cartridge space through the mapper.
func (c *Cartridge) ReadPRG(address uint16) uint8 {
	return c.mapper.ReadPRG(address)
}

// WritePRG writes to the CPU-visible cartridge space through the mapper.
func (c *Cartridge) WritePRG(address uint16, value uint8) {
	c.mapper.WritePRG(address, value)
}

// ReadCHR reads pattern table data through the mapper.
func (c *Cartridge) ReadCHR(address uint16) uint8 {
	return c.mapper.ReadCHR(address)
}

// WriteCHR writes pattern table data through the mapper.
func (c *Cartridge) WriteCHR(address uint16, value uint8) {
	c.mapper.WriteCHR(address, value)
}

// Mirror returns the effective nametable mirroring mode.
func (c *Cartridge) Mirror() MirrorMode {
	return c.mapper.Mirror()
}

// MapperID returns the iNES mapper number.
func (c *Cartridge) MapperID() uint8 {
	return c.mapperID
}

// PRGSize returns the PRG ROM size in bytes.
func (c *Cartridge) PRGSize() int {
	return len(c.prgROM)
}

// CHRSize returns the CHR ROM/RAM size in bytes.
func (c *Cartridge) CHRSize() int {
	return len(c.chrMem)
}

// HasCHRRAM reports whether the CHR space is writable RAM.
func (c *Cartridge) HasCHRRAM() bool {
	return c.hasCHRRAM
}

// SaveMapperRegs returns the mapper's bank-selection registers.
func (c *Cartridge) SaveMapperRegs() []uint8 {
	return c.mapper.SaveRegs()
}

// LoadMapperRegs restores the mapper's bank-selection registers.
func (c *Cartridge) LoadMapperRegs(regs []uint8) error {
	return c.mapper.LoadRegs(regs)
}

// CopyCHRRAM copies the CHR RAM contents into buf. It returns false when the
// cartridge uses CHR ROM, which is immutable and never snapshotted.
func (c *Cartridge) CopyCHRRAM(buf []uint8) bool {
	if !c.hasCHRRAM || len(buf) != len(c.chrMem) {
		return false
	}
	copy(buf, c.chrMem)
	return true
}

// RestoreCHRRAM overwrites the CHR RAM contents from buf.
func (c *Cartridge) RestoreCHRRAM(buf []uint8) bool {
	if !c.hasCHRRAM || len(buf) != len(c.chrMem) {
		return false
	}
	copy(c.chrMem, buf)
	return true
}

// CopySRAM copies the 8KB PRG RAM into buf.
func (c *Cartridge) CopySRAM(buf []uint8) {
	copy(buf, c.sram[:])
}

// RestoreSRAM overwrites the 8KB PRG RAM from buf.
func (c *Cartridge) RestoreSRAM(buf []uint8) {
	copy(c.sram[:], buf)
}
