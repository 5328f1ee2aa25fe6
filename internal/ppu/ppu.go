// Package ppu implements the 2C02 picture processing unit. It renders into a
// palette-index frame buffer; callers resolve colors through Palette when they
// need RGB output.
package ppu

// Screen dimensions in pixels.
const (
	ScreenWidth  = 256
	ScreenHeight = 240
)

const (
	dotsPerLine    = 341
	linesPerFrame  = 262
	preRenderLine  = 261
	postRenderLine = 240
)

// Bus is the PPU's view of pattern tables and nametables ($0000-$3EFF).
// Palette RAM lives inside the PPU itself.
type Bus interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// PPU emulates the 2C02. Step advances one dot; the bus drives it at three
// dots per CPU cycle.
type PPU struct {
	mem Bus

	// Callbacks into the bus. onNMI fires on the vblank NMI edge,
	// onFrame when the vblank flag rises at scanline 241 dot 1.
	onNMI   func()
	onFrame func()

	dot      uint16 // 0..340
	scanline uint16 // 0..261, 261 is the pre-render line
	frame    uint64

	// Loopy scroll state.
	v uint16 // current VRAM address
	t uint16 // temporary VRAM address
	x uint8  // fine X scroll
	w bool   // second-write latch

	ctrl     uint8 // $2000
	mask     uint8 // $2001
	register uint8 // last bus value, fills the low status bits
	buffered uint8 // $2007 read buffer

	spriteZeroHit  bool
	spriteOverflow bool

	nmiOccurred bool // vblank flag as seen through $2002
	nmiPrevious bool
	nmiDelay    uint8

	oamAddr uint8
	oam     [256]uint8
	palette [32]uint8

	// Background fetch pipeline.
	nameTableByte uint8
	attributeByte uint8
	lowTileByte   uint8
	highTileByte  uint8
	tileData      uint64

	// Sprites selected for the current scanline.
	spriteCount      uint8
	spritePatterns   [8]uint32
	spritePositions  [8]uint8
	spritePriorities [8]uint8
	spriteIndexes    [8]uint8

	frameBuffer [ScreenWidth * ScreenHeight]uint8
}

// State is a value snapshot of the full PPU. All fields are fixed-size so the
// struct serializes directly with encoding/binary.
type State struct {
	Dot, Scanline uint16
	Frame         uint64

	V, T uint16
	X    uint8
	W    bool

	Ctrl, Mask, Register, Buffered uint8

	SpriteZeroHit  bool
	SpriteOverflow bool

	NMIOccurred bool
	NMIPrevious bool
	NMIDelay    uint8

	OAMAddr uint8
	OAM     [256]uint8
	Palette [32]uint8

	NameTableByte uint8
	AttributeByte uint8
	LowTileByte   uint8
	HighTileByte  uint8
	TileData      uint64

	SpriteCount      uint8
	SpritePatterns   [8]uint32
	SpritePositions  [8]uint8
	SpritePriorities [8]uint8
	SpriteIndexes    [8]uint8

	FrameBuffer [ScreenWidth * ScreenHeight]uint8
}

// New creates a PPU attached to mem. onNMI and onFrame may be nil.
func New(mem Bus, onNMI, onFrame func()) *PPU {
	p := &PPU{mem: mem, onNMI: onNMI, onFrame: onFrame}
	p.Reset()
	return p
}

// Reset puts the PPU in its power-up state. The first visible frame starts
// after one warm-up frame, matching hardware.
func (p *PPU) Reset() {
	p.dot = 340
	p.scanline = 240
	p.frame = 0
	p.ctrl = 0
	p.mask = 0
	p.oamAddr = 0
	p.v, p.t, p.x = 0, 0, 0
	p.w = false
	p.nmiOccurred = false
	p.nmiPrevious = false
	p.nmiDelay = 0
	p.spriteZeroHit = false
	p.spriteOverflow = false
	p.register = 0
	p.buffered = 0
	p.oam = [256]uint8{}
	p.palette = [32]uint8{}
	p.nameTableByte = 0
	p.attributeByte = 0
	p.lowTileByte = 0
	p.highTileByte = 0
	p.tileData = 0
	p.spriteCount = 0
	p.frameBuffer = [ScreenWidth * ScreenHeight]uint8{}
}

// Frame returns the number of completed frames since power-up.
func (p *PPU) Frame() uint64 {
	return p.frame
}

// FrameBuffer exposes the 256x240 palette-index buffer, row-major. The slice
// aliases the live buffer; it mutates as the PPU steps.
func (p *PPU) FrameBuffer() []uint8 {
	return p.frameBuffer[:]
}

// State captures the PPU for a save state.
func (p *PPU) State() State {
	return State{
		Dot: p.dot, Scanline: p.scanline, Frame: p.frame,
		V: p.v, T: p.t, X: p.x, W: p.w,
		Ctrl: p.ctrl, Mask: p.mask, Register: p.register, Buffered: p.buffered,
		SpriteZeroHit: p.spriteZeroHit, SpriteOverflow: p.spriteOverflow,
		NMIOccurred: p.nmiOccurred, NMIPrevious: p.nmiPrevious, NMIDelay: p.nmiDelay,
		OAMAddr: p.oamAddr, OAM: p.oam, Palette: p.palette,
		NameTableByte: p.nameTableByte, AttributeByte: p.attributeByte,
		LowTileByte: p.lowTileByte, HighTileByte: p.highTileByte, TileData: p.tileData,
		SpriteCount: p.spriteCount, SpritePatterns: p.spritePatterns,
		SpritePositions: p.spritePositions, SpritePriorities: p.spritePriorities,
		SpriteIndexes: p.spriteIndexes,
		FrameBuffer:   p.frameBuffer,
	}
}

// Restore overwrites the PPU from a snapshot.
func (p *PPU) Restore(s State) {
	p.dot, p.scanline, p.frame = s.Dot, s.Scanline, s.Frame
	p.v, p.t, p.x, p.w = s.V, s.T, s.X, s.W
	p.ctrl, p.mask, p.register, p.buffered = s.Ctrl, s.Mask, s.Register, s.Buffered
	p.spriteZeroHit, p.spriteOverflow = s.SpriteZeroHit, s.SpriteOverflow
	p.nmiOccurred, p.nmiPrevious, p.nmiDelay = s.NMIOccurred, s.NMIPrevious, s.NMIDelay
	p.oamAddr, p.oam, p.palette = s.OAMAddr, s.OAM, s.Palette
	p.nameTableByte, p.attributeByte = s.NameTableByte, s.AttributeByte
	p.lowTileByte, p.highTileByte, p.tileData = s.LowTileByte, s.HighTileByte, s.TileData
	p.spriteCount, p.spritePatterns = s.SpriteCount, s.SpritePatterns
	p.spritePositions, p.spritePriorities = s.SpritePositions, s.SpritePriorities
	p.spriteIndexes = s.SpriteIndexes
	p.frameBuffer = s.FrameBuffer
}

// ReadRegister handles CPU reads of $2000-$2007 (after mirroring).
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch address {
	case 0x2002:
		return p.readStatus()
	case 0x2004:
		return p.oam[p.oamAddr]
	case 0x2007:
		return p.readData()
	}
	return p.register
}

// WriteRegister handles CPU writes of $2000-$2007 (after mirroring).
func (p *PPU) WriteRegister(address uint16, value uint8) {
	p.register = value
	switch address {
	case 0x2000:
		p.writeControl(value)
	case 0x2001:
		p.mask = value
	case 0x2003:
		p.oamAddr = value
	case 0x2004:
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case 0x2005:
		p.writeScroll(value)
	case 0x2006:
		p.writeAddress(value)
	case 0x2007:
		p.writeData(value)
	}
}

// WriteOAMByte writes one byte at the current OAM address and advances it.
// OAM DMA pushes 256 bytes through here.
func (p *PPU) WriteOAMByte(value uint8) {
	p.oam[p.oamAddr] = value
	p.oamAddr++
}

func (p *PPU) readStatus() uint8 {
	result := p.register & 0x1F
	if p.spriteOverflow {
		result |= 1 << 5
	}
	if p.spriteZeroHit {
		result |= 1 << 6
	}
	if p.nmiOccurred {
		result |= 1 << 7
	}
	p.nmiOccurred = false
	p.nmiChange()
	p.w = false
	return result
}

func (p *PPU) writeControl(value uint8) {
	p.ctrl = value
	p.t = p.t&0xF3FF | uint16(value&0x03)<<10
	p.nmiChange()
}

func (p *PPU) writeScroll(value uint8) {
	if !p.w {
		p.t = p.t&0xFFE0 | uint16(value)>>3
		p.x = value & 0x07
	} else {
		p.t = p.t&0x8FFF | uint16(value&0x07)<<12
		p.t = p.t&0xFC1F | uint16(value&0xF8)<<2
	}
	p.w = !p.w
}

func (p *PPU) writeAddress(value uint8) {
	if !p.w {
		p.t = p.t&0x80FF | uint16(value&0x3F)<<8
	} else {
		p.t = p.t&0xFF00 | uint16(value)
		p.v = p.t
	}
	p.w = !p.w
}

func (p *PPU) readData() uint8 {
	value := p.read(p.v)
	if p.v%0x4000 < 0x3F00 {
		// Reads below the palette go through the internal buffer.
		value, p.buffered = p.buffered, value
	} else {
		// Palette reads are direct, but refresh the buffer with the
		// nametable byte underneath.
		p.buffered = p.mem.Read(p.v%0x4000 - 0x1000)
	}
	p.v += p.addressIncrement()
	return value
}

func (p *PPU) writeData(value uint8) {
	p.write(p.v, value)
	p.v += p.addressIncrement()
}

func (p *PPU) addressIncrement() uint16 {
	if p.ctrl&0x04 != 0 {
		return 32
	}
	return 1
}

// read resolves the PPU address space, keeping palette RAM internal.
func (p *PPU) read(address uint16) uint8 {
	address %= 0x4000
	if address < 0x3F00 {
		return p.mem.Read(address)
	}
	return p.readPalette(address)
}

func (p *PPU) write(address uint16, value uint8) {
	address %= 0x4000
	if address < 0x3F00 {
		p.mem.Write(address, value)
		return
	}
	p.writePalette(address, value)
}

// readPalette applies the $3F10/$3F14/$3F18/$3F1C backdrop mirrors.
func (p *PPU) readPalette(address uint16) uint8 {
	address %= 32
	if address >= 16 && address%4 == 0 {
		address -= 16
	}
	return p.palette[address]
}

func (p *PPU) writePalette(address uint16, value uint8) {
	address %= 32
	if address >= 16 && address%4 == 0 {
		address -= 16
	}
	p.palette[address] = value
}

func (p *PPU) nmiChange() {
	nmi := p.ctrl&0x80 != 0 && p.nmiOccurred
	if nmi && !p.nmiPrevious {
		// Short delay so the CPU sees the flag before the interrupt,
		// the same ordering games observe on hardware.
		p.nmiDelay = 15
	}
	p.nmiPrevious = nmi
}

func (p *PPU) renderingEnabled() bool {
	return p.mask&0x18 != 0
}

// Step advances the PPU by one dot.
func (p *PPU) Step() {
	p.tick()

	rendering := p.renderingEnabled()
	preLine := p.scanline == preRenderLine
	visibleLine := p.scanline < postRenderLine
	renderLine := preLine || visibleLine
	prefetchDot := p.dot >= 321 && p.dot <= 336
	visibleDot := p.dot >= 1 && p.dot <= 256
	fetchDot := prefetchDot || visibleDot

	if rendering {
		if visibleLine && visibleDot {
			p.renderPixel()
		}
		if renderLine && fetchDot {
			p.tileData <<= 4
			switch p.dot % 8 {
			case 1:
				p.fetchNameTableByte()
			case 3:
				p.fetchAttributeByte()
			case 5:
				p.fetchLowTileByte()
			case 7:
				p.fetchHighTileByte()
			case 0:
				p.storeTileData()
			}
		}
		if preLine && p.dot >= 280 && p.dot <= 304 {
			p.copyY()
		}
		if renderLine {
			if fetchDot && p.dot%8 == 0 {
				p.incrementX()
			}
			if p.dot == 256 {
				p.incrementY()
			}
			if p.dot == 257 {
				p.copyX()
			}
		}
		if p.dot == 257 {
			if visibleLine {
				p.evaluateSprites()
			} else {
				p.spriteCount = 0
			}
		}
	}

	if p.scanline == 241 && p.dot == 1 {
		p.setVerticalBlank()
	}
	if preLine && p.dot == 1 {
		p.nmiOccurred = false
		p.nmiChange()
		p.spriteZeroHit = false
		p.spriteOverflow = false
	}
}

// tick advances the dot counter, handling the NMI delay line and the odd-frame
// dot skip on the pre-render line.
func (p *PPU) tick() {
	if p.nmiDelay > 0 {
		p.nmiDelay--
		if p.nmiDelay == 0 && p.ctrl&0x80 != 0 && p.nmiOccurred {
			if p.onNMI != nil {
				p.onNMI()
			}
		}
	}

	if p.renderingEnabled() && p.frame%2 == 1 &&
		p.scanline == preRenderLine && p.dot == 339 {
		p.dot = 0
		p.scanline = 0
		p.frame++
		return
	}

	p.dot++
	if p.dot >= dotsPerLine {
		p.dot = 0
		p.scanline++
		if p.scanline >= linesPerFrame {
			p.scanline = 0
			p.frame++
		}
	}
}

func (p *PPU) setVerticalBlank() {
	p.nmiOccurred = true
	p.nmiChange()
	if p.onFrame != nil {
		p.onFrame()
	}
}

func (p *PPU) fetchNameTableByte() {
	p.nameTableByte = p.read(0x2000 | p.v&0x0FFF)
}

func (p *PPU) fetchAttributeByte() {
	v := p.v
	address := 0x23C0 | v&0x0C00 | v>>4&0x38 | v>>2&0x07
	shift := (v >> 4 & 4) | (v & 2)
	p.attributeByte = (p.read(address) >> shift & 3) << 2
}

func (p *PPU) tileAddress() uint16 {
	fineY := p.v >> 12 & 7
	table := uint16(p.ctrl&0x10) << 8 // $0000 or $1000
	return table + uint16(p.nameTableByte)*16 + fineY
}

func (p *PPU) fetchLowTileByte() {
	p.lowTileByte = p.read(p.tileAddress())
}

func (p *PPU) fetchHighTileByte() {
	p.highTileByte = p.read(p.tileAddress() + 8)
}

// storeTileData packs eight pixels of (attribute | pattern) nibbles into the
// low half of the shift register.
func (p *PPU) storeTileData() {
	var data uint32
	for i := 0; i < 8; i++ {
		a := p.attributeByte
		p1 := (p.lowTileByte & 0x80) >> 7
		p2 := (p.highTileByte & 0x80) >> 6
		p.lowTileByte <<= 1
		p.highTileByte <<= 1
		data = data<<4 | uint32(a|p1|p2)
	}
	p.tileData |= uint64(data)
}

func (p *PPU) backgroundPixel() uint8 {
	if p.mask&0x08 == 0 {
		return 0
	}
	data := uint32(p.tileData>>32) >> ((7 - p.x) * 4)
	return uint8(data & 0x0F)
}

func (p *PPU) spritePixel() (uint8, uint8) {
	if p.mask&0x10 == 0 {
		return 0, 0
	}
	for i := uint8(0); i < p.spriteCount; i++ {
		offset := int(p.dot-1) - int(p.spritePositions[i])
		if offset < 0 || offset > 7 {
			continue
		}
		color := uint8(p.spritePatterns[i] >> uint8((7-offset)*4) & 0x0F)
		if color%4 == 0 {
			continue
		}
		return i, color
	}
	return 0, 0
}

func (p *PPU) renderPixel() {
	x := p.dot - 1
	y := p.scanline

	background := p.backgroundPixel()
	i, sprite := p.spritePixel()

	// Left-edge masking.
	if x < 8 && p.mask&0x02 == 0 {
		background = 0
	}
	if x < 8 && p.mask&0x04 == 0 {
		sprite = 0
	}

	b := background%4 != 0
	s := sprite%4 != 0

	var color uint8
	switch {
	case !b && !s:
		color = 0
	case !b && s:
		color = sprite | 0x10
	case b && !s:
		color = background
	default:
		if p.spriteIndexes[i] == 0 && x < 255 {
			p.spriteZeroHit = true
		}
		if p.spritePriorities[i] == 0 {
			color = sprite | 0x10
		} else {
			color = background
		}
	}

	p.frameBuffer[int(y)*ScreenWidth+int(x)] = p.readPalette(uint16(color)) % 64
}

func (p *PPU) spriteHeight() int {
	if p.ctrl&0x20 != 0 {
		return 16
	}
	return 8
}

// evaluateSprites scans OAM for sprites on the next scanline. The hardware
// limit of eight per line applies; a ninth sets the overflow flag.
func (p *PPU) evaluateSprites() {
	h := p.spriteHeight()
	count := uint8(0)
	for i := 0; i < 64; i++ {
		y := p.oam[i*4+0]
		a := p.oam[i*4+2]
		x := p.oam[i*4+3]
		row := int(p.scanline) - int(y)
		if row < 0 || row >= h {
			continue
		}
		if count < 8 {
			p.spritePatterns[count] = p.fetchSpritePattern(i, row)
			p.spritePositions[count] = x
			p.spritePriorities[count] = a >> 5 & 1
			p.spriteIndexes[count] = uint8(i)
		}
		count++
	}
	if count > 8 {
		count = 8
		p.spriteOverflow = true
	}
	p.spriteCount = count
}

func (p *PPU) fetchSpritePattern(i, row int) uint32 {
	tile := p.oam[i*4+1]
	attributes := p.oam[i*4+2]

	var address uint16
	if p.ctrl&0x20 == 0 {
		if attributes&0x80 != 0 {
			row = 7 - row
		}
		table := uint16(p.ctrl&0x08) << 9 // $0000 or $1000
		address = table + uint16(tile)*16 + uint16(row)
	} else {
		if attributes&0x80 != 0 {
			row = 15 - row
		}
		table := uint16(tile & 1)
		tile &= 0xFE
		if row > 7 {
			tile++
			row -= 8
		}
		address = 0x1000*table + uint16(tile)*16 + uint16(row)
	}

	a := (attributes & 3) << 2
	lowTileByte := p.read(address)
	highTileByte := p.read(address + 8)

	var data uint32
	for j := 0; j < 8; j++ {
		var p1, p2 uint8
		if attributes&0x40 != 0 {
			p1 = lowTileByte & 1
			p2 = (highTileByte & 1) << 1
			lowTileByte >>= 1
			highTileByte >>= 1
		} else {
			p1 = (lowTileByte & 0x80) >> 7
			p2 = (highTileByte & 0x80) >> 6
			lowTileByte <<= 1
			highTileByte <<= 1
		}
		data = data<<4 | uint32(a|p1|p2)
	}
	return data
}

// loopy scroll increments, straight from the 2C02 wiring.

func (p *PPU) incrementX() {
	if p.v&0x001F == 31 {
		p.v &^= 0x001F
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

func (p *PPU) incrementY() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &^= 0x7000
	y := p.v >> 5 & 0x1F
	switch y {
	case 29:
		y = 0
		p.v ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	p.v = p.v&^0x03E0 | y<<5
}

func (p *PPU) copyX() {
	p.v = p.v&0xFBE0 | p.t&0x041F
}

func (p *PPU) copyY() {
	p.v = p.v&0x841F | p.t&0x7BE0
}
