// Package snapshot captures and restores complete console states. A snapshot
// is a plain value, so copies are independent; Encode and Decode convert to a
// compact portable byte encoding.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"nesenv/internal/bus"
	"nesenv/internal/cpu"
	"nesenv/internal/input"
	"nesenv/internal/ppu"
)

var (
	// ErrIncompatible is returned when a snapshot's cartridge fingerprint
	// does not match the console it is being restored into.
	ErrIncompatible = errors.New("snapshot is for a different cartridge")

	// ErrInvalid is returned when an encoded snapshot fails to parse.
	ErrInvalid = errors.New("invalid snapshot encoding")
)

// Snapshot is a complete console state. The fingerprint fields identify the
// cartridge it was taken from; Restore refuses a mismatch.
type Snapshot struct {
	MapperID  uint8
	PRGSize   uint32
	CHRSize   uint32
	HasCHRRAM bool

	CPU  cpu.State
	PPU  ppu.State
	Pad1 input.State
	Pad2 input.State

	RAM  [0x0800]uint8
	VRAM [0x1000]uint8
	SRAM [0x2000]uint8

	OpenBus uint8
	Stall   uint32

	MapperRegs []uint8
	CHRRAM     []uint8
}

// Capture takes a full snapshot of the console. The returned value shares no
// memory with the console; it stays valid as emulation continues.
func Capture(b *bus.Bus) Snapshot {
	cart := b.Cart()
	s := Snapshot{
		MapperID:  cart.MapperID(),
		PRGSize:   uint32(cart.PRGSize()),
		CHRSize:   uint32(cart.CHRSize()),
		HasCHRRAM: cart.HasCHRRAM(),

		CPU:  b.CPU().State(),
		PPU:  b.PPU().State(),
		Pad1: b.Controller1().State(),
		Pad2: b.Controller2().State(),

		OpenBus: b.Mem().OpenBus(),
		Stall:   uint32(b.Stall()),

		MapperRegs: cart.SaveMapperRegs(),
	}
	b.Mem().CopyRAM(s.RAM[:])
	b.PPUMem().CopyVRAM(s.VRAM[:])
	cart.CopySRAM(s.SRAM[:])
	if cart.HasCHRRAM() {
		s.CHRRAM = make([]uint8, cart.CHRSize())
		cart.CopyCHRRAM(s.CHRRAM)
	}
	return s
}

// Restore overwrites the console with a snapshot. All validation happens
// before any mutation, so a failed restore leaves the console untouched.
func Restore(b *bus.Bus, s Snapshot) error {
	cart := b.Cart()
	if s.MapperID != cart.MapperID() ||
		s.PRGSize != uint32(cart.PRGSize()) ||
		s.CHRSize != uint32(cart.CHRSize()) ||
		s.HasCHRRAM != cart.HasCHRRAM() {
		return fmt.Errorf("%w: mapper %d PRG %d CHR %d, console has mapper %d PRG %d CHR %d",
			ErrIncompatible, s.MapperID, s.PRGSize, s.CHRSize,
			cart.MapperID(), cart.PRGSize(), cart.CHRSize())
	}
	if len(s.MapperRegs) != len(cart.SaveMapperRegs()) {
		return fmt.Errorf("%w: mapper register count %d", ErrIncompatible, len(s.MapperRegs))
	}
	if s.HasCHRRAM && len(s.CHRRAM) != cart.CHRSize() {
		return fmt.Errorf("%w: CHR RAM size %d", ErrIncompatible, len(s.CHRRAM))
	}

	b.CPU().Restore(s.CPU)
	b.PPU().Restore(s.PPU)
	b.Controller1().Restore(s.Pad1)
	b.Controller2().Restore(s.Pad2)
	b.Mem().RestoreRAM(s.RAM[:])
	b.Mem().SetOpenBus(s.OpenBus)
	b.PPUMem().RestoreVRAM(s.VRAM[:])
	cart.RestoreSRAM(s.SRAM[:])
	if s.HasCHRRAM {
		cart.RestoreCHRRAM(s.CHRRAM)
	}
	if err := cart.LoadMapperRegs(s.MapperRegs); err != nil {
		return err
	}
	b.SetStall(int(s.Stall))
	return nil
}

// Encoding layout: 4-byte magic, 1-byte version, then the zstd-compressed
// binary payload.
var encMagic = [4]byte{'N', 'E', 'S', 'S'}

const encVersion = 1

var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
)

// Encode serializes a snapshot into its portable byte encoding.
func Encode(s Snapshot) ([]byte, error) {
	var payload bytes.Buffer
	for _, v := range []any{
		s.MapperID, s.PRGSize, s.CHRSize, s.HasCHRRAM,
		s.CPU, s.PPU, s.Pad1, s.Pad2,
		s.RAM, s.VRAM, s.SRAM,
		s.OpenBus, s.Stall,
		uint8(len(s.MapperRegs)), s.MapperRegs,
		uint32(len(s.CHRRAM)), s.CHRRAM,
	} {
		if err := binary.Write(&payload, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("encode snapshot: %w", err)
		}
	}

	out := make([]byte, 0, len(encMagic)+1+payload.Len()/2)
	out = append(out, encMagic[:]...)
	out = append(out, encVersion)
	return zstdEncoder.EncodeAll(payload.Bytes(), out), nil
}

// Decode parses an encoded snapshot. It validates the header, version and
// payload lengths; the cartridge fingerprint is checked later by Restore.
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if len(data) < len(encMagic)+1 || !bytes.Equal(data[:4], encMagic[:]) {
		return s, fmt.Errorf("%w: bad magic", ErrInvalid)
	}
	if data[4] != encVersion {
		return s, fmt.Errorf("%w: unsupported version %d", ErrInvalid, data[4])
	}

	payload, err := zstdDecoder.DecodeAll(data[5:], nil)
	if err != nil {
		return s, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	r := bytes.NewReader(payload)
	read := func(v any) error {
		return binary.Read(r, binary.LittleEndian, v)
	}
	for _, v := range []any{
		&s.MapperID, &s.PRGSize, &s.CHRSize, &s.HasCHRRAM,
		&s.CPU, &s.PPU, &s.Pad1, &s.Pad2,
		&s.RAM, &s.VRAM, &s.SRAM,
		&s.OpenBus, &s.Stall,
	} {
		if err := read(v); err != nil {
			return s, fmt.Errorf("%w: truncated payload", ErrInvalid)
		}
	}

	var regCount uint8
	if err := read(&regCount); err != nil {
		return s, fmt.Errorf("%w: truncated payload", ErrInvalid)
	}
	if regCount > 0 {
		s.MapperRegs = make([]uint8, regCount)
		if err := read(s.MapperRegs); err != nil {
			return s, fmt.Errorf("%w: truncated payload", ErrInvalid)
		}
	}

	var chrLen uint32
	if err := read(&chrLen); err != nil {
		return s, fmt.Errorf("%w: truncated payload", ErrInvalid)
	}
	if chrLen > uint32(r.Len()) {
		return s, fmt.Errorf("%w: CHR RAM length %d exceeds payload", ErrInvalid, chrLen)
	}
	if chrLen > 0 {
		s.CHRRAM = make([]uint8, chrLen)
		if err := read(s.CHRRAM); err != nil {
			return s, fmt.Errorf("%w: truncated payload", ErrInvalid)
		}
	}
	if r.Len() != 0 {
		return s, fmt.Errorf("%w: %d trailing bytes", ErrInvalid, r.Len())
	}
	return s, nil
}
