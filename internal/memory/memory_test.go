package memory

import (
	"testing"

	"nesenv/internal/cartridge"
)

type stubPPU struct {
	lastAddr uint16
	lastVal  uint8
	readVal  uint8
	oam      []uint8
}

func (s *stubPPU) ReadRegister(address uint16) uint8 {
	s.lastAddr = address
	return s.readVal
}

func (s *stubPPU) WriteRegister(address uint16, value uint8) {
	s.lastAddr, s.lastVal = address, value
}

func (s *stubPPU) WriteOAMByte(value uint8) {
	s.oam = append(s.oam, value)
}

type stubPad struct {
	readVal   uint8
	lastWrite uint8
	writes    int
}

func (s *stubPad) Read() uint8 { return s.readVal }

func (s *stubPad) Write(value uint8) {
	s.lastWrite = value
	s.writes++
}

func newTestMemory(t *testing.T) (*CPUMemory, *stubPPU, *stubPad, *stubPad) {
	t.Helper()
	cart, err := cartridge.LoadFromBytes(cartridge.NewROMBuilder().Build())
	if err != nil {
		t.Fatalf("load test rom: %v", err)
	}
	ppu := &stubPPU{}
	pad1 := &stubPad{}
	pad2 := &stubPad{}
	return NewCPUMemory(cart, ppu, pad1, pad2, nil), ppu, pad1, pad2
}

func TestRAMMirroring(t *testing.T) {
	m, _, _, _ := newTestMemory(t)
	m.Write(0x0000, 0x42)
	for _, mirror := range []uint16{0x0800, 0x1000, 0x1800} {
		if got := m.Read(mirror); got != 0x42 {
			t.Errorf("Read($%04X) = $%02X, want $42", mirror, got)
		}
	}
}

func TestPowerUpPattern(t *testing.T) {
	m, _, _, _ := newTestMemory(t)
	ram := m.RAM()
	for i := 0; i < 16; i++ {
		want := uint8(0x00)
		if i&4 != 0 {
			want = 0xFF
		}
		if ram[i] != want {
			t.Errorf("ram[%d] = $%02X, want $%02X", i, ram[i], want)
		}
	}
}

func TestPPURegisterMirroring(t *testing.T) {
	m, ppu, _, _ := newTestMemory(t)
	m.Read(0x3456) // mirrors down to $2006
	if ppu.lastAddr != 0x2006 {
		t.Errorf("PPU saw $%04X, want $2006", ppu.lastAddr)
	}
	m.Write(0x2009, 0x55) // mirrors down to $2001
	if ppu.lastAddr != 0x2001 || ppu.lastVal != 0x55 {
		t.Errorf("PPU saw $%04X=$%02X, want $2001=$55", ppu.lastAddr, ppu.lastVal)
	}
}

func TestDMAWriteInvokesCallback(t *testing.T) {
	cart, err := cartridge.LoadFromBytes(cartridge.NewROMBuilder().Build())
	if err != nil {
		t.Fatalf("load test rom: %v", err)
	}
	var page uint8 = 0xFF
	m := NewCPUMemory(cart, &stubPPU{}, &stubPad{}, &stubPad{}, func(p uint8) { page = p })
	m.Write(0x4014, 0x02)
	if page != 0x02 {
		t.Errorf("DMA page = $%02X, want $02", page)
	}
}

func TestControllerStrobeReachesBothPads(t *testing.T) {
	m, _, pad1, pad2 := newTestMemory(t)
	m.Write(0x4016, 1)
	if pad1.lastWrite != 1 || pad2.lastWrite != 1 {
		t.Error("strobe write did not reach both controllers")
	}
}

func TestControllerReadMixesOpenBus(t *testing.T) {
	m, _, pad1, _ := newTestMemory(t)
	pad1.readVal = 1
	m.Write(0x4016, 0x40) // leaves $40 on the bus
	if got := m.Read(0x4016); got != 0x41 {
		t.Errorf("Read($4016) = $%02X, want $41 (button bit plus open bus)", got)
	}
}

func TestOpenBusReads(t *testing.T) {
	m, _, _, _ := newTestMemory(t)
	m.Write(0x0000, 0x57)
	if got := m.Read(0x5000); got != 0x57 {
		t.Errorf("unmapped read = $%02X, want last bus value $57", got)
	}
	// The unmapped read itself keeps the value latched.
	if got := m.Read(0x4000); got != 0x57 {
		t.Errorf("APU register read = $%02X, want open bus $57", got)
	}
}

func TestCartridgeRouting(t *testing.T) {
	cart, err := cartridge.LoadFromBytes(
		cartridge.NewROMBuilder().WithProgram([]uint8{0xEA}).Build())
	if err != nil {
		t.Fatalf("load test rom: %v", err)
	}
	m := NewCPUMemory(cart, &stubPPU{}, &stubPad{}, &stubPad{}, nil)
	if got := m.Read(0x8000); got != 0xEA {
		t.Errorf("PRG read = $%02X, want $EA", got)
	}
	m.Write(0x6000, 0x33)
	if got := m.Read(0x6000); got != 0x33 {
		t.Errorf("SRAM read = $%02X, want $33", got)
	}
}

func TestRAMSnapshotRoundTrip(t *testing.T) {
	m, _, _, _ := newTestMemory(t)
	m.Write(0x0123, 0x99)
	buf := make([]uint8, ramSize)
	m.CopyRAM(buf)

	m.Write(0x0123, 0x00)
	m.RestoreRAM(buf)
	if got := m.Read(0x0123); got != 0x99 {
		t.Errorf("restored RAM = $%02X, want $99", got)
	}
}

func TestMirrorAddress(t *testing.T) {
	tests := []struct {
		name    string
		mode    cartridge.MirrorMode
		address uint16
		want    uint16
	}{
		{"horizontal NT0", cartridge.MirrorHorizontal, 0x2000, 0x0000},
		{"horizontal NT1 maps to NT0", cartridge.MirrorHorizontal, 0x2400, 0x0000},
		{"horizontal NT2", cartridge.MirrorHorizontal, 0x2800, 0x0400},
		{"horizontal NT3 maps to NT2", cartridge.MirrorHorizontal, 0x2C00, 0x0400},
		{"vertical NT1", cartridge.MirrorVertical, 0x2400, 0x0400},
		{"vertical NT2 maps to NT0", cartridge.MirrorVertical, 0x2800, 0x0000},
		{"single screen", cartridge.MirrorSingleScreen0, 0x2C05, 0x0005},
		{"four screen NT3", cartridge.MirrorFourScreen, 0x2C00, 0x0C00},
		{"$3000 mirror region", cartridge.MirrorVertical, 0x3400, 0x0400},
		{"offset preserved", cartridge.MirrorHorizontal, 0x2123, 0x0123},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MirrorAddress(tt.mode, tt.address); got != tt.want {
				t.Errorf("MirrorAddress = $%04X, want $%04X", got, tt.want)
			}
		})
	}
}

func TestPPUMemoryRoutesCHRAndVRAM(t *testing.T) {
	cart, err := cartridge.LoadFromBytes(
		cartridge.NewROMBuilder().WithCHRData([]uint8{0x7E}).Build())
	if err != nil {
		t.Fatalf("load test rom: %v", err)
	}
	m := NewPPUMemory(cart)
	if got := m.Read(0x0000); got != 0x7E {
		t.Errorf("CHR read = $%02X, want $7E", got)
	}
	m.Write(0x2005, 0x44)
	if got := m.Read(0x2005); got != 0x44 {
		t.Errorf("VRAM read = $%02X, want $44", got)
	}
}
