package bus

import (
	"errors"
	"testing"

	"nesenv/internal/cartridge"
)

// newTestBus powers up a console running the given program at $8000. With no
// program, the CPU spins on a JMP-to-self.
func newTestBus(t *testing.T, builder *cartridge.ROMBuilder) *Bus {
	t.Helper()
	cart, err := cartridge.LoadFromBytes(builder.Build())
	if err != nil {
		t.Fatalf("load test rom: %v", err)
	}
	return New(cart)
}

func spinBuilder() *cartridge.ROMBuilder {
	return cartridge.NewROMBuilder().
		WithProgram([]uint8{0x4C, 0x00, 0x80}) // JMP $8000
}

// dotClock flattens a PPU position into a monotonic dot count.
func dotClock(b *Bus) uint64 {
	s := b.PPU().State()
	return s.Frame*341*262 + uint64(s.Scanline)*341 + uint64(s.Dot)
}

func TestThreeDotsPerCPUCycle(t *testing.T) {
	b := newTestBus(t, spinBuilder())
	for i := 0; i < 100; i++ {
		before := dotClock(b)
		cycles, err := b.Step()
		if err != nil {
			t.Fatalf("Step: %v", err)
		}
		if got := dotClock(b) - before; got != uint64(cycles)*3 {
			t.Fatalf("step %d: %d dots for %d cycles, want %d", i, got, cycles, cycles*3)
		}
	}
}

func TestRunFrameLength(t *testing.T) {
	b := newTestBus(t, spinBuilder())
	// The first frame boundary arrives almost immediately after power-up;
	// the second is a full frame away.
	if _, err := b.RunFrame(); err != nil {
		t.Fatalf("RunFrame: %v", err)
	}
	cycles, err := b.RunFrame()
	if err != nil {
		t.Fatalf("RunFrame: %v", err)
	}
	// 89342 dots / 3, give or take the instruction straddling the edge.
	if cycles < 29700 || cycles > 29900 {
		t.Errorf("frame took %d CPU cycles, want about 29780", cycles)
	}
}

func TestDeterminism(t *testing.T) {
	run := func() *Bus {
		b := newTestBus(t, spinBuilder())
		for i := 0; i < 5; i++ {
			if _, err := b.RunFrame(); err != nil {
				t.Fatalf("RunFrame: %v", err)
			}
		}
		return b
	}
	a, b := run(), run()

	if a.CPU().State() != b.CPU().State() {
		t.Error("CPU state diverged between identical runs")
	}
	if a.PPU().State() != b.PPU().State() {
		t.Error("PPU state diverged between identical runs")
	}
	ra, rb := a.Mem().RAM(), b.Mem().RAM()
	for i := range ra {
		if ra[i] != rb[i] {
			t.Fatalf("RAM diverged at $%04X", i)
		}
	}
}

func TestOAMDMATransferAndStall(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder().
		WithProgram([]uint8{
			0xA9, 0x02, // LDA #$02
			0x8D, 0x14, 0x40, // STA $4014
			0x4C, 0x05, 0x80, // JMP self
		}))

	if _, err := b.Step(); err != nil { // LDA
		t.Fatalf("Step: %v", err)
	}
	cycles, err := b.Step() // STA triggers DMA
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if cycles != 4+513 && cycles != 4+514 {
		t.Errorf("DMA store took %d cycles, want 517 or 518", cycles)
	}

	// Page 2 carries the power-up RAM pattern; OAM must match it.
	oam := b.PPU().State().OAM
	ram := b.Mem().RAM()
	for i := 0; i < 256; i++ {
		if oam[i] != ram[0x0200+i] {
			t.Fatalf("OAM[%d] = $%02X, want $%02X", i, oam[i], ram[0x0200+i])
		}
	}
}

func TestHaltIsSticky(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder().
		WithProgram([]uint8{0x02})) // KIL

	if _, err := b.Step(); !errors.Is(err, ErrHalted) {
		t.Fatalf("err = %v, want ErrHalted", err)
	}
	if _, err := b.Step(); !errors.Is(err, ErrHalted) {
		t.Errorf("second Step err = %v, want sticky ErrHalted", err)
	}
	if _, err := b.RunFrame(); !errors.Is(err, ErrHalted) {
		t.Errorf("RunFrame err = %v, want sticky ErrHalted", err)
	}

	b.Reset()
	if b.Halted() != nil {
		t.Error("Reset did not clear the halt")
	}
}

func TestResetRestoresPowerUpRAM(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder().
		WithProgram([]uint8{
			0xA9, 0x55, // LDA #$55
			0x85, 0x00, // STA $00
			0x4C, 0x04, 0x80, // JMP self
		}))
	b.Step()
	b.Step()
	if b.Mem().RAM()[0] != 0x55 {
		t.Fatal("store did not land in RAM")
	}
	b.Reset()
	if b.Mem().RAM()[0] != 0x00 {
		t.Error("Reset did not restore the power-up RAM pattern")
	}
}

func TestNMIDeliveredToProgram(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder().
		WithProgram([]uint8{
			0xA9, 0x80, // LDA #$80
			0x8D, 0x00, 0x20, // STA $2000 (enable vblank NMI)
			0x4C, 0x05, 0x80, // JMP self
		}).
		WithPRGData(0x8010, []uint8{
			0xEE, 0x00, 0x00, // INC $0000
			0x40, // RTI
		}).
		WithVectors(0x8010, 0x8000, 0x8000))

	for i := 0; i < 4; i++ {
		if _, err := b.RunFrame(); err != nil {
			t.Fatalf("RunFrame %d: %v", i, err)
		}
	}
	if got := b.Mem().RAM()[0]; got < 2 {
		t.Errorf("NMI handler ran %d times over 4 frames, want at least 2", got)
	}
}
