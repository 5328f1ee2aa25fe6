package snapshot

import (
	"errors"
	"reflect"
	"testing"

	"nesenv/internal/bus"
	"nesenv/internal/cartridge"
)

func newConsole(t *testing.T, builder *cartridge.ROMBuilder) *bus.Bus {
	t.Helper()
	cart, err := cartridge.LoadFromBytes(builder.Build())
	if err != nil {
		t.Fatalf("load test rom: %v", err)
	}
	return bus.New(cart)
}

func spinROM() *cartridge.ROMBuilder {
	return cartridge.NewROMBuilder().
		WithProgram([]uint8{0xE6, 0x10, 0x4C, 0x00, 0x80}) // INC $10; JMP $8000
}

func runFrames(t *testing.T, b *bus.Bus, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := b.RunFrame(); err != nil {
			t.Fatalf("RunFrame: %v", err)
		}
	}
}

func TestRestoreRewindsConsole(t *testing.T) {
	b := newConsole(t, spinROM())
	runFrames(t, b, 3)
	saved := Capture(b)

	runFrames(t, b, 5)
	if err := Restore(b, saved); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	again := Capture(b)
	if !reflect.DeepEqual(saved, again) {
		t.Error("capture after restore differs from the restored snapshot")
	}
}

func TestSnapshotIsIndependentOfConsole(t *testing.T) {
	b := newConsole(t, spinROM())
	runFrames(t, b, 2)
	saved := Capture(b)
	ramAt := saved.RAM[0x10]

	runFrames(t, b, 10) // keeps incrementing $10
	if saved.RAM[0x10] != ramAt {
		t.Error("snapshot mutated as the console ran")
	}
}

func TestRestoredConsoleReplaysIdentically(t *testing.T) {
	b := newConsole(t, spinROM())
	runFrames(t, b, 2)
	saved := Capture(b)

	runFrames(t, b, 3)
	first := Capture(b)

	if err := Restore(b, saved); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	runFrames(t, b, 3)
	second := Capture(b)

	if !reflect.DeepEqual(first, second) {
		t.Error("replay from a restored state diverged")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	b := newConsole(t, spinROM())
	runFrames(t, b, 4)
	saved := Capture(b)

	data, err := Encode(saved)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(saved, decoded) {
		t.Error("decoded snapshot differs from the original")
	}
}

func TestEncodeDecodeWithCHRRAMAndMapperRegs(t *testing.T) {
	b := newConsole(t, cartridge.NewROMBuilder().
		WithMapper(2).WithPRGBanks(4).WithCHRBanks(0).
		WithProgram([]uint8{0x4C, 0x00, 0x80}))
	runFrames(t, b, 2)
	saved := Capture(b)
	if len(saved.MapperRegs) == 0 || len(saved.CHRRAM) == 0 {
		t.Fatal("expected mapper registers and CHR RAM in the snapshot")
	}

	data, err := Encode(saved)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(saved, decoded) {
		t.Error("decoded snapshot differs from the original")
	}
}

func TestRestoreRejectsWrongCartridge(t *testing.T) {
	b := newConsole(t, spinROM())
	saved := Capture(b)

	other := newConsole(t, cartridge.NewROMBuilder().
		WithMapper(2).WithPRGBanks(4).
		WithProgram([]uint8{0x4C, 0x00, 0x80}))
	runFrames(t, other, 2)
	before := Capture(other)

	if err := Restore(other, saved); !errors.Is(err, ErrIncompatible) {
		t.Fatalf("err = %v, want ErrIncompatible", err)
	}
	after := Capture(other)
	if !reflect.DeepEqual(before, after) {
		t.Error("failed restore mutated the console")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", []byte("XXXX\x01hello")},
		{"bad version", []byte("NESS\x63")},
		{"truncated payload", []byte("NESS\x01")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.data); !errors.Is(err, ErrInvalid) {
				t.Errorf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestDecodeRejectsCorruptedBody(t *testing.T) {
	b := newConsole(t, spinROM())
	data, err := Encode(Capture(b))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	data = data[:len(data)-4]
	if _, err := Decode(data); !errors.Is(err, ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
}
