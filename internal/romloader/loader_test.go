package romloader

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// fakeROM returns bytes that pass iNES magic detection.
func fakeROM() []byte {
	rom := make([]byte, 16+0x4000)
	copy(rom, "NES\x1A")
	rom[4] = 1
	rom[100] = 0xAB
	return rom
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func writeZip(t *testing.T, name string, entries map[string][]byte) string {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for entry, data := range entries {
		f, err := w.Create(entry)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := f.Write(data); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return writeFile(t, name, buf.Bytes())
}

func TestLoadRawNES(t *testing.T) {
	rom := fakeROM()
	path := writeFile(t, "game.nes", rom)
	data, name, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(data, rom) {
		t.Error("loaded data differs from the file")
	}
	if name != "game.nes" {
		t.Errorf("name = %q, want game.nes", name)
	}
}

func TestLoadRawByExtensionWithoutMagic(t *testing.T) {
	// Headerless data still loads via the .nes extension; the cartridge
	// parser rejects it later with a precise error.
	path := writeFile(t, "odd.nes", []byte{1, 2, 3})
	if _, _, err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestLoadShortFileDetection(t *testing.T) {
	// Files shorter than the magic window must still reach format
	// detection instead of failing the header read.
	for _, tt := range []struct {
		name string
		data []byte
	}{
		{"empty.bin", nil},
		{"tiny.bin", []byte{0x50}},
	} {
		path := writeFile(t, tt.name, tt.data)
		if _, _, err := Load(path); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("%s: err = %v, want ErrUnsupportedFormat", tt.name, err)
		}
	}
}

func TestLoadFromZip(t *testing.T) {
	rom := fakeROM()
	path := writeZip(t, "game.zip", map[string][]byte{
		"readme.txt":    []byte("hello"),
		"roms/game.nes": rom,
	})
	data, name, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(data, rom) {
		t.Error("extracted data differs")
	}
	if name != "game.nes" {
		t.Errorf("name = %q, want game.nes", name)
	}
}

func TestZipWithoutROMEntry(t *testing.T) {
	path := writeZip(t, "empty.zip", map[string][]byte{
		"readme.txt": []byte("nothing here"),
	})
	if _, _, err := Load(path); !errors.Is(err, ErrNoROMFile) {
		t.Errorf("err = %v, want ErrNoROMFile", err)
	}
}

func TestLoadFromGzip(t *testing.T) {
	rom := fakeROM()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(rom); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	w.Close()

	path := writeFile(t, "game.nes.gz", buf.Bytes())
	data, name, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(data, rom) {
		t.Error("decompressed data differs")
	}
	if name != "game.nes" {
		t.Errorf("name = %q, want game.nes", name)
	}
}

func TestLoadFromTarGz(t *testing.T) {
	rom := fakeROM()
	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	if err := tw.WriteHeader(&tar.Header{
		Name: "game.nes", Mode: 0o644, Size: int64(len(rom)),
	}); err != nil {
		t.Fatalf("tar header: %v", err)
	}
	if _, err := tw.Write(rom); err != nil {
		t.Fatalf("tar write: %v", err)
	}
	tw.Close()

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	gw.Write(tarBuf.Bytes())
	gw.Close()

	path := writeFile(t, "game.tar.gz", buf.Bytes())
	data, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(data, rom) {
		t.Error("extracted data differs")
	}
}

func TestUnsupportedFormat(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("not a rom at all"))
	if _, _, err := Load(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestFileTooLarge(t *testing.T) {
	big := make([]byte, maxROMSize+1)
	copy(big, "NES\x1A")
	path := writeFile(t, "big.nes", big)
	if _, _, err := Load(path); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("err = %v, want ErrFileTooLarge", err)
	}
}

func TestMissingFile(t *testing.T) {
	if _, _, err := Load(filepath.Join(t.TempDir(), "nope.nes")); err == nil {
		t.Error("expected error for missing file")
	}
}
