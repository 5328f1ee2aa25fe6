// Package romloader reads iNES ROM images from disk. Plain .nes files load
// directly; ZIP, 7z, gzip, tar.gz and RAR archives are detected by magic
// bytes and searched for the first .nes entry.
package romloader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxROMSize caps extracted data well above the largest licensed cartridge.
const maxROMSize = 4 * 1024 * 1024

var (
	// ErrNoROMFile is returned when an archive contains no .nes entry.
	ErrNoROMFile = errors.New("no ROM file found in archive")

	// ErrUnsupportedFormat is returned for files that are neither iNES
	// images nor recognized archives.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrFileTooLarge is returned when extracted content exceeds the
	// size cap.
	ErrFileTooLarge = errors.New("file exceeds maximum size limit")
)

var (
	magicINES   = []byte{'N', 'E', 'S', 0x1A}
	magicZIP    = []byte{0x50, 0x4B, 0x03, 0x04}
	magicZIPEnd = []byte{0x50, 0x4B, 0x05, 0x06}
	magic7z     = []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}
	magicGzip   = []byte{0x1F, 0x8B}
	magicRAR    = []byte{'R', 'a', 'r', '!'}
)

type extractFunc func(path string) (data []byte, name string, err error)

// Load reads a ROM from path, extracting it from an archive when necessary.
// It returns the raw iNES image and the ROM's base filename.
func Load(path string) ([]byte, string, error) {
	header, err := readHeader(path)
	if err != nil {
		return nil, "", err
	}

	extract := detect(header, path)
	if extract == nil {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return extract(path)
}

// readHeader reads the first few bytes for magic detection.
func readHeader(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rom: %w", err)
	}
	defer f.Close()

	header := make([]byte, 8)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("read rom header: %w", err)
	}
	return header[:n], nil
}

// detect picks an extractor from magic bytes, falling back to the
// extension for archives written without their usual signature.
func detect(header []byte, path string) extractFunc {
	switch {
	case bytes.HasPrefix(header, magicINES):
		return loadRaw
	case bytes.HasPrefix(header, magicZIP), bytes.HasPrefix(header, magicZIPEnd):
		return extractZIP
	case bytes.HasPrefix(header, magic7z):
		return extract7z
	case bytes.HasPrefix(header, magicGzip):
		return extractGzip
	case bytes.HasPrefix(header, magicRAR):
		return extractRAR
	}

	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return extractZIP
	case strings.HasSuffix(lower, ".7z"):
		return extract7z
	case strings.HasSuffix(lower, ".gz"), strings.HasSuffix(lower, ".tgz"):
		return extractGzip
	case strings.HasSuffix(lower, ".rar"):
		return extractRAR
	case strings.HasSuffix(lower, ".nes"):
		// A .nes file without the iNES magic still loads here; the
		// cartridge parser gives the precise rejection.
		return loadRaw
	}
	return nil
}

func loadRaw(path string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open rom: %w", err)
	}
	defer f.Close()

	data, err := limitedRead(f)
	if err != nil {
		return nil, "", fmt.Errorf("read rom: %w", err)
	}
	return data, filepath.Base(path), nil
}

// isROMEntry reports whether an archive member looks like an iNES image.
func isROMEntry(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".nes")
}

// limitedRead reads up to maxROMSize bytes, erroring beyond the cap.
func limitedRead(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxROMSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxROMSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}
