// Package nesenv is a headless NES emulator for reinforcement-learning
// agents. An Env loads one cartridge and advances one video frame per
// discrete action; agents observe the palette-index screen and work RAM, and
// can save, clone and serialize full console states.
//
// A single Env is not safe for concurrent use. Independent Envs are.
package nesenv

import (
	"errors"
	"fmt"

	"nesenv/internal/bus"
	"nesenv/internal/cartridge"
	"nesenv/internal/ppu"
	"nesenv/internal/romloader"
	"nesenv/internal/snapshot"
)

// Screen dimensions in pixels.
const (
	ScreenWidth  = ppu.ScreenWidth
	ScreenHeight = ppu.ScreenHeight
)

// Errors reported by the Env surface. Component errors (bad ROM images,
// snapshot mismatches, a jammed CPU) wrap these sentinels, so callers match
// with errors.Is.
var (
	ErrInvalidROM           = cartridge.ErrInvalidROM
	ErrUnsupportedMapper    = cartridge.ErrUnsupportedMapper
	ErrHalted               = bus.ErrHalted
	ErrIncompatibleSnapshot = snapshot.ErrIncompatible
	ErrInvalidSnapshot      = snapshot.ErrInvalid

	ErrInvalidAction = errors.New("action index out of range")
	ErrBufferSize    = errors.New("destination buffer has wrong length")
	ErrNoSavedState  = errors.New("no state saved")
)

// Action is a joypad button combination, one bit per button in hardware
// shift order: A, B, Select, Start, Up, Down, Left, Right.
type Action uint8

// Buttons an Action can combine.
const (
	A Action = 1 << iota
	B
	Select
	Start
	Up
	Down
	Left
	Right
	NoOp Action = 0
)

// defaultActions is the stock discrete action set: no-op, each direction,
// the fire buttons, and the run/jump combinations platformers need.
var defaultActions = []Action{
	NoOp,
	Up, Down, Left, Right,
	A, B, Start, Select,
	Right | A, Right | B, Right | A | B,
	Left | A, Left | B, Left | A | B,
}

// RewardFunc derives a per-frame reward from work RAM. The slice aliases
// live memory and must not be retained.
type RewardFunc func(ram []byte) int

// GameOverFunc derives a terminal signal from work RAM.
type GameOverFunc func(ram []byte) bool

// Snapshot is an opaque full-console state, produced by CloneState and
// DecodeState. A Snapshot is a value copy: it never changes as the Env runs.
type Snapshot struct {
	state snapshot.Snapshot
}

// Env is one emulated console.
type Env struct {
	bus     *bus.Bus
	romName string

	actions  []Action
	reward   RewardFunc
	gameOver GameOverFunc

	saved        *snapshot.Snapshot
	episodeFrame uint64
}

// New loads a ROM from disk and powers up a console. Archives (.zip, .7z,
// .gz, .tar.gz, .rar) are searched for the first .nes entry.
func New(romPath string) (*Env, error) {
	data, name, err := romloader.Load(romPath)
	if err != nil {
		return nil, err
	}
	env, err := NewFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", romPath, err)
	}
	env.romName = name
	return env, nil
}

// NewFromBytes powers up a console from an iNES image already in memory.
func NewFromBytes(rom []byte) (*Env, error) {
	cart, err := cartridge.LoadFromBytes(rom)
	if err != nil {
		return nil, err
	}
	return &Env{
		bus:     bus.New(cart),
		actions: defaultActions,
	}, nil
}

// ROMName returns the loaded ROM's base filename, when known.
func (e *Env) ROMName() string {
	return e.romName
}

// Reset power-cycles the console and starts a new episode. The loaded
// cartridge, action set and saved state survive.
func (e *Env) Reset() {
	e.bus.Reset()
	e.episodeFrame = 0
}

// Act latches the indexed action's buttons on controller 1 and runs one
// frame. It returns the frame's reward, zero unless a RewardFunc is set.
func (e *Env) Act(index int) (int, error) {
	if index < 0 || index >= len(e.actions) {
		return 0, fmt.Errorf("%w: %d of %d", ErrInvalidAction, index, len(e.actions))
	}
	e.bus.Controller1().Set(uint8(e.actions[index]))
	if _, err := e.bus.RunFrame(); err != nil {
		return 0, err
	}
	e.episodeFrame++
	if e.reward == nil {
		return 0, nil
	}
	return e.reward(e.RAM()), nil
}

// GameOver reports the terminal signal, false unless a GameOverFunc is set.
func (e *Env) GameOver() bool {
	return e.gameOver != nil && e.gameOver(e.RAM())
}

// SetRewardFunc installs the per-frame reward heuristic. Pass nil to return
// to the zero reward.
func (e *Env) SetRewardFunc(f RewardFunc) {
	e.reward = f
}

// SetGameOverFunc installs the terminal-state heuristic. Pass nil to never
// report game over.
func (e *Env) SetGameOverFunc(f GameOverFunc) {
	e.gameOver = f
}

// Actions returns a copy of the current action set.
func (e *Env) Actions() []Action {
	out := make([]Action, len(e.actions))
	copy(out, e.actions)
	return out
}

// NumActions returns the size of the current action set.
func (e *Env) NumActions() int {
	return len(e.actions)
}

// SetActions replaces the action set. An empty set is rejected.
func (e *Env) SetActions(actions []Action) error {
	if len(actions) == 0 {
		return fmt.Errorf("%w: empty action set", ErrInvalidAction)
	}
	e.actions = make([]Action, len(actions))
	copy(e.actions, actions)
	return nil
}

// FrameNumber returns the frames rendered since power-up.
func (e *Env) FrameNumber() uint64 {
	return e.bus.PPU().Frame()
}

// EpisodeFrameNumber returns the frames since the last Reset.
func (e *Env) EpisodeFrameNumber() uint64 {
	return e.episodeFrame
}

// Screen returns the 256x240 palette-index frame buffer, row-major. The
// slice aliases live memory and is valid until the next Act or restore.
func (e *Env) Screen() []byte {
	return e.bus.PPU().FrameBuffer()
}

// CopyScreen copies the frame buffer into buf, which must be exactly
// ScreenWidth*ScreenHeight bytes.
func (e *Env) CopyScreen(buf []byte) error {
	if len(buf) != ScreenWidth*ScreenHeight {
		return fmt.Errorf("%w: need %d, got %d", ErrBufferSize, ScreenWidth*ScreenHeight, len(buf))
	}
	copy(buf, e.bus.PPU().FrameBuffer())
	return nil
}

// ScreenRGB resolves the frame buffer through the master palette into buf as
// packed RGB, which must be exactly ScreenWidth*ScreenHeight*3 bytes.
func (e *Env) ScreenRGB(buf []byte) error {
	if len(buf) != ScreenWidth*ScreenHeight*3 {
		return fmt.Errorf("%w: need %d, got %d", ErrBufferSize, ScreenWidth*ScreenHeight*3, len(buf))
	}
	for i, p := range e.bus.PPU().FrameBuffer() {
		c := ppu.Palette[p]
		buf[i*3+0] = c[0]
		buf[i*3+1] = c[1]
		buf[i*3+2] = c[2]
	}
	return nil
}

// RAMSize returns the work RAM size in bytes.
func (e *Env) RAMSize() int {
	return len(e.bus.Mem().RAM())
}

// RAM returns the 2KB work RAM. The slice aliases live memory; it mutates
// as the console runs.
func (e *Env) RAM() []byte {
	return e.bus.Mem().RAM()
}

// CopyRAM copies work RAM into buf, which must be exactly RAMSize bytes.
func (e *Env) CopyRAM(buf []byte) error {
	if len(buf) != e.RAMSize() {
		return fmt.Errorf("%w: need %d, got %d", ErrBufferSize, e.RAMSize(), len(buf))
	}
	copy(buf, e.bus.Mem().RAM())
	return nil
}

// SaveState stores the current console state in the Env's single internal
// slot, replacing any previous save.
func (e *Env) SaveState() {
	s := snapshot.Capture(e.bus)
	e.saved = &s
}

// LoadState restores the console from the internal slot.
func (e *Env) LoadState() error {
	if e.saved == nil {
		return ErrNoSavedState
	}
	return snapshot.Restore(e.bus, *e.saved)
}

// CloneState captures the console into a standalone snapshot, independent of
// the internal slot and of further emulation.
func (e *Env) CloneState() *Snapshot {
	return &Snapshot{state: snapshot.Capture(e.bus)}
}

// RestoreState rewinds the console to a snapshot. The snapshot must come
// from a console running the same cartridge; on mismatch the console is left
// untouched and ErrIncompatibleSnapshot is returned.
func (e *Env) RestoreState(s *Snapshot) error {
	return snapshot.Restore(e.bus, s.state)
}

// EncodeState serializes a snapshot into a compact portable byte encoding.
func EncodeState(s *Snapshot) ([]byte, error) {
	return snapshot.Encode(s.state)
}

// DecodeState parses bytes produced by EncodeState. Decoding validates the
// encoding only; cartridge compatibility is checked by RestoreState.
func DecodeState(data []byte) (*Snapshot, error) {
	state, err := snapshot.Decode(data)
	if err != nil {
		return nil, err
	}
	return &Snapshot{state: state}, nil
}
