// Package input implements the standard NES joypad.
package input

// Button bits in the order the hardware shifts them out of $4016.
const (
	ButtonA uint8 = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Controller is one joypad. The program strobes it by writing $4016, then
// reads the eight button bits out one at a time.
type Controller struct {
	buttons uint8
	index   uint8
	strobe  bool
}

// State is a value snapshot of the joypad shift register.
type State struct {
	Buttons uint8
	Index   uint8
	Strobe  bool
}

// New returns a controller with no buttons held.
func New() *Controller {
	return &Controller{}
}

// Set replaces the held-button bitmap. It takes effect on the next strobe or,
// while strobing, immediately.
func (c *Controller) Set(buttons uint8) {
	c.buttons = buttons
}

// Buttons returns the current held-button bitmap.
func (c *Controller) Buttons() uint8 {
	return c.buttons
}

// Read shifts out the next button bit. After all eight bits, a real joypad
// reports 1.
func (c *Controller) Read() uint8 {
	var value uint8 = 1
	if c.index < 8 {
		value = c.buttons >> c.index & 1
	}
	if !c.strobe {
		c.index++
	}
	return value
}

// Write sets the strobe line. While high, the shift register continuously
// reloads so reads always see the A button.
func (c *Controller) Write(value uint8) {
	c.strobe = value&1 != 0
	if c.strobe {
		c.index = 0
	}
}

// State captures the joypad for a save state.
func (c *Controller) State() State {
	return State{Buttons: c.buttons, Index: c.index, Strobe: c.strobe}
}

// Restore overwrites the joypad from a snapshot.
func (c *Controller) Restore(s State) {
	c.buttons = s.Buttons
	c.index = s.Index
	c.strobe = s.Strobe
}
