package input

import "testing"

func TestShiftOrder(t *testing.T) {
	c := New()
	c.Set(ButtonA | ButtonStart | ButtonRight)
	c.Write(1)
	c.Write(0)

	want := []uint8{1, 0, 0, 1, 0, 0, 0, 1}
	for i, w := range want {
		if got := c.Read(); got != w {
			t.Errorf("read %d = %d, want %d", i, got, w)
		}
	}
}

func TestReadsAfterEightReturnOne(t *testing.T) {
	c := New()
	c.Set(0)
	c.Write(1)
	c.Write(0)
	for i := 0; i < 8; i++ {
		c.Read()
	}
	for i := 0; i < 3; i++ {
		if got := c.Read(); got != 1 {
			t.Errorf("read %d after exhaustion = %d, want 1", i, got)
		}
	}
}

func TestStrobeHighRepeatsAButton(t *testing.T) {
	c := New()
	c.Set(ButtonA)
	c.Write(1)
	for i := 0; i < 4; i++ {
		if got := c.Read(); got != 1 {
			t.Errorf("read %d while strobing = %d, want A bit", i, got)
		}
	}
}

func TestStrobeReloadsShiftRegister(t *testing.T) {
	c := New()
	c.Set(ButtonB)
	c.Write(1)
	c.Write(0)
	c.Read() // consume A bit
	c.Write(1)
	c.Write(0)
	if got := c.Read(); got != 0 {
		t.Errorf("first read after re-strobe = %d, want A bit 0", got)
	}
	if got := c.Read(); got != 1 {
		t.Errorf("second read after re-strobe = %d, want B bit 1", got)
	}
}

func TestStateRoundTrip(t *testing.T) {
	c := New()
	c.Set(ButtonLeft | ButtonA)
	c.Write(1)
	c.Write(0)
	c.Read()
	saved := c.State()

	c.Read()
	c.Read()
	c.Restore(saved)
	other := New()
	other.Restore(saved)
	for i := 0; i < 7; i++ {
		if a, b := c.Read(), other.Read(); a != b {
			t.Fatalf("read %d diverged after restore: %d vs %d", i, a, b)
		}
	}
}
