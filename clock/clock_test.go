package clock

import "testing"

func TestManual(t *testing.T) {
	c := NewManual(5)
	if got := c.Now(); got != 5 {
		t.Fatalf("Now() = %d, want 5", got)
	}
	if got := c.Advance(); got != 6 {
		t.Errorf("Advance() = %d, want 6", got)
	}
	c.Set(100)
	if got := c.Now(); got != 100 {
		t.Errorf("Now() after Set = %d, want 100", got)
	}
}
