package panel

import (
	"testing"
	"time"

	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/buttons"
)

func newTestHardware() (*Hardware, *time.Time) {
	h := NewHardware()
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }
	return h, &now
}

func TestPressExpiresAfterPressDuration(t *testing.T) {
	h, now := newTestHardware()

	h.Press(buttons.Zone3)
	if got := h.ReadButtonBitmap(); got != uint16(buttons.Zone3) {
		t.Fatalf("bitmap = %#04x, want zone 3 pressed", got)
	}

	// Still down within the press window.
	*now = now.Add(PressDuration / 2)
	if got := h.ReadButtonBitmap(); got != uint16(buttons.Zone3) {
		t.Errorf("bitmap = %#04x, want press to span several polls", got)
	}

	*now = now.Add(PressDuration)
	if got := h.ReadButtonBitmap(); got != 0 {
		t.Errorf("bitmap = %#04x, want expired press released", got)
	}
}

func TestToggleLatches(t *testing.T) {
	h, now := newTestHardware()

	h.Toggle(buttons.Stop)
	*now = now.Add(time.Hour)
	if got := h.ReadButtonBitmap(); got != uint16(buttons.Stop) {
		t.Fatalf("bitmap = %#04x, want latched stop to survive", got)
	}
	h.Toggle(buttons.Stop)
	if got := h.ReadButtonBitmap(); got != 0 {
		t.Errorf("bitmap = %#04x, want stop released after second toggle", got)
	}
}

func TestBitmapCombinesLatchedAndMomentary(t *testing.T) {
	h, _ := newTestHardware()

	h.Toggle(buttons.EncoderSW)
	h.Press(buttons.Pause)
	want := uint16(buttons.EncoderSW) | uint16(buttons.Pause)
	if got := h.ReadButtonBitmap(); got != want {
		t.Errorf("bitmap = %#04x, want %#04x", got, want)
	}
}

func TestSetSelectorIsExclusive(t *testing.T) {
	h, _ := newTestHardware()

	h.SetSelector(buttons.Group1)
	if h.Selector() != buttons.Group1 {
		t.Fatalf("selector = %v, want Group1", h.Selector())
	}
	h.SetSelector(buttons.Group3)
	if h.Selector() != buttons.Group3 {
		t.Fatalf("selector = %v, want Group3", h.Selector())
	}
	if got := h.ReadButtonBitmap() & uint16(buttons.Group1); got != 0 {
		t.Error("Group1 end switch still closed after moving to Group3")
	}

	// The middle position opens both end switches.
	h.SetSelector(buttons.Group2)
	if h.Selector() != buttons.Group2 {
		t.Errorf("selector = %v, want Group2", h.Selector())
	}
	if got := h.ReadButtonBitmap(); got != 0 {
		t.Errorf("bitmap = %#04x, want both end switches open in middle position", got)
	}
}

func TestEncoderDeltaDrains(t *testing.T) {
	h, _ := newTestHardware()

	h.Turn(2)
	h.Turn(-1)
	if got := h.Delta(); got != 1 {
		t.Fatalf("Delta() = %d, want accumulated 1", got)
	}
	if got := h.Delta(); got != 0 {
		t.Errorf("Delta() = %d, want drained to 0", got)
	}
}

func TestDisplayClearAndRefresh(t *testing.T) {
	h, _ := newTestHardware()

	h.ShowTime(12, 30)
	if h.Text() != "12:30" {
		t.Fatalf("Text() = %q, want 12:30", h.Text())
	}
	h.Clear()
	if h.Text() != "" {
		t.Fatalf("Text() = %q, want blank after Clear", h.Text())
	}
	h.Refresh()
	if h.Text() != "12:30" {
		t.Errorf("Text() = %q, want last content restored by Refresh", h.Text())
	}
}
