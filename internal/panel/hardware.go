package panel

import (
	"fmt"
	"sync"
	"time"

	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/buttons"
)

// PressDuration is how long a simulated momentary press stays closed. It
// spans several control-loop polls so press and release are both observed.
const PressDuration = 150 * time.Millisecond

// Hardware emulates the box's I/O in memory. It implements
// buttons.InputDevice, buttons.LEDDriver, display.Display, display.Sounder
// and controller.Encoder. All methods are safe for concurrent use: the
// control loop samples while the terminal program writes.
type Hardware struct {
	mu        sync.Mutex
	latched   uint16
	momentary map[buttons.ID]time.Time
	leds      map[int]bool
	dim       bool
	text      string
	lastText  string
	beep      string
	delta     int
	now       func() time.Time
}

// NewHardware returns an idle panel with everything released.
func NewHardware() *Hardware {
	return &Hardware{
		momentary: make(map[buttons.ID]time.Time),
		leds:      make(map[int]bool),
		now:       time.Now,
	}
}

// Press closes a momentary button for PressDuration.
func (h *Hardware) Press(id buttons.ID) {
	h.mu.Lock()
	h.momentary[id] = h.now().Add(PressDuration)
	h.mu.Unlock()
}

// Toggle flips a latching switch (STOP, selector ends, encoder push).
func (h *Hardware) Toggle(id buttons.ID) {
	h.mu.Lock()
	h.latched ^= uint16(id)
	h.mu.Unlock()
}

// Latched reports whether a latching switch is currently closed.
func (h *Hardware) Latched(id buttons.ID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latched&uint16(id) != 0
}

// SetSelector closes exactly one selector end switch; buttons.Group2
// releases both (the virtual middle position).
func (h *Hardware) SetSelector(id buttons.ID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latched &^= uint16(buttons.Group1) | uint16(buttons.Group3)
	if id == buttons.Group1 || id == buttons.Group3 {
		h.latched |= uint16(id)
	}
}

// Selector returns the current selector position identity.
func (h *Hardware) Selector() buttons.ID {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch {
	case h.latched&uint16(buttons.Group1) != 0:
		return buttons.Group1
	case h.latched&uint16(buttons.Group3) != 0:
		return buttons.Group3
	}
	return buttons.Group2
}

// ReadButtonBitmap implements buttons.InputDevice. Expired momentary
// presses are dropped as a side effect.
func (h *Hardware) ReadButtonBitmap() uint16 {
	h.mu.Lock()
	defer h.mu.Unlock()
	bitmap := h.latched
	now := h.now()
	for id, until := range h.momentary {
		if now.After(until) {
			delete(h.momentary, id)
			continue
		}
		bitmap |= uint16(id)
	}
	return bitmap
}

// SetLED implements buttons.LEDDriver.
func (h *Hardware) SetLED(id int, on bool) {
	h.mu.Lock()
	h.leds[id] = on
	h.mu.Unlock()
}

// SetDim implements buttons.LEDDriver.
func (h *Hardware) SetDim(dim bool) {
	h.mu.Lock()
	h.dim = dim
	h.mu.Unlock()
}

// LED reports the state of one LED.
func (h *Hardware) LED(id int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.leds[id]
}

// Dimmed reports whether the panel is dimmed.
func (h *Hardware) Dimmed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dim
}

// ShowText implements display.Display.
func (h *Hardware) ShowText(code string) { h.setText(code) }

// ShowTime implements display.Display.
func (h *Hardware) ShowTime(minutes, seconds int) {
	h.setText(fmt.Sprintf("%02d:%02d", minutes, seconds))
}

// ShowValue implements display.Display.
func (h *Hardware) ShowValue(v int) { h.setText(fmt.Sprintf("%4d", v)) }

// Blink implements display.Display; the terminal renders steadily.
func (h *Hardware) Blink(int) {}

// Clear implements display.Display.
func (h *Hardware) Clear() {
	h.mu.Lock()
	h.lastText = h.text
	h.text = ""
	h.mu.Unlock()
}

// Refresh implements display.Display.
func (h *Hardware) Refresh() {
	h.mu.Lock()
	if h.text == "" {
		h.text = h.lastText
	}
	h.mu.Unlock()
}

func (h *Hardware) setText(s string) {
	h.mu.Lock()
	h.text = s
	h.mu.Unlock()
}

// Text returns the current display content.
func (h *Hardware) Text() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.text
}

// Beep implements display.Sounder.
func (h *Hardware) Beep(n int) { h.setBeep(fmt.Sprintf("beep x%d", n)) }

// LongBeep implements display.Sounder.
func (h *Hardware) LongBeep(n int) { h.setBeep(fmt.Sprintf("LONG BEEP x%d", n)) }

// BeepOK implements display.Sounder.
func (h *Hardware) BeepOK(n int) { h.setBeep(fmt.Sprintf("beep-ok x%d", n)) }

// BeepEnd implements display.Sounder.
func (h *Hardware) BeepEnd(n int) { h.setBeep(fmt.Sprintf("beep-end x%d", n)) }

func (h *Hardware) setBeep(s string) {
	h.mu.Lock()
	h.beep = s
	h.mu.Unlock()
}

// LastBeep returns the most recent sounder pattern.
func (h *Hardware) LastBeep() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.beep
}

// Turn accumulates encoder detents from the terminal.
func (h *Hardware) Turn(detents int) {
	h.mu.Lock()
	h.delta += detents
	h.mu.Unlock()
}

// Delta implements controller.Encoder: it drains the accumulated detents.
func (h *Hardware) Delta() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	d := h.delta
	h.delta = 0
	return d
}
