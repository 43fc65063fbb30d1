package buttons

import (
	"time"

	"go.uber.org/zap"

	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/logging"
)

// DebounceWindow is the minimum interval between two input samples.
const DebounceWindow = 20 * time.Millisecond

// InputDevice is the hardware the engine samples. The shift-register driver
// implements it on the box; the terminal front panel implements it in the
// simulator.
type InputDevice interface {
	// ReadButtonBitmap returns the current switch bitmap, one bit per
	// physical button, 1 = closed.
	ReadButtonBitmap() uint16
}

// Event is one debounced input transition (or hold repeat-fire).
type Event struct {
	Button  *Button
	Pressed bool
}

// Engine debounces and classifies panel input. It is not safe for
// concurrent use; the control loop is its only caller.
type Engine struct {
	dev     InputDevice
	buttons []*Button
	byID    map[ID]*Button

	lastPoll time.Time
	now      func() time.Time
}

// NewEngine builds an engine over the given button set in scan order.
func NewEngine(dev InputDevice, panel []*Button) *Engine {
	byID := make(map[ID]*Button, len(panel))
	for _, b := range panel {
		byID[b.ID] = b
	}
	return &Engine{
		dev:     dev,
		buttons: panel,
		byID:    byID,
		now:     time.Now,
	}
}

// SetClock overrides the engine's time source. Tests use it to step through
// debounce windows deterministically.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// Buttons returns the button set in scan order.
func (e *Engine) Buttons() []*Button { return e.buttons }

// Lookup returns the button with the given identity.
func (e *Engine) Lookup(id ID) *Button { return e.byID[id] }

// Poll samples the panel and returns the first qualifying event, or nil.
// Called within the debounce window it returns nil without sampling.
func (e *Engine) Poll() *Event {
	return e.scan(true)
}

// Flush performs a scan that updates last-known state but never emits.
// Used at startup so stale physical state is absorbed without reacting.
func (e *Engine) Flush() {
	e.scan(false)
}

func (e *Engine) scan(emit bool) *Event {
	now := e.now()
	if now.Sub(e.lastPoll) < DebounceWindow {
		return nil
	}
	e.lastPoll = now

	bitmap := e.dev.ReadButtonBitmap()
	for _, b := range e.buttons {
		if !b.Caps.Enabled {
			continue
		}
		pressed := b.ID.In(bitmap)
		b.pressed = pressed
		if pressed == b.lastPressed && !(pressed && b.Caps.HoldDetect && !b.HoldDisabled) {
			continue
		}
		b.lastPressed = pressed
		// Status-only buttons feed Down and SelectorGroup; they never
		// reach the dispatcher and never consume the event slot.
		if !b.Caps.Action {
			continue
		}
		if !pressed && !b.Caps.DualEdge {
			continue
		}
		if !emit {
			logging.Debug("Flushed stale input",
				zap.String("button", b.Name),
				zap.Bool("pressed", pressed),
			)
			continue
		}
		return &Event{Button: b, Pressed: pressed}
	}
	return nil
}

// Down reports the debounced state of a button as of the last scan.
// The group selector and boot-time checks read this, not the hardware.
func (e *Engine) Down(id ID) bool {
	b := e.byID[id]
	return b != nil && b.pressed
}

// Sample reads the hardware bitmap immediately, bypassing debounce, and
// reports whether the button is closed. The encoder switch is read this way
// every tick because it modifies other buttons rather than acting itself.
func (e *Engine) Sample(id ID) bool {
	return id.In(e.dev.ReadButtonBitmap())
}

// SelectorGroup resolves the 3-way group selector to a selector position
// identity. The middle position is virtual: it is reported when neither end
// switch is closed.
func (e *Engine) SelectorGroup() ID {
	if e.Down(Group1) {
		return Group1
	}
	if e.Down(Group3) {
		return Group3
	}
	return Group2
}
