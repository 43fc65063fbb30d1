package buttons

import (
	"testing"
	"time"
)

// fakeDevice is a scripted InputDevice.
type fakeDevice struct {
	bitmap uint16
	reads  int
}

func (d *fakeDevice) ReadButtonBitmap() uint16 {
	d.reads++
	return d.bitmap
}

// newTestEngine returns an engine with a manual clock that advances one
// debounce window per call to step().
func newTestEngine(dev *fakeDevice) (*Engine, func()) {
	e := NewEngine(dev, NewPanel())
	now := time.Unix(0, 0)
	e.SetClock(func() time.Time { return now })
	step := func() { now = now.Add(DebounceWindow) }
	step() // first poll is always outside the window
	return e, step
}

func TestEngineDebounceWindow(t *testing.T) {
	dev := &fakeDevice{}
	e, step := newTestEngine(dev)

	dev.bitmap = uint16(Zone1)
	if ev := e.Poll(); ev == nil || ev.Button.ID != Zone1 {
		t.Fatalf("Poll() = %v, want Zone1 press", ev)
	}
	reads := dev.reads

	// Any number of polls inside the window are no-ops: no event, no sample.
	for i := 0; i < 5; i++ {
		if ev := e.Poll(); ev != nil {
			t.Errorf("Poll() inside debounce window = %v, want nil", ev)
		}
	}
	if dev.reads != reads {
		t.Errorf("device sampled %d times inside debounce window, want 0", dev.reads-reads)
	}

	step()
	if ev := e.Poll(); ev != nil {
		t.Errorf("Poll() with unchanged input = %v, want nil", ev)
	}
}

func TestEngineEventClassification(t *testing.T) {
	tests := []struct {
		name    string
		press   ID
		release bool // poll again after clearing the bitmap
		wantEv  bool // event expected on the release poll
	}{
		{name: "zone press emits", press: Zone3},
		{name: "zone release is silent", press: Zone3, release: true, wantEv: false},
		{name: "stop release emits (dual-edge)", press: Stop, release: true, wantEv: true},
		{name: "pause release emits (dual-edge)", press: Pause, release: true, wantEv: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := &fakeDevice{}
			e, step := newTestEngine(dev)
			e.Lookup(Pause).HoldDisabled = true

			dev.bitmap = uint16(tt.press)
			ev := e.Poll()
			if ev == nil || ev.Button.ID != tt.press || !ev.Pressed {
				t.Fatalf("press Poll() = %v, want %v pressed", ev, tt.press)
			}
			if !tt.release {
				return
			}

			step()
			dev.bitmap = 0
			ev = e.Poll()
			if tt.wantEv {
				if ev == nil || ev.Button.ID != tt.press || ev.Pressed {
					t.Fatalf("release Poll() = %v, want %v released", ev, tt.press)
				}
			} else if ev != nil {
				t.Fatalf("release Poll() = %v, want nil", ev)
			}
		})
	}
}

func TestEngineStatusButtonsNeverEmit(t *testing.T) {
	tests := []struct {
		name string
		id   ID
	}{
		{"selector up", Group1},
		{"selector down", Group3},
		{"encoder switch", EncoderSW},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := &fakeDevice{}
			e, step := newTestEngine(dev)

			dev.bitmap = uint16(tt.id)
			if ev := e.Poll(); ev != nil {
				t.Fatalf("press Poll() = %v, want nil", ev)
			}
			if !e.Down(tt.id) {
				t.Error("Down() = false after press poll, want true")
			}

			step()
			dev.bitmap = 0
			if ev := e.Poll(); ev != nil {
				t.Fatalf("release Poll() = %v, want nil", ev)
			}
			if e.Down(tt.id) {
				t.Error("Down() = true after release poll, want false")
			}
		})
	}
}

func TestEngineStatusChangeDoesNotConsumeEventSlot(t *testing.T) {
	dev := &fakeDevice{}
	e, _ := newTestEngine(dev)

	// Encoder switch and MULTI close in the same sample. The encoder switch
	// is earlier in scan order but status-only, so MULTI still emits.
	dev.bitmap = uint16(EncoderSW) | uint16(Multi)
	ev := e.Poll()
	if ev == nil || ev.Button.ID != Multi || !ev.Pressed {
		t.Fatalf("Poll() = %v, want Multi press", ev)
	}
	if !e.Down(EncoderSW) {
		t.Error("Down(EncoderSW) = false, want true")
	}
}

func TestEngineScanOrderPriority(t *testing.T) {
	dev := &fakeDevice{}
	e, _ := newTestEngine(dev)

	// Zone and STOP change in the same sample; the zone is declared first.
	dev.bitmap = uint16(Zone2) | uint16(Stop)
	ev := e.Poll()
	if ev == nil || ev.Button.ID != Zone2 {
		t.Fatalf("Poll() = %v, want Zone2 first in scan order", ev)
	}
}

func TestEngineHoldRepeatFire(t *testing.T) {
	dev := &fakeDevice{}
	e, step := newTestEngine(dev)

	dev.bitmap = uint16(Pause)
	for i := 0; i < 3; i++ {
		ev := e.Poll()
		if ev == nil || ev.Button.ID != Pause || !ev.Pressed {
			t.Fatalf("poll %d: Poll() = %v, want repeated Pause press", i, ev)
		}
		step()
	}

	// Disabling hold detection stops the repeat-fire but keeps edges.
	e.Lookup(Pause).HoldDisabled = true
	if ev := e.Poll(); ev != nil {
		t.Fatalf("Poll() with hold disabled = %v, want nil", ev)
	}
	step()
	dev.bitmap = 0
	if ev := e.Poll(); ev == nil || ev.Pressed {
		t.Fatalf("Poll() = %v, want Pause release edge", ev)
	}
}

func TestEngineFlush(t *testing.T) {
	dev := &fakeDevice{bitmap: uint16(Stop)}
	e, step := newTestEngine(dev)

	e.Flush()
	if !e.Down(Stop) {
		t.Error("Down(Stop) = false after Flush, want true")
	}

	// The held button must not replay as a press on the next poll.
	step()
	if ev := e.Poll(); ev != nil {
		t.Errorf("Poll() after Flush = %v, want nil", ev)
	}
}

func TestSelectorGroup(t *testing.T) {
	tests := []struct {
		name   string
		bitmap uint16
		want   ID
	}{
		{"selector up", uint16(Group1), Group1},
		{"selector down", uint16(Group3), Group3},
		{"selector middle (virtual)", 0, Group2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := &fakeDevice{bitmap: tt.bitmap}
			e, _ := newTestEngine(dev)
			e.Flush()
			if got := e.SelectorGroup(); got != tt.want {
				t.Errorf("SelectorGroup() = %#x, want %#x", got, tt.want)
			}
		})
	}
}
