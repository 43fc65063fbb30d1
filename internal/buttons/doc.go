// Package buttons implements the physical input engine of the irrigation box.
//
// The box front panel multiplexes its buttons through a shift register that
// the controller reads as a 16-bit bitmap. Each logical button owns one bit
// of that bitmap; one pseudo-button exists outside it, the virtual middle
// position of the group selector.
//
// # Event Model
//
// The Engine samples the input device at most once per debounce window
// (20 ms). Calls inside the window return no event and have no side effects.
// A poll emits at most one event: the first action button, in fixed
// declaration order, whose debounced state changed - or which repeat-fires
// because it is held and flagged for hold detection. Buttons flagged
// dual-edge emit on both press and release; all others emit only while
// pressed. Status-only buttons (the selector end switches and the encoder
// push switch) update the state read through Down and SelectorGroup but
// never emit.
//
// Callers drive the engine from the cooperative control loop, one Poll per
// tick; there is no queue to drain.
//
// # Flush
//
// Flush performs the same scan without emitting, folding whatever the panel
// currently reports into the last-known state. The controller calls it once
// at startup so a button held across a reboot does not replay as a press.
package buttons
