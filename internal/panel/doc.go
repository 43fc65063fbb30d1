// Package panel is a terminal front panel for the irrigation box, used by
// the simulate command during development. It renders the 4-digit display,
// the LED field and the selector with lipgloss, and maps keyboard input
// onto the same hardware contracts the real box uses: the button bitmap,
// the LED driver, the display, the sounder and the rotary encoder.
//
// The Hardware value is shared between the bubbletea program and the
// control loop goroutine and is safe for that concurrent use; everything
// else in the package runs inside the bubbletea event loop.
package panel
