// Package controller implements the control core of the irrigation box: a
// cooperative, tick-driven state machine over the states STANDBY, WATERING,
// FINISHING, PAUSE, STOP, CONFIGURING and ERROR.
//
// One Controller value owns every piece of mutable runtime state (active
// session, group view, configuration sub-machine, blink schedule) and is
// driven from a single goroutine. Each Tick runs one pass of poll input,
// dispatch by state, periodic maintenance. Nothing in this package spawns
// goroutines; blocking actuator calls stall the loop for their bounded
// duration, which is accepted for this environment.
//
// Group watering runs each member zone as its own sub-session, scaled by
// the zone's remote duration factor. The advance from one zone to the next
// travels through a single-tick signal consumed in STANDBY, so every zone
// boundary is observable as a full FINISHING -> STANDBY -> WATERING pass.
//
// Divergence handling: each zone activation arms one grace period. The
// first verification mismatch pauses the session to let external
// interference settle; a successful verification while paused resumes it.
// A second mismatch before any successful match in WATERING is fatal.
package controller
