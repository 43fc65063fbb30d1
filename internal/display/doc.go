// Package display defines the 4-digit display and sounder contracts of the
// irrigation box and provides log-backed implementations for headless runs.
//
// The controller core only writes to the display; it never reads from it.
// The real 7-segment driver and the terminal front panel both satisfy
// Display; the daemon without a panel uses the zap-backed implementation so
// display traffic is still observable.
//
// Display codes are fixed 4-character strings inherited from the box
// firmware ("StoP", "ConF", "Err2", ...). They are part of the operator
// interface and must not be localized or reworded.
package display
