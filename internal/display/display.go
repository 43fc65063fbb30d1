package display

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/logging"
)

// Fixed 4-character display codes.
const (
	CodeDashes        = "----" // busy / neutral
	CodeStop          = "StoP"
	CodeConfig        = "ConF"
	CodePush          = "PUSH" // waiting for zone presses during group edit
	CodeZeroTime      = "-00-" // zero-duration short-circuit
	CodeSaved         = "SAUE" // config persisted
	CodeDefaultSaved  = "-dEF" // live config cloned as default
	CodeDefaultLoaded = "dEF-" // default restored over live config
	CodePortal        = "otA " // update/provisioning service active
)

// Display is the 4-digit, 7-segment display of the box.
type Display interface {
	// ShowText displays a fixed 4-character code.
	ShowText(code string)
	// ShowTime displays a minutes:seconds pair.
	ShowTime(minutes, seconds int)
	// ShowValue displays a bare number (factor preview, binding edits).
	ShowValue(v int)
	// Blink re-displays the current content n times.
	Blink(n int)
	// Clear blanks the display.
	Clear()
	// Refresh repaints the last content after a Clear.
	Refresh()
}

// Sounder is the buzzer of the box.
type Sounder interface {
	// Beep emits n short beeps.
	Beep(n int)
	// LongBeep emits n long beeps (alert pattern).
	LongBeep(n int)
	// BeepOK emits the acknowledge pattern followed by n short beeps.
	BeepOK(n int)
	// BeepEnd emits the sequence-finished pattern.
	BeepEnd(n int)
}

// Log is a Display that writes display traffic to the structured log.
type Log struct {
	last string
}

// NewLog returns a log-backed display.
func NewLog() *Log { return &Log{} }

func (d *Log) ShowText(code string) {
	d.last = code
	logging.Info("Display", zap.String("text", code))
}

func (d *Log) ShowTime(minutes, seconds int) {
	d.last = fmt.Sprintf("%02d:%02d", minutes, seconds)
	logging.Debug("Display", zap.String("time", d.last))
}

func (d *Log) ShowValue(v int) {
	d.last = fmt.Sprintf("%d", v)
	logging.Debug("Display", zap.Int("value", v))
}

func (d *Log) Blink(n int) {
	logging.Debug("Display blink", zap.Int("times", n), zap.String("content", d.last))
}

func (d *Log) Clear() {
	logging.Debug("Display cleared")
}

func (d *Log) Refresh() {
	logging.Debug("Display refreshed", zap.String("content", d.last))
}

// LogSounder logs beep patterns instead of driving a buzzer.
type LogSounder struct{}

func (LogSounder) Beep(n int)     { logging.Debug("Beep", zap.Int("times", n)) }
func (LogSounder) LongBeep(n int) { logging.Debug("Long beep", zap.Int("times", n)) }
func (LogSounder) BeepOK(n int)   { logging.Debug("Beep OK", zap.Int("times", n)) }
func (LogSounder) BeepEnd(n int)  { logging.Debug("Beep end", zap.Int("times", n)) }

// Nop discards all display traffic. Tests use it.
type Nop struct{}

func (Nop) ShowText(string)   {}
func (Nop) ShowTime(int, int) {}
func (Nop) ShowValue(int)     {}
func (Nop) Blink(int)         {}
func (Nop) Clear()            {}
func (Nop) Refresh()          {}

// NopSounder discards all beeps.
type NopSounder struct{}

func (NopSounder) Beep(int)     {}
func (NopSounder) LongBeep(int) {}
func (NopSounder) BeepOK(int)   {}
func (NopSounder) BeepEnd(int)  {}
