// Package logging provides structured logging for the irrigation controller.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the controller. It provides both general logging
// functions and specialized functions for control-loop logging needs.
//
// # Log Levels
//
//   - Debug: Detailed debugging info (button events, encoder deltas, per-tick traces)
//   - Info: Normal operations (state transitions, session starts, actuator commands)
//   - Warn: Non-fatal issues (retries, degraded factor lookups, offline fallbacks)
//   - Error: Faults (actuator command failures, divergence, config errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Session started",
//	    zap.String("zone", "ZONA3"),
//	    zap.Int("actuator_idx", 112),
//	    zap.Duration("duration", 10*time.Minute),
//	)
//
// # Specialized Logging
//
// The package provides domain-specific logging functions:
//
//	logging.LogStateChange(from, to)
//	logging.LogActuatorCommand(idx, "On", attempt, err)
//	logging.LogFault(code, "actuator reports Off while watering")
//
// # Configuration
//
// Initialize logging at daemon startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//
// When no level is given and RIEGO_LOG_LEVEL is unset, the logger is a nop;
// the simulator front panel relies on this so log output never corrupts the
// terminal UI.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap
// logger handles synchronization automatically.
package logging
