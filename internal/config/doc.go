// Package config provides persisted configuration for the irrigation box.
//
// This package manages a YAML-based configuration file that stores the
// operator-editable parameters of the controller: the default watering
// duration, per-zone actuator bindings, multi-watering group membership and
// the addresses of the external collaborators (actuator endpoint, MQTT
// broker, NTP server).
//
// # Files
//
// Two files live in the configuration directory:
//   - config.yaml: the live parameters, written on every committed edit
//   - default.yaml: the factory/operator baseline, cloned from the live
//     file on request and restored over it at boot when the operator holds
//     the restore combination
//
// The configuration directory follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/riego or $HOME/.config/riego
//   - macOS: $HOME/.config/riego
//   - Windows: %LOCALAPPDATA%\riego
//
// # Boot Behavior
//
// A missing or unreadable live file is non-fatal at boot: the store falls
// back to the default file, then to a zeroed configuration (every group
// containing just its own zone, no actuator bindings). Save failures are
// fatal to the edit that requested them and are always reported to the
// caller, never dropped.
//
// # Usage Example
//
//	store := config.NewStore(dir)
//	cfg := store.Boot()
//
//	cfg.Duration.Minutes = 12
//	if err := store.Save(cfg); err != nil {
//	    // surface to the operator; the edit is not persisted
//	}
//
// # Thread Safety
//
// The store serializes file operations with a mutex. Config values handed
// out are owned by the single-threaded control loop and are not shared.
package config
