// Package events publishes controller telemetry to an MQTT broker.
//
// It adapts the controller's Observer callbacks onto three topics:
// riego/state for transitions, riego/session for zone activations and
// completions, and riego/fault for faults and verification mismatches.
// Publishing is fire-and-forget so the control loop never blocks on the
// broker; with no broker configured the publisher is a silent no-op.
package events
