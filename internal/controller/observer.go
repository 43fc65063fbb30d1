package controller

import (
	"fmt"
	"time"
)

// Observer receives controller telemetry. The MQTT publisher, the status
// server's websocket hub, and the metrics collector all implement it.
// Callbacks run synchronously on the control loop and must not block.
type Observer interface {
	// StateChanged fires on every top-level transition.
	StateChanged(from, to State, fault Fault)
	// SessionStarted fires at each zone activation. seq/total are the
	// 1-based sequence position and group size, both 1 for single-zone
	// sessions.
	SessionStarted(zone, seq, total int)
	// SessionFinished fires when a zone's watering ends. sequenceEnd marks
	// the end of a whole group sequence (or any single-zone session).
	SessionFinished(zone int, sequenceEnd bool)
	// FaultRaised fires for every fault, fatal or degraded.
	FaultRaised(fault Fault, detail string)
	// VerificationMismatch fires when the actuator's reported state
	// diverged from local intent.
	VerificationMismatch(zone int)
}

// NopObserver discards all telemetry.
type NopObserver struct{}

func (NopObserver) StateChanged(State, State, Fault) {}
func (NopObserver) SessionStarted(int, int, int)     {}
func (NopObserver) SessionFinished(int, bool)        {}
func (NopObserver) FaultRaised(Fault, string)        {}
func (NopObserver) VerificationMismatch(int)         {}

// MultiObserver fans telemetry out to several observers.
type MultiObserver []Observer

func (m MultiObserver) StateChanged(from, to State, fault Fault) {
	for _, o := range m {
		o.StateChanged(from, to, fault)
	}
}

func (m MultiObserver) SessionStarted(zone, seq, total int) {
	for _, o := range m {
		o.SessionStarted(zone, seq, total)
	}
}

func (m MultiObserver) SessionFinished(zone int, sequenceEnd bool) {
	for _, o := range m {
		o.SessionFinished(zone, sequenceEnd)
	}
}

func (m MultiObserver) FaultRaised(fault Fault, detail string) {
	for _, o := range m {
		o.FaultRaised(fault, detail)
	}
}

func (m MultiObserver) VerificationMismatch(zone int) {
	for _, o := range m {
		o.VerificationMismatch(zone)
	}
}

// Snapshot is a point-in-time copy of the controller's observable state,
// served by the status API.
type Snapshot struct {
	State       string         `json:"state"`
	Fault       string         `json:"fault,omitempty"`
	FaultCode   string         `json:"fault_code,omitempty"`
	Offline     bool           `json:"offline"`
	Strict      bool           `json:"strict_verification"`
	Duration    string         `json:"duration"`
	Zone        int            `json:"zone,omitempty"`
	ZoneName    string         `json:"zone_name,omitempty"`
	Remaining   string         `json:"remaining,omitempty"`
	SeqIndex    int            `json:"sequence_index,omitempty"`
	SeqTotal    int            `json:"sequence_total,omitempty"`
	GroupName   string         `json:"group_name,omitempty"`
	LastWatered map[int]string `json:"last_watered,omitempty"`
}

func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
