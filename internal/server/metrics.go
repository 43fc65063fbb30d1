package server

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/controller"
)

// Metrics exposes controller telemetry as Prometheus collectors. It
// implements controller.Observer.
type Metrics struct {
	registry *prometheus.Registry

	state        *prometheus.GaugeVec
	transitions  *prometheus.CounterVec
	sessions     *prometheus.CounterVec
	faults       *prometheus.CounterVec
	mismatches   prometheus.Counter
	sequenceEnds prometheus.Counter
}

// NewMetrics registers the collectors on the given registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "riego",
			Name:      "controller_state",
			Help:      "Current controller state (1 for the active state).",
		}, []string{"state"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "riego",
			Name:      "state_transitions_total",
			Help:      "Controller state transitions.",
		}, []string{"to"}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "riego",
			Name:      "sessions_started_total",
			Help:      "Watering sessions started, per zone.",
		}, []string{"zone"}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "riego",
			Name:      "faults_total",
			Help:      "Faults raised, per kind.",
		}, []string{"kind"}),
		mismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "riego",
			Name:      "verification_mismatches_total",
			Help:      "Actuator state divergences detected by verification.",
		}),
		sequenceEnds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "riego",
			Name:      "sequence_ends_total",
			Help:      "Completed watering sequences.",
		}),
	}
	reg.MustRegister(m.state, m.transitions, m.sessions, m.faults, m.mismatches, m.sequenceEnds)
	return m
}

// StateChanged implements controller.Observer.
func (m *Metrics) StateChanged(from, to controller.State, _ controller.Fault) {
	m.state.WithLabelValues(from.String()).Set(0)
	m.state.WithLabelValues(to.String()).Set(1)
	m.transitions.WithLabelValues(to.String()).Inc()
}

// SessionStarted implements controller.Observer.
func (m *Metrics) SessionStarted(zone, _, _ int) {
	m.sessions.WithLabelValues(zoneLabel(zone)).Inc()
}

// SessionFinished implements controller.Observer.
func (m *Metrics) SessionFinished(_ int, sequenceEnd bool) {
	if sequenceEnd {
		m.sequenceEnds.Inc()
	}
}

// FaultRaised implements controller.Observer.
func (m *Metrics) FaultRaised(fault controller.Fault, _ string) {
	m.faults.WithLabelValues(fault.String()).Inc()
}

// VerificationMismatch implements controller.Observer.
func (m *Metrics) VerificationMismatch(_ int) {
	m.mismatches.Inc()
}

func zoneLabel(zone int) string {
	return strconv.Itoa(zone)
}
