package controller

// State is the top-level controller state.
type State int

const (
	Standby State = iota
	Watering
	Finishing
	Pause
	Stop
	Configuring
	Error
)

func (s State) String() string {
	switch s {
	case Standby:
		return "STANDBY"
	case Watering:
		return "WATERING"
	case Finishing:
		return "FINISHING"
	case Pause:
		return "PAUSE"
	case Stop:
		return "STOP"
	case Configuring:
		return "CONFIGURING"
	case Error:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Fault is the fault phase carried by the ERROR state. It is FaultNone in
// every other state.
type Fault int

const (
	FaultNone Fault = iota - 1

	// FaultConfig is a data-integrity fault: group or zone resolution
	// failed against persisted configuration. Always fatal.
	FaultConfig

	// FaultNetwork is a boot-time connectivity fault: the endpoint was
	// unreachable while online.
	FaultNetwork

	// FaultEndpoint is a runtime connectivity fault during verification or
	// a factor lookup. Fatal only under strict verification while online.
	FaultEndpoint

	// FaultProtocol is a malformed or error-flagged endpoint response.
	FaultProtocol

	// FaultCommandOn and FaultCommandOff are exhausted command retries,
	// tagged by direction. Fatal.
	FaultCommandOn
	FaultCommandOff

	// FaultDivergence is an actuator reporting a state inconsistent with
	// local intent after the session's grace period was consumed. Fatal.
	FaultDivergence
)

// Code returns the 4-character display code of the fault phase.
func (f Fault) Code() string {
	if f < FaultConfig || f > FaultDivergence {
		return "----"
	}
	return [...]string{"Err0", "Err1", "Err2", "Err3", "Err4", "Err5", "Err6"}[f]
}

func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "none"
	case FaultConfig:
		return "config"
	case FaultNetwork:
		return "network"
	case FaultEndpoint:
		return "endpoint"
	case FaultProtocol:
		return "protocol"
	case FaultCommandOn:
		return "command-on"
	case FaultCommandOff:
		return "command-off"
	case FaultDivergence:
		return "divergence"
	}
	return "unknown"
}
