// Package actuator keeps the remote valve actuators in sync with local
// intent.
//
// The external service is an HTTP endpoint keyed by numeric actuator
// references (idx). Three operations exist:
//
//   - Switch: command an actuator on or off, with bounded retries
//   - Verify: compare the actuator's reported state against expectation
//   - DurationFactor: read the percentage factor attached to an actuator,
//     used to scale per-zone durations in group watering
//
// Responses are JSON bodies carrying result[0].Status (state queries) or
// result[0].Description (factor queries). Malformed or error-flagged bodies
// are failures.
//
// # Offline Mode
//
// In offline mode every remote call is skipped and reported successful.
// The controller toggles this at runtime; it is also forced when the
// operator acknowledges a fatal fault with PAUSE.
//
// # Failure Classification
//
// Callers classify failures through the exported sentinel and typed errors:
//
//   - ErrUnreachable: transport-level failure (connection, timeout, breaker
//     open)
//   - ErrProtocol: endpoint answered but the body was malformed, missing
//     the expected field, or flagged an error
//   - ErrFactorUnavailable: whole endpoint unreachable during a factor
//     lookup; fatal only under strict verification while online
//   - CommandError: a Switch exhausted its retries; carries the direction
//
// Commands are level-triggered: re-issuing a state the actuator already has
// is safe. Only the decision to call is edge-triggered, in the controller.
//
// # Simulated Faults
//
// SimFlags force deterministic failures on specific paths (command on/off,
// verify on/off, pause resume). They exist for the failure-path tests and
// the development panel; all flags clear on session teardown.
package actuator
