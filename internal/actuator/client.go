package actuator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/logging"
)

// Retry and verification constants of the sync layer.
const (
	SwitchRetries  = 5                // attempts per Switch command
	RetryDelay     = 2 * time.Second  // fixed delay between attempts
	VerifyInterval = 15 * time.Second // periodic verification cadence
	RequestTimeout = 5 * time.Second

	// NeutralFactor is the per-zone duration factor used when a lookup
	// degrades (100 = unscaled).
	NeutralFactor = 100
)

// Sentinel errors; see the package documentation for the classification.
var (
	ErrUnreachable       = errors.New("actuator endpoint unreachable")
	ErrProtocol          = errors.New("actuator endpoint returned a malformed or error response")
	ErrFactorUnavailable = errors.New("duration factor unavailable: endpoint unreachable")
)

// CommandError reports a Switch that exhausted its retries.
type CommandError struct {
	Idx int
	On  bool
	Err error
}

func (e *CommandError) Error() string {
	dir := "off"
	if e.On {
		dir = "on"
	}
	return fmt.Sprintf("switch %s failed for actuator %d: %v", dir, e.Idx, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// SimFlags force deterministic sync failures for testing.
type SimFlags struct {
	FailOn            bool `json:"fail_on"`             // Switch(on) always fails
	FailOff           bool `json:"fail_off"`            // Switch(off) always fails
	VerifyOnMismatch  bool `json:"verify_on_mismatch"`  // Verify(expect on) reports divergence
	VerifyOffMismatch bool `json:"verify_off_mismatch"` // Verify(expect off) reports divergence
	PauseResumeError  bool `json:"pause_resume_error"`  // resuming from PAUSE fails (consumed by the controller)
}

// Clear resets every flag.
func (f *SimFlags) Clear() { *f = SimFlags{} }

// Client talks to the actuator/sensor endpoint.
//
// It is driven from the single-threaded control loop; the offline flag and
// sim flags are owned by that loop and need no locking.
type Client struct {
	base    string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	offline bool
	sim     SimFlags

	retries    int
	retryDelay time.Duration
}

// New returns a client for the given base URL ("http://host:port").
// An empty base URL yields a client that is permanently offline.
func New(base string) *Client {
	c := &Client{
		base:       base,
		http:       &http.Client{Timeout: RequestTimeout},
		offline:    base == "",
		retries:    SwitchRetries,
		retryDelay: RetryDelay,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "actuator-endpoint",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn("Endpoint breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return c
}

// SetOffline switches offline mode on or off.
func (c *Client) SetOffline(offline bool) { c.offline = offline }

// Offline reports whether remote calls are being skipped.
func (c *Client) Offline() bool { return c.offline }

// Sim exposes the simulated-fault flags for the development surfaces.
func (c *Client) Sim() *SimFlags { return &c.sim }

// SetRetryPolicy overrides the command retry policy. Tests shrink it.
func (c *Client) SetRetryPolicy(retries int, delay time.Duration) {
	c.retries = retries
	c.retryDelay = delay
}

// endpointResponse is the JSON contract of the remote service.
type endpointResponse struct {
	Status string `json:"status"`
	Result []struct {
		Status      string `json:"Status"`
		Description string `json:"Description"`
		Name        string `json:"Name"`
	} `json:"result"`
}

// get performs one HTTP round trip through the circuit breaker.
func (c *Client) get(ctx context.Context, path string) (*endpointResponse, error) {
	body, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %s", resp.Status)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	var parsed endpointResponse
	if err := json.Unmarshal(body.([]byte), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	if parsed.Status == "ERR" {
		return nil, fmt.Errorf("%w: endpoint flagged the request as error", ErrProtocol)
	}
	return &parsed, nil
}

// Ping checks basic endpoint reachability. Used once at boot.
func (c *Client) Ping(ctx context.Context) error {
	if c.offline {
		return nil
	}
	_, err := c.get(ctx, "/json.htm?type=command&param=getversion")
	if err != nil && !errors.Is(err, ErrProtocol) {
		return err
	}
	return nil
}

// Switch commands the actuator on or off. A zone with no bound actuator
// (idx 0) is a no-op success, as is any command in offline mode. Failures
// are retried with a fixed delay; exhausting the retries yields a
// CommandError tagged with the direction.
func (c *Client) Switch(ctx context.Context, idx int, on bool) error {
	if idx == 0 || c.offline {
		return nil
	}
	cmd := "Off"
	if on {
		cmd = "On"
	}
	path := fmt.Sprintf("/json.htm?type=command&param=switchlight&idx=%d&switchcmd=%s", idx, cmd)

	attempt := 0
	op := func() error {
		attempt++
		if (on && c.sim.FailOn) || (!on && c.sim.FailOff) {
			err := fmt.Errorf("%w: simulated command failure", ErrProtocol)
			logging.LogActuatorCommand(idx, cmd, attempt, err)
			return err
		}
		_, err := c.get(ctx, path)
		logging.LogActuatorCommand(idx, cmd, attempt, err)
		return err
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), uint64(c.retries-1)),
		ctx,
	)
	if err := backoff.Retry(op, bo); err != nil {
		return &CommandError{Idx: idx, On: on, Err: err}
	}
	return nil
}

// Verify polls the actuator's reported state and compares it to the local
// expectation. It returns (true, nil) when consistent, (false, nil) on a
// divergence, and an error when the query itself failed. Offline mode is
// always consistent.
func (c *Client) Verify(ctx context.Context, idx int, expectOn bool) (bool, error) {
	if idx == 0 || c.offline {
		return true, nil
	}
	if (expectOn && c.sim.VerifyOnMismatch) || (!expectOn && c.sim.VerifyOffMismatch) {
		return false, nil
	}

	on, err := c.status(ctx, idx)
	if err != nil {
		return false, err
	}
	if on != expectOn {
		logging.Warn("Actuator state diverged",
			zap.Int("idx", idx),
			zap.Bool("expected_on", expectOn),
			zap.Bool("reported_on", on),
		)
		return false, nil
	}
	return true, nil
}

func (c *Client) status(ctx context.Context, idx int) (bool, error) {
	resp, err := c.get(ctx, fmt.Sprintf("/json.htm?type=devices&rid=%d", idx))
	if err != nil {
		return false, err
	}
	if len(resp.Result) == 0 || resp.Result[0].Status == "" {
		return false, fmt.Errorf("%w: status field missing for idx %d", ErrProtocol, idx)
	}
	return resp.Result[0].Status == "On", nil
}

// DurationFactor reads the percentage factor attached to an actuator.
// It returns the factor and the actuator's remote display name.
//
// Policy: an unbound actuator scales to zero; a reachable endpoint with a
// missing or non-numeric factor degrades to the neutral factor; an
// unreachable endpoint yields ErrFactorUnavailable and leaves the caller
// to decide fatality based on offline mode and verification strictness.
func (c *Client) DurationFactor(ctx context.Context, idx int) (int, string, error) {
	if idx == 0 {
		return 0, "", nil
	}
	if c.offline {
		return NeutralFactor, "", nil
	}

	resp, err := c.get(ctx, fmt.Sprintf("/json.htm?type=devices&rid=%d", idx))
	if err != nil {
		if errors.Is(err, ErrProtocol) {
			return NeutralFactor, "", err
		}
		return NeutralFactor, "", fmt.Errorf("%w: %v", ErrFactorUnavailable, err)
	}
	if len(resp.Result) == 0 {
		return NeutralFactor, "", fmt.Errorf("%w: empty result for idx %d", ErrProtocol, idx)
	}

	name := resp.Result[0].Name
	desc := resp.Result[0].Description
	var factor int
	if _, err := fmt.Sscanf(desc, "%d", &factor); err != nil || factor < 0 {
		logging.Debug("Factor not numeric, using neutral",
			zap.Int("idx", idx),
			zap.String("description", desc),
		)
		return NeutralFactor, name, nil
	}
	return factor, name, nil
}

// BaseURL reports the configured endpoint, for the status API.
func (c *Client) BaseURL() string { return c.base }

// ValidBase reports whether the configured endpoint parses as a URL.
func (c *Client) ValidBase() bool {
	if c.base == "" {
		return false
	}
	u, err := url.Parse(c.base)
	return err == nil && u.Scheme != "" && u.Host != ""
}
