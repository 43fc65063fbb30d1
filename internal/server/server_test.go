package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/actuator"
	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/config"
	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/controller"
)

type fixedSource struct {
	snap controller.Snapshot
}

func (f fixedSource) Snapshot() controller.Snapshot { return f.snap }

func newTestServer(t *testing.T, sim *actuator.SimFlags) *Server {
	t.Helper()
	return New(&Config{
		Addr: "127.0.0.1:0",
		Source: fixedSource{snap: controller.Snapshot{
			State:    "WATERING",
			Zone:     3,
			Duration: "10:00",
		}},
		Cfg: config.New(),
		Sim: sim,
	})
}

func TestStatusEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	s.httpSrv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var snap controller.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.State != "WATERING" || snap.Zone != 3 {
		t.Errorf("snapshot = %+v, want WATERING zone 3", snap)
	}
}

func TestConfigEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	rec := httptest.NewRecorder()
	s.httpSrv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var cfg config.Config
	if err := json.NewDecoder(rec.Body).Decode(&cfg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cfg.Zones) == 0 {
		t.Error("config response missing zones")
	}
}

func TestSimulateEndpoint(t *testing.T) {
	var sim actuator.SimFlags
	s := newTestServer(t, &sim)

	body := strings.NewReader(`{"fail_on":true,"verify_off_mismatch":true}`)
	req := httptest.NewRequest(http.MethodPost, "/api/simulate", body)
	rec := httptest.NewRecorder()
	s.httpSrv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if !sim.FailOn || !sim.VerifyOffMismatch || sim.FailOff {
		t.Errorf("flags = %+v, want fail_on and verify_off_mismatch only", sim)
	}
}

func TestSimulateDisabled(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/simulate", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	s.httpSrv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501 when simulation disabled", rec.Code)
	}
}

func TestMetricsObserver(t *testing.T) {
	s := newTestServer(t, nil)
	obs := s.Observer()

	obs.StateChanged(controller.Standby, controller.Watering, controller.FaultNone)
	obs.SessionStarted(2, 1, 3)
	obs.SessionFinished(2, false)
	obs.SessionFinished(3, true)
	obs.FaultRaised(controller.FaultDivergence, "test")
	obs.VerificationMismatch(2)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.httpSrv.Handler.ServeHTTP(rec, req)

	out := rec.Body.String()
	for _, want := range []string{
		`riego_sessions_started_total{zone="2"} 1`,
		`riego_faults_total{kind="divergence"} 1`,
		`riego_verification_mismatches_total 1`,
		`riego_sequence_ends_total 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestParsePort(t *testing.T) {
	tests := []struct {
		addr string
		want int
	}{
		{":8089", 8089},
		{"127.0.0.1:80", 80},
		{"bad", 0},
	}
	for _, tt := range tests {
		if got := ParsePort(tt.addr); got != tt.want {
			t.Errorf("ParsePort(%q) = %d, want %d", tt.addr, got, tt.want)
		}
	}
}
