package actuator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fastClient returns a client pointed at base with a near-instant retry
// policy so failure-path tests do not sleep.
func fastClient(base string) *Client {
	c := New(base)
	c.SetRetryPolicy(3, time.Millisecond)
	return c
}

func deviceBody(status, description, name string) string {
	return fmt.Sprintf(`{"status":"OK","result":[{"Status":%q,"Description":%q,"Name":%q}]}`, status, description, name)
}

func TestSwitchSuccess(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		fmt.Fprint(w, `{"status":"OK","result":[]}`)
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	if err := c.Switch(context.Background(), 114, true); err != nil {
		t.Fatalf("Switch() error = %v", err)
	}
	want := "/json.htm?type=command&param=switchlight&idx=114&switchcmd=On"
	if gotPath != want {
		t.Errorf("request path = %s, want %s", gotPath, want)
	}
}

func TestSwitchRetriesThenSucceeds(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"status":"OK","result":[]}`)
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	if err := c.Switch(context.Background(), 7, false); err != nil {
		t.Fatalf("Switch() error = %v after %d calls", err, calls)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestSwitchExhaustsRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	err := c.Switch(context.Background(), 7, true)
	if err == nil {
		t.Fatal("Switch() = nil, want CommandError")
	}
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("Switch() error type = %T, want *CommandError", err)
	}
	if !cmdErr.On || cmdErr.Idx != 7 {
		t.Errorf("CommandError = %+v, want On=true Idx=7", cmdErr)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 attempts", calls)
	}
}

func TestSwitchUnboundAndOffline(t *testing.T) {
	// No server at all: both paths must short-circuit before any I/O.
	c := fastClient("http://127.0.0.1:1")

	if err := c.Switch(context.Background(), 0, true); err != nil {
		t.Errorf("Switch(idx 0) error = %v, want nil", err)
	}
	c.SetOffline(true)
	if err := c.Switch(context.Background(), 42, true); err != nil {
		t.Errorf("offline Switch() error = %v, want nil", err)
	}
}

func TestSwitchSimFlags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"OK","result":[]}`)
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	c.Sim().FailOn = true

	var cmdErr *CommandError
	if err := c.Switch(context.Background(), 5, true); !errors.As(err, &cmdErr) || !cmdErr.On {
		t.Errorf("Switch(on) with FailOn = %v, want on-direction CommandError", err)
	}
	if err := c.Switch(context.Background(), 5, false); err != nil {
		t.Errorf("Switch(off) with FailOn = %v, want nil", err)
	}

	c.Sim().Clear()
	if err := c.Switch(context.Background(), 5, true); err != nil {
		t.Errorf("Switch(on) after Clear() = %v, want nil", err)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expectOn bool
		wantOK   bool
		wantErr  bool
	}{
		{"on matches", deviceBody("On", "100", "Valvula"), true, true, false},
		{"off matches", deviceBody("Off", "100", "Valvula"), false, true, false},
		{"on diverged", deviceBody("Off", "100", "Valvula"), true, false, false},
		{"off diverged", deviceBody("On", "100", "Valvula"), false, false, false},
		{"status missing", `{"status":"OK","result":[]}`, true, false, true},
		{"error flagged", `{"status":"ERR","result":[]}`, true, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			c := fastClient(srv.URL)
			ok, err := c.Verify(context.Background(), 3, tt.expectOn)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if ok != tt.wantOK {
				t.Errorf("Verify() = %v, want %v", ok, tt.wantOK)
			}
		})
	}
}

func TestVerifyOfflineAlwaysConsistent(t *testing.T) {
	c := fastClient("http://127.0.0.1:1")
	c.SetOffline(true)
	ok, err := c.Verify(context.Background(), 3, true)
	if err != nil || !ok {
		t.Errorf("offline Verify() = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestVerifySimMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, deviceBody("On", "100", "Valvula"))
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	c.Sim().VerifyOnMismatch = true
	if ok, err := c.Verify(context.Background(), 3, true); ok || err != nil {
		t.Errorf("Verify(on) with sim mismatch = (%v, %v), want (false, nil)", ok, err)
	}
	// The flag only covers the expect-on direction.
	if ok, err := c.Verify(context.Background(), 3, false); err != nil {
		t.Errorf("Verify(off) error = %v", err)
	} else if ok {
		t.Log("off verify hit the real body, reported on: divergence expected")
	}
}

func TestDurationFactor(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantFactor int
		wantName   string
	}{
		{"numeric factor", deviceBody("On", "80", "Cesped"), 80, "Cesped"},
		{"zero factor", deviceBody("Off", "0", "Cerrada"), 0, "Cerrada"},
		{"non-numeric degrades to neutral", deviceBody("Off", "riego largo", "Huerto"), NeutralFactor, "Huerto"},
		{"empty description degrades to neutral", deviceBody("Off", "", "Huerto"), NeutralFactor, "Huerto"},
		{"negative degrades to neutral", deviceBody("Off", "-5", "Huerto"), NeutralFactor, "Huerto"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			c := fastClient(srv.URL)
			factor, name, err := c.DurationFactor(context.Background(), 9)
			if err != nil {
				t.Fatalf("DurationFactor() error = %v", err)
			}
			if factor != tt.wantFactor || name != tt.wantName {
				t.Errorf("DurationFactor() = (%d, %q), want (%d, %q)", factor, name, tt.wantFactor, tt.wantName)
			}
		})
	}
}

func TestDurationFactorUnbound(t *testing.T) {
	c := fastClient("http://127.0.0.1:1")
	factor, name, err := c.DurationFactor(context.Background(), 0)
	if err != nil || factor != 0 || name != "" {
		t.Errorf("DurationFactor(idx 0) = (%d, %q, %v), want (0, \"\", nil)", factor, name, err)
	}
}

func TestDurationFactorUnreachable(t *testing.T) {
	c := fastClient("http://127.0.0.1:1")
	factor, _, err := c.DurationFactor(context.Background(), 9)
	if !errors.Is(err, ErrFactorUnavailable) {
		t.Fatalf("DurationFactor() error = %v, want ErrFactorUnavailable", err)
	}
	if factor != NeutralFactor {
		t.Errorf("degraded factor = %d, want %d", factor, NeutralFactor)
	}
}

func TestDurationFactorOffline(t *testing.T) {
	c := fastClient("http://127.0.0.1:1")
	c.SetOffline(true)
	factor, _, err := c.DurationFactor(context.Background(), 9)
	if err != nil || factor != NeutralFactor {
		t.Errorf("offline DurationFactor() = (%d, %v), want (%d, nil)", factor, err, NeutralFactor)
	}
}

func TestValidBase(t *testing.T) {
	tests := []struct {
		base string
		want bool
	}{
		{"http://192.168.1.20:8080", true},
		{"https://riego.local", true},
		{"", false},
		{"not a url", false},
		{"192.168.1.20:8080", false},
	}
	for _, tt := range tests {
		if got := New(tt.base).ValidBase(); got != tt.want {
			t.Errorf("ValidBase(%q) = %v, want %v", tt.base, got, tt.want)
		}
	}
}
