package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/buttons"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	cfg := New()
	cfg.Duration = Duration{Minutes: 12, Seconds: 30}
	cfg.Endpoint = "http://192.168.1.20:8080"
	cfg.Zones[2].Idx = 114
	cfg.Zones[2].Name = "Huerto"
	cfg.Groups[0].Zones = []int{2, 5, 1}

	if err := store.Save(cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !got.Initialized {
		t.Error("loaded config not marked initialized")
	}
	if got.Duration != cfg.Duration {
		t.Errorf("Duration = %+v, want %+v", got.Duration, cfg.Duration)
	}
	if got.Zones[2].Idx != 114 || got.Zones[2].Name != "Huerto" {
		t.Errorf("Zones[2] = %+v, want idx 114 name Huerto", got.Zones[2])
	}
	if !reflect.DeepEqual(got.Groups[0].Zones, []int{2, 5, 1}) {
		t.Errorf("Groups[0].Zones = %v, want [2 5 1]", got.Groups[0].Zones)
	}
}

func TestBootFallsBackToZero(t *testing.T) {
	store := NewStore(t.TempDir())

	cfg := store.Boot()
	if cfg.Initialized {
		t.Error("zeroed config reported initialized")
	}
	if len(cfg.Zones) != buttons.NumZones || len(cfg.Groups) != buttons.NumGroups {
		t.Fatalf("zeroed config topology = %d zones, %d groups", len(cfg.Zones), len(cfg.Groups))
	}
	for p := 1; p <= buttons.NumGroups; p++ {
		g := cfg.Group(p)
		if g == nil || len(g.Zones) != 1 || g.Zones[0] != p {
			t.Errorf("zeroed group %d = %+v, want single zone %d", p, g, p)
		}
	}
}

func TestBootFallsBackToDefaultFile(t *testing.T) {
	store := NewStore(t.TempDir())

	cfg := New()
	cfg.Duration.Minutes = 33
	if err := store.Save(cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.CloneAsDefault(); err != nil {
		t.Fatalf("CloneAsDefault() error = %v", err)
	}

	// Corrupt the live file; boot must pick up the default clone.
	if err := os.WriteFile(filepath.Join(store.Dir(), liveFile), []byte("{not yaml"), 0o600); err != nil {
		t.Fatal(err)
	}
	got := store.Boot()
	if got.Duration.Minutes != 33 {
		t.Errorf("Boot() minutes = %d, want 33 from default file", got.Duration.Minutes)
	}
}

func TestRestoreDefault(t *testing.T) {
	store := NewStore(t.TempDir())

	base := New()
	base.Duration.Minutes = 7
	if err := store.Save(base); err != nil {
		t.Fatal(err)
	}
	if err := store.CloneAsDefault(); err != nil {
		t.Fatal(err)
	}

	edited := New()
	edited.Duration.Minutes = 55
	if err := store.Save(edited); err != nil {
		t.Fatal(err)
	}

	if err := store.RestoreDefault(); err != nil {
		t.Fatalf("RestoreDefault() error = %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got.Duration.Minutes != 7 {
		t.Errorf("restored minutes = %d, want 7", got.Duration.Minutes)
	}
}

func TestValidateRejectsBadTopology(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing zone", func(c *Config) { c.Zones = c.Zones[:len(c.Zones)-1] }},
		{"missing group", func(c *Config) { c.Groups = c.Groups[:len(c.Groups)-1] }},
		{"empty group", func(c *Config) { c.Groups[1].Zones = nil }},
		{"zone reference out of range", func(c *Config) { c.Groups[0].Zones = []int{buttons.NumZones + 1} }},
		{"group over capacity", func(c *Config) {
			c.Groups[0].Zones = make([]int, GroupCapacity+1)
			for i := range c.Groups[0].Zones {
				c.Groups[0].Zones[i] = 1
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestSaveRejectsInvalid(t *testing.T) {
	store := NewStore(t.TempDir())
	cfg := New()
	cfg.Groups[0].Zones = nil
	if err := store.Save(cfg); err == nil {
		t.Error("Save() of invalid config = nil, want error")
	}
}
