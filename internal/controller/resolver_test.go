package controller

import (
	"errors"
	"testing"

	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/buttons"
	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/config"
)

func TestResolveGroup(t *testing.T) {
	cfg := config.New()
	cfg.Group(2).Zones = []int{4, 5}
	cfg.Group(2).Name = "Terraza"

	tests := []struct {
		name        string
		selector    buttons.ID
		wantOrdinal int
		wantZones   []int
	}{
		{"position up", buttons.Group1, 1, []int{1}},
		{"virtual middle", buttons.Group2, 2, []int{4, 5}},
		{"position down", buttons.Group3, 3, []int{3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ordinal, view, err := ResolveGroup(cfg, tt.selector)
			if err != nil {
				t.Fatalf("ResolveGroup() error = %v", err)
			}
			if ordinal != tt.wantOrdinal {
				t.Errorf("ordinal = %d, want %d", ordinal, tt.wantOrdinal)
			}
			if len(view.Zones) != len(tt.wantZones) {
				t.Fatalf("zones = %v, want %v", view.Zones, tt.wantZones)
			}
			for i, z := range tt.wantZones {
				if view.Zones[i] != z {
					t.Errorf("zones = %v, want %v", view.Zones, tt.wantZones)
				}
			}
		})
	}
}

func TestResolveGroupIsTotal(t *testing.T) {
	// A config with mangled positions must never yield an out-of-range
	// ordinal, only the not-found sentinel.
	cfg := config.New()
	for i := range cfg.Groups {
		cfg.Groups[i].Position = 10 + i
	}
	for _, sel := range buttons.GroupIDs {
		ordinal, _, err := ResolveGroup(cfg, sel)
		if !errors.Is(err, ErrGroupNotFound) {
			t.Errorf("selector %#x: error = %v, want ErrGroupNotFound", uint16(sel), err)
		}
		if ordinal != 0 {
			t.Errorf("selector %#x: ordinal = %d, want 0 with sentinel", uint16(sel), ordinal)
		}
	}
}

func TestResolveGroupSnapshotIsACopy(t *testing.T) {
	cfg := config.New()
	cfg.Group(1).Zones = []int{1, 2, 3}

	_, view, err := ResolveGroup(cfg, buttons.Group1)
	if err != nil {
		t.Fatal(err)
	}
	view.Zones[0] = 7
	if cfg.Group(1).Zones[0] != 1 {
		t.Error("mutating the view leaked into persisted configuration")
	}
}
