package controller

import (
	"testing"

	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/config"
)

func TestConfigSessionGroupCapacity(t *testing.T) {
	cfg := config.New()
	var s configSession
	s.openGroup(cfg, 1)

	for i := 0; i < config.GroupCapacity; i++ {
		if !s.addZone(1 + i%7) {
			t.Fatalf("press %d rejected below capacity", i+1)
		}
	}
	if s.addZone(1) {
		t.Error("press accepted beyond capacity")
	}
	if !s.commitGroup(cfg) {
		t.Fatal("commit of full working copy failed")
	}
	if got := len(cfg.Group(1).Zones); got != config.GroupCapacity {
		t.Errorf("committed size = %d, want %d", got, config.GroupCapacity)
	}
}

func TestConfigSessionEmptyGroupDiscarded(t *testing.T) {
	cfg := config.New()
	before := append([]int(nil), cfg.Group(1).Zones...)

	var s configSession
	s.openGroup(cfg, 1)
	if s.commitGroup(cfg) {
		t.Error("empty working copy committed")
	}
	if got := cfg.Group(1).Zones; len(got) != len(before) || got[0] != before[0] {
		t.Errorf("group zones = %v, want unchanged %v", got, before)
	}
	if s.dirty {
		t.Error("discarded commit marked the session dirty")
	}
}

func TestConfigSessionSwitchingTargetAbortsGroup(t *testing.T) {
	cfg := config.New()
	var s configSession
	s.openGroup(cfg, 1)
	s.addZone(3)
	s.addZone(4)

	// Opening another target discards the uncommitted working copy.
	s.openBinding(cfg, 2)
	if got := cfg.Group(1).Zones; len(got) != 1 || got[0] != 1 {
		t.Errorf("group zones = %v, want original [1]", got)
	}
	if s.dirty {
		t.Error("aborted group edit marked the session dirty")
	}
}

func TestConfigSessionBindingCommitOnSwitch(t *testing.T) {
	cfg := config.New()
	var s configSession
	s.openBinding(cfg, 3)
	s.adjust(42)
	s.openDuration(cfg)

	if got := cfg.ZoneByNumber(3).Idx; got != 42 {
		t.Errorf("zone 3 idx = %d, want 42 committed on target switch", got)
	}
	if !s.dirty {
		t.Error("binding edit did not mark the session dirty")
	}
}

func TestConfigSessionExclusivity(t *testing.T) {
	cfg := config.New()
	var s configSession

	s.openDuration(cfg)
	if _, ok := s.target.(*editDuration); !ok {
		t.Fatalf("target = %T, want *editDuration", s.target)
	}
	s.openGroup(cfg, 2)
	if _, ok := s.target.(*editGroup); !ok {
		t.Fatalf("target = %T, want *editGroup", s.target)
	}
	s.openBinding(cfg, 1)
	if _, ok := s.target.(*editBinding); !ok {
		t.Fatalf("target = %T, want *editBinding", s.target)
	}
}
