package controller

import (
	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/config"
)

// editTarget is the open editing target of the configuration sub-machine.
// A nil target is the idle sub-mode. The variants are mutually exclusive by
// construction; at most one is ever open.
type editTarget interface{ isEditTarget() }

// editDuration edits the default watering duration.
type editDuration struct {
	value config.Duration
}

// editBinding edits one zone's external actuator identifier.
type editBinding struct {
	zone  int
	value int
}

// editGroup rebuilds one group's zone membership. The working copy starts
// empty and grows one zone press at a time; persisted state is untouched
// until the explicit commit.
type editGroup struct {
	position int
	working  []int
}

func (editDuration) isEditTarget() {}
func (editBinding) isEditTarget()  {}
func (editGroup) isEditTarget()    {}

// configSession is the state of the configuration sub-machine. It lives
// only while the controller is in CONFIGURING and is cleared on exit.
type configSession struct {
	target editTarget
	dirty  bool
}

func (s *configSession) reset() {
	s.target = nil
	s.dirty = false
}

// openDuration switches to duration editing, committing any open binding
// edit and discarding any uncommitted group working copy.
func (s *configSession) openDuration(cfg *config.Config) {
	s.closeTarget(cfg)
	s.target = &editDuration{value: cfg.Duration}
}

// openBinding switches to editing the actuator identifier of a zone.
func (s *configSession) openBinding(cfg *config.Config, zone int) {
	s.closeTarget(cfg)
	current := 0
	if z := cfg.ZoneByNumber(zone); z != nil {
		current = z.Idx
	}
	s.target = &editBinding{zone: zone, value: current}
}

// openGroup switches to rebuilding the membership of the group at the given
// selector position, starting from an empty working copy.
func (s *configSession) openGroup(cfg *config.Config, position int) {
	s.closeTarget(cfg)
	s.target = &editGroup{position: position}
}

// addZone appends a zone to the open group working copy. It reports whether
// the press was accepted (a group edit is open and capacity remains).
func (s *configSession) addZone(zone int) bool {
	g, ok := s.target.(*editGroup)
	if !ok || len(g.working) >= config.GroupCapacity {
		return false
	}
	g.working = append(g.working, zone)
	return true
}

// commitGroup writes the working copy back into configuration and closes
// the target. An empty working copy is discarded: a group may never be
// emptied from the panel.
func (s *configSession) commitGroup(cfg *config.Config) bool {
	g, ok := s.target.(*editGroup)
	if !ok {
		return false
	}
	s.target = nil
	if len(g.working) == 0 {
		return false
	}
	grp := cfg.Group(g.position)
	if grp == nil {
		return false
	}
	grp.Zones = append([]int(nil), g.working...)
	s.dirty = true
	return true
}

// adjust applies encoder detents to the open duration or binding edit.
func (s *configSession) adjust(delta int) {
	switch t := s.target.(type) {
	case *editDuration:
		t.value = adjustDuration(t.value, delta)
	case *editBinding:
		t.value = adjustBinding(t.value, delta)
	}
}

// closeTarget commits an open duration or binding edit into configuration
// and discards an uncommitted group working copy. Used when switching
// targets and when leaving CONFIGURING.
func (s *configSession) closeTarget(cfg *config.Config) {
	switch t := s.target.(type) {
	case *editDuration:
		if cfg.Duration != t.value {
			cfg.Duration = t.value
			s.dirty = true
		}
	case *editBinding:
		if z := cfg.ZoneByNumber(t.zone); z != nil && z.Idx != t.value {
			z.Idx = t.value
			s.dirty = true
		}
	case *editGroup:
		// Switching away without the explicit commit discards the copy.
	}
	s.target = nil
}
