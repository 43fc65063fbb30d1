package controller

import (
	"errors"
	"fmt"

	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/buttons"
	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/config"
)

// ErrGroupNotFound reports a selector position with no matching configured
// group. The selector is a fixed 3-position switch, so this is a
// data-integrity fault, never a user error.
var ErrGroupNotFound = errors.New("no configured group matches the selector position")

// GroupView is a read snapshot of one configured group. The resolver copies
// it out of configuration; nothing writes through it. Edits go through the
// configuration sub-machine's working copy and an explicit commit.
type GroupView struct {
	Position int
	Name     string
	Zones    []int
}

// Size returns the number of zones in the group.
func (g GroupView) Size() int { return len(g.Zones) }

// selectorPosition maps a selector identity to its 1-based position.
func selectorPosition(id buttons.ID) int {
	switch id {
	case buttons.Group1:
		return 1
	case buttons.Group2:
		return 2
	case buttons.Group3:
		return 3
	}
	return 0
}

// ResolveGroup maps the selector's current position to its configured group.
// It returns the group's 1-based ordinal in configuration order and a value
// snapshot. It is total: every input yields either a valid ordinal or
// ErrGroupNotFound.
func ResolveGroup(cfg *config.Config, selector buttons.ID) (int, GroupView, error) {
	position := selectorPosition(selector)
	for i, g := range cfg.Groups {
		if g.Position == position {
			view := GroupView{
				Position: g.Position,
				Name:     g.Name,
				Zones:    append([]int(nil), g.Zones...),
			}
			return i + 1, view, nil
		}
	}
	return 0, GroupView{}, fmt.Errorf("%w: position %d", ErrGroupNotFound, position)
}
