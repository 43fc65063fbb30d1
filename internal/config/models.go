package config

import (
	"fmt"

	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/buttons"
)

// GroupCapacity is the maximum number of zones in one watering group.
const GroupCapacity = 16

// Duration defaults and edit bounds for the base watering duration.
const (
	DefaultMinutes = 10
	DefaultSeconds = 0
	MaxMinutes     = 59
	MinSeconds     = 5
)

// Config is the persisted parameter set of the box.
type Config struct {
	Version     int  `yaml:"version"`
	Initialized bool `yaml:"initialized"`

	// Duration is the base watering duration applied to session starts.
	Duration Duration `yaml:"duration"`

	// Endpoint is the base URL of the actuator/sensor service
	// (e.g. "http://192.168.1.20:8080"). Empty disables remote calls.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Broker is the MQTT broker URL for telemetry events. Empty disables
	// event publishing.
	Broker string `yaml:"broker,omitempty"`

	// NTPServer is the time source the host should sync against. The
	// daemon itself trusts the system clock; the field is kept for
	// provisioning tooling.
	NTPServer string `yaml:"ntp_server,omitempty"`

	// Zones holds exactly one entry per physical zone, in zone order.
	Zones []ZoneConfig `yaml:"zones"`

	// Groups holds exactly one entry per selector position, in position
	// order (1 = up, 2 = virtual middle, 3 = down).
	Groups []GroupConfig `yaml:"groups"`
}

// Duration is a minutes:seconds pair as shown on the 4-digit display.
type Duration struct {
	Minutes int `yaml:"minutes"`
	Seconds int `yaml:"seconds"`
}

// TotalSeconds returns the duration flattened to seconds.
func (d Duration) TotalSeconds() int { return d.Minutes*60 + d.Seconds }

// IsZero reports a 0:00 duration (sessions short-circuit to FINISHING).
func (d Duration) IsZero() bool { return d.Minutes == 0 && d.Seconds == 0 }

// ZoneConfig binds one zone to its external actuator.
type ZoneConfig struct {
	Zone int    `yaml:"zone"`           // 1-based zone number
	Name string `yaml:"name,omitempty"` // display description
	Idx  int    `yaml:"idx"`            // actuator reference, 0 = unbound
}

// GroupConfig is the persisted membership of one watering group.
type GroupConfig struct {
	Position int    `yaml:"position"`       // selector position, 1-based
	Name     string `yaml:"name,omitempty"` // display description
	Zones    []int  `yaml:"zones"`          // ordered 1-based zone numbers
}

// New returns a fully populated configuration with build defaults.
func New() *Config {
	cfg := Zero()
	cfg.Initialized = true
	return cfg
}

// Zero returns the fallback configuration used when nothing loadable is on
// disk: default duration, no actuator bindings, and every group containing
// just the zone matching its position.
func Zero() *Config {
	cfg := &Config{
		Version:  1,
		Duration: Duration{Minutes: DefaultMinutes, Seconds: DefaultSeconds},
	}
	for z := 1; z <= buttons.NumZones; z++ {
		cfg.Zones = append(cfg.Zones, ZoneConfig{Zone: z, Name: fmt.Sprintf("ZONA%d", z)})
	}
	for p := 1; p <= buttons.NumGroups; p++ {
		cfg.Groups = append(cfg.Groups, GroupConfig{
			Position: p,
			Name:     fmt.Sprintf("GRUPO%d", p),
			Zones:    []int{p},
		})
	}
	return cfg
}

// Validate checks the fixed topology invariants. A config that fails
// validation is treated like an unreadable file.
func (c *Config) Validate() error {
	if len(c.Zones) != buttons.NumZones {
		return fmt.Errorf("config has %d zones, hardware has %d", len(c.Zones), buttons.NumZones)
	}
	if len(c.Groups) != buttons.NumGroups {
		return fmt.Errorf("config has %d groups, selector has %d positions", len(c.Groups), buttons.NumGroups)
	}
	for i, g := range c.Groups {
		if g.Position != i+1 {
			return fmt.Errorf("group %d has position %d, want %d", i, g.Position, i+1)
		}
		if len(g.Zones) == 0 || len(g.Zones) > GroupCapacity {
			return fmt.Errorf("group %d has %d zones, want 1..%d", g.Position, len(g.Zones), GroupCapacity)
		}
		for _, z := range g.Zones {
			if z < 1 || z > buttons.NumZones {
				return fmt.Errorf("group %d references zone %d, want 1..%d", g.Position, z, buttons.NumZones)
			}
		}
	}
	for i, z := range c.Zones {
		if z.Zone != i+1 {
			return fmt.Errorf("zone entry %d numbered %d, want %d", i, z.Zone, i+1)
		}
	}
	return nil
}

// Group returns the group at the given selector position, or nil.
func (c *Config) Group(position int) *GroupConfig {
	for i := range c.Groups {
		if c.Groups[i].Position == position {
			return &c.Groups[i]
		}
	}
	return nil
}

// ZoneByNumber returns the zone entry for a 1-based zone number, or nil.
func (c *Config) ZoneByNumber(zone int) *ZoneConfig {
	for i := range c.Zones {
		if c.Zones[i].Zone == zone {
			return &c.Zones[i]
		}
	}
	return nil
}
