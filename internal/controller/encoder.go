package controller

import "github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/config"

// Encoder is the rotary encoder's rotation half. Delta returns the number of
// detents turned since the previous call, negative for counter-clockwise.
// The push switch travels through the button bitmap, not here.
type Encoder interface {
	Delta() int
}

// NopEncoder never turns.
type NopEncoder struct{}

func (NopEncoder) Delta() int { return 0 }

// Zone-binding edit bounds.
const (
	BindingMin = 0
	BindingMax = 1000
)

// adjustDuration applies encoder detents to a watering duration, one step
// at a time so unit boundaries behave the same regardless of delta size.
//
// With seconds at zero the encoder moves whole minutes, capped at the
// ceiling. Once seconds are in play it moves in 5-second steps; climbing
// past :55 rolls into the next minute, and stepping down from :05 lands on
// the whole minute. 0:05 has no minute to land on and pins at the floor.
func adjustDuration(d config.Duration, delta int) config.Duration {
	for ; delta > 0; delta-- {
		d = durationUp(d)
	}
	for ; delta < 0; delta++ {
		d = durationDown(d)
	}
	return d
}

func durationUp(d config.Duration) config.Duration {
	if d.IsZero() {
		return config.Duration{Seconds: config.MinSeconds}
	}
	if d.Seconds != 0 {
		d.Seconds += 5
		if d.Seconds >= 60 {
			d.Minutes++
			d.Seconds = 0
		}
		return d
	}
	if d.Minutes < config.MaxMinutes {
		d.Minutes++
	}
	return d
}

func durationDown(d config.Duration) config.Duration {
	if d.Seconds != 0 {
		d.Seconds -= 5
		if d.Seconds < config.MinSeconds {
			if d.Minutes == 0 {
				d.Seconds = config.MinSeconds
			} else {
				d.Seconds = 0
			}
		}
		return d
	}
	switch {
	case d.Minutes > 1:
		d.Minutes--
	case d.Minutes == 1:
		d.Minutes = 0
		d.Seconds = 55
	}
	return d
}

// adjustBinding applies encoder detents to an actuator-identifier value,
// clamped to the permitted range.
func adjustBinding(v, delta int) int {
	v += delta
	if v < BindingMin {
		return BindingMin
	}
	if v > BindingMax {
		return BindingMax
	}
	return v
}

// scaleDuration applies a percentage factor to a base duration, truncating
// to whole seconds.
func scaleDuration(base config.Duration, factor int) config.Duration {
	total := base.TotalSeconds() * factor / 100
	return config.Duration{Minutes: total / 60, Seconds: total % 60}
}
