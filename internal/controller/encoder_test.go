package controller

import (
	"testing"

	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/config"
)

func TestAdjustDuration(t *testing.T) {
	d := func(m, s int) config.Duration { return config.Duration{Minutes: m, Seconds: s} }

	tests := []struct {
		name  string
		start config.Duration
		delta int
		want  config.Duration
	}{
		{"minutes up", d(10, 0), 1, d(11, 0)},
		{"minutes up multiple", d(2, 0), 3, d(5, 0)},
		{"minutes ceiling", d(59, 0), 1, d(59, 0)},
		{"minutes down", d(10, 0), -1, d(9, 0)},
		{"one minute rolls into seconds", d(1, 0), -1, d(0, 55)},
		{"seconds down", d(0, 30), -1, d(0, 25)},
		{"seconds land on whole minute", d(1, 5), -1, d(1, 0)},
		{"seconds land on whole minute high", d(10, 5), -1, d(10, 0)},
		{"two steps down land on whole minute", d(1, 10), -2, d(1, 0)},
		{"seconds floor pins", d(0, 5), -1, d(0, 5)},
		{"seconds up", d(0, 25), 1, d(0, 30)},
		{"seconds roll into minute", d(0, 55), 1, d(1, 0)},
		{"zero up starts at floor", d(0, 0), 1, d(0, 5)},
		{"zero down stays zero", d(0, 0), -1, d(0, 0)},
		{"cross boundary down", d(1, 0), -3, d(0, 45)},
		{"cross boundary up", d(0, 50), 3, d(1, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adjustDuration(tt.start, tt.delta); got != tt.want {
				t.Errorf("adjustDuration(%v, %d) = %v, want %v", tt.start, tt.delta, got, tt.want)
			}
		})
	}
}

func TestAdjustBinding(t *testing.T) {
	tests := []struct {
		v, delta, want int
	}{
		{100, 1, 101},
		{0, -1, 0},
		{5, -10, 0},
		{1000, 1, 1000},
		{995, 20, 1000},
	}
	for _, tt := range tests {
		if got := adjustBinding(tt.v, tt.delta); got != tt.want {
			t.Errorf("adjustBinding(%d, %d) = %d, want %d", tt.v, tt.delta, got, tt.want)
		}
	}
}

func TestScaleDuration(t *testing.T) {
	tests := []struct {
		name   string
		base   config.Duration
		factor int
		want   config.Duration
	}{
		{"neutral", config.Duration{Minutes: 10}, 100, config.Duration{Minutes: 10}},
		{"half", config.Duration{Minutes: 10}, 50, config.Duration{Minutes: 5}},
		{"truncates", config.Duration{Seconds: 10}, 25, config.Duration{Seconds: 2}},
		{"over 100", config.Duration{Minutes: 10}, 150, config.Duration{Minutes: 15}},
		{"zero factor", config.Duration{Minutes: 10}, 0, config.Duration{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scaleDuration(tt.base, tt.factor); got != tt.want {
				t.Errorf("scaleDuration(%v, %d) = %v, want %v", tt.base, tt.factor, got, tt.want)
			}
		})
	}
}
