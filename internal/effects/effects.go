// SPDX-License-Identifier: MIT
// Package effects holds the built-in visualizers.
package effects

import (
	"math/rand/v2"
	"time"

	"termvis/internal/visualizer"
)

// Builtin returns the registration list in display order.
func Builtin() []visualizer.Entry {
	return []visualizer.Entry{
		{Key: "bars", New: func() (visualizer.Visualizer, error) { return NewBars(), nil }},
		{Key: "circle", New: func() (visualizer.Visualizer, error) { return NewCircle(), nil }},
		{Key: "wave", New: func() (visualizer.Visualizer, error) { return NewWave(), nil }},
		{Key: "particles", New: func() (visualizer.Visualizer, error) { return NewParticles(newRand()), nil }},
		{Key: "flame", New: func() (visualizer.Visualizer, error) { return NewFlame(newRand()), nil }},
	}
}

func newRand() *rand.Rand {
	seed := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(seed, seed>>1|1))
}

// mean averages s[lo:hi], clamped to the slice. An empty range is 0.
func mean(s []float64, lo, hi int) float64 {
	lo = max(0, lo)
	hi = min(len(s), hi)
	if hi <= lo {
		return 0
	}
	sum := 0.0
	for _, v := range s[lo:hi] {
		sum += v
	}
	return sum / float64(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
