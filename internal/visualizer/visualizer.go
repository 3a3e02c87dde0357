// SPDX-License-Identifier: MIT
/*
Package visualizer defines the contract every visual effect satisfies and the
registry the session cycles through.

A Visualizer is constructed and set up exactly once at startup. Afterwards it
receives one Draw per rendered frame while it is the active visualizer, and
keeps its private animation state untouched while inactive.
*/
package visualizer

import (
	"termvis/internal/analysis"
	"termvis/internal/display"
)

// Frame is everything a visualizer needs to render one frame.
type Frame struct {
	Spectrum []float64 // Adjusted one-sided spectrum. Read-only.
	Energy   float64   // Bass-weighted energy scalar.
	Bands    []analysis.BandLevel
	Beat     bool
	Width    int // Canvas geometry, re-read every frame.
	Height   int
	Hue      float64 // Shared hue offset in [0, 1).
}

// Visualizer is a self-contained, stateful visual effect.
type Visualizer interface {
	// Name is fixed at construction.
	Name() string
	// Setup is called once, after construction and before the first Draw.
	Setup() error
	// Draw renders one frame within the canvas. It must tolerate any
	// geometry, including a zero-sized canvas, and must not block.
	Draw(c *Canvas, f Frame) error
}

// KeyHandler is implemented by visualizers with local key bindings. Global
// bindings are never offered to it.
type KeyHandler interface {
	HandleKey(k display.Key) bool
}
