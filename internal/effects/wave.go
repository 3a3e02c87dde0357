// SPDX-License-Identifier: MIT
package effects

import (
	"math"

	"termvis/internal/display"
	"termvis/internal/visualizer"
)

const (
	waveHarmonics = 20
	waveTick      = 1.0 / 60
)

// Wave sums sine waves whose amplitudes follow the lowest spectrum bins.
type Wave struct {
	clock  float64 // Animation time, advanced once per drawn frame.
	buffer []float64
}

func NewWave() *Wave { return &Wave{} }

func (w *Wave) Name() string { return "Wave" }

func (w *Wave) Setup() error {
	w.clock = 0
	return nil
}

// Clock returns the animation time.
func (w *Wave) Clock() float64 { return w.clock }

func (w *Wave) Draw(c *visualizer.Canvas, f visualizer.Frame) error {
	w.clock += waveTick
	if f.Width <= 0 || f.Height <= 0 {
		return nil
	}

	if cap(w.buffer) < f.Width {
		w.buffer = make([]float64, f.Width)
	}
	wave := w.buffer[:f.Width]
	clear(wave)

	quarter := float64(f.Height) / 4
	for i := range min(waveHarmonics, len(f.Spectrum)) {
		freq := float64((i + 1) * 2)
		amp := f.Spectrum[i] * 10 * quarter
		phase := w.clock * float64(i+1) * 1.5
		for x := range wave {
			wave[x] += amp * math.Sin(2*math.Pi*freq*float64(x)/float64(f.Width)+phase)
		}
	}

	mid := f.Height / 2
	for x, v := range wave {
		y := int(float64(mid) + v)
		level := 0.0
		if quarter > 0 {
			level = clamp(math.Abs(v)/quarter, 0, 1)
		}
		hue := math.Mod(float64(x)/float64(f.Width)+f.Hue, 1.0)
		c.SetCell(x, y, '•', display.Style{Color: c.HSV(hue, 0.8+0.2*level, 0.7+0.3*level), Bold: true})
	}

	return nil
}
