// SPDX-License-Identifier: MIT
package effects

import (
	"math"

	"termvis/internal/display"
	"termvis/internal/visualizer"
)

// Circle draws concentric rings whose radius breathes with the bass.
type Circle struct{}

func NewCircle() *Circle { return &Circle{} }

func (c *Circle) Name() string { return "Circle Spectrum" }

func (c *Circle) Setup() error { return nil }

func (c *Circle) Draw(cv *visualizer.Canvas, f visualizer.Frame) error {
	cy, cx := f.Height/2, f.Width/2
	base := float64(min(f.Height, f.Width) / 4)
	variation := mean(f.Spectrum, 0, 20) * base * 1.5

	glyph := '★'
	switch {
	case f.Energy < 0.1:
		glyph = '•'
	case f.Energy < 0.2:
		glyph = '*'
	}

	sv := clamp(0.7+0.3*f.Energy, 0, 1)
	for ring := range 5 {
		radius := base - float64(ring*3) + variation
		for angle := 0; angle < 360; angle += 5 {
			rad := float64(angle) * math.Pi / 180
			x := int(float64(cx) + radius*math.Cos(rad))
			y := int(float64(cy) + radius*math.Sin(rad))

			hue := math.Mod(float64(angle)/360+f.Hue, 1.0)
			cv.SetCell(x, y, glyph, display.Style{Color: cv.HSV(hue, sv, sv), Bold: true})
		}
	}

	return nil
}
