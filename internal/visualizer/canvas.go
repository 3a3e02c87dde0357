// SPDX-License-Identifier: MIT
package visualizer

import (
	"termvis/internal/display"
	"termvis/internal/palette"
)

// Canvas is the drawable region handed to a visualizer: a window onto the
// display plus the shared color mapper.
type Canvas struct {
	display display.Display
	colors  *palette.Mapper
	x0, y0  int
	width   int
	height  int
}

// NewCanvas returns a canvas covering the w x h region of d at (x0, y0).
func NewCanvas(d display.Display, colors *palette.Mapper, x0, y0, w, h int) *Canvas {
	return &Canvas{
		display: d,
		colors:  colors,
		x0:      x0,
		y0:      y0,
		width:   max(0, w),
		height:  max(0, h),
	}
}

func (c *Canvas) Size() (width, height int) {
	return c.width, c.height
}

// SetCell writes one cell in canvas coordinates. Cells outside the canvas
// return display.ErrOutOfBounds and are dropped.
func (c *Canvas) SetCell(x, y int, r rune, style display.Style) error {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return display.ErrOutOfBounds
	}
	return c.display.SetCell(c.x0+x, c.y0+y, r, style)
}

// Set writes r in color at (x, y).
func (c *Canvas) Set(x, y int, r rune, color palette.Color) error {
	return c.SetCell(x, y, r, display.Style{Color: color})
}

// Text writes s from (x, y), clipped to the canvas width.
func (c *Canvas) Text(x, y int, s string, style display.Style) {
	for _, r := range s {
		if x >= c.width {
			return
		}
		c.SetCell(x, y, r, style)
		x++
	}
}

// HSV maps an HSV color through the shared palette.
func (c *Canvas) HSV(h, s, v float64) palette.Color {
	return c.colors.HSV(h, s, v)
}

// RGB maps 8-bit channels through the shared palette.
func (c *Canvas) RGB(r, g, b uint8) palette.Color {
	return c.colors.RGB(r, g, b)
}

// Palette exposes the mapper for capability checks.
func (c *Canvas) Palette() *palette.Mapper {
	return c.colors
}
