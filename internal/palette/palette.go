// SPDX-License-Identifier: MIT
/*
Package palette maps HSV and RGB colors onto what the terminal can show.

On terminals with 256 or more colors each channel is quantized to one of six
levels and the result indexes the xterm 6x6x6 color cube (palette entries
16-231). Terminals with fewer colors get a coarse approximation over the eight
ANSI colors driven by the dominant channel and overall brightness.

A Mapper is immutable, so the same inputs always produce the same Color.
*/
package palette

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a display color handle: a palette index plus the bold attribute
// used by the 8-color path to select bright variants.
type Color struct {
	Index int // Palette index, or -1 for the terminal's default foreground.
	Bold  bool
}

// Default is the terminal's default foreground.
var Default = Color{Index: -1}

// ANSI palette indexes used by the limited path.
const (
	Black   = 0
	Red     = 1
	Green   = 2
	Yellow  = 3
	Blue    = 4
	Magenta = 5
	Cyan    = 6
	White   = 7
)

const (
	cubeOffset   = 16 // First entry of the xterm color cube.
	cubeLevels   = 6
	fullColors   = 256
	basicColors  = 8
	darkBoundary = 85 // Mean channel value below which a color counts as dark.
	whiteFloor   = 200
)

// Mapper quantizes colors for a terminal with a fixed color capability.
type Mapper struct {
	colors int
}

// New returns a Mapper for a terminal reporting colors distinct colors.
func New(colors int) *Mapper {
	return &Mapper{colors: colors}
}

// Colors returns the capability the Mapper was built for.
func (m *Mapper) Colors() int {
	return m.colors
}

// Full reports whether the color cube path is in use.
func (m *Mapper) Full() bool {
	return m.colors >= fullColors
}

// HSV converts h, s and v (each nominally 0-1) to a display color. Hue wraps
// modulo 1, saturation and value are clamped.
func (m *Mapper) HSV(h, s, v float64) Color {
	r, g, b := HSVToRGB(h, s, v)
	return m.RGB(r, g, b)
}

// RGB maps 8-bit channels to a display color.
func (m *Mapper) RGB(r, g, b uint8) Color {
	switch {
	case m.colors >= fullColors:
		return Color{Index: CubeIndex(r, g, b)}
	case m.colors >= basicColors:
		return basic(int(r), int(g), int(b))
	}
	return Default
}

// HSVToRGB is the sector-based HSV to RGB conversion on 8-bit channels.
func HSVToRGB(h, s, v float64) (uint8, uint8, uint8) {
	h = math.Mod(h, 1.0)
	if h < 0 {
		h += 1.0
	}
	s = clamp01(s)
	v = clamp01(v)
	c := colorful.Hsv(h*360, s, v)
	return channel(c.R), channel(c.G), channel(c.B)
}

// channel truncates a 0-1 channel to 8 bits. The epsilon absorbs the error
// of the degree conversion at exact sector boundaries.
func channel(x float64) uint8 {
	return uint8(min(255, max(0, x*255+1e-9)))
}

// CubeIndex returns the xterm color cube entry nearest to r, g, b.
func CubeIndex(r, g, b uint8) int {
	ri := min(cubeLevels-1, int(r)*cubeLevels/256)
	gi := min(cubeLevels-1, int(g)*cubeLevels/256)
	bi := min(cubeLevels-1, int(b)*cubeLevels/256)
	return cubeOffset + 36*ri + 6*gi + bi
}

// CubeRGB returns the channels of color cube entry index on a cube whose
// levels are evenly spaced fifths of full scale. ok is false outside 16-231.
func CubeRGB(index int) (r, g, b uint8, ok bool) {
	i := index - cubeOffset
	if i < 0 || i >= cubeLevels*cubeLevels*cubeLevels {
		return 0, 0, 0, false
	}
	const step = 255 / (cubeLevels - 1)
	return uint8(i / 36 * step), uint8(i / 6 % cubeLevels * step), uint8(i % cubeLevels * step), true
}

func basic(r, g, b int) Color {
	brightness := (r + g + b) / 3
	if brightness < darkBoundary {
		switch {
		case r > g && r > b:
			return Color{Index: Red}
		case g > r && g > b:
			return Color{Index: Green}
		case b > r && b > g:
			return Color{Index: Blue}
		}
		return Default
	}

	switch {
	case r > g && r > b:
		return Color{Index: Red, Bold: true}
	case g > r && g > b:
		return Color{Index: Green, Bold: true}
	case b > r && b > g:
		return Color{Index: Blue, Bold: true}
	case r > whiteFloor && g > whiteFloor && b > whiteFloor:
		return Color{Index: White, Bold: true}
	}
	return Color{Index: Yellow}
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
