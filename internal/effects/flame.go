// SPDX-License-Identifier: MIT
package effects

import (
	"math"
	"math/rand/v2"

	"termvis/internal/display"
	"termvis/internal/visualizer"
)

const (
	flameWidth      = 80
	flameHeight     = 30
	flameWidthMin   = 20
	flameWidthMax   = 200
	flameWidthStep  = 5
	flameHeightMin  = 10
	flameHeightMax  = 50
	flameHeightStep = 2
	flameEmbers     = 5
)

var flameGlyphs = []rune(" .,:;=+*#%@")

// Flame is a cellular fire simulation fed by bass heat at the bottom row and
// sitting on a row of logs.
type Flame struct {
	rng *rand.Rand

	width, height int // Configured maximum simulation size.
	gridW, gridH  int // Current simulation size, clipped to the canvas.
	grid          []float64
}

func NewFlame(rng *rand.Rand) *Flame {
	return &Flame{rng: rng, width: flameWidth, height: flameHeight}
}

func (fl *Flame) Name() string { return "Flame" }

func (fl *Flame) Setup() error {
	fl.gridW, fl.gridH = 0, 0
	fl.grid = nil
	return nil
}

// Size returns the configured maximum simulation size.
func (fl *Flame) Size() (int, int) { return fl.width, fl.height }

func (fl *Flame) at(x, y int) float64 { return fl.grid[y*fl.gridW+x] }

func (fl *Flame) set(x, y int, v float64) { fl.grid[y*fl.gridW+x] = v }

func (fl *Flame) Draw(c *visualizer.Canvas, f visualizer.Frame) error {
	w := min(f.Width, fl.width)
	h := min(f.Height-2, fl.height)
	if w <= 0 || h <= 0 {
		return nil
	}
	if w != fl.gridW || h != fl.gridH {
		fl.gridW, fl.gridH = w, h
		fl.grid = make([]float64, w*h)
	}

	fl.cool()

	bass := mean(f.Spectrum, 0, 10) * 3
	mids := mean(f.Spectrum, 10, 30) * 2
	fl.ignite(bass, mids)
	fl.rise(bass)

	fl.render(c, f.Width, f.Height)
	fl.drawLogs(c, f.Width, f.Height)

	return nil
}

// cool subtracts random cooling, stronger at the edges and towards the top.
func (fl *Flame) cool() {
	w, h := fl.gridW, fl.gridH
	half := float64(w) / 2
	for x := range w {
		edge := 0.2 * (1 - float64(min(x, w-x-1))/half)
		for y := range h {
			top := 0.1 * (float64(y) / float64(h))
			v := fl.at(x, y) - (fl.rng.Float64()*0.2 + edge + top)
			fl.set(x, y, clamp(v, 0, 1))
		}
	}
}

// ignite sets the bottom row from the bass level with a center bias and
// random crackle driven by bass and mids.
func (fl *Flame) ignite(bass, mids float64) {
	w := fl.gridW
	half := float64(w) / 2
	for x := range w {
		bias := 1 - 0.5*math.Abs(float64(x)-half)/half
		heat := bass * bias * (fl.rng.Float64()*0.3 + 0.7)
		if fl.rng.Float64() < 0.1*(bass+mids) {
			heat += fl.rng.Float64() * 0.5
		}
		fl.set(x, fl.gridH-1, min(1, heat))
	}
}

// rise propagates heat upwards with a little sideways diffusion.
func (fl *Flame) rise(bass float64) {
	w := fl.gridW
	drift := 0.95 + 0.05*bass
	for y := fl.gridH - 2; y >= 0; y-- {
		src := y + 1
		for x := range w {
			left := fl.at(max(0, x-1), src) * 0.2
			center := fl.at(x, src) * 0.6
			right := fl.at(min(w-1, x+1), src) * 0.2
			fl.set(x, y, min(1, (left+center+right)*drift))
		}
	}
}

func (fl *Flame) render(c *visualizer.Canvas, width, height int) {
	offsetX := (width - fl.gridW) / 2
	offsetY := height - fl.gridH - 1
	for y := range fl.gridH {
		for x := range fl.gridW {
			heat := fl.at(x, y)
			if heat <= 0.01 {
				continue
			}
			idx := min(len(flameGlyphs)-1, int(heat*float64(len(flameGlyphs))))
			color := c.HSV(0.05+(1-heat)*0.08, 0.8+heat*0.2, 0.6+heat*0.4)
			c.Set(offsetX+x, offsetY+y, flameGlyphs[idx], color)
		}
	}
}

func (fl *Flame) drawLogs(c *visualizer.Canvas, width, height int) {
	logW := fl.gridW / 2
	if logW <= 0 {
		return
	}
	logY := height - 1
	start := (width - logW) / 2

	brown := c.RGB(139, 69, 19)
	for x := range logW {
		c.Set(start+x, logY, '▄', brown)
	}
	ember := display.Style{Color: c.HSV(0.05, 1.0, 0.8)}
	for range flameEmbers {
		c.SetCell(start+fl.rng.IntN(logW), logY, '▄', ember)
	}
}

func (fl *Flame) HandleKey(k display.Key) bool {
	if k.Code != display.KeyRune {
		return false
	}
	switch k.Rune {
	case 'w':
		fl.width = min(flameWidthMax, fl.width+flameWidthStep)
	case 'W':
		fl.width = max(flameWidthMin, fl.width-flameWidthStep)
	case 'h':
		fl.height = min(flameHeightMax, fl.height+flameHeightStep)
	case 'H':
		fl.height = max(flameHeightMin, fl.height-flameHeightStep)
	default:
		return false
	}
	fl.Setup()
	return true
}
