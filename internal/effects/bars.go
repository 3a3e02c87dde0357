// SPDX-License-Identifier: MIT
package effects

import (
	"math"

	"termvis/internal/display"
	"termvis/internal/visualizer"

	"github.com/charmbracelet/harmonica"
)

const (
	barCount     = 50
	barBoost     = 1.5
	barBoostStep = 0.1
	barBoostMin  = 0.5
	barBoostMax  = 5.0
	barBlock     = '█'
	barCap       = '▔'
)

// Bars is a classic spectrum analyzer. Low bars get a bass boost that fades
// out towards the high end, and each bar carries a spring-animated peak cap.
type Bars struct {
	boost   float64
	heights []int
	peaks   peakSprings
}

func NewBars() *Bars {
	return &Bars{boost: barBoost}
}

func (b *Bars) Name() string { return "Spectrum Bars" }

func (b *Bars) Setup() error {
	b.heights = make([]int, barCount)
	b.peaks = newPeakSprings(60, 6.0, 0.6)
	b.peaks.resize(barCount)
	return nil
}

// Boost returns the current bass boost factor.
func (b *Bars) Boost() float64 { return b.boost }

// Heights returns the bar heights of the last frame.
func (b *Bars) Heights() []int { return b.heights }

func (b *Bars) Draw(c *visualizer.Canvas, f visualizer.Frame) error {
	width, height := f.Width, f.Height
	maxHeight := height - 3
	if width <= 0 || maxHeight <= 0 || len(f.Spectrum) < 2 {
		clear(b.heights)
		return nil
	}

	barWidth := max(1, width/barCount)
	bars := min(barCount, width/barWidth)

	for i := range bars {
		// Non-linear bin mapping spreads the bass over more bars.
		idx := min(int(math.Pow(float64(i), 1.3))+1, len(f.Spectrum)-1)
		amplitude := f.Spectrum[idx] * (1 + b.boost*(1-float64(i)/barCount))

		barHeight := min(int(amplitude*float64(maxHeight)*3), maxHeight)
		barHeight = max(0, barHeight)
		b.heights[i] = barHeight

		hue := math.Mod(float64(i)/barCount+f.Hue, 1.0)
		for j := range barHeight {
			t := float64(j) / float64(barHeight)
			style := display.Style{Color: c.HSV(hue, 0.8+0.2*t, 0.7+0.3*t), Bold: true}
			y := height - 2 - j
			for dx := range barWidth {
				c.SetCell(i*barWidth+dx, y, barBlock, style)
			}
		}

		peak := b.peaks.step(i, float64(barHeight))
		if capRow := int(math.Round(peak)); capRow > barHeight && capRow <= maxHeight {
			style := display.Style{Color: c.HSV(hue, 0.3, 1.0)}
			for dx := range barWidth {
				c.SetCell(i*barWidth+dx, height-2-capRow, barCap, style)
			}
		}
	}

	return nil
}

func (b *Bars) HandleKey(k display.Key) bool {
	if k.Code != display.KeyRune {
		return false
	}
	switch k.Rune {
	case 'b':
		b.boost = clamp(b.boost+barBoostStep, barBoostMin, barBoostMax)
		return true
	case 'B':
		b.boost = clamp(b.boost-barBoostStep, barBoostMin, barBoostMax)
		return true
	}
	return false
}

// peakSprings animates one value per bar towards its target.
type peakSprings struct {
	spring harmonica.Spring
	pos    []float64
	vel    []float64
}

func newPeakSprings(fps int, frequency, damping float64) peakSprings {
	return peakSprings{spring: harmonica.NewSpring(harmonica.FPS(fps), frequency, damping)}
}

func (s *peakSprings) resize(n int) {
	if len(s.pos) == n {
		return
	}
	s.pos = make([]float64, n)
	s.vel = make([]float64, n)
}

// step moves peak i towards target. Peaks jump up instantly and spring back
// down.
func (s *peakSprings) step(i int, target float64) float64 {
	if target >= s.pos[i] {
		s.pos[i], s.vel[i] = target, 0
		return target
	}
	s.pos[i], s.vel[i] = s.spring.Update(s.pos[i], s.vel[i], target)
	return s.pos[i]
}
