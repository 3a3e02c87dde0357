// SPDX-License-Identifier: MIT
package effects

import (
	"math"
	"math/rand/v2"

	"termvis/internal/display"
	"termvis/internal/visualizer"
)

const (
	particleLimit     = 100
	particleLimitStep = 50
	particleLimitMin  = 50
	particleLimitMax  = 500
	particleGravity   = 0.1
	particleDecay     = 0.02
	particleBurst     = 20 // Extra particles spawned on a beat.
)

var particleGlyphs = []rune{'.', '*', '+', '•', '○', '◌', '◦'}

type particle struct {
	x, y   float64
	vx, vy float64
	life   float64
	hue    float64
	glyph  rune
}

// Particles emits sparks from the bottom center, more when the music is
// loud and a burst on every beat.
type Particles struct {
	rng       *rand.Rand
	particles []particle
	limit     int
}

func NewParticles(rng *rand.Rand) *Particles {
	return &Particles{rng: rng, limit: particleLimit}
}

func (p *Particles) Name() string { return "Particles" }

func (p *Particles) Setup() error {
	p.particles = make([]particle, 0, particleLimitMax)
	return nil
}

// Count returns the number of live particles.
func (p *Particles) Count() int { return len(p.particles) }

// Limit returns the spawn cap.
func (p *Particles) Limit() int { return p.limit }

func (p *Particles) Draw(c *visualizer.Canvas, f visualizer.Frame) error {
	if f.Energy > 0.1 {
		p.spawn(int(f.Energy*10), f.Width, f.Height)
	}
	if f.Beat {
		p.spawn(particleBurst, f.Width, f.Height)
	}

	alive := p.particles[:0]
	for _, pt := range p.particles {
		pt.x += pt.vx
		pt.y += pt.vy
		pt.vy += particleGravity
		pt.life -= particleDecay

		if pt.life <= 0 || pt.y < 0 || pt.y >= float64(f.Height) || pt.x < 0 || pt.x >= float64(f.Width) {
			continue
		}

		hue := math.Mod(pt.hue+f.Hue, 1.0)
		c.SetCell(int(pt.x), int(pt.y), pt.glyph, display.Style{Color: c.HSV(hue, 0.8, 0.7+0.3*pt.life), Bold: true})
		alive = append(alive, pt)
	}
	p.particles = alive

	return nil
}

func (p *Particles) spawn(n, width, height int) {
	n = min(n, p.limit-len(p.particles))
	for range n {
		p.particles = append(p.particles, particle{
			x:     float64(width/2 + p.rng.IntN(21) - 10),
			y:     float64(height - 4),
			vx:    p.rng.Float64()*4 - 2,
			vy:    -2 - p.rng.Float64()*3,
			life:  0.5 + p.rng.Float64()*0.5,
			hue:   p.rng.Float64(),
			glyph: particleGlyphs[p.rng.IntN(len(particleGlyphs))],
		})
	}
}

func (p *Particles) HandleKey(k display.Key) bool {
	if k.Code != display.KeyRune {
		return false
	}
	switch k.Rune {
	case 'p':
		p.limit = min(particleLimitMax, p.limit+particleLimitStep)
		return true
	case 'P':
		p.limit = max(particleLimitMin, p.limit-particleLimitStep)
		return true
	}
	return false
}
