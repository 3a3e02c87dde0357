// SPDX-License-Identifier: MIT
package audio

import "math"

// Gate is a noise gate: blocks whose peak amplitude does not exceed the
// threshold are zeroed before analysis.
type Gate struct {
	enabled   bool
	threshold int32 // Absolute amplitude threshold (0-32767)
}

// NewGate returns a gate at the given 0-1 threshold. A zero threshold returns
// a disabled gate.
func NewGate(threshold float64) *Gate {
	g := &Gate{}
	g.SetThreshold(threshold)
	g.enabled = threshold > 0
	return g
}

func (g *Gate) Enable() {
	g.enabled = true
}

func (g *Gate) Disable() {
	g.enabled = false
}

func (g *Gate) Enabled() bool {
	return g.enabled
}

// SetThreshold adjusts the noise gate threshold.
// The value is in the range of 0.0-1.0 where 0=always open, 1=always closed.
func (g *Gate) SetThreshold(threshold float64) {
	if threshold < 0.0 {
		threshold = 0.0
	}
	if threshold > 1.0 {
		threshold = 1.0
	}

	g.threshold = int32(threshold * float64(math.MaxInt16))
}

// Threshold returns the current threshold in the range 0.0-1.0.
func (g *Gate) Threshold() float64 {
	return float64(g.threshold) / float64(math.MaxInt16)
}

// Open reports whether the block passes the gate.
func (g *Gate) Open(block []int16) bool {
	if !g.enabled {
		return true
	}
	return peak(block) > g.threshold
}

// Apply zeroes the block in place when the gate is closed.
func (g *Gate) Apply(block []int16) {
	if g.Open(block) {
		return
	}
	clear(block)
}

// peak returns the largest absolute sample without branching in the loop.
func peak(block []int16) int32 {
	var maxAmplitude int32
	for _, s := range block {
		sample := int32(s)
		mask := sample >> 31
		amplitude := (sample ^ mask) - mask
		diff := amplitude - maxAmplitude
		maxAmplitude += (diff & (diff >> 31)) ^ diff
	}
	return maxAmplitude
}

type gatedSource struct {
	Source
	gate *Gate
}

// WithGate wraps src so every block passes through g. A nil or disabled gate
// returns src unchanged.
func WithGate(src Source, g *Gate) Source {
	if g == nil || !g.Enabled() {
		return src
	}
	return &gatedSource{Source: src, gate: g}
}

func (s *gatedSource) Read() ([]int16, error) {
	block, err := s.Source.Read()
	if err != nil {
		return nil, err
	}
	s.gate.Apply(block)
	return block, nil
}
