// SPDX-License-Identifier: MIT
package analysis

import (
	"testing"

	"termvis/pkg/utils"
)

func TestBandEnergy_Ranges(t *testing.T) {
	a := newTestAnalyzer(t, 0.8, 1.0)
	b := NewBandEnergy(a, DefaultBands())

	// 44100/2048 ≈ 21.5Hz per bin.
	tests := []struct {
		band        int
		first, last int
	}{
		{0, 1, 3},      // sub: 21.5, 43.1
		{1, 3, 12},     // bass: 64.6 .. 236.9
		{5, 186, 1024}, // treble: 4005 .. Nyquist
	}
	for _, tt := range tests {
		first, last := b.Range(tt.band)
		if first != tt.first || last != tt.last {
			t.Errorf("band %d range = [%d, %d), want [%d, %d)", tt.band, first, last, tt.first, tt.last)
		}
	}
}

func TestBandEnergy_DominantBand(t *testing.T) {
	tests := []struct {
		freq float64
		band string
	}{
		{100, "bass"},
		{350, "lowMid"},
		{1000, "mid"},
		{3000, "highMid"},
		{8000, "treble"},
	}

	for _, tt := range tests {
		t.Run(tt.band, func(t *testing.T) {
			a := newTestAnalyzer(t, 0.8, 1.0)
			block := utils.GenerateSineWave(testChunkSize, testSampleRate, tt.freq, 0.8)

			var frame Frame
			for range 5 {
				frame, _ = a.Analyze(block)
			}

			best := frame.Bands[0]
			for _, level := range frame.Bands[1:] {
				if level.Level > best.Level {
					best = level
				}
			}
			if best.Name != tt.band {
				t.Errorf("%vHz loudest band = %s, want %s (%+v)", tt.freq, best.Name, tt.band, frame.Bands)
			}
		})
	}
}
