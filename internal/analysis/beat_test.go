// SPDX-License-Identifier: MIT
package analysis

import (
	"testing"

	"termvis/pkg/utils"
)

func TestBeatDetector_Observe(t *testing.T) {
	tests := []struct {
		name     string
		energies []float64
		want     []bool
	}{
		{
			name:     "below threshold never fires",
			energies: []float64{0.1, 0.2, 0.25, 0.1},
			want:     []bool{false, false, false, false},
		},
		{
			name:     "first loud frame fires",
			energies: []float64{0.0, 0.0, 0.8},
			want:     []bool{false, false, true},
		},
		{
			name:     "sustained level does not refire",
			energies: []float64{0.8, 0.8, 0.8, 0.8, 0.8, 0.8, 0.8},
			want:     []bool{true, false, false, false, false, false, false},
		},
		{
			name:     "cooldown suppresses a quick second onset",
			energies: []float64{0.1, 0.9, 0.1, 2.0, 0.1, 0.1, 0.1, 3.0},
			want:     []bool{false, true, false, false, false, false, false, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewBeatDetector(DefaultBeatThreshold, DefaultBeatRatio, DefaultBeatHistory, DefaultBeatCooldown)
			for i, e := range tt.energies {
				if got := d.Observe(e); got != tt.want[i] {
					t.Errorf("frame %d (energy %v): beat = %v, want %v", i, e, got, tt.want[i])
				}
			}
		})
	}
}

func TestBeatDetector_HistoryWindow(t *testing.T) {
	d := NewBeatDetector(0.1, 1.5, 4, 0)
	for _, e := range []float64{1, 1, 1, 1, 2, 2, 2, 2} {
		d.Observe(e)
	}
	if got := d.Average(); got != 2 {
		t.Errorf("Average() = %v, want 2 once the window has rolled over", got)
	}

	d.Reset()
	if d.Average() != 0 {
		t.Errorf("Average() after Reset = %v", d.Average())
	}
}

func TestAnalyzer_BeatOnBassHit(t *testing.T) {
	a := newTestAnalyzer(t, 0.8, 1.0)
	silence := make([]int16, testChunkSize)
	kick := utils.GenerateSineWave(testChunkSize, testSampleRate, 100, 0.9)

	for range 10 {
		if f, _ := a.Analyze(silence); f.Beat {
			t.Fatal("beat reported on silence")
		}
	}

	beats := 0
	for range 4 {
		f, _ := a.Analyze(kick)
		if f.Beat {
			beats++
		}
	}
	if beats != 1 {
		t.Errorf("beats during a single bass hit = %d, want 1", beats)
	}
}
