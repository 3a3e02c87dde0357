// SPDX-License-Identifier: MIT
package analysis

const (
	DefaultBeatThreshold = 0.3 // Minimum energy for an onset.
	DefaultBeatRatio     = 1.3 // Energy must exceed the recent average by this factor.
	DefaultBeatHistory   = 43  // ~1s of frames at 44.1kHz/1024.
	DefaultBeatCooldown  = 4   // Frames suppressed after an onset.
)

// BeatDetector flags energy onsets: frames whose energy clears an absolute
// threshold and jumps well above the average of the recent history.
type BeatDetector struct {
	threshold float64
	ratio     float64
	cooldown  int

	history []float64 // Ring of recent energies.
	next    int
	filled  int
	sum     float64
	hold    int // Frames left in the cooldown.
}

func NewBeatDetector(threshold, ratio float64, history, cooldown int) *BeatDetector {
	if history < 1 {
		history = 1
	}
	return &BeatDetector{
		threshold: threshold,
		ratio:     ratio,
		cooldown:  cooldown,
		history:   make([]float64, history),
	}
}

// Observe records energy and reports whether it is an onset.
func (d *BeatDetector) Observe(energy float64) bool {
	avg := 0.0
	if d.filled > 0 {
		avg = d.sum / float64(d.filled)
	}

	beat := false
	if d.hold > 0 {
		d.hold--
	} else if energy > d.threshold && energy > avg*d.ratio {
		beat = true
		d.hold = d.cooldown
	}

	d.sum += energy - d.history[d.next]
	d.history[d.next] = energy
	d.next = (d.next + 1) % len(d.history)
	if d.filled < len(d.history) {
		d.filled++
	}

	return beat
}

// Average returns the mean energy over the history window.
func (d *BeatDetector) Average() float64 {
	if d.filled == 0 {
		return 0
	}
	return d.sum / float64(d.filled)
}

func (d *BeatDetector) Reset() {
	clear(d.history)
	d.next, d.filled, d.sum, d.hold = 0, 0, 0, 0
}
