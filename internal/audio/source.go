// SPDX-License-Identifier: MIT
/*
Package audio provides the input side of the visualizer:
- PortAudio device discovery and a blocking mono int16 capture stream
- Synthetic (demo) and WAV file sources behind the same Source contract
- A branchless noise gate that silences blocks below a threshold

Every Source hands out one fixed-size block per Read. The returned slice is
owned by the source and is only valid until the next Read.
*/
package audio

import "time"

// Source produces fixed-size mono PCM blocks.
type Source interface {
	// Read blocks until one chunk is available.
	Read() ([]int16, error)
	Close() error
}

// pacer holds a non-device source to the real-time rate of its blocks.
type pacer struct {
	interval time.Duration
	next     time.Time
	sleep    func(time.Duration)
	now      func() time.Time
}

func newPacer(sampleRate float64, chunk int) *pacer {
	return &pacer{
		interval: time.Duration(float64(chunk) / sampleRate * float64(time.Second)),
		sleep:    time.Sleep,
		now:      time.Now,
	}
}

// wait sleeps until the next block is due. A caller that falls behind is not
// made to catch up.
func (p *pacer) wait() {
	now := p.now()
	if p.next.IsZero() || now.After(p.next) {
		p.next = now.Add(p.interval)
		return
	}
	p.sleep(p.next.Sub(now))
	p.next = p.next.Add(p.interval)
}
