// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"math/rand/v2"
)

// DemoSource synthesizes a musical-ish signal from amplitude and frequency
// modulated oscillators so the visualizer runs without an input device.
type DemoSource struct {
	sampleRate float64
	time       float64
	oscs       []demoOsc
	buffer     []int16
	noise      *rand.Rand
	pacer      *pacer
}

type demoOsc struct {
	freq     float64
	amp      float64
	ampMod   float64
	ampModF  float64
	freqMod  float64
	freqModF float64
}

// NewDemoSource returns an unpaced demo source; call Realtime to hold it to
// the block rate of a real device.
func NewDemoSource(sampleRate float64, chunk int) *DemoSource {
	return &DemoSource{
		sampleRate: sampleRate,
		buffer:     make([]int16, chunk),
		noise:      rand.New(rand.NewPCG(1, 2)),
		oscs: []demoOsc{
			{freq: 55, amp: 0.8, ampMod: 0.9, ampModF: 2.1, freqMod: 10, freqModF: 2.1},
			{freq: 80, amp: 0.6, ampMod: 0.8, ampModF: 1.05},
			{freq: 150, amp: 0.4, ampMod: 0.7, ampModF: 3.3},
			{freq: 220, amp: 0.35, ampMod: 0.6, ampModF: 1.7},
			{freq: 440, amp: 0.3, ampMod: 0.8, ampModF: 0.8},
			{freq: 660, amp: 0.25, ampMod: 0.75, ampModF: 0.6},
			{freq: 880, amp: 0.2, ampMod: 0.6, ampModF: 1.5},
			{freq: 1800, amp: 0.1, ampMod: 0.6, ampModF: 3.0},
			{freq: 3600, amp: 0.06, ampMod: 0.4, ampModF: 2.2},
			{freq: 8000, amp: 0.03, ampMod: 0.4, ampModF: 5.5},
		},
	}
}

// Realtime makes Read sleep so blocks arrive at sampleRate/chunk per second.
func (d *DemoSource) Realtime() *DemoSource {
	d.pacer = newPacer(d.sampleRate, len(d.buffer))
	return d
}

func (d *DemoSource) Read() ([]int16, error) {
	if d.pacer != nil {
		d.pacer.wait()
	}

	dt := 1.0 / d.sampleRate
	for i := range d.buffer {
		t := d.time + float64(i)*dt
		sample := 0.0

		for j := range d.oscs {
			osc := &d.oscs[j]
			amp := osc.amp * (1 - osc.ampMod + osc.ampMod*math.Abs(math.Sin(2*math.Pi*osc.ampModF*t)))
			freq := osc.freq + osc.freqMod*math.Sin(2*math.Pi*osc.freqModF*t)
			sample += amp * math.Sin(2*math.Pi*freq*t)
		}

		sample += (d.noise.Float64()*2 - 1) * 0.01
		d.buffer[i] = toInt16(sample * 0.3)
	}
	d.time += float64(len(d.buffer)) * dt

	return d.buffer, nil
}

func (d *DemoSource) Close() error { return nil }

// toInt16 converts a [-1, 1] sample to int16 full scale, clipping.
func toInt16(v float64) int16 {
	v = math.Max(-1, math.Min(1, v))
	return int16(math.Round(v * math.MaxInt16))
}
