// SPDX-License-Identifier: MIT
package analysis

import "math"

// FrequencyBand defines the name and frequency range for an energy band.
type FrequencyBand struct {
	Name   string
	LowHz  float64
	HighHz float64
}

// BandLevel is the RMS of the adjusted spectrum inside one band.
type BandLevel struct {
	Name  string  `json:"name"`
	Level float64 `json:"level"`
}

// DefaultBands covers the audible range in six musically named bands. The
// last band is open-ended up to Nyquist.
func DefaultBands() []FrequencyBand {
	return []FrequencyBand{
		{Name: "sub", LowHz: 20, HighHz: 60},
		{Name: "bass", LowHz: 60, HighHz: 250},
		{Name: "lowMid", LowHz: 250, HighHz: 500},
		{Name: "mid", LowHz: 500, HighHz: 2000},
		{Name: "highMid", LowHz: 2000, HighHz: 4000},
		{Name: "treble", LowHz: 4000, HighHz: math.Inf(1)},
	}
}

// BandEnergy summarizes a spectrum into per-band levels. The bin ranges are
// resolved once at construction.
type BandEnergy struct {
	provider SpectrumProvider
	bands    []FrequencyBand
	ranges   [][2]int // [first, last) bin per band
	levels   []BandLevel
}

func NewBandEnergy(provider SpectrumProvider, bands []FrequencyBand) *BandEnergy {
	b := &BandEnergy{
		provider: provider,
		bands:    bands,
		ranges:   make([][2]int, len(bands)),
		levels:   make([]BandLevel, len(bands)),
	}

	bins := provider.ChunkSize() / 2
	for i, band := range bands {
		b.levels[i].Name = band.Name
		first, last := bins, bins
		for bin := range bins {
			freq := provider.FrequencyForBin(bin)
			if freq >= band.LowHz && first == bins {
				first = bin
			}
			if freq >= band.HighHz {
				last = bin
				break
			}
		}
		if first > last {
			first = last
		}
		b.ranges[i] = [2]int{first, last}
	}

	return b
}

// Compute returns the level of each band for the provider's current
// spectrum. The slice is reused between calls.
func (b *BandEnergy) Compute() []BandLevel {
	spectrum := b.provider.Spectrum()
	for i, r := range b.ranges {
		n := r[1] - r[0]
		if n <= 0 {
			b.levels[i].Level = 0
			continue
		}
		var sumSquare float64
		for _, m := range spectrum[r[0]:r[1]] {
			sumSquare += m * m
		}
		b.levels[i].Level = math.Sqrt(sumSquare / float64(n))
	}
	return b.levels
}

// Range returns the [first, last) bin span of band i.
func (b *BandEnergy) Range(i int) (int, int) {
	return b.ranges[i][0], b.ranges[i][1]
}
