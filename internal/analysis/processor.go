// SPDX-License-Identifier: MIT
package analysis

// SpectrumProvider exposes the latest adjusted spectrum and its frequency
// mapping. It decouples secondary analysis stages (band energy, sinks) from
// the analyzer that owns the buffers.
type SpectrumProvider interface {
	Spectrum() []float64             // Spectrum returns the latest adjusted spectrum without copying.
	FrequencyForBin(bin int) float64 // FrequencyForBin returns the center frequency (Hz) for a bin.
	ChunkSize() int                  // ChunkSize returns the number of samples per analyzed block.
	SampleRate() float64             // SampleRate returns the sample rate used for the analysis.
}
