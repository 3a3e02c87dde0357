// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"math/cmplx"

	"termvis/internal/log"
	"termvis/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
)

var ErrBlockSize = errors.New("audio block does not match the chunk size")

// Config holds the analyzer constants. They are fixed for the lifetime of an
// Analyzer; only the sensitivity changes at run time.
type Config struct {
	ChunkSize     int     // Samples per block, power of two.
	SampleRate    float64 // Hz, used for bin frequencies.
	Smoothing     float64 // EMA factor α applied to the previous smoothed frame.
	Normalization float64 // Magnitudes are divided by Normalization*ChunkSize.
	Sensitivity   float64 // Initial sensitivity factor.
}

// Frame is the per-block analysis result. Spectrum is owned by the Analyzer
// and is only valid until the next call to Analyze.
type Frame struct {
	Spectrum []float64   // Smoothed, sensitivity-adjusted one-sided spectrum (ChunkSize/2 bins).
	Energy   float64     // 2 * mean of Spectrum[:ChunkSize/4].
	Bands    []BandLevel // Per-band RMS of Spectrum.
	Beat     bool        // Energy onset detected on this block.
}

// Pre-allocated buffers for the transform and the smoothing state.
type workspace struct {
	input    []float64    // Block converted to float64.
	coeffs   []complex128 // FFT output, ChunkSize/2+1 values.
	previous []float64    // Smoothed spectrum of the prior frame.
	smoothed []float64    // Persistent exponential moving average.
	adjusted []float64    // smoothed * sensitivity, handed out in Frame.
}

// Analyzer turns PCM blocks into smoothed magnitude spectra and an energy
// scalar. It is not safe for concurrent use; the render loop is its only
// caller.
type Analyzer struct {
	fft         *fourier.FFT
	chunkSize   int
	bins        int
	sampleRate  float64
	alpha       float64
	scale       float64 // 1 / (Normalization * ChunkSize)
	sensitivity float64
	workspace   workspace

	bands *BandEnergy
	beat  *BeatDetector
}

// Compile-time check for the provider used by band energy.
var _ SpectrumProvider = (*Analyzer)(nil)

// NewAnalyzer validates cfg and allocates every buffer the hot path needs.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if !bitint.IsPowerOfTwo(cfg.ChunkSize) || cfg.ChunkSize < 4 {
		return nil, fmt.Errorf("chunk size must be a power of 2 >= 4, got %d", cfg.ChunkSize)
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", cfg.SampleRate)
	}
	if cfg.Smoothing < 0 || cfg.Smoothing >= 1 {
		return nil, fmt.Errorf("smoothing must be in [0, 1), got %f", cfg.Smoothing)
	}
	if cfg.Normalization <= 0 {
		return nil, fmt.Errorf("normalization must be positive, got %f", cfg.Normalization)
	}
	if cfg.Sensitivity <= 0 {
		return nil, fmt.Errorf("sensitivity must be positive, got %f", cfg.Sensitivity)
	}

	bins := cfg.ChunkSize / 2

	log.Debugf("Analysis: initializing analyzer (chunk %d, %.1f Hz, α %.2f)", cfg.ChunkSize, cfg.SampleRate, cfg.Smoothing)

	a := &Analyzer{
		fft:         fourier.NewFFT(cfg.ChunkSize),
		chunkSize:   cfg.ChunkSize,
		bins:        bins,
		sampleRate:  cfg.SampleRate,
		alpha:       cfg.Smoothing,
		scale:       1 / (cfg.Normalization * float64(cfg.ChunkSize)),
		sensitivity: cfg.Sensitivity,
		workspace: workspace{
			input:    make([]float64, cfg.ChunkSize),
			coeffs:   make([]complex128, bins+1),
			previous: make([]float64, bins),
			smoothed: make([]float64, bins),
			adjusted: make([]float64, bins),
		},
		beat: NewBeatDetector(DefaultBeatThreshold, DefaultBeatRatio, DefaultBeatHistory, DefaultBeatCooldown),
	}
	a.bands = NewBandEnergy(a, DefaultBands())

	return a, nil
}

// BlockReader is the capture side of the pipeline.
type BlockReader interface {
	Read() ([]int16, error)
}

// CaptureAndAnalyze reads exactly one block from src and analyzes it.
// Capture failures are returned as is; the caller decides whether they are
// fatal.
func (a *Analyzer) CaptureAndAnalyze(src BlockReader) (Frame, error) {
	block, err := src.Read()
	if err != nil {
		return Frame{}, fmt.Errorf("capture failed: %w", err)
	}
	return a.Analyze(block)
}

// Analyze runs one block through transform, normalization, smoothing and
// sensitivity, and derives the energy scalar, band levels and beat flag.
func (a *Analyzer) Analyze(block []int16) (Frame, error) {
	if len(block) != a.chunkSize {
		return Frame{}, fmt.Errorf("%w: got %d samples, want %d", ErrBlockSize, len(block), a.chunkSize)
	}

	ws := &a.workspace

	for i, s := range block {
		ws.input[i] = float64(s)
	}

	a.fft.Coefficients(ws.coeffs, ws.input)

	copy(ws.previous, ws.smoothed)

	var sum float64
	quarter := a.chunkSize / 4
	for i := range a.bins {
		raw := cmplx.Abs(ws.coeffs[i]) * a.scale
		ws.smoothed[i] = ws.previous[i]*a.alpha + raw*(1-a.alpha)
		ws.adjusted[i] = ws.smoothed[i] * a.sensitivity
		if i < quarter {
			sum += ws.adjusted[i]
		}
	}

	energy := 2 * sum / float64(quarter)

	return Frame{
		Spectrum: ws.adjusted,
		Energy:   energy,
		Bands:    a.bands.Compute(),
		Beat:     a.beat.Observe(energy),
	}, nil
}

// Reset zeroes the smoothing state.
func (a *Analyzer) Reset() {
	clear(a.workspace.previous)
	clear(a.workspace.smoothed)
	clear(a.workspace.adjusted)
	a.beat.Reset()
}

// SetSensitivity changes the factor applied from the next frame on.
// Non-positive values are ignored.
func (a *Analyzer) SetSensitivity(s float64) {
	if s <= 0 {
		return
	}
	a.sensitivity = s
}

func (a *Analyzer) Sensitivity() float64 {
	return a.sensitivity
}

// Smoothed returns a copy of the unadjusted smoothed spectrum.
func (a *Analyzer) Smoothed() []float64 {
	return append([]float64(nil), a.workspace.smoothed...)
}

// Spectrum returns the adjusted spectrum of the last frame without copying.
func (a *Analyzer) Spectrum() []float64 {
	return a.workspace.adjusted
}

// FrequencyForBin returns the center frequency (Hz) for a spectrum bin, or 0
// for an index outside the spectrum.
func (a *Analyzer) FrequencyForBin(bin int) float64 {
	if bin < 0 || bin >= a.bins {
		return 0.0
	}
	return float64(bin) * (a.sampleRate / float64(a.chunkSize))
}

// BinForFrequency is the inverse of FrequencyForBin, clamped to the spectrum.
func (a *Analyzer) BinForFrequency(hz float64) int {
	bin := int(hz * float64(a.chunkSize) / a.sampleRate)
	return max(0, min(a.bins-1, bin))
}

func (a *Analyzer) ChunkSize() int {
	return a.chunkSize
}

func (a *Analyzer) SampleRate() float64 {
	return a.sampleRate
}
