// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"math"
	"os"

	"termvis/internal/log"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var ErrInvalidWAV = errors.New("not a valid WAV file")

// FileSource replays a decoded WAV file as mono int16 blocks, looping at the
// end of the file.
type FileSource struct {
	samples    []int16
	sampleRate float64
	pos        int
	buffer     []int16
	pacer      *pacer
}

// OpenFileSource decodes the whole file up front. Multi-channel files are
// downmixed and any bit depth is rescaled to 16 bits.
func OpenFileSource(path string, chunk int) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	samples := downmix(buf)
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: %s has no samples", ErrInvalidWAV, path)
	}

	log.Infof("Loaded %s: %d Hz, %d channel(s), %d-bit, %d frames",
		path, buf.Format.SampleRate, buf.Format.NumChannels, buf.SourceBitDepth, len(samples))

	return &FileSource{
		samples:    samples,
		sampleRate: float64(buf.Format.SampleRate),
		buffer:     make([]int16, chunk),
	}, nil
}

// SampleRate is the file's native rate.
func (s *FileSource) SampleRate() float64 {
	return s.sampleRate
}

// Realtime makes Read sleep so the file plays at its native speed.
func (s *FileSource) Realtime() *FileSource {
	s.pacer = newPacer(s.sampleRate, len(s.buffer))
	return s
}

func (s *FileSource) Read() ([]int16, error) {
	if s.pacer != nil {
		s.pacer.wait()
	}
	for i := range s.buffer {
		s.buffer[i] = s.samples[s.pos]
		s.pos++
		if s.pos == len(s.samples) {
			s.pos = 0
		}
	}
	return s.buffer, nil
}

func (s *FileSource) Close() error { return nil }

func downmix(buf *audio.IntBuffer) []int16 {
	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	shift := 0
	if buf.SourceBitDepth > 0 {
		shift = buf.SourceBitDepth - 16
	}

	frames := len(buf.Data) / channels
	out := make([]int16, frames)
	for i := range frames {
		sum := 0
		for c := range channels {
			sum += buf.Data[i*channels+c]
		}
		v := sum / channels
		switch {
		case shift > 0:
			v >>= shift
		case shift < 0:
			v <<= -shift
		}
		out[i] = int16(max(math.MinInt16, min(math.MaxInt16, v)))
	}
	return out
}
