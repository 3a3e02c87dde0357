// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"time"

	"termvis/internal/config"
	"termvis/internal/log"

	"github.com/gordonklaus/portaudio"
)

// Stream is a blocking, input-only PortAudio stream delivering mono int16
// blocks of the configured chunk size.
type Stream struct {
	device     *portaudio.DeviceInfo
	latency    time.Duration
	sampleRate float64
	buffer     []int16
	stream     *portaudio.Stream
	overflows  uint64
}

// OpenStream opens and starts the capture stream described by cfg. PortAudio
// must already be initialized.
func OpenStream(cfg config.AudioConfig) (*Stream, error) {
	device, err := InputDevice(cfg.InputDevice)
	if err != nil {
		return nil, err
	}

	s := &Stream{
		device:     device,
		sampleRate: cfg.SampleRate,
		buffer:     make([]int16, cfg.ChunkSize),
	}

	if cfg.LowLatency {
		s.latency = device.DefaultLowInputLatency
	} else {
		s.latency = device.DefaultHighInputLatency
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: 1,
			Device:   device,
			Latency:  s.latency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: cfg.ChunkSize,
		SampleRate:      cfg.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, &s.buffer)
	if err != nil {
		return nil, fmt.Errorf("failed to open input stream on %q: %w", device.Name, err)
	}
	s.stream = stream

	if err := s.stream.Start(); err != nil {
		s.stream.Close()
		return nil, fmt.Errorf("failed to start input stream: %w", err)
	}

	log.Infof("Capturing from %q at %.0f Hz, %d samples per block (latency %v)",
		device.Name, cfg.SampleRate, cfg.ChunkSize, s.latency)

	return s, nil
}

// Read blocks for one chunk. Input overflows are counted and swallowed; the
// buffer holds whatever the device delivered.
func (s *Stream) Read() ([]int16, error) {
	if s.stream == nil {
		return nil, errors.New("stream is closed")
	}
	if err := s.stream.Read(); err != nil {
		if !isOverflow(err) {
			return nil, fmt.Errorf("failed to read input stream: %w", err)
		}
		s.overflows++
		log.Debugf("Input overflow (%d so far)", s.overflows)
	}
	return s.buffer, nil
}

// Device returns the name of the capture device.
func (s *Stream) Device() string {
	return s.device.Name
}

// Close stops and closes the stream. Safe to call more than once.
func (s *Stream) Close() error {
	if s.stream == nil {
		return nil
	}

	stream := s.stream
	s.stream = nil

	if err := stream.Stop(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to stop input stream: %w", err)
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("failed to close input stream: %w", err)
	}
	return nil
}

func isOverflow(err error) bool {
	return errors.Is(err, portaudio.InputOverflowed)
}
