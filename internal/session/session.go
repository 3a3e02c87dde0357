// SPDX-License-Identifier: MIT
/*
Package session runs the render loop: one key poll, one captured and analyzed
block and one drawn frame per iteration, paced to the configured frame rate.

The loop is single threaded. Capture is the only blocking call, and a blocked
capture read stalls the UI for that block; there is no catch-up after a slow
frame.
*/
package session

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"termvis/internal/analysis"
	"termvis/internal/display"
	"termvis/internal/log"
	"termvis/internal/palette"
	"termvis/internal/transport"
	"termvis/internal/visualizer"
)

// State is the session lifecycle state.
type State int

const (
	Running State = iota
	Paused
	Terminated
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

const (
	defaultTitle    = "Terminal Audio Visualizer"
	defaultStep     = 0.1
	defaultFloor    = 0.1
	defaultHueStep  = 0.005
	defaultInterval = 16 * time.Millisecond
)

// Options wires a session together. Display, Source, Analyzer and Registry
// are required.
type Options struct {
	Display  display.Display
	Source   analysis.BlockReader
	Analyzer *analysis.Analyzer
	Registry *visualizer.Registry
	Palette  *palette.Mapper // Defaults to one built for Display.Colors().

	Title           string
	InitialIndex    int
	SensitivityStep float64
	SensitivityMin  float64
	HueStep         float64
	FrameInterval   time.Duration

	// Sinks receive a copy of every analyzed frame. Send must not block.
	Sinks []transport.Transport

	// Clock seams, for tests.
	Now   func() time.Time
	Sleep func(time.Duration)
}

// Session is the render loop controller.
type Session struct {
	display  display.Display
	source   analysis.BlockReader
	analyzer *analysis.Analyzer
	registry *visualizer.Registry
	palette  *palette.Mapper
	sinks    []transport.Transport

	title    string
	step     float64
	floor    float64
	hueStep  float64
	interval time.Duration
	now      func() time.Time
	sleep    func(time.Duration)

	state       State
	index       int
	sensitivity float64
	hue         float64
	frames      uint64
	dropped     uint64
}

// New validates opts and returns a session in the Running state.
func New(opts Options) (*Session, error) {
	switch {
	case opts.Display == nil:
		return nil, errors.New("session: display is required")
	case opts.Source == nil:
		return nil, errors.New("session: audio source is required")
	case opts.Analyzer == nil:
		return nil, errors.New("session: analyzer is required")
	case opts.Registry == nil || opts.Registry.Len() == 0:
		return nil, visualizer.ErrNoVisualizers
	}

	s := &Session{
		display:  opts.Display,
		source:   opts.Source,
		analyzer: opts.Analyzer,
		registry: opts.Registry,
		palette:  opts.Palette,
		sinks:    opts.Sinks,
		title:    opts.Title,
		step:     opts.SensitivityStep,
		floor:    opts.SensitivityMin,
		hueStep:  opts.HueStep,
		interval: opts.FrameInterval,
		now:      opts.Now,
		sleep:    opts.Sleep,
	}
	if s.palette == nil {
		s.palette = palette.New(s.display.Colors())
	}
	if s.title == "" {
		s.title = defaultTitle
	}
	if s.step <= 0 {
		s.step = defaultStep
	}
	if s.floor <= 0 {
		s.floor = defaultFloor
	}
	if s.hueStep < 0 {
		s.hueStep = defaultHueStep
	}
	if s.interval <= 0 {
		s.interval = defaultInterval
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.sleep == nil {
		s.sleep = time.Sleep
	}
	if opts.InitialIndex > 0 && opts.InitialIndex < s.registry.Len() {
		s.index = opts.InitialIndex
	}

	s.setSensitivity(s.analyzer.Sensitivity())

	return s, nil
}

// Run iterates until the session terminates or capture fails. The returned
// error is nil after a quit key.
func (s *Session) Run() error {
	log.Infof("Session: starting with %q (%d visualizers, %s per frame)",
		s.registry.At(s.index).Name(), s.registry.Len(), s.interval)

	for s.state != Terminated {
		start := s.now()
		if err := s.Step(); err != nil {
			s.state = Terminated
			return err
		}
		if s.state == Terminated {
			break
		}
		if rest := s.interval - s.now().Sub(start); rest > 0 {
			s.sleep(rest)
		}
	}

	log.Infof("Session: stopped after %d frames (%d dropped)", s.frames, s.dropped)
	return nil
}

// Step runs one iteration of the loop. Only a capture failure is returned;
// draw failures drop the frame.
func (s *Session) Step() error {
	if k, ok := s.display.PollKey(); ok {
		if !s.handleKey(k) {
			if h, ok := s.registry.At(s.index).(visualizer.KeyHandler); ok {
				h.HandleKey(k)
			}
		}
	}
	if s.state != Running {
		return nil
	}

	width, height := s.display.Size()

	result, err := s.analyzer.CaptureAndAnalyze(s.source)
	if err != nil {
		return err
	}

	s.hue = math.Mod(s.hue+s.hueStep, 1.0)

	s.display.Clear()
	s.drawHeader(width)

	vis := s.registry.At(s.index)
	// The header owns row 0.
	canvas := visualizer.NewCanvas(s.display, s.palette, 0, 1, width, height-1)
	frame := visualizer.Frame{
		Spectrum: result.Spectrum,
		Energy:   result.Energy,
		Bands:    result.Bands,
		Beat:     result.Beat,
		Width:    width,
		Height:   max(0, height-1),
		Hue:      s.hue,
	}
	if err := safeDraw(vis, canvas, frame); err != nil {
		s.dropped++
		log.Debugf("Session: dropped frame from %q: %v", vis.Name(), err)
	}

	s.display.Show()
	s.publish(vis.Name(), result)
	s.frames++

	return nil
}

// safeDraw turns a panic or error in a visualizer into a dropped frame.
func safeDraw(v visualizer.Visualizer, c *visualizer.Canvas, f visualizer.Frame) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return v.Draw(c, f)
}

// Header returns the status line for the current state.
func (s *Session) Header() string {
	return fmt.Sprintf("%s | %s | %d/%d | Sensitivity: %.1f | [Q]uit | [M]ode | [+/-] Sensitivity | [Space] Pause",
		s.title, s.registry.At(s.index).Name(), s.index+1, s.registry.Len(), s.sensitivity)
}

func (s *Session) drawHeader(width int) {
	style := display.Style{Color: palette.Default, Bold: true}
	display.DrawText(s.display, 0, 0, display.Truncate(s.Header(), width), style)
}

func (s *Session) publish(mode string, result analysis.Frame) {
	if len(s.sinks) == 0 {
		return
	}
	msg := transport.Frame{
		Sequence:    s.frames,
		Timestamp:   s.now().UnixNano(),
		Mode:        mode,
		Sensitivity: s.sensitivity,
		Energy:      result.Energy,
		Beat:        result.Beat,
		Bands:       slices.Clone(result.Bands),
		Spectrum:    slices.Clone(result.Spectrum),
	}
	for _, sink := range s.sinks {
		if err := sink.Send(msg); err != nil {
			log.Debugf("Session: frame sink: %v", err)
		}
	}
}

// setSensitivity clamps to the floor and rounds away float drift from
// repeated steps.
func (s *Session) setSensitivity(v float64) {
	v = math.Round(v*1e6) / 1e6
	s.sensitivity = max(s.floor, v)
	s.analyzer.SetSensitivity(s.sensitivity)
}

// State returns the lifecycle state.
func (s *Session) State() State { return s.state }

// Sensitivity returns the current sensitivity factor.
func (s *Session) Sensitivity() float64 { return s.sensitivity }

// Hue returns the shared hue offset in [0, 1).
func (s *Session) Hue() float64 { return s.hue }

// Index returns the active visualizer's registry index.
func (s *Session) Index() int { return s.index }

// Frames returns the number of rendered frames.
func (s *Session) Frames() uint64 { return s.frames }

// Dropped returns the number of frames whose draw failed.
func (s *Session) Dropped() uint64 { return s.dropped }
