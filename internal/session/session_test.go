// SPDX-License-Identifier: MIT
package session

import (
	"errors"
	"io"
	"math"
	"os"
	"strings"
	"testing"
	"time"

	"termvis/internal/analysis"
	"termvis/internal/display"
	"termvis/internal/effects"
	"termvis/internal/log"
	"termvis/internal/transport"
	"termvis/internal/visualizer"
	"termvis/pkg/utils"
)

const (
	testChunkSize  = 2048
	testSampleRate = 44100
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type scriptedSource struct {
	block []int16
	err   error
	reads int
}

func (s *scriptedSource) Read() ([]int16, error) {
	s.reads++
	if s.err != nil {
		return nil, s.err
	}
	return s.block, nil
}

type fakeVisualizer struct {
	name   string
	draws  int
	keys   []display.Key
	panics bool
	err    error
	onDraw func(visualizer.Frame)
}

func (f *fakeVisualizer) Name() string { return f.name }
func (f *fakeVisualizer) Setup() error { return nil }

func (f *fakeVisualizer) Draw(c *visualizer.Canvas, fr visualizer.Frame) error {
	f.draws++
	if f.onDraw != nil {
		f.onDraw(fr)
	}
	if f.panics {
		panic("kaboom")
	}
	c.Text(0, 0, f.name, display.Style{})
	return f.err
}

func (f *fakeVisualizer) HandleKey(k display.Key) bool {
	f.keys = append(f.keys, k)
	return true
}

type fixture struct {
	session  *Session
	display  *display.Memory
	source   *scriptedSource
	analyzer *analysis.Analyzer
	vis      []*fakeVisualizer
	sink     *utils.MockTransport
}

func newFixture(t *testing.T, opts Options, vis ...*fakeVisualizer) *fixture {
	t.Helper()

	a, err := analysis.NewAnalyzer(analysis.Config{
		ChunkSize:     testChunkSize,
		SampleRate:    testSampleRate,
		Smoothing:     0.8,
		Normalization: 128,
		Sensitivity:   1.0,
	})
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}

	if len(vis) == 0 {
		vis = []*fakeVisualizer{{name: "Alpha"}, {name: "Beta"}}
	}
	entries := make([]visualizer.Entry, len(vis))
	for i, v := range vis {
		entries[i] = visualizer.Entry{Key: strings.ToLower(v.name), New: func() (visualizer.Visualizer, error) { return v, nil }}
	}
	r, err := visualizer.Discover(entries)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	f := &fixture{
		display:  display.NewMemory(80, 24, 256),
		source:   &scriptedSource{block: make([]int16, testChunkSize)},
		analyzer: a,
		vis:      vis,
		sink:     &utils.MockTransport{},
	}
	opts.Display = f.display
	opts.Source = f.source
	opts.Analyzer = a
	opts.Registry = r
	opts.Sinks = append(opts.Sinks, f.sink)
	if opts.Sleep == nil {
		opts.Sleep = func(time.Duration) {}
	}

	if f.session, err = New(opts); err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return f
}

func (f *fixture) step(t *testing.T, n int) {
	t.Helper()
	for range n {
		if err := f.session.Step(); err != nil {
			t.Fatalf("Step() error = %v", err)
		}
	}
}

func (f *fixture) press(t *testing.T, keys ...display.Key) {
	t.Helper()
	for _, k := range keys {
		f.display.Push(k)
		f.step(t, 1)
	}
}

func runeKeys(s string) []display.Key {
	keys := make([]display.Key, 0, len(s))
	for _, r := range s {
		keys = append(keys, display.RuneKey(r))
	}
	return keys
}

func TestNew_RequiresCollaborators(t *testing.T) {
	f := newFixture(t, Options{})
	r, _ := visualizer.Discover([]visualizer.Entry{{Key: "a", New: func() (visualizer.Visualizer, error) { return &fakeVisualizer{name: "A"}, nil }}})

	tests := []struct {
		name string
		opts Options
	}{
		{"no display", Options{Source: f.source, Analyzer: f.analyzer, Registry: r}},
		{"no source", Options{Display: f.display, Analyzer: f.analyzer, Registry: r}},
		{"no analyzer", Options{Display: f.display, Source: f.source, Registry: r}},
		{"no registry", Options{Display: f.display, Source: f.source, Analyzer: f.analyzer}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts); err == nil {
				t.Error("New() succeeded")
			}
		})
	}

	if _, err := New(Options{Display: f.display, Source: f.source, Analyzer: f.analyzer}); !errors.Is(err, visualizer.ErrNoVisualizers) {
		t.Errorf("error = %v, want %v", err, visualizer.ErrNoVisualizers)
	}
}

func TestNew_Defaults(t *testing.T) {
	f := newFixture(t, Options{InitialIndex: 1})
	s := f.session

	if s.State() != Running {
		t.Errorf("State() = %v, want running", s.State())
	}
	if s.Index() != 1 {
		t.Errorf("Index() = %d, want 1", s.Index())
	}
	if s.Sensitivity() != 1.0 {
		t.Errorf("Sensitivity() = %v, want 1.0", s.Sensitivity())
	}
	if s.interval != defaultInterval || s.step != defaultStep || s.floor != defaultFloor {
		t.Errorf("defaults = %s %v %v", s.interval, s.step, s.floor)
	}

	if f := newFixture(t, Options{InitialIndex: 9}); f.session.Index() != 0 {
		t.Errorf("out of range initial index: Index() = %d, want 0", f.session.Index())
	}
}

func TestStep_RendersFrame(t *testing.T) {
	f := newFixture(t, Options{})
	f.step(t, 1)

	if f.source.reads != 1 {
		t.Errorf("reads = %d, want 1", f.source.reads)
	}
	if f.display.Shows() != 1 || f.session.Frames() != 1 {
		t.Errorf("shows = %d, frames = %d", f.display.Shows(), f.session.Frames())
	}
	if f.vis[0].draws != 1 || f.vis[1].draws != 0 {
		t.Errorf("draws = %d, %d; only the active visualizer draws", f.vis[0].draws, f.vis[1].draws)
	}

	header := f.display.Row(0)
	want := "Terminal Audio Visualizer | Alpha | 1/2 | Sensitivity: 1.0 | [Q]uit | [M]ode"
	if !strings.HasPrefix(header, want) {
		t.Errorf("header = %q, want prefix %q", header, want)
	}
	// The canvas starts below the header.
	if got := f.display.Row(1); !strings.HasPrefix(got, "Alpha") {
		t.Errorf("row 1 = %q, want the visualizer output", got)
	}
}

func TestStep_HeaderTruncated(t *testing.T) {
	f := newFixture(t, Options{Title: "Custom"})
	f.display.Resize(12, 5)
	f.step(t, 1)

	if got := f.display.Row(0); got != "Custom | Alp" {
		t.Errorf("header = %q", got)
	}
}

func TestStep_TinyDisplay(t *testing.T) {
	var got []visualizer.Frame
	v := &fakeVisualizer{name: "Alpha", onDraw: func(fr visualizer.Frame) { got = append(got, fr) }}
	f := newFixture(t, Options{}, v)

	for _, size := range [][2]int{{0, 0}, {1, 1}, {5, 2}} {
		f.display.Resize(size[0], size[1])
		f.step(t, 1)
	}

	want := [][2]int{{0, 0}, {1, 0}, {5, 1}}
	for i, fr := range got {
		if fr.Width != want[i][0] || fr.Height != want[i][1] {
			t.Errorf("frame %d geometry = %dx%d, want %dx%d", i, fr.Width, fr.Height, want[i][0], want[i][1])
		}
	}
}

func TestPause(t *testing.T) {
	f := newFixture(t, Options{})
	f.step(t, 1)
	shows, reads, hue := f.display.Shows(), f.source.reads, f.session.Hue()

	f.press(t, display.RuneKey(' '))
	if f.session.State() != Paused {
		t.Fatalf("State() = %v, want paused", f.session.State())
	}
	f.step(t, 5)

	// Global and visualizer keys still work while paused.
	f.press(t, runeKeys("+mx")...)

	if f.source.reads != reads || f.display.Shows() != shows || f.session.Hue() != hue {
		t.Errorf("paused session captured or drew: reads %d->%d shows %d->%d", reads, f.source.reads, shows, f.display.Shows())
	}
	if f.session.Sensitivity() != 1.1 {
		t.Errorf("Sensitivity() = %v, want 1.1", f.session.Sensitivity())
	}
	if f.session.Index() != 1 {
		t.Errorf("Index() = %d, want 1", f.session.Index())
	}
	if len(f.vis[1].keys) != 1 || f.vis[1].keys[0] != display.RuneKey('x') {
		t.Errorf("visualizer keys = %v, want [x]", f.vis[1].keys)
	}

	f.press(t, display.RuneKey(' '))
	if f.session.State() != Running {
		t.Fatalf("State() = %v, want running", f.session.State())
	}
	if f.source.reads != reads+1 || f.vis[1].draws != 1 {
		t.Errorf("resume: reads %d draws %d", f.source.reads, f.vis[1].draws)
	}
}

func TestSensitivityKeys(t *testing.T) {
	f := newFixture(t, Options{})

	f.press(t, runeKeys("+++++")...)
	if got := f.session.Sensitivity(); got != 1.5 {
		t.Errorf("after 5 up: Sensitivity() = %v, want 1.5", got)
	}
	if got := f.analyzer.Sensitivity(); got != 1.5 {
		t.Errorf("analyzer sensitivity = %v, want 1.5", got)
	}

	f.press(t, display.RuneKey('='))
	if got := f.session.Sensitivity(); got != 1.6 {
		t.Errorf("'=' is an alias for up: Sensitivity() = %v", got)
	}

	f.press(t, runeKeys(strings.Repeat("-", 30))...)
	if got := f.session.Sensitivity(); got != 0.1 {
		t.Errorf("after 30 down: Sensitivity() = %v, want the 0.1 floor", got)
	}
	if !strings.Contains(f.display.Row(0), "Sensitivity: 0.1") {
		t.Errorf("header = %q", f.display.Row(0))
	}

	for range 100 {
		f.session.setSensitivity(f.session.Sensitivity() + 0.1)
	}
	if got := f.session.Sensitivity(); math.Abs(got-10.1) > 1e-9 {
		t.Errorf("no ceiling expected: Sensitivity() = %v", got)
	}
}

func TestModeKey_CyclesAndKeepsState(t *testing.T) {
	vis := []*fakeVisualizer{{name: "Alpha"}, {name: "Beta"}, {name: "Gamma"}}
	f := newFixture(t, Options{}, vis...)

	f.step(t, 2)
	f.press(t, display.RuneKey('m'))
	f.step(t, 1)
	f.press(t, display.RuneKey('m'), display.RuneKey('m'))

	if f.session.Index() != 0 {
		t.Errorf("Index() = %d, want wrap to 0", f.session.Index())
	}
	got := []int{vis[0].draws, vis[1].draws, vis[2].draws}
	want := []int{3, 2, 1}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("draws = %v, want %v", got, want)
			break
		}
	}
	if !strings.Contains(f.display.Row(0), "| Alpha | 1/3 |") {
		t.Errorf("header = %q", f.display.Row(0))
	}
}

func TestKeys_GlobalNotForwarded(t *testing.T) {
	f := newFixture(t, Options{})
	f.press(t, display.RuneKey('+'), display.RuneKey('-'), display.RuneKey('b'), display.Key{Code: display.KeyUp})

	if len(f.vis[0].keys) != 2 {
		t.Fatalf("forwarded keys = %v, want [b up]", f.vis[0].keys)
	}
	if f.vis[0].keys[0] != display.RuneKey('b') || f.vis[0].keys[1].Code != display.KeyUp {
		t.Errorf("forwarded keys = %v", f.vis[0].keys)
	}
}

func TestQuit(t *testing.T) {
	for _, k := range []display.Key{display.RuneKey('q'), {Code: display.KeyCtrlC}} {
		t.Run(k.String(), func(t *testing.T) {
			f := newFixture(t, Options{})
			f.display.Push(k)
			if err := f.session.Run(); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if f.session.State() != Terminated {
				t.Errorf("State() = %v", f.session.State())
			}
			if f.source.reads != 0 || f.display.Shows() != 0 {
				t.Errorf("quit still captured or drew a frame")
			}
		})
	}

	t.Run("while paused", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.press(t, display.RuneKey(' '))
		f.press(t, display.RuneKey('q'))
		if f.session.State() != Terminated {
			t.Errorf("State() = %v", f.session.State())
		}
	})
}

func TestRun_Pacing(t *testing.T) {
	var sleeps []time.Duration
	clock := time.Unix(0, 0)
	tick := 4 * time.Millisecond

	var f *fixture
	v := &fakeVisualizer{name: "Alpha"}
	v.onDraw = func(visualizer.Frame) {
		if v.draws == 3 {
			f.display.Push(display.RuneKey('q'))
		}
	}
	f = newFixture(t, Options{
		FrameInterval: 16 * time.Millisecond,
		Now: func() time.Time {
			clock = clock.Add(tick)
			return clock
		},
		Sleep: func(d time.Duration) { sleeps = append(sleeps, d) },
	}, v)

	if err := f.session.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if v.draws != 3 {
		t.Errorf("draws = %d, want 3", v.draws)
	}
	if len(sleeps) != 3 {
		t.Fatalf("sleeps = %v, want 3", sleeps)
	}
	for _, d := range sleeps {
		// The frame start, the sink timestamp and the elapsed check each
		// advance the fake clock, so a frame takes two ticks.
		if d != 16*time.Millisecond-2*tick {
			t.Errorf("sleep = %s, want the remainder of the frame interval", d)
		}
	}
}

func TestRun_SlowFrameNoCatchUp(t *testing.T) {
	var sleeps int
	clock := time.Unix(0, 0)

	var f *fixture
	v := &fakeVisualizer{name: "Alpha"}
	v.onDraw = func(visualizer.Frame) {
		if v.draws == 2 {
			f.display.Push(display.RuneKey('q'))
		}
	}
	f = newFixture(t, Options{
		FrameInterval: 16 * time.Millisecond,
		Now: func() time.Time {
			clock = clock.Add(50 * time.Millisecond)
			return clock
		},
		Sleep: func(time.Duration) { sleeps++ },
	}, v)

	if err := f.session.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sleeps != 0 {
		t.Errorf("slept %d times after overrunning frames", sleeps)
	}
}

func TestRun_CaptureFailure(t *testing.T) {
	f := newFixture(t, Options{})
	f.source.err = errors.New("device unplugged")

	err := f.session.Run()
	if err == nil || !strings.Contains(err.Error(), "device unplugged") {
		t.Fatalf("Run() error = %v", err)
	}
	if f.session.State() != Terminated {
		t.Errorf("State() = %v", f.session.State())
	}
	if f.display.Shows() != 0 {
		t.Error("drew a frame without audio")
	}
}

func TestStep_VisualizerFailureDropsFrame(t *testing.T) {
	vis := []*fakeVisualizer{{name: "Panics", panics: true}, {name: "Errors", err: errors.New("bad state")}}
	f := newFixture(t, Options{}, vis...)

	f.step(t, 2)
	f.press(t, display.RuneKey('m'))

	if f.session.Dropped() != 3 {
		t.Errorf("Dropped() = %d, want 3", f.session.Dropped())
	}
	if f.session.State() != Running || f.display.Shows() != 3 {
		t.Errorf("state %v shows %d: the loop should keep going", f.session.State(), f.display.Shows())
	}
	if !strings.HasPrefix(f.display.Row(0), "Terminal Audio Visualizer | Errors") {
		t.Errorf("header = %q", f.display.Row(0))
	}
}

func TestHue(t *testing.T) {
	f := newFixture(t, Options{HueStep: 0.4})
	f.step(t, 3)
	if got := f.session.Hue(); math.Abs(got-0.2) > 1e-9 {
		t.Errorf("Hue() = %v, want 0.2 after wrapping", got)
	}
}

func TestSinks_ReceiveOwnedFrames(t *testing.T) {
	f := newFixture(t, Options{})
	f.source.block = utils.GenerateSineWave(testChunkSize, testSampleRate, 440, 0.5)
	f.step(t, 2)

	if len(f.sink.Sent) != 2 {
		t.Fatalf("sent = %d frames, want 2", len(f.sink.Sent))
	}
	first := f.sink.Sent[0].(transport.Frame)
	second := f.sink.Sent[1].(transport.Frame)

	if first.Sequence != 0 || second.Sequence != 1 || first.Mode != "Alpha" {
		t.Errorf("frames = %+v / %+v", first, second)
	}
	if len(first.Spectrum) != testChunkSize/2 || len(first.Bands) == 0 {
		t.Fatalf("spectrum %d bins, %d bands", len(first.Spectrum), len(first.Bands))
	}
	if &first.Spectrum[0] == &second.Spectrum[0] || &first.Bands[0] == &second.Bands[0] {
		t.Error("frames share buffers with the analyzer")
	}
	if first.Energy >= second.Energy {
		t.Errorf("smoothing should raise energy on a steady tone: %v then %v", first.Energy, second.Energy)
	}
}

func TestEndToEnd_BassToneDrivesParticles(t *testing.T) {
	a, err := analysis.NewAnalyzer(analysis.Config{
		ChunkSize:     testChunkSize,
		SampleRate:    testSampleRate,
		Smoothing:     0.8,
		Normalization: 128,
		Sensitivity:   1.0,
	})
	if err != nil {
		t.Fatal(err)
	}
	r, err := visualizer.Discover(effects.Builtin())
	if err != nil {
		t.Fatal(err)
	}
	idx, ok := r.Index("particles")
	if !ok {
		t.Fatal("particles not registered")
	}

	d := display.NewMemory(100, 40, 256)
	sink := &utils.MockTransport{}
	s, err := New(Options{
		Display:      d,
		Source:       &scriptedSource{block: utils.GenerateSineWave(testChunkSize, testSampleRate, 100, 0.9)},
		Analyzer:     a,
		Registry:     r,
		InitialIndex: idx,
		Sinks:        []transport.Transport{sink},
		Sleep:        func(time.Duration) {},
	})
	if err != nil {
		t.Fatal(err)
	}

	for range 5 {
		if err := s.Step(); err != nil {
			t.Fatal(err)
		}
	}

	beats := 0
	var last transport.Frame
	for _, m := range sink.Sent {
		last = m.(transport.Frame)
		if last.Beat {
			beats++
		}
	}
	if last.Energy <= 0.3 {
		t.Errorf("Energy = %v, want > 0.3 for a strong 100Hz tone", last.Energy)
	}
	if beats == 0 {
		t.Error("the tone onset produced no beat")
	}

	p := r.At(idx).(*effects.Particles)
	if p.Count() == 0 {
		t.Error("no particles alive after a loud onset")
	}
	drawn := false
	for y := 1; y < 40; y++ {
		if strings.TrimSpace(d.Row(y)) != "" {
			drawn = true
			break
		}
	}
	if !drawn {
		t.Error("nothing drawn below the header")
	}
}
