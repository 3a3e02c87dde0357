// SPDX-License-Identifier: MIT
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"termvis/cmd"
	"termvis/internal/analysis"
	"termvis/internal/audio"
	"termvis/internal/config"
	"termvis/internal/display"
	"termvis/internal/effects"
	"termvis/internal/log"
	"termvis/internal/session"
	"termvis/internal/transport"
	"termvis/internal/transport/udp"
	"termvis/internal/tui"
	"termvis/internal/visualizer"
	"termvis/pkg/build"
)

// Geometry and color depth of the in-memory display used by --headless.
const (
	headlessWidth  = 120
	headlessHeight = 40
	headlessColors = 256
)

// main is the entry point. The program flow is divided into three phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Parse command line arguments and load the configuration
//   - Execute one-off commands (list, modes) and exit
//   - Take over the terminal, open the audio source, start frame sinks
//
// 2. Render Phase (Hot Path):
//   - One key poll, one captured block and one drawn frame per iteration
//
// 3. Shutdown Phase (Cold Path):
//   - Unwind the teardown stack: sinks, capture stream, PortAudio, terminal
func main() {
	if err := run(); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

func run() error {
	// ==================== STARTUP PHASE (Cold Path) ====================

	if err := build.Initialize(); err != nil {
		log.Debugf("Build: %v, using defaults", err)
	}

	cfg, err := cmd.ParseArgs()
	if err != nil {
		return err
	}
	if level, ok := log.ParseLevel(cfg.LogLevel); ok {
		log.SetLevel(level)
	}

	switch cfg.Command {
	case "":
		return nil // Help or version was printed.
	case cmd.CommandModes:
		registry, err := visualizer.Discover(effects.Builtin())
		if err != nil {
			return err
		}
		return cmd.PrintModes(os.Stdout, registry)
	case cmd.CommandList:
		if err := audio.Initialize(); err != nil {
			return err
		}
		defer audio.Terminate()
		return audio.ListDevices(os.Stdout)
	case cmd.CommandDevices:
		ok, err := pickDevice(cfg)
		if err != nil || !ok {
			return err
		}
	}

	var td teardown
	defer td.run()

	return visualize(cfg, &td)
}

// pickDevice runs the interactive picker and points cfg at the choice.
func pickDevice(cfg *config.Config) (bool, error) {
	if err := audio.Initialize(); err != nil {
		return false, err
	}
	sel, ok, err := tui.PickDevice()
	audio.Terminate()
	if err != nil || !ok {
		return false, err
	}

	log.Infof("Selected device [%d] %s at %.0f Hz", sel.DeviceID, sel.DeviceName, sel.SampleRate)
	cfg.Audio.Source = config.SourceMic
	cfg.Audio.InputDevice = sel.DeviceID
	cfg.Audio.SampleRate = sel.SampleRate
	return true, cfg.Validate()
}

func visualize(cfg *config.Config, td *teardown) error {
	registry, err := visualizer.Discover(effects.Builtin())
	if err != nil {
		return err
	}
	initial := 0
	if cfg.Render.InitialMode != "" {
		i, ok := registry.Index(cfg.Render.InitialMode)
		if !ok {
			return fmt.Errorf("unknown visualizer %q, see 'modes'", cfg.Render.InitialMode)
		}
		initial = i
	}

	// The display is opened first so that it is restored last.
	screen, err := openDisplay(cfg, td)
	if err != nil {
		return err
	}

	src, sampleRate, err := openSource(cfg.Audio, td)
	if err != nil {
		return err
	}

	analyzer, err := analysis.NewAnalyzer(analysis.Config{
		ChunkSize:     cfg.Audio.ChunkSize,
		SampleRate:    sampleRate,
		Smoothing:     cfg.Analysis.Smoothing,
		Normalization: cfg.Analysis.Normalization,
		Sensitivity:   cfg.Analysis.Sensitivity,
	})
	if err != nil {
		return err
	}

	sinks, err := openSinks(cfg.Transport, td)
	if err != nil {
		return err
	}
	if cfg.Render.Headless && len(sinks) == 0 {
		log.Warnf("Running headless without any transport; frames go nowhere")
	}

	s, err := session.New(session.Options{
		Display:         screen,
		Source:          src,
		Analyzer:        analyzer,
		Registry:        registry,
		Title:           cfg.Render.Title,
		InitialIndex:    initial,
		SensitivityStep: cfg.Analysis.SensitivityStep,
		SensitivityMin:  cfg.Analysis.SensitivityMin,
		HueStep:         cfg.Render.HueStep,
		FrameInterval:   cfg.Render.FrameInterval(),
		Sinks:           sinks,
	})
	if err != nil {
		return err
	}

	// ==================== RENDER PHASE (Hot Path) ====================

	// SIGINT and SIGTERM quit through the key path so the loop unwinds
	// normally. The terminal delivers Ctrl-C as a key on its own.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	td.push(func() error { signal.Stop(signals); return nil })
	if p, ok := screen.(keyPusher); ok {
		go func() {
			if _, ok := <-signals; ok {
				p.Push(display.Key{Code: display.KeyCtrlC})
			}
		}()
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================
	// Runs via the deferred teardown stack in run.
	return s.Run()
}

type keyPusher interface {
	Push(keys ...display.Key)
}

func openDisplay(cfg *config.Config, td *teardown) (display.Display, error) {
	if cfg.Render.Headless {
		log.Infof("Headless: rendering into a %dx%d memory display", headlessWidth, headlessHeight)
		return display.NewMemory(headlessWidth, headlessHeight, headlessColors), nil
	}

	// Log lines must not land on the canvas.
	if cfg.LogFile != "" {
		closer, err := log.OpenFile(cfg.LogFile)
		if err != nil {
			return nil, err
		}
		td.push(closer.Close)
	} else {
		log.SetOutput(io.Discard)
		td.push(func() error { log.SetOutput(os.Stderr); return nil })
	}

	term, err := display.NewTerminal()
	if err != nil {
		return nil, err
	}
	td.push(term.Close)
	return term, nil
}

// openSource returns the configured source, gated when a threshold is set,
// and the sample rate its blocks are captured at.
func openSource(cfg config.AudioConfig, td *teardown) (audio.Source, float64, error) {
	var (
		src        audio.Source
		sampleRate = cfg.SampleRate
	)

	switch cfg.Source {
	case config.SourceDemo:
		src = audio.NewDemoSource(cfg.SampleRate, cfg.ChunkSize).Realtime()
	case config.SourceFile:
		fs, err := audio.OpenFileSource(cfg.File, cfg.ChunkSize)
		if err != nil {
			return nil, 0, err
		}
		sampleRate = fs.SampleRate()
		src = fs.Realtime()
	default:
		if err := audio.Initialize(); err != nil {
			return nil, 0, err
		}
		td.push(audio.Terminate)

		stream, err := audio.OpenStream(cfg)
		if err != nil {
			return nil, 0, err
		}
		td.push(stream.Close)
		log.Infof("Capturing from %s", stream.Device())
		src = stream
	}

	return audio.WithGate(src, audio.NewGate(cfg.GateThreshold)), sampleRate, nil
}

func openSinks(cfg config.TransportConfig, td *teardown) ([]transport.Transport, error) {
	var sinks []transport.Transport

	if cfg.LogFrames {
		sinks = append(sinks, transport.NewLoggingTransport())
	}

	if cfg.WebSocketEnabled {
		ws, err := transport.NewWebSocketTransport(cfg.WebSocketAddr)
		if err != nil {
			return nil, err
		}
		td.push(ws.Close)
		sinks = append(sinks, ws)
	}

	if cfg.UDPEnabled {
		sender, err := udp.NewSender(cfg.UDPTargetAddress)
		if err != nil {
			return nil, err
		}
		publisher, err := udp.NewPublisher(cfg.UDPSendInterval, sender)
		if err != nil {
			sender.Close()
			return nil, err
		}
		publisher.Start()
		td.push(publisher.Close)
		sinks = append(sinks, publisher)
	}

	return sinks, nil
}

// teardown is a stack of cleanup steps run in reverse order of
// registration, on every exit path.
type teardown []func() error

func (t *teardown) push(f func() error) {
	*t = append(*t, f)
}

func (t *teardown) run() {
	var errs []error
	for i := len(*t) - 1; i >= 0; i-- {
		if err := (*t)[i](); err != nil {
			errs = append(errs, err)
		}
	}
	*t = nil
	if err := errors.Join(errs...); err != nil {
		log.Warnf("Shutdown: %v", err)
	}
}
