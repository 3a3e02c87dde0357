// SPDX-License-Identifier: MIT
package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"termvis/internal/config"
	"termvis/internal/effects"
	"termvis/internal/visualizer"
)

// isolate keeps the developer's own config files and TERMVIS_* variables
// out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	for _, kv := range os.Environ() {
		if name, _, _ := strings.Cut(kv, "="); strings.HasPrefix(name, "TERMVIS_") {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

func parse(t *testing.T, args ...string) (*config.Config, string, error) {
	t.Helper()
	var out bytes.Buffer
	cfg, err := parseArgs(args, &out)
	return cfg, out.String(), err
}

func TestParseArgs_Commands(t *testing.T) {
	isolate(t)

	tests := []struct {
		args []string
		want string
	}{
		{nil, CommandRun},
		{[]string{"list"}, CommandList},
		{[]string{"devices"}, CommandDevices},
		{[]string{"modes"}, CommandModes},
		{[]string{"--help"}, ""},
		{[]string{"--version"}, ""},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			cfg, _, err := parse(t, tt.args...)
			if err != nil {
				t.Fatalf("parseArgs() error = %v", err)
			}
			if cfg.Command != tt.want {
				t.Errorf("Command = %q, want %q", cfg.Command, tt.want)
			}
		})
	}
}

func TestParseArgs_Defaults(t *testing.T) {
	isolate(t)

	cfg, _, err := parse(t)
	if err != nil {
		t.Fatal(err)
	}
	want := config.NewConfig()
	want.Command = CommandRun
	if cfg.Audio != want.Audio || cfg.Analysis != want.Analysis || cfg.Render != want.Render || cfg.Transport != want.Transport {
		t.Errorf("flags without values changed the defaults:\n got %+v\nwant %+v", cfg, want)
	}
}

func TestParseArgs_FlagsOverrideFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "termvis.yaml")
	yaml := "audio:\n  source: demo\n  sample_rate: 48000\nrender:\n  fps: 30\n  initial_mode: wave\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := parse(t, "-C", path, "--fps", "50", "-d", "3", "--sensitivity", "2.5", "--ws", "--udp-target", "10.0.0.1:7000", "-v")
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}

	if cfg.Audio.Source != config.SourceDemo || cfg.Audio.SampleRate != 48000 || cfg.Render.InitialMode != "wave" {
		t.Errorf("file values lost: %+v %+v", cfg.Audio, cfg.Render)
	}
	if cfg.Render.FPS != 50 || cfg.Audio.InputDevice != 3 || cfg.Analysis.Sensitivity != 2.5 {
		t.Errorf("flag values not applied: fps %d device %d sensitivity %v", cfg.Render.FPS, cfg.Audio.InputDevice, cfg.Analysis.Sensitivity)
	}
	if !cfg.Transport.WebSocketEnabled || cfg.Transport.UDPTargetAddress != "10.0.0.1:7000" || cfg.LogLevel != "debug" {
		t.Errorf("transport/log flags: %+v %q", cfg.Transport, cfg.LogLevel)
	}
}

func TestParseArgs_FileImpliesSource(t *testing.T) {
	isolate(t)

	cfg, _, err := parse(t, "--file", "song.wav", "--headless")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Audio.Source != config.SourceFile || cfg.Audio.File != "song.wav" || !cfg.Render.Headless {
		t.Errorf("Audio = %+v, headless %v", cfg.Audio, cfg.Render.Headless)
	}

	cfg, _, err = parse(t, "--file", "song.wav", "--source", "demo")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Audio.Source != config.SourceDemo {
		t.Errorf("explicit --source lost: %q", cfg.Audio.Source)
	}
}

func TestParseArgs_Errors(t *testing.T) {
	isolate(t)

	tests := []struct {
		name    string
		args    []string
		invalid bool
	}{
		{"unknown flag", []string{"--nope"}, false},
		{"extra argument", []string{"list", "extra"}, false},
		{"bad chunk size", []string{"--chunk-size", "1000"}, true},
		{"bad source", []string{"--source", "radio"}, true},
		{"sensitivity below floor", []string{"--sensitivity", "0.01"}, true},
		{"missing config file", []string{"--config", "/does/not/exist.yaml"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parse(t, tt.args...)
			if err == nil {
				t.Fatal("parseArgs() succeeded")
			}
			if got := errors.Is(err, config.ErrInvalid); got != tt.invalid {
				t.Errorf("errors.Is(ErrInvalid) = %v for %v", got, err)
			}
		})
	}
}

func TestParseArgs_Help(t *testing.T) {
	isolate(t)

	_, out, err := parse(t, "--help")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"list", "devices", "modes", "--sensitivity", "--headless"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output missing %q", want)
		}
	}
}

func TestPrintModes(t *testing.T) {
	r, err := visualizer.Discover(effects.Builtin())
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := PrintModes(&out, r); err != nil {
		t.Fatalf("PrintModes() error = %v", err)
	}

	text := out.String()
	for _, want := range []string{"Visualizers", "Spectrum Bars", "Flame", "particles", "quit", "sensitivity up", "pause"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if strings.Index(text, "Spectrum Bars") > strings.Index(text, "Flame") {
		t.Error("visualizers not listed in cycle order")
	}
}
