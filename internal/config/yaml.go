// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"termvis/internal/log"
	"termvis/pkg/bitint"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid configuration")

// LoadConfig loads configuration from the YAML file at path. If path is
// empty it searches the default locations and falls back to the built-in
// defaults when none exists. Environment overrides are applied after the
// file, and the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		path = findDefaultConfig()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// findDefaultConfig returns the first existing candidate, or "".
func findDefaultConfig() string {
	candidates := []string{"termvis.yaml"}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "termvis", "config.yaml"))
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// Validate checks the ranges the analyzer and render loop rely on.
func (c *Config) Validate() error {
	a := c.Audio
	switch a.Source {
	case SourceMic, SourceDemo:
	case SourceFile:
		if a.File == "" {
			return fmt.Errorf("%w: audio.file must be set when audio.source is %q", ErrInvalid, SourceFile)
		}
	default:
		return fmt.Errorf("%w: unknown audio.source %q", ErrInvalid, a.Source)
	}
	if a.InputDevice < MinDeviceID {
		return fmt.Errorf("%w: audio.input_device %d (use -1 for the default device)", ErrInvalid, a.InputDevice)
	}
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		return fmt.Errorf("%w: audio.sample_rate %.0f outside [%d, %d]", ErrInvalid, a.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if !bitint.IsPowerOfTwo(a.ChunkSize) || a.ChunkSize < MinChunkSize || a.ChunkSize > MaxChunkSize {
		return fmt.Errorf("%w: audio.chunk_size %d must be a power of two in [%d, %d] (try %d)",
			ErrInvalid, a.ChunkSize, MinChunkSize, MaxChunkSize, bitint.NextPowerOfTwo(a.ChunkSize))
	}
	if a.GateThreshold < 0 || a.GateThreshold > 1 {
		return fmt.Errorf("%w: audio.gate_threshold %.3f outside [0, 1]", ErrInvalid, a.GateThreshold)
	}

	an := c.Analysis
	if an.Smoothing < 0 || an.Smoothing >= 1 {
		return fmt.Errorf("%w: analysis.smoothing %.3f outside [0, 1)", ErrInvalid, an.Smoothing)
	}
	if an.Normalization <= 0 {
		return fmt.Errorf("%w: analysis.normalization must be positive", ErrInvalid)
	}
	if an.SensitivityMin <= 0 {
		return fmt.Errorf("%w: analysis.sensitivity_floor must be positive", ErrInvalid)
	}
	if an.SensitivityStep <= 0 {
		return fmt.Errorf("%w: analysis.sensitivity_step must be positive", ErrInvalid)
	}
	if an.Sensitivity < an.SensitivityMin {
		return fmt.Errorf("%w: analysis.sensitivity %.2f below floor %.2f", ErrInvalid, an.Sensitivity, an.SensitivityMin)
	}

	r := c.Render
	if r.FPS < 1 || r.FPS > MaxFPS {
		return fmt.Errorf("%w: render.fps %d outside [1, %d]", ErrInvalid, r.FPS, MaxFPS)
	}
	if r.HueStep < 0 || r.HueStep >= 1 {
		return fmt.Errorf("%w: render.hue_step %.4f outside [0, 1)", ErrInvalid, r.HueStep)
	}

	t := c.Transport
	if t.UDPEnabled {
		if !strings.Contains(t.UDPTargetAddress, ":") {
			return fmt.Errorf("%w: transport.udp_target_address %q is missing a port", ErrInvalid, t.UDPTargetAddress)
		}
		if t.UDPSendInterval <= 0 {
			return fmt.Errorf("%w: transport.udp_send_interval must be positive", ErrInvalid)
		}
	}
	if t.WebSocketEnabled && t.WebSocketAddr == "" {
		return fmt.Errorf("%w: transport.websocket_addr must be set when websockets are enabled", ErrInvalid)
	}

	if _, ok := log.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalid, c.LogLevel)
	}

	return nil
}

// applyEnvOverrides applies TERMVIS_* variables on top of the file values.
// Unparsable values are ignored and leave the current setting in place.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("TERMVIS_LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if val, ok := os.LookupEnv("TERMVIS_LOG_FILE"); ok {
		c.LogFile = val
	}

	// TERMVIS_{SOURCE,FILE,DEVICE}
	if val, ok := os.LookupEnv("TERMVIS_SOURCE"); ok {
		c.Audio.Source = strings.ToLower(val)
	}
	if val, ok := os.LookupEnv("TERMVIS_FILE"); ok {
		c.Audio.File = val
	}
	if val, ok := os.LookupEnv("TERMVIS_DEVICE"); ok {
		if id, err := strconv.Atoi(val); err == nil {
			c.Audio.InputDevice = id
		}
	}

	if val, ok := os.LookupEnv("TERMVIS_SENSITIVITY"); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			c.Analysis.Sensitivity = f
		}
	}
	if val, ok := os.LookupEnv("TERMVIS_FPS"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.Render.FPS = n
		}
	}
	if val, ok := os.LookupEnv("TERMVIS_MODE"); ok {
		c.Render.InitialMode = val
	}

	if val, ok := os.LookupEnv("TERMVIS_HEADLESS"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Render.Headless = b
		}
	}

	// TERMVIS_{WS,UDP}_* configure the frame sinks.
	if val, ok := os.LookupEnv("TERMVIS_WS_ENABLED"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Transport.WebSocketEnabled = b
		}
	}
	if val, ok := os.LookupEnv("TERMVIS_WS_ADDR"); ok {
		c.Transport.WebSocketAddr = val
	}
	if val, ok := os.LookupEnv("TERMVIS_LOG_FRAMES"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Transport.LogFrames = b
		}
	}
	if val, ok := os.LookupEnv("TERMVIS_UDP_ENABLED"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Transport.UDPEnabled = b
		}
	}
	if val, ok := os.LookupEnv("TERMVIS_UDP_TARGET_ADDRESS"); ok {
		c.Transport.UDPTargetAddress = val
	}
	if val, ok := os.LookupEnv("TERMVIS_UDP_SEND_INTERVAL"); ok {
		if d, err := time.ParseDuration(val); err == nil {
			c.Transport.UDPSendInterval = d
		}
	}
}
