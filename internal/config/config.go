// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults for
// the capture, analysis and render stages.
const (
	DefaultSampleRate      = 44100 // CD-quality audio
	DefaultChunkSize       = 2048  // Samples per capture block (~46ms at 44.1kHz)
	DefaultDeviceID        = MinDeviceID
	DefaultLowLatency      = false
	DefaultSource          = SourceMic
	DefaultGateThreshold   = 0.0 // Gate disabled
	DefaultSmoothing       = 0.8
	DefaultNormalization   = 128.0
	DefaultSensitivity     = 1.0
	DefaultSensitivityStep = 0.1
	DefaultSensitivityMin  = 0.1
	DefaultFPS             = 60
	DefaultHueStep         = 0.005
	DefaultTitle           = "Terminal Audio Visualizer"
	DefaultLogLevel        = "info"
	DefaultWebSocketAddr   = "127.0.0.1:8080"
	DefaultUDPTarget       = "127.0.0.1:9090"
	DefaultUDPInterval     = 33 * time.Millisecond

	MinDeviceID   = -1     // -1 represents the system default input device
	MinSampleRate = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz)
	MinChunkSize  = 64
	MaxChunkSize  = 16384
	MaxFPS        = 240
)

// Audio sources understood by the capture stage.
const (
	SourceMic  = "mic"
	SourceDemo = "demo"
	SourceFile = "file"
)

// Config represents the application configuration, loaded from YAML and then
// overridden by environment variables and command line flags.
type Config struct {
	LogLevel  string          `yaml:"log_level"`         // debug, info, warn, error.
	LogFile   string          `yaml:"log_file"`          // Log sink while the screen is in raw mode; empty discards.
	Command   string          `yaml:"command,omitempty"` // One-off command (list, modes) instead of a session.
	Audio     AudioConfig     `yaml:"audio"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Render    RenderConfig    `yaml:"render"`
	Transport TransportConfig `yaml:"transport"`
}

// AudioConfig holds settings for the input source.
type AudioConfig struct {
	Source        string  `yaml:"source"`         // mic, demo or file.
	File          string  `yaml:"file"`           // WAV file replayed when source is "file".
	InputDevice   int     `yaml:"input_device"`   // PortAudio device index (-1 for default).
	SampleRate    float64 `yaml:"sample_rate"`    // Sample rate in Hz.
	ChunkSize     int     `yaml:"chunk_size"`     // Samples per block, power of two.
	LowLatency    bool    `yaml:"low_latency"`    // Request the device's low input latency.
	GateThreshold float64 `yaml:"gate_threshold"` // 0-1 of full scale; blocks below are silenced. 0 disables.
}

// AnalysisConfig holds the spectrum analyzer constants.
type AnalysisConfig struct {
	Smoothing       float64 `yaml:"smoothing"`         // EMA factor α applied to the previous frame.
	Normalization   float64 `yaml:"normalization"`     // Magnitudes are divided by normalization*chunk_size.
	Sensitivity     float64 `yaml:"sensitivity"`       // Initial sensitivity factor.
	SensitivityStep float64 `yaml:"sensitivity_step"`  // Change per key press.
	SensitivityMin  float64 `yaml:"sensitivity_floor"` // Lower clamp.
}

// RenderConfig holds the render loop settings.
type RenderConfig struct {
	FPS         int     `yaml:"fps"`          // Target frames per second.
	HueStep     float64 `yaml:"hue_step"`     // Hue offset advance per frame.
	InitialMode string  `yaml:"initial_mode"` // Visualizer name to start with; empty picks the first.
	Title       string  `yaml:"title"`        // Header prefix.
	Headless    bool    `yaml:"headless"`     // Render into memory instead of the terminal.
}

// TransportConfig holds the optional frame sinks.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`
	WebSocketAddr    string        `yaml:"websocket_addr"`
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"`
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`
	LogFrames        bool          `yaml:"log_frames"` // Log a one-line summary of every frame at debug level.
}

// FrameInterval is the target duration of one render iteration.
func (r RenderConfig) FrameInterval() time.Duration {
	if r.FPS <= 0 {
		return time.Second / DefaultFPS
	}
	return time.Second / time.Duration(r.FPS)
}

// NewConfig returns a Config populated with the built-in defaults.
func NewConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			Source:        DefaultSource,
			InputDevice:   DefaultDeviceID,
			SampleRate:    DefaultSampleRate,
			ChunkSize:     DefaultChunkSize,
			LowLatency:    DefaultLowLatency,
			GateThreshold: DefaultGateThreshold,
		},
		Analysis: AnalysisConfig{
			Smoothing:       DefaultSmoothing,
			Normalization:   DefaultNormalization,
			Sensitivity:     DefaultSensitivity,
			SensitivityStep: DefaultSensitivityStep,
			SensitivityMin:  DefaultSensitivityMin,
		},
		Render: RenderConfig{
			FPS:     DefaultFPS,
			HueStep: DefaultHueStep,
			Title:   DefaultTitle,
		},
		Transport: TransportConfig{
			WebSocketAddr:    DefaultWebSocketAddr,
			UDPTargetAddress: DefaultUDPTarget,
			UDPSendInterval:  DefaultUDPInterval,
		},
	}
}
