// SPDX-License-Identifier: MIT
// Package cmd is the termvis command line.
package cmd

import (
	"io"
	"os"

	"termvis/internal/config"
	"termvis/pkg/build"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Commands reported in config.Command.
const (
	CommandRun     = "run"
	CommandList    = "list"
	CommandDevices = "devices"
	CommandModes   = "modes"
)

var loadConfig = config.LoadConfig

// flagValues holds raw flag values. Only flags the user actually set are
// copied over the loaded configuration.
type flagValues struct {
	configPath  string
	device      int
	source      string
	file        string
	sampleRate  float64
	chunkSize   int
	lowLatency  bool
	gate        float64
	sensitivity float64
	fps         int
	mode        string
	headless    bool
	wsEnabled   bool
	wsAddr      string
	udpEnabled  bool
	udpTarget   string
	logLevel    string
	logFile     string
	logFrames   bool
	verbose     bool
}

// ParseArgs parses os.Args. The returned config has Command set to the
// requested action, or "" when only help or the version was printed.
func ParseArgs() (*config.Config, error) {
	return parseArgs(os.Args[1:], os.Stdout)
}

func parseArgs(args []string, out io.Writer) (*config.Config, error) {
	buildInfo := build.GetBuildFlags()
	var (
		flags  flagValues
		result *config.Config
	)

	finalize := func(c *cobra.Command, command string) error {
		cfg, err := loadConfig(flags.configPath)
		if err != nil {
			return err
		}
		flags.apply(c.Flags(), cfg)
		cfg.Command = command
		if err := cfg.Validate(); err != nil {
			return err
		}
		result = cfg
		return nil
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         build.Description,
		Long:          build.Description + ". Keys: q quit, m next mode, +/- sensitivity, space pause.",
		Version:       buildInfo.String(),
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(c *cobra.Command, args []string) error {
			return finalize(c, CommandRun)
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List available audio devices",
			Args:  cobra.NoArgs,
			RunE: func(c *cobra.Command, args []string) error {
				return finalize(c, CommandList)
			},
		},
		&cobra.Command{
			Use:   "devices",
			Short: "Pick an input device interactively, then start visualizing",
			Args:  cobra.NoArgs,
			RunE: func(c *cobra.Command, args []string) error {
				return finalize(c, CommandDevices)
			},
		},
		&cobra.Command{
			Use:   "modes",
			Short: "List the built-in visualizers",
			Args:  cobra.NoArgs,
			RunE: func(c *cobra.Command, args []string) error {
				return finalize(c, CommandModes)
			},
		},
	)

	pf := rootCmd.PersistentFlags()

	pf.StringVarP(&flags.configPath, "config", "C", "",
		"Path to a YAML config file (default: ./termvis.yaml, then the user config dir)")

	// Audio input
	pf.IntVarP(&flags.device, "device", "d", config.DefaultDeviceID,
		"Input device ID, -1 for the system default. Use 'list' to see available devices.")
	pf.StringVarP(&flags.source, "source", "S", config.DefaultSource,
		"Audio source: mic, demo or file")
	pf.StringVarP(&flags.file, "file", "f", "",
		"WAV file to visualize (implies --source file)")
	pf.Float64VarP(&flags.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	pf.IntVarP(&flags.chunkSize, "chunk-size", "b", config.DefaultChunkSize,
		"Samples per analyzed block, a power of two")
	pf.BoolVarP(&flags.lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use the device's low input latency")
	pf.Float64VarP(&flags.gate, "gate", "g", config.DefaultGateThreshold,
		"Noise gate threshold, 0-1 of full scale (0 disables)")

	// Rendering
	pf.Float64Var(&flags.sensitivity, "sensitivity", config.DefaultSensitivity,
		"Initial sensitivity factor")
	pf.IntVar(&flags.fps, "fps", config.DefaultFPS,
		"Target frames per second")
	pf.StringVarP(&flags.mode, "mode", "m", "",
		"Visualizer to start with (see 'modes')")
	pf.BoolVar(&flags.headless, "headless", false,
		"Run without a terminal; frames are only sent to the enabled transports")

	// Transports
	pf.BoolVar(&flags.wsEnabled, "ws", false,
		"Broadcast frames as JSON over WebSocket")
	pf.StringVar(&flags.wsAddr, "ws-addr", config.DefaultWebSocketAddr,
		"WebSocket listen address")
	pf.BoolVar(&flags.udpEnabled, "udp", false,
		"Publish frames as binary UDP packets")
	pf.StringVar(&flags.udpTarget, "udp-target", config.DefaultUDPTarget,
		"UDP target address (host:port)")

	// Logging
	pf.StringVar(&flags.logLevel, "log-level", config.DefaultLogLevel,
		"Log level: debug, info, warn, error")
	pf.StringVar(&flags.logFile, "log-file", "",
		"Write logs to this file while the visualizer owns the terminal")
	pf.BoolVar(&flags.logFrames, "log-frames", false,
		"Log a summary of every frame at debug level")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false,
		"Shorthand for --log-level debug")

	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	if result == nil {
		return config.NewConfig(), nil
	}
	return result, nil
}

// apply copies every flag the user set onto cfg.
func (f *flagValues) apply(fs *pflag.FlagSet, cfg *config.Config) {
	set := fs.Changed

	if set("device") {
		cfg.Audio.InputDevice = f.device
	}
	if set("file") {
		cfg.Audio.File = f.file
		if !set("source") {
			cfg.Audio.Source = config.SourceFile
		}
	}
	if set("source") {
		cfg.Audio.Source = f.source
	}
	if set("sample-rate") {
		cfg.Audio.SampleRate = f.sampleRate
	}
	if set("chunk-size") {
		cfg.Audio.ChunkSize = f.chunkSize
	}
	if set("low-latency") {
		cfg.Audio.LowLatency = f.lowLatency
	}
	if set("gate") {
		cfg.Audio.GateThreshold = f.gate
	}
	if set("sensitivity") {
		cfg.Analysis.Sensitivity = f.sensitivity
	}
	if set("fps") {
		cfg.Render.FPS = f.fps
	}
	if set("mode") {
		cfg.Render.InitialMode = f.mode
	}
	if set("headless") {
		cfg.Render.Headless = f.headless
	}
	if set("ws") {
		cfg.Transport.WebSocketEnabled = f.wsEnabled
	}
	if set("ws-addr") {
		cfg.Transport.WebSocketAddr = f.wsAddr
	}
	if set("udp") {
		cfg.Transport.UDPEnabled = f.udpEnabled
	}
	if set("udp-target") {
		cfg.Transport.UDPTargetAddress = f.udpTarget
	}
	if set("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if set("log-file") {
		cfg.LogFile = f.logFile
	}
	if set("log-frames") {
		cfg.Transport.LogFrames = f.logFrames
	}
	if f.verbose {
		cfg.LogLevel = "debug"
	}
}
