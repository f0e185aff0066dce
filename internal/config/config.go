// Package config loads the taskpoold YAML configuration and converts
// it into the runtime settings the driver wires into the pool.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/avolkov/taskpool"
	"github.com/avolkov/taskpool/internal/logging"
)

// Config mirrors the YAML file. Durations are strings ("500ms", "2s")
// parsed during conversion.
type Config struct {
	// Workers is the pool size. Zero means one worker per CPU.
	Workers int `yaml:"workers"`

	// SubmitInterval is the delay between synthetic task submissions.
	SubmitInterval string `yaml:"submit_interval"`

	// PinWorkers locks workers to OS threads and pins them to CPUs.
	PinWorkers bool `yaml:"pin_workers"`

	// ShutdownPolicy is "discard" (default) or "drain".
	ShutdownPolicy string `yaml:"shutdown_policy"`

	Log LogConfig `yaml:"log"`
	Zip ZipConfig `yaml:"zip"`
}

// LogConfig configures the rotating file sink. An empty file disables it.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`    // megabytes
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"` // days
	Compress   bool   `yaml:"compress"`
}

// ZipConfig configures the rotated-log compressor. An empty dir
// disables it. Compress in LogConfig should stay off when the
// compressor is on, otherwise files are gzipped twice.
type ZipConfig struct {
	Dir          string `yaml:"dir"`
	ScanInterval string `yaml:"scan_interval"`
}

// Settings is the parsed, validated form of Config.
type Settings struct {
	Workers        int
	SubmitInterval time.Duration
	PinWorkers     bool
	ShutdownPolicy taskpool.ShutdownPolicy

	Log logging.Config

	ZipDir          string
	ZipScanInterval time.Duration
}

// Default returns the configuration the driver runs with when no file
// is given: four workers submitting every half second, console logging
// only, no compressor.
func Default() Config {
	return Config{
		Workers:        4,
		SubmitInterval: "500ms",
		ShutdownPolicy: "discard",
		Log: LogConfig{
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		},
		Zip: ZipConfig{
			ScanInterval: "2s",
		},
	}
}

// Load reads path and unmarshals it over Default, so the file only
// needs to mention the keys it changes.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates the configuration and converts it to Settings.
func (c Config) Parse() (Settings, error) {
	var s Settings

	if c.Workers < 0 {
		return s, fmt.Errorf("config: workers must not be negative, got %d", c.Workers)
	}
	s.Workers = c.Workers
	s.PinWorkers = c.PinWorkers

	interval, err := time.ParseDuration(c.SubmitInterval)
	if err != nil {
		return s, fmt.Errorf("config: invalid submit_interval: %w", err)
	}
	if interval <= 0 {
		return s, fmt.Errorf("config: submit_interval must be positive, got %s", interval)
	}
	s.SubmitInterval = interval

	switch c.ShutdownPolicy {
	case "", "discard":
		s.ShutdownPolicy = taskpool.DiscardPending
	case "drain":
		s.ShutdownPolicy = taskpool.DrainPending
	default:
		return s, fmt.Errorf("config: unknown shutdown_policy %q (want discard or drain)", c.ShutdownPolicy)
	}

	s.Log = logging.Config{
		File:       c.Log.File,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
		Compress:   c.Log.Compress,
	}

	if c.Zip.Dir != "" {
		scan, err := time.ParseDuration(c.Zip.ScanInterval)
		if err != nil {
			return s, fmt.Errorf("config: invalid zip scan_interval: %w", err)
		}
		if scan <= 0 {
			return s, fmt.Errorf("config: zip scan_interval must be positive, got %s", scan)
		}
		s.ZipDir = c.Zip.Dir
		s.ZipScanInterval = scan
	}

	return s, nil
}
