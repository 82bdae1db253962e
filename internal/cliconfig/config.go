package cliconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/libero2lerobot/internal/domain"
	"github.com/bft-labs/libero2lerobot/pkg/log"
)

// Default input and output locations, relative to the working directory.
const (
	DefaultInputDir  = "datasets/libero_object"
	DefaultOutputDir = "datasets/libero_object_lerobot"
)

// Config holds CLI configuration for libero2lerobot.
type Config struct {
	InputDir  string
	OutputDir string

	FPS        float64
	JointCount int
	Workers    int
	Stats      string

	CleanupFailed bool
	KeepImages    bool

	FFmpeg     string
	VideoCodec string

	Publish     string
	MetricsFile string
	MetricsAddr string

	LogLevel string

	Watch         bool
	WatchDebounce time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	ds := domain.DefaultDatasetConfig()
	return Config{
		InputDir:      DefaultInputDir,
		OutputDir:     DefaultOutputDir,
		FPS:           ds.FPS,
		JointCount:    ds.JointCount,
		Workers:       4,
		Stats:         "placeholder",
		KeepImages:    true,
		FFmpeg:        "ffmpeg",
		VideoCodec:    "libx264",
		LogLevel:      "info",
		WatchDebounce: 2 * time.Second,
	}
}

// Validate checks the configuration for errors and normalizes values.
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("input-dir is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output-dir is required")
	}
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive")
	}
	if 1/c.FPS < domain.MinTimestepDuration {
		return fmt.Errorf("fps must be at most %g, got %g", 1/domain.MinTimestepDuration, c.FPS)
	}
	if c.JointCount <= 0 {
		return fmt.Errorf("joint-count must be positive")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}

	c.Stats = strings.ToLower(strings.TrimSpace(c.Stats))
	if c.Stats != "placeholder" && c.Stats != "computed" {
		return fmt.Errorf("stats must be placeholder or computed, got %q", c.Stats)
	}

	if c.Publish != "" && !strings.HasPrefix(c.Publish, "s3://") {
		return fmt.Errorf("publish must be an s3:// URL, got %q", c.Publish)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Watch && c.WatchDebounce <= 0 {
		return fmt.Errorf("watch debounce must be positive")
	}
	return nil
}

// DatasetConfig returns the dataset constants with the configured overrides.
func (c *Config) DatasetConfig() domain.DatasetConfig {
	ds := domain.DefaultDatasetConfig()
	ds.FPS = c.FPS
	ds.TimestepDuration = 1 / c.FPS
	ds.JointCount = c.JointCount
	return ds
}

// Logger returns a console logger on stderr at the configured level.
func (c *Config) Logger() zerolog.Logger {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setFloatFromString parses a string to float64 and sets the destination if valid.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if f <= 0 {
		return nil
	}
	*dst = f
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
