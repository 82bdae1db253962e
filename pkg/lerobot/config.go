package lerobot

import (
	"fmt"

	"github.com/bft-labs/libero2lerobot/internal/app"
	"github.com/bft-labs/libero2lerobot/internal/domain"
)

// DatasetConfig holds the dataset constants: frame rate, image shape, joint
// count and robot type.
type DatasetConfig = domain.DatasetConfig

// DefaultDatasetConfig returns the LIBERO dataset constants.
func DefaultDatasetConfig() DatasetConfig {
	return domain.DefaultDatasetConfig()
}

// Stats modes for stats.json.
const (
	StatsPlaceholder = string(app.StatsPlaceholder)
	StatsComputed    = string(app.StatsComputed)
)

// Config holds the configuration of a Converter.
type Config struct {
	// InputDir holds the .hdf5 files, one task per file.
	InputDir string

	// OutputDir is the dataset root.
	OutputDir string

	Dataset DatasetConfig

	// Workers bounds concurrent still-image writes per stream.
	// Default: 4
	Workers int

	// Stats is StatsPlaceholder or StatsComputed.
	// Default: StatsPlaceholder
	Stats string

	// CleanupFailed removes the chunk directories of a failed file.
	CleanupFailed bool

	// FFmpeg is the ffmpeg binary. Default: "ffmpeg" on PATH.
	FFmpeg string

	// VideoCodec is passed to ffmpeg -c:v. Default: libx264
	VideoCodec string
}

// DefaultConfig returns a Config with default values.
// InputDir and OutputDir must still be set.
func DefaultConfig() Config {
	return Config{
		Dataset:    DefaultDatasetConfig(),
		Workers:    4,
		Stats:      StatsPlaceholder,
		FFmpeg:     "ffmpeg",
		VideoCodec: "libx264",
	}
}

// SetDefaults fills zero fields with default values.
func (c *Config) SetDefaults() {
	d := DefaultConfig()
	if c.Dataset == (DatasetConfig{}) {
		c.Dataset = d.Dataset
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.Stats == "" {
		c.Stats = d.Stats
	}
	if c.FFmpeg == "" {
		c.FFmpeg = d.FFmpeg
	}
	if c.VideoCodec == "" {
		c.VideoCodec = d.VideoCodec
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("%w: input dir is required", domain.ErrInvalidConfig)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output dir is required", domain.ErrInvalidConfig)
	}
	if err := c.Dataset.Validate(); err != nil {
		return err
	}
	if _, err := app.ParseStatsMode(c.Stats); err != nil {
		return err
	}
	return nil
}
