package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	InputDir      string  `toml:"input_dir"`
	OutputDir     string  `toml:"output_dir"`
	FPS           float64 `toml:"fps"`
	JointCount    int     `toml:"joint_count"`
	Workers       int     `toml:"workers"`
	Stats         string  `toml:"stats"`
	CleanupFailed *bool   `toml:"cleanup_failed"`
	KeepImages    *bool   `toml:"keep_images"`
	FFmpeg        string  `toml:"ffmpeg"`
	VideoCodec    string  `toml:"video_codec"`
	Publish       string  `toml:"publish"`
	MetricsFile   string  `toml:"metrics_file"`
	MetricsAddr   string  `toml:"metrics_addr"`
	LogLevel      string  `toml:"log_level"`
	Watch         *bool   `toml:"watch"`
	WatchDebounce string  `toml:"watch_debounce"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.libero2lerobot/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".libero2lerobot", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("input-dir", fc.InputDir, &cfg.InputDir)
	s.setString("output-dir", fc.OutputDir, &cfg.OutputDir)
	s.setString("stats", fc.Stats, &cfg.Stats)
	s.setString("ffmpeg", fc.FFmpeg, &cfg.FFmpeg)
	s.setString("video-codec", fc.VideoCodec, &cfg.VideoCodec)
	s.setString("publish", fc.Publish, &cfg.Publish)
	s.setString("metrics-file", fc.MetricsFile, &cfg.MetricsFile)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("watch-debounce", fc.WatchDebounce, &cfg.WatchDebounce); err != nil {
		return err
	}

	s.setFloat("fps", fc.FPS, &cfg.FPS)
	s.setInt("joint-count", fc.JointCount, &cfg.JointCount)
	s.setInt("workers", fc.Workers, &cfg.Workers)

	s.setBool("cleanup-failed", fc.CleanupFailed, &cfg.CleanupFailed)
	s.setBool("keep-images", fc.KeepImages, &cfg.KeepImages)
	s.setBool("watch", fc.Watch, &cfg.Watch)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
