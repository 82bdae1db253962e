package cliconfig

import "os"

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "LEROBOT_"

// ApplyEnvConfig applies configuration from environment variables (LEROBOT_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(name string) string { return os.Getenv(EnvPrefix + name) }

	s.setString("input-dir", env("INPUT_DIR"), &cfg.InputDir)
	s.setString("output-dir", env("OUTPUT_DIR"), &cfg.OutputDir)
	s.setString("stats", env("STATS"), &cfg.Stats)
	s.setString("ffmpeg", env("FFMPEG"), &cfg.FFmpeg)
	s.setString("video-codec", env("VIDEO_CODEC"), &cfg.VideoCodec)
	s.setString("publish", env("PUBLISH"), &cfg.Publish)
	s.setString("metrics-file", env("METRICS_FILE"), &cfg.MetricsFile)
	s.setString("metrics-addr", env("METRICS_ADDR"), &cfg.MetricsAddr)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("watch-debounce", env("WATCH_DEBOUNCE"), &cfg.WatchDebounce); err != nil {
		return err
	}
	if err := s.setFloatFromString("fps", env("FPS"), &cfg.FPS); err != nil {
		return err
	}
	if err := s.setIntFromString("joint-count", env("JOINT_COUNT"), &cfg.JointCount); err != nil {
		return err
	}
	if err := s.setIntFromString("workers", env("WORKERS"), &cfg.Workers); err != nil {
		return err
	}

	s.setBoolFromString("cleanup-failed", env("CLEANUP_FAILED"), &cfg.CleanupFailed)
	s.setBoolFromString("keep-images", env("KEEP_IMAGES"), &cfg.KeepImages)
	s.setBoolFromString("watch", env("WATCH"), &cfg.Watch)

	return nil
}
