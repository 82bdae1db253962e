package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/libero2lerobot/internal/adapters/progress"
	"github.com/bft-labs/libero2lerobot/internal/cliconfig"
	"github.com/bft-labs/libero2lerobot/internal/metrics"
	"github.com/bft-labs/libero2lerobot/pkg/lerobot"
	"github.com/bft-labs/libero2lerobot/pkg/log"
	"github.com/bft-labs/libero2lerobot/plugins/imagecleanup"
	"github.com/bft-labs/libero2lerobot/plugins/s3publish"
)

const helpDescription = `
Convert LIBERO HDF5 demonstrations into a LeRobot v2.0 dataset.

Every .hdf5 file in the input directory is one task and becomes one chunk:
one parquet table and two mp4 videos per demonstration, plus the dataset
metadata under meta/. A file that fails is logged and skipped; episode
indices stay contiguous over the files that succeeded.

Requires ffmpeg on PATH (or --ffmpeg).
`

var exampleUsage = strings.TrimSpace(`
  libero2lerobot --input-dir datasets/libero_object --output-dir datasets/libero_object_lerobot
  libero2lerobot --config $HOME/.libero2lerobot/config.toml --stats computed --keep-images=false
  libero2lerobot --watch --metrics-addr :9090 --publish s3://datasets/libero_object
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	logger := cfg.Logger()

	root := &cobra.Command{
		Use:           "libero2lerobot",
		Short:         "Convert LIBERO HDF5 demonstrations into a LeRobot v2.0 dataset",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Config file first, then env, then flags (via the changed set).
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			} else if cfgPath != "" {
				return fmt.Errorf("config file %s not found", cfgPath)
			}

			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger = cfg.Logger()
			logger.Info().Interface("config", cfg).Msg("configuration")

			return run(cmd.Context(), cfg, logger)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.libero2lerobot/config.toml)")
	root.Flags().StringVar(&cfg.InputDir, "input-dir", cfg.InputDir, "directory of LIBERO .hdf5 files")
	root.Flags().StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "dataset root to write")

	root.Flags().Float64Var(&cfg.FPS, "fps", cfg.FPS, "recording and video frame rate")
	root.Flags().IntVar(&cfg.JointCount, "joint-count", cfg.JointCount, "width of state and action vectors")
	root.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent still-image writers per stream")
	root.Flags().StringVar(&cfg.Stats, "stats", cfg.Stats, "stats.json mode: placeholder or computed")

	root.Flags().BoolVar(&cfg.CleanupFailed, "cleanup-failed", cfg.CleanupFailed, "remove the chunk directories of a failed file")
	root.Flags().BoolVar(&cfg.KeepImages, "keep-images", cfg.KeepImages, "keep intermediate still images after the run")

	root.Flags().StringVar(&cfg.FFmpeg, "ffmpeg", cfg.FFmpeg, "ffmpeg binary")
	root.Flags().StringVar(&cfg.VideoCodec, "video-codec", cfg.VideoCodec, "ffmpeg video codec")

	root.Flags().StringVar(&cfg.Publish, "publish", cfg.Publish, "upload the dataset to s3://bucket/prefix after each run")
	root.Flags().StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "write prometheus metrics to this file after each run")
	root.Flags().StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve prometheus metrics on this address")

	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	root.Flags().BoolVar(&cfg.Watch, "watch", cfg.Watch, "re-run whenever input files change")
	root.Flags().DurationVar(&cfg.WatchDebounce, "watch-debounce", cfg.WatchDebounce, "quiet period before a watch re-run")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		logger.Error().Err(err).Msg("libero2lerobot")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg cliconfig.Config, zl zerolog.Logger) error {
	logger := log.NewZerologAdapterWithLogger(zl)
	collector := metrics.New()

	opts := []lerobot.Option{
		lerobot.WithLogger(logger),
		lerobot.WithEvents(collector),
		lerobot.WithProgress(progress.NewBar(os.Stderr, "files ")),
	}
	if !cfg.KeepImages {
		opts = append(opts, imagecleanup.WithImageCleanup(imagecleanup.DefaultConfig()))
	}
	if cfg.Publish != "" {
		opts = append(opts, s3publish.WithS3Publish(s3publish.Config{URL: cfg.Publish}))
	}

	libCfg := lerobot.Config{
		InputDir:      cfg.InputDir,
		OutputDir:     cfg.OutputDir,
		Dataset:       cfg.DatasetConfig(),
		Workers:       cfg.Workers,
		Stats:         cfg.Stats,
		CleanupFailed: cfg.CleanupFailed,
		FFmpeg:        cfg.FFmpeg,
		VideoCodec:    cfg.VideoCodec,
	}
	conv, err := lerobot.New(libCfg, opts...)
	if err != nil {
		return fmt.Errorf("create converter: %w", err)
	}
	defer func() {
		if err := conv.Close(context.Background()); err != nil {
			zl.Warn().Err(err).Msg("shutdown")
		}
	}()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := collector.Serve(ctx, cfg.MetricsAddr); err != nil {
				zl.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("metrics server")
			}
		}()
	}

	report := func(s lerobot.Summary, err error) {
		if cfg.MetricsFile != "" {
			if werr := collector.WriteTextfile(cfg.MetricsFile); werr != nil {
				zl.Warn().Err(werr).Str("path", cfg.MetricsFile).Msg("write metrics")
			}
		}
		if err != nil {
			zl.Error().Err(err).Msg("run failed")
			return
		}
		printSummary(s)
	}

	if cfg.Watch {
		return conv.Watch(ctx, cfg.WatchDebounce, report)
	}

	s, err := conv.Run(ctx)
	if cfg.MetricsFile != "" {
		if werr := collector.WriteTextfile(cfg.MetricsFile); werr != nil {
			zl.Warn().Err(werr).Str("path", cfg.MetricsFile).Msg("write metrics")
		}
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("interrupted: %w", err)
		}
		return err
	}
	printSummary(s)
	return nil
}

func printSummary(s lerobot.Summary) {
	fmt.Printf("Converted %s -> %s\n", s.InputDir, s.OutputDir)
	fmt.Printf("  chunks:   %d\n", s.Chunks)
	fmt.Printf("  episodes: %d\n", s.Episodes)
	fmt.Printf("  frames:   %d\n", s.Frames)
	fmt.Printf("  tasks:    %d\n", s.Tasks)
	if len(s.Failed) > 0 {
		fmt.Printf("  failed:   %d of %d files\n", len(s.Failed), s.Inputs)
		for _, f := range s.Failed {
			fmt.Printf("    %s: %v\n", f.File, f.Err)
		}
	}
}
