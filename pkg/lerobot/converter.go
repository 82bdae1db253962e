package lerobot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/libero2lerobot/internal/adapters/ffmpeg"
	"github.com/bft-labs/libero2lerobot/internal/adapters/fs"
	"github.com/bft-labs/libero2lerobot/internal/adapters/hdf5"
	"github.com/bft-labs/libero2lerobot/internal/adapters/parquet"
	"github.com/bft-labs/libero2lerobot/internal/app"
	"github.com/bft-labs/libero2lerobot/internal/ports"
	"github.com/bft-labs/libero2lerobot/pkg/log"
)

// Converter turns a directory of LIBERO files into a LeRobot dataset.
// Runs are serialized; a Converter is safe for concurrent use.
type Converter struct {
	config Config
	stats  app.StatsMode
	opts   options
	events EventEmitter
	logger ports.Logger

	mu          sync.Mutex
	initialized bool
}

// New creates a Converter with the given configuration.
// Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Converter, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	stats, err := app.ParseStatsMode(cfg.Stats)
	if err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.NewNoopLogger()
	}
	if o.source == nil {
		o.source = hdf5.NewSource()
	}
	if o.tables == nil {
		o.tables = parquet.NewTableWriter()
	}
	if o.encoder == nil {
		o.encoder = ffmpeg.New(cfg.FFmpeg, cfg.VideoCodec, cfg.Dataset.PixelFormat)
	}

	var events EventEmitter = app.NopEvents{}
	switch len(o.events) {
	case 0:
	case 1:
		events = o.events[0]
	default:
		events = app.MultiEvents(o.events)
	}

	return &Converter{
		config: cfg,
		stats:  stats,
		opts:   o,
		events: events,
		logger: o.logger,
	}, nil
}

// Config returns the effective configuration.
func (c *Converter) Config() Config {
	return c.config
}

// Run converts every input file once and writes the dataset metadata.
// Plugins are initialized on the first call. A failing file does not fail
// the run; a missing input directory or a canceled ctx does.
func (c *Converter) Run(ctx context.Context) (Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.initPlugins(ctx); err != nil {
		return Summary{}, err
	}

	started := time.Now()
	c.logger.Info("conversion started",
		ports.String("input_dir", c.config.InputDir),
		ports.String("output_dir", c.config.OutputDir),
	)

	res, err := c.newBatch().Run(ctx)
	summary := c.summarize(res, time.Since(started))
	if err != nil {
		return summary, err
	}
	c.logger.Info("conversion finished",
		ports.Int("chunks", summary.Chunks),
		ports.Int("episodes", summary.Episodes),
		ports.Int("frames", summary.Frames),
		ports.Int("failed_files", len(summary.Failed)),
		ports.Duration("duration", summary.Duration),
	)

	var hookErrs []error
	for _, p := range c.opts.plugins {
		h, ok := p.(RunHook)
		if !ok {
			continue
		}
		if err := h.AfterRun(ctx, summary); err != nil {
			c.logger.Error("plugin after-run hook failed", ports.String("plugin", p.Name()), ports.Err(err))
			hookErrs = append(hookErrs, fmt.Errorf("plugin %s: %w", p.Name(), err))
		}
	}
	return summary, errors.Join(hookErrs...)
}

// Close shuts down initialized plugins in reverse order.
func (c *Converter) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return nil
	}
	c.initialized = false

	var errs []error
	for i := len(c.opts.plugins) - 1; i >= 0; i-- {
		p := c.opts.plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			c.logger.Error("plugin shutdown failed", ports.String("plugin", p.Name()), ports.Err(err))
			errs = append(errs, fmt.Errorf("plugin %s: %w", p.Name(), err))
			continue
		}
		c.logger.Debug("plugin shutdown complete", ports.String("plugin", p.Name()))
	}
	return errors.Join(errs...)
}

func (c *Converter) initPlugins(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	cfg := PluginConfig{
		InputDir:  c.config.InputDir,
		OutputDir: c.config.OutputDir,
		Logger:    c.logger,
	}
	for i, p := range c.opts.plugins {
		if err := p.Initialize(ctx, cfg); err != nil {
			c.logger.Error("plugin initialization failed", ports.String("plugin", p.Name()), ports.Err(err))
			for j := i - 1; j >= 0; j-- {
				_ = c.opts.plugins[j].Shutdown(ctx)
			}
			return fmt.Errorf("initialize plugin %s: %w", p.Name(), err)
		}
		c.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}
	c.initialized = true
	return nil
}

// newBatch wires a fresh pipeline; nothing is shared between runs except
// the injected collaborators.
func (c *Converter) newBatch() *app.Batch {
	root := c.config.OutputDir
	ds := c.config.Dataset

	frames := app.NewFrameMaterializer(root, ds, c.opts.encoder, c.config.Workers)
	processor := app.NewChunkProcessor(root, ds, c.opts.source, c.opts.tables, frames,
		c.logger, c.events, c.opts.phases, c.opts.progress)
	aggregator := app.NewAggregator(fs.NewMetaStore(root), ds, c.stats, c.logger)

	return app.NewBatch(app.BatchConfig{
		InputDir:      c.config.InputDir,
		OutputDir:     root,
		CleanupFailed: c.config.CleanupFailed,
	}, processor, aggregator, c.logger, c.events, c.opts.progress)
}

func (c *Converter) summarize(res app.Result, d time.Duration) Summary {
	s := Summary{
		InputDir:  c.config.InputDir,
		OutputDir: c.config.OutputDir,
		Inputs:    res.Inputs,
		Chunks:    res.Metadata.TotalChunks,
		Episodes:  res.Metadata.TotalEpisodes,
		Frames:    res.Metadata.TotalFrames,
		Tasks:     res.Metadata.TotalTasks,
		Videos:    res.Metadata.TotalVideos,
		Duration:  d,
	}
	for _, f := range res.Failed {
		s.Failed = append(s.Failed, FailedFile{File: f.Input.Name, Err: f.Err})
	}
	return s
}
