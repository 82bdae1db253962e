package lerobot

import (
	"github.com/bft-labs/libero2lerobot/internal/app"
	"github.com/bft-labs/libero2lerobot/internal/domain"
	"github.com/bft-labs/libero2lerobot/internal/ports"
	"github.com/bft-labs/libero2lerobot/pkg/log"
)

// Re-export types so embedders and plugins need only this package.
type (
	// Logger is the Logger interface from pkg/log.
	Logger = log.Logger

	// Field is the Field type from pkg/log.
	Field = log.Field

	// EventEmitter receives conversion events.
	EventEmitter = app.EventEmitter

	// NopEvents ignores every event; embed it to implement a subset.
	NopEvents = app.NopEvents

	// PhaseEmitter receives per-file phase transitions.
	PhaseEmitter = app.PhaseEmitter

	// Phase is a per-file processing phase.
	Phase = app.Phase

	// Chunk is the converted output of one input file.
	Chunk = domain.Chunk

	// Progress displays per-file progress.
	Progress = ports.Progress

	// TrajectorySource opens recording files.
	TrajectorySource = ports.TrajectorySource

	// TableWriter persists one episode table.
	TableWriter = ports.TableWriter

	// FrameEncoder encodes an ordered list of still images into a video.
	FrameEncoder = ports.FrameEncoder
)

// Option configures optional behavior of a Converter.
type Option func(*options)

type options struct {
	logger   Logger
	events   []EventEmitter
	phases   PhaseEmitter
	progress Progress
	plugins  []Plugin
	source   TrajectorySource
	tables   TableWriter
	encoder  FrameEncoder
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEvents adds an event emitter. Emitters are called in registration order.
func WithEvents(e EventEmitter) Option {
	return func(o *options) {
		o.events = append(o.events, e)
	}
}

// WithPhaseEmitter sets a receiver for per-file phase transitions.
func WithPhaseEmitter(e PhaseEmitter) Option {
	return func(o *options) {
		o.phases = e
	}
}

// WithProgress sets a progress display. Defaults to none.
func WithProgress(p Progress) Option {
	return func(o *options) {
		o.progress = p
	}
}

// WithPlugin registers a plugin to be initialized before the first run.
func WithPlugin(p Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, p)
	}
}

// WithTrajectorySource replaces the HDF5 reader.
func WithTrajectorySource(s TrajectorySource) Option {
	return func(o *options) {
		o.source = s
	}
}

// WithTableWriter replaces the parquet writer.
func WithTableWriter(w TableWriter) Option {
	return func(o *options) {
		o.tables = w
	}
}

// WithFrameEncoder replaces the ffmpeg encoder.
func WithFrameEncoder(e FrameEncoder) Option {
	return func(o *options) {
		o.encoder = e
	}
}
