package lerobot

import (
	"context"
	"fmt"
	"time"
)

// Plugin extends a Converter.
// Plugins are initialized in registration order before the first run and
// shut down in reverse order by Converter.Close.
type Plugin interface {
	// Name returns the plugin identifier used in logs.
	Name() string

	// Initialize prepares the plugin. A returned error aborts the run.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown releases plugin resources.
	Shutdown(ctx context.Context) error
}

// RunHook is implemented by plugins that act on a finished dataset.
// AfterRun is called after every run that completed, in registration order.
type RunHook interface {
	AfterRun(ctx context.Context, summary Summary) error
}

// PluginConfig is the converter context handed to plugins.
type PluginConfig struct {
	InputDir  string
	OutputDir string
	Logger    Logger
}

// FailedFile is an input file left out of the dataset.
type FailedFile struct {
	File string
	Err  error
}

// Summary describes one conversion run.
type Summary struct {
	InputDir  string
	OutputDir string

	// Inputs is the number of .hdf5 files found.
	Inputs   int
	Chunks   int
	Episodes int
	Frames   int
	Tasks    int
	Videos   int
	Failed   []FailedFile
	Duration time.Duration
}

func (s Summary) String() string {
	return fmt.Sprintf("%d chunks, %d episodes, %d frames, %d tasks (%d of %d files failed) in %s",
		s.Chunks, s.Episodes, s.Frames, s.Tasks, len(s.Failed), s.Inputs, s.Duration.Round(time.Millisecond))
}
