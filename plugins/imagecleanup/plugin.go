// Package imagecleanup removes the intermediate still images of a
// libero2lerobot dataset once the episode videos have been encoded.
package imagecleanup

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/bft-labs/libero2lerobot/pkg/lerobot"
	"github.com/bft-labs/libero2lerobot/pkg/log"
)

// ImagesDir is the still-image directory under the dataset root.
const ImagesDir = "images"

// Plugin deletes OutputDir/images after every run.
type Plugin struct {
	mu sync.Mutex

	keepOnFailure bool

	outputDir string
	logger    lerobot.Logger
	freed     int64
}

// Config holds configuration options for the image cleanup plugin.
type Config struct {
	// KeepOnFailure leaves the images in place when any input file failed,
	// so the failure can be inspected.
	// Default: false
	KeepOnFailure bool
}

// DefaultConfig returns a Config with defaults.
func DefaultConfig() Config {
	return Config{}
}

// New creates a new image cleanup plugin with the given configuration.
func New(cfg Config) *Plugin {
	return &Plugin{keepOnFailure: cfg.KeepOnFailure, logger: log.NewNoopLogger()}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "imagecleanup"
}

// Initialize records the dataset root.
func (p *Plugin) Initialize(ctx context.Context, cfg lerobot.PluginConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outputDir = cfg.OutputDir
	if cfg.Logger != nil {
		p.logger = cfg.Logger
	}
	return nil
}

// Shutdown is a no-op.
func (p *Plugin) Shutdown(ctx context.Context) error {
	return nil
}

// AfterRun removes the still images and adds their size to Freed.
func (p *Plugin) AfterRun(ctx context.Context, s lerobot.Summary) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	dir := filepath.Join(p.outputDir, ImagesDir)
	if p.keepOnFailure && len(s.Failed) > 0 {
		p.logger.Info("image cleanup skipped: run had failed files",
			log.String("dir", dir), log.Int("failed_files", len(s.Failed)))
		return nil
	}

	size, err := dirSize(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("size %s: %w", dir, err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove %s: %w", dir, err)
	}
	p.freed += size
	p.logger.Info("still images removed", log.String("dir", dir), log.Int64("bytes_freed", size))
	return nil
}

// Freed returns the bytes removed over all runs.
func (p *Plugin) Freed() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.freed
}

func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}

var (
	_ lerobot.Plugin  = (*Plugin)(nil)
	_ lerobot.RunHook = (*Plugin)(nil)
)
