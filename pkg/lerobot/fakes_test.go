package lerobot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/bft-labs/libero2lerobot/internal/domain"
	"github.com/bft-labs/libero2lerobot/internal/ports"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.InputDir = filepath.Join(t.TempDir(), "in")
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	cfg.Dataset.ImageHeight, cfg.Dataset.ImageWidth = 2, 2
	cfg.Dataset.JointCount = 3
	if err := os.MkdirAll(cfg.InputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// fakeSource serves two trajectories of 3 and 2 timesteps for every file;
// files whose name contains "bad" fail to open.
type fakeSource struct {
	ds domain.DatasetConfig
}

func (s fakeSource) Open(ctx context.Context, path string) (ports.TrajectoryFile, error) {
	if strings.Contains(filepath.Base(path), "bad") {
		return nil, errors.New("not an hdf5 file")
	}
	return fakeFile{ds: s.ds, lengths: []int{3, 2}}, nil
}

type fakeFile struct {
	ds      domain.DatasetConfig
	lengths []int
}

func (f fakeFile) Trajectories() ([]string, error) {
	ids := make([]string, len(f.lengths))
	for i := range f.lengths {
		ids[i] = fmt.Sprintf("demo_%d", i)
	}
	return ids, nil
}

func (f fakeFile) Extract(ctx context.Context, id string) (domain.Bundle, error) {
	var i int
	if _, err := fmt.Sscanf(id, "demo_%d", &i); err != nil || i >= len(f.lengths) {
		return domain.Bundle{}, &domain.MissingChannelError{Trajectory: id, Channel: "actions"}
	}
	n := f.lengths[i]
	mat := func(cols int) domain.Matrix {
		return domain.Matrix{Rows: n, Cols: cols, Data: make([]float64, n*cols)}
	}
	size := f.ds.ImageHeight * f.ds.ImageWidth * f.ds.ImageChannels
	img := domain.ImageStream{
		Frames: n, Height: f.ds.ImageHeight, Width: f.ds.ImageWidth, Channels: f.ds.ImageChannels,
		Uint8: make([]uint8, n*size),
	}
	return domain.Bundle{
		ID:            id,
		Actions:       mat(f.ds.JointCount),
		Rewards:       make([]float64, n),
		Dones:         make([]bool, n),
		JointStates:   mat(f.ds.JointCount),
		EEPos:         mat(3),
		EEOri:         mat(3),
		EEStates:      mat(6),
		GripperStates: mat(2),
		AgentView:     img,
		EyeInHand:     img,
	}, nil
}

func (fakeFile) Close() error { return nil }

// emptyTables writes zero-byte tables.
type emptyTables struct{}

func (emptyTables) WriteEpisode(ctx context.Context, path string, records []domain.TimestepRecord) error {
	return os.WriteFile(path, nil, 0o644)
}

// touchEncoder writes a video file listing its frame count.
type touchEncoder struct{}

func (touchEncoder) Encode(ctx context.Context, frames []string, fps float64, out string) error {
	return os.WriteFile(out, []byte(fmt.Sprint(len(frames))), 0o644)
}

func fakeOptions(cfg Config, opts ...Option) []Option {
	return append([]Option{
		WithTrajectorySource(fakeSource{ds: cfg.Dataset}),
		WithTableWriter(emptyTables{}),
		WithFrameEncoder(touchEncoder{}),
	}, opts...)
}

// recordingPlugin records its lifecycle calls into a shared log.
type recordingPlugin struct {
	name    string
	log     *callLog
	initErr error
	hookErr error
}

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, s)
}

func (l *callLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func (p *recordingPlugin) Name() string { return p.name }

func (p *recordingPlugin) Initialize(ctx context.Context, cfg PluginConfig) error {
	p.log.add("init " + p.name)
	return p.initErr
}

func (p *recordingPlugin) Shutdown(ctx context.Context) error {
	p.log.add("shutdown " + p.name)
	return nil
}

func (p *recordingPlugin) AfterRun(ctx context.Context, s Summary) error {
	p.log.add(fmt.Sprintf("after %s %d", p.name, s.Episodes))
	return p.hookErr
}

type countingEvents struct {
	NopEvents
	mu       sync.Mutex
	episodes int
}

func (c *countingEvents) OnEpisodeWritten(episode, frames int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.episodes++
}

func (c *countingEvents) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.episodes
}
