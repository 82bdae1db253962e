package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bft-labs/libero2lerobot/internal/domain"
	"github.com/bft-labs/libero2lerobot/internal/ports"
)

// testDataset is a small dataset shape keeping fixtures cheap.
func testDataset() domain.DatasetConfig {
	ds := domain.DefaultDatasetConfig()
	ds.ImageHeight, ds.ImageWidth = 2, 2
	ds.JointCount = 3
	return ds
}

// makeBundle builds a consistent trajectory of n timesteps whose values
// encode (seed, t) so round trips can be checked.
func makeBundle(id string, n int, ds domain.DatasetConfig, seed float64) domain.Bundle {
	mat := func(cols int, base float64) domain.Matrix {
		m := domain.Matrix{Rows: n, Cols: cols, Data: make([]float64, n*cols)}
		for t := 0; t < n; t++ {
			for c := 0; c < cols; c++ {
				m.Data[t*cols+c] = base + seed*100 + float64(t) + float64(c)/10
			}
		}
		return m
	}
	size := ds.ImageHeight * ds.ImageWidth * ds.ImageChannels
	img := domain.ImageStream{
		Frames: n, Height: ds.ImageHeight, Width: ds.ImageWidth, Channels: ds.ImageChannels,
		Uint8: make([]uint8, n*size),
	}
	for i := range img.Uint8 {
		img.Uint8[i] = uint8(i % 256)
	}

	b := domain.Bundle{
		ID:            id,
		Actions:       mat(ds.JointCount, 0),
		Rewards:       make([]float64, n),
		Dones:         make([]bool, n),
		JointStates:   mat(ds.JointCount, 1000),
		EEPos:         mat(3, 0),
		EEOri:         mat(3, 0),
		EEStates:      mat(6, 0),
		GripperStates: mat(2, 0),
		AgentView:     img,
		EyeInHand:     img,
	}
	for t := 0; t < n; t++ {
		b.Rewards[t] = float64(t) / 10
		b.Dones[t] = t == n-1
	}
	return b
}

// fakeFile is an in-memory recording file.
type fakeFile struct {
	ids        []string
	bundles    map[string]domain.Bundle
	extractErr map[string]error
	listErr    error
	closed     bool
}

func (f *fakeFile) Trajectories() ([]string, error) { return f.ids, f.listErr }

func (f *fakeFile) Extract(ctx context.Context, id string) (domain.Bundle, error) {
	if err := f.extractErr[id]; err != nil {
		return domain.Bundle{}, err
	}
	b, ok := f.bundles[id]
	if !ok {
		return domain.Bundle{}, &domain.MissingChannelError{Trajectory: id, Channel: "actions"}
	}
	return b, nil
}

func (f *fakeFile) Close() error {
	f.closed = true
	return nil
}

// fakeSource serves fakeFiles by base name.
type fakeSource struct {
	mu      sync.Mutex
	files   map[string]*fakeFile
	openErr map[string]error
	opened  []string
}

func (s *fakeSource) Open(ctx context.Context, path string) (ports.TrajectoryFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := filepath.Base(path)
	s.opened = append(s.opened, name)
	if err := s.openErr[name]; err != nil {
		return nil, err
	}
	f, ok := s.files[name]
	if !ok {
		return nil, errors.New("no such fake file")
	}
	return f, nil
}

// newFakeFile creates a file with trajectories demo_0..demo_{len-1} of the
// given lengths.
func newFakeFile(ds domain.DatasetConfig, seed float64, lengths ...int) *fakeFile {
	f := &fakeFile{bundles: map[string]domain.Bundle{}, extractErr: map[string]error{}}
	for i, n := range lengths {
		id := fmt.Sprintf("demo_%d", i)
		f.ids = append(f.ids, id)
		f.bundles[id] = makeBundle(id, n, ds, seed+float64(i))
	}
	return f
}

// fakeTables records every table write and touches the path.
type fakeTables struct {
	mu     sync.Mutex
	tables map[string][]domain.TimestepRecord
	err    error
}

func (w *fakeTables) WriteEpisode(ctx context.Context, path string, records []domain.TimestepRecord) error {
	if w.err != nil {
		return w.err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.tables == nil {
		w.tables = map[string][]domain.TimestepRecord{}
	}
	w.tables[path] = records
	return os.WriteFile(path, []byte("table"), 0o644)
}

// fakeEncoder records the frame lists it was asked to encode.
type fakeEncoder struct {
	mu    sync.Mutex
	calls map[string][]string
	fps   float64
	err   error
}

func (e *fakeEncoder) Encode(ctx context.Context, frames []string, fps float64, out string) error {
	if e.err != nil {
		return e.err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.calls == nil {
		e.calls = map[string][]string{}
	}
	e.calls[out] = append([]string(nil), frames...)
	e.fps = fps
	return os.WriteFile(out, []byte("video"), 0o644)
}

// memStore keeps metadata artifacts in memory.
type memStore struct {
	mu    sync.Mutex
	docs  map[string]any
	lines map[string][]any
}

func newMemStore() *memStore {
	return &memStore{docs: map[string]any{}, lines: map[string][]any{}}
}

func (s *memStore) WriteJSON(ctx context.Context, name string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = v
	return nil
}

func (s *memStore) WriteJSONLines(ctx context.Context, name string, rows []any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines[name] = rows
	return nil
}

// recordingEvents collects emitted events.
type recordingEvents struct {
	mu       sync.Mutex
	episodes []int
	encoded  int
	skipped  int
	chunks   []string
	failed   []string
}

func (r *recordingEvents) OnEpisodeWritten(episode, frames int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.episodes = append(r.episodes, episode)
}

func (r *recordingEvents) OnVideoEncoded(episode int, stream string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.encoded++
}

func (r *recordingEvents) OnVideoSkipped(episode int, stream string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped++
}

func (r *recordingEvents) OnChunkComplete(chunk domain.Chunk) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks = append(r.chunks, chunk.ChunkName)
}

func (r *recordingEvents) OnFileFailed(file string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, file)
}

// fakeProgress counts progress calls.
type fakeProgress struct {
	total, done int
	described   []string
	finished    bool
}

func (p *fakeProgress) Start(total int)     { p.total = total }
func (p *fakeProgress) Describe(msg string) { p.described = append(p.described, msg) }
func (p *fakeProgress) Increment()          { p.done++ }
func (p *fakeProgress) Finish()             { p.finished = true }

// touchInputs creates empty recording files in dir.
func touchInputs(t testing.TB, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}
