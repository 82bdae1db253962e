// Package hdf5 reads LIBERO demonstration files.
//
// A file holds one group per trajectory under /data:
//
//	data/demo_N/{actions,dones,rewards}
//	data/demo_N/obs/{agentview_rgb,eye_in_hand_rgb,joint_states,ee_pos,ee_ori,ee_states,gripper_states}
//
// The HDF5 C library is not safe for concurrent use; a File must stay on one
// goroutine.
package hdf5

import (
	"context"
	"fmt"

	"gonum.org/v1/hdf5"

	"github.com/bft-labs/libero2lerobot/internal/domain"
	"github.com/bft-labs/libero2lerobot/internal/ports"
)

// DataGroup is the top-level container of trajectories.
const DataGroup = "data"

// Source implements ports.TrajectorySource.
type Source struct{}

// NewSource creates an HDF5 trajectory source.
func NewSource() *Source {
	return &Source{}
}

// Open opens path read-only.
func (s *Source) Open(ctx context.Context, path string) (ports.TrajectoryFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("open hdf5 %s: %w", path, err)
	}
	return &File{f: f, path: path}, nil
}

// File is one open recording.
type File struct {
	f    *hdf5.File
	path string
}

// Trajectories lists the members of the data group.
func (f *File) Trajectories() ([]string, error) {
	if !f.f.LinkExists(DataGroup) {
		return nil, &domain.MissingChannelError{Trajectory: f.path, Channel: DataGroup}
	}
	g, err := f.f.OpenGroup(DataGroup)
	if err != nil {
		return nil, fmt.Errorf("open group %s: %w", DataGroup, err)
	}
	defer g.Close()

	n, err := g.NumObjects()
	if err != nil {
		return nil, fmt.Errorf("count %s members: %w", DataGroup, err)
	}
	ids := make([]string, 0, n)
	for i := uint(0); i < n; i++ {
		name, err := g.ObjectNameByIndex(i)
		if err != nil {
			return nil, fmt.Errorf("member %d of %s: %w", i, DataGroup, err)
		}
		ids = append(ids, name)
	}
	return ids, nil
}

// Extract reads every array of trajectory id.
func (f *File) Extract(ctx context.Context, id string) (domain.Bundle, error) {
	group := DataGroup + "/" + id
	if !f.f.LinkExists(group) {
		return domain.Bundle{}, &domain.MissingChannelError{Trajectory: id, Channel: group}
	}
	g, err := f.f.OpenGroup(group)
	if err != nil {
		return domain.Bundle{}, fmt.Errorf("open group %s: %w", group, err)
	}
	defer g.Close()

	r := &trajectoryReader{ctx: ctx, g: g, id: id}
	b := domain.Bundle{ID: id}
	b.Actions = r.matrix("actions")
	b.Rewards = r.vector("rewards")
	b.Dones = r.flags("dones")
	b.JointStates = r.matrix("obs/joint_states")
	b.EEPos = r.matrix("obs/ee_pos")
	b.EEOri = r.matrix("obs/ee_ori")
	b.EEStates = r.matrix("obs/ee_states")
	b.GripperStates = r.matrix("obs/gripper_states")
	b.AgentView = r.images("obs/agentview_rgb")
	b.EyeInHand = r.images("obs/eye_in_hand_rgb")
	if r.err != nil {
		return domain.Bundle{}, r.err
	}

	if err := b.Validate(); err != nil {
		return domain.Bundle{}, err
	}
	return b, nil
}

// Close releases the file.
func (f *File) Close() error {
	return f.f.Close()
}

// trajectoryReader reads datasets of one group and keeps the first error.
type trajectoryReader struct {
	ctx context.Context
	g   *hdf5.Group
	id  string
	err error
}

// open returns the dataset and its dimensions, or records an error.
func (r *trajectoryReader) open(name string, rank ...int) (*hdf5.Dataset, []uint) {
	if r.err != nil {
		return nil, nil
	}
	if err := r.ctx.Err(); err != nil {
		r.err = err
		return nil, nil
	}
	if !r.exists(name) {
		r.err = &domain.MissingChannelError{Trajectory: r.id, Channel: name}
		return nil, nil
	}

	ds, err := r.g.OpenDataset(name)
	if err != nil {
		r.err = fmt.Errorf("open dataset %s: %w", name, err)
		return nil, nil
	}
	space := ds.Space()
	dims, _, err := space.SimpleExtentDims()
	space.Close()
	if err != nil {
		ds.Close()
		r.err = fmt.Errorf("dataset %s dims: %w", name, err)
		return nil, nil
	}
	if !rankIn(len(dims), rank) {
		ds.Close()
		r.err = fmt.Errorf("%w: dataset %s of %s has rank %d", domain.ErrShapeMismatch, name, r.id, len(dims))
		return nil, nil
	}
	return ds, dims
}

// exists checks every path component so a missing parent group is not an error.
func (r *trajectoryReader) exists(name string) bool {
	for i := 0; i < len(name); i++ {
		if name[i] == '/' && !r.g.LinkExists(name[:i]) {
			return false
		}
	}
	return r.g.LinkExists(name)
}

func (r *trajectoryReader) read(ds *hdf5.Dataset, name string, buf interface{}) {
	defer ds.Close()
	if err := ds.Read(buf); err != nil {
		r.err = fmt.Errorf("read dataset %s: %w", name, err)
	}
}

// matrix reads a T or T×D dataset as float64.
func (r *trajectoryReader) matrix(name string) domain.Matrix {
	ds, dims := r.open(name, 1, 2)
	if ds == nil {
		return domain.Matrix{}
	}
	m := domain.Matrix{Rows: int(dims[0]), Cols: 1}
	if len(dims) == 2 {
		m.Cols = int(dims[1])
	}
	m.Data = make([]float64, m.Rows*m.Cols)
	r.read(ds, name, &m.Data)
	return m
}

// vector reads a T or T×1 dataset as float64.
func (r *trajectoryReader) vector(name string) []float64 {
	m := r.matrix(name)
	if r.err == nil && m.Cols != 1 {
		r.err = fmt.Errorf("%w: dataset %s of %s has %d columns, want 1", domain.ErrShapeMismatch, name, r.id, m.Cols)
	}
	return m.Data
}

// flags reads a T dataset of any numeric type as booleans.
func (r *trajectoryReader) flags(name string) []bool {
	ds, dims := r.open(name, 1, 2)
	if ds == nil {
		return nil
	}
	n := int(dims[0])
	if len(dims) == 2 && dims[1] != 1 {
		ds.Close()
		r.err = fmt.Errorf("%w: dataset %s of %s has %d columns, want 1", domain.ErrShapeMismatch, name, r.id, dims[1])
		return nil
	}
	raw := make([]int64, n)
	r.read(ds, name, &raw)
	out := make([]bool, n)
	for i, v := range raw {
		out[i] = v != 0
	}
	return out
}

// images reads a T×H×W×C dataset, keeping 8-bit data as is and reading
// floating point data as float32.
func (r *trajectoryReader) images(name string) domain.ImageStream {
	ds, dims := r.open(name, 4)
	if ds == nil {
		return domain.ImageStream{}
	}
	s := domain.ImageStream{
		Frames:   int(dims[0]),
		Height:   int(dims[1]),
		Width:    int(dims[2]),
		Channels: int(dims[3]),
	}
	n := s.Frames * s.FrameSize()

	dtype, err := ds.Datatype()
	if err != nil {
		ds.Close()
		r.err = fmt.Errorf("dataset %s type: %w", name, err)
		return domain.ImageStream{}
	}
	class := dtype.Class()
	dtype.Close()

	switch class {
	case hdf5.T_FLOAT:
		s.Float32 = make([]float32, n)
		r.read(ds, name, &s.Float32)
	case hdf5.T_INTEGER:
		s.Uint8 = make([]uint8, n)
		r.read(ds, name, &s.Uint8)
	default:
		ds.Close()
		r.err = fmt.Errorf("dataset %s: unsupported pixel type class %v", name, class)
	}
	return s
}

func rankIn(rank int, allowed []int) bool {
	for _, a := range allowed {
		if rank == a {
			return true
		}
	}
	return false
}
