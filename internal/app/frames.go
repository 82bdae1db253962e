package app

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/libero2lerobot/internal/domain"
	"github.com/bft-labs/libero2lerobot/internal/ports"
)

// Stream describes one camera of a trajectory.
type Stream struct {
	// Name is the still-image directory under images/.
	Name string

	// VideoKey is the feature key and the video directory name.
	VideoKey string
}

// Streams lists the cameras in output order.
var Streams = []Stream{
	{Name: "agentview", VideoKey: "observation.images.agentview_rgb"},
	{Name: "eye_in_hand", VideoKey: "observation.images.eye_in_hand_rgb"},
}

// FrameRef is one still image persisted on disk.
type FrameRef struct {
	// Ordinal is the local frame index; frames are ordered by it.
	Ordinal   int
	Timestamp float64
	Path      string
}

// FrameMaterializer writes per-timestep still images and encodes them into
// per-episode videos.
type FrameMaterializer struct {
	root    string
	ds      domain.DatasetConfig
	encoder ports.FrameEncoder
	workers int
}

// NewFrameMaterializer creates a materializer writing under root.
// workers bounds concurrent image writes within one stream; values below 1
// mean sequential.
func NewFrameMaterializer(root string, ds domain.DatasetConfig, encoder ports.FrameEncoder, workers int) *FrameMaterializer {
	if workers < 1 {
		workers = 1
	}
	return &FrameMaterializer{root: root, ds: ds, encoder: encoder, workers: workers}
}

// ImageDir returns the still-image directory of a stream.
func (m *FrameMaterializer) ImageDir(s Stream) string {
	return filepath.Join(m.root, "images", s.Name)
}

// VideoPath returns the video path of an episode stream.
func (m *FrameMaterializer) VideoPath(episode int, s Stream, chunkName string) string {
	return filepath.Join(m.root, "videos", chunkName, s.VideoKey, fmt.Sprintf("episode_%06d.mp4", episode))
}

// MaterializeEpisode writes one still image per timestep for both streams
// and returns the refs keyed by stream name. Stills of the same episode
// left by an earlier run are removed first.
func (m *FrameMaterializer) MaterializeEpisode(ctx context.Context, episode int, agentView, eyeInHand domain.ImageStream) (map[string][]FrameRef, error) {
	if err := m.ds.Validate(); err != nil {
		return nil, err
	}
	out := make(map[string][]FrameRef, len(Streams))
	for i, img := range []domain.ImageStream{agentView, eyeInHand} {
		s := Streams[i]
		refs, err := m.materializeStream(ctx, episode, s, img)
		if err != nil {
			return nil, fmt.Errorf("materialize %s: %w", s.Name, err)
		}
		out[s.Name] = refs
	}
	return out, nil
}

func (m *FrameMaterializer) materializeStream(ctx context.Context, episode int, s Stream, img domain.ImageStream) ([]FrameRef, error) {
	dir := m.ImageDir(s)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	if err := clearFrames(dir, episode); err != nil {
		return nil, err
	}

	refs := make([]FrameRef, img.Frames)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for t := 0; t < img.Frames; t++ {
		t := t
		ts := m.ds.Timestamp(t)
		path := filepath.Join(dir, FrameFileName(episode, ts))
		refs[t] = FrameRef{Ordinal: t, Timestamp: ts, Path: path}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			frame, err := FrameImage(img, t)
			if err != nil {
				return err
			}
			return writePNG(path, frame)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return refs, nil
}

// EncodeVideo lists the still images of an episode stream from disk, orders
// them by frame ordinal and encodes them into the episode video.
// It returns *domain.EmptyFrameSetError when no image matches.
func (m *FrameMaterializer) EncodeVideo(ctx context.Context, episode int, s Stream, chunkName string) (string, error) {
	refs, err := ListFrames(m.ImageDir(s), episode, m.ds.TimestepDuration)
	if err != nil {
		return "", err
	}
	if len(refs) == 0 {
		return "", &domain.EmptyFrameSetError{Episode: episode, Stream: s.Name}
	}

	out := m.VideoPath(episode, s, chunkName)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", fmt.Errorf("create video dir: %w", err)
	}

	paths := make([]string, len(refs))
	for i, r := range refs {
		paths[i] = r.Path
	}
	if err := m.encoder.Encode(ctx, paths, m.ds.FPS, out); err != nil {
		return "", fmt.Errorf("encode %s: %w", filepath.Base(out), err)
	}
	return out, nil
}

// FrameFileName formats the still-image name of one timestep.
func FrameFileName(episode int, timestamp float64) string {
	return fmt.Sprintf("%s%.3f.png", framePrefix(episode), timestamp)
}

// ListFrames returns the still images of one episode found in dir, ordered
// by the integer ordinal recovered from the embedded timestamp.
// A missing dir yields no frames.
func ListFrames(dir string, episode int, timestep float64) ([]FrameRef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list frames: %w", err)
	}

	prefix := framePrefix(episode)
	var refs []FrameRef
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".png") {
			continue
		}
		raw := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".png")
		ts, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		refs = append(refs, FrameRef{
			Ordinal:   int(math.Round(ts / timestep)),
			Timestamp: ts,
			Path:      filepath.Join(dir, name),
		})
	}

	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Ordinal != refs[j].Ordinal {
			return refs[i].Ordinal < refs[j].Ordinal
		}
		return refs[i].Path < refs[j].Path
	})
	return refs, nil
}

func framePrefix(episode int) string {
	return fmt.Sprintf("episode_%06d_timestamp_", episode)
}

// clearFrames removes every still of episode in dir, partial writes included.
func clearFrames(dir string, episode int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("list frames: %w", err)
	}
	prefix := framePrefix(episode)
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale frame: %w", err)
		}
	}
	return nil
}

// FrameImage returns frame t of img as an 8-bit image.
// Float frames whose maximum is at most 1.0 are scaled by 255, other float
// frames are cast. Values are clamped to [0, 255] and truncated.
func FrameImage(img domain.ImageStream, t int) (image.Image, error) {
	if t < 0 || t >= img.Frames {
		return nil, fmt.Errorf("frame %d out of range [0,%d)", t, img.Frames)
	}
	size := img.FrameSize()
	pix := make([]uint8, size)

	switch {
	case img.Uint8 != nil:
		if len(img.Uint8) < (t+1)*size {
			return nil, fmt.Errorf("frame %d: short uint8 buffer", t)
		}
		copy(pix, img.Uint8[t*size:(t+1)*size])
	case img.Float32 != nil:
		if len(img.Float32) < (t+1)*size {
			return nil, fmt.Errorf("frame %d: short float buffer", t)
		}
		normalizeFloat(pix, img.Float32[t*size:(t+1)*size])
	default:
		return nil, fmt.Errorf("frame %d: no pixel data", t)
	}

	rect := image.Rect(0, 0, img.Width, img.Height)
	switch img.Channels {
	case 1:
		return &image.Gray{Pix: pix, Stride: img.Width, Rect: rect}, nil
	case 3:
		out := image.NewNRGBA(rect)
		for i, j := 0, 0; i < len(pix); i, j = i+3, j+4 {
			out.Pix[j], out.Pix[j+1], out.Pix[j+2], out.Pix[j+3] = pix[i], pix[i+1], pix[i+2], 0xff
		}
		return out, nil
	case 4:
		return &image.NRGBA{Pix: pix, Stride: 4 * img.Width, Rect: rect}, nil
	default:
		return nil, &domain.DimensionError{Channel: "image channels", Got: img.Channels, Want: 3}
	}
}

func normalizeFloat(dst []uint8, src []float32) {
	var peak float32
	for _, v := range src {
		if v > peak {
			peak = v
		}
	}
	scale := float32(1)
	if peak <= 1.0 {
		scale = 255
	}
	for i, v := range src {
		dst[i] = clampByte(v * scale)
	}
}

func clampByte(v float32) uint8 {
	switch {
	case v != v || v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}

// writePNG encodes img next to path and renames it into place, so listing a
// stream directory never sees a partial image.
func writePNG(path string, img image.Image) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create frame: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode frame: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close frame: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename frame: %w", err)
	}
	return nil
}
