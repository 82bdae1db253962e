package app

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bft-labs/libero2lerobot/internal/domain"
)

// Path templates declared in info.json.
const (
	DataPathTemplate  = "data/chunk-{episode_chunk:03d}/episode_{episode_index:06d}.parquet"
	VideoPathTemplate = "videos/chunk-{episode_chunk:03d}/{video_key}/episode_{episode_index:06d}.mp4"
)

// InfoDocument is meta/info.json.
type InfoDocument struct {
	CodebaseVersion string            `json:"codebase_version"`
	RobotType       string            `json:"robot_type"`
	TotalEpisodes   int               `json:"total_episodes"`
	TotalFrames     int               `json:"total_frames"`
	TotalTasks      int               `json:"total_tasks"`
	TotalVideos     int               `json:"total_videos"`
	TotalChunks     int               `json:"total_chunks"`
	ChunksSize      int               `json:"chunks_size"`
	FPS             float64           `json:"fps"`
	Splits          map[string]string `json:"splits"`
	DataPath        string            `json:"data_path"`
	VideoPath       string            `json:"video_path"`
	ChunksInfo      []domain.Chunk    `json:"chunks_info"`
	Features        Features          `json:"features"`
}

// Feature describes one output column.
type Feature struct {
	Dtype     string     `json:"dtype"`
	Shape     []int      `json:"shape"`
	Names     []string   `json:"names,omitempty"`
	VideoInfo *VideoInfo `json:"video_info,omitempty"`
}

// VideoInfo describes the encoding of a video feature.
type VideoInfo struct {
	FPS        float64 `json:"video.fps"`
	Codec      string  `json:"video.codec"`
	PixFmt     string  `json:"video.pix_fmt"`
	IsDepthMap bool    `json:"video.is_depth_map"`
	HasAudio   bool    `json:"has_audio"`
}

// NamedFeature is one entry of Features.
type NamedFeature struct {
	Key string
	Feature
}

// Features is an ordered feature map; it marshals as a JSON object with
// keys in slice order.
type Features []NamedFeature

// MarshalJSON implements json.Marshaler.
func (f Features) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, nf := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(nf.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(nf.Feature)
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", nf.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Lookup returns the feature with the given key.
func (f Features) Lookup(key string) (Feature, bool) {
	for _, nf := range f {
		if nf.Key == key {
			return nf.Feature, true
		}
	}
	return Feature{}, false
}

// DatasetFeatures returns the column schema of every episode.
func DatasetFeatures(ds domain.DatasetConfig) Features {
	motors := make([]string, ds.JointCount)
	for i := range motors {
		motors[i] = fmt.Sprintf("motor_%d", i)
	}
	scalar := func(dtype string) Feature { return Feature{Dtype: dtype, Shape: []int{1}} }

	features := make(Features, 0, len(Streams)+10)
	for _, s := range Streams {
		features = append(features, NamedFeature{Key: s.VideoKey, Feature: Feature{
			Dtype: "video",
			Shape: []int{ds.ImageHeight, ds.ImageWidth, ds.ImageChannels},
			Names: []string{"height", "width", "channel"},
			VideoInfo: &VideoInfo{
				FPS:    ds.FPS,
				Codec:  ds.VideoCodec,
				PixFmt: ds.PixelFormat,
			},
		}})
	}
	return append(features,
		NamedFeature{"observation.state", Feature{Dtype: "float64", Shape: []int{ds.JointCount}, Names: motors}},
		NamedFeature{"action", Feature{Dtype: "float64", Shape: []int{ds.JointCount}, Names: motors}},
		NamedFeature{"timestamp", scalar("float64")},
		NamedFeature{"annotation.human.action.task_description", scalar("int64")},
		NamedFeature{"task_index", scalar("int64")},
		NamedFeature{"annotation.human.validity", scalar("int64")},
		NamedFeature{"episode_index", scalar("int64")},
		NamedFeature{"index", scalar("int64")},
		NamedFeature{"next.reward", scalar("float64")},
		NamedFeature{"next.done", scalar("bool")},
	)
}

// NewInfoDocument builds info.json from the aggregate.
func NewInfoDocument(m domain.GlobalMetadata, ds domain.DatasetConfig) InfoDocument {
	chunks := m.Chunks
	if chunks == nil {
		chunks = []domain.Chunk{}
	}
	return InfoDocument{
		CodebaseVersion: ds.CodebaseVersion,
		RobotType:       ds.RobotType,
		TotalEpisodes:   m.TotalEpisodes,
		TotalFrames:     m.TotalFrames,
		TotalTasks:      m.TotalTasks,
		TotalVideos:     m.TotalVideos,
		TotalChunks:     m.TotalChunks,
		ChunksSize:      m.ChunksSize,
		FPS:             ds.FPS,
		Splits:          map[string]string{"train": fmt.Sprintf("0:%d", m.TotalEpisodes)},
		DataPath:        DataPathTemplate,
		VideoPath:       VideoPathTemplate,
		ChunksInfo:      chunks,
		Features:        DatasetFeatures(ds),
	}
}

// ModalityDocument is meta/modality.json.
type ModalityDocument struct {
	State      map[string]IndexRange `json:"state"`
	Action     map[string]IndexRange `json:"action"`
	Video      map[string]VideoKey   `json:"video"`
	Annotation map[string]struct{}   `json:"annotation"`
}

// IndexRange is a [Start, End) slice of a vector feature.
type IndexRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// VideoKey maps a modality video name to its feature key.
type VideoKey struct {
	OriginalKey string `json:"original_key"`
}

// NewModalityDocument builds modality.json.
func NewModalityDocument(ds domain.DatasetConfig) ModalityDocument {
	joints := map[string]IndexRange{"joints": {Start: 0, End: ds.JointCount}}
	video := make(map[string]VideoKey, len(Streams))
	for _, s := range Streams {
		video[s.Name+"_rgb"] = VideoKey{OriginalKey: s.VideoKey}
	}
	return ModalityDocument{
		State:  joints,
		Action: joints,
		Video:  video,
		Annotation: map[string]struct{}{
			"human.action.task_description": {},
			"human.validity":                {},
		},
	}
}

// FieldStats is the normalization statistics of one vector feature.
type FieldStats struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
	Min  []float64 `json:"min"`
	Max  []float64 `json:"max"`
}

// StatsDocument is meta/stats.json.
type StatsDocument struct {
	State  FieldStats `json:"observation.state"`
	Action FieldStats `json:"action"`
}

// PlaceholderStats returns the fixed zero-mean unit-variance stub. It does
// not describe the data.
func PlaceholderStats(dims int) StatsDocument {
	fill := func(v float64) []float64 {
		out := make([]float64, dims)
		for i := range out {
			out[i] = v
		}
		return out
	}
	stub := FieldStats{Mean: fill(0), Std: fill(1), Min: fill(-1), Max: fill(1)}
	return StatsDocument{State: stub, Action: stub}
}

// ComputedStats returns population statistics over every record.
func ComputedStats(m domain.GlobalMetadata) StatsDocument {
	field := func(s *domain.RunningStats) FieldStats {
		return FieldStats{Mean: s.Mean(), Std: s.Std(), Min: s.Min(), Max: s.Max()}
	}
	return StatsDocument{State: field(m.StateStats), Action: field(m.ActionStats)}
}
