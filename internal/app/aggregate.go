package app

import (
	"context"
	"fmt"

	"github.com/bft-labs/libero2lerobot/internal/domain"
	"github.com/bft-labs/libero2lerobot/internal/ports"
)

// StatsMode selects how stats.json is produced.
type StatsMode string

const (
	// StatsPlaceholder writes the fixed stub.
	StatsPlaceholder StatsMode = "placeholder"

	// StatsComputed writes statistics over every converted record.
	StatsComputed StatsMode = "computed"
)

// ParseStatsMode validates a stats mode name. Empty selects the placeholder.
func ParseStatsMode(s string) (StatsMode, error) {
	switch StatsMode(s) {
	case "", StatsPlaceholder:
		return StatsPlaceholder, nil
	case StatsComputed:
		return StatsComputed, nil
	default:
		return "", fmt.Errorf("%w: unknown stats mode %q", domain.ErrInvalidConfig, s)
	}
}

// Metadata artifact names under meta/.
const (
	EpisodesFile = "episodes.jsonl"
	TasksFile    = "tasks.jsonl"
	InfoFile     = "info.json"
	ModalityFile = "modality.json"
	StatsFile    = "stats.json"
)

// TaskRow is one line of tasks.jsonl.
type TaskRow struct {
	TaskIndex int    `json:"task_index"`
	Task      string `json:"task"`
}

// Aggregator builds and persists the dataset-wide metadata.
type Aggregator struct {
	store  ports.MetadataStore
	ds     domain.DatasetConfig
	stats  StatsMode
	logger ports.Logger
}

// NewAggregator creates an aggregator writing through store.
func NewAggregator(store ports.MetadataStore, ds domain.DatasetConfig, stats StatsMode, logger ports.Logger) *Aggregator {
	return &Aggregator{store: store, ds: ds, stats: stats, logger: logger}
}

// Aggregate derives the global metadata from the succeeded chunks, checks it
// and writes every artifact. An empty chunk list yields zero-valued artifacts.
func (a *Aggregator) Aggregate(ctx context.Context, chunks []domain.Chunk) (domain.GlobalMetadata, error) {
	m := domain.BuildGlobalMetadata(chunks, a.ds.JointCount)
	if err := m.Verify(); err != nil {
		return m, err
	}

	episodes := make([]any, len(m.Episodes))
	for i, e := range m.Episodes {
		episodes[i] = e
	}
	if err := a.store.WriteJSONLines(ctx, EpisodesFile, episodes); err != nil {
		return m, fmt.Errorf("write %s: %w", EpisodesFile, err)
	}

	tasks := make([]any, len(m.Tasks))
	for i, t := range m.Tasks {
		tasks[i] = TaskRow{TaskIndex: i, Task: t}
	}
	if err := a.store.WriteJSONLines(ctx, TasksFile, tasks); err != nil {
		return m, fmt.Errorf("write %s: %w", TasksFile, err)
	}

	if err := a.store.WriteJSON(ctx, InfoFile, NewInfoDocument(m, a.ds)); err != nil {
		return m, fmt.Errorf("write %s: %w", InfoFile, err)
	}
	if err := a.store.WriteJSON(ctx, ModalityFile, NewModalityDocument(a.ds)); err != nil {
		return m, fmt.Errorf("write %s: %w", ModalityFile, err)
	}

	stats := PlaceholderStats(a.ds.JointCount)
	if a.stats == StatsComputed {
		stats = ComputedStats(m)
	} else {
		a.logger.Debug("writing placeholder statistics", ports.String("file", StatsFile))
	}
	if err := a.store.WriteJSON(ctx, StatsFile, stats); err != nil {
		return m, fmt.Errorf("write %s: %w", StatsFile, err)
	}

	a.logger.Info("metadata written",
		ports.Int("episodes", m.TotalEpisodes),
		ports.Int("frames", m.TotalFrames),
		ports.Int("chunks", m.TotalChunks),
		ports.Int("tasks", m.TotalTasks),
		ports.String("stats", string(a.stats)),
	)
	return m, nil
}
