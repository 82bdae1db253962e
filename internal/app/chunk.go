package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bft-labs/libero2lerobot/internal/domain"
	"github.com/bft-labs/libero2lerobot/internal/ports"
)

// ChunkProcessor converts one input file into one chunk.
type ChunkProcessor struct {
	root     string
	ds       domain.DatasetConfig
	source   ports.TrajectorySource
	tables   ports.TableWriter
	frames   *FrameMaterializer
	logger   ports.Logger
	events   EventEmitter
	phases   PhaseEmitter
	progress ports.Progress
}

// NewChunkProcessor creates a processor writing under root.
// events, phases and progress are optional.
func NewChunkProcessor(
	root string,
	ds domain.DatasetConfig,
	source ports.TrajectorySource,
	tables ports.TableWriter,
	frames *FrameMaterializer,
	logger ports.Logger,
	events EventEmitter,
	phases PhaseEmitter,
	progress ports.Progress,
) *ChunkProcessor {
	if events == nil {
		events = NopEvents{}
	}
	return &ChunkProcessor{
		root:     root,
		ds:       ds,
		source:   source,
		tables:   tables,
		frames:   frames,
		logger:   logger,
		events:   events,
		phases:   phases,
		progress: progress,
	}
}

// DataDir returns the table directory of a chunk.
func (p *ChunkProcessor) DataDir(chunkName string) string {
	return filepath.Join(p.root, "data", chunkName)
}

// TablePath returns the table path of an episode.
func (p *ChunkProcessor) TablePath(chunkName string, episode int) string {
	return filepath.Join(p.DataDir(chunkName), fmt.Sprintf("episode_%06d.parquet", episode))
}

// Process converts every trajectory of in, assigning global episode indices
// from start in trajectory order. The chunk is returned only when every
// trajectory succeeded; artifacts written before a failure stay on disk.
func (p *ChunkProcessor) Process(ctx context.Context, in domain.InputFile, start int) (domain.Chunk, error) {
	tracker := NewPhaseTracker(in.Name, p.logger, p.phases)
	fail := func(err error) (domain.Chunk, error) {
		tracker.Fail()
		return domain.Chunk{}, err
	}

	file, err := p.source.Open(ctx, in.Path)
	if err != nil {
		return fail(fmt.Errorf("open: %w", err))
	}
	defer file.Close()

	if err := tracker.TransitionTo(PhaseEnumerating); err != nil {
		return fail(err)
	}
	ids, err := file.Trajectories()
	if err != nil {
		return fail(fmt.Errorf("list trajectories: %w", err))
	}
	refs := OrderTrajectories(ids)

	chunk := domain.NewChunk(in, start, p.ds.JointCount)
	if err := os.MkdirAll(p.DataDir(chunk.ChunkName), 0o755); err != nil {
		return fail(fmt.Errorf("create data dir: %w", err))
	}

	p.logger.Info("processing file",
		ports.String("file", in.Name),
		ports.String("chunk", chunk.ChunkName),
		ports.String("task", in.TaskLabel),
		ports.Int("trajectories", len(refs)),
		ports.Int("first_episode", start),
	)

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		if p.progress != nil {
			p.progress.Describe(fmt.Sprintf("%s %s", in.Name, ref.ID))
		}
		if err := p.processTrajectory(ctx, tracker, file, chunk, ref); err != nil {
			return fail(fmt.Errorf("trajectory %s: %w", ref.ID, err))
		}
	}

	if err := tracker.TransitionTo(PhaseSummarizing); err != nil {
		return fail(err)
	}
	if err := tracker.TransitionTo(PhaseDone); err != nil {
		return fail(err)
	}
	return *chunk, nil
}

func (p *ChunkProcessor) processTrajectory(ctx context.Context, tracker *PhaseTracker, file ports.TrajectoryFile, chunk *domain.Chunk, ref TrajectoryRef) error {
	episode := chunk.GlobalEpisodeStart + ref.Position

	if err := tracker.TransitionTo(PhaseExtracting); err != nil {
		return err
	}
	bundle, err := file.Extract(ctx, ref.ID)
	if err != nil {
		return err
	}

	if err := tracker.TransitionTo(PhaseBuildingRecords); err != nil {
		return err
	}
	records, err := BuildRecords(bundle, episode, p.ds)
	if err != nil {
		return err
	}

	if err := tracker.TransitionTo(PhaseMaterializingFrames); err != nil {
		return err
	}
	frames, err := p.frames.MaterializeEpisode(ctx, episode, bundle.AgentView, bundle.EyeInHand)
	if err != nil {
		return err
	}
	for name, refs := range frames {
		if len(refs) != len(records) {
			return fmt.Errorf("%w: %s has %d frames for %d records",
				domain.ErrInconsistentMetadata, name, len(refs), len(records))
		}
	}

	if err := tracker.TransitionTo(PhaseEncodingVideo); err != nil {
		return err
	}
	for _, s := range Streams {
		out, err := p.frames.EncodeVideo(ctx, episode, s, chunk.ChunkName)
		if errors.Is(err, domain.ErrEmptyFrameSet) {
			p.logger.Warn("video skipped",
				ports.Int("episode", episode),
				ports.String("stream", s.Name),
				ports.Err(err),
			)
			p.events.OnVideoSkipped(episode, s.Name, err)
			continue
		}
		if err != nil {
			return err
		}
		p.logger.Debug("video encoded", ports.Int("episode", episode), ports.String("path", out))
		p.events.OnVideoEncoded(episode, s.Name)
	}

	if err := tracker.TransitionTo(PhaseWritingTable); err != nil {
		return err
	}
	if err := p.tables.WriteEpisode(ctx, p.TablePath(chunk.ChunkName, episode), records); err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	if err := chunk.Add(domain.NewEpisodeEntry(episode, chunk.TaskLabel, len(records))); err != nil {
		return err
	}
	for _, r := range records {
		chunk.StateStats.Observe(r.State)
		chunk.ActionStats.Observe(r.Action)
	}
	p.events.OnEpisodeWritten(episode, len(records))
	return nil
}
