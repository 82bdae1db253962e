package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bft-labs/libero2lerobot/internal/domain"
	"github.com/bft-labs/libero2lerobot/internal/ports"
)

// BatchConfig contains configuration for one conversion run.
type BatchConfig struct {
	InputDir  string
	OutputDir string

	// CleanupFailed removes the chunk directories of a failed file.
	CleanupFailed bool
}

// FailedFile is an input file whose conversion was abandoned.
type FailedFile struct {
	Input domain.InputFile
	Err   error
}

// Result is the outcome of a run.
type Result struct {
	Chunks   []domain.Chunk
	Failed   []FailedFile
	Inputs   int
	Metadata domain.GlobalMetadata
}

// Batch drives the chunk processor over every input file.
type Batch struct {
	config     BatchConfig
	processor  *ChunkProcessor
	aggregator *Aggregator
	logger     ports.Logger
	events     EventEmitter
	progress   ports.Progress
}

// NewBatch creates a batch orchestrator. events and progress are optional.
func NewBatch(
	config BatchConfig,
	processor *ChunkProcessor,
	aggregator *Aggregator,
	logger ports.Logger,
	events EventEmitter,
	progress ports.Progress,
) *Batch {
	if events == nil {
		events = NopEvents{}
	}
	return &Batch{
		config:     config,
		processor:  processor,
		aggregator: aggregator,
		logger:     logger,
		events:     events,
		progress:   progress,
	}
}

// Run converts every input file in name order. A failing file is logged and
// skipped; the episode counter advances only by succeeded chunks. Metadata is
// aggregated over the succeeded chunks, also when there are none.
// A missing input directory and context cancellation end the run early.
func (b *Batch) Run(ctx context.Context) (Result, error) {
	inputs, err := ListInputs(b.config.InputDir)
	if err != nil {
		return Result{}, err
	}

	res := Result{Chunks: make([]domain.Chunk, 0, len(inputs)), Inputs: len(inputs)}
	if len(inputs) == 0 {
		b.logger.Warn("no input files found", ports.String("dir", b.config.InputDir))
	}

	if b.progress != nil {
		b.progress.Start(len(inputs))
		defer b.progress.Finish()
	}

	next := 0
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		chunk, err := b.processor.Process(ctx, in, next)
		if b.progress != nil {
			b.progress.Increment()
		}
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			b.fail(&res, in, err)
			continue
		}

		next += chunk.EpisodesCount
		res.Chunks = append(res.Chunks, chunk)
		b.events.OnChunkComplete(chunk)
		b.logger.Info("chunk complete",
			ports.String("file", in.Name),
			ports.String("chunk", chunk.ChunkName),
			ports.Int("episodes", chunk.EpisodesCount),
			ports.Int("frames", chunk.TotalFrames),
			ports.Int("first_episode", chunk.GlobalEpisodeStart),
			ports.Int("last_episode", chunk.GlobalEpisodeEnd),
		)
	}

	res.Metadata, err = b.aggregator.Aggregate(ctx, res.Chunks)
	if err != nil {
		return res, fmt.Errorf("aggregate metadata: %w", err)
	}
	return res, nil
}

func (b *Batch) fail(res *Result, in domain.InputFile, cause error) {
	err := &domain.ProcessingError{File: in.Name, Err: cause}
	b.logger.Error("file failed, continuing with next file",
		ports.String("file", in.Name),
		ports.Err(cause),
		ports.Stack(cause),
	)
	res.Failed = append(res.Failed, FailedFile{Input: in, Err: err})
	b.events.OnFileFailed(in.Name, err)

	if b.config.CleanupFailed {
		b.cleanup(in)
	}
}

// cleanup removes the table and video directories of a failed file's chunk.
// Still images are shared across chunks and stay.
func (b *Batch) cleanup(in domain.InputFile) {
	name := domain.ChunkName(in.Rank)
	for _, dir := range []string{
		filepath.Join(b.config.OutputDir, "data", name),
		filepath.Join(b.config.OutputDir, "videos", name),
	} {
		if err := os.RemoveAll(dir); err != nil {
			b.logger.Warn("cleanup failed chunk", ports.String("dir", dir), ports.Err(err))
			continue
		}
		b.logger.Debug("removed failed chunk dir", ports.String("dir", dir))
	}
}
