package ports

import (
	"context"

	"github.com/bft-labs/libero2lerobot/internal/domain"
)

// TrajectorySource opens recording files.
type TrajectorySource interface {
	// Open opens the file at path read-only.
	Open(ctx context.Context, path string) (TrajectoryFile, error)
}

// TrajectoryFile is one open recording file.
// It is used by a single goroutine and must be closed when done.
type TrajectoryFile interface {
	// Trajectories lists the entries under the top-level data container,
	// in the order the file stores them.
	Trajectories() ([]string, error)

	// Extract reads every named array of one trajectory.
	// A missing array is reported as *domain.MissingChannelError.
	Extract(ctx context.Context, id string) (domain.Bundle, error)

	// Close releases the file handle.
	Close() error
}
