package ports

import (
	"context"

	"github.com/bft-labs/libero2lerobot/internal/domain"
)

// TableWriter persists the records of one episode as a single columnar file.
type TableWriter interface {
	// WriteEpisode writes records to path, replacing any existing file.
	// Records share one schema and are written in order.
	WriteEpisode(ctx context.Context, path string, records []domain.TimestepRecord) error
}
