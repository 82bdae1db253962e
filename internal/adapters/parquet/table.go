// Package parquet stores episode tables as parquet files.
package parquet

import (
	"context"
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/bft-labs/libero2lerobot/internal/domain"
)

// episodeRow is the on-disk layout of one timestep.
type episodeRow struct {
	State           []float64 `parquet:"observation.state,list"`
	Action          []float64 `parquet:"action,list"`
	Timestamp       float64   `parquet:"timestamp"`
	TaskDescription int64     `parquet:"annotation.human.action.task_description"`
	TaskIndex       int64     `parquet:"task_index"`
	Validity        int64     `parquet:"annotation.human.validity"`
	EpisodeIndex    int64     `parquet:"episode_index"`
	Index           int64     `parquet:"index"`
	Reward          float64   `parquet:"next.reward"`
	Done            bool      `parquet:"next.done"`
}

// TableWriter implements ports.TableWriter with snappy-compressed parquet.
type TableWriter struct{}

// NewTableWriter creates a parquet table writer.
func NewTableWriter() *TableWriter {
	return &TableWriter{}
}

// WriteEpisode writes records to path through a temp file and rename.
func (w *TableWriter) WriteEpisode(ctx context.Context, path string, records []domain.TimestepRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rows := make([]episodeRow, len(records))
	for i, r := range records {
		rows[i] = episodeRow{
			State:           r.State,
			Action:          r.Action,
			Timestamp:       r.Timestamp,
			TaskDescription: r.TaskDescription,
			TaskIndex:       r.TaskIndex,
			Validity:        r.Validity,
			EpisodeIndex:    r.EpisodeIndex,
			Index:           r.Index,
			Reward:          r.Reward,
			Done:            r.Done,
		}
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	pw := parquet.NewGenericWriter[episodeRow](f, parquet.Compression(&parquet.Snappy))
	if _, err := pw.Write(rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("close writer: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close table: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename table: %w", err)
	}
	return nil
}

// ReadEpisode reads back a table written by WriteEpisode.
func ReadEpisode(path string) ([]domain.TimestepRecord, error) {
	rows, err := parquet.ReadFile[episodeRow](path)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", path, err)
	}

	records := make([]domain.TimestepRecord, len(rows))
	for i, r := range rows {
		records[i] = domain.TimestepRecord{
			State:           r.State,
			Action:          r.Action,
			Timestamp:       r.Timestamp,
			TaskDescription: r.TaskDescription,
			TaskIndex:       r.TaskIndex,
			Validity:        r.Validity,
			EpisodeIndex:    r.EpisodeIndex,
			Index:           r.Index,
			Reward:          r.Reward,
			Done:            r.Done,
		}
	}
	return records, nil
}
