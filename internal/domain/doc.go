// Package domain contains the core entities and value objects for libero2lerobot.
//
// This package is the innermost layer of the converter. It has no dependencies
// on infrastructure concerns (HDF5, parquet, ffmpeg, logging) and contains only
// the dataset model and its invariants.
//
// # Entities
//
//   - [InputFile]: one source recording, one task
//   - [Bundle]: the raw arrays of one trajectory
//   - [TimestepRecord]: one row of an episode table
//   - [EpisodeEntry]: summary of one converted trajectory
//   - [Chunk]: the output of one input file
//   - [GlobalMetadata]: the dataset-wide aggregate over all chunks
//
// # Invariants
//
// Episode indices are assigned once, in order, and never change. A chunk covers
// the contiguous range [GlobalEpisodeStart, GlobalEpisodeEnd] and consecutive
// chunks touch without gaps. [GlobalMetadata.Verify] checks these rules over the
// whole dataset.
package domain
