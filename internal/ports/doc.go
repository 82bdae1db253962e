// Package ports defines the interfaces that connect the conversion pipeline
// to its external collaborators.
//
// The application layer (internal/app) depends only on these interfaces.
// Adapters under internal/adapters implement them with HDF5, parquet,
// ffmpeg and the file system.
//
// # Port Interfaces
//
//   - [TrajectorySource]: opens recording files and extracts trajectories
//   - [TableWriter]: persists one episode's records as a columnar file
//   - [FrameEncoder]: encodes an ordered still-image sequence into a video
//   - [MetadataStore]: writes the dataset-wide JSON and JSONL artifacts
//   - [Progress]: reports per-file progress to the user
//   - [Logger]: structured logging abstraction
package ports
