package domain

import "fmt"

// Chunk is the output of one input file.
// It maintains the invariant that Episodes carry the consecutive indices
// GlobalEpisodeStart..GlobalEpisodeEnd and that the counters match Episodes.
type Chunk struct {
	ChunkIndex int    `json:"chunk_index"`
	ChunkName  string `json:"chunk_name"`
	SourceFile string `json:"-"`
	TaskLabel  string `json:"task_name"`

	EpisodesCount int `json:"episodes_count"`
	TotalFrames   int `json:"total_frames"`

	Episodes []EpisodeEntry `json:"-"`

	GlobalEpisodeStart int `json:"global_episode_start"`
	GlobalEpisodeEnd   int `json:"global_episode_end"`

	// StateStats and ActionStats accumulate over every record of the chunk.
	StateStats  *RunningStats `json:"-"`
	ActionStats *RunningStats `json:"-"`
}

// ChunkName formats the directory name of a chunk index.
func ChunkName(index int) string {
	return fmt.Sprintf("chunk-%03d", index)
}

// NewChunk creates an empty chunk for the given file whose first episode
// receives the global index start.
func NewChunk(in InputFile, start, dims int) *Chunk {
	return &Chunk{
		ChunkIndex:         in.Rank,
		ChunkName:          ChunkName(in.Rank),
		SourceFile:         in.Name,
		TaskLabel:          in.TaskLabel,
		Episodes:           make([]EpisodeEntry, 0),
		GlobalEpisodeStart: start,
		GlobalEpisodeEnd:   start - 1,
		StateStats:         NewRunningStats(dims),
		ActionStats:        NewRunningStats(dims),
	}
}

// NextEpisodeIndex returns the global index the next added episode must carry.
func (c *Chunk) NextEpisodeIndex() int {
	return c.GlobalEpisodeStart + len(c.Episodes)
}

// Add appends an episode entry. The entry must carry NextEpisodeIndex.
func (c *Chunk) Add(e EpisodeEntry) error {
	if want := c.NextEpisodeIndex(); e.EpisodeIndex != want {
		return fmt.Errorf("%w: chunk %s got episode %d, want %d",
			ErrInconsistentMetadata, c.ChunkName, e.EpisodeIndex, want)
	}
	c.Episodes = append(c.Episodes, e)
	c.EpisodesCount = len(c.Episodes)
	c.TotalFrames += e.Length
	c.GlobalEpisodeEnd = e.EpisodeIndex
	return nil
}

// Empty returns true if the chunk has no episodes.
func (c *Chunk) Empty() bool {
	return len(c.Episodes) == 0
}
