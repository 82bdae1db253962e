package domain

import "fmt"

// TaskList is an insertion-ordered set of task labels.
// Task indices are positions in Names, so the order must be reproducible.
type TaskList struct {
	index map[string]int
	names []string
}

// NewTaskList creates an empty task list.
func NewTaskList() *TaskList {
	return &TaskList{index: make(map[string]int)}
}

// Add inserts label if unseen and returns its position.
// The ValidTask marker is never inserted; it always comes last in Names.
func (l *TaskList) Add(label string) int {
	if label == ValidTask {
		return -1
	}
	if i, ok := l.index[label]; ok {
		return i
	}
	l.index[label] = len(l.names)
	l.names = append(l.names, label)
	return len(l.names) - 1
}

// Names returns the labels in first-seen order followed by ValidTask.
func (l *TaskList) Names() []string {
	out := make([]string, 0, len(l.names)+1)
	out = append(out, l.names...)
	return append(out, ValidTask)
}

// GlobalMetadata is the dataset-wide aggregate over all succeeded chunks.
type GlobalMetadata struct {
	Episodes []EpisodeEntry
	Tasks    []string
	Chunks   []Chunk

	TotalEpisodes int
	TotalFrames   int
	TotalChunks   int
	TotalTasks    int
	TotalVideos   int

	// ChunksSize is the largest episode count of any chunk.
	ChunksSize int

	StateStats  *RunningStats
	ActionStats *RunningStats
}

// BuildGlobalMetadata derives the aggregate from chunks in chunk order.
func BuildGlobalMetadata(chunks []Chunk, dims int) GlobalMetadata {
	tasks := NewTaskList()
	m := GlobalMetadata{
		Episodes:    make([]EpisodeEntry, 0),
		Chunks:      chunks,
		StateStats:  NewRunningStats(dims),
		ActionStats: NewRunningStats(dims),
	}
	for _, c := range chunks {
		m.Episodes = append(m.Episodes, c.Episodes...)
		tasks.Add(c.TaskLabel)
		if c.EpisodesCount > m.ChunksSize {
			m.ChunksSize = c.EpisodesCount
		}
		m.StateStats.Merge(c.StateStats)
		m.ActionStats.Merge(c.ActionStats)
	}
	for _, e := range m.Episodes {
		m.TotalFrames += e.Length
	}
	m.Tasks = tasks.Names()
	m.TotalEpisodes = len(m.Episodes)
	m.TotalChunks = len(chunks)
	m.TotalTasks = len(m.Tasks)
	m.TotalVideos = 2 * m.TotalEpisodes
	return m
}

// TaskIndex returns the position of label in Tasks, or -1.
func (m GlobalMetadata) TaskIndex(label string) int {
	for i, t := range m.Tasks {
		if t == label {
			return i
		}
	}
	return -1
}

// Verify checks the cross-chunk numeric invariants and that every episode
// task resolves in the task list.
func (m GlobalMetadata) Verify() error {
	sum := 0
	next := 0
	for i, c := range m.Chunks {
		if c.GlobalEpisodeEnd-c.GlobalEpisodeStart+1 != c.EpisodesCount {
			return fmt.Errorf("%w: chunk %s range [%d,%d] does not match %d episodes",
				ErrInconsistentMetadata, c.ChunkName, c.GlobalEpisodeStart, c.GlobalEpisodeEnd, c.EpisodesCount)
		}
		if c.GlobalEpisodeStart != next {
			return fmt.Errorf("%w: chunk %s starts at %d, want %d",
				ErrInconsistentMetadata, c.ChunkName, c.GlobalEpisodeStart, next)
		}
		if len(c.Episodes) != c.EpisodesCount {
			return fmt.Errorf("%w: chunk %s lists %d episodes, counts %d",
				ErrInconsistentMetadata, c.ChunkName, len(c.Episodes), c.EpisodesCount)
		}
		frames := 0
		for _, e := range c.Episodes {
			frames += e.Length
		}
		if frames != c.TotalFrames {
			return fmt.Errorf("%w: chunk %s frames %d, counts %d",
				ErrInconsistentMetadata, c.ChunkName, frames, c.TotalFrames)
		}
		if i > 0 && c.ChunkIndex <= m.Chunks[i-1].ChunkIndex {
			return fmt.Errorf("%w: chunk %s out of order", ErrInconsistentMetadata, c.ChunkName)
		}
		next = c.GlobalEpisodeEnd + 1
		sum += c.EpisodesCount
	}
	if sum != m.TotalEpisodes || len(m.Episodes) != m.TotalEpisodes {
		return fmt.Errorf("%w: total episodes %d, chunks sum to %d",
			ErrInconsistentMetadata, m.TotalEpisodes, sum)
	}
	frames := 0
	for i, e := range m.Episodes {
		if e.EpisodeIndex != i {
			return fmt.Errorf("%w: episode at position %d has index %d",
				ErrInconsistentMetadata, i, e.EpisodeIndex)
		}
		for _, t := range e.Tasks {
			if m.TaskIndex(t) < 0 {
				return fmt.Errorf("%w: episode %d task %q not in task list",
					ErrInconsistentMetadata, e.EpisodeIndex, t)
			}
		}
		frames += e.Length
	}
	if frames != m.TotalFrames {
		return fmt.Errorf("%w: total frames %d, episodes sum to %d",
			ErrInconsistentMetadata, m.TotalFrames, frames)
	}
	return nil
}
