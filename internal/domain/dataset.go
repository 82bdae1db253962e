package domain

// ValidTask is the marker appended to every episode's task list and to the
// dataset task list.
const ValidTask = "valid"

// InputFile is one source recording file. All its trajectories share one task.
type InputFile struct {
	// Path is the full path to the file.
	Path string

	// Name is the base file name (e.g., "pick_up_the_milk_demo.hdf5")
	Name string

	// TaskLabel is derived from Name and shared by every episode of the file.
	TaskLabel string

	// Rank is the 0-based position of the file in sorted order.
	// It becomes the chunk index.
	Rank int
}

// Matrix is a dense row-major 2-D array of float64 values.
type Matrix struct {
	Rows int
	Cols int
	Data []float64
}

// Row returns row i without copying.
func (m Matrix) Row(i int) []float64 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// ImageStream holds a sequence of frames in T×H×W×C layout.
// Exactly one of Uint8 and Float32 is set, depending on the source dtype.
type ImageStream struct {
	Frames   int
	Height   int
	Width    int
	Channels int

	Uint8   []uint8
	Float32 []float32
}

// FrameSize returns the number of samples in one frame.
func (s ImageStream) FrameSize() int {
	return s.Height * s.Width * s.Channels
}

// Bundle is the raw content of one trajectory as read from the source file.
type Bundle struct {
	// ID is the trajectory identifier inside the file (e.g., "demo_3")
	ID string

	Actions Matrix
	Rewards []float64
	Dones   []bool

	JointStates   Matrix
	EEPos         Matrix
	EEOri         Matrix
	EEStates      Matrix
	GripperStates Matrix

	AgentView ImageStream
	EyeInHand ImageStream
}

// Timesteps returns the trajectory length, taken from the action array.
func (b Bundle) Timesteps() int {
	return b.Actions.Rows
}

// Validate checks that every array shares the same leading dimension.
func (b Bundle) Validate() error {
	want := b.Timesteps()
	lengths := []struct {
		channel string
		n       int
	}{
		{"rewards", len(b.Rewards)},
		{"dones", len(b.Dones)},
		{"obs/joint_states", b.JointStates.Rows},
		{"obs/ee_pos", b.EEPos.Rows},
		{"obs/ee_ori", b.EEOri.Rows},
		{"obs/ee_states", b.EEStates.Rows},
		{"obs/gripper_states", b.GripperStates.Rows},
		{"obs/agentview_rgb", b.AgentView.Frames},
		{"obs/eye_in_hand_rgb", b.EyeInHand.Frames},
	}
	for _, l := range lengths {
		if l.n != want {
			return &ShapeMismatchError{Trajectory: b.ID, Channel: l.channel, Got: l.n, Want: want}
		}
	}
	return nil
}

// TimestepRecord is one row of an episode table.
type TimestepRecord struct {
	State     []float64
	Action    []float64
	Timestamp float64

	// TaskDescription and Validity are constant annotations.
	TaskDescription int64
	Validity        int64

	// TaskIndex is always 0 at write time; task indices are only resolved
	// during global aggregation.
	TaskIndex int64

	EpisodeIndex int64
	Index        int64

	Reward float64
	Done   bool
}

// EpisodeEntry is the summary of one converted trajectory, one line of
// episodes.jsonl.
type EpisodeEntry struct {
	EpisodeIndex int      `json:"episode_index"`
	Tasks        []string `json:"tasks"`
	Length       int      `json:"length"`
}

// NewEpisodeEntry creates the entry for an episode of the given task.
func NewEpisodeEntry(index int, task string, length int) EpisodeEntry {
	return EpisodeEntry{
		EpisodeIndex: index,
		Tasks:        []string{task, ValidTask},
		Length:       length,
	}
}
