package app

import "github.com/bft-labs/libero2lerobot/internal/domain"

// Constant annotation values of every record.
const (
	defaultTaskDescription = 0
	defaultValidity        = 1
	defaultTaskIndex       = 0
)

// BuildRecords converts one trajectory into its table rows, one per timestep
// in ascending order. State and action vectors are copied and must have
// ds.JointCount columns.
func BuildRecords(b domain.Bundle, episode int, ds domain.DatasetConfig) ([]domain.TimestepRecord, error) {
	if b.Actions.Cols != ds.JointCount {
		return nil, &domain.DimensionError{Channel: "actions", Got: b.Actions.Cols, Want: ds.JointCount}
	}
	if b.JointStates.Cols != ds.JointCount {
		return nil, &domain.DimensionError{Channel: "obs/joint_states", Got: b.JointStates.Cols, Want: ds.JointCount}
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	n := b.Timesteps()
	records := make([]domain.TimestepRecord, n)
	for t := 0; t < n; t++ {
		records[t] = domain.TimestepRecord{
			State:           append([]float64(nil), b.JointStates.Row(t)...),
			Action:          append([]float64(nil), b.Actions.Row(t)...),
			Timestamp:       ds.Timestamp(t),
			TaskDescription: defaultTaskDescription,
			Validity:        defaultValidity,
			TaskIndex:       defaultTaskIndex,
			EpisodeIndex:    int64(episode),
			Index:           int64(t),
			Reward:          b.Rewards[t],
			Done:            b.Dones[t],
		}
	}
	return records, nil
}
