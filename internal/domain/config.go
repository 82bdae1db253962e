package domain

import "fmt"

// MinTimestepDuration is the smallest timestep that still gives every frame
// a distinct still-image name, which carries the timestamp to the millisecond.
const MinTimestepDuration = 0.001

// DatasetConfig carries the dataset-wide constants every component needs.
// It is passed by value at construction; nothing reads it from globals.
type DatasetConfig struct {
	// FPS is the frame rate of the encoded videos.
	FPS float64

	// TimestepDuration is the seconds between consecutive timesteps.
	TimestepDuration float64

	ImageHeight   int
	ImageWidth    int
	ImageChannels int

	// JointCount is the width of the state and action vectors.
	JointCount int

	RobotType       string
	CodebaseVersion string

	// VideoCodec and PixelFormat are declared in info.json.
	VideoCodec  string
	PixelFormat string
}

// DefaultDatasetConfig returns the LIBERO recording constants.
func DefaultDatasetConfig() DatasetConfig {
	return DatasetConfig{
		FPS:              20.0,
		TimestepDuration: 0.05,
		ImageHeight:      128,
		ImageWidth:       128,
		ImageChannels:    3,
		JointCount:       7,
		RobotType:        "panda-robot",
		CodebaseVersion:  "v2.0",
		VideoCodec:       "h264",
		PixelFormat:      "yuv420p",
	}
}

// Validate checks the constants for values no component can work with.
func (c DatasetConfig) Validate() error {
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive", ErrInvalidConfig)
	}
	if c.TimestepDuration <= 0 {
		return fmt.Errorf("%w: timestep duration must be positive", ErrInvalidConfig)
	}
	if c.TimestepDuration < MinTimestepDuration {
		return fmt.Errorf("%w: timestep duration %g is below %g", ErrInvalidConfig, c.TimestepDuration, MinTimestepDuration)
	}
	if c.ImageHeight <= 0 || c.ImageWidth <= 0 {
		return fmt.Errorf("%w: image size must be positive", ErrInvalidConfig)
	}
	switch c.ImageChannels {
	case 1, 3, 4:
	default:
		return fmt.Errorf("%w: unsupported image channel count %d", ErrInvalidConfig, c.ImageChannels)
	}
	if c.JointCount <= 0 {
		return fmt.Errorf("%w: joint count must be positive", ErrInvalidConfig)
	}
	return nil
}

// Timestamp returns the timestamp of the given local frame index.
func (c DatasetConfig) Timestamp(frame int) float64 {
	return float64(frame) * c.TimestepDuration
}
