package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the conversion domain.
// Typed errors below unwrap to these sentinels so callers can use errors.Is.
var (
	// ErrNotFound is returned when the input directory does not exist.
	ErrNotFound = errors.New("lerobot: not found")

	// ErrMissingChannel is returned when a trajectory lacks a required array.
	ErrMissingChannel = errors.New("lerobot: missing channel")

	// ErrShapeMismatch is returned when the arrays of a trajectory disagree on length.
	ErrShapeMismatch = errors.New("lerobot: shape mismatch")

	// ErrDimension is returned when a state or action vector has the wrong width.
	ErrDimension = errors.New("lerobot: dimension mismatch")

	// ErrEmptyFrameSet is returned when no still images exist for a video.
	ErrEmptyFrameSet = errors.New("lerobot: empty frame set")

	// ErrProcessing marks a failure while converting a single input file.
	ErrProcessing = errors.New("lerobot: processing failed")

	// ErrInconsistentMetadata is returned when aggregated counts or ranges disagree.
	ErrInconsistentMetadata = errors.New("lerobot: inconsistent metadata")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("lerobot: invalid configuration")

	// ErrInvalidPhase is returned on an illegal chunk processing transition.
	ErrInvalidPhase = errors.New("lerobot: invalid phase transition")
)

// NotFoundError reports a missing input directory.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("input directory not found: %s", e.Path)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// MissingChannelError reports a named array absent from a trajectory.
type MissingChannelError struct {
	Trajectory string
	Channel    string
}

func (e *MissingChannelError) Error() string {
	return fmt.Sprintf("trajectory %s: missing channel %q", e.Trajectory, e.Channel)
}

func (e *MissingChannelError) Unwrap() error { return ErrMissingChannel }

// ShapeMismatchError reports an array whose leading dimension differs from
// the trajectory's timestep count.
type ShapeMismatchError struct {
	Trajectory string
	Channel    string
	Got        int
	Want       int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("trajectory %s: channel %q has %d timesteps, want %d",
		e.Trajectory, e.Channel, e.Got, e.Want)
}

func (e *ShapeMismatchError) Unwrap() error { return ErrShapeMismatch }

// DimensionError reports a vector channel whose width is not the joint count.
type DimensionError struct {
	Channel string
	Got     int
	Want    int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("channel %q has dimension %d, want %d", e.Channel, e.Got, e.Want)
}

func (e *DimensionError) Unwrap() error { return ErrDimension }

// EmptyFrameSetError reports that no still images matched an episode stream.
type EmptyFrameSetError struct {
	Episode int
	Stream  string
}

func (e *EmptyFrameSetError) Error() string {
	return fmt.Sprintf("episode %d: no %s frames to encode", e.Episode, e.Stream)
}

func (e *EmptyFrameSetError) Unwrap() error { return ErrEmptyFrameSet }

// ProcessingError wraps any failure that aborted one input file.
// errors.Is matches both ErrProcessing and the underlying cause.
type ProcessingError struct {
	File string
	Err  error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("process %s: %v", e.File, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

func (e *ProcessingError) Is(target error) bool { return target == ErrProcessing }
