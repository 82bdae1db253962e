package ports

import "context"

// FrameEncoder turns an ordered sequence of still images into one video file.
type FrameEncoder interface {
	// Encode writes frames, in the given order, to out at fps frames per second.
	Encode(ctx context.Context, frames []string, fps float64, out string) error
}
