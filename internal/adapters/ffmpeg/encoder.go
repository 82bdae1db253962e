// Package ffmpeg encodes still-image sequences into videos with an ffmpeg
// process.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultBinary is the ffmpeg executable looked up in PATH.
const DefaultBinary = "ffmpeg"

// DefaultCodec is the encoder passed to -c:v.
const DefaultCodec = "libx264"

// Encoder implements ports.FrameEncoder. Frames are streamed to ffmpeg's
// stdin in order (image2pipe), so the frame order never depends on file
// names.
type Encoder struct {
	binary      string
	codec       string
	pixelFormat string
}

// New creates an encoder. Empty arguments select the defaults.
func New(binary, codec, pixelFormat string) *Encoder {
	if binary == "" {
		binary = DefaultBinary
	}
	if codec == "" {
		codec = DefaultCodec
	}
	if pixelFormat == "" {
		pixelFormat = "yuv420p"
	}
	return &Encoder{binary: binary, codec: codec, pixelFormat: pixelFormat}
}

// Args returns the ffmpeg arguments for writing out at fps.
func (e *Encoder) Args(fps float64, out string) []string {
	return []string{
		"-y",
		"-loglevel", "error",
		"-f", "image2pipe",
		"-framerate", strconv.FormatFloat(fps, 'f', -1, 64),
		"-i", "-",
		"-c:v", e.codec,
		"-pix_fmt", e.pixelFormat,
		out,
	}
}

// Encode writes frames to out. The video is produced next to out and renamed
// into place when ffmpeg succeeds.
func (e *Encoder) Encode(ctx context.Context, frames []string, fps float64, out string) error {
	if len(frames) == 0 {
		return errors.New("no frames to encode")
	}

	ext := filepath.Ext(out)
	tmp := strings.TrimSuffix(out, ext) + ".tmp" + ext

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.binary, e.Args(fps, tmp)...)
	cmd.Env = os.Environ()
	cmd.Stderr = &stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdin: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", e.binary, err)
	}

	feedErr := feed(stdin, frames)
	waitErr := cmd.Wait()
	if waitErr != nil {
		os.Remove(tmp)
		return fmt.Errorf("%s failed: %v\n%s", e.binary, waitErr, strings.TrimSpace(stderr.String()))
	}
	if feedErr != nil {
		os.Remove(tmp)
		return feedErr
	}
	if err := os.Rename(tmp, out); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename video: %w", err)
	}
	return nil
}

// feed copies every frame file to w and closes it.
func feed(w io.WriteCloser, frames []string) error {
	defer w.Close()
	for _, path := range frames {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open frame: %w", err)
		}
		_, err = io.Copy(w, f)
		f.Close()
		if err != nil {
			return fmt.Errorf("pipe frame %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}
