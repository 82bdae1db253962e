// Package libero2lerobot converts LIBERO HDF5 demonstrations into LeRobot
// v2.0 datasets.
//
// Example usage:
//
//	cfg := libero2lerobot.DefaultConfig()
//	cfg.InputDir = "datasets/libero_object"
//	cfg.OutputDir = "datasets/libero_object_lerobot"
//	summary, err := libero2lerobot.Convert(context.Background(), cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(summary)
//
// See package pkg/lerobot for options, plugins and watch mode.
package libero2lerobot

import (
	"context"

	"github.com/bft-labs/libero2lerobot/pkg/lerobot"
)

// Config holds the configuration of a conversion.
type Config = lerobot.Config

// Summary describes one conversion run.
type Summary = lerobot.Summary

// DefaultConfig returns a Config with default values.
// InputDir and OutputDir must be set before calling Convert.
func DefaultConfig() Config {
	return lerobot.DefaultConfig()
}

// Convert runs one conversion with the default HDF5, parquet and ffmpeg
// adapters and no plugins.
func Convert(ctx context.Context, cfg Config, opts ...lerobot.Option) (Summary, error) {
	conv, err := lerobot.New(cfg, opts...)
	if err != nil {
		return Summary{}, err
	}
	defer conv.Close(ctx)
	return conv.Run(ctx)
}
