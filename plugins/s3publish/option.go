package s3publish

import "github.com/bft-labs/libero2lerobot/pkg/lerobot"

// WithS3Publish returns a lerobot Option that uploads the dataset after
// every run.
//
// Usage:
//
//	conv, err := lerobot.New(cfg,
//	    s3publish.WithS3Publish(s3publish.Config{URL: "s3://datasets/libero_object"}),
//	)
func WithS3Publish(cfg Config) lerobot.Option {
	return lerobot.WithPlugin(New(cfg))
}
