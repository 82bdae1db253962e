package imagecleanup

import "github.com/bft-labs/libero2lerobot/pkg/lerobot"

// WithImageCleanup returns a lerobot Option that removes the still images
// after every run.
//
// Usage:
//
//	conv, err := lerobot.New(cfg,
//	    imagecleanup.WithImageCleanup(imagecleanup.Config{KeepOnFailure: true}),
//	)
func WithImageCleanup(cfg Config) lerobot.Option {
	return lerobot.WithPlugin(New(cfg))
}
