// Package lerobot converts LIBERO HDF5 demonstration files into a LeRobot
// v2.0 dataset. It can be used from the libero2lerobot CLI or embedded as a
// library in other Go programs.
//
// # Basic Usage
//
//	cfg := lerobot.DefaultConfig()
//	cfg.InputDir = "/data/libero_object"
//	cfg.OutputDir = "/data/libero_object_lerobot"
//
//	conv, err := lerobot.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close(context.Background())
//
//	summary, err := conv.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(summary)
//
// Every input file becomes one chunk. A file that fails is logged and
// skipped; global episode indices stay contiguous over the files that
// succeeded. Metadata under meta/ is always rewritten at the end of a run,
// also when no file succeeded.
//
// # Event Handling
//
// Implement [EventEmitter] and pass it via [WithEvents] to observe episodes,
// videos and chunks as they are written. Events are called synchronously
// from the conversion goroutine.
//
// # Dependency Injection
//
// The HDF5 reader, the parquet writer and the ffmpeg encoder can be replaced:
//
//	conv, err := lerobot.New(cfg,
//	    lerobot.WithTrajectorySource(mySource),
//	    lerobot.WithFrameEncoder(myEncoder),
//	)
//
// # Plugins
//
// A [Plugin] is initialized before the first run and shut down by
// [Converter.Close]. Plugins implementing [RunHook] are called after every
// successful run:
//
//	import "github.com/bft-labs/libero2lerobot/plugins/s3publish"
//	import "github.com/bft-labs/libero2lerobot/plugins/imagecleanup"
//
//	conv, err := lerobot.New(cfg,
//	    imagecleanup.WithImageCleanup(),
//	    s3publish.WithS3Publish(s3publish.Config{URL: "s3://bucket/datasets/libero"}),
//	)
//
// # Watch Mode
//
// [Converter.Watch] runs once, then re-runs the whole conversion whenever
// .hdf5 files in the input directory change.
package lerobot
