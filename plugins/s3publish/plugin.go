// Package s3publish uploads a finished libero2lerobot dataset to S3 or an
// S3-compatible store such as MinIO.
package s3publish

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/libero2lerobot/pkg/lerobot"
	"github.com/bft-labs/libero2lerobot/pkg/log"
)

// DefaultDirs are the dataset directories uploaded by default. Still images
// are intermediate and stay local.
var DefaultDirs = []string{"data", "videos", "meta"}

// s3iface is the subset of the s3 client the plugin uses.
type s3iface interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// newS3Client constructs an s3 client; overridden in tests.
// Env support: AWS_REGION, AWS_ENDPOINT_URL_S3, AWS_S3_FORCE_PATH_STYLE.
var newS3Client = func(ctx context.Context) (s3iface, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if ep := os.Getenv("AWS_ENDPOINT_URL_S3"); ep != "" {
			o.BaseEndpoint = aws.String(ep)
		}
		if strings.EqualFold(os.Getenv("AWS_S3_FORCE_PATH_STYLE"), "true") {
			o.UsePathStyle = true
		}
	}), nil
}

// Config holds configuration options for the S3 publish plugin.
type Config struct {
	// URL is the destination, s3://bucket[/prefix].
	URL string

	// Dirs lists the dataset directories to upload.
	// Default: DefaultDirs
	Dirs []string

	// Concurrency bounds parallel uploads.
	// Default: 8
	Concurrency int

	// SkipOnFailure skips the upload when any input file failed.
	SkipOnFailure bool
}

// Plugin uploads the dataset after every run.
type Plugin struct {
	mu sync.Mutex

	url           string
	bucket        string
	prefix        string
	dirs          []string
	concurrency   int
	skipOnFailure bool

	client    s3iface
	outputDir string
	logger    lerobot.Logger
	uploaded  int64
}

// New creates a new S3 publish plugin with the given configuration.
func New(cfg Config) *Plugin {
	if len(cfg.Dirs) == 0 {
		cfg.Dirs = DefaultDirs
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	return &Plugin{
		dirs:          cfg.Dirs,
		concurrency:   cfg.Concurrency,
		skipOnFailure: cfg.SkipOnFailure,
		url:           cfg.URL,
		logger:        log.NewNoopLogger(),
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "s3publish"
}

// Initialize parses the destination and creates the S3 client.
func (p *Plugin) Initialize(ctx context.Context, cfg lerobot.PluginConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	bucket, prefix, err := ParseURL(p.url)
	if err != nil {
		return err
	}
	client, err := newS3Client(ctx)
	if err != nil {
		return fmt.Errorf("create s3 client: %w", err)
	}

	p.bucket, p.prefix, p.client = bucket, prefix, client
	p.outputDir = cfg.OutputDir
	if cfg.Logger != nil {
		p.logger = cfg.Logger
	}
	p.logger.Info("s3 publish enabled", log.String("bucket", bucket), log.String("prefix", prefix))
	return nil
}

// Shutdown is a no-op.
func (p *Plugin) Shutdown(ctx context.Context) error {
	return nil
}

// AfterRun uploads every file of the configured directories.
func (p *Plugin) AfterRun(ctx context.Context, s lerobot.Summary) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.skipOnFailure && len(s.Failed) > 0 {
		p.logger.Warn("s3 publish skipped: run had failed files", log.Int("failed_files", len(s.Failed)))
		return nil
	}

	files, err := p.collect()
	if err != nil {
		return err
	}

	var count atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for _, rel := range files {
		rel := rel
		g.Go(func() error {
			if err := p.upload(gctx, rel); err != nil {
				return fmt.Errorf("upload %s: %w", rel, err)
			}
			count.Add(1)
			return nil
		})
	}
	err = g.Wait()
	p.uploaded += count.Load()
	if err != nil {
		return err
	}

	p.logger.Info("dataset published",
		log.String("bucket", p.bucket),
		log.String("prefix", p.prefix),
		log.Int("objects", len(files)),
	)
	return nil
}

// Uploaded returns the objects written over all runs.
func (p *Plugin) Uploaded() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uploaded
}

// collect lists files under the configured directories as slash-separated
// paths relative to the dataset root. Missing directories are skipped.
func (p *Plugin) collect() ([]string, error) {
	var files []string
	for _, dir := range p.dirs {
		root := filepath.Join(p.outputDir, dir)
		err := filepath.WalkDir(root, func(pth string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) && pth == root {
					return fs.SkipDir
				}
				return err
			}
			if !d.Type().IsRegular() || strings.Contains(d.Name(), ".tmp") {
				return nil
			}
			rel, err := filepath.Rel(p.outputDir, pth)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", root, err)
		}
	}
	return files, nil
}

func (p *Plugin) upload(ctx context.Context, rel string) error {
	f, err := os.Open(filepath.Join(p.outputDir, filepath.FromSlash(rel)))
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(Key(p.prefix, rel)),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(ContentType(rel)),
	})
	return err
}

// ParseURL splits s3://bucket/prefix. The prefix may be empty.
func ParseURL(raw string) (bucket, prefix string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parse publish url: %w", err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("unsupported publish scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("publish url %q has no bucket", raw)
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}

// Key joins prefix and a dataset-relative path into an object key.
func Key(prefix, rel string) string {
	if prefix == "" {
		return rel
	}
	return path.Join(prefix, rel)
}

// ContentType returns the MIME type of a dataset file.
func ContentType(name string) string {
	switch path.Ext(name) {
	case ".parquet":
		return "application/vnd.apache.parquet"
	case ".mp4":
		return "video/mp4"
	case ".json":
		return "application/json"
	case ".jsonl":
		return "application/x-ndjson"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

var (
	_ lerobot.Plugin  = (*Plugin)(nil)
	_ lerobot.RunHook = (*Plugin)(nil)
)
