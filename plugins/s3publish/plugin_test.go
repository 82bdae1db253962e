package s3publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/go-cmp/cmp"

	"github.com/bft-labs/libero2lerobot/pkg/lerobot"
)

type fakeS3 struct {
	mu      sync.Mutex
	bucket  string
	objects map[string]string
	types   map[string]string
	putErr  error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bucket = aws.ToString(in.Bucket)
	f.objects[aws.ToString(in.Key)] = string(b)
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func withFakeS3(t *testing.T, f *fakeS3) {
	t.Helper()
	old := newS3Client
	newS3Client = func(ctx context.Context) (s3iface, error) { return f, nil }
	t.Cleanup(func() { newS3Client = old })
}

func writeDataset(t *testing.T, root string) {
	t.Helper()
	files := map[string]string{
		"data/chunk-000/episode_000000.parquet":                                "table",
		"videos/chunk-000/observation.images.agentview_rgb/episode_000000.mp4": "video",
		"videos/chunk-000/observation.images.agentview_rgb/x.tmp.mp4":          "partial",
		"meta/info.json":      "{}",
		"meta/episodes.jsonl": "{}\n",
		"images/agentview/episode_000000_timestamp_0.000.png": "png",
	}
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPlugin_AfterRun(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{}, types: map[string]string{}}
	withFakeS3(t, fake)
	root := t.TempDir()
	writeDataset(t, root)

	p := New(Config{URL: "s3://datasets/libero/object/", Concurrency: 2})
	ctx := context.Background()
	if err := p.Initialize(ctx, lerobot.PluginConfig{OutputDir: root}); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if err := p.AfterRun(ctx, lerobot.Summary{}); err != nil {
		t.Fatalf("AfterRun() error = %v", err)
	}

	var keys []string
	for k := range fake.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	want := []string{
		"libero/object/data/chunk-000/episode_000000.parquet",
		"libero/object/meta/episodes.jsonl",
		"libero/object/meta/info.json",
		"libero/object/videos/chunk-000/observation.images.agentview_rgb/episode_000000.mp4",
	}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("uploaded keys mismatch (-want +got):\n%s", diff)
	}
	if fake.bucket != "datasets" {
		t.Errorf("bucket = %q, want datasets", fake.bucket)
	}
	if got := fake.types["libero/object/meta/episodes.jsonl"]; got != "application/x-ndjson" {
		t.Errorf("jsonl content type = %q", got)
	}
	if got := fake.objects["libero/object/data/chunk-000/episode_000000.parquet"]; got != "table" {
		t.Errorf("parquet body = %q, want table", got)
	}
	if p.Uploaded() != 4 {
		t.Errorf("Uploaded() = %d, want 4", p.Uploaded())
	}
}

func TestPlugin_AfterRun_Errors(t *testing.T) {
	putErr := errors.New("access denied")
	withFakeS3(t, &fakeS3{objects: map[string]string{}, types: map[string]string{}, putErr: putErr})
	root := t.TempDir()
	writeDataset(t, root)

	p := New(Config{URL: "s3://datasets"})
	ctx := context.Background()
	if err := p.Initialize(ctx, lerobot.PluginConfig{OutputDir: root}); err != nil {
		t.Fatal(err)
	}
	if err := p.AfterRun(ctx, lerobot.Summary{}); !errors.Is(err, putErr) {
		t.Errorf("AfterRun() error = %v, want %v", err, putErr)
	}
}

func TestPlugin_SkipOnFailure(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{}, types: map[string]string{}}
	withFakeS3(t, fake)
	root := t.TempDir()
	writeDataset(t, root)

	p := New(Config{URL: "s3://datasets", SkipOnFailure: true})
	ctx := context.Background()
	if err := p.Initialize(ctx, lerobot.PluginConfig{OutputDir: root}); err != nil {
		t.Fatal(err)
	}
	s := lerobot.Summary{Failed: []lerobot.FailedFile{{File: "b.hdf5"}}}
	if err := p.AfterRun(ctx, s); err != nil {
		t.Fatalf("AfterRun() error = %v", err)
	}
	if len(fake.objects) != 0 {
		t.Errorf("uploaded %d objects, want none", len(fake.objects))
	}
}

func TestPlugin_Initialize_BadURL(t *testing.T) {
	withFakeS3(t, &fakeS3{})
	for _, raw := range []string{"https://example.com/x", "s3:///prefix", "::"} {
		if err := New(Config{URL: raw}).Initialize(context.Background(), lerobot.PluginConfig{}); err == nil {
			t.Errorf("Initialize(%q) error = nil", raw)
		}
	}
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		raw, bucket, prefix string
	}{
		{"s3://b", "b", ""},
		{"s3://b/", "b", ""},
		{"s3://b/p/q", "b", "p/q"},
	}
	for _, tt := range tests {
		bucket, prefix, err := ParseURL(tt.raw)
		if err != nil {
			t.Fatalf("ParseURL(%q) error = %v", tt.raw, err)
		}
		if bucket != tt.bucket || prefix != tt.prefix {
			t.Errorf("ParseURL(%q) = %q, %q, want %q, %q", tt.raw, bucket, prefix, tt.bucket, tt.prefix)
		}
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a/episode_000000.parquet": "application/vnd.apache.parquet",
		"v/episode_000000.mp4":     "video/mp4",
		"meta/info.json":           "application/json",
		"meta/tasks.jsonl":         "application/x-ndjson",
		"README":                   "application/octet-stream",
	}
	for name, want := range tests {
		if got := ContentType(name); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", name, got, want)
		}
	}
}
