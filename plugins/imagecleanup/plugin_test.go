package imagecleanup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bft-labs/libero2lerobot/pkg/lerobot"
)

func writeImages(t *testing.T, root string) {
	t.Helper()
	for _, p := range []string{"agentview/a.png", "agentview/b.png", "eye_in_hand/a.png"} {
		path := filepath.Join(root, ImagesDir, p)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, make([]byte, 10), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPlugin_AfterRun(t *testing.T) {
	root := t.TempDir()
	writeImages(t, root)
	if err := os.MkdirAll(filepath.Join(root, "videos"), 0o755); err != nil {
		t.Fatal(err)
	}

	p := New(DefaultConfig())
	ctx := context.Background()
	if err := p.Initialize(ctx, lerobot.PluginConfig{OutputDir: root}); err != nil {
		t.Fatal(err)
	}
	if err := p.AfterRun(ctx, lerobot.Summary{}); err != nil {
		t.Fatalf("AfterRun() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, ImagesDir)); !os.IsNotExist(err) {
		t.Error("images dir should be removed")
	}
	if _, err := os.Stat(filepath.Join(root, "videos")); err != nil {
		t.Error("videos dir should stay")
	}
	if p.Freed() != 30 {
		t.Errorf("Freed() = %d, want 30", p.Freed())
	}

	// A second run without images is a no-op.
	if err := p.AfterRun(ctx, lerobot.Summary{}); err != nil {
		t.Errorf("AfterRun() without images error = %v", err)
	}
	if p.Freed() != 30 {
		t.Errorf("Freed() = %d after empty run, want 30", p.Freed())
	}
}

func TestPlugin_KeepOnFailure(t *testing.T) {
	root := t.TempDir()
	writeImages(t, root)

	p := New(Config{KeepOnFailure: true})
	ctx := context.Background()
	if err := p.Initialize(ctx, lerobot.PluginConfig{OutputDir: root}); err != nil {
		t.Fatal(err)
	}
	failed := lerobot.Summary{Failed: []lerobot.FailedFile{{File: "b.hdf5"}}}
	if err := p.AfterRun(ctx, failed); err != nil {
		t.Fatalf("AfterRun() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, ImagesDir)); err != nil {
		t.Error("images dir should be kept after a failed file")
	}
	if p.Freed() != 0 {
		t.Errorf("Freed() = %d, want 0", p.Freed())
	}
}
