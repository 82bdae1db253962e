package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

type row struct {
	TaskIndex int    `json:"task_index"`
	Task      string `json:"task"`
}

func TestMetaStore_WriteJSON(t *testing.T) {
	root := t.TempDir()
	s := NewMetaStore(root)

	if err := s.WriteJSON(context.Background(), "info.json", map[string]int{"total_episodes": 3}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "meta", "info.json"))
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n    \"total_episodes\": 3\n}\n"
	if string(data) != want {
		t.Errorf("info.json = %q, want %q", data, want)
	}
	if _, err := os.Stat(s.Path("info.json") + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestMetaStore_WriteJSONLines(t *testing.T) {
	s := NewMetaStore(t.TempDir())

	rows := []any{row{0, "pick"}, row{1, "valid"}}
	if err := s.WriteJSONLines(context.Background(), "tasks.jsonl", rows); err != nil {
		t.Fatalf("WriteJSONLines() error = %v", err)
	}

	data, err := os.ReadFile(s.Path("tasks.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	want := "{\"task_index\":0,\"task\":\"pick\"}\n{\"task_index\":1,\"task\":\"valid\"}\n"
	if string(data) != want {
		t.Errorf("tasks.jsonl = %q, want %q", data, want)
	}
}

func TestMetaStore_WriteJSONLines_Empty(t *testing.T) {
	s := NewMetaStore(t.TempDir())

	if err := s.WriteJSONLines(context.Background(), "episodes.jsonl", nil); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(s.Path("episodes.jsonl"))
	if err != nil {
		t.Fatalf("episodes.jsonl not created: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("size = %d, want 0", info.Size())
	}
}

func TestMetaStore_Overwrite(t *testing.T) {
	s := NewMetaStore(t.TempDir())
	ctx := context.Background()

	_ = s.WriteJSON(ctx, "stats.json", []int{1, 2, 3})
	if err := s.WriteJSON(ctx, "stats.json", []int{4}); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(s.Path("stats.json"))
	if string(data) != "[\n    4\n]\n" {
		t.Errorf("stats.json = %q", data)
	}
}

func TestMetaStore_Canceled(t *testing.T) {
	s := NewMetaStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.WriteJSON(ctx, "info.json", 1); err == nil {
		t.Error("WriteJSON() error = nil on canceled context")
	}
}
