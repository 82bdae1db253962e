package app

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bft-labs/libero2lerobot/internal/domain"
)

func TestBuildRecords(t *testing.T) {
	ds := testDataset()
	b := makeBundle("demo_0", 4, ds, 1)

	records, err := BuildRecords(b, 17, ds)
	if err != nil {
		t.Fatalf("BuildRecords() error = %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4", len(records))
	}

	for i, r := range records {
		if r.Index != int64(i) {
			t.Errorf("records[%d].Index = %d", i, r.Index)
		}
		if r.EpisodeIndex != 17 {
			t.Errorf("records[%d].EpisodeIndex = %d, want 17", i, r.EpisodeIndex)
		}
		if want := float64(i) * ds.TimestepDuration; r.Timestamp != want {
			t.Errorf("records[%d].Timestamp = %v, want %v", i, r.Timestamp, want)
		}
		if r.TaskDescription != 0 || r.TaskIndex != 0 || r.Validity != 1 {
			t.Errorf("records[%d] annotations = %d/%d/%d, want 0/0/1", i, r.TaskDescription, r.TaskIndex, r.Validity)
		}
		if diff := cmp.Diff(b.JointStates.Row(i), r.State); diff != "" {
			t.Errorf("records[%d].State mismatch (-want +got):\n%s", i, diff)
		}
		if diff := cmp.Diff(b.Actions.Row(i), r.Action); diff != "" {
			t.Errorf("records[%d].Action mismatch (-want +got):\n%s", i, diff)
		}
		if r.Reward != b.Rewards[i] || r.Done != b.Dones[i] {
			t.Errorf("records[%d] reward/done = %v/%v", i, r.Reward, r.Done)
		}
	}
}

func TestBuildRecords_CopiesVectors(t *testing.T) {
	ds := testDataset()
	b := makeBundle("demo_0", 2, ds, 0)

	records, err := BuildRecords(b, 0, ds)
	if err != nil {
		t.Fatal(err)
	}
	b.Actions.Data[0] = -999
	if records[0].Action[0] == -999 {
		t.Error("record shares memory with the source bundle")
	}
}

func TestBuildRecords_Pure(t *testing.T) {
	ds := testDataset()
	b := makeBundle("demo_0", 5, ds, 2)

	first, _ := BuildRecords(b, 3, ds)
	second, _ := BuildRecords(b, 3, ds)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("BuildRecords() not deterministic (-first +second):\n%s", diff)
	}
}

func TestBuildRecords_Errors(t *testing.T) {
	ds := testDataset()

	tests := []struct {
		name    string
		mutate  func(b *domain.Bundle)
		wantErr error
	}{
		{"action width", func(b *domain.Bundle) { b.Actions.Cols = 2 }, domain.ErrDimension},
		{"state width", func(b *domain.Bundle) { b.JointStates.Cols = 4 }, domain.ErrDimension},
		{"reward length", func(b *domain.Bundle) { b.Rewards = b.Rewards[:1] }, domain.ErrShapeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := makeBundle("demo_0", 3, ds, 0)
			tt.mutate(&b)
			_, err := BuildRecords(b, 0, ds)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("BuildRecords() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
