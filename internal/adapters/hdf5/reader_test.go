package hdf5

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/hdf5"

	"github.com/bft-labs/libero2lerobot/internal/domain"
)

// writeDataset creates name under g holding data with the given dims.
func writeDataset(t *testing.T, g *hdf5.Group, name string, dims []uint, data interface{}, sample interface{}) {
	t.Helper()
	dtype, err := hdf5.NewDatatypeFromValue(sample)
	if err != nil {
		t.Fatalf("datatype for %s: %v", name, err)
	}
	space, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		t.Fatalf("dataspace for %s: %v", name, err)
	}
	defer space.Close()
	ds, err := g.CreateDataset(name, dtype, space)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	defer ds.Close()
	if err := ds.Write(data); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

type demoFixture struct {
	id         string
	steps      int
	skip       string
	floatPixel bool
}

// writeFixture creates a LIBERO-shaped file with 2×2×3 images and 7 joints.
func writeFixture(t *testing.T, demos ...demoFixture) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pick_demo.hdf5")
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		t.Fatalf("CreateFile() error = %v", err)
	}
	defer f.Close()

	data, err := f.CreateGroup(DataGroup)
	if err != nil {
		t.Fatal(err)
	}
	defer data.Close()

	for _, d := range demos {
		g, err := data.CreateGroup(d.id)
		if err != nil {
			t.Fatal(err)
		}
		obs, err := g.CreateGroup("obs")
		if err != nil {
			t.Fatal(err)
		}
		n := uint(d.steps)
		seq := func(cols uint, base float64) []float64 {
			out := make([]float64, n*cols)
			for i := range out {
				out[i] = base + float64(i)
			}
			return out
		}
		put := func(grp *hdf5.Group, name string, dims []uint, data, sample interface{}) {
			if grp == obs && "obs/"+name == d.skip || grp == g && name == d.skip {
				return
			}
			writeDataset(t, grp, name, dims, data, sample)
		}

		actions := seq(7, 0)
		rewards := seq(1, 0.5)
		dones := make([]int64, n)
		dones[n-1] = 1
		put(g, "actions", []uint{n, 7}, &actions, float64(0))
		put(g, "rewards", []uint{n}, &rewards, float64(0))
		put(g, "dones", []uint{n}, &dones, int64(0))

		joints := seq(7, 100)
		pos, ori := seq(3, 0), seq(3, 0)
		ee, grip := seq(6, 0), seq(2, 0)
		put(obs, "joint_states", []uint{n, 7}, &joints, float64(0))
		put(obs, "ee_pos", []uint{n, 3}, &pos, float64(0))
		put(obs, "ee_ori", []uint{n, 3}, &ori, float64(0))
		put(obs, "ee_states", []uint{n, 6}, &ee, float64(0))
		put(obs, "gripper_states", []uint{n, 2}, &grip, float64(0))

		imgDims := []uint{n, 2, 2, 3}
		if d.floatPixel {
			px := make([]float32, n*12)
			for i := range px {
				px[i] = float32(i%12) / 12
			}
			put(obs, "agentview_rgb", imgDims, &px, float32(0))
			put(obs, "eye_in_hand_rgb", imgDims, &px, float32(0))
		} else {
			px := make([]uint8, n*12)
			for i := range px {
				px[i] = uint8(i)
			}
			put(obs, "agentview_rgb", imgDims, &px, uint8(0))
			put(obs, "eye_in_hand_rgb", imgDims, &px, uint8(0))
		}
		obs.Close()
		g.Close()
	}
	return path
}

func open(t *testing.T, path string) *File {
	t.Helper()
	tf, err := NewSource().Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { tf.Close() })
	return tf.(*File)
}

func TestFile_Trajectories(t *testing.T) {
	path := writeFixture(t,
		demoFixture{id: "demo_0", steps: 2},
		demoFixture{id: "demo_1", steps: 3},
		demoFixture{id: "demo_10", steps: 1},
	)

	ids, err := open(t, path).Trajectories()
	if err != nil {
		t.Fatalf("Trajectories() error = %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("Trajectories() = %v, want 3 ids", ids)
	}
}

func TestFile_Extract(t *testing.T) {
	path := writeFixture(t, demoFixture{id: "demo_0", steps: 4})

	b, err := open(t, path).Extract(context.Background(), "demo_0")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if b.Timesteps() != 4 || b.Actions.Cols != 7 || b.JointStates.Cols != 7 {
		t.Errorf("shape = %d×%d, joints %d", b.Actions.Rows, b.Actions.Cols, b.JointStates.Cols)
	}
	if diff := cmp.Diff([]float64{7, 8, 9, 10, 11, 12, 13}, b.Actions.Row(1)); diff != "" {
		t.Errorf("actions row 1 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0.5, 1.5, 2.5, 3.5}, b.Rewards); diff != "" {
		t.Errorf("rewards mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]bool{false, false, false, true}, b.Dones); diff != "" {
		t.Errorf("dones mismatch (-want +got):\n%s", diff)
	}
	if b.JointStates.Row(0)[0] != 100 {
		t.Errorf("joint_states[0][0] = %v, want 100", b.JointStates.Row(0)[0])
	}
	if b.AgentView.Uint8 == nil || b.AgentView.Float32 != nil {
		t.Error("uint8 images should be read as uint8")
	}
	if b.AgentView.Frames != 4 || b.AgentView.Height != 2 || b.AgentView.Channels != 3 {
		t.Errorf("agentview = %+v", b.AgentView)
	}
	if b.EyeInHand.Uint8[13] != 13 {
		t.Errorf("eye_in_hand pixel 13 = %d", b.EyeInHand.Uint8[13])
	}
}

func TestFile_Extract_FloatImages(t *testing.T) {
	path := writeFixture(t, demoFixture{id: "demo_0", steps: 2, floatPixel: true})

	b, err := open(t, path).Extract(context.Background(), "demo_0")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if b.AgentView.Float32 == nil || len(b.AgentView.Float32) != 24 {
		t.Errorf("float images not read as float32: %+v", b.AgentView)
	}
}

func TestFile_Extract_MissingChannel(t *testing.T) {
	tests := []string{"actions", "dones", "obs/ee_pos", "obs/eye_in_hand_rgb"}

	for _, channel := range tests {
		t.Run(channel, func(t *testing.T) {
			path := writeFixture(t, demoFixture{id: "demo_0", steps: 2, skip: channel})

			_, err := open(t, path).Extract(context.Background(), "demo_0")
			var mc *domain.MissingChannelError
			if !errors.As(err, &mc) {
				t.Fatalf("Extract() error = %v, want MissingChannelError", err)
			}
			if mc.Channel != channel {
				t.Errorf("Channel = %s, want %s", mc.Channel, channel)
			}
		})
	}
}

func TestFile_Extract_UnknownTrajectory(t *testing.T) {
	path := writeFixture(t, demoFixture{id: "demo_0", steps: 1})

	_, err := open(t, path).Extract(context.Background(), "demo_9")
	if !errors.Is(err, domain.ErrMissingChannel) {
		t.Errorf("Extract() error = %v, want ErrMissingChannel", err)
	}
}

func TestSource_Open_NotHDF5(t *testing.T) {
	if _, err := NewSource().Open(context.Background(), filepath.Join(t.TempDir(), "missing.hdf5")); err == nil {
		t.Error("Open() error = nil for a missing file")
	}
}
