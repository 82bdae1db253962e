package app

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bft-labs/libero2lerobot/internal/domain"
)

const (
	// InputExtension is the extension of recording files.
	InputExtension = ".hdf5"

	// taskSuffix is stripped from the base name after the extension.
	taskSuffix = "_demo"
)

// ListInputs returns the recording files of dir sorted by file name.
// A missing directory is a *domain.NotFoundError; a directory with no
// recordings yields an empty slice.
func ListInputs(dir string) ([]domain.InputFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &domain.NotFoundError{Path: dir}
		}
		return nil, fmt.Errorf("stat input dir: %w", err)
	}
	if !info.IsDir() {
		return nil, &domain.NotFoundError{Path: dir}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), InputExtension) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	inputs := make([]domain.InputFile, 0, len(names))
	for i, name := range names {
		inputs = append(inputs, domain.InputFile{
			Path:      filepath.Join(dir, name),
			Name:      name,
			TaskLabel: TaskLabel(name),
			Rank:      i,
		})
	}
	return inputs, nil
}

// TaskLabel derives the task label from a recording file name,
// e.g. "pick_up_the_milk_demo.hdf5" becomes "pick_up_the_milk".
func TaskLabel(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, InputExtension)
	return strings.TrimSuffix(base, taskSuffix)
}
