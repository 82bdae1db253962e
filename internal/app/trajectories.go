package app

import (
	"sort"
	"strconv"
	"strings"
)

// TrajectoryPrefix is the identifier prefix of trajectories inside a file.
const TrajectoryPrefix = "demo_"

// TrajectoryRef identifies one trajectory of an open file.
type TrajectoryRef struct {
	ID string

	// Number is the integer parsed from the suffix, -1 when not numeric.
	Number int

	// Position is the 0-based rank after ordering; global episode index
	// is the chunk start plus Position.
	Position int
}

// OrderTrajectories keeps the identifiers carrying TrajectoryPrefix and
// orders them by their numeric suffix, so demo_2 precedes demo_10.
// Identifiers with a non-numeric suffix follow, in lexicographic order.
func OrderTrajectories(ids []string) []TrajectoryRef {
	refs := make([]TrajectoryRef, 0, len(ids))
	for _, id := range ids {
		suffix, ok := strings.CutPrefix(id, TrajectoryPrefix)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil || n < 0 {
			n = -1
		}
		refs = append(refs, TrajectoryRef{ID: id, Number: n})
	}

	sort.SliceStable(refs, func(i, j int) bool {
		a, b := refs[i], refs[j]
		switch {
		case a.Number >= 0 && b.Number >= 0:
			if a.Number != b.Number {
				return a.Number < b.Number
			}
			return a.ID < b.ID
		case a.Number >= 0:
			return true
		case b.Number >= 0:
			return false
		default:
			return a.ID < b.ID
		}
	})

	for i := range refs {
		refs[i].Position = i
	}
	return refs
}
