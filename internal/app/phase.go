package app

import (
	"fmt"
	"sync"

	"github.com/bft-labs/libero2lerobot/internal/domain"
	"github.com/bft-labs/libero2lerobot/internal/ports"
)

// Phase is a step of converting one input file.
type Phase int

const (
	PhaseOpening Phase = iota
	PhaseEnumerating
	PhaseExtracting
	PhaseBuildingRecords
	PhaseMaterializingFrames
	PhaseEncodingVideo
	PhaseWritingTable
	PhaseSummarizing
	PhaseDone
	PhaseFailed
)

// String returns a human-readable representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseOpening:
		return "Opening"
	case PhaseEnumerating:
		return "Enumerating"
	case PhaseExtracting:
		return "Extracting"
	case PhaseBuildingRecords:
		return "BuildingRecords"
	case PhaseMaterializingFrames:
		return "MaterializingFrames"
	case PhaseEncodingVideo:
		return "EncodingVideo"
	case PhaseWritingTable:
		return "WritingTable"
	case PhaseSummarizing:
		return "Summarizing"
	case PhaseDone:
		return "Done"
	case PhaseFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal returns true for Done and Failed.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed
}

// successors lists the legal successors of each non-terminal phase, besides Failed.
var successors = map[Phase][]Phase{
	PhaseOpening:             {PhaseEnumerating},
	PhaseEnumerating:         {PhaseExtracting, PhaseSummarizing},
	PhaseExtracting:          {PhaseBuildingRecords},
	PhaseBuildingRecords:     {PhaseMaterializingFrames},
	PhaseMaterializingFrames: {PhaseEncodingVideo},
	PhaseEncodingVideo:       {PhaseWritingTable},
	PhaseWritingTable:        {PhaseExtracting, PhaseSummarizing},
	PhaseSummarizing:         {PhaseDone},
}

// PhaseEmitter is called when the phase of a file changes.
type PhaseEmitter interface {
	OnPhaseChange(file string, previous, current Phase)
}

// PhaseTracker enforces the phase machine of one input file.
type PhaseTracker struct {
	mu      sync.RWMutex
	file    string
	phase   Phase
	logger  ports.Logger
	emitter PhaseEmitter
}

// NewPhaseTracker creates a tracker for file, starting in PhaseOpening.
func NewPhaseTracker(file string, logger ports.Logger, emitter PhaseEmitter) *PhaseTracker {
	return &PhaseTracker{
		file:    file,
		phase:   PhaseOpening,
		logger:  logger,
		emitter: emitter,
	}
}

// Phase returns the current phase.
func (t *PhaseTracker) Phase() Phase {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.phase
}

// TransitionTo moves to p. It returns an error wrapping
// domain.ErrInvalidPhase if p is not a legal successor.
func (t *PhaseTracker) TransitionTo(p Phase) error {
	t.mu.Lock()
	prev := t.phase
	if !allowed(prev, p) {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s to %s", domain.ErrInvalidPhase, prev, p)
	}
	t.phase = p
	t.mu.Unlock()

	// Emit event outside of lock
	if t.emitter != nil {
		t.emitter.OnPhaseChange(t.file, prev, p)
	}

	t.logger.Debug("phase transition",
		ports.String("file", t.file),
		ports.String("from", prev.String()),
		ports.String("to", p.String()),
	)
	return nil
}

// Fail moves to PhaseFailed from any non-terminal phase.
func (t *PhaseTracker) Fail() {
	_ = t.TransitionTo(PhaseFailed)
}

func allowed(from, to Phase) bool {
	if from.Terminal() {
		return false
	}
	if to == PhaseFailed {
		return true
	}
	for _, p := range successors[from] {
		if p == to {
			return true
		}
	}
	return false
}
