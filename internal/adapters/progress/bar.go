// Package progress displays conversion progress on a terminal.
package progress

import (
	"io"
	"sync"

	"github.com/cheggaaa/pb"
)

// Bar implements ports.Progress with a cheggaaa/pb progress bar over files.
type Bar struct {
	mu     sync.Mutex
	out    io.Writer
	prefix string
	bar    *pb.ProgressBar
}

// NewBar creates a bar writing to out with the given prefix.
func NewBar(out io.Writer, prefix string) *Bar {
	return &Bar{out: out, prefix: prefix}
}

// Start begins a new bar over total units.
func (b *Bar) Start(total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar != nil {
		b.bar.Finish()
	}
	bar := pb.New(total).Prefix(b.prefix)
	bar.Output = b.out
	bar.ShowSpeed = false
	bar.ShowTimeLeft = true
	b.bar = bar.Start()
}

// Describe shows msg after the bar.
func (b *Bar) Describe(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar != nil {
		b.bar.Postfix(" " + msg)
	}
}

// Increment advances the bar by one.
func (b *Bar) Increment() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar != nil {
		b.bar.Increment()
	}
}

// Finish stops the bar.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar != nil {
		b.bar.Finish()
		b.bar = nil
	}
}

// Current returns the completed count of the running bar.
func (b *Bar) Current() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar == nil {
		return 0
	}
	return b.bar.Get()
}

// Nop implements ports.Progress without output.
type Nop struct{}

func (Nop) Start(total int)     {}
func (Nop) Describe(msg string) {}
func (Nop) Increment()          {}
func (Nop) Finish()             {}
