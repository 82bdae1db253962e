package app

import "github.com/bft-labs/libero2lerobot/internal/domain"

// EventEmitter receives conversion events. Implementations must not block.
type EventEmitter interface {
	OnEpisodeWritten(episode, frames int)
	OnVideoEncoded(episode int, stream string)
	OnVideoSkipped(episode int, stream string, err error)
	OnChunkComplete(chunk domain.Chunk)
	OnFileFailed(file string, err error)
}

// NopEvents implements EventEmitter by ignoring every event.
type NopEvents struct{}

func (NopEvents) OnEpisodeWritten(episode, frames int)                 {}
func (NopEvents) OnVideoEncoded(episode int, stream string)            {}
func (NopEvents) OnVideoSkipped(episode int, stream string, err error) {}
func (NopEvents) OnChunkComplete(chunk domain.Chunk)                   {}
func (NopEvents) OnFileFailed(file string, err error)                  {}

// MultiEvents forwards every event to each emitter in order.
type MultiEvents []EventEmitter

func (m MultiEvents) OnEpisodeWritten(episode, frames int) {
	for _, e := range m {
		e.OnEpisodeWritten(episode, frames)
	}
}

func (m MultiEvents) OnVideoEncoded(episode int, stream string) {
	for _, e := range m {
		e.OnVideoEncoded(episode, stream)
	}
}

func (m MultiEvents) OnVideoSkipped(episode int, stream string, err error) {
	for _, e := range m {
		e.OnVideoSkipped(episode, stream, err)
	}
}

func (m MultiEvents) OnChunkComplete(chunk domain.Chunk) {
	for _, e := range m {
		e.OnChunkComplete(chunk)
	}
}

func (m MultiEvents) OnFileFailed(file string, err error) {
	for _, e := range m {
		e.OnFileFailed(file, err)
	}
}
