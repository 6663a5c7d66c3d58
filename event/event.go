// Package event carries discrete presentation notifications out of the
// kernel. The kernel never plays sounds or draws; it emits events into a
// Sink supplied by the host.
package event

import (
	"go.uber.org/zap"

	"github.com/plus3/driftworks/ecs"
	"github.com/plus3/driftworks/gamedata"
)

type Kind int

const (
	Build Kind = iota + 1
	Remove
	Fire
	Mine
	Collect
	Hit
)

func (k Kind) String() string {
	switch k {
	case Build:
		return "build"
	case Remove:
		return "remove"
	case Fire:
		return "fire"
	case Mine:
		return "mine"
	case Collect:
		return "collect"
	case Hit:
		return "hit"
	}
	return "unknown"
}

// Event is a single notification. Fields that do not apply to a kind are
// left zero.
type Event struct {
	Kind     Kind
	Tick     uint64
	Entity   ecs.EntityId
	Block    gamedata.Block
	CellX    int
	CellY    int
	X, Y     float64
	Resource gamedata.Resource
	Amount   int
}

// Sink receives events. Implementations are called synchronously from the
// tick and must not block.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Nop discards every event.
var Nop Sink = SinkFunc(func(Event) {})

// Buffer stores events until drained.
type Buffer struct {
	events []Event
}

func (b *Buffer) Emit(e Event) {
	b.events = append(b.events, e)
}

// Drain returns the buffered events and empties the buffer.
func (b *Buffer) Drain() []Event {
	out := b.events
	b.events = nil
	return out
}

// Len returns the number of buffered events.
func (b *Buffer) Len() int {
	return len(b.events)
}

// Fanout delivers each event to every sink in order.
type Fanout []Sink

func (f Fanout) Emit(e Event) {
	for _, s := range f {
		s.Emit(e)
	}
}

// Logged writes every event to logger at debug level.
func Logged(logger *zap.Logger) Sink {
	return SinkFunc(func(e Event) {
		logger.Debug("event",
			zap.Stringer("kind", e.Kind),
			zap.Uint64("tick", e.Tick),
			zap.Uint64("entity", uint64(e.Entity)),
			zap.Float64("x", e.X),
			zap.Float64("y", e.Y),
		)
	})
}

// Counter tallies events by kind.
type Counter map[Kind]int

func (c Counter) Emit(e Event) {
	c[e.Kind]++
}
