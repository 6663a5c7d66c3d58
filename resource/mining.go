package resource

import (
	"math"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/plus3/driftworks/component"
	"github.com/plus3/driftworks/config"
	"github.com/plus3/driftworks/ecs"
	"github.com/plus3/driftworks/event"
	"github.com/plus3/driftworks/input"
)

// Laser is the presentation readout of the mining beam.
type Laser struct {
	Active         bool
	StartX, StartY float64
	EndX, EndY     float64
}

// MiningSystem extracts chunks from the body under the cursor while the
// mine button is held. Extraction happens on a fixed rate timer; the
// timer restarts whenever the button is released.
type MiningSystem struct {
	Bodies ecs.Query[struct {
		ecs.EntityId
		*component.Position
		*component.ResourceBody
	}]
	Players ecs.Query[struct {
		*component.Player
		*component.Position
	}]
	Input  ecs.Singleton[input.State]
	Config ecs.Singleton[config.Config]

	rng    *rand.Rand
	sink   event.Sink
	logger *zap.Logger

	timer float64
	laser Laser
}

func NewMiningSystem(rng *rand.Rand, sink event.Sink, logger *zap.Logger) *MiningSystem {
	if sink == nil {
		sink = event.Nop
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MiningSystem{rng: rng, sink: sink, logger: logger}
}

// Laser returns the beam state of the last tick.
func (s *MiningSystem) Laser() Laser {
	return s.laser
}

// Reset drops the rate timer and the beam.
func (s *MiningSystem) Reset() {
	s.timer = 0
	s.laser = Laser{}
}

func (s *MiningSystem) Execute(frame *ecs.UpdateFrame) {
	s.laser.Active = false

	in := s.Input.Get()
	if in == nil || !in.IsHeld(input.Mine) {
		s.timer = 0
		return
	}

	cfg := s.Config.Get()
	target, ok := s.bodyUnder(in.CursorX, in.CursorY, cfg.Mining.HitRadius)
	if !ok {
		return
	}
	in.Consume()

	start := *target.Position
	if player, ok := s.Players.First(); ok {
		start = *player.Position
	}
	s.laser = Laser{
		Active: true,
		StartX: start.X, StartY: start.Y,
		EndX: in.CursorX, EndY: in.CursorY,
	}

	s.timer += frame.DeltaTime
	if s.timer < cfg.Mining.Rate {
		return
	}
	s.timer = 0

	body := target.ResourceBody
	taken := min(cfg.Mining.Amount, body.Amount)
	body.Amount -= taken

	pos := *target.Position
	SpawnChunk(frame.Storage, cfg, s.rng, pos.X, pos.Y, body.Kind, taken)
	s.sink.Emit(event.Event{
		Kind:     event.Mine,
		Tick:     frame.Tick,
		Entity:   target.EntityId,
		X:        pos.X,
		Y:        pos.Y,
		Resource: body.Kind,
		Amount:   taken,
	})

	if body.Amount <= 0 {
		frame.Storage.Delete(target.EntityId)
		s.logger.Debug("body depleted", zap.Uint64("entity", uint64(target.EntityId)))
	}
}

type bodyItem = struct {
	ecs.EntityId
	*component.Position
	*component.ResourceBody
}

func (s *MiningSystem) bodyUnder(x, y, radius float64) (bodyItem, bool) {
	for item := range s.Bodies.Values() {
		if item.ResourceBody.Amount <= 0 {
			continue
		}
		if math.Hypot(item.Position.X-x, item.Position.Y-y) <= radius {
			return item, true
		}
	}
	return bodyItem{}, false
}
