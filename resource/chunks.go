package resource

import (
	"math"

	"go.uber.org/zap"

	"github.com/plus3/driftworks/component"
	"github.com/plus3/driftworks/config"
	"github.com/plus3/driftworks/ecs"
	"github.com/plus3/driftworks/event"
)

// collectorRef is one collector-capable entity as seen during a tick.
type collectorRef struct {
	id       ecs.EntityId
	pos      *component.Position
	inv      *component.Inventory
	collect  component.Collector
	isPlayer bool
}

// ChunkSystem ages chunks, applies drag and runs the claim protocol: the
// player takes any chunk within its range, a claimed chunk stays with its
// claimant while in range, and an unclaimed chunk goes to the nearest
// in-range collector with room.
type ChunkSystem struct {
	Chunks ecs.Query[struct {
		ecs.EntityId
		*component.Position
		*component.Velocity
		*component.Chunk
	}]
	Collectors ecs.Query[struct {
		ecs.EntityId
		*component.Position
		*component.Collector
		*component.Inventory
	}]
	Players ecs.Query[struct {
		ecs.EntityId
		*component.Player
		*component.Position
		*component.Inventory
	}]
	Config ecs.Singleton[config.Config]

	sink   event.Sink
	logger *zap.Logger

	collectors []collectorRef
	byId       map[ecs.EntityId]int
}

func NewChunkSystem(sink event.Sink, logger *zap.Logger) *ChunkSystem {
	if sink == nil {
		sink = event.Nop
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChunkSystem{sink: sink, logger: logger, byId: make(map[ecs.EntityId]int)}
}

// gather lists the collectors for this tick, players first. It returns the
// first player, or nil when there is none.
func (s *ChunkSystem) gather(cfg *config.Config) *collectorRef {
	s.collectors = s.collectors[:0]
	clear(s.byId)

	for item := range s.Players.Values() {
		s.byId[item.EntityId] = len(s.collectors)
		s.collectors = append(s.collectors, collectorRef{
			id:  item.EntityId,
			pos: item.Position,
			inv: item.Inventory,
			collect: component.Collector{
				Range: cfg.Player.CollectRange,
				Pull:  cfg.Player.CollectPull,
			},
			isPlayer: true,
		})
	}
	players := len(s.collectors)

	for item := range s.Collectors.Values() {
		if _, dup := s.byId[item.EntityId]; dup {
			continue
		}
		s.byId[item.EntityId] = len(s.collectors)
		s.collectors = append(s.collectors, collectorRef{
			id:      item.EntityId,
			pos:     item.Position,
			inv:     item.Inventory,
			collect: *item.Collector,
		})
	}

	if players == 0 {
		return nil
	}
	return &s.collectors[0]
}

func (s *ChunkSystem) Execute(frame *ecs.UpdateFrame) {
	cfg := s.Config.Get()
	dt := frame.DeltaTime
	player := s.gather(cfg)

	for id, item := range s.Chunks.Iter() {
		chunk := item.Chunk

		chunk.Lifetime -= dt
		if chunk.Lifetime <= 0 {
			frame.Storage.Delete(id)
			continue
		}

		item.Velocity.DX *= cfg.Chunks.Drag
		item.Velocity.DY *= cfg.Chunks.Drag

		claimant := s.resolveClaim(chunk, item.Position, player)
		if claimant == nil {
			continue
		}

		dx := claimant.pos.X - item.Position.X
		dy := claimant.pos.Y - item.Position.Y
		dist := math.Hypot(dx, dy)
		if dist > 0 {
			item.Velocity.DX += dx / dist * claimant.collect.Pull * dt
			item.Velocity.DY += dy / dist * claimant.collect.Pull * dt
		}

		if dist < cfg.Chunks.PickupRadius {
			s.pickup(frame, id, item.Position, chunk, claimant)
		}
	}
}

func (s *ChunkSystem) resolveClaim(chunk *component.Chunk, pos *component.Position, player *collectorRef) *collectorRef {
	if player != nil && s.inRange(player, pos) {
		chunk.Claim = player.id
		return player
	}

	if chunk.Claim != ecs.NoEntity {
		if idx, ok := s.byId[chunk.Claim]; ok {
			current := &s.collectors[idx]
			if !current.isPlayer && s.inRange(current, pos) {
				return current
			}
		}
		chunk.Claim = ecs.NoEntity
	}

	var best *collectorRef
	bestDist := math.Inf(1)
	for i := range s.collectors {
		c := &s.collectors[i]
		if c.isPlayer || !c.collect.HasRoom(c.inv) {
			continue
		}
		d := math.Hypot(c.pos.X-pos.X, c.pos.Y-pos.Y)
		if d < c.collect.Range && d < bestDist {
			best, bestDist = c, d
		}
	}
	if best != nil {
		chunk.Claim = best.id
	}
	return best
}

func (s *ChunkSystem) inRange(c *collectorRef, pos *component.Position) bool {
	return math.Hypot(c.pos.X-pos.X, c.pos.Y-pos.Y) < c.collect.Range
}

func (s *ChunkSystem) pickup(frame *ecs.UpdateFrame, id ecs.EntityId, pos *component.Position, chunk *component.Chunk, c *collectorRef) {
	amount := chunk.Amount
	if room := c.collect.Room(c.inv); room >= 0 {
		amount = min(amount, room)
	}
	if amount > 0 {
		c.inv.Add(chunk.Kind, amount)
		chunk.Amount -= amount
		s.sink.Emit(event.Event{
			Kind:     event.Collect,
			Tick:     frame.Tick,
			Entity:   c.id,
			X:        pos.X,
			Y:        pos.Y,
			Resource: chunk.Kind,
			Amount:   amount,
		})
	}

	if chunk.Amount <= 0 {
		frame.Storage.Delete(id)
		return
	}
	// Full collector: let the chunk go so someone else can claim it.
	chunk.Claim = ecs.NoEntity
}
