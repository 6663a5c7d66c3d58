// Package combat runs the defensive turrets: target selection through the
// spatial index, intercept aiming and projectile resolution.
package combat

import (
	"math"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/plus3/driftworks/component"
	"github.com/plus3/driftworks/config"
	"github.com/plus3/driftworks/ecs"
	"github.com/plus3/driftworks/event"
	"github.com/plus3/driftworks/resource"
	"github.com/plus3/driftworks/spatial"
)

// System rebuilds the body index, then fires ready turrets and resolves
// projectiles. The index is rebuilt every tick before it is queried.
type System struct {
	Bodies ecs.Query[struct {
		ecs.EntityId
		*component.Position
		*component.ResourceBody
	}]
	Turrets ecs.Query[struct {
		ecs.EntityId
		*component.Position
		*component.Turret
	}]
	Projectiles ecs.Query[struct {
		ecs.EntityId
		*component.Position
		*component.Projectile
	}]
	Config ecs.Singleton[config.Config]

	rng    *rand.Rand
	sink   event.Sink
	logger *zap.Logger

	tree       *spatial.QuadTree
	candidates []ecs.EntityId
}

func NewSystem(rng *rand.Rand, sink event.Sink, logger *zap.Logger) *System {
	if sink == nil {
		sink = event.Nop
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &System{rng: rng, sink: sink, logger: logger}
}

// Index returns the spatial index as rebuilt on the last tick.
func (s *System) Index() *spatial.QuadTree {
	return s.tree
}

// Reset empties the spatial index so no ids from a replaced world remain.
func (s *System) Reset() {
	if s.tree != nil {
		s.tree.Clear()
	}
	s.candidates = s.candidates[:0]
}

func (s *System) Execute(frame *ecs.UpdateFrame) {
	cfg := s.Config.Get()
	s.rebuild(cfg)
	s.turrets(frame, cfg)
	s.projectiles(frame, cfg)
}

func (s *System) rebuild(cfg *config.Config) {
	limit := cfg.CullLimit()
	if s.tree == nil || s.tree.Boundary().W != limit {
		s.tree = spatial.NewQuadTree(spatial.Rect{W: limit, H: limit}, cfg.Spatial.Capacity)
	} else {
		s.tree.Clear()
	}
	for id, body := range s.Bodies.Iter() {
		s.tree.Insert(body.Position.X, body.Position.Y, id)
	}
}

func (s *System) turrets(frame *ecs.UpdateFrame, cfg *config.Config) {
	for id, item := range s.Turrets.Iter() {
		turret := item.Turret
		turret.SinceShot += frame.DeltaTime
		if turret.SinceShot < turret.Cooldown {
			continue
		}

		target, ok := s.nearest(frame.Storage, *item.Position, turret.Range)
		if !ok {
			continue
		}
		s.fire(frame, cfg, id, item.Position, turret, target)
	}
}

// nearest returns the closest body with a positive amount within radius.
// Ties go to the body seen first.
func (s *System) nearest(storage *ecs.Storage, from component.Position, radius float64) (ecs.EntityId, bool) {
	s.candidates = s.tree.AppendRadius(s.candidates[:0], from.X, from.Y, radius)

	best, bestDist := ecs.NoEntity, math.Inf(1)
	for _, id := range s.candidates {
		body := s.Bodies.Get(id)
		if body == nil || body.ResourceBody.Amount <= 0 {
			continue
		}
		if d := math.Hypot(body.Position.X-from.X, body.Position.Y-from.Y); d < bestDist {
			best, bestDist = id, d
		}
	}
	return best, best != ecs.NoEntity
}

func (s *System) fire(frame *ecs.UpdateFrame, cfg *config.Config, id ecs.EntityId, pos *component.Position, turret *component.Turret, target ecs.EntityId) {
	turret.SinceShot = 0
	speed := cfg.Turret.ProjectileSpeed

	tp := ecs.ReadComponent[component.Position](frame.Storage, target)
	aimX, aimY := tp.X, tp.Y
	if vel := ecs.ReadComponent[component.Velocity](frame.Storage, target); vel != nil {
		aimX, aimY, _ = Intercept(pos.X, pos.Y, tp.X, tp.Y, vel.DX, vel.DY, speed)
	}

	angle := math.Atan2(aimY-pos.Y, aimX-pos.X)
	turret.Aim = angle

	projectile := frame.Storage.Spawn(
		component.Position{X: pos.X, Y: pos.Y},
		component.Velocity{DX: math.Cos(angle) * speed, DY: math.Sin(angle) * speed},
		component.Projectile{
			Target:   target,
			Speed:    speed,
			Damage:   turret.Damage,
			Lifetime: cfg.Turret.Lifetime,
		},
	)
	s.sink.Emit(event.Event{
		Kind:   event.Fire,
		Tick:   frame.Tick,
		Entity: id,
		X:      pos.X,
		Y:      pos.Y,
	})
	s.logger.Debug("turret fired",
		zap.Uint64("turret", uint64(id)),
		zap.Uint64("target", uint64(target)),
		zap.Uint64("projectile", uint64(projectile)),
	)
}

func (s *System) projectiles(frame *ecs.UpdateFrame, cfg *config.Config) {
	storage := frame.Storage
	for id, item := range s.Projectiles.Iter() {
		p := item.Projectile
		p.Lifetime -= frame.DeltaTime
		if p.Lifetime <= 0 {
			storage.Delete(id)
			continue
		}

		target := s.Bodies.Get(p.Target)
		if target == nil {
			storage.Delete(id)
			continue
		}

		tp := *target.Position
		if math.Hypot(tp.X-item.Position.X, tp.Y-item.Position.Y) >= cfg.Turret.HitRadius {
			continue
		}

		body := target.ResourceBody
		before := body.Amount
		body.Amount -= p.Damage
		// The killing hit releases only what was left.
		released := min(p.Damage, before)
		if released > 0 {
			resource.SpawnChunk(storage, cfg, s.rng, tp.X, tp.Y, body.Kind, released)
		}
		s.sink.Emit(event.Event{
			Kind:     event.Hit,
			Tick:     frame.Tick,
			Entity:   p.Target,
			X:        tp.X,
			Y:        tp.Y,
			Resource: body.Kind,
			Amount:   released,
		})

		if body.Amount <= 0 {
			storage.Delete(p.Target)
			s.logger.Debug("body destroyed", zap.Uint64("entity", uint64(p.Target)))
		}
		storage.Delete(id)
	}
}
