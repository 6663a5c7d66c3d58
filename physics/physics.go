// Package physics integrates velocities and drives the player ship.
package physics

import (
	"math"

	"github.com/plus3/driftworks/component"
	"github.com/plus3/driftworks/config"
	"github.com/plus3/driftworks/ecs"
	"github.com/plus3/driftworks/gamedata"
	"github.com/plus3/driftworks/input"
)

// diagonal scales each axis when two directions are held.
const diagonal = math.Sqrt2 / 2

// ControlSystem turns held direction buttons into player velocity.
type ControlSystem struct {
	Players ecs.Query[struct {
		*component.Player
		*component.Velocity
	}]
	Input ecs.Singleton[input.State]
}

func (s *ControlSystem) Execute(frame *ecs.UpdateFrame) {
	in := s.Input.Get()
	if in == nil {
		return
	}

	x, y := in.Axis()
	if x != 0 && y != 0 {
		x *= diagonal
		y *= diagonal
	}

	for item := range s.Players.Values() {
		item.Velocity.DX = x * item.Player.Speed
		item.Velocity.DY = y * item.Player.Speed
	}
}

// MovementSystem integrates velocity into position and enforces the world
// boundary: entities are clamped to the map limit, except BoundaryCull
// entities which are deleted once past the extended limit.
type MovementSystem struct {
	Bodies ecs.Query[struct {
		ecs.EntityId
		*component.Position
		*component.Velocity
		Cull *component.BoundaryCull `ecs:"optional"`
	}]
	Config ecs.Singleton[config.Config]
}

func (s *MovementSystem) Execute(frame *ecs.UpdateFrame) {
	cfg := s.Config.Get()
	limit, cull := cfg.World.MapLimit, cfg.CullLimit()
	dt := frame.DeltaTime

	for id, item := range s.Bodies.Iter() {
		item.Position.X += item.Velocity.DX * dt
		item.Position.Y += item.Velocity.DY * dt

		if item.Cull != nil {
			if math.Abs(item.Position.X) > cull || math.Abs(item.Position.Y) > cull {
				frame.Commands.Delete(id)
			}
			continue
		}

		item.Position.X = Clamp(item.Position.X, -limit, limit)
		item.Position.Y = Clamp(item.Position.Y, -limit, limit)
	}
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Distance between two positions.
func Distance(a, b component.Position) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// SpawnPlayer creates the player ship at (x, y) holding items.
func SpawnPlayer(storage *ecs.Storage, cfg *config.Config, x, y float64, items map[gamedata.Resource]int) ecs.EntityId {
	return storage.Spawn(
		component.Player{Speed: cfg.Player.Speed},
		component.Position{X: x, Y: y},
		component.Velocity{},
		component.NewInventory(items),
	)
}
