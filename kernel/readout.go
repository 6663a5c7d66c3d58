package kernel

import (
	"github.com/plus3/driftworks/component"
	"github.com/plus3/driftworks/ecs"
	"github.com/plus3/driftworks/event"
	"github.com/plus3/driftworks/gamedata"
	"github.com/plus3/driftworks/resource"
)

// SpriteKind classifies a drawable entity.
type SpriteKind int

const (
	SpritePlayer SpriteKind = iota
	SpriteBody
	SpriteChunk
	SpriteFloor
	SpriteStructure
	SpriteDrone
	SpriteProjectile
)

func (k SpriteKind) String() string {
	switch k {
	case SpritePlayer:
		return "player"
	case SpriteBody:
		return "body"
	case SpriteChunk:
		return "chunk"
	case SpriteFloor:
		return "floor"
	case SpriteStructure:
		return "structure"
	case SpriteDrone:
		return "drone"
	case SpriteProjectile:
		return "projectile"
	}
	return "unknown"
}

// Sprite is the per-tick presentation record of one entity. Only the
// fields relevant to Kind are set.
type Sprite struct {
	Entity   ecs.EntityId
	Kind     SpriteKind
	X, Y     float64
	Angle    float64
	Block    gamedata.Block
	Variant  int
	Resource gamedata.Resource
	// Fill is remaining/maximum for bodies.
	Fill float64
}

type (
	playerRow = struct {
		ecs.EntityId
		*component.Player
		*component.Position
		*component.Inventory
	}
	bodyRow = struct {
		ecs.EntityId
		*component.Position
		*component.ResourceBody
	}
	chunkRow = struct {
		ecs.EntityId
		*component.Position
		*component.Chunk
	}
	floorRow = struct {
		ecs.EntityId
		*component.Position
		*component.Block
		*component.FloorTile
	}
	structureRow = struct {
		ecs.EntityId
		*component.Position
		*component.Block
		Turret *component.Turret `ecs:"optional"`
	}
	droneRow = struct {
		ecs.EntityId
		*component.Position
		*component.Drone
	}
	projectileRow = struct {
		ecs.EntityId
		*component.Position
		*component.Projectile
	}
)

type views struct {
	players     *ecs.View[playerRow]
	bodies      *ecs.View[bodyRow]
	chunks      *ecs.View[chunkRow]
	floor       *ecs.View[floorRow]
	structures  *ecs.View[structureRow]
	drones      *ecs.View[droneRow]
	projectiles *ecs.View[projectileRow]
}

func newViews(storage *ecs.Storage) views {
	return views{
		players:     ecs.NewView[playerRow](storage),
		bodies:      ecs.NewView[bodyRow](storage),
		chunks:      ecs.NewView[chunkRow](storage),
		floor:       ecs.NewView[floorRow](storage),
		structures:  ecs.NewView[structureRow](storage),
		drones:      ecs.NewView[droneRow](storage),
		projectiles: ecs.NewView[projectileRow](storage),
	}
}

// Sprites appends the presentation record of every drawable entity to dst,
// floor first so callers can draw in order.
func (k *Kernel) Sprites(dst []Sprite) []Sprite {
	v := &k.views
	for id, f := range v.floor.Iter() {
		dst = append(dst, Sprite{Entity: id, Kind: SpriteFloor, X: f.Position.X, Y: f.Position.Y, Block: f.Block.Type, Variant: f.FloorTile.Variant})
	}
	for id, s := range v.structures.Iter() {
		if s.Block.Layer != gamedata.LayerStructure {
			continue
		}
		sp := Sprite{Entity: id, Kind: SpriteStructure, X: s.Position.X, Y: s.Position.Y, Block: s.Block.Type}
		if s.Turret != nil {
			sp.Angle = s.Turret.Aim
		}
		dst = append(dst, sp)
	}
	for id, b := range v.bodies.Iter() {
		sp := Sprite{Entity: id, Kind: SpriteBody, X: b.Position.X, Y: b.Position.Y, Resource: b.ResourceBody.Kind}
		if b.ResourceBody.MaxAmount > 0 {
			sp.Fill = float64(b.ResourceBody.Amount) / float64(b.ResourceBody.MaxAmount)
		}
		dst = append(dst, sp)
	}
	for id, c := range v.chunks.Iter() {
		dst = append(dst, Sprite{Entity: id, Kind: SpriteChunk, X: c.Position.X, Y: c.Position.Y, Resource: c.Chunk.Kind})
	}
	for id, d := range v.drones.Iter() {
		dst = append(dst, Sprite{Entity: id, Kind: SpriteDrone, X: d.Position.X, Y: d.Position.Y, Angle: d.Drone.Heading})
	}
	for id, p := range v.projectiles.Iter() {
		dst = append(dst, Sprite{Entity: id, Kind: SpriteProjectile, X: p.Position.X, Y: p.Position.Y})
	}
	for id, p := range v.players.Iter() {
		dst = append(dst, Sprite{Entity: id, Kind: SpritePlayer, X: p.Position.X, Y: p.Position.Y})
	}
	return dst
}

// PlayerState is the player's position and inventory.
type PlayerState struct {
	Entity    ecs.EntityId
	X, Y      float64
	Inventory map[gamedata.Resource]int
}

// Player returns the first player, if any.
func (k *Kernel) Player() (PlayerState, bool) {
	for id, p := range k.views.players.Iter() {
		return PlayerState{Entity: id, X: p.Position.X, Y: p.Position.Y, Inventory: p.Inventory.Snapshot()}, true
	}
	return PlayerState{}, false
}

// Laser is the mining beam as of the last tick.
func (k *Kernel) Laser() resource.Laser {
	return k.mining.Laser()
}

// Events drains the events emitted since the previous call.
func (k *Kernel) Events() []event.Event {
	return k.events.Drain()
}

// Census counts live entities by sprite kind.
func (k *Kernel) Census() map[SpriteKind]int {
	counts := make(map[SpriteKind]int)
	for _, s := range k.Sprites(nil) {
		counts[s.Kind]++
	}
	return counts
}

// Stock sums every inventory in the world, drone cargo included.
func (k *Kernel) Stock() gamedata.Amounts {
	total := gamedata.Amounts{}
	for item := range ecs.NewView[struct{ *component.Inventory }](k.storage).Values() {
		for res, n := range item.Inventory.Items {
			total[res] += n
		}
	}
	for d := range k.views.drones.Values() {
		for res, n := range d.Drone.Cargo.Items {
			total[res] += n
		}
	}
	return total
}
