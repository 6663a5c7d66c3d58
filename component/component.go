// Package component declares the component types shared by the systems.
package component

import (
	"github.com/plus3/driftworks/ecs"
	"github.com/plus3/driftworks/gamedata"
)

type Position struct {
	X, Y float64
}

type Velocity struct {
	DX, DY float64
}

// Player marks the controllable ship. The player is also a collector with
// its own range and pull and no capacity limit.
type Player struct {
	Speed float64
}

// BoundaryCull marks entities that are deleted, instead of clamped, once
// they drift past the extended world boundary.
type BoundaryCull struct{}

// ResourceBody is a drifting, mineable asteroid.
type ResourceBody struct {
	Kind      gamedata.Resource
	Amount    int
	MaxAmount int
}

// Chunk is a detached unit of resource. Claim is the collector currently
// pulling it, or ecs.NoEntity.
type Chunk struct {
	Kind     gamedata.Resource
	Amount   int
	Lifetime float64
	Claim    ecs.EntityId
}

// Collector attracts chunks within Range. Capacity zero means unlimited.
type Collector struct {
	Range    float64
	Pull     float64
	Capacity int
}

// HasRoom reports whether a collector holding inv can accept more units.
func (c Collector) HasRoom(inv *Inventory) bool {
	if c.Capacity <= 0 {
		return true
	}
	return inv.Total() < c.Capacity
}

// Room returns how many more units fit, or -1 when unlimited.
func (c Collector) Room(inv *Inventory) int {
	if c.Capacity <= 0 {
		return -1
	}
	return max(c.Capacity-inv.Total(), 0)
}

type Storage struct {
	Capacity int
}

// Room returns the spare capacity for a storage holding inv.
func (s Storage) Room(inv *Inventory) int {
	return max(s.Capacity-inv.Total(), 0)
}

// Machine runs recipes against its Inventory.
type Machine struct {
	Kind     gamedata.Block
	Recipe   string
	Progress float64
	Required float64
	Working  bool
}

type DroneState int

const (
	DroneIdle DroneState = iota
	DroneMovingToSource
	DroneMovingToTarget
	DroneReturningToStation
)

func (s DroneState) String() string {
	switch s {
	case DroneIdle:
		return "idle"
	case DroneMovingToSource:
		return "moving_to_source"
	case DroneMovingToTarget:
		return "moving_to_target"
	case DroneReturningToStation:
		return "returning_to_station"
	}
	return "unknown"
}

// Drone is a hauling agent. Heading is in radians and is presentation only.
type Drone struct {
	Speed    float64
	Capacity int
	State    DroneState
	Source   ecs.EntityId
	Target   ecs.EntityId
	Station  ecs.EntityId
	Cargo    Inventory
	Heading  float64
}

// DroneStation owns exactly one drone.
type DroneStation struct {
	Drone ecs.EntityId
}

// Turret fires at resource bodies. SinceShot accumulates elapsed time.
type Turret struct {
	Range     float64
	Cooldown  float64
	Damage    int
	SinceShot float64
	Aim       float64
}

type Projectile struct {
	Target   ecs.EntityId
	Speed    float64
	Damage   int
	Lifetime float64
}

// GridPosition is the cell a placed block occupies.
type GridPosition struct {
	X, Y int
}

// Block tags an entity instantiated from the grid.
type Block struct {
	Type  gamedata.Block
	Layer gamedata.Layer
}

// FloorTile carries the autotile result for a floor cell.
type FloorTile struct {
	Mask    int
	Variant int
}

// Register adds every component type to registry.
func Register(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)
	ecs.RegisterComponent[Player](registry)
	ecs.RegisterComponent[BoundaryCull](registry)
	ecs.RegisterComponent[ResourceBody](registry)
	ecs.RegisterComponent[Chunk](registry)
	ecs.RegisterComponent[Inventory](registry)
	ecs.RegisterComponent[Collector](registry)
	ecs.RegisterComponent[Storage](registry)
	ecs.RegisterComponent[Machine](registry)
	ecs.RegisterComponent[Drone](registry)
	ecs.RegisterComponent[DroneStation](registry)
	ecs.RegisterComponent[Turret](registry)
	ecs.RegisterComponent[Projectile](registry)
	ecs.RegisterComponent[GridPosition](registry)
	ecs.RegisterComponent[Block](registry)
	ecs.RegisterComponent[FloorTile](registry)
}

// NewRegistry returns a registry with every component registered.
func NewRegistry() *ecs.ComponentRegistry {
	registry := ecs.NewComponentRegistry()
	Register(registry)
	return registry
}
