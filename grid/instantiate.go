package grid

import (
	"github.com/plus3/driftworks/component"
	"github.com/plus3/driftworks/ecs"
	"github.com/plus3/driftworks/gamedata"
)

// instantiate spawns the entity of a structure block with the behaviour
// components of its type. A drone station also spawns its drone.
func (w *World) instantiate(c Cell, block gamedata.Block) ecs.EntityId {
	center := w.Center(c)
	components := []any{
		center,
		component.GridPosition{X: c.X, Y: c.Y},
		component.Block{Type: block, Layer: gamedata.LayerStructure},
	}

	cfg := w.cfg
	switch block {
	case gamedata.Turret:
		components = append(components, component.Turret{
			Range:    cfg.Turret.Range,
			Cooldown: cfg.Turret.Cooldown,
			Damage:   cfg.Turret.Damage,
		})
	case gamedata.Collector:
		components = append(components,
			component.Collector{
				Range:    cfg.Collector.Range,
				Pull:     cfg.Collector.Pull,
				Capacity: cfg.Collector.Capacity,
			},
			component.Inventory{},
		)
	case gamedata.Storage:
		components = append(components,
			component.Storage{Capacity: cfg.Storage.Capacity},
			component.Inventory{},
		)
	case gamedata.Smelter, gamedata.Assembler:
		components = append(components,
			component.Machine{Kind: block},
			component.Inventory{},
		)
	case gamedata.DroneStation:
		components = append(components, component.DroneStation{})
	}

	id := w.storage.Spawn(components...)

	if block == gamedata.DroneStation {
		drone := w.storage.Spawn(
			center,
			component.Drone{
				Speed:    cfg.Drone.Speed,
				Capacity: cfg.Drone.Capacity,
				Station:  id,
			},
		)
		ecs.ReadComponent[component.DroneStation](w.storage, id).Drone = drone
	}
	return id
}
