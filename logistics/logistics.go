// Package logistics drives the hauling drones. Each drone cycles between a
// source it withdraws from and a target it deposits into, returning to its
// station when there is nothing to haul.
package logistics

import (
	"math"

	"go.uber.org/zap"

	"github.com/plus3/driftworks/component"
	"github.com/plus3/driftworks/config"
	"github.com/plus3/driftworks/ecs"
	"github.com/plus3/driftworks/gamedata"
)

type machineItem = struct {
	ecs.EntityId
	*component.Position
	*component.Machine
	*component.Inventory
}

type storeItem = struct {
	ecs.EntityId
	*component.Position
	*component.Storage
	*component.Inventory
}

type collectorItem = struct {
	ecs.EntityId
	*component.Position
	*component.Collector
	*component.Inventory
}

// System advances every drone's state machine once per tick.
type System struct {
	Drones ecs.Query[struct {
		ecs.EntityId
		*component.Position
		*component.Drone
	}]
	Collectors ecs.Query[collectorItem]
	Machines   ecs.Query[machineItem]
	Stores     ecs.Query[storeItem]
	Config     ecs.Singleton[config.Config]

	logger *zap.Logger
	needed map[gamedata.Resource]bool
}

func NewSystem(logger *zap.Logger) *System {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &System{logger: logger, needed: make(map[gamedata.Resource]bool)}
}

func (s *System) Execute(frame *ecs.UpdateFrame) {
	cfg := &s.Config.Get().Drone
	for id, item := range s.Drones.Iter() {
		s.step(frame, cfg, id, item.Position, item.Drone)
	}
}

func (s *System) step(frame *ecs.UpdateFrame, cfg *config.Drone, id ecs.EntityId, pos *component.Position, d *component.Drone) {
	storage := frame.Storage
	from := d.State

	switch d.State {
	case component.DroneIdle:
		if d.Cargo.Empty() {
			s.idle(storage, cfg, pos, d)
		} else if target := s.findTarget(pos, d, cfg); target != ecs.NoEntity {
			d.Target = target
			d.State = component.DroneMovingToTarget
		}

	case component.DroneMovingToSource:
		dest := ecs.ReadComponent[component.Position](storage, d.Source)
		if dest == nil {
			s.logger.Debug("source vanished", zap.Uint64("drone", uint64(id)), zap.Uint64("source", uint64(d.Source)))
			d.Source = ecs.NoEntity
			d.State = component.DroneIdle
			break
		}
		if !moveToward(pos, d, *dest, frame.DeltaTime, cfg.ArrivalDistance) {
			break
		}
		s.withdraw(storage, d)
		if d.Cargo.Empty() {
			d.State = component.DroneIdle
		} else if target := s.findTarget(pos, d, cfg); target != ecs.NoEntity {
			d.Target = target
			d.State = component.DroneMovingToTarget
		} else {
			d.State = component.DroneIdle
		}

	case component.DroneMovingToTarget:
		dest := ecs.ReadComponent[component.Position](storage, d.Target)
		if dest == nil {
			s.logger.Debug("target vanished", zap.Uint64("drone", uint64(id)), zap.Uint64("target", uint64(d.Target)))
			d.Target = ecs.NoEntity
			d.State = component.DroneIdle
			break
		}
		if !moveToward(pos, d, *dest, frame.DeltaTime, cfg.ArrivalDistance) {
			break
		}
		s.deposit(storage, d)
		d.Target = ecs.NoEntity
		d.State = component.DroneIdle

	case component.DroneReturningToStation:
		dest := ecs.ReadComponent[component.Position](storage, d.Station)
		if dest == nil {
			d.State = component.DroneIdle
			break
		}
		if moveToward(pos, d, *dest, frame.DeltaTime, cfg.ArrivalDistance) {
			d.State = component.DroneIdle
		}
	}

	if d.State != from {
		s.logger.Debug("drone transition",
			zap.Uint64("drone", uint64(id)),
			zap.Stringer("from", from),
			zap.Stringer("to", d.State),
		)
	}
}

func (s *System) idle(storage *ecs.Storage, cfg *config.Drone, pos *component.Position, d *component.Drone) {
	if source := s.findSource(pos, cfg); source != ecs.NoEntity {
		d.Source = source
		d.State = component.DroneMovingToSource
		return
	}
	station := ecs.ReadComponent[component.Position](storage, d.Station)
	if station != nil && distance(*pos, *station) > cfg.StationRadius {
		d.State = component.DroneReturningToStation
	}
}

// moveToward steps pos towards dest and reports arrival. Arrival is checked
// before moving, so a drone spends one tick at its destination.
func moveToward(pos *component.Position, d *component.Drone, dest component.Position, dt, arrival float64) bool {
	dx, dy := dest.X-pos.X, dest.Y-pos.Y
	dist := math.Hypot(dx, dy)
	if dist < arrival {
		return true
	}
	step := min(d.Speed*dt, dist)
	pos.X += dx / dist * step
	pos.Y += dy / dist * step
	d.Heading = math.Atan2(dy, dx)
	return false
}

func distance(a, b component.Position) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// hasOutput reports whether a machine holds a kind none of its recipes
// consume.
func hasOutput(m machineItem) bool {
	for _, res := range m.Inventory.Kinds() {
		if !gamedata.IsInput(m.Machine.Kind, res) {
			return true
		}
	}
	return false
}

// accepts reports whether a machine takes res: it must be an input of the
// machine kind and be stocked below stock times the per-craft amount.
func accepts(m machineItem, res gamedata.Resource, stock int) bool {
	n, ok := gamedata.InputAmount(m.Machine.Kind, res)
	if !ok {
		return false
	}
	return m.Inventory.Count(res) < n*stock
}

// collectNeeded fills s.needed with every kind some machine accepts.
func (s *System) collectNeeded(stock int) {
	clear(s.needed)
	for m := range s.Machines.Values() {
		for _, res := range gamedata.InputKinds(m.Machine.Kind) {
			if accepts(m, res, stock) {
				s.needed[res] = true
			}
		}
	}
}

// findSource picks the nearest collector holding anything, else the nearest
// machine with output waiting, else the nearest storage holding a kind some
// machine needs.
func (s *System) findSource(pos *component.Position, cfg *config.Drone) ecs.EntityId {
	best, bestDist := ecs.NoEntity, math.Inf(1)
	consider := func(id ecs.EntityId, p *component.Position) {
		if d := distance(*pos, *p); d < bestDist {
			best, bestDist = id, d
		}
	}

	for c := range s.Collectors.Values() {
		if !c.Inventory.Empty() {
			consider(c.EntityId, c.Position)
		}
	}
	if best != ecs.NoEntity {
		return best
	}

	for m := range s.Machines.Values() {
		if hasOutput(m) {
			consider(m.EntityId, m.Position)
		}
	}
	if best != ecs.NoEntity {
		return best
	}

	s.collectNeeded(cfg.InputStock)
	if len(s.needed) == 0 {
		return ecs.NoEntity
	}
	for st := range s.Stores.Values() {
		for _, res := range st.Inventory.Kinds() {
			if s.needed[res] {
				consider(st.EntityId, st.Position)
				break
			}
		}
	}
	return best
}

// findTarget picks the nearest machine accepting some carried kind, else
// the nearest storage with room other than the drone's source.
func (s *System) findTarget(pos *component.Position, d *component.Drone, cfg *config.Drone) ecs.EntityId {
	best, bestDist := ecs.NoEntity, math.Inf(1)
	consider := func(id ecs.EntityId, p *component.Position) {
		if dist := distance(*pos, *p); dist < bestDist {
			best, bestDist = id, dist
		}
	}

	cargo := d.Cargo.Kinds()
	for m := range s.Machines.Values() {
		for _, res := range cargo {
			if accepts(m, res, cfg.InputStock) {
				consider(m.EntityId, m.Position)
				break
			}
		}
	}
	if best != ecs.NoEntity {
		return best
	}

	for st := range s.Stores.Values() {
		if st.EntityId == d.Source || st.Storage.Room(st.Inventory) <= 0 {
			continue
		}
		consider(st.EntityId, st.Position)
	}
	return best
}

// withdraw loads cargo from the drone's source, never past capacity. A
// machine gives up only its outputs; any other source gives one kind,
// preferring one a machine needs.
func (s *System) withdraw(storage *ecs.Storage, d *component.Drone) {
	inv := ecs.ReadComponent[component.Inventory](storage, d.Source)
	if inv == nil {
		return
	}
	room := d.Capacity - d.Cargo.Total()
	if room <= 0 {
		return
	}

	if machine := ecs.ReadComponent[component.Machine](storage, d.Source); machine != nil {
		for _, res := range inv.Kinds() {
			if room <= 0 {
				break
			}
			if gamedata.IsInput(machine.Kind, res) {
				continue
			}
			taken := inv.Remove(res, room)
			d.Cargo.Add(res, taken)
			room -= taken
		}
		return
	}

	kinds := inv.Kinds()
	if len(kinds) == 0 {
		return
	}
	pick := kinds[0]
	if ecs.Has[component.Storage](storage, d.Source) {
		cfg := s.Config.Get()
		s.collectNeeded(cfg.Drone.InputStock)
		for _, res := range kinds {
			if s.needed[res] {
				pick = res
				break
			}
		}
	}
	d.Cargo.Add(pick, inv.Remove(pick, room))
}

// deposit unloads into the target. A storage takes what fits; a machine
// takes everything.
func (s *System) deposit(storage *ecs.Storage, d *component.Drone) {
	inv := ecs.ReadComponent[component.Inventory](storage, d.Target)
	if inv == nil {
		return
	}

	if store := ecs.ReadComponent[component.Storage](storage, d.Target); store != nil {
		for _, res := range d.Cargo.Kinds() {
			room := store.Room(inv)
			if room <= 0 {
				break
			}
			inv.Add(res, d.Cargo.Remove(res, room))
		}
		return
	}

	for _, res := range d.Cargo.Kinds() {
		inv.Add(res, d.Cargo.Remove(res, d.Cargo.Count(res)))
	}
}
