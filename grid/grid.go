// Package grid owns block placement: validity rules, build and remove,
// floor autotiling and the behaviour components each block instantiates.
package grid

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/plus3/driftworks/component"
	"github.com/plus3/driftworks/config"
	"github.com/plus3/driftworks/ecs"
	"github.com/plus3/driftworks/event"
	"github.com/plus3/driftworks/gamedata"
)

// Cell is an integer grid coordinate.
type Cell struct {
	X, Y int
}

// neighbors lists the cardinal offsets with their autotile bits.
var neighbors = [4]struct {
	dx, dy int
	bit    int
}{
	{0, 1, gamedata.MaskNorth},
	{-1, 0, gamedata.MaskWest},
	{1, 0, gamedata.MaskEast},
	{0, -1, gamedata.MaskSouth},
}

type slot struct {
	cell  Cell
	layer gamedata.Layer
}

// Placed is one occupied cell of a layer.
type Placed struct {
	X, Y  int
	Block gamedata.Block
}

// World is the placement layer over an entity store. The floor and
// structure maps are the source of truth; entities are derived from them.
type World struct {
	storage *ecs.Storage
	cfg     *config.Config
	sink    event.Sink
	logger  *zap.Logger

	floor      map[Cell]gamedata.Block
	structures map[Cell]gamedata.Block
	entities   map[slot]ecs.EntityId
	selected   gamedata.Block
	clock      func() uint64

	actors *ecs.View[actor]
}

type actor struct {
	*component.Player
	*component.Position
	*component.Inventory
}

func NewWorld(storage *ecs.Storage, cfg *config.Config, sink event.Sink, logger *zap.Logger) *World {
	if sink == nil {
		sink = event.Nop
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &World{
		storage:    storage,
		cfg:        cfg,
		sink:       sink,
		logger:     logger,
		floor:      make(map[Cell]gamedata.Block),
		structures: make(map[Cell]gamedata.Block),
		entities:   make(map[slot]ecs.EntityId),
		selected:   gamedata.Platform,
		clock:      func() uint64 { return 0 },
		actors:     ecs.NewView[actor](storage),
	}
}

// SetClock sets the source of the tick stamped on build and remove events.
func (w *World) SetClock(clock func() uint64) {
	w.clock = clock
}

// CellAt returns the cell containing world point (x, y).
func (w *World) CellAt(x, y float64) Cell {
	size := w.cfg.World.TileSize
	return Cell{X: int(math.Floor(x / size)), Y: int(math.Floor(y / size))}
}

// Center returns the world-space center of a cell.
func (w *World) Center(c Cell) component.Position {
	size := w.cfg.World.TileSize
	return component.Position{
		X: float64(c.X)*size + size/2,
		Y: float64(c.Y)*size + size/2,
	}
}

// SelectBlock changes the block used by Build.
func (w *World) SelectBlock(b gamedata.Block) error {
	if !b.Valid() {
		return ErrUnknownBlock
	}
	w.selected = b
	return nil
}

func (w *World) Selected() gamedata.Block {
	return w.selected
}

func (w *World) FloorAt(c Cell) (gamedata.Block, bool) {
	b, ok := w.floor[c]
	return b, ok
}

func (w *World) StructureAt(c Cell) (gamedata.Block, bool) {
	b, ok := w.structures[c]
	return b, ok
}

// EntityAt returns the entity instantiated for a cell and layer.
func (w *World) EntityAt(c Cell, layer gamedata.Layer) (ecs.EntityId, bool) {
	id, ok := w.entities[slot{c, layer}]
	return id, ok
}

// Floor lists the floor layer sorted by (y, x).
func (w *World) Floor() []Placed {
	return sortedCells(w.floor)
}

// Structures lists the structure layer sorted by (y, x).
func (w *World) Structures() []Placed {
	return sortedCells(w.structures)
}

func sortedCells(m map[Cell]gamedata.Block) []Placed {
	out := make([]Placed, 0, len(m))
	for c, b := range m {
		out = append(out, Placed{X: c.X, Y: c.Y, Block: b})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

func (w *World) actor() *actor {
	for item := range w.actors.Values() {
		return &item
	}
	return nil
}

// Mask computes the autotile mask of a cell from the floor layer.
func (w *World) Mask(c Cell) int {
	mask := 0
	for _, n := range neighbors {
		if _, ok := w.floor[Cell{c.X + n.dx, c.Y + n.dy}]; ok {
			mask |= n.bit
		}
	}
	return mask
}

// Check runs the placement rules for block at c without side effects.
func (w *World) Check(c Cell, block gamedata.Block) error {
	info, ok := block.Info()
	if !ok {
		return ErrUnknownBlock
	}

	center := w.Center(c)
	limit := w.cfg.World.MapLimit
	if math.Abs(center.X) > limit || math.Abs(center.Y) > limit {
		return ErrOutOfBounds
	}

	a := w.actor()
	if a != nil {
		if math.Hypot(center.X-a.Position.X, center.Y-a.Position.Y) > w.cfg.World.BuildRange {
			return ErrTooFar
		}
	}

	switch info.Layer {
	case gamedata.LayerFloor:
		if _, ok := w.floor[c]; ok {
			return ErrOccupied
		}
	default:
		if _, ok := w.structures[c]; ok {
			return ErrOccupied
		}
		if _, ok := w.floor[c]; !ok {
			return ErrNeedsFloor
		}
	}

	if a != nil && !a.Inventory.Has(info.Cost) {
		return ErrInsufficientResources
	}
	return nil
}

// Build places the selected block at c.
func (w *World) Build(c Cell) error {
	return w.BuildBlock(c, w.selected)
}

// BuildBlock places block at c, charging the acting player.
func (w *World) BuildBlock(c Cell, block gamedata.Block) error {
	if err := w.Check(c, block); err != nil {
		return &PlacementError{Op: "build", Cell: c, Block: block, Err: err}
	}

	if a := w.actor(); a != nil {
		a.Inventory.RemoveAll(block.Cost())
	}
	w.place(c, block)

	center := w.Center(c)
	w.sink.Emit(event.Event{
		Kind:  event.Build,
		Tick:  w.clock(),
		Block: block,
		CellX: c.X, CellY: c.Y,
		X: center.X, Y: center.Y,
	})
	w.logger.Debug("built", zap.Stringer("block", block), zap.Int("x", c.X), zap.Int("y", c.Y))
	return nil
}

func (w *World) place(c Cell, block gamedata.Block) {
	if block.Layer() == gamedata.LayerFloor {
		w.floor[c] = block
		w.refreshNeighborhood(c)
		return
	}
	w.structures[c] = block
	w.entities[slot{c, gamedata.LayerStructure}] = w.instantiate(c, block)
}

// Remove clears the topmost block at c and refunds its cost.
func (w *World) Remove(c Cell) error {
	a := w.actor()
	if a != nil {
		center := w.Center(c)
		if math.Hypot(center.X-a.Position.X, center.Y-a.Position.Y) > w.cfg.World.BuildRange {
			return &PlacementError{Op: "remove", Cell: c, Err: ErrTooFar}
		}
	}

	layer := gamedata.LayerStructure
	block, ok := w.structures[c]
	if !ok {
		layer = gamedata.LayerFloor
		if block, ok = w.floor[c]; !ok {
			return &PlacementError{Op: "remove", Cell: c, Err: ErrNothingToRemove}
		}
	}

	if a != nil {
		a.Inventory.AddAll(block.Cost())
	}
	w.destroy(slot{c, layer})

	if layer == gamedata.LayerStructure {
		delete(w.structures, c)
	} else {
		delete(w.floor, c)
		w.refreshNeighborhood(c)
	}

	center := w.Center(c)
	w.sink.Emit(event.Event{
		Kind:  event.Remove,
		Tick:  w.clock(),
		Block: block,
		CellX: c.X, CellY: c.Y,
		X: center.X, Y: center.Y,
	})
	w.logger.Debug("removed", zap.Stringer("block", block), zap.Int("x", c.X), zap.Int("y", c.Y))
	return nil
}

// destroy deletes the entity of a slot, and the drone of a station.
func (w *World) destroy(s slot) {
	id, ok := w.entities[s]
	if !ok {
		return
	}
	delete(w.entities, s)

	if station := ecs.ReadComponent[component.DroneStation](w.storage, id); station != nil {
		w.storage.Delete(station.Drone)
	}
	w.storage.Delete(id)
}

func (w *World) refreshNeighborhood(c Cell) {
	w.refreshFloor(c)
	for _, n := range neighbors {
		w.refreshFloor(Cell{c.X + n.dx, c.Y + n.dy})
	}
}

// refreshFloor recomputes a floor cell's tile, creating its entity if it
// has none.
func (w *World) refreshFloor(c Cell) {
	if _, ok := w.floor[c]; !ok {
		return
	}
	mask := w.Mask(c)
	tile := component.FloorTile{Mask: mask, Variant: gamedata.TileVariant(mask)}

	key := slot{c, gamedata.LayerFloor}
	if id, ok := w.entities[key]; ok {
		if existing := ecs.ReadComponent[component.FloorTile](w.storage, id); existing != nil {
			*existing = tile
			return
		}
	}
	w.entities[key] = w.storage.Spawn(
		w.Center(c),
		component.GridPosition{X: c.X, Y: c.Y},
		component.Block{Type: gamedata.Platform, Layer: gamedata.LayerFloor},
		tile,
	)
}

// TileAt returns the autotile state of a floor cell.
func (w *World) TileAt(c Cell) (component.FloorTile, bool) {
	id, ok := w.entities[slot{c, gamedata.LayerFloor}]
	if !ok {
		return component.FloorTile{}, false
	}
	tile := ecs.ReadComponent[component.FloorTile](w.storage, id)
	if tile == nil {
		return component.FloorTile{}, false
	}
	return *tile, true
}
