package grid

import (
	"fmt"

	"github.com/plus3/driftworks/gamedata"
)

// Validate checks a layout for consistency: known blocks on their own
// layer, no duplicate cells and a floor under every structure.
func Validate(floor, structures []Placed) error {
	floorCells := make(map[Cell]bool, len(floor))
	for _, p := range floor {
		c := Cell{p.X, p.Y}
		if !p.Block.Valid() || p.Block.Layer() != gamedata.LayerFloor {
			return fmt.Errorf("floor (%d,%d): %w: %d", p.X, p.Y, ErrUnknownBlock, int(p.Block))
		}
		if floorCells[c] {
			return fmt.Errorf("floor (%d,%d): %w", p.X, p.Y, ErrOccupied)
		}
		floorCells[c] = true
	}

	structureCells := make(map[Cell]bool, len(structures))
	for _, p := range structures {
		c := Cell{p.X, p.Y}
		if !p.Block.Valid() || p.Block.Layer() != gamedata.LayerStructure {
			return fmt.Errorf("structure (%d,%d): %w: %d", p.X, p.Y, ErrUnknownBlock, int(p.Block))
		}
		if structureCells[c] {
			return fmt.Errorf("structure (%d,%d): %w", p.X, p.Y, ErrOccupied)
		}
		if !floorCells[c] {
			return fmt.Errorf("structure (%d,%d): %w", p.X, p.Y, ErrNeedsFloor)
		}
		structureCells[c] = true
	}
	return nil
}

// Reset deletes every grid entity and empties both layers.
func (w *World) Reset() {
	for key := range w.entities {
		w.destroy(key)
	}
	clear(w.floor)
	clear(w.structures)
}

// Load replaces the layout. No cost is charged and no range check applies.
// Floor tiles are derived exactly as individual builds derive them. The
// layout is validated before anything is touched.
func (w *World) Load(floor, structures []Placed) error {
	if err := Validate(floor, structures); err != nil {
		return err
	}

	w.Reset()
	for _, p := range floor {
		w.floor[Cell{p.X, p.Y}] = p.Block
	}
	for _, p := range structures {
		w.structures[Cell{p.X, p.Y}] = p.Block
	}

	for _, p := range w.Floor() {
		w.refreshFloor(Cell{p.X, p.Y})
	}
	for _, p := range w.Structures() {
		c := Cell{p.X, p.Y}
		w.entities[slot{c, gamedata.LayerStructure}] = w.instantiate(c, p.Block)
	}
	return nil
}

// Forget drops the layout without deleting entities. Used after the entity
// store has been cleared wholesale.
func (w *World) Forget() {
	clear(w.entities)
	clear(w.floor)
	clear(w.structures)
}
