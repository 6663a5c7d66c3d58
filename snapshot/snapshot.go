// Package snapshot is the persistence form of a world: the player, the
// grid layout and the drifting resource bodies. Derived entities such as
// structure behaviour, drones and floor tiles are rebuilt on load through
// the normal placement path.
package snapshot

import (
	"bytes"
	_ "embed"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/plus3/driftworks/component"
	"github.com/plus3/driftworks/config"
	"github.com/plus3/driftworks/ecs"
	"github.com/plus3/driftworks/gamedata"
	"github.com/plus3/driftworks/grid"
	"github.com/plus3/driftworks/physics"
	"github.com/plus3/driftworks/resource"
)

//go:embed schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("snapshot.schema.json", schemaJSON)

// ErrInvalid marks snapshot data that failed decoding or validation.
var ErrInvalid = errors.New("invalid snapshot")

type Snapshot struct {
	Player    *Player `json:"player,omitempty"`
	Map       Map     `json:"map"`
	Asteroids []Body  `json:"asteroids"`
}

type Player struct {
	X         float64                   `json:"x"`
	Y         float64                   `json:"y"`
	Inventory map[gamedata.Resource]int `json:"inventory"`
}

type Map struct {
	Floor   []Cell `json:"floor"`
	Objects []Cell `json:"objects"`
}

type Cell struct {
	X    int            `json:"x"`
	Y    int            `json:"y"`
	Type gamedata.Block `json:"type"`
}

type Body struct {
	X         float64           `json:"x"`
	Y         float64           `json:"y"`
	DX        float64           `json:"dx"`
	DY        float64           `json:"dy"`
	Kind      gamedata.Resource `json:"resource_type"`
	Amount    int               `json:"amount"`
	MaxAmount int               `json:"max_amount"`
}

type playerView = struct {
	*component.Player
	*component.Position
	*component.Inventory
}

type bodyView = struct {
	*component.Position
	*component.Velocity
	*component.ResourceBody
}

// Capture records the current world.
func Capture(storage *ecs.Storage, world *grid.World) Snapshot {
	snap := Snapshot{
		Map: Map{
			Floor:   cells(world.Floor()),
			Objects: cells(world.Structures()),
		},
		Asteroids: []Body{},
	}

	for p := range ecs.NewView[playerView](storage).Values() {
		snap.Player = &Player{X: p.Position.X, Y: p.Position.Y, Inventory: p.Inventory.Snapshot()}
		break
	}

	for b := range ecs.NewView[bodyView](storage).Values() {
		snap.Asteroids = append(snap.Asteroids, Body{
			X:         b.Position.X,
			Y:         b.Position.Y,
			DX:        b.Velocity.DX,
			DY:        b.Velocity.DY,
			Kind:      b.ResourceBody.Kind,
			Amount:    b.ResourceBody.Amount,
			MaxAmount: b.ResourceBody.MaxAmount,
		})
	}
	return snap
}

func cells(placed []grid.Placed) []Cell {
	out := make([]Cell, len(placed))
	for i, p := range placed {
		out[i] = Cell{X: p.X, Y: p.Y, Type: p.Block}
	}
	return out
}

func placed(cells []Cell) []grid.Placed {
	out := make([]grid.Placed, len(cells))
	for i, c := range cells {
		out[i] = grid.Placed{X: c.X, Y: c.Y, Block: c.Type}
	}
	return out
}

// Encode renders the snapshot as JSON. Nil lists and maps are written
// empty so the output always passes Decode.
func Encode(snap Snapshot) ([]byte, error) {
	if snap.Asteroids == nil {
		snap.Asteroids = []Body{}
	}
	if snap.Map.Floor == nil {
		snap.Map.Floor = []Cell{}
	}
	if snap.Map.Objects == nil {
		snap.Map.Objects = []Cell{}
	}
	if snap.Player != nil && snap.Player.Inventory == nil {
		player := *snap.Player
		player.Inventory = map[gamedata.Resource]int{}
		snap.Player = &player
	}
	return json.Marshal(snap)
}

// Decode parses and validates raw snapshot JSON. Every failure wraps
// ErrInvalid.
func Decode(raw []byte) (Snapshot, error) {
	var snap Snapshot

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return snap, errors.Wrap(ErrInvalid, err.Error())
	}
	if err := schema.Validate(doc); err != nil {
		return snap, errors.Wrap(ErrInvalid, err.Error())
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		return snap, errors.Wrap(ErrInvalid, err.Error())
	}
	if err := snap.Validate(); err != nil {
		return snap, err
	}
	return snap, nil
}

// Validate checks the parts of a snapshot the schema cannot express: the
// grid layout rules, resource kinds and body amounts.
func (s Snapshot) Validate() error {
	if err := grid.Validate(placed(s.Map.Floor), placed(s.Map.Objects)); err != nil {
		return errors.Wrap(ErrInvalid, err.Error())
	}
	if s.Player != nil {
		for res, n := range s.Player.Inventory {
			if !res.Known() || n < 0 {
				return errors.Wrapf(ErrInvalid, "player inventory %q: %d", res, n)
			}
		}
	}
	for i, b := range s.Asteroids {
		if !b.Kind.Known() || b.Amount <= 0 || b.Amount > b.MaxAmount {
			return errors.Wrapf(ErrInvalid, "asteroid %d: %s %d/%d", i, b.Kind, b.Amount, b.MaxAmount)
		}
	}
	return nil
}

// Apply replaces the live world with the snapshot. The snapshot is
// validated first; nothing is touched when it is rejected.
func (s Snapshot) Apply(storage *ecs.Storage, world *grid.World, cfg *config.Config) error {
	if err := s.Validate(); err != nil {
		return err
	}

	storage.Clear()
	world.Forget()

	if s.Player != nil {
		physics.SpawnPlayer(storage, cfg, s.Player.X, s.Player.Y, s.Player.Inventory)
	}
	if err := world.Load(placed(s.Map.Floor), placed(s.Map.Objects)); err != nil {
		return errors.Wrap(err, "rebuild grid")
	}
	for _, b := range s.Asteroids {
		resource.SpawnBody(storage,
			component.Position{X: b.X, Y: b.Y},
			component.Velocity{DX: b.DX, DY: b.DY},
			b.Kind, b.Amount, b.MaxAmount,
		)
	}
	return nil
}
