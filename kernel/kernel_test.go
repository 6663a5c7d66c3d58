package kernel_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/plus3/driftworks/component"
	"github.com/plus3/driftworks/config"
	"github.com/plus3/driftworks/ecs"
	"github.com/plus3/driftworks/event"
	"github.com/plus3/driftworks/gamedata"
	"github.com/plus3/driftworks/grid"
	"github.com/plus3/driftworks/input"
	"github.com/plus3/driftworks/kernel"
	"github.com/plus3/driftworks/resource"
	"github.com/plus3/driftworks/savefile"
)

func newKernel(t *testing.T, mutate func(*config.Config)) *kernel.Kernel {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	k, err := kernel.New(kernel.Options{Config: &cfg, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	k.NewWorld()
	return k
}

// quiet disables the body field and the spawner.
func quiet(cfg *config.Config) {
	cfg.Spawner.Enabled = false
	cfg.Spawner.InitialCount = 0
}

func kinds(events []event.Event) []event.Kind {
	out := make([]event.Kind, 0, len(events))
	for _, e := range events {
		out = append(out, e.Kind)
	}
	return out
}

func count(events []event.Event, kind event.Kind) int {
	n := 0
	for _, e := range events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.World.TileSize = 0
	_, err := kernel.New(kernel.Options{Config: &cfg})
	assert.Error(t, err)
}

func TestNewWorld(t *testing.T) {
	k := newKernel(t, nil)

	player, ok := k.Player()
	require.True(t, ok)
	assert.Equal(t, map[gamedata.Resource]int{
		gamedata.Iron:    100,
		gamedata.Gold:    50,
		gamedata.Silicon: 50,
	}, player.Inventory)
	assert.Zero(t, player.X)
	assert.Zero(t, player.Y)

	census := k.Census()
	assert.Equal(t, 1, census[kernel.SpritePlayer])
	assert.Equal(t, 50, census[kernel.SpriteBody])
	assert.Zero(t, k.Tick())

	k.Step(0.1)
	assert.Equal(t, uint64(1), k.Tick())

	k.NewWorld()
	assert.Zero(t, k.Tick())
	assert.Equal(t, 50, k.Census()[kernel.SpriteBody])
}

func TestRunStopsWithContext(t *testing.T) {
	k := newKernel(t, quiet)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seen []uint64
	err := k.Run(ctx, time.Millisecond, func(tick uint64) {
		seen = append(seen, tick)
		if tick == 5 {
			cancel()
		}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, seen)
	assert.Equal(t, uint64(5), k.Tick())
}

func TestMiningConservesAmount(t *testing.T) {
	k := newKernel(t, quiet)
	body := resource.SpawnBody(k.Storage(), component.Position{X: 100}, component.Velocity{}, gamedata.Iron, 20, 20)

	k.Input().SetCursor(100, 0)
	k.Input().Press(input.Mine)
	for i := 0; i < 20; i++ {
		k.Step(0.2)
		assert.True(t, k.Laser().Active)
	}
	assert.False(t, k.Storage().Exists(body))

	k.Input().ReleaseAll()
	k.Step(0.2)
	assert.False(t, k.Laser().Active)

	inFlight := 0
	for c := range ecs.NewView[struct{ *component.Chunk }](k.Storage()).Values() {
		inFlight += c.Amount
	}
	player, ok := k.Player()
	require.True(t, ok)
	assert.Equal(t, 20, inFlight+player.Inventory[gamedata.Iron]-100)

	events := k.Events()
	assert.Equal(t, 20, count(events, event.Mine))
	assert.Empty(t, k.Events())
}

func TestBuildCommands(t *testing.T) {
	k := newKernel(t, quiet)

	require.NoError(t, k.SelectBlock(gamedata.Turret))
	assert.Equal(t, "needs_floor", grid.Reason(k.AttemptBuild(grid.Cell{})))

	require.NoError(t, k.SelectBlock(gamedata.Platform))
	require.NoError(t, k.AttemptBuild(grid.Cell{}))
	assert.Equal(t, "occupied", grid.Reason(k.AttemptBuild(grid.Cell{})))
	assert.Equal(t, "too_far", grid.Reason(k.AttemptBuild(grid.Cell{X: 10})))
	assert.Equal(t, "out_of_bounds", grid.Reason(k.AttemptBuild(grid.Cell{X: 50})))

	require.NoError(t, k.SelectBlock(gamedata.Turret))
	require.NoError(t, k.AttemptBuild(grid.Cell{}))

	player, _ := k.Player()
	assert.Equal(t, 89, player.Inventory[gamedata.Iron])
	assert.Equal(t, 45, player.Inventory[gamedata.Gold])

	require.NoError(t, k.AttemptRemove(grid.Cell{}))
	require.NoError(t, k.AttemptRemove(grid.Cell{}))
	assert.Equal(t, "nothing_to_remove", grid.Reason(k.AttemptRemove(grid.Cell{})))

	player, _ = k.Player()
	assert.Equal(t, 100, player.Inventory[gamedata.Iron])
	assert.Equal(t, 50, player.Inventory[gamedata.Gold])

	assert.Equal(t,
		[]event.Kind{event.Build, event.Build, event.Remove, event.Remove},
		kinds(k.Events()))

	assert.ErrorIs(t, k.SelectBlock(gamedata.Block(99)), grid.ErrUnknownBlock)
}

func TestClickDrivenBuild(t *testing.T) {
	k := newKernel(t, quiet)

	k.Input().SetCursor(24, 24)
	k.Input().Press(input.Primary)
	k.Step(0.05)
	assert.NoError(t, k.LastCommand())

	block, ok := k.Grid().FloorAt(grid.Cell{})
	require.True(t, ok)
	assert.Equal(t, gamedata.Platform, block)

	k.Step(0.05)
	assert.Equal(t, "occupied", grid.Reason(k.Preview()))
	assert.Equal(t, 1, k.Census()[kernel.SpriteFloor])
}

func TestPlacementEventsCarryTick(t *testing.T) {
	k := newKernel(t, quiet)
	k.Step(0.05)
	k.Step(0.05)
	k.Events()

	k.Input().SetCursor(24, 24)
	k.Input().Press(input.Primary)
	k.Step(0.05)
	k.Input().ReleaseAll()
	require.NoError(t, k.AttemptRemove(grid.Cell{}))

	events := k.Events()
	require.Equal(t, []event.Kind{event.Build, event.Remove}, kinds(events))
	assert.Equal(t, uint64(2), events[0].Tick)
	assert.Equal(t, uint64(3), events[1].Tick)
}

func TestRestoreResetsSystemTimers(t *testing.T) {
	k := newKernel(t, func(cfg *config.Config) {
		cfg.Spawner.InitialCount = 0
		cfg.Spawner.Interval = 1
	})
	bodies := ecs.NewQuery[struct{ *component.ResourceBody }](k.Storage())
	snap := k.Snapshot()

	resource.SpawnBody(k.Storage(), component.Position{X: 100}, component.Velocity{}, gamedata.Iron, 20, 20)
	k.Input().SetCursor(100, 0)
	k.Input().Press(input.Mine)
	for range 3 {
		k.Step(0.25)
	}
	require.True(t, k.Laser().Active)
	k.Input().ReleaseAll()

	require.NoError(t, k.Restore(snap, 0))
	assert.False(t, k.Laser().Active)
	assert.Zero(t, bodies.Count())

	k.Step(0.5)
	assert.Zero(t, bodies.Count(), "spawn interval restarts on restore")
	k.Step(0.75)
	assert.Equal(t, 1, bodies.Count())
}

// buildChain lays out collector, station, smelter and storage on a row of
// floor next to the player.
func buildChain(t *testing.T, k *kernel.Kernel) (collector, store ecs.EntityId) {
	t.Helper()
	row := []gamedata.Block{gamedata.Collector, gamedata.DroneStation, gamedata.Smelter, gamedata.Storage}
	for x, b := range row {
		c := grid.Cell{X: x}
		require.NoError(t, k.SelectBlock(gamedata.Platform))
		require.NoError(t, k.AttemptBuild(c))
		require.NoError(t, k.SelectBlock(b))
		require.NoError(t, k.AttemptBuild(c))
	}
	collector, ok := k.Grid().EntityAt(grid.Cell{X: 0}, gamedata.LayerStructure)
	require.True(t, ok)
	store, ok = k.Grid().EntityAt(grid.Cell{X: 3}, gamedata.LayerStructure)
	require.True(t, ok)
	return collector, store
}

func TestFactoryChain(t *testing.T) {
	k := newKernel(t, quiet)
	collector, store := buildChain(t, k)

	census := k.Census()
	assert.Equal(t, 4, census[kernel.SpriteFloor])
	assert.Equal(t, 4, census[kernel.SpriteStructure])
	assert.Equal(t, 1, census[kernel.SpriteDrone])

	ecs.ReadComponent[component.Inventory](k.Storage(), collector).Add(gamedata.Iron, 3)
	before := k.Stock()

	for i := 0; i < 400; i++ {
		k.Step(0.05)
	}

	inv := ecs.ReadComponent[component.Inventory](k.Storage(), store)
	require.NotNil(t, inv)
	assert.Equal(t, 3, inv.Count(gamedata.IronBar))
	assert.True(t, ecs.ReadComponent[component.Inventory](k.Storage(), collector).Empty())

	after := k.Stock()
	assert.Equal(t, before[gamedata.Iron]-3, after[gamedata.Iron])
	assert.Equal(t, 3, after[gamedata.IronBar])
}

func TestSaveAndLoadFile(t *testing.T) {
	k := newKernel(t, nil)
	buildChain(t, k)
	for i := 0; i < 25; i++ {
		k.Step(0.1)
	}
	want := k.Snapshot()

	path := filepath.Join(t.TempDir(), "saves", "world.dws")
	h, err := k.SaveFile(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(25), h.Tick)

	other := newKernel(t, nil)
	loaded, err := other.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, h.SaveID, loaded.SaveID)
	assert.Equal(t, uint64(25), other.Tick())
	assert.Equal(t, want, other.Snapshot())

	_, ok := other.Grid().EntityAt(grid.Cell{X: 1}, gamedata.LayerStructure)
	assert.True(t, ok)
	assert.Equal(t, 1, other.Census()[kernel.SpriteDrone])
}

func TestLoadMissingFileKeepsWorld(t *testing.T) {
	k := newKernel(t, nil)
	want := k.Snapshot()

	_, err := k.LoadFile(filepath.Join(t.TempDir(), "missing.dws"))
	assert.Error(t, err)
	assert.Equal(t, want, k.Snapshot())
}

func TestSaveAndLoadSlot(t *testing.T) {
	ctx := context.Background()
	slots, err := savefile.OpenSlots(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = slots.Close() })

	k := newKernel(t, nil)
	k.Step(0.1)
	want := k.Snapshot()
	_, err = k.SaveSlot(ctx, slots, "auto")
	require.NoError(t, err)

	k.NewWorld()
	_, err = k.LoadSlot(ctx, slots, "auto")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), k.Tick())
	assert.Equal(t, want, k.Snapshot())

	_, err = k.LoadSlot(ctx, slots, "missing")
	assert.ErrorIs(t, err, savefile.ErrNotFound)
}

func TestSameSeedSameWorld(t *testing.T) {
	run := func() *kernel.Kernel {
		k := newKernel(t, func(cfg *config.Config) { cfg.Spawner.Seed = 7 })
		for i := 0; i < 120; i++ {
			k.Step(0.05)
		}
		return k
	}
	a, b := run(), run()
	assert.Equal(t, a.Snapshot(), b.Snapshot())
	assert.Equal(t, a.Census(), b.Census())
}

func TestSprites(t *testing.T) {
	k := newKernel(t, quiet)
	resource.SpawnBody(k.Storage(), component.Position{X: 50, Y: 60}, component.Velocity{}, gamedata.Gold, 5, 20)
	buildChain(t, k)

	sprites := k.Sprites(nil)
	var body, player *kernel.Sprite
	for i := range sprites {
		switch sprites[i].Kind {
		case kernel.SpriteBody:
			body = &sprites[i]
		case kernel.SpritePlayer:
			player = &sprites[i]
		}
	}
	require.NotNil(t, body)
	assert.Equal(t, gamedata.Gold, body.Resource)
	assert.InDelta(t, 0.25, body.Fill, 1e-9)
	require.NotNil(t, player)
	assert.Equal(t, kernel.SpritePlayer, sprites[len(sprites)-1].Kind)
	assert.Equal(t, kernel.SpriteFloor, sprites[0].Kind)
}
