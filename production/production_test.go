package production_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/plus3/driftworks/component"
	"github.com/plus3/driftworks/config"
	"github.com/plus3/driftworks/ecs"
	"github.com/plus3/driftworks/gamedata"
	"github.com/plus3/driftworks/production"
)

func newMachine(t *testing.T, kind gamedata.Block, items map[gamedata.Resource]int) (*ecs.Storage, *ecs.Scheduler, ecs.EntityId) {
	t.Helper()
	storage := ecs.NewStorage(component.NewRegistry())
	storage.AddSingleton(config.Default())
	scheduler := ecs.NewScheduler(storage)
	scheduler.Register(production.NewSystem(zaptest.NewLogger(t)))
	id := storage.Spawn(component.Machine{Kind: kind}, component.NewInventory(items))
	return storage, scheduler, id
}

func TestSmelterScenario(t *testing.T) {
	storage, scheduler, id := newMachine(t, gamedata.Smelter, map[gamedata.Resource]int{gamedata.Iron: 1})
	machine := ecs.ReadComponent[component.Machine](storage, id)
	inv := ecs.ReadComponent[component.Inventory](storage, id)

	scheduler.Once(0.5)
	require.True(t, machine.Working)
	assert.Equal(t, "iron_bar", machine.Recipe)
	assert.Equal(t, 2.0, machine.Required)
	assert.Equal(t, 0, inv.Count(gamedata.Iron))
	assert.True(t, inv.Empty(), "inputs are reserved on start")

	for i := 0; i < 3; i++ {
		scheduler.Once(0.5)
	}
	assert.True(t, machine.Working)
	assert.Equal(t, 0, inv.Count(gamedata.IronBar))

	scheduler.Once(0.5)
	assert.False(t, machine.Working)
	assert.Equal(t, "", machine.Recipe)
	assert.Equal(t, 1, inv.Count(gamedata.IronBar))

	// Nothing left to process: the machine stays idle.
	scheduler.Once(5)
	assert.False(t, machine.Working)
	assert.Equal(t, map[gamedata.Resource]int{gamedata.IronBar: 1}, inv.Snapshot())
}

func TestStartAdvancesOption(t *testing.T) {
	storage, scheduler, id := newMachine(t, gamedata.Smelter, map[gamedata.Resource]int{gamedata.Iron: 1})
	var cfg *config.Config
	require.True(t, storage.ReadSingleton(&cfg))
	cfg.Production.StartAdvances = true

	scheduler.Once(1)
	scheduler.Once(1)
	assert.Equal(t, 1, ecs.ReadComponent[component.Inventory](storage, id).Count(gamedata.IronBar))
}

func TestRecipeOrderAndMachineKind(t *testing.T) {
	tests := []struct {
		name   string
		kind   gamedata.Block
		items  map[gamedata.Resource]int
		recipe string
		ok     bool
	}{
		{"first satisfiable wins", gamedata.Smelter, map[gamedata.Resource]int{gamedata.Gold: 1, gamedata.Iron: 1}, "iron_bar", true},
		{"skips unsatisfied", gamedata.Smelter, map[gamedata.Resource]int{gamedata.Silicon: 2}, "silicon_wafer", true},
		{"needs every input", gamedata.Assembler, map[gamedata.Resource]int{gamedata.IronBar: 3}, "", false},
		{"assembler", gamedata.Assembler, map[gamedata.Resource]int{gamedata.IronBar: 1, gamedata.SiliconWafer: 1}, "circuit", true},
		{"wrong machine", gamedata.Assembler, map[gamedata.Resource]int{gamedata.Iron: 5}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := component.NewInventory(tt.items)
			recipe, ok := production.Match(tt.kind, &inv)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.recipe, recipe.ID)
		})
	}
}

func TestIdleWithoutInputs(t *testing.T) {
	storage, scheduler, id := newMachine(t, gamedata.Assembler, map[gamedata.Resource]int{gamedata.IronBar: 1})
	for i := 0; i < 10; i++ {
		scheduler.Once(1)
	}
	machine := ecs.ReadComponent[component.Machine](storage, id)
	assert.False(t, machine.Working)
	assert.Equal(t, 1, ecs.ReadComponent[component.Inventory](storage, id).Count(gamedata.IronBar))
}

func TestChainedProduction(t *testing.T) {
	storage, scheduler, id := newMachine(t, gamedata.Smelter, map[gamedata.Resource]int{gamedata.Iron: 2, gamedata.Silicon: 1})
	// 2 iron bars (2s each) then a wafer (3s), one tick lost to each start.
	for i := 0; i < 20; i++ {
		scheduler.Once(0.5)
	}
	inv := ecs.ReadComponent[component.Inventory](storage, id)
	assert.Equal(t, 2, inv.Count(gamedata.IronBar))
	assert.Equal(t, 1, inv.Count(gamedata.SiliconWafer))
}
