package component_test

import (
	"math/rand/v2"
	"testing"

	"github.com/plus3/driftworks/component"
	"github.com/plus3/driftworks/gamedata"
	"github.com/stretchr/testify/assert"
)

func TestInventoryAddRemove(t *testing.T) {
	var inv component.Inventory
	assert.True(t, inv.Empty())
	assert.Equal(t, 0, inv.Remove(gamedata.Iron, 3))

	inv.Add(gamedata.Iron, 5)
	inv.Add(gamedata.Gold, 2)
	inv.Add(gamedata.Gold, 0)
	inv.Add(gamedata.Silicon, -4)

	assert.Equal(t, 7, inv.Total())
	assert.Equal(t, []gamedata.Resource{gamedata.Gold, gamedata.Iron}, inv.Kinds())

	assert.Equal(t, 2, inv.Remove(gamedata.Gold, 10))
	_, present := inv.Items[gamedata.Gold]
	assert.False(t, present)

	assert.True(t, inv.Has(gamedata.Amounts{gamedata.Iron: 5}))
	assert.False(t, inv.Has(gamedata.Amounts{gamedata.Iron: 6}))

	inv.RemoveAll(gamedata.Amounts{gamedata.Iron: 9, gamedata.Circuit: 1})
	assert.True(t, inv.Empty())
}

func TestInventoryConservation(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	var inv component.Inventory

	added, removed := 0, 0
	for i := 0; i < 2000; i++ {
		n := rng.IntN(10)
		if rng.IntN(2) == 0 {
			inv.Add(gamedata.Iron, n)
			added += n
		} else {
			removed += inv.Remove(gamedata.Iron, n)
		}
		assert.GreaterOrEqual(t, inv.Count(gamedata.Iron), 0)
		for _, count := range inv.Items {
			assert.Positive(t, count)
		}
	}
	assert.Equal(t, added-removed, inv.Count(gamedata.Iron))
}

func TestCapacityHelpers(t *testing.T) {
	inv := component.NewInventory(map[gamedata.Resource]int{gamedata.Iron: 8})

	assert.Equal(t, 2, component.Storage{Capacity: 10}.Room(&inv))
	assert.Equal(t, 0, component.Storage{Capacity: 5}.Room(&inv))

	assert.True(t, component.Collector{}.HasRoom(&inv))
	assert.Equal(t, -1, component.Collector{}.Room(&inv))
	assert.False(t, component.Collector{Capacity: 8}.HasRoom(&inv))
	assert.Equal(t, 1, component.Collector{Capacity: 9}.Room(&inv))
}
