package ecs_test

import (
	"testing"

	"github.com/plus3/driftworks/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewIterMatchesAcrossArchetypes(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	a := storage.Spawn(Position{X: 1}, Velocity{DX: 1})
	b := storage.Spawn(Position{X: 2}, Velocity{DX: 1}, Health{Current: 5})
	storage.Spawn(Position{X: 3})

	view := ecs.NewView[struct {
		ecs.EntityId
		*Position
		*Velocity
	}](storage)

	var ids []ecs.EntityId
	for id, item := range view.Iter() {
		assert.Equal(t, id, item.EntityId)
		item.Position.X += item.Velocity.DX
		ids = append(ids, id)
	}
	assert.Equal(t, []ecs.EntityId{a, b}, ids)
	assert.Equal(t, 2.0, ecs.ReadComponent[Position](storage, a).X)
	assert.Equal(t, 3.0, ecs.ReadComponent[Position](storage, b).X)
}

func TestViewOptionalFields(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	plain := storage.Spawn(Position{X: 1})
	hurt := storage.Spawn(Position{X: 2}, Health{Current: 3})

	view := ecs.NewView[struct {
		*Position
		Health *Health `ecs:"optional"`
	}](storage)

	item := view.Get(plain)
	require.NotNil(t, item)
	assert.Nil(t, item.Health)

	item = view.Get(hurt)
	require.NotNil(t, item)
	require.NotNil(t, item.Health)
	assert.Equal(t, 3, item.Health.Current)

	count := 0
	for range view.Values() {
		count++
	}
	assert.Equal(t, 2, count)
}

func TestViewGetMissing(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn(Position{})
	view := ecs.NewView[struct {
		*Position
		*Velocity
	}](storage)

	assert.Nil(t, view.Get(id))
	storage.Delete(id)

	posView := ecs.NewView[struct{ *Position }](storage)
	assert.Nil(t, posView.Get(id))
}

func TestViewSkipsEntitiesDeletedDuringIteration(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	first := storage.Spawn(Position{X: 1})
	second := storage.Spawn(Position{X: 2})
	storage.Spawn(Position{X: 3})

	view := ecs.NewView[struct{ *Position }](storage)

	var seen []float64
	for id, item := range view.Iter() {
		if id == first {
			storage.Delete(second)
		}
		seen = append(seen, item.Position.X)
	}
	assert.Equal(t, []float64{1, 3}, seen)
}

func TestViewRejectsBadShapes(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	assert.Panics(t, func() { ecs.NewView[int](storage) })
	assert.Panics(t, func() { ecs.NewView[struct{ Position Position }](storage) })
	assert.Panics(t, func() {
		ecs.NewView[struct {
			P *Position `ecs:"sometimes"`
		}](storage)
	})
}
