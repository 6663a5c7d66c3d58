package ecs_test

import (
	"reflect"
	"testing"

	"github.com/plus3/driftworks/ecs"
	"github.com/stretchr/testify/assert"
)

func TestCommandsFlush(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	frame := ecs.NewUpdateFrame(0, storage)

	keep := storage.Spawn(Position{X: 1})
	drop := storage.Spawn(Position{X: 2})
	strip := storage.Spawn(Position{X: 3}, Velocity{DX: 1})

	deferred := false
	frame.Commands.Delete(drop)
	frame.Commands.AddComponent(drop, Health{Current: 1})
	frame.Commands.AddComponent(keep, Health{Current: 2})
	frame.Commands.RemoveComponent(strip, reflect.TypeFor[Velocity]())
	frame.Commands.Spawn(Position{X: 4})
	frame.Commands.Defer(func() { deferred = true })
	assert.Equal(t, 6, frame.Commands.Len())

	// Nothing is applied before the flush.
	assert.True(t, storage.Exists(drop))
	assert.Equal(t, 3, storage.Len())

	frame.Commands.Flush(storage)

	assert.Equal(t, 0, frame.Commands.Len())
	assert.False(t, storage.Exists(drop))
	assert.Equal(t, 2, ecs.ReadComponent[Health](storage, keep).Current)
	assert.False(t, ecs.Has[Velocity](storage, strip))
	assert.Equal(t, 3, storage.Len())
	assert.True(t, deferred)
}
