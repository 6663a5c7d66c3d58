package ecs_test

import (
	"fmt"

	"github.com/plus3/driftworks/ecs"
)

// ExampleStorage_Exists shows that a deleted entity's id stays dead even
// after its slot is reused. Components holding ids of other entities check
// Exists before following them.
func ExampleStorage_Exists() {
	storage := ecs.NewStorage(newTestRegistry())

	first := storage.Spawn(Position{X: 1})
	storage.Delete(first)
	second := storage.Spawn(Position{X: 2})

	fmt.Println("same slot:", first.Slot() == second.Slot())
	fmt.Println("first exists:", storage.Exists(first))
	fmt.Println("second exists:", storage.Exists(second))
	fmt.Println("first reads:", ecs.ReadComponent[Position](storage, first))

	// Output:
	// same slot: true
	// first exists: false
	// second exists: true
	// first reads: <nil>
}
