package ecs

import (
	"iter"
	"reflect"
)

// ComponentRegistry manages component type registration for an ECS instance.
// Each Storage instance has its own ComponentRegistry, allowing multiple
// independent ECS systems to coexist without interference.
type ComponentRegistry struct {
	factories map[reflect.Type]func() iComponentStorage
}

// NewComponentRegistry creates a new component registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		factories: make(map[reflect.Type]func() iComponentStorage),
	}
}

// RegisterComponent registers a new component type with the given registry.
// This must be called for each component type before it can be used.
func RegisterComponent[T any](r *ComponentRegistry) {
	t := reflect.TypeFor[T]()
	r.factories[t] = func() iComponentStorage {
		return &genericComponentStorage[T]{}
	}
}

// Registered reports whether the component type has been registered.
func (r *ComponentRegistry) Registered(t reflect.Type) bool {
	_, ok := r.factories[t]
	return ok
}

func (r *ComponentRegistry) getFactory(t reflect.Type) func() iComponentStorage {
	return r.factories[t]
}

const (
	genericBlockSize = 64
)

// genericComponentStorage stores components of type T in fixed-size blocks.
// Blocks are held by pointer so that growing the block list never moves
// components that views already point at.
type genericComponentStorage[T any] struct {
	blocks    []*[genericBlockSize]T
	filled    []*[genericBlockSize]bool
	freeSlots []int
	nextIndex int
}

func (cs *genericComponentStorage[T]) locate(index int) (*[genericBlockSize]T, *[genericBlockSize]bool, int, bool) {
	if index < 0 {
		return nil, nil, 0, false
	}
	blockIdx := index / genericBlockSize
	if blockIdx >= len(cs.blocks) {
		return nil, nil, 0, false
	}
	return cs.blocks[blockIdx], cs.filled[blockIdx], index % genericBlockSize, true
}

func asValue[T any](item any) (T, bool) {
	if ptr, ok := item.(*T); ok {
		return *ptr, true
	}
	val, ok := item.(T)
	return val, ok
}

// Append adds a component to storage and returns its index, or -1 when the
// item is not a T or *T.
func (cs *genericComponentStorage[T]) Append(item any) int {
	value, ok := asValue[T](item)
	if !ok {
		return -1
	}

	var index int
	if n := len(cs.freeSlots); n > 0 {
		index = cs.freeSlots[n-1]
		cs.freeSlots = cs.freeSlots[:n-1]
	} else {
		index = cs.nextIndex
		cs.nextIndex++
		if index/genericBlockSize >= len(cs.blocks) {
			cs.blocks = append(cs.blocks, new([genericBlockSize]T))
			cs.filled = append(cs.filled, new([genericBlockSize]bool))
		}
	}

	block, filled, slot, _ := cs.locate(index)
	block[slot] = value
	filled[slot] = true
	return index
}

// Set overwrites the component at index. Returns false for empty slots.
func (cs *genericComponentStorage[T]) Set(index int, item any) bool {
	value, ok := asValue[T](item)
	if !ok {
		return false
	}
	block, filled, slot, ok := cs.locate(index)
	if !ok || !filled[slot] {
		return false
	}
	block[slot] = value
	return true
}

// Get returns a pointer to the component at the given index.
func (cs *genericComponentStorage[T]) Get(index int) any {
	block, filled, slot, ok := cs.locate(index)
	if !ok || !filled[slot] {
		return nil
	}
	return &block[slot]
}

// Delete marks a component slot as empty.
func (cs *genericComponentStorage[T]) Delete(index int) {
	block, filled, slot, ok := cs.locate(index)
	if !ok || !filled[slot] {
		return
	}
	var zero T
	block[slot] = zero
	filled[slot] = false
	cs.freeSlots = append(cs.freeSlots, index)
}

// Has checks if a component exists at the given index.
func (cs *genericComponentStorage[T]) Has(index int) bool {
	_, filled, slot, ok := cs.locate(index)
	return ok && filled[slot]
}

// Len returns the number of occupied slots.
func (cs *genericComponentStorage[T]) Len() int {
	return cs.nextIndex - len(cs.freeSlots)
}

// Compact moves all occupied slots to the front and returns the old->new
// index mapping.
func (cs *genericComponentStorage[T]) Compact() map[int]int {
	indexMap := make(map[int]int)
	total := cs.Len()
	if total == 0 {
		cs.Reset()
		return indexMap
	}

	numBlocks := (total + genericBlockSize - 1) / genericBlockSize
	newBlocks := make([]*[genericBlockSize]T, numBlocks)
	newFilled := make([]*[genericBlockSize]bool, numBlocks)
	for i := range newBlocks {
		newBlocks[i] = new([genericBlockSize]T)
		newFilled[i] = new([genericBlockSize]bool)
	}

	writePos := 0
	for readIdx := 0; readIdx < cs.nextIndex; readIdx++ {
		block, filled, slot, _ := cs.locate(readIdx)
		if !filled[slot] {
			continue
		}
		indexMap[readIdx] = writePos
		newBlocks[writePos/genericBlockSize][writePos%genericBlockSize] = block[slot]
		newFilled[writePos/genericBlockSize][writePos%genericBlockSize] = true
		writePos++
	}

	cs.blocks = newBlocks
	cs.filled = newFilled
	cs.freeSlots = nil
	cs.nextIndex = writePos
	return indexMap
}

// Reset drops every slot so the next Append starts again at index 0.
func (cs *genericComponentStorage[T]) Reset() {
	cs.blocks = nil
	cs.filled = nil
	cs.freeSlots = nil
	cs.nextIndex = 0
}

// Iter yields occupied indices in ascending order. Slots freed during
// iteration are skipped.
func (cs *genericComponentStorage[T]) Iter() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := 0; i < cs.nextIndex; i++ {
			if !cs.Has(i) {
				continue
			}
			if !yield(i) {
				return
			}
		}
	}
}
