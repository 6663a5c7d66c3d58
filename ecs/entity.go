package ecs

// EntityId is a generation-checked handle. The upper 32 bits hold the
// generation of the slot at the time the entity was spawned, the lower
// 32 bits the slot index in the storage entity table.
type EntityId uint64

// NoEntity never names a live entity. Generations start at 1.
const NoEntity EntityId = 0

// NewEntityId creates an EntityId from a slot index and generation
func NewEntityId(slot uint32, generation uint32) EntityId {
	return EntityId(uint64(generation)<<32 | uint64(slot))
}

// Slot extracts the entity table slot from the entity ID
func (e EntityId) Slot() uint32 {
	return uint32(e & 0xFFFFFFFF)
}

// Generation extracts the slot generation from the entity ID
func (e EntityId) Generation() uint32 {
	return uint32(e >> 32)
}

// entityRecord tracks where a slot's current entity lives.
type entityRecord struct {
	generation uint32
	alive      bool
	archetype  *Archetype
	row        int
}
