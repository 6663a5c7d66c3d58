package ecs

import (
	"reflect"
	"sort"

	"github.com/kamstrup/intmap"
)

// Storage is the main ECS storage. Entities live in archetype tables and
// are addressed through a slot table that carries a generation per slot,
// so a deleted entity's id never resolves again even after its slot is
// reused.
type Storage struct {
	registry   *ComponentRegistry
	archetypes *intmap.Map[uint32, *Archetype]
	order      []*Archetype
	signatures map[string]uint32

	records   []entityRecord
	freeSlots []uint32
	live      int

	singletons map[reflect.Type]any
}

// NewStorage creates a new ECS storage system with the given component registry
func NewStorage(registry *ComponentRegistry) *Storage {
	return &Storage{
		registry:   registry,
		archetypes: intmap.New[uint32, *Archetype](32),
		signatures: make(map[string]uint32),
		singletons: make(map[reflect.Type]any),
	}
}

// Registry returns the component registry backing this storage
func (s *Storage) Registry() *ComponentRegistry {
	return s.registry
}

func (s *Storage) lookup(id EntityId) *entityRecord {
	slot := id.Slot()
	if id == NoEntity || int(slot) >= len(s.records) {
		return nil
	}
	rec := &s.records[slot]
	if !rec.alive || rec.generation != id.Generation() {
		return nil
	}
	return rec
}

func (s *Storage) allocate() EntityId {
	if n := len(s.freeSlots); n > 0 {
		slot := s.freeSlots[n-1]
		s.freeSlots = s.freeSlots[:n-1]
		rec := &s.records[slot]
		rec.alive = true
		return NewEntityId(slot, rec.generation)
	}
	slot := uint32(len(s.records))
	s.records = append(s.records, entityRecord{generation: 1, alive: true})
	return NewEntityId(slot, 1)
}

func (s *Storage) release(rec *entityRecord, slot uint32) {
	rec.alive = false
	rec.archetype = nil
	rec.row = -1
	rec.generation++
	if rec.generation == 0 {
		rec.generation = 1
	}
	s.freeSlots = append(s.freeSlots, slot)
	s.live--
}

func (s *Storage) archetypeFor(types []reflect.Type) *Archetype {
	key := signature(types)
	if id, ok := s.signatures[key]; ok {
		archetype, _ := s.archetypes.Get(id)
		return archetype
	}

	id := uint32(len(s.order) + 1)
	archetype := NewArchetype(id, types, s.registry)
	s.archetypes.Put(id, archetype)
	s.order = append(s.order, archetype)
	s.signatures[key] = id
	return archetype
}

// GetArchetype returns an archetype storage (if one exists)
func (s *Storage) GetArchetype(components ...any) *Archetype {
	return s.GetArchetypeByTypes(extractComponentTypes(components))
}

// GetArchetypeByTypes returns an archetype storage (if one exists) based on reflect.Type
func (s *Storage) GetArchetypeByTypes(types []reflect.Type) *Archetype {
	sorted := append([]reflect.Type(nil), types...)
	sort.Sort(byTypeName(sorted))
	id, ok := s.signatures[signature(sorted)]
	if !ok {
		return nil
	}
	archetype, _ := s.archetypes.Get(id)
	return archetype
}

// Spawn creates a new entity with the provided components
func (s *Storage) Spawn(components ...any) EntityId {
	if len(components) == 0 {
		panic("cannot spawn entity without components")
	}

	archetype := s.archetypeFor(extractComponentTypes(components))
	id := s.allocate()
	row := archetype.spawn(id, components)

	rec := &s.records[id.Slot()]
	rec.archetype = archetype
	rec.row = row
	s.live++
	return id
}

// Delete removes all data related to the entity ID. Returns false when the
// id is stale or was never issued.
func (s *Storage) Delete(id EntityId) bool {
	rec := s.lookup(id)
	if rec == nil {
		return false
	}
	rec.archetype.delete(rec.row)
	s.release(rec, id.Slot())
	return true
}

// Exists reports whether id names a live entity
func (s *Storage) Exists(id EntityId) bool {
	return s.lookup(id) != nil
}

// Len returns the number of live entities
func (s *Storage) Len() int {
	return s.live
}

// Clear deletes every entity. Singletons are kept. All ids issued before the
// call become stale, and entities spawned afterwards iterate in spawn order.
func (s *Storage) Clear() {
	for _, archetype := range s.order {
		archetype.reset()
	}
	for slot := range s.records {
		rec := &s.records[slot]
		if rec.alive {
			s.release(rec, uint32(slot))
		}
	}
}

// move re-homes an entity into the archetype matching types, copying the
// existing components and applying extra on top.
func (s *Storage) move(id EntityId, rec *entityRecord, types []reflect.Type, extra any) {
	old := rec.archetype
	target := s.archetypeFor(types)

	extraType := reflect.Type(nil)
	if extra != nil {
		extraType = componentType(extra)
	}

	components := make([]any, 0, len(types))
	for _, typ := range types {
		if typ == extraType {
			components = append(components, extra)
			continue
		}
		components = append(components, old.GetComponent(rec.row, typ))
	}

	row := target.spawn(id, components)
	old.delete(rec.row)
	rec.archetype = target
	rec.row = row
}

// AddComponent attaches component to the entity, replacing an existing
// component of the same type. The entity id is unchanged.
func (s *Storage) AddComponent(id EntityId, component any) bool {
	rec := s.lookup(id)
	if rec == nil {
		return false
	}

	compType := componentType(component)
	if rec.archetype.HasComponent(compType) {
		return rec.archetype.setComponent(rec.row, component)
	}

	newTypes := make([]reflect.Type, 0, len(rec.archetype.types)+1)
	newTypes = append(newTypes, rec.archetype.types...)
	newTypes = append(newTypes, compType)
	sort.Sort(byTypeName(newTypes))

	s.move(id, rec, newTypes, component)
	return true
}

// RemoveComponent detaches a component type. Removing the last component
// deletes the entity.
func (s *Storage) RemoveComponent(id EntityId, compType reflect.Type) bool {
	rec := s.lookup(id)
	if rec == nil || !rec.archetype.HasComponent(compType) {
		return false
	}

	newTypes := make([]reflect.Type, 0, len(rec.archetype.types)-1)
	for _, typ := range rec.archetype.types {
		if typ != compType {
			newTypes = append(newTypes, typ)
		}
	}

	if len(newTypes) == 0 {
		return s.Delete(id)
	}

	s.move(id, rec, newTypes, nil)
	return true
}

// GetComponent returns a pointer to the component for the given entity ID
// and component type, or nil when the entity is gone or lacks the type
func (s *Storage) GetComponent(id EntityId, compType reflect.Type) any {
	rec := s.lookup(id)
	if rec == nil {
		return nil
	}
	return rec.archetype.GetComponent(rec.row, compType)
}

// HasComponent checks if an entity has a specific component type
func (s *Storage) HasComponent(id EntityId, compType reflect.Type) bool {
	rec := s.lookup(id)
	if rec == nil {
		return false
	}
	return rec.archetype.HasComponent(compType)
}

// Compact squeezes free rows out of every archetype. Entity ids are
// unaffected.
func (s *Storage) Compact() {
	for _, archetype := range s.order {
		for _, newRow := range archetype.compact() {
			entity := archetype.entities[newRow]
			s.records[entity.Slot()].row = newRow
		}
	}
}

func componentType(component any) reflect.Type {
	compType := reflect.TypeOf(component)
	if compType.Kind() == reflect.Ptr {
		compType = compType.Elem()
	}
	return compType
}

// extractComponentTypes extracts and sorts component types from a slice of components
func extractComponentTypes(components []any) []reflect.Type {
	types := make([]reflect.Type, 0, len(components))
	for _, comp := range components {
		compType := componentType(comp)

		// Components can be structs or primitives (int, string, etc.)
		// but not pointers, maps, channels, or functions.
		switch compType.Kind() {
		case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func:
			panic("components cannot be pointers, maps, channels, or functions")
		}

		types = append(types, compType)
	}
	sort.Sort(byTypeName(types))
	return types
}

type ComponentReader interface {
	GetComponent(EntityId, reflect.Type) any
}

// ReadComponent returns the entity's T, or nil when the entity no longer
// exists or has no T.
func ReadComponent[T any](reader ComponentReader, entityId EntityId) *T {
	comp := reader.GetComponent(entityId, reflect.TypeFor[T]())
	if comp == nil {
		return nil
	}
	return comp.(*T)
}

// Has reports whether the entity is live and carries a T.
func Has[T any](storage *Storage, entityId EntityId) bool {
	return storage.HasComponent(entityId, reflect.TypeFor[T]())
}

// StorageStats summarises storage occupancy.
type StorageStats struct {
	ArchetypeCount     int
	TotalEntityCount   int
	FreeSlotCount      int
	SingletonCount     int
	ArchetypeBreakdown []ArchetypeStats
}

// ArchetypeStats describes one archetype table.
type ArchetypeStats struct {
	ID          uint32
	Components  []string
	EntityCount int
}

// CollectStats walks every archetype and reports counts.
func (s *Storage) CollectStats() *StorageStats {
	stats := &StorageStats{
		ArchetypeCount:   s.archetypes.Len(),
		TotalEntityCount: s.live,
		FreeSlotCount:    len(s.freeSlots),
		SingletonCount:   len(s.singletons),
	}
	for _, archetype := range s.order {
		names := make([]string, len(archetype.types))
		for i, t := range archetype.types {
			names[i] = t.String()
		}
		stats.ArchetypeBreakdown = append(stats.ArchetypeBreakdown, ArchetypeStats{
			ID:          archetype.id,
			Components:  names,
			EntityCount: archetype.Len(),
		})
	}
	return stats
}
