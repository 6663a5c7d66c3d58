package ecs

import (
	"iter"
	"reflect"
	"slices"
	"strings"
)

type byTypeName []reflect.Type

func (a byTypeName) Len() int           { return len(a) }
func (a byTypeName) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a byTypeName) Less(i, j int) bool { return a[i].String() < a[j].String() }

// signature is the lookup key for a sorted type set.
func signature(types []reflect.Type) string {
	var b strings.Builder
	for i, t := range types {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(t.PkgPath())
		b.WriteByte('.')
		b.WriteString(t.String())
	}
	return b.String()
}

// Archetype represents a unique combination of component types. All of its
// columns append and delete in lockstep, so a row index addresses the same
// entity in every column.
type Archetype struct {
	id       uint32
	types    []reflect.Type
	columns  []iComponentStorage
	entities []EntityId
}

// NewArchetype creates a new archetype with the given ID and sorted component types
func NewArchetype(id uint32, types []reflect.Type, registry *ComponentRegistry) *Archetype {
	a := &Archetype{
		id:      id,
		types:   types,
		columns: make([]iComponentStorage, len(types)),
	}

	for idx, typ := range types {
		factory := registry.getFactory(typ)
		if factory == nil {
			panic("component type " + typ.String() + " not registered")
		}
		a.columns[idx] = factory()
	}

	return a
}

func (a *Archetype) column(compType reflect.Type) int {
	for i, typ := range a.types {
		if typ == compType {
			return i
		}
	}
	return -1
}

// spawn appends the components as a new row owned by entity.
func (a *Archetype) spawn(entity EntityId, components []any) int {
	row := -1
	for _, comp := range components {
		idx := a.column(componentType(comp))
		if idx == -1 {
			continue
		}
		row = a.columns[idx].Append(comp)
	}

	for len(a.entities) <= row {
		a.entities = append(a.entities, NoEntity)
	}
	a.entities[row] = entity
	return row
}

// GetComponent returns a pointer to the component of the given type at row
func (a *Archetype) GetComponent(row int, compType reflect.Type) any {
	idx := a.column(compType)
	if idx == -1 {
		return nil
	}
	return a.columns[idx].Get(row)
}

func (a *Archetype) setComponent(row int, component any) bool {
	idx := a.column(componentType(component))
	if idx == -1 {
		return false
	}
	return a.columns[idx].Set(row, component)
}

// delete frees the row in every column.
func (a *Archetype) delete(row int) {
	for _, column := range a.columns {
		column.Delete(row)
	}
	if row >= 0 && row < len(a.entities) {
		a.entities[row] = NoEntity
	}
}

// reset empties every column. Rows handed out afterwards start from 0.
func (a *Archetype) reset() {
	for _, column := range a.columns {
		column.Reset()
	}
	a.entities = nil
}

// HasComponent checks if this archetype has the given component type
func (a *Archetype) HasComponent(compType reflect.Type) bool {
	return slices.Contains(a.types, compType)
}

// ID returns the archetype's identifier. IDs are assigned in creation order.
func (a *Archetype) ID() uint32 {
	return a.id
}

// Types returns the sorted component types for this archetype
func (a *Archetype) Types() []reflect.Type {
	return a.types
}

// Len returns the number of live entities in this archetype
func (a *Archetype) Len() int {
	if len(a.columns) == 0 {
		return 0
	}
	return a.columns[0].Len()
}

// compact squeezes out free rows and returns the old->new row mapping.
func (a *Archetype) compact() map[int]int {
	if len(a.columns) == 0 {
		return nil
	}

	rowMap := a.columns[0].Compact()
	for i := 1; i < len(a.columns); i++ {
		a.columns[i].Compact()
	}

	entities := make([]EntityId, len(rowMap))
	for oldRow, newRow := range rowMap {
		entities[newRow] = a.entities[oldRow]
	}
	a.entities = entities
	return rowMap
}

// Iter yields (row, entity) pairs for all live rows in ascending row order
func (a *Archetype) Iter() iter.Seq2[int, EntityId] {
	return func(yield func(int, EntityId) bool) {
		if len(a.columns) == 0 {
			return
		}
		for row := range a.columns[0].Iter() {
			if !yield(row, a.entities[row]) {
				return
			}
		}
	}
}
