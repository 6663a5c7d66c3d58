package ecs

import "iter"

// Query wraps a View and caches the list of matching archetypes between
// calls. Iteration always reads live component data, so entities spawned
// or deleted earlier in the same tick are seen as they are now.
type Query[T any] struct {
	view               *View[T]
	storage            *Storage
	cachedArchetypes   []*Archetype
	lastArchetypeCount int
}

// NewQuery creates a new Query with archetype-level caching.
func NewQuery[T any](storage *Storage) *Query[T] {
	q := &Query[T]{}
	q.Init(storage)
	return q
}

// Init initializes or re-initializes the Query with a storage.
// Called by the Scheduler during system registration.
func (q *Query[T]) Init(storage *Storage) {
	q.view = NewView[T](storage)
	q.storage = storage
	q.cachedArchetypes = nil
	q.lastArchetypeCount = -1
}

func (q *Query[T]) archetypes() []*Archetype {
	if q.storage == nil {
		panic("Query used before Init")
	}
	if n := len(q.storage.order); n != q.lastArchetypeCount {
		q.cachedArchetypes = q.cachedArchetypes[:0]
		for _, archetype := range q.storage.order {
			if q.view.matchesArchetype(archetype) {
				q.cachedArchetypes = append(q.cachedArchetypes, archetype)
			}
		}
		q.lastArchetypeCount = n
	}
	return q.cachedArchetypes
}

// Iter returns an iterator over entity IDs and component data.
func (q *Query[T]) Iter() iter.Seq2[EntityId, T] {
	archetypes := q.archetypes()
	return func(yield func(EntityId, T) bool) {
		for _, archetype := range archetypes {
			if !q.view.iterArchetype(archetype, yield) {
				return
			}
		}
	}
}

// Values returns an iterator over component data only.
func (q *Query[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range q.Iter() {
			if !yield(item) {
				return
			}
		}
	}
}

// First returns the first matching item in iteration order.
func (q *Query[T]) First() (T, bool) {
	for _, item := range q.Iter() {
		return item, true
	}
	var zero T
	return zero, false
}

// Get returns the view struct for a single entity, or nil.
func (q *Query[T]) Get(id EntityId) *T {
	if q.view == nil {
		panic("Query used before Init")
	}
	return q.view.Get(id)
}

// Count returns the number of matching entities.
func (q *Query[T]) Count() int {
	n := 0
	for range q.Iter() {
		n++
	}
	return n
}
