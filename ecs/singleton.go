package ecs

import "reflect"

// AddSingleton installs value as the singleton of its type. If a singleton of
// that type already exists it is overwritten in place, so pointers handed out
// earlier stay valid.
func (s *Storage) AddSingleton(value any) {
	t := reflect.TypeOf(value)
	if existing, ok := s.singletons[t]; ok {
		reflect.ValueOf(existing).Elem().Set(reflect.ValueOf(value))
		return
	}
	ptr := reflect.New(t)
	ptr.Elem().Set(reflect.ValueOf(value))
	s.singletons[t] = ptr.Interface()
}

// ReadSingleton points *out at the singleton of type T, where out is **T.
// Returns false when no such singleton exists.
func (s *Storage) ReadSingleton(out any) bool {
	target := reflect.ValueOf(out)
	if target.Kind() != reflect.Ptr || target.Elem().Kind() != reflect.Ptr {
		panic("ReadSingleton expects a pointer to a pointer")
	}
	ptr, ok := s.singletons[target.Elem().Type().Elem()]
	if !ok {
		return false
	}
	target.Elem().Set(reflect.ValueOf(ptr))
	return true
}

func (s *Storage) getSingleton(t reflect.Type) any {
	return s.singletons[t]
}

// Singleton provides efficient access to a single component instance
// that is not associated with any entity. Use this for global game state,
// configuration, or other singleton data.
type Singleton[T any] struct {
	storage *Storage
	ptr     *T
}

// NewSingleton creates a new Singleton accessor for the given storage.
// If initializer is provided and the singleton doesn't exist in storage,
// it will be created with the initializer value. Otherwise, a zero value is used.
// This guarantees the singleton exists in storage after the call.
func NewSingleton[T any](storage *Storage, initializer ...T) *Singleton[T] {
	t := reflect.TypeFor[T]()
	if storage.getSingleton(t) == nil {
		var value T
		if len(initializer) > 0 {
			value = initializer[0]
		}
		storage.AddSingleton(value)
	}

	s := &Singleton[T]{}
	s.Init(storage)
	return s
}

// Init initializes the Singleton with a storage reference.
// This is called automatically by the Scheduler during system registration.
func (s *Singleton[T]) Init(storage *Storage) {
	s.storage = storage
	s.ptr = nil
	s.updateCache()
}

// Get returns a pointer to the singleton component.
// Returns nil if the singleton has not been added to storage.
func (s *Singleton[T]) Get() *T {
	if s.ptr == nil {
		s.updateCache()
	}
	return s.ptr
}

// Exists returns true if the singleton component has been added to storage
func (s *Singleton[T]) Exists() bool {
	return s.Get() != nil
}

func (s *Singleton[T]) updateCache() {
	if s.storage == nil {
		return
	}
	if p, ok := s.storage.getSingleton(reflect.TypeFor[T]()).(*T); ok {
		s.ptr = p
	}
}
