package ecs

// Store is an insertion-ordered collection of entities keyed by EntityID.
// Iteration order is the order entities were added, which keeps ticks
// reproducible within one process.
type Store[T any] struct {
	items []T
	ids   []EntityID
	index map[EntityID]int
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		items: make([]T, 0, 64),
		ids:   make([]EntityID, 0, 64),
		index: make(map[EntityID]int, 64),
	}
}

// Add appends v under id. Adding an id that is already present replaces the
// stored value in place.
func (s *Store[T]) Add(id EntityID, v T) {
	if i, ok := s.index[id]; ok {
		s.items[i] = v
		return
	}
	s.index[id] = len(s.items)
	s.items = append(s.items, v)
	s.ids = append(s.ids, id)
}

// Remove deletes id and reports whether it was present. Relative order of the
// remaining entities is preserved.
func (s *Store[T]) Remove(id EntityID) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	copy(s.items[i:], s.items[i+1:])
	copy(s.ids[i:], s.ids[i+1:])
	var zero T
	s.items[len(s.items)-1] = zero
	s.items = s.items[:len(s.items)-1]
	s.ids = s.ids[:len(s.ids)-1]
	delete(s.index, id)
	for j := i; j < len(s.ids); j++ {
		s.index[s.ids[j]] = j
	}
	return true
}

func (s *Store[T]) Get(id EntityID) (T, bool) {
	i, ok := s.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return s.items[i], true
}

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.index[id]
	return ok
}

func (s *Store[T]) Len() int {
	return len(s.items)
}

// Each visits entities in insertion order. fn must not add to or remove from
// the store; structural changes go through a Deferred queue instead.
func (s *Store[T]) Each(fn func(T)) {
	for _, v := range s.items {
		fn(v)
	}
}

// Snapshot returns a copy of the current members.
func (s *Store[T]) Snapshot() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}
