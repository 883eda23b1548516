package ecs

import "sync"

// Deferred holds structural changes requested while a tick is iterating the
// live stores. Drain hands them back in request order, removals first.
type Deferred[T any] struct {
	mu       sync.Mutex
	removals []T
	spawns   []T
}

func NewDeferred[T any]() *Deferred[T] {
	return &Deferred[T]{
		removals: make([]T, 0, 64),
		spawns:   make([]T, 0, 64),
	}
}

func (d *Deferred[T]) QueueSpawn(v T) {
	d.mu.Lock()
	d.spawns = append(d.spawns, v)
	d.mu.Unlock()
}

func (d *Deferred[T]) QueueRemoval(v T) {
	d.mu.Lock()
	d.removals = append(d.removals, v)
	d.mu.Unlock()
}

// Pending returns the number of queued removals and spawns.
func (d *Deferred[T]) Pending() (removals, spawns int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.removals), len(d.spawns)
}

// Drain empties both queues and returns their contents.
func (d *Deferred[T]) Drain() (removals, spawns []T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	removals, spawns = d.removals, d.spawns
	d.removals = make([]T, 0, cap(removals))
	d.spawns = make([]T, 0, cap(spawns))
	return removals, spawns
}
