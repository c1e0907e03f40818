package memory

import (
	"fmt"

	"github.com/mesh-intelligence/stager/pkg/types"
)

type row[T any] struct {
	parent string
	entity T
}

// table stores copies of entities so callers never alias stored state.
type table[T any] struct {
	backend *Backend
	name    string
	clone   func(T) T
	rows    map[string]row[T]
	order   []string
}

var _ types.Store[*types.Version] = (*table[*types.Version])(nil)

func newTable[T any](b *Backend, name string, clone func(T) T) *table[T] {
	return &table[T]{backend: b, name: name, clone: clone, rows: make(map[string]row[T])}
}

func (t *table[T]) reset() {
	t.rows = make(map[string]row[T])
	t.order = nil
}

// Get returns a copy of the entity stored under id.
func (t *table[T]) Get(id string) (T, error) {
	var zero T
	if id == "" {
		return zero, types.ErrInvalidID
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	if !t.backend.attached {
		return zero, types.ErrBackendDetached
	}

	r, ok := t.rows[id]
	if !ok {
		return zero, fmt.Errorf("%s %s: %w", t.name, id, types.ErrNotFound)
	}
	return t.clone(r.entity), nil
}

// Put stores a copy of entity under key.
func (t *table[T]) Put(key types.Key, entity T) error {
	if key.ID == "" {
		return types.ErrInvalidID
	}
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return types.ErrBackendDetached
	}

	if _, exists := t.rows[key.ID]; !exists {
		t.order = append(t.order, key.ID)
	}
	t.rows[key.ID] = row[T]{parent: key.Parent, entity: t.clone(entity)}
	return nil
}

// Delete removes the entity stored under id.
func (t *table[T]) Delete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return types.ErrBackendDetached
	}

	if _, ok := t.rows[id]; !ok {
		return fmt.Errorf("%s %s: %w", t.name, id, types.ErrNotFound)
	}
	delete(t.rows, id)
	for i, oid := range t.order {
		if oid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

// ListByParent returns copies of every entity under parent in insertion order.
func (t *table[T]) ListByParent(parent string) ([]T, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	if !t.backend.attached {
		return nil, types.ErrBackendDetached
	}

	out := []T{}
	for _, id := range t.order {
		r := t.rows[id]
		if r.parent == parent {
			out = append(out, t.clone(r.entity))
		}
	}
	return out, nil
}
