package credstore

import (
	"context"
	"sync"
)

// Memory is an in-process Store. It is safe for concurrent use and
// copies material on every save and lookup, so callers may Clear what
// they receive without corrupting the store.
type Memory struct {
	mu      sync.RWMutex
	entries map[Key]Material
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[Key]Material)}
}

// Lookup implements Store.
func (m *Memory) Lookup(ctx context.Context, key Key) (Material, error) {
	if err := ctx.Err(); err != nil {
		return Material{}, err
	}
	key = key.normalize()

	m.mu.RLock()
	defer m.mu.RUnlock()

	if mat, ok := m.entries[key]; ok {
		return mat.clone(), nil
	}

	var matches []Key
	for stored := range m.entries {
		if key.matches(stored) {
			matches = append(matches, stored)
		}
	}
	if len(matches) == 0 {
		return Material{}, ErrNotFound
	}
	return m.entries[pickBest(key, matches)].clone(), nil
}

// Save implements Store.
func (m *Memory) Save(ctx context.Context, key Key, material Material) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key.normalize()] = material.clone()
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(ctx context.Context, key Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key = key.normalize()

	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.entries[key]
	if !ok {
		return ErrNotFound
	}
	stored.Clear()
	delete(m.entries, key)
	return nil
}
