package store

import (
	"context"
	"sync"
)

// MemoryRepository keeps records in an append-only slice guarded by a
// RWMutex. Insertion order is iteration order, which makes the "first
// matching record" policy of polls stable and explicit. It is safe for
// concurrent use.
type MemoryRepository[R Correlated] struct {
	mu    sync.RWMutex
	items []R
}

// NewMemoryRepository constructs an empty in-memory repository.
func NewMemoryRepository[R Correlated]() *MemoryRepository[R] {
	return &MemoryRepository[R]{}
}

func (m *MemoryRepository[R]) InsertOne(_ context.Context, record R) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = append(m.items, record)
	return nil
}

func (m *MemoryRepository[R]) InsertMany(_ context.Context, records []R) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = append(m.items, records...)
	return nil
}

func (m *MemoryRepository[R]) FindAll(_ context.Context, query Query) ([]R, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []R
	for _, item := range m.items {
		if query.matches(item.CorrelationID()) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *MemoryRepository[R]) FindOne(_ context.Context, query Query) (R, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, item := range m.items {
		if query.matches(item.CorrelationID()) {
			return item, true, nil
		}
	}

	var zero R
	return zero, false, nil
}

func (m *MemoryRepository[R]) All(_ context.Context) ([]R, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]R, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *MemoryRepository[R]) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = nil
	return nil
}

func (m *MemoryRepository[R]) Size(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.items)), nil
}
