package store

import (
	"context"
	"sync"

	"github.com/labfoundry/workbench-engine/pkg/apperrors"
)

// MemoryStore is a thread-safe in-memory record table. It implements the
// same conditional-write semantics as the PostgreSQL store and preserves
// insertion order for Scan. Used by unit tests and local mode.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]*Record
	order []string
}

// NewMemoryStore creates an empty in-memory record table.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*Record)}
}

var _ RecordStore = (*MemoryStore)(nil)

func (m *MemoryStore) Get(ctx context.Context, id string, fields Projection) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return fields.Apply(rec.Clone()), nil
}

func (m *MemoryStore) ConditionalCreate(ctx context.Context, rec *Record) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[rec.ID]; ok {
		return nil, apperrors.ErrAlreadyExists
	}

	stored := rec.Clone()
	stored.Rev = 0
	m.byID[stored.ID] = stored
	m.order = append(m.order, stored.ID)
	return stored.Clone(), nil
}

func (m *MemoryStore) ConditionalUpdate(ctx context.Context, id string, expectedRev int64, rec *Record) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if existing.Rev != expectedRev {
		return nil, apperrors.ErrRevisionConflict
	}

	stored := rec.Clone()
	stored.ID = id
	stored.Rev = expectedRev + 1
	stored.CreatedBy = existing.CreatedBy
	m.byID[id] = stored
	return stored.Clone(), nil
}

func (m *MemoryStore) ConditionalDelete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.byID, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryStore) Scan(ctx context.Context, limit int, fields Projection) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Record, 0, len(m.order))
	for _, id := range m.order {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, fields.Apply(m.byID[id].Clone()))
	}
	return out, nil
}
