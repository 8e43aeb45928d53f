package runstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is used when no REDIS_URL is configured. Records expire after
// TTL like their Redis counterparts.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]Record
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]Record), now: time.Now}
}

func (m *MemoryStore) Save(_ context.Context, rec *Record) error {
	if rec == nil || strings.TrimSpace(rec.RunID) == "" {
		return errors.New("run record without id")
	}
	cp := *rec
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = m.now().UTC()
	}
	m.mu.Lock()
	m.runs[cp.RunID] = cp
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Load(_ context.Context, runID string) (*Record, error) {
	m.mu.RLock()
	rec, ok := m.runs[runID]
	m.mu.RUnlock()
	if !ok || m.expired(rec) {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (m *MemoryStore) List(_ context.Context, limit int) ([]*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]*Record, 0, len(m.runs))
	for id, rec := range m.runs {
		if m.expired(rec) {
			delete(m.runs, id)
			continue
		}
		rec := rec
		items = append(items, &rec)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].UpdatedAt.Equal(items[j].UpdatedAt) {
			return items[i].UpdatedAt.After(items[j].UpdatedAt)
		}
		return items[i].RunID > items[j].RunID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *MemoryStore) expired(rec Record) bool {
	return m.now().Sub(rec.UpdatedAt) > TTL
}
