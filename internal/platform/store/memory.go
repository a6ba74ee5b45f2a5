package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"gallery-viewer/internal/session"
)

type memoryEntry struct {
	snap      *session.Snapshot
	expiresAt time.Time
}

// MemoryStore keeps snapshots in process memory. Entries expire after ttl.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store; ttl <= 0 keeps entries forever
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Load returns a copy of the snapshot stored under id
func (m *MemoryStore) Load(ctx context.Context, id string) (*session.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		delete(m.entries, id)
		return nil, ErrNotFound
	}
	return cloneSnapshot(e.snap), nil
}

// Save stores a copy of snap under id and refreshes its expiry
func (m *MemoryStore) Save(ctx context.Context, id string, snap *session.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{snap: cloneSnapshot(snap)}
	if m.ttl > 0 {
		e.expiresAt = m.now().Add(m.ttl)
	}
	m.entries[id] = e
	return nil
}

// Delete removes the snapshot stored under id
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[id]; !ok {
		return ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

// Health always succeeds
func (m *MemoryStore) Health(ctx context.Context) error {
	return nil
}

// Close drops every entry
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.entries)
	return nil
}

func cloneSnapshot(snap *session.Snapshot) *session.Snapshot {
	if snap == nil {
		return nil
	}
	c := *snap
	c.Images = slices.Clone(snap.Images)
	return &c
}
