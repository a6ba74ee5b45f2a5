package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gallery-viewer/internal/domain/gallery"
)

// ErrSnapshotNotFound is returned by a SnapshotStore when no snapshot exists for an id
var ErrSnapshotNotFound = errors.New("session snapshot not found")

// SnapshotStore persists session snapshots between requests
type SnapshotStore interface {
	Load(ctx context.Context, id string) (*Snapshot, error)
	Save(ctx context.Context, id string, snap *Snapshot) error
	Delete(ctx context.Context, id string) error
}

type entry struct {
	session  *Session
	lastUsed time.Time
}

// Registry maps viewer ids to live sessions. Sessions missing from memory
// are restored from the store, so a restarted viewer picks up where it was.
type Registry struct {
	mu          sync.Mutex
	service     gallery.Service
	store       SnapshotStore
	opts        []Option
	sessions    map[string]*entry
	idleTimeout time.Duration
	lastSweep   time.Time
	now         func() time.Time
}

// NewRegistry creates a registry. Live sessions idle for longer than
// idleTimeout are dropped from memory; their snapshots stay in the store.
func NewRegistry(service gallery.Service, store SnapshotStore, idleTimeout time.Duration, opts ...Option) *Registry {
	return &Registry{
		service:     service,
		store:       store,
		opts:        opts,
		sessions:    make(map[string]*entry),
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// Get returns the session for id. fresh is true when neither memory nor the
// store knew the id, meaning the caller should run Start.
func (r *Registry) Get(ctx context.Context, id string) (s *Session, fresh bool, err error) {
	r.mu.Lock()
	now := r.now()
	r.sweepLocked(now)
	if e, ok := r.sessions[id]; ok {
		e.lastUsed = now
		r.mu.Unlock()
		return e.session, false, nil
	}
	r.mu.Unlock()

	s = New(r.service, r.opts...)
	fresh = true

	snap, err := r.store.Load(ctx, id)
	switch {
	case err == nil:
		s.Restore(snap)
		fresh = false
	case !errors.Is(err, ErrSnapshotNotFound):
		return nil, false, fmt.Errorf("restore session %s: %w", id, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// another request for the same viewer may have won the race
	if e, ok := r.sessions[id]; ok {
		e.lastUsed = now
		return e.session, false, nil
	}
	r.sessions[id] = &entry{session: s, lastUsed: now}

	return s, fresh, nil
}

// Persist saves the session's snapshot under id
func (r *Registry) Persist(ctx context.Context, id string, s *Session) error {
	if err := r.store.Save(ctx, id, s.Snapshot()); err != nil {
		return fmt.Errorf("persist session %s: %w", id, err)
	}
	return nil
}

// Forget drops a session from memory and from the store
func (r *Registry) Forget(ctx context.Context, id string) error {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()

	if err := r.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrSnapshotNotFound) {
		return fmt.Errorf("forget session %s: %w", id, err)
	}
	return nil
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) sweepLocked(now time.Time) {
	if r.idleTimeout <= 0 || now.Sub(r.lastSweep) < r.idleTimeout/2 {
		return
	}
	r.lastSweep = now
	for id, e := range r.sessions {
		if now.Sub(e.lastUsed) > r.idleTimeout {
			delete(r.sessions, id)
		}
	}
}
