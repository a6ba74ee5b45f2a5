// Package store persists viewer session snapshots, in memory or in
// Redis/Valkey so that sessions survive a restart of the viewer.
package store

import (
	"context"
	"fmt"

	"gallery-viewer/internal/config"
	"gallery-viewer/internal/session"
)

// ErrNotFound is returned by Load and Delete for unknown ids
var ErrNotFound = session.ErrSnapshotNotFound

// Store is a session.SnapshotStore with lifecycle hooks
type Store interface {
	session.SnapshotStore
	Health(ctx context.Context) error
	Close() error
}

// New builds the store selected by cfg.Session.Store
func New(cfg *config.Config) (Store, error) {
	switch cfg.Session.Store {
	case config.StoreMemory, "":
		return NewMemoryStore(cfg.Session.TTL), nil
	case config.StoreRedis:
		return NewRedisStore(cfg.Redis, cfg.Session.TTL)
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}
