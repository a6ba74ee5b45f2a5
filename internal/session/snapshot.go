package session

import (
	"slices"
	"time"

	"gallery-viewer/internal/domain/gallery"
)

// Snapshot is the serialisable state of a session
type Snapshot struct {
	Settings   gallery.Settings `json:"settings"`
	Images     []gallery.Image  `json:"images"`
	Cursor     int              `json:"cursor"`
	Generation uint64           `json:"generation"`
	SavedAt    time.Time        `json:"saved_at"`
}

// Snapshot copies the current state
func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &Snapshot{
		Settings:   s.settings,
		Images:     slices.Clone(s.images),
		Cursor:     s.cursor,
		Generation: s.generation,
		SavedAt:    time.Now().UTC(),
	}
}

// Restore replaces the state with a snapshot. An out of range cursor is
// clamped so the session invariant holds.
func (s *Session) Restore(snap *Snapshot) {
	if snap == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = snap.Settings
	s.images = slices.Clone(snap.Images)
	s.cursor = snap.Cursor
	if s.cursor < -1 {
		s.cursor = -1
	}
	s.clampLocked()
	if snap.Generation > s.generation {
		s.generation = snap.Generation
	}
}
