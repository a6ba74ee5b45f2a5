// Package session holds the state of one viewer: the selected settings,
// the ordered image list and the cursor into it.
//
// A Session may be driven by overlapping requests of the same viewer. The
// mutex is held only while state is read or written, never across a call to
// the picker service. Operations that replace the image list bump a
// generation counter first, and a response that arrives for an older
// generation is dropped with ErrStaleResponse.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"gallery-viewer/internal/domain/gallery"
)

var (
	// ErrNoImageSelected is returned by mark and delete when no image is drawn
	ErrNoImageSelected = errors.New("no image selected")

	// ErrStaleResponse is returned when the image list changed while a request was in flight
	ErrStaleResponse = errors.New("response discarded: the image list changed in the meantime")
)

// View is what the controller renders after every operation
type View struct {
	Image    *gallery.Image   `json:"image,omitempty"`
	Index    int              `json:"index"`
	Count    int              `json:"count"`
	Settings gallery.Settings `json:"settings"`
}

// Empty reports whether no image is drawn
func (v View) Empty() bool {
	return v.Image == nil
}

// Position is the 1-based position of the drawn image, 0 when empty
func (v View) Position() int {
	if v.Image == nil {
		return 0
	}
	return v.Index + 1
}

// Session is the state of one viewer
type Session struct {
	mu      sync.Mutex
	service gallery.Service
	intn    func(n int) int

	settings   gallery.Settings
	images     []gallery.Image
	cursor     int
	generation uint64
}

// Option configures a Session
type Option func(*Session)

// WithRand makes random selection use r instead of the global source
func WithRand(r *rand.Rand) Option {
	return func(s *Session) {
		s.intn = r.IntN
	}
}

// New creates an empty session backed by service
func New(service gallery.Service, opts ...Option) *Session {
	s := &Session{
		service: service,
		intn:    rand.IntN,
		cursor:  -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the startup chain: load settings, load images, draw the first image
func (s *Session) Start(ctx context.Context) (View, error) {
	settings, err := s.LoadSettings(ctx)
	if err != nil {
		return s.Current(), err
	}

	if _, err := s.LoadImages(ctx); err != nil {
		return s.Current(), err
	}

	return s.drawFirst(settings), nil
}

// LoadSettings fetches the settings from the service. Incomplete settings are
// kept locally but reported as gallery.ErrConfigurationRequired.
func (s *Session) LoadSettings(ctx context.Context) (gallery.Settings, error) {
	gen := s.nextGeneration()

	settings, err := s.service.GetSettings(ctx)
	if err != nil {
		return gallery.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return s.settings, ErrStaleResponse
	}
	s.settings = settings

	if !settings.Complete() {
		return settings, gallery.ErrConfigurationRequired
	}
	return settings, nil
}

// LoadImages fetches the images for the current settings, sorts them most
// recent first and resets the cursor.
func (s *Session) LoadImages(ctx context.Context) (View, error) {
	s.mu.Lock()
	settings := s.settings
	if !settings.Complete() {
		v := s.viewLocked()
		s.mu.Unlock()
		return v, gallery.ErrConfigurationRequired
	}
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	images, err := s.service.ListImages(ctx, settings.SelectedGallery, settings.ShowMode)
	if err == nil && len(images) == 0 {
		err = gallery.ErrEmptyResult
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return s.viewLocked(), ErrStaleResponse
	}

	if err != nil {
		if errors.Is(err, gallery.ErrEmptyResult) {
			s.images = nil
			s.cursor = -1
		}
		return s.viewLocked(), fmt.Errorf("load images: %w", err)
	}

	gallery.SortByModDateDesc(images)
	s.images = images
	s.cursor = -1

	return s.viewLocked(), nil
}

// SaveSettings persists new settings. On success the local settings are
// replaced, the images reloaded and the first image drawn. saved is false when
// the service did not accept the settings, in which case the state is untouched.
func (s *Session) SaveSettings(ctx context.Context, settings gallery.Settings) (saved bool, view View, err error) {
	if err := settings.Validate(); err != nil {
		return false, s.Current(), err
	}

	ok, err := s.service.SaveSettings(ctx, settings)
	if err == nil && !ok {
		err = gallery.ErrNotSaved
	}
	if err != nil {
		return false, s.Current(), fmt.Errorf("save settings: %w", err)
	}

	s.mu.Lock()
	s.settings = settings
	s.images = nil
	s.cursor = -1
	s.generation++
	s.mu.Unlock()

	if view, err := s.LoadImages(ctx); err != nil {
		return true, view, err
	}

	return true, s.drawFirst(settings), nil
}

func (s *Session) drawFirst(settings gallery.Settings) View {
	if settings.ShufflePicsWhenLoaded {
		return s.SelectRandom()
	}
	return s.SelectNext()
}

// SelectRandom draws a uniformly random image. On an empty list it is a no-op
// and returns the empty view.
func (s *Session) SelectRandom() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selectRandomLocked()
	return s.viewLocked()
}

// SelectNext moves the cursor forward. It does nothing on the last image.
func (s *Session) SelectNext() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor+1 < len(s.images) {
		s.cursor++
	}
	return s.viewLocked()
}

// SelectPrevious moves the cursor back. It does nothing on the first image
// or when no image is drawn.
func (s *Session) SelectPrevious() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor-1 >= 0 {
		s.cursor--
	}
	return s.viewLocked()
}

// MarkCurrent flags the drawn image as reviewed. The call always reaches the
// service, even when the local copy is already marked. Under the unmarked
// filter the image leaves the list and a random image is drawn; otherwise the
// entry is replaced with the record returned by the service.
func (s *Session) MarkCurrent(ctx context.Context) (View, error) {
	return s.setMark(ctx, true)
}

// UnmarkCurrent clears the reviewed flag. Under the marked filter the image
// leaves the list and a random image is drawn.
func (s *Session) UnmarkCurrent(ctx context.Context) (View, error) {
	return s.setMark(ctx, false)
}

func (s *Session) setMark(ctx context.Context, mark bool) (View, error) {
	s.mu.Lock()
	current, ok := s.currentLocked()
	if !ok {
		v := s.viewLocked()
		s.mu.Unlock()
		return v, ErrNoImageSelected
	}
	gen := s.generation
	settings := s.settings
	s.mu.Unlock()

	var (
		updated gallery.Image
		err     error
	)
	if mark {
		updated, err = s.service.MarkImage(ctx, settings.SelectedGallery, current.Name)
	} else {
		updated, err = s.service.UnmarkImage(ctx, settings.SelectedGallery, current.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		return s.viewLocked(), fmt.Errorf("mark image %q: %w", current.Name, err)
	}
	if gen != s.generation {
		return s.viewLocked(), ErrStaleResponse
	}

	idx := s.indexLocked(current.Name)
	if idx < 0 {
		return s.viewLocked(), ErrStaleResponse
	}

	leavesFilter := (mark && settings.ShowMode == gallery.ShowModeUnmarked) ||
		(!mark && settings.ShowMode == gallery.ShowModeMarked)
	if leavesFilter {
		s.images = slices.Delete(s.images, idx, idx+1)
		s.selectRandomLocked()
		return s.viewLocked(), nil
	}

	if updated.Name == "" {
		updated = current
		updated.Marked = mark
	}
	s.images[idx] = updated

	return s.viewLocked(), nil
}

// DeleteCurrent deletes the drawn image. The cursor keeps its index, which
// now points at the following image, and is clamped to the last image. A list
// reloaded while the call was in flight still loses the deleted image.
func (s *Session) DeleteCurrent(ctx context.Context) (View, error) {
	s.mu.Lock()
	current, ok := s.currentLocked()
	if !ok {
		v := s.viewLocked()
		s.mu.Unlock()
		return v, ErrNoImageSelected
	}
	gen := s.generation
	slug := s.settings.SelectedGallery
	s.mu.Unlock()

	deleted, err := s.service.DeleteImage(ctx, slug, current.Name)
	if err == nil && !deleted {
		err = gallery.ErrNotDeleted
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		return s.viewLocked(), fmt.Errorf("delete image %q: %w", current.Name, err)
	}

	// a deleted image leaves the loaded list of its gallery, even a reloaded one
	idx := -1
	if s.settings.SelectedGallery == slug {
		idx = s.indexLocked(current.Name)
	}
	if idx < 0 {
		if gen != s.generation {
			return s.viewLocked(), ErrStaleResponse
		}
		return s.viewLocked(), nil
	}

	s.images = slices.Delete(s.images, idx, idx+1)
	if idx < s.cursor {
		s.cursor--
	}
	s.clampLocked()

	return s.viewLocked(), nil
}

// Current returns the view without changing anything
func (s *Session) Current() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Settings returns the local copy of the settings
func (s *Session) Settings() gallery.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *Session) nextGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

func (s *Session) selectRandomLocked() {
	if len(s.images) == 0 {
		s.cursor = -1
		return
	}
	s.cursor = s.intn(len(s.images))
}

func (s *Session) clampLocked() {
	switch {
	case len(s.images) == 0:
		s.cursor = -1
	case s.cursor >= len(s.images):
		s.cursor = len(s.images) - 1
	}
}

func (s *Session) currentLocked() (gallery.Image, bool) {
	if s.cursor < 0 || s.cursor >= len(s.images) {
		return gallery.Image{}, false
	}
	return s.images[s.cursor], true
}

func (s *Session) indexLocked(name string) int {
	return slices.IndexFunc(s.images, func(img gallery.Image) bool {
		return img.Name == name
	})
}

func (s *Session) viewLocked() View {
	v := View{
		Index:    -1,
		Count:    len(s.images),
		Settings: s.settings,
	}
	if current, ok := s.currentLocked(); ok {
		v.Image = &current
		v.Index = s.cursor
	}
	return v
}
