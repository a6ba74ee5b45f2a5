package tui

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gallery-viewer/internal/domain/gallery"
	"gallery-viewer/internal/session"
)

// stubService is an in-memory gallery.Service
type stubService struct {
	mu        sync.Mutex
	settings  gallery.Settings
	galleries []gallery.Gallery
	images    map[string][]gallery.Image
	listErr   error
	deleted   []string
}

var _ gallery.Service = (*stubService)(nil)

func newStub() *stubService {
	return &stubService{
		settings: gallery.Settings{SelectedGallery: "cats", ShowMode: gallery.ShowModeUnmarked},
		galleries: []gallery.Gallery{
			{Slug: "cats", Title: "Cats"},
			{Slug: "dogs", Title: "Dogs"},
		},
		images: map[string][]gallery.Image{
			"cats": {
				{Name: "a.jpg", ModDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
				{Name: "c.jpg", ModDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
				{Name: "b.jpg", ModDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
			},
			"dogs": {
				{Name: "rex.jpg", ModDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Marked: true},
			},
		},
	}
}

func (s *stubService) ListGalleries(ctx context.Context) ([]gallery.Gallery, error) {
	return slices.Clone(s.galleries), nil
}

func (s *stubService) GetSettings(ctx context.Context) (gallery.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings, nil
}

func (s *stubService) SaveSettings(ctx context.Context, settings gallery.Settings) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	return true, nil
}

func (s *stubService) ListImages(ctx context.Context, slug string, mode gallery.ShowMode) ([]gallery.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []gallery.Image
	for _, img := range s.images[slug] {
		if (mode == gallery.ShowModeUnmarked && img.Marked) || (mode == gallery.ShowModeMarked && !img.Marked) {
			continue
		}
		out = append(out, img)
	}
	if len(out) == 0 {
		return nil, gallery.ErrEmptyResult
	}
	return out, nil
}

func (s *stubService) setMark(slug, name string, mark bool) (gallery.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	images := s.images[slug]
	idx := slices.IndexFunc(images, func(img gallery.Image) bool { return img.Name == name })
	if idx < 0 {
		return gallery.Image{}, &gallery.ServiceError{Op: "mark_image", StatusCode: 404}
	}
	images[idx].Marked = mark
	return images[idx], nil
}

func (s *stubService) MarkImage(ctx context.Context, slug, name string) (gallery.Image, error) {
	return s.setMark(slug, name, true)
}

func (s *stubService) UnmarkImage(ctx context.Context, slug, name string) (gallery.Image, error) {
	return s.setMark(slug, name, false)
}

func (s *stubService) DeleteImage(ctx context.Context, slug, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	images := s.images[slug]
	idx := slices.IndexFunc(images, func(img gallery.Image) bool { return img.Name == name })
	if idx < 0 {
		return false, nil
	}
	s.images[slug] = slices.Delete(images, idx, idx+1)
	s.deleted = append(s.deleted, name)
	return true, nil
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "space", " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// collect runs cmd and flattens batches. Spinner ticks are dropped so that
// tests never wait on the animation.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if _, ok := msg.(spinner.TickMsg); ok {
		return nil
	}
	return []tea.Msg{msg}
}

// send delivers msg and every message its commands produce
func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	queue := []tea.Msg{msg}
	for len(queue) > 0 {
		next, cmd := m.Update(queue[0])
		m = next.(Model)
		queue = append(queue[1:], collect(cmd)...)
	}
	return m
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		m = send(t, m, keyMsg(k))
	}
	return m
}

func started(t *testing.T, svc *stubService) Model {
	t.Helper()
	s := session.New(svc, session.WithRand(rand.New(rand.NewPCG(1, 2))))
	m := New(context.Background(), s, svc, nil)
	for _, msg := range collect(m.Init()) {
		m = send(t, m, msg)
	}
	return m
}

func TestStartup_DrawsMostRecent(t *testing.T) {
	m := started(t, newStub())

	require.NotNil(t, m.view.Image)
	assert.Equal(t, "c.jpg", m.view.Image.Name)
	assert.Zero(t, m.pending)
	assert.NoError(t, m.err)

	out := m.View()
	assert.Contains(t, out, "c.jpg")
	assert.Contains(t, out, "1 / 3")
	assert.Contains(t, out, "cats")
}

func TestNavigationKeys(t *testing.T) {
	m := started(t, newStub())

	m = press(t, m, "right")
	assert.Equal(t, "b.jpg", m.view.Image.Name)

	m = press(t, m, "l", "l")
	assert.Equal(t, "a.jpg", m.view.Image.Name)
	assert.Equal(t, 2, m.view.Index)

	m = press(t, m, "left")
	assert.Equal(t, "b.jpg", m.view.Image.Name)

	m = press(t, m, "h", "h")
	assert.Equal(t, 0, m.view.Index)

	m = press(t, m, "r")
	require.NotNil(t, m.view.Image)
	assert.Equal(t, 3, m.view.Count)
}

func TestMark_UnderUnmarked(t *testing.T) {
	svc := newStub()
	m := started(t, svc)

	m = press(t, m, "m")
	assert.Equal(t, 2, m.view.Count)
	require.NotNil(t, m.view.Image)
	assert.NotEqual(t, "c.jpg", m.view.Image.Name)
	assert.Zero(t, m.pending)
}

func TestDelete_ConfirmModal(t *testing.T) {
	svc := newStub()
	m := started(t, svc)

	m = press(t, m, "d")
	require.IsType(t, &confirmModal{}, m.modal)
	assert.Contains(t, m.View(), "Delete image?")

	m = press(t, m, "esc")
	assert.Nil(t, m.modal)
	assert.Empty(t, svc.deleted)
	assert.Equal(t, 3, m.view.Count)

	m = press(t, m, "d", "y")
	assert.Nil(t, m.modal)
	assert.Equal(t, []string{"c.jpg"}, svc.deleted)
	assert.Equal(t, 2, m.view.Count)
	assert.Equal(t, "b.jpg", m.view.Image.Name)

	m = press(t, m, "d", "enter")
	assert.Equal(t, []string{"c.jpg", "b.jpg"}, svc.deleted)
	assert.Equal(t, "a.jpg", m.view.Image.Name)
}

func TestModalTakesKeys(t *testing.T) {
	m := started(t, newStub())

	m = press(t, m, "d", "q", "right")
	require.NotNil(t, m.modal)
	assert.Equal(t, "c.jpg", m.view.Image.Name)

	_, cmd := m.Update(keyMsg("ctrl+c"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestSettingsPanel_SavesAndReloads(t *testing.T) {
	svc := newStub()
	m := started(t, svc)

	m = press(t, m, "s")
	panel, ok := m.modal.(*settingsPanel)
	require.True(t, ok)
	assert.False(t, panel.loading)
	assert.Len(t, panel.galleries, 2)
	assert.Equal(t, 0, panel.cursor)
	assert.Contains(t, m.View(), "> Cats")

	// dogs, mode unmarked -> marked, shuffle on
	m = press(t, m, "down", "tab", " ")
	assert.Equal(t, gallery.Settings{
		SelectedGallery:       "dogs",
		ShowMode:              gallery.ShowModeMarked,
		ShufflePicsWhenLoaded: true,
	}, panel.settings())

	m = press(t, m, "enter")
	assert.Nil(t, m.modal)
	assert.Equal(t, "dogs", svc.settings.SelectedGallery)
	require.NotNil(t, m.view.Image)
	assert.Equal(t, "rex.jpg", m.view.Image.Name)
	assert.Equal(t, gallery.ShowModeMarked, m.view.Settings.ShowMode)
}

func TestSettingsPanel_EscCloses(t *testing.T) {
	svc := newStub()
	m := started(t, svc)

	m = press(t, m, "s", "down", "esc")
	assert.Nil(t, m.modal)
	assert.Equal(t, "cats", svc.settings.SelectedGallery)
}

func TestErrors_ReplaceImage(t *testing.T) {
	t.Run("configuration required", func(t *testing.T) {
		svc := newStub()
		svc.settings.ShowMode = ""
		m := started(t, svc)

		assert.ErrorIs(t, m.err, gallery.ErrConfigurationRequired)
		assert.Contains(t, m.View(), "press s")
	})

	t.Run("empty result", func(t *testing.T) {
		svc := newStub()
		svc.settings = gallery.Settings{SelectedGallery: "dogs", ShowMode: gallery.ShowModeUnmarked}
		m := started(t, svc)

		assert.ErrorIs(t, m.err, gallery.ErrEmptyResult)
		assert.Contains(t, m.View(), gallery.ErrEmptyResult.Error())
	})

	t.Run("network error", func(t *testing.T) {
		svc := newStub()
		svc.listErr = &gallery.NetworkError{Op: "list_images", Err: errors.New("connection refused")}
		m := started(t, svc)

		var netErr *gallery.NetworkError
		assert.ErrorAs(t, m.err, &netErr)
		assert.Contains(t, m.View(), "connection refused")
		assert.NotContains(t, m.View(), "1 / 3")
	})

	t.Run("delete without image", func(t *testing.T) {
		svc := newStub()
		svc.settings.ShowMode = ""
		m := started(t, svc)

		m = press(t, m, "d")
		assert.Nil(t, m.modal)
		assert.ErrorIs(t, m.err, session.ErrNoImageSelected)
	})

	t.Run("navigation clears the error", func(t *testing.T) {
		m := started(t, newStub())
		m.err = errors.New("boom")

		m = press(t, m, "right")
		assert.NoError(t, m.err)
	})
}

func TestStaleResponseKeepsState(t *testing.T) {
	m := started(t, newStub())
	before := m.view

	next, _ := m.Update(viewMsg{op: "mark", view: before, err: session.ErrStaleResponse})
	m = next.(Model)

	assert.NoError(t, m.err)
	assert.Equal(t, before, m.view)
}

func TestQuit(t *testing.T) {
	m := started(t, newStub())

	_, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
