package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gallery-viewer/internal/config"
	"gallery-viewer/internal/domain/gallery"
	"gallery-viewer/internal/testutils"
)

func TestNewContainer_WiresSessionsToPicker(t *testing.T) {
	fake := testutils.NewFakePicker(t).
		AddGallery("cats", "Cats").
		AddImage("cats", gallery.Image{Name: "a.jpg", ModDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}).
		SetSettings(gallery.Settings{SelectedGallery: "cats", ShowMode: gallery.ShowModeAll})

	cfg := &config.Config{
		Picker:  config.PickerConfig{BaseURL: fake.URL()},
		Session: config.SessionConfig{Store: config.StoreMemory, TTL: time.Hour, IdleTimeout: time.Minute},
	}

	c, err := NewContainer(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.Same(t, cfg, c.Config())
	assert.NotNil(t, c.Logger())
	assert.NoError(t, c.Store().Health(context.Background()))

	s, fresh, err := c.Registry().Get(context.Background(), "viewer-1")
	require.NoError(t, err)
	assert.True(t, fresh)

	v, err := s.Start(context.Background())
	require.NoError(t, err)
	require.NotNil(t, v.Image)
	assert.Equal(t, "a.jpg", v.Image.Name)

	standalone := c.NewSession()
	_, err = standalone.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, standalone.Current().Count)
}

func TestNewContainer_UnknownStore(t *testing.T) {
	cfg := &config.Config{
		Picker:  config.PickerConfig{BaseURL: "http://localhost:8000"},
		Session: config.SessionConfig{Store: "etcd", TTL: time.Hour},
	}

	_, err := NewContainer(cfg, nil)
	assert.Error(t, err)
}
