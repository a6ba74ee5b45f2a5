package services

import (
	"context"
	"fmt"

	"gallery-viewer/internal/config"
	"gallery-viewer/internal/domain/gallery"
	"gallery-viewer/internal/observability"
	"gallery-viewer/internal/platform/picker"
	"gallery-viewer/internal/platform/store"
	"gallery-viewer/internal/session"
)

// Container holds all the application dependencies
type Container struct {
	config *config.Config
	logger *observability.Logger

	client   *picker.Client
	store    store.Store
	registry *session.Registry
}

// NewContainer wires the picker client, the snapshot store and the session
// registry. Extra picker options are applied after the defaults.
func NewContainer(cfg *config.Config, logger *observability.Logger, pickerOpts ...picker.Option) (*Container, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}

	opts := append([]picker.Option{picker.WithLogger(logger.With("component", "picker"))}, pickerOpts...)
	client, err := picker.New(cfg.Picker, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create picker client: %w", err)
	}

	snapshots, err := store.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}

	c := &Container{
		config:   cfg,
		logger:   logger,
		client:   client,
		store:    snapshots,
		registry: session.NewRegistry(client, snapshots, cfg.Session.IdleTimeout),
	}

	logger.Debug(context.Background()).
		Str("session_store", cfg.Session.Store).
		Str("picker_url", cfg.Picker.BaseURL).
		Msg("dependency container initialized")

	return c, nil
}

func (c *Container) Config() *config.Config {
	return c.config
}

func (c *Container) Logger() *observability.Logger {
	return c.logger
}

// Service is the picker service as the domain sees it
func (c *Container) Service() gallery.Service {
	return c.client
}

func (c *Container) Picker() *picker.Client {
	return c.client
}

func (c *Container) Store() store.Store {
	return c.store
}

func (c *Container) Registry() *session.Registry {
	return c.registry
}

// NewSession creates a session outside the registry, for the terminal viewer
func (c *Container) NewSession(opts ...session.Option) *session.Session {
	return session.New(c.client, opts...)
}

// Close releases the store
func (c *Container) Close() error {
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}
