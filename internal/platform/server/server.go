package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gallery-viewer/internal/config"
)

// New builds the HTTP server of the web viewer
func New(cfg *config.Config, handler http.Handler) *http.Server {
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if cfg.Server != nil {
		srv.ReadTimeout = cfg.Server.ReadTimeout
		srv.WriteTimeout = cfg.Server.WriteTimeout
		srv.IdleTimeout = cfg.Server.IdleTimeout
	}
	return srv
}

// Run serves until ctx is cancelled, then shuts down within shutdownTimeout
func Run(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err == nil {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
