package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gallery-viewer/internal/config"
	"gallery-viewer/internal/observability"
	"gallery-viewer/internal/platform/picker"
	"gallery-viewer/internal/platform/server"
	"gallery-viewer/internal/services"
	"gallery-viewer/internal/tui"
	"gallery-viewer/internal/web/handlers"
)

const (
	pickerInstrumentation = "gallery-viewer/picker"
	shutdownTimeout       = 30 * time.Second
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds what every command needs
type app struct {
	cfg       *config.Config
	logger    *observability.Logger
	provider  *observability.Provider
	container *services.Container
	logFile   io.Closer
}

// logOutput picks where the logs of a command go
type logOutput func(cfg *config.Config) (io.Writer, io.Closer, error)

func writerLogs(w io.Writer) logOutput {
	return func(*config.Config) (io.Writer, io.Closer, error) {
		return w, nil, nil
	}
}

// fileLogs keeps logs off the terminal viewer: they go to LOG_FILE or nowhere
func fileLogs(cfg *config.Config) (io.Writer, io.Closer, error) {
	if cfg.Logging.File == "" {
		return io.Discard, nil, nil
	}
	f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, f, nil
}

// newApp loads the configuration and wires the container
func newApp(ctx context.Context, logs logOutput) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	out, logFile, err := logs(cfg)
	if err != nil {
		return nil, err
	}
	closeLog := func() {
		if logFile != nil {
			_ = logFile.Close()
		}
	}

	obsCfg := observability.LoadConfig()
	obsCfg.Environment = cfg.Environment
	obsCfg.LogLevel = cfg.Logging.Level
	obsCfg.LogFormat = cfg.Logging.Format

	logger := observability.NewLoggerWithWriter(obsCfg, out)

	provider, err := observability.NewProvider(ctx, obsCfg, logger)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	container, err := services.NewContainer(cfg, logger,
		picker.WithTracer(provider.Tracer(pickerInstrumentation)),
		picker.WithMeter(provider.Meter(pickerInstrumentation)),
	)
	if err != nil {
		_ = provider.Shutdown(ctx)
		closeLog()
		return nil, fmt.Errorf("failed to initialize services container: %w", err)
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		provider:  provider,
		container: container,
		logFile:   logFile,
	}, nil
}

func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.container.Close(); err != nil {
		a.logger.Warn(ctx).Err(err).Msg("Failed to close session store")
	}
	if err := a.provider.Shutdown(ctx); err != nil {
		a.logger.Warn(ctx).Err(err).Msg("Failed to shutdown observability")
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// NewRootCmd creates the root command with the serve, tui and galleries subcommands
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "viewer",
		Short:        "Gallery viewer - browse, mark and delete pictures of a picker service",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCmd(), newTUICmd(), newGalleriesCmd())
	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web viewer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, writerLogs(os.Stdout))
			if err != nil {
				return err
			}
			defer a.Close()

			h, err := handlers.New(a.container,
				handlers.WithTracer(a.provider.Tracer(observability.InstrumentationName)),
				handlers.WithMeter(a.provider.Meter(observability.InstrumentationName)),
			)
			if err != nil {
				return err
			}

			srv := server.New(a.cfg, h.Routes())
			a.logger.Info(ctx).
				Str("addr", srv.Addr).
				Str("picker_url", a.cfg.Picker.BaseURL).
				Str("session_store", a.cfg.Session.Store).
				Msg("Server starting")

			if err := server.Run(ctx, srv, shutdownTimeout); err != nil {
				return err
			}
			a.logger.Info(context.Background()).Msg("Server exited")
			return nil
		},
	}
}

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal viewer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, fileLogs)
			if err != nil {
				return err
			}
			defer a.Close()

			s := a.container.NewSession()
			return tui.Run(ctx, s, a.container.Service(), a.logger.With("component", "tui"))
		},
	}
}

func newGalleriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "galleries",
		Short: "List the galleries of the picker service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, writerLogs(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer a.Close()

			galleries, err := a.container.Service().ListGalleries(ctx)
			if err != nil {
				return err
			}
			settings, err := a.container.Service().GetSettings(ctx)
			if err != nil {
				return err
			}

			for _, g := range galleries {
				marker := " "
				if g.Slug == settings.SelectedGallery {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\t%s\n", marker, g.Slug, g.Title)
			}
			return nil
		},
	}
}
