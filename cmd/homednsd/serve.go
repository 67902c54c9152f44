package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/haukened/homedns/internal/dns/common/clock"
	"github.com/haukened/homedns/internal/dns/common/log"
	"github.com/haukened/homedns/internal/dns/config"
	"github.com/haukened/homedns/internal/dns/domain"
	"github.com/haukened/homedns/internal/dns/gateways/transport"
	"github.com/haukened/homedns/internal/dns/gateways/wire"
	"github.com/haukened/homedns/internal/dns/repos/records/bolt"
	"github.com/haukened/homedns/internal/dns/repos/records/seed"
	"github.com/haukened/homedns/internal/dns/repos/records/sqlite"
	"github.com/haukened/homedns/internal/dns/services/resolver"
)

const defaultShutdownTimeout = 10 * time.Second

// Application holds all the components of the DNS server
type Application struct {
	config    *config.AppConfig
	store     resolver.RecordStore
	resolver  *resolver.Resolver
	transport *transport.UDPTransport
}

func newServeCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Answer DNS queries for the configured zones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Info(map[string]any{
				"version":       version,
				"env":           cfg.Env,
				"log_level":     cfg.LogLevel,
				"address":       cfg.Address(),
				"zones":         cfg.Zones,
				"store_backend": cfg.StoreBackend,
				"store_path":    cfg.StorePath,
			}, "Starting homedns server")

			app, err := buildApplication(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to build application: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runErr := app.Run(ctx)
			return multierr.Append(runErr, app.Close())
		},
	}
}

// openStore opens the configured record store backend, creating the parent
// directory of the database file when needed.
func openStore(cfg *config.AppConfig) (resolver.RecordStore, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.StorePath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	switch cfg.StoreBackend {
	case "bolt":
		return bolt.New(cfg.StorePath)
	case "sqlite":
		return sqlite.New(cfg.StorePath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// buildApplication constructs all components and wires them together
func buildApplication(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	logger := log.GetLogger()

	store, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}

	if cfg.SeedFile != "" {
		res, err := seed.ImportFile(ctx, store, cfg.SeedFile, logger.With(map[string]any{"seed_file": cfg.SeedFile}))
		if err != nil && res.Added+res.Conflicts+res.Invalid == 0 {
			return nil, multierr.Append(fmt.Errorf("failed to import seed file: %w", err), store.Close())
		}
		if err != nil {
			log.Warn(map[string]any{"error": err}, "Seed file contained invalid records")
		}
	}

	codec := wire.NewUDPCodec(logger)

	resolverService := resolver.NewResolver(resolver.ResolverOptions{
		Store:    store,
		Zones:    cfg.Zones,
		TTL:      cfg.TTL,
		NXDomain: cfg.NXDomain,
		Logger:   logger.With(map[string]any{"component": "resolver"}),
	})

	udpTransport := transport.NewUDPTransport(cfg.Address(), codec, resolverService, clock.RealClock{}, logger)

	return &Application{
		config:    cfg,
		store:     store,
		resolver:  resolverService,
		transport: udpTransport,
	}, nil
}

// Run starts the DNS server and blocks until ctx is cancelled. A listener
// that died while running is reported with the read error that ended it.
func (app *Application) Run(ctx context.Context) error {
	// The listener lifetime is managed through Stop below, not through ctx.
	if err := app.transport.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("failed to start UDP transport: %w", err)
	}

	log.Info(map[string]any{
		"address":   app.transport.Address(),
		"transport": "UDP",
	}, "DNS server started")

	<-ctx.Done()

	log.Info(nil, "Shutdown initiated")

	stopped := make(chan error, 1)
	go func() { stopped <- app.transport.Stop() }()

	select {
	case err := <-stopped:
		if errors.Is(err, domain.ErrInvalidTransition) {
			// the receive loop already ended on its own
			if last := app.transport.Status().LastError; last != nil {
				return fmt.Errorf("UDP transport failed: %w", last)
			}
			return nil
		}
		if err != nil {
			return err
		}
		log.Info(nil, "Graceful shutdown completed")
		return nil
	case <-time.After(defaultShutdownTimeout):
		log.Warn(map[string]any{"timeout": defaultShutdownTimeout}, "Shutdown timeout exceeded")
		return fmt.Errorf("shutdown timeout")
	}
}

// Close stops the listener if it is still running and releases the store.
func (app *Application) Close() error {
	var err error
	if app.transport.State() == domain.StateRunning {
		err = multierr.Append(err, app.transport.Stop())
	}
	return multierr.Append(err, app.store.Close())
}
