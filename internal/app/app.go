package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/tinylink/internal/config"
	"github.com/MrSnakeDoc/tinylink/internal/domain"
	"github.com/MrSnakeDoc/tinylink/internal/httpserver"
	"github.com/MrSnakeDoc/tinylink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tinylink/internal/logger"
	"github.com/MrSnakeDoc/tinylink/internal/scheduler"
	"github.com/MrSnakeDoc/tinylink/internal/seed"
	"github.com/MrSnakeDoc/tinylink/internal/store"
	"github.com/MrSnakeDoc/tinylink/internal/utils"
	"github.com/MrSnakeDoc/tinylink/internal/version"
)

type App struct {
	cfg      *config.Config
	logger   logger.Logger
	store    store.Backend
	server   *httpserver.Server
	reloader *scheduler.SeedReloader
}

// New opens the store and wires the HTTP server. The store connection is
// retried per cfg before giving up.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	loggerClient.Info("opening link store",
		logger.String("driver", cfg.StoreDriver))
	backend, err := store.Open(ctx, cfg, loggerClient)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	resolver := domain.NewResolver(backend)
	allocator := domain.NewAllocator(backend)

	var (
		reloader    *scheduler.SeedReloader
		seedTrigger chan struct{}
	)
	if cfg.SeedFile != "" {
		loggerClient.Info("seed file configured, initializing seed reloader",
			logger.String("file", cfg.SeedFile))
		seedTrigger = make(chan struct{}, 1)
		reloader = scheduler.NewSeedReloader(
			seed.NewSeeder(allocator, backend, loggerClient),
			cfg.SeedFile,
			loggerClient,
			cfg.SeedInterval,
			seedTrigger,
		)
	} else {
		loggerClient.Info("seed file not configured, seeding disabled")
	}

	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		Resolver:     resolver,
		Allocator:    allocator,
		Links:        backend,
		Ready:        backend.Ping,
		SeedTrigger:  seedTrigger,
	}

	return &App{
		cfg:      cfg,
		logger:   loggerClient,
		store:    backend,
		server:   httpserver.New(cfg, loggerClient, d),
		reloader: reloader,
	}, nil
}

// Run serves until SIGINT/SIGTERM or a server failure, then shuts down.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext is Run with the shutdown signal supplied by the caller.
func (a *App) RunContext(ctx context.Context) error {
	defer utils.CloseLogged(a.store, a.logger, "link store")

	a.logger.Infof("🚀 Starting tinylink %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	if a.reloader != nil {
		if err := a.reloader.Start(ctx); err != nil {
			return fmt.Errorf("failed to start seed reloader: %w", err)
		}
		defer a.reloader.Stop()
		a.logger.Info("seed reloader started",
			logger.Duration("interval", a.cfg.SeedInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.logger.Info("✅ tinylink stopped cleanly")
	return nil
}

// Handler exposes the router for in-process tests.
func (a *App) Handler() http.Handler { return a.server.Handler() }
