// Package daemon composes the sync daemon out of its parts via fx and
// exposes the operation surface for embedding frontends.
package daemon

import (
	"context"

	"github.com/Welt-Agency/waha-frontend/internal/archive"
	"github.com/Welt-Agency/waha-frontend/internal/bus"
	"github.com/Welt-Agency/waha-frontend/internal/config"
	"github.com/Welt-Agency/waha-frontend/internal/jobs"
	"github.com/Welt-Agency/waha-frontend/internal/lock"
	"github.com/Welt-Agency/waha-frontend/internal/logging"
	"github.com/Welt-Agency/waha-frontend/internal/outbox"
	"github.com/Welt-Agency/waha-frontend/internal/paths"
	"github.com/Welt-Agency/waha-frontend/internal/prefetch"
	"github.com/Welt-Agency/waha-frontend/internal/realtime"
	"github.com/Welt-Agency/waha-frontend/internal/store"
	"github.com/Welt-Agency/waha-frontend/internal/waha"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved startup configuration for the fx module.
type Params struct {
	ConfigPath string
}

// Module returns the fx module for the daemon, composing all providers
// and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideLock,
			provideArchive,
			provideWriter,
			provideClient,
			provideStore,
			provideRegistry,
			provideService,
			provideManager,
			provideSender,
			providePrefetcher,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	cfg, err := config.Load(p.ConfigPath)
	if err != nil {
		return nil, err
	}
	if cfg.StateDir == "" {
		cfg.StateDir = paths.BaseDir()
	}
	return cfg, nil
}

func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	if err := paths.EnsureDir(cfg.StateDir); err != nil {
		return nil, err
	}
	return logging.New(paths.LogPath(cfg.StateDir))
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(cfg *config.Config, logger *zap.Logger) (*lock.Lock, error) {
	l, err := lock.Acquire(cfg.StateDir)
	if err != nil {
		return nil, err
	}
	logger.Info("instance lock acquired", zap.String("dir", cfg.StateDir))
	return l, nil
}

func provideArchive(cfg *config.Config, logger *zap.Logger) (*archive.DB, error) {
	dbPath := paths.ArchiveDBPath(cfg.StateDir)
	db, err := archive.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("archive initialized", zap.String("path", dbPath))
	return db, nil
}

func provideWriter(db *archive.DB, b *bus.Bus, logger *zap.Logger) *archive.Writer {
	return archive.NewWriter(db, b, logger)
}

func provideClient(cfg *config.Config) *waha.Client {
	return waha.NewClient(cfg.APIBaseURL, cfg.APIToken)
}

func provideStore(cfg *config.Config, b *bus.Bus) *store.Store {
	return store.New(b, cfg.SessionTTL.Std())
}

func provideRegistry(client *waha.Client, b *bus.Bus, logger *zap.Logger) *jobs.Registry {
	return jobs.NewRegistry(client, b, logger)
}

func provideService(client *waha.Client, st *store.Store, registry *jobs.Registry, cfg *config.Config, logger *zap.Logger) *Service {
	return NewService(client, st, registry, cfg, logger)
}

func provideManager(cfg *config.Config, st *store.Store, client *waha.Client, b *bus.Bus, logger *zap.Logger) *realtime.Manager {
	return realtime.NewManager(cfg.SessionWSURL, cfg.ChatWSURL, st, client, b, logger)
}

func provideSender(client *waha.Client, st *store.Store, b *bus.Bus, svc *Service, logger *zap.Logger) *outbox.Sender {
	sender := outbox.NewSender(client, st, b, logger)
	sender.SetRefetch(svc.RefreshChat)
	return sender
}

func providePrefetcher(client *waha.Client, st *store.Store, cfg *config.Config, logger *zap.Logger) *prefetch.Prefetcher {
	p := prefetch.New(client, st, logger, cfg.OverviewPageSize, cfg.PrefetchStagger.Std())
	for _, session := range cfg.ExcludedPrefetch {
		p.Exclude(session)
	}
	return p
}

func registerLifecycle(lc fx.Lifecycle, svc *Service, manager *realtime.Manager, writer *archive.Writer, sender *outbox.Sender, warmer *prefetch.Prefetcher, registry *jobs.Registry, lk *lock.Lock, logger *zap.Logger) {
	runCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			writer.Start(runCtx)
			sender.Start(runCtx)

			if err := svc.EnsureSessions(ctx); err != nil {
				// The daemon still comes up; realtime pushes and a
				// later gate pass can fill the cache.
				logger.Warn("initial session fetch failed", zap.Error(err))
			}

			if err := manager.Subscribe(runCtx); err != nil {
				logger.Warn("realtime subscribe failed", zap.Error(err))
			}

			go warmer.Run(runCtx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			manager.Close()
			registry.Close()
			sender.Stop()
			writer.Stop()
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
