// Package main - точка входа REST-сервера Pantheon UnderLiv.
//
// Сервер хранит коллекции вещей всех пользователей в выбранном хранилище
// (memory, sqlite, postgres, redis), обслуживает CRUD вещей от имени
// пользователя из заголовка X-User-ID и строит общий лидерборд.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pantheon-hub/underliv/config"
	"github.com/pantheon-hub/underliv/internal/application/query"
	"github.com/pantheon-hub/underliv/internal/application/registry"
	"github.com/pantheon-hub/underliv/internal/infrastructure/persistence"
	"github.com/pantheon-hub/underliv/internal/infrastructure/scheduler"
	"github.com/pantheon-hub/underliv/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/pantheon-hub/underliv/internal/interface/http"
	"github.com/pantheon-hub/underliv/internal/interface/http/handlers"
	"github.com/pantheon-hub/underliv/pkg/logger"
	"github.com/pantheon-hub/underliv/pkg/timeutil"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ И ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	defer func() { _ = log.Sync() }()

	log.Info("starting UnderLiv server",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.Backend(string(cfg.Store.Backend)),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ХРАНИЛИЩЕ
	// ─────────────────────────────────────────────────────────────────────────
	store, err := persistence.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		log.Info("closing store...")
		if err := store.Close(); err != nil {
			log.Warn("failed to close store", logger.Err(err))
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	clock := timeutil.SystemClock
	notifier := registry.NotifierFunc(func(n registry.Notice) {
		log.Info("notice",
			logger.String("kind", string(n.Kind)),
			logger.OwnerID(n.Owner.String()),
			logger.GarmentID(n.GarmentID),
			logger.String("message", n.Message),
		)
	})

	garments := registry.NewDirectory(store,
		registry.WithClock(clock),
		registry.WithLogger(log),
		registry.WithNotifier(notifier),
	)
	leaderboard := query.NewGetLeaderboardHandler(store, cfg.Leaderboard.DefaultLimit, clock, log)

	checker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	checker.AddCheck("store", handlers.PingCheck(store))

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ФОНОВЫЕ ЗАДАЧИ
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.New(scheduler.Config{Logger: log})
	evict := jobs.NewEvictIdleRegistriesJob(garments, cfg.Cache.IdleTTL, log)
	if err := sched.Register(evict, scheduler.Every(cfg.Cache.SweepInterval)); err != nil {
		return fmt.Errorf("register job: %w", err)
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer func() {
		if err := sched.Stop(); err != nil {
			log.Warn("failed to stop scheduler", logger.Err(err))
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 5. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	srvCfg := httpserver.DefaultConfig()
	srvCfg.Host = cfg.HTTP.Host
	srvCfg.Port = cfg.HTTP.Port
	srvCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	srvCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	srvCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	srvCfg.MaxBodyBytes = cfg.HTTP.MaxBodyBytes
	srvCfg.EnableCORS = cfg.HTTP.EnableCORS
	srvCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	srvCfg.Version = cfg.App.Version

	server := httpserver.NewServer(srvCfg, httpserver.Dependencies{
		Garments:      garments,
		Leaderboard:   leaderboard,
		HealthChecker: checker,
		Clock:         clock,
		Logger:        log,
	})
	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ОЖИДАНИЕ СИГНАЛА И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
		log.Info("received shutdown signal")
	}

	log.Info("starting graceful shutdown...", logger.Duration("timeout", cfg.App.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil {
		return err
	}

	log.Info("server stopped")
	return nil
}

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	if cfg.Observability.LogFormat == string(logger.FormatConsole) {
		opts.Format = logger.FormatConsole
	}
	return logger.New(opts).Named(cfg.App.Name)
}
