package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/diamond/internal/adapters/http/api"
	"github.com/okian/diamond/internal/adapters/repository"
	"github.com/okian/diamond/internal/adapters/repository/sqlite"
	app "github.com/okian/diamond/internal/app"
	"github.com/okian/diamond/internal/config"
	"github.com/okian/diamond/internal/domain/fatigue"
	"github.com/okian/diamond/internal/domain/game"
	"github.com/okian/diamond/internal/domain/model"
	"github.com/okian/diamond/internal/league"
	"github.com/okian/diamond/pkg/logger"
	"github.com/okian/diamond/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 60 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

// seedableStore is a Store that can also be loaded with a league.
type seedableStore interface {
	repository.Store
	repository.Seeder
}

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use fmt for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		loggerInstance.Error(ctx, "failed to load config", logger.Error(err))
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	registerRuntimeCollectors()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		loggerInstance.Error(ctx, "failed to open store", logger.Error(err))
		return
	}
	defer func() {
		if err := closeStore(); err != nil {
			loggerInstance.Error(ctx, "failed to close store", logger.Error(err))
		}
	}()

	if err := bootstrap(ctx, cfg, store, loggerInstance); err != nil {
		loggerInstance.Error(ctx, "failed to seed league", logger.Error(err))
		return
	}

	svc := newService(cfg, store, loggerInstance)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	// Start service metrics updater
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewServer(svc).Handler(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// registerRuntimeCollectors adds Go runtime and process metrics to the
// service registry. Repeated calls are ignored.
func registerRuntimeCollectors() {
	reg := metrics.GetRegistry()
	_ = reg.Register(collectors.NewGoCollector())
	_ = reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// openStore returns the SQLite store when db_path is set and an in-memory
// store otherwise.
func openStore(ctx context.Context, cfg *config.Config) (seedableStore, func() error, error) {
	if cfg.DBPath == "" {
		return repository.NewMemStore(), func() error { return nil }, nil
	}
	store, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

// bootstrap seeds an empty store from league_file, or from a generated demo
// league when league_teams is positive. A store that already holds games
// is left alone.
func bootstrap(ctx context.Context, cfg *config.Config, store seedableStore, log logger.Logger) error {
	sum, err := store.Summary(ctx)
	if err != nil {
		return err
	}
	if sum.Games > 0 {
		log.Info(ctx, "resuming league", logger.Int("games", sum.Games), logger.Int("pending", sum.Pending))
		return nil
	}

	var lg model.League
	switch {
	case cfg.LeagueFile != "":
		lg, err = league.LoadFile(cfg.LeagueFile)
	case cfg.LeagueTeams > 0:
		lg, err = league.Generate(
			league.WithTeams(cfg.LeagueTeams),
			league.WithDays(cfg.LeagueDays),
			league.WithSeed(cfg.LeagueSeed),
		)
	default:
		log.Warn(ctx, "store is empty and no league is configured")
		return nil
	}
	if err != nil {
		return fmt.Errorf("build league: %w", err)
	}
	if err := store.Seed(ctx, lg); err != nil {
		return err
	}
	log.Info(ctx, "league seeded",
		logger.Int("teams", len(lg.Teams)),
		logger.Int("games", len(lg.Games)),
		logger.Time("start", lg.Universe.CurrentDateTime),
	)
	return nil
}

// newService maps configuration onto scheduler options.
func newService(cfg *config.Config, store repository.Store, log logger.Logger) *app.Service {
	return app.New(
		app.WithLogger(log),
		app.WithStore(store),
		app.WithMaxConcurrency(cfg.MaxConcurrency),
		app.WithQueueSize(cfg.QueueSize),
		app.WithSeed(cfg.Seed),
		app.WithAutoAdvance(cfg.AutoAdvance()),
		app.WithGameOptions(
			game.WithInnings(cfg.Innings),
			game.WithMaxInnings(cfg.MaxInnings),
			game.WithInjuryChance(cfg.InjuryChance),
		),
		app.WithMerger(fatigue.NewMerger(
			fatigue.WithPerPitch(cfg.FatiguePerPitch),
			fatigue.WithPerInning(cfg.FatiguePerInning),
			fatigue.WithRecoveryPerDay(cfg.FatigueRecoveryPerDay),
		)),
	)
}

// startServiceMetricsUpdater starts a background goroutine that refreshes
// the pending and clock gauges between batches.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

// updateServiceMetrics updates service-level metrics.
func updateServiceMetrics(ctx context.Context, svc *app.Service) {
	// GetStats already refreshes the pending and queue gauges.
	stats, err := svc.GetStats(ctx)
	if err != nil {
		return
	}
	metrics.UpdateUniverseDate(stats.CurrentDate.Unix())
}
