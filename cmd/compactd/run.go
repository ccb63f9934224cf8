package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/compactd/compactd/internal/bridge"
	"github.com/compactd/compactd/internal/bridge/fake"
	"github.com/compactd/compactd/internal/config"
	"github.com/compactd/compactd/internal/configsync"
	"github.com/compactd/compactd/internal/coordinator"
	"github.com/compactd/compactd/internal/library"
	"github.com/compactd/compactd/internal/relay"
	"github.com/compactd/compactd/internal/server"
	"github.com/compactd/compactd/internal/settings"
	"github.com/compactd/compactd/internal/store"
	"github.com/compactd/compactd/pkg/log"
	"github.com/compactd/compactd/pkg/metrics"
	"github.com/compactd/compactd/pkg/version"
)

var engineFlag string

func init() {
	runCmd.Flags().StringVar(&engineFlag, "engine", "", "execution engine to attach to (overrides COMPACTD_ENGINE; only \"sim\" is available)")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the compactd daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return fmt.Errorf("reading configuration: %w", err)
		}
		if engineFlag != "" {
			cfg.Service.Engine = engineFlag
		}

		logLvl, err := zap.ParseAtomicLevel(cfg.Service.LogLevel)
		if err != nil {
			logLvl = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}

		logger := log.InitLog(logLvl)
		defer func() { _ = logger.Sync() }()

		undo := zap.ReplaceGlobals(logger)
		defer undo()

		zap.S().Infof("Starting compactd %s", version.Get().String())
		defer zap.S().Info("compactd stopped")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg.Database.Path)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		dataStore := store.NewStore(db)
		defer func() { _ = dataStore.Close() }()

		if err := dataStore.InitialMigration(); err != nil {
			zap.S().Fatalw("running initial migration", "error", err)
		}
		metrics.RegisterArchiveCollector(dataStore)

		settingsStore := settings.NewStore(cfg.Service.SettingsFile)
		if err := settingsStore.Load(); err != nil {
			zap.S().Fatalw("loading settings", "error", err)
		}
		defer settingsStore.Close()
		go func() {
			if err := settingsStore.Watch(ctx); err != nil {
				zap.S().Errorw("settings watcher stopped", "error", err)
			}
		}()

		catalog := library.NewCatalog()
		defer catalog.Close()

		var engine bridge.Engine
		switch cfg.Service.Engine {
		case "sim":
			sim := fake.NewSimulator()
			catalog.Replace(sim.ListGames())
			go sim.Run(ctx)
			go serveLibrary(ctx, sim, catalog)
			engine = sim
		default:
			return fmt.Errorf("unknown engine %q: only the simulated engine (\"sim\") is available", cfg.Service.Engine)
		}

		relays := relay.NewRelays(engine)
		go relays.Run(ctx)
		go refreshOnWatcherEvents(ctx, relays, catalog)

		jobs := coordinator.New(engine, catalog,
			coordinator.WithArchiver(dataStore.Archive()),
			coordinator.WithDefaultAlgorithm(func() bridge.Algorithm {
				return bridge.StringToAlgorithm(settingsStore.Current().Algorithm)
			}),
		)
		defer jobs.Close()

		sync := configsync.NewSynchronizer(engine, settingsStore)
		go sync.Run(ctx)

		listener, err := newListener(cfg.Service.Address)
		if err != nil {
			zap.S().Fatalw("creating listener", "error", err)
		}

		handler := server.NewHandler(version.Get().GitVersion, jobs, catalog, settingsStore, relays, dataStore)
		defer handler.Close()

		srv := server.New(cfg, handler, listener)
		if err := srv.Run(ctx); err != nil {
			zap.S().Fatalw("running server", "error", err)
		}

		return nil
	},
}

// serveLibrary answers catalog refresh requests from the simulated engine's
// library. A real engine would resolve these through its own listing call.
func serveLibrary(ctx context.Context, sim *fake.Simulator, catalog *library.Catalog) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-catalog.RefreshRequests():
			catalog.Replace(sim.ListGames())
		}
	}
}

// refreshOnWatcherEvents re-lists the library whenever the engine's
// filesystem watcher reports a change under a watched path.
func refreshOnWatcherEvents(ctx context.Context, relays *relay.Relays, catalog *library.Catalog) {
	sub := relays.Watcher.Output().Subscribe()
	defer sub.Cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-sub.Updates():
			if !ok {
				return
			}
			catalog.RequestRefresh()
		}
	}
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
