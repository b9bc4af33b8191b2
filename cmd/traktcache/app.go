package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/amaumene/traktcache/internal/config"
	"github.com/amaumene/traktcache/internal/controllers"
	"github.com/amaumene/traktcache/internal/metadata"
	"github.com/amaumene/traktcache/internal/metrics"
	"github.com/amaumene/traktcache/internal/models"
	"github.com/amaumene/traktcache/internal/services/tmdb"
	"github.com/amaumene/traktcache/internal/services/trakt"
	"github.com/amaumene/traktcache/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

// app holds the wired components shared by every command
type app struct {
	cfg      *config.Config
	logger   *logrus.Logger
	store    models.Store
	registry *prometheus.Registry

	refresh *controllers.RefreshController
	sync    *controllers.SyncController
	query   *controllers.QueryController
	flags   *controllers.FlagController
}

func newApp(logOut io.Writer) (*app, error) {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel, cfg.LogFormat, logOut)
	logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Debug("Configuration loaded")

	// 3. Initialize store
	store, err := models.Open(cfg.StoreDriver, cfg.DatabaseFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	logger.WithField("driver", cfg.StoreDriver).Debug("Store initialized")

	// 4. Initialize services
	traktClient, err := trakt.NewClient(cfg, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize Trakt client: %w", err)
	}

	tmdbClient, err := tmdb.NewClient(cfg, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize TMDB client: %w", err)
	}
	var primary metadata.Provider
	if tmdbClient != nil {
		primary = tmdbClient
	} else {
		logger.Info("TMDB_API_KEY not set, using Trakt metadata only")
	}
	resolver := metadata.NewService(traktClient, primary, metadata.TraktProvider{}, logger)

	// 5. Initialize controllers
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	guard := controllers.NewStoreGuard(store, cfg.LockTimeout)
	refresh := controllers.NewRefreshController(guard, resolver, m, logger)
	syncCtrl := controllers.NewSyncController(guard, refresh, cfg.RefreshWorkers, m, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		registry: registry,
		refresh:  refresh,
		sync:     syncCtrl,
		query:    controllers.NewQueryController(guard, syncCtrl, logger),
		flags:    controllers.NewFlagController(guard, logger),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
