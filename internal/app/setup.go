package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	gorillaws "github.com/gorilla/websocket"
	"github.com/mselser95/drops-miner/internal/miner"
	"github.com/mselser95/drops-miner/internal/settings"
	"github.com/mselser95/drops-miner/internal/storage"
	"github.com/mselser95/drops-miner/pkg/cache"
	"github.com/mselser95/drops-miner/pkg/config"
	"github.com/mselser95/drops-miner/pkg/gql"
	"github.com/mselser95/drops-miner/pkg/healthprobe"
	"github.com/mselser95/drops-miner/pkg/httpserver"
	"github.com/mselser95/drops-miner/pkg/websocket"
	"go.uber.org/zap"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	store, err := setupSettings(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup settings: %w", err)
	}

	proxy, err := parseProxy(store.Get().Proxy)
	if err != nil {
		return nil, fmt.Errorf("setup proxy: %w", err)
	}

	directoryCache, err := setupCache(logger)
	if err != nil {
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	claimStorage, err := setupStorage(cfg, logger)
	if err != nil {
		directoryCache.Close()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	gqlClient := setupGQLClient(cfg, logger, store)
	sink := setupSink(logger, opts)

	m := miner.New(miner.Config{
		Gateway:         gqlClient,
		Settings:        store,
		Watcher:         miner.NewStreamWatcher(gqlClient),
		NewPool:         poolFactory(cfg, logger, store, proxy),
		Directory:       cache.NewDirectory(directoryCache, cfg.DirectoryCacheTTL),
		Storage:         claimStorage,
		Sink:            sink,
		WatchInterval:   cfg.WatchInterval,
		RefreshInterval: cfg.InventoryRefreshInterval,
		DirectoryLimit:  cfg.DirectoryLimit,
		KnownChannels:   cfg.KnownChannels,
		Logger:          logger.Named("miner"),
	})

	healthChecker := setupHealthChecker(m)

	var httpServer *httpserver.Server
	if !opts.DisableAPI {
		httpServer = httpserver.New(&httpserver.Config{
			Port:          cfg.HTTPPort,
			Logger:        logger,
			HealthChecker: healthChecker,
			Miner:         m,
		})
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &App{
		cfg:            cfg,
		logger:         logger,
		healthChecker:  healthChecker,
		httpServer:     httpServer,
		settings:       store,
		gqlClient:      gqlClient,
		directoryCache: directoryCache,
		storage:        claimStorage,
		miner:          m,
		ctx:            ctx,
		cancel:         cancel,
		notifySignals:  notifyShutdownSignals,
	}, nil
}

// setupSettings loads the settings file. A token from the environment
// replaces the stored one.
func setupSettings(cfg *config.Config, logger *zap.Logger) (*settings.Store, error) {
	store := settings.NewStore(cfg.SettingsPath, logger)

	err := store.Load()
	if err != nil {
		return nil, err
	}

	if cfg.AuthToken != "" {
		store.Update(func(s *settings.Settings) { s.OAuthToken = cfg.AuthToken })
		logger.Info("auth-token-from-environment")
	}

	return store, nil
}

func parseProxy(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse proxy %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.New("proxy must be an absolute URL")
	}

	return u, nil
}

func setupCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(cache.DefaultRistrettoConfig("directory", logger))
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	switch cfg.StorageMode {
	case "sqlite":
		sqliteStorage, err := storage.NewSQLiteStorage(cfg.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("create sqlite storage: %w", err)
		}
		return sqliteStorage, nil
	case "postgres":
		pgStorage, err := storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres storage: %w", err)
		}
		return pgStorage, nil
	}

	return storage.NewConsoleStorage(logger), nil
}

func setupGQLClient(cfg *config.Config, logger *zap.Logger, store *settings.Store) *gql.Client {
	return gql.NewClient(gql.Config{
		URL:      cfg.GQLURL,
		Timeout:  cfg.GQLTimeout,
		ProxyURL: store.Get().Proxy,
		Token:    store.Token,
		Logger:   logger.Named("gql"),
	})
}

func setupSink(logger *zap.Logger, opts *Options) miner.Sink {
	logSink := miner.NewLogSink(logger.Named("events"))
	if opts.Sink == nil {
		return logSink
	}
	return miner.MultiSink{logSink, opts.Sink}
}

// poolFactory returns a constructor for a fresh PubSub pool. The miner builds
// one per start so a restarted miner never reuses stopped connections.
func poolFactory(cfg *config.Config, logger *zap.Logger, store *settings.Store, proxy *url.URL) func() miner.EventPool {
	var dialer websocket.Dialer
	if proxy != nil {
		dialer = &gorillaws.Dialer{
			Proxy:            http.ProxyURL(proxy),
			HandshakeTimeout: cfg.WSDialTimeout,
		}
	}

	return func() miner.EventPool {
		return websocket.NewPool(websocket.PoolConfig{
			MaxConnections:      cfg.WSMaxConnections,
			TopicsPerConnection: cfg.WSTopicsPerConnection,
			Logger:              logger.Named("pubsub"),
			Connection: websocket.Config{
				URL:          cfg.PubSubURL,
				Token:        store.Token,
				DialTimeout:  cfg.WSDialTimeout,
				PingInterval: cfg.WSPingInterval,
				PongTimeout:  cfg.WSPongTimeout,
				Dialer:       dialer,
				Reconnect: websocket.ReconnectConfig{
					InitialDelay:      cfg.WSReconnectDelay,
					MaxDelay:          cfg.WSReconnectDelay,
					BackoffMultiplier: 1.0,
				},
			},
		})
	}
}

func setupHealthChecker(m *miner.Miner) *healthprobe.HealthChecker {
	hc := healthprobe.New()

	hc.AddCheck("login", func() error {
		if !m.LoggedIn() {
			return errors.New("not logged in")
		}
		return nil
	})
	hc.AddCheck("miner", func() error {
		if !m.Running() {
			return fmt.Errorf("miner %s", m.State())
		}
		return nil
	})

	return hc
}
