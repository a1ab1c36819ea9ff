package app

import (
	"context"
	"os"
	"sync"

	"github.com/mselser95/drops-miner/internal/miner"
	"github.com/mselser95/drops-miner/internal/settings"
	"github.com/mselser95/drops-miner/internal/storage"
	"github.com/mselser95/drops-miner/pkg/cache"
	"github.com/mselser95/drops-miner/pkg/config"
	"github.com/mselser95/drops-miner/pkg/gql"
	"github.com/mselser95/drops-miner/pkg/healthprobe"
	"github.com/mselser95/drops-miner/pkg/httpserver"
	"go.uber.org/zap"
)

// App wires configuration, settings and the miner into a running process.
type App struct {
	cfg            *config.Config
	logger         *zap.Logger
	healthChecker  *healthprobe.HealthChecker
	httpServer     *httpserver.Server
	settings       *settings.Store
	gqlClient      *gql.Client
	directoryCache cache.Cache
	storage        storage.Storage
	miner          *miner.Miner
	ctx            context.Context
	cancel         context.CancelFunc
	notifySignals  func(c chan<- os.Signal) // registers c for shutdown signals
	wg             sync.WaitGroup
	shutdownOnce   sync.Once
}

// Options holds application options.
type Options struct {
	Sink       miner.Sink // extra receiver for user-facing events, next to the log
	DisableAPI bool       // skip the HTTP server
}

// Miner returns the application's miner.
func (a *App) Miner() *miner.Miner {
	return a.miner
}

// Settings returns the application's settings store.
func (a *App) Settings() *settings.Store {
	return a.settings
}
