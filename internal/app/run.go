package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mselser95/drops-miner/internal/inventory"
	"github.com/mselser95/drops-miner/internal/miner"
	"go.uber.org/zap"
)

// Run starts the HTTP server and the miner, then blocks until a shutdown
// signal arrives. A miner start failure shuts everything down and is returned.
// A signal during startup interrupts it and shuts down cleanly.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("log-level", a.cfg.LogLevel),
		zap.String("settings", a.settings.Path()),
		zap.String("storage", a.cfg.StorageMode))

	stopSignals := a.watchSignals()
	defer stopSignals()

	a.startHTTPServer()

	err := a.miner.Start(a.ctx)
	if err != nil {
		interrupted := a.ctx.Err() != nil
		shutdownErr := a.Shutdown()
		if interrupted {
			return shutdownErr
		}
		return fmt.Errorf("start miner: %w", err)
	}

	a.healthChecker.SetReady(true)

	a.logger.Info("application-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort),
		zap.String("pubsub-url", a.cfg.PubSubURL))

	<-a.ctx.Done()

	return a.Shutdown()
}

func (a *App) startHTTPServer() {
	if a.httpServer == nil {
		return
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		err := a.httpServer.Start()
		if err != nil {
			a.logger.Error("http-server-error", zap.Error(err))
		}
	}()

	// give the listener a moment before the miner starts logging
	time.Sleep(100 * time.Millisecond)
}

func notifyShutdownSignals(c chan<- os.Signal) {
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
}

// watchSignals cancels the application context when a shutdown signal
// arrives. The returned func stops watching.
func (a *App) watchSignals() func() {
	sigChan := make(chan os.Signal, 1)
	a.notifySignals(sigChan)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigChan:
			a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
			a.cancel()
		case <-a.ctx.Done():
			a.logger.Info("context-cancelled")
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}

// Login validates the configured token without starting the miner.
func (a *App) Login(ctx context.Context) (miner.Identity, error) {
	err := a.miner.Login(ctx)
	if err != nil {
		return miner.Identity{}, err
	}

	return a.miner.WaitLogin(ctx)
}

// Inventory logs in if needed and returns the current campaign list without
// starting the miner.
func (a *App) Inventory(ctx context.Context) ([]*inventory.DropsCampaign, error) {
	if !a.miner.LoggedIn() {
		_, err := a.Login(ctx)
		if err != nil {
			return nil, err
		}
	}

	err := a.miner.FetchInventory(ctx)
	if err != nil {
		return nil, err
	}

	return a.miner.Campaigns(), nil
}
