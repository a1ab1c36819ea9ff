package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown stops the miner and releases every resource. It is safe to call
// more than once.
func (a *App) Shutdown() error {
	a.shutdownOnce.Do(a.shutdown)
	return nil
}

func (a *App) shutdown() {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady(false)
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if a.httpServer != nil {
		err := a.httpServer.Shutdown(shutdownCtx)
		if err != nil {
			a.logger.Error("http-server-shutdown-error", zap.Error(err))
		}
	}

	// stops the pool and the loops and closes the GQL session
	a.miner.Stop()

	err := a.gqlClient.Close()
	if err != nil {
		a.logger.Error("gql-client-close-error", zap.Error(err))
	}

	err = a.storage.Close()
	if err != nil {
		a.logger.Error("storage-close-error", zap.Error(err))
	}

	a.directoryCache.Close()

	err = a.settings.Save(false)
	if err != nil {
		a.logger.Error("settings-save-error", zap.Error(err))
	}

	a.wg.Wait()

	a.logger.Info("application-shutdown-complete")
}
