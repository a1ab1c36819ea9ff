package miner

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// maintenanceLoop reloads the inventory, claims finished drops left unclaimed
// and reselects a channel on a fixed schedule or whenever a refresh is requested.
func (m *Miner) maintenanceLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-m.refresh:
		}

		err := m.FetchInventory(ctx)
		if err != nil {
			if isCancelled(ctx, err) {
				return
			}
			m.logger.Warn("inventory-refresh-failed", zap.Error(err))
			continue
		}
		m.claimPending(ctx)

		err = m.SwitchChannel(ctx, nil)
		if err != nil && !isCancelled(ctx, err) {
			m.logger.Warn("channel-reselect-failed", zap.Error(err))
		}
	}
}

// RequestRefresh asks the maintenance loop for an inventory reload. Requests
// made while one is already pending are coalesced.
func (m *Miner) RequestRefresh() {
	select {
	case m.refresh <- struct{}{}:
	default:
	}
}
