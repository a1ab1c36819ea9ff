package miner

import (
	"context"
	"fmt"

	"github.com/mselser95/drops-miner/internal/inventory"
	"github.com/mselser95/drops-miner/internal/storage"
	"go.uber.org/zap"
)

// ClaimDrop redeems drop and reports whether this call claimed it. A drop
// without a claim id, or one already claimed, is left untouched. Remote
// failures are logged and the drop stays unclaimed for a later attempt.
func (m *Miner) ClaimDrop(ctx context.Context, drop *inventory.TimedDrop, channelLogin string) bool {
	claimID := drop.ClaimID()
	if claimID == "" {
		ClaimsTotal.WithLabelValues("no_claim_id").Inc()
		m.logger.Debug("claim-skipped-no-claim-id", zap.String("drop-id", drop.ID))
		return false
	}
	if drop.IsClaimed() {
		ClaimsTotal.WithLabelValues("already_claimed").Inc()
		return false
	}

	prev := m.State()
	m.setState(StateClaiming)
	defer func() {
		if prev == StateClaiming {
			prev = StateWatching
		}
		m.setState(prev)
	}()

	m.emitPrint("Claiming drop: " + drop.Name)

	data, err := m.cfg.Gateway.ClaimDrop(ctx, claimID)
	if err != nil {
		ClaimsTotal.WithLabelValues("error").Inc()
		m.logger.Warn("claim-failed",
			zap.String("drop-id", drop.ID),
			zap.String("claim-id", claimID),
			zap.Error(err))
		m.emitPrint(fmt.Sprintf("Failed to claim %s: %v", drop.Name, err))
		return false
	}

	if data == nil || data.ClaimDropRewards == nil {
		ClaimsTotal.WithLabelValues("rejected").Inc()
		m.logger.Warn("claim-rejected",
			zap.String("drop-id", drop.ID),
			zap.String("claim-id", claimID))
		return false
	}

	if !drop.MarkClaimed() {
		ClaimsTotal.WithLabelValues("already_claimed").Inc()
		return false
	}

	ClaimsTotal.WithLabelValues("ok").Inc()

	gameName := ""
	if drop.Campaign != nil && drop.Campaign.Game != nil {
		gameName = drop.Campaign.Game.Name
	}

	m.logger.Info("drop-claimed",
		zap.String("drop-id", drop.ID),
		zap.String("drop", drop.Name),
		zap.String("game", gameName),
		zap.String("status", data.ClaimDropRewards.Status))
	m.emitPrint("Claimed: " + drop.Name)
	m.notify("Drop Claimed", drop.Name+"\n"+gameName)
	m.emitProgress(drop)

	if m.cfg.Storage != nil {
		rec := storage.NewClaimRecord(drop, channelLogin, m.cfg.Now())
		storeErr := m.cfg.Storage.StoreClaim(ctx, rec)
		if storeErr != nil {
			m.logger.Warn("claim-record-failed",
				zap.String("drop-id", drop.ID),
				zap.Error(storeErr))
		}
	}

	return true
}

// claimPending claims drops that finished earning but are still unclaimed,
// such as ones whose earlier claim attempt failed.
func (m *Miner) claimPending(ctx context.Context) {
	if !m.cfg.Settings.Get().AutoClaim {
		return
	}

	for _, c := range m.Campaigns() {
		for _, d := range c.Drops {
			if ctx.Err() != nil {
				return
			}
			if !d.IsComplete() || d.IsClaimed() || d.ClaimID() == "" {
				continue
			}
			m.logger.Info("claiming-pending-drop", zap.String("drop-id", d.ID))
			m.ClaimDrop(ctx, d, "")
		}
	}
}
