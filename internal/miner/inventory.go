package miner

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/mselser95/drops-miner/internal/inventory"
	"go.uber.org/zap"
)

// FetchInventory replaces the campaign set with a fresh listing. Malformed
// campaigns are logged and skipped.
func (m *Miner) FetchInventory(ctx context.Context) error {
	m.setState(StateFetchingInventory)
	m.emitPrint("Fetching inventory...")
	m.emitStatus("Fetching inventory...")

	data, err := m.cfg.Gateway.DropCampaigns(ctx)
	if err != nil {
		InventoryRefreshTotal.WithLabelValues("error").Inc()
		m.emitPrint(fmt.Sprintf("Error fetching inventory: %v", err))
		return fmt.Errorf("fetch inventory: %w", err)
	}

	var campaigns []*inventory.DropsCampaign
	games := make(map[int]*inventory.Game)

	if data.CurrentUser != nil {
		for _, raw := range data.CurrentUser.DropCampaigns {
			campaign, parseErr := inventory.ParseCampaign(raw)
			if parseErr != nil {
				var pe *inventory.ParseError
				if errors.As(parseErr, &pe) {
					m.logger.Warn("campaign-skipped",
						zap.String("campaign-id", pe.ID),
						zap.Error(parseErr))
				} else {
					m.logger.Warn("campaign-skipped", zap.Error(parseErr))
				}
				continue
			}
			campaigns = append(campaigns, campaign)
			games[campaign.Game.ID] = campaign.Game
		}
	}

	m.mergeProgress(ctx, campaigns)

	m.invMu.Lock()
	m.campaigns = campaigns
	m.games = games
	m.lastInventory = m.cfg.Now()
	m.invMu.Unlock()

	InventoryRefreshTotal.WithLabelValues("ok").Inc()
	CampaignsLoaded.Set(float64(len(campaigns)))

	m.logger.Info("inventory-fetched",
		zap.Int("campaigns", len(campaigns)),
		zap.Int("games", len(games)))
	m.emitPrint(fmt.Sprintf("Found %d campaigns", len(campaigns)))
	m.emitInventory(m.Campaigns())
	m.emitStatus(fmt.Sprintf("Loaded %d campaigns", len(campaigns)))

	return nil
}

// mergeProgress applies the account's recorded drop progress to freshly
// parsed campaigns. Failures only cost accuracy and are logged.
func (m *Miner) mergeProgress(ctx context.Context, campaigns []*inventory.DropsCampaign) {
	data, err := m.cfg.Gateway.Inventory(ctx)
	if err != nil {
		m.logger.Warn("inventory-progress-failed", zap.Error(err))
		return
	}
	if data.CurrentUser == nil || data.CurrentUser.Inventory == nil {
		return
	}

	drops := make(map[string]*inventory.TimedDrop)
	for _, c := range campaigns {
		for _, d := range c.Drops {
			drops[d.ID] = d
		}
	}

	merged := 0
	for _, progress := range data.CurrentUser.Inventory.DropCampaignsInProgress {
		for _, p := range progress.TimeBasedDrops {
			d, ok := drops[p.ID]
			if !ok || p.Self == nil {
				continue
			}
			d.SetMinutes(p.Self.CurrentMinutesWatched)
			if p.Self.DropInstanceID != "" {
				d.SetClaimID(p.Self.DropInstanceID)
			}
			if p.Self.IsClaimed {
				d.MarkClaimed()
			}
			merged++
		}
	}

	m.logger.Debug("inventory-progress-merged", zap.Int("drops", merged))
}

// Campaigns returns a snapshot of the current campaign list.
func (m *Miner) Campaigns() []*inventory.DropsCampaign {
	m.invMu.RLock()
	defer m.invMu.RUnlock()

	return slices.Clone(m.campaigns)
}

// Games returns the games of the current inventory.
func (m *Miner) Games() []*inventory.Game {
	m.invMu.RLock()
	defer m.invMu.RUnlock()

	games := make([]*inventory.Game, 0, len(m.games))
	for _, g := range m.games {
		games = append(games, g)
	}
	slices.SortFunc(games, func(a, b *inventory.Game) int { return a.ID - b.ID })

	return games
}

// findDrop looks a drop up across all loaded campaigns.
func (m *Miner) findDrop(dropID string) *inventory.TimedDrop {
	m.invMu.RLock()
	defer m.invMu.RUnlock()

	for _, c := range m.campaigns {
		if d := c.Drop(dropID); d != nil {
			return d
		}
	}
	return nil
}

// ActiveCampaign picks the campaign to mine on channel (which may be nil):
// earnable candidates not in the exclusion set, ordered by the priority mode.
func (m *Miner) ActiveCampaign(channel *inventory.Channel) *inventory.DropsCampaign {
	now := m.cfg.Now()
	prefs := m.cfg.Settings.Get()

	var candidates []*inventory.DropsCampaign
	for _, c := range m.Campaigns() {
		if m.cfg.Settings.IsExcluded(c.Game.Name) {
			continue
		}
		if c.CanEarn(channel, now) {
			candidates = append(candidates, c)
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	inventory.SortCampaigns(candidates, prefs.PriorityMode, prefs.Priority, now)

	return candidates[0]
}
