package miner

import (
	"context"
	"fmt"
	"sort"

	"github.com/mselser95/drops-miner/internal/inventory"
	"github.com/mselser95/drops-miner/pkg/types"
	"go.uber.org/zap"
)

// SelectChannel returns the most viewed live channel for the active campaign's
// game, or nil. The campaign is chosen for the watched channel first and, when
// that channel can no longer earn anything, without a channel constraint.
func (m *Miner) SelectChannel(ctx context.Context) (*inventory.Channel, error) {
	m.setState(StateSelectingChannel)

	current := m.Watching()
	campaign := m.ActiveCampaign(current)
	if campaign == nil && current != nil {
		campaign = m.ActiveCampaign(nil)
	}
	if campaign == nil {
		m.emitPrint("No active campaigns available")
		return nil, nil
	}

	m.emitPrint("Looking for channels for: " + campaign.Game.Name)

	channels, err := m.fetchChannels(ctx, campaign.Game)
	if err != nil {
		return nil, err
	}

	if len(channels) == 0 {
		m.emitPrint("No live channels found for " + campaign.Game.Name)
		return nil, nil
	}

	sort.SliceStable(channels, func(i, j int) bool {
		return channels[i].Viewers > channels[j].Viewers
	})

	return channels[0], nil
}

// fetchChannels lists live drops-enabled channels for game and records them by
// login. A failed directory query counts as no channels; only cancellation of
// ctx is returned.
func (m *Miner) fetchChannels(ctx context.Context, game *inventory.Game) ([]*inventory.Channel, error) {
	data, err := m.directory(ctx, game.Slug)
	if err != nil {
		if isCancelled(ctx, err) {
			return nil, fmt.Errorf("fetch directory for %s: %w", game.Name, err)
		}
		m.logger.Warn("directory-fetch-failed",
			zap.String("game", game.Name),
			zap.String("slug", game.Slug),
			zap.Error(err))
		return nil, nil
	}

	if data.Game == nil || data.Game.Streams == nil {
		return nil, nil
	}

	channels := make([]*inventory.Channel, 0, len(data.Game.Streams.Edges))
	for _, edge := range data.Game.Streams.Edges {
		ch, chErr := inventory.ChannelFromStream(edge.Node)
		if chErr != nil {
			m.logger.Debug("directory-entry-skipped", zap.Error(chErr))
			continue
		}
		if ch.Game == nil {
			ch.Game = game
		}
		channels = append(channels, ch)
	}

	for _, ch := range channels {
		m.channels.Add(ch.Login, ch)
	}

	return channels, nil
}

// directory queries the game directory, serving repeated lookups from the cache.
func (m *Miner) directory(ctx context.Context, slug string) (*types.GameDirectoryData, error) {
	if data, ok := m.cfg.Directory.Get(slug); ok {
		return data, nil
	}

	data, err := m.cfg.Gateway.GameDirectory(ctx, slug, m.cfg.DirectoryLimit)
	if err != nil {
		return nil, err
	}
	m.cfg.Directory.Put(slug, data)

	return data, nil
}

// SwitchChannel watches target, or the best available channel when target is nil.
// The current drop becomes the active campaign's drop closest to completion.
func (m *Miner) SwitchChannel(ctx context.Context, target *inventory.Channel) error {
	m.switchMu.Lock()
	defer m.switchMu.Unlock()

	if target == nil {
		selected, err := m.SelectChannel(ctx)
		if err != nil {
			return err
		}
		target = selected
	}

	if target == nil {
		m.watchMu.Lock()
		m.watching = nil
		m.currentDrop = nil
		m.watchMu.Unlock()

		m.setState(StateWatching)
		m.emitChannel("None")
		m.emitDrop(nil)
		return nil
	}

	var drop *inventory.TimedDrop
	campaign := m.ActiveCampaign(target)
	if campaign != nil {
		drop = campaign.FirstDrop(m.cfg.Now())
	}

	m.watchMu.Lock()
	changed := !target.Equal(m.watching)
	m.watching = target
	m.currentDrop = drop
	m.watchMu.Unlock()

	m.setState(StateWatching)

	if changed {
		game := "unknown game"
		if target.Game != nil {
			game = target.Game.Name
		}
		m.logger.Info("channel-switched",
			zap.String("channel", target.Login),
			zap.Int("viewers", target.Viewers),
			zap.String("game", game))
		m.emitChannel(target.DisplayName)
		m.emitPrint(fmt.Sprintf("Watching: %s (%s)", target.DisplayName, game))
	}
	m.emitDrop(drop)

	return nil
}

// Watching returns the watched channel, or nil.
func (m *Miner) Watching() *inventory.Channel {
	m.watchMu.RLock()
	defer m.watchMu.RUnlock()

	return m.watching
}

// CurrentDrop returns the drop being mined, or nil.
func (m *Miner) CurrentDrop() *inventory.TimedDrop {
	m.watchMu.RLock()
	defer m.watchMu.RUnlock()

	return m.currentDrop
}

// Channel returns a channel seen in a recent directory listing by login.
func (m *Miner) Channel(login string) (*inventory.Channel, bool) {
	return m.channels.Get(login)
}
