package miner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// watchLoop sends one unit of watch credit per interval until ctx is done.
// Tick failures are logged and followed by a short pause.
func (m *Miner) watchLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.WatchInterval)
	defer ticker.Stop()

	m.logger.Info("watch-loop-started", zap.Duration("interval", m.cfg.WatchInterval))

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("watch-loop-stopped")
			return
		case <-ticker.C:
			err := m.safeTick(ctx)
			if err == nil {
				continue
			}
			if isCancelled(ctx, err) {
				return
			}
			WatchTicksTotal.WithLabelValues("error").Inc()
			m.logger.Error("watch-tick-failed", zap.Error(err))
			m.emitPrint(fmt.Sprintf("Error in watch loop: %v", err))
			pause(ctx, m.cfg.ErrorPause)
		}
	}
}

func (m *Miner) safeTick(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("watch tick panic: %v", r)
		}
	}()

	return m.Tick(ctx)
}

// Tick performs a single watch step: credit the watched channel, advance the
// current drop by one minute and, once it completes, claim it and move on.
func (m *Miner) Tick(ctx context.Context) error {
	m.watchMu.RLock()
	channel, drop := m.watching, m.currentDrop
	m.watchMu.RUnlock()

	if channel == nil || drop == nil {
		WatchTicksTotal.WithLabelValues("idle").Inc()
		return nil
	}

	err := m.cfg.Watcher.Watch(ctx, channel)
	if err != nil {
		if errors.Is(err, ErrChannelOffline) {
			WatchTicksTotal.WithLabelValues("offline").Inc()
			m.logger.Info("channel-offline", zap.String("channel", channel.Login))
			m.emitPrint(channel.DisplayName + " went offline")
			if channel.Game != nil {
				m.cfg.Directory.Invalidate(channel.Game.Slug)
			}
			return m.SwitchChannel(ctx, nil)
		}
		return err
	}

	minutes := drop.AddMinutes(1)
	WatchTicksTotal.WithLabelValues("ok").Inc()
	m.emitProgress(drop)

	m.logger.Debug("watch-tick",
		zap.String("channel", channel.Login),
		zap.String("drop-id", drop.ID),
		zap.Int("current-minutes", minutes),
		zap.Int("required-minutes", drop.RequiredMinutes))

	if !drop.IsComplete() {
		return nil
	}

	m.logger.Info("drop-complete", zap.String("drop-id", drop.ID), zap.String("drop", drop.Name))

	if m.cfg.Settings.Get().AutoClaim {
		m.ClaimDrop(ctx, drop, channel.Login)
	} else {
		m.emitPrint("Drop ready to claim: " + drop.Name)
	}

	return m.SwitchChannel(ctx, nil)
}
