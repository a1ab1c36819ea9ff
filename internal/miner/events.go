package miner

import (
	"context"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/mselser95/drops-miner/pkg/types"
	"go.uber.org/zap"
)

// HandleDropEvent applies a user-drop-events message. Progress updates move the
// matching drop forward; claim notifications redeem it. Drops that are not in
// the loaded inventory are ignored.
func (m *Miner) HandleDropEvent(ctx context.Context, message []byte) error {
	var event types.DropEvent
	err := json.Unmarshal(message, &event)
	if err != nil {
		return fmt.Errorf("decode drop event: %w", err)
	}
	event.Normalize()

	DropEventsTotal.WithLabelValues(event.Type).Inc()

	switch event.Type {
	case types.DropEventProgress:
		drop := m.findDrop(event.DropID)
		if drop == nil {
			return nil
		}
		if drop.SetMinutes(event.CurrentMinutes) {
			m.logger.Debug("drop-progress-event",
				zap.String("drop-id", drop.ID),
				zap.Int("current-minutes", event.CurrentMinutes),
				zap.Int("required-minutes", event.RequiredMinutes))
			if drop == m.CurrentDrop() {
				m.emitProgress(drop)
			}
		}

	case types.DropEventClaim:
		drop := m.findDrop(event.DropID)
		if drop == nil || drop.IsClaimed() {
			return nil
		}
		if event.Data != nil && event.Data.DropInstanceID != "" {
			drop.SetClaimID(event.Data.DropInstanceID)
		}

		login := ""
		if ch := m.Watching(); ch != nil {
			login = ch.Login
		}
		m.ClaimDrop(ctx, drop, login)

	default:
		m.logger.Debug("drop-event-ignored", zap.String("type", event.Type))
	}

	return nil
}

// HandleNotification schedules an inventory refresh when a drop related
// onsite notification arrives.
func (m *Miner) HandleNotification(_ context.Context, message []byte) error {
	var event types.NotificationEvent
	err := json.Unmarshal(message, &event)
	if err != nil {
		return fmt.Errorf("decode notification: %w", err)
	}

	if event.Type != "create-notification" {
		return nil
	}

	kind := event.Data.Notification.Type
	if strings.Contains(strings.ToLower(kind), "drop") {
		m.logger.Info("drop-notification-received", zap.String("notification-type", kind))
		m.RequestRefresh()
	}

	return nil
}
