package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mselser95/drops-miner/internal/inventory"
)

// ClaimRecord is one successfully claimed drop.
type ClaimRecord struct {
	ID           string
	DropID       string
	DropName     string
	CampaignID   string
	CampaignName string
	GameName     string
	ChannelLogin string
	Rewards      string
	ClaimedAt    time.Time
}

// NewClaimRecord builds a record for drop claimed while watching channelLogin.
// channelLogin may be empty for claims triggered by push events.
func NewClaimRecord(drop *inventory.TimedDrop, channelLogin string, claimedAt time.Time) *ClaimRecord {
	rec := &ClaimRecord{
		ID:           uuid.New().String(),
		DropID:       drop.ID,
		DropName:     drop.Name,
		ChannelLogin: channelLogin,
		Rewards:      drop.RewardsText(),
		ClaimedAt:    claimedAt,
	}

	if drop.Campaign != nil {
		rec.CampaignID = drop.Campaign.ID
		rec.CampaignName = drop.Campaign.Name
		if drop.Campaign.Game != nil {
			rec.GameName = drop.Campaign.Game.Name
		}
	}

	return rec
}

// Storage is the interface for recording claimed drops.
type Storage interface {
	// StoreClaim records a claimed drop.
	StoreClaim(ctx context.Context, rec *ClaimRecord) error

	// Close closes the storage connection.
	Close() error
}
