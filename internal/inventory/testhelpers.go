package inventory

import (
	"strconv"
	"time"

	"github.com/mselser95/drops-miner/pkg/types"
)

// TestDrop describes a drop for NewTestCampaign.
type TestDrop struct {
	ID       string
	Required int
	Current  int
	ClaimID  string
	Claimed  bool
}

// NewTestCampaign builds an eligible campaign for tests. Drops share the campaign window.
func NewTestCampaign(id string, gameID int, gameName string, start, end time.Time, drops ...TestDrop) *DropsCampaign {
	p := &types.CampaignPayload{
		ID:      id,
		Name:    "Campaign " + id,
		Game:    &types.GamePayload{ID: strconv.Itoa(gameID), DisplayName: gameName},
		StartAt: start.UTC().Format(time.RFC3339),
		EndAt:   end.UTC().Format(time.RFC3339),
	}

	for _, td := range drops {
		dp := types.DropPayload{
			ID:                     td.ID,
			Name:                   "Drop " + td.ID,
			StartAt:                p.StartAt,
			EndAt:                  p.EndAt,
			RequiredMinutesWatched: td.Required,
		}
		dp.Self = &struct {
			DropInstanceID        string `json:"dropInstanceID"`
			IsClaimed             bool   `json:"isClaimed"`
			CurrentMinutesWatched int    `json:"currentMinutesWatched"`
		}{
			DropInstanceID:        td.ClaimID,
			IsClaimed:             td.Claimed,
			CurrentMinutesWatched: td.Current,
		}
		p.TimeBasedDrops = append(p.TimeBasedDrops, dp)
	}

	c, err := NewCampaign(p)
	if err != nil {
		panic(err)
	}
	return c
}
