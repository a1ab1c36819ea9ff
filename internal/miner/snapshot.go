package miner

import "time"

// Snapshot is a point-in-time view of the miner for status endpoints.
type Snapshot struct {
	State         State         `json:"state"`
	Running       bool          `json:"running"`
	UserID        int           `json:"user_id,omitempty"`
	Login         string        `json:"login,omitempty"`
	Channel       string        `json:"channel,omitempty"`
	Drop          *DropSnapshot `json:"drop,omitempty"`
	Campaigns     int           `json:"campaigns"`
	Games         []string      `json:"games"`
	LastInventory *time.Time    `json:"last_inventory,omitempty"`
}

// DropSnapshot describes the drop being mined.
type DropSnapshot struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Campaign        string  `json:"campaign"`
	Game            string  `json:"game"`
	CurrentMinutes  int     `json:"current_minutes"`
	RequiredMinutes int     `json:"required_minutes"`
	Progress        float64 `json:"progress"`
	Claimed         bool    `json:"claimed"`
}

// Snapshot captures the current state.
func (m *Miner) Snapshot() Snapshot {
	snap := Snapshot{
		State:   m.State(),
		Running: m.Running(),
		Games:   []string{},
	}

	if id, ok := m.latch.Value(); ok {
		snap.UserID = id.UserID
		snap.Login = id.Login
	}

	if ch := m.Watching(); ch != nil {
		snap.Channel = ch.Login
	}

	if drop := m.CurrentDrop(); drop != nil {
		ds := &DropSnapshot{
			ID:              drop.ID,
			Name:            drop.Name,
			CurrentMinutes:  drop.CurrentMinutes(),
			RequiredMinutes: drop.RequiredMinutes,
			Progress:        drop.Progress(),
			Claimed:         drop.IsClaimed(),
		}
		if drop.Campaign != nil {
			ds.Campaign = drop.Campaign.Name
			if drop.Campaign.Game != nil {
				ds.Game = drop.Campaign.Game.Name
			}
		}
		snap.Drop = ds
	}

	for _, g := range m.Games() {
		snap.Games = append(snap.Games, g.Name)
	}

	m.invMu.RLock()
	snap.Campaigns = len(m.campaigns)
	if !m.lastInventory.IsZero() {
		last := m.lastInventory
		snap.LastInventory = &last
	}
	m.invMu.RUnlock()

	return snap
}
