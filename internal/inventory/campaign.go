package inventory

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mselser95/drops-miner/pkg/types"
)

// DropsCampaign is a time-boxed promotion bundling drops for a single game.
// Drops are created together with the campaign and never added later.
type DropsCampaign struct {
	ID              string
	Name            string
	Game            *Game
	StartsAt        time.Time
	EndsAt          time.Time
	Eligible        bool
	ImageURL        string
	Description     string
	AccountLinkURL  string
	Drops           []*TimedDrop
	AllowedChannels map[int]struct{}

	dropsByID map[string]*TimedDrop
}

// ParseCampaign builds a campaign and its drops from a raw campaign node.
func ParseCampaign(raw []byte) (*DropsCampaign, error) {
	var p types.CampaignPayload
	err := json.Unmarshal(raw, &p)
	if err != nil {
		return nil, &ParseError{Kind: "campaign", Err: err}
	}
	return NewCampaign(&p)
}

// NewCampaign builds a campaign from a decoded payload.
func NewCampaign(p *types.CampaignPayload) (*DropsCampaign, error) {
	if p.ID == "" {
		return nil, &ParseError{Kind: "campaign", Err: errors.New("missing id")}
	}
	if p.Name == "" {
		return nil, &ParseError{Kind: "campaign", ID: p.ID, Err: errors.New("missing name")}
	}

	game, err := NewGame(p.Game)
	if err != nil {
		return nil, &ParseError{Kind: "campaign", ID: p.ID, Err: err}
	}

	startsAt, err := parseTime(p.StartAt)
	if err != nil {
		return nil, &ParseError{Kind: "campaign", ID: p.ID, Err: fmt.Errorf("startAt: %w", err)}
	}
	endsAt, err := parseTime(p.EndAt)
	if err != nil {
		return nil, &ParseError{Kind: "campaign", ID: p.ID, Err: fmt.Errorf("endAt: %w", err)}
	}

	c := &DropsCampaign{
		ID:              p.ID,
		Name:            p.Name,
		Game:            game,
		StartsAt:        startsAt,
		EndsAt:          endsAt,
		Eligible:        true,
		ImageURL:        p.ImageURL,
		Description:     p.Description,
		AccountLinkURL:  p.AccountLinkURL,
		Drops:           make([]*TimedDrop, 0, len(p.TimeBasedDrops)),
		AllowedChannels: make(map[int]struct{}),
		dropsByID:       make(map[string]*TimedDrop, len(p.TimeBasedDrops)),
	}

	if p.Self != nil {
		c.Eligible = p.Self.IsAccountConnected
	}

	for i := range p.TimeBasedDrops {
		drop, dropErr := newDrop(c, &p.TimeBasedDrops[i])
		if dropErr != nil {
			return nil, &ParseError{Kind: "campaign", ID: p.ID, Err: dropErr}
		}
		c.Drops = append(c.Drops, drop)
		c.dropsByID[drop.ID] = drop
	}

	if p.Allow != nil && p.Allow.IsEnabled {
		for _, ch := range p.Allow.Channels {
			id, convErr := strconv.Atoi(ch.ID)
			if convErr != nil {
				return nil, &ParseError{Kind: "campaign", ID: p.ID, Err: fmt.Errorf("allowed channel id %q: %w", ch.ID, convErr)}
			}
			c.AllowedChannels[id] = struct{}{}
		}
	}

	return c, nil
}

func newDrop(c *DropsCampaign, p *types.DropPayload) (*TimedDrop, error) {
	if p.ID == "" {
		return nil, &ParseError{Kind: "drop", Err: errors.New("missing id")}
	}

	startsAt, err := parseTime(p.StartAt)
	if err != nil {
		return nil, &ParseError{Kind: "drop", ID: p.ID, Err: fmt.Errorf("startAt: %w", err)}
	}
	endsAt, err := parseTime(p.EndAt)
	if err != nil {
		return nil, &ParseError{Kind: "drop", ID: p.ID, Err: fmt.Errorf("endAt: %w", err)}
	}

	d := &TimedDrop{
		ID:              p.ID,
		Name:            p.Name,
		Benefits:        make([]Benefit, 0, len(p.BenefitEdges)),
		StartsAt:        startsAt,
		EndsAt:          endsAt,
		RequiredMinutes: p.RequiredMinutesWatched,
		Campaign:        c,
	}

	for _, edge := range p.BenefitEdges {
		d.Benefits = append(d.Benefits, Benefit{
			ID:       edge.Benefit.ID,
			Name:     edge.Benefit.Name,
			ImageURL: edge.Benefit.ImageAssetURL,
		})
	}

	if p.Self != nil {
		d.claimID = p.Self.DropInstanceID
		d.claimed = p.Self.IsClaimed
		d.currentMinutes = p.Self.CurrentMinutesWatched
	}

	for _, pre := range p.PreconditionDrops {
		d.Preconditions = append(d.Preconditions, pre.ID)
	}

	return d, nil
}

// Drop looks up a drop of this campaign by id.
func (c *DropsCampaign) Drop(id string) *TimedDrop {
	return c.dropsByID[id]
}

// Active reports whether now lies within [StartsAt, EndsAt).
func (c *DropsCampaign) Active(now time.Time) bool {
	return !now.Before(c.StartsAt) && now.Before(c.EndsAt)
}

// TotalDrops returns the number of drops in the campaign.
func (c *DropsCampaign) TotalDrops() int {
	return len(c.Drops)
}

// ClaimedDrops returns the number of claimed drops.
func (c *DropsCampaign) ClaimedDrops() int {
	n := 0
	for _, d := range c.Drops {
		if d.IsClaimed() {
			n++
		}
	}
	return n
}

// RemainingDrops returns the number of unclaimed drops.
func (c *DropsCampaign) RemainingDrops() int {
	return c.TotalDrops() - c.ClaimedDrops()
}

// Progress is the mean progress of all drops, or 0 for a campaign without drops.
func (c *DropsCampaign) Progress() float64 {
	if len(c.Drops) == 0 {
		return 0.0
	}
	var sum float64
	for _, d := range c.Drops {
		sum += d.Progress()
	}
	return sum / float64(len(c.Drops))
}

// RemainingMinutes sums remaining minutes over unclaimed drops.
func (c *DropsCampaign) RemainingMinutes() int {
	total := 0
	for _, d := range c.Drops {
		if !d.IsClaimed() {
			total += d.RemainingMinutes()
		}
	}
	return total
}

// Availability is the proportion of the campaign window still ahead of now.
// Campaigns with a non-positive duration have availability 0.
func (c *DropsCampaign) Availability(now time.Time) float64 {
	total := c.EndsAt.Sub(c.StartsAt)
	if total <= 0 {
		return 0.0
	}
	remaining := c.EndsAt.Sub(now)
	a := float64(remaining) / float64(total)
	if a < 0 {
		return 0.0
	}
	return a
}

// FirstDrop returns the earnable drop closest to completion, or nil.
func (c *DropsCampaign) FirstDrop(now time.Time) *TimedDrop {
	earnable := make([]*TimedDrop, 0, len(c.Drops))
	for _, d := range c.Drops {
		if d.CanEarn(now) {
			earnable = append(earnable, d)
		}
	}
	if len(earnable) == 0 {
		return nil
	}
	sort.SliceStable(earnable, func(i, j int) bool {
		return earnable[i].RemainingMinutes() < earnable[j].RemainingMinutes()
	})
	return earnable[0]
}

// HasEarnableDrop reports whether any drop can still be progressed.
func (c *DropsCampaign) HasEarnableDrop(now time.Time) bool {
	for _, d := range c.Drops {
		if d.CanEarn(now) {
			return true
		}
	}
	return false
}

// CanEarn reports whether the campaign can be progressed, optionally on a given channel.
func (c *DropsCampaign) CanEarn(ch *Channel, now time.Time) bool {
	if !c.Eligible || !c.Active(now) {
		return false
	}

	if ch != nil {
		if len(c.AllowedChannels) > 0 {
			if _, ok := c.AllowedChannels[ch.ID]; !ok {
				return false
			}
		}
		if ch.Game != nil && !ch.Game.Equal(c.Game) {
			return false
		}
	}

	return c.HasEarnableDrop(now)
}

func (c *DropsCampaign) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.Game.Name)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	return time.Parse(time.RFC3339, s)
}
