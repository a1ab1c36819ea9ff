package inventory

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Benefit is a single reward item granted by a drop.
type Benefit struct {
	ID       string
	Name     string
	ImageURL string
}

// TimedDrop is a watch-time gated reward unit within a campaign.
//
// Static fields are set once at parse time. Minutes, claim id and claimed flag
// are written by both the watch loop and pubsub events, so they live behind mu.
type TimedDrop struct {
	ID              string
	Name            string
	Benefits        []Benefit
	StartsAt        time.Time
	EndsAt          time.Time
	RequiredMinutes int
	Preconditions   []string
	Campaign        *DropsCampaign

	mu             sync.RWMutex
	currentMinutes int
	claimID        string
	claimed        bool
}

// CurrentMinutes returns the accrued watch minutes.
func (d *TimedDrop) CurrentMinutes() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.currentMinutes
}

// ClaimID returns the drop instance id used to claim the reward, or "".
func (d *TimedDrop) ClaimID() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.claimID
}

// SetClaimID records the drop instance id once the platform assigns one.
func (d *TimedDrop) SetClaimID(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.claimID == "" {
		d.claimID = id
	}
}

// IsClaimed reports whether the reward has been redeemed.
func (d *TimedDrop) IsClaimed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.claimed
}

// MarkClaimed flips the claimed flag. It returns false if the drop was already claimed.
func (d *TimedDrop) MarkClaimed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.claimed {
		return false
	}
	d.claimed = true
	return true
}

// AddMinutes increments the accrued minutes and returns the new value.
// Non-positive increments are ignored.
func (d *TimedDrop) AddMinutes(n int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n > 0 {
		d.currentMinutes += n
	}
	return d.currentMinutes
}

// SetMinutes applies a progress value reported by the platform.
// Minutes never go backwards: a stale, lower value is ignored and false is returned.
func (d *TimedDrop) SetMinutes(m int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if m < d.currentMinutes {
		return false
	}
	d.currentMinutes = m
	return true
}

// Progress returns completion as a fraction in [0, 1].
func (d *TimedDrop) Progress() float64 {
	if d.RequiredMinutes <= 0 {
		return 1.0
	}
	p := float64(d.CurrentMinutes()) / float64(d.RequiredMinutes)
	if p > 1.0 {
		return 1.0
	}
	if p < 0 {
		return 0
	}
	return p
}

// RemainingMinutes returns the minutes still needed, never negative.
func (d *TimedDrop) RemainingMinutes() int {
	remaining := d.RequiredMinutes - d.CurrentMinutes()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsComplete reports whether enough minutes have been watched.
func (d *TimedDrop) IsComplete() bool {
	return d.CurrentMinutes() >= d.RequiredMinutes
}

// Active reports whether now lies within [StartsAt, EndsAt).
func (d *TimedDrop) Active(now time.Time) bool {
	return !now.Before(d.StartsAt) && now.Before(d.EndsAt)
}

// CanEarn reports whether watching can still progress this drop.
func (d *TimedDrop) CanEarn(now time.Time) bool {
	return d.Active(now) && !d.IsClaimed() && !d.IsComplete()
}

// RewardsText joins benefit names for display.
func (d *TimedDrop) RewardsText() string {
	if len(d.Benefits) == 0 {
		return "No rewards"
	}
	names := make([]string, 0, len(d.Benefits))
	for _, b := range d.Benefits {
		names = append(names, b.Name)
	}
	return strings.Join(names, ", ")
}

func (d *TimedDrop) String() string {
	return fmt.Sprintf("%s (%d/%dmin)", d.Name, d.CurrentMinutes(), d.RequiredMinutes)
}
