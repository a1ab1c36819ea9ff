package inventory

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// PriorityMode selects how candidate campaigns are ordered.
type PriorityMode string

const (
	PriorityOnly    PriorityMode = "priority_only"
	EndingSoonest   PriorityMode = "ending_soonest"
	LowAvailability PriorityMode = "low_availability"
)

// unlistedPriority is the position given to games missing from the priority list.
const unlistedPriority = math.MaxInt32

// ParsePriorityMode validates a priority mode string.
func ParsePriorityMode(s string) (PriorityMode, error) {
	switch PriorityMode(s) {
	case PriorityOnly, EndingSoonest, LowAvailability:
		return PriorityMode(s), nil
	case "":
		return PriorityOnly, nil
	}
	return "", fmt.Errorf("unknown priority mode %q", s)
}

// SortCampaigns orders campaigns in place according to mode. The sort is stable,
// so equal keys keep their input order. Unknown modes fall back to PriorityOnly.
func SortCampaigns(campaigns []*DropsCampaign, mode PriorityMode, priority []string, now time.Time) {
	switch mode {
	case EndingSoonest:
		sort.SliceStable(campaigns, func(i, j int) bool {
			return campaigns[i].EndsAt.Before(campaigns[j].EndsAt)
		})
	case LowAvailability:
		sort.SliceStable(campaigns, func(i, j int) bool {
			return campaigns[i].Availability(now) < campaigns[j].Availability(now)
		})
	default:
		positions := make(map[string]int, len(priority))
		for i, name := range priority {
			if _, seen := positions[name]; !seen {
				positions[name] = i
			}
		}
		rank := func(c *DropsCampaign) int {
			if pos, ok := positions[c.Game.Name]; ok {
				return pos
			}
			return unlistedPriority
		}
		sort.SliceStable(campaigns, func(i, j int) bool {
			return rank(campaigns[i]) < rank(campaigns[j])
		})
	}
}
