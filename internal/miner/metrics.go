package miner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StateGauge exposes the current orchestrator state as its numeric value.
	StateGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "drops_miner_state",
		Help: "Current miner state (0=idle ... 6=stopped)",
	})

	// WatchTicksTotal tracks watch loop ticks by outcome.
	WatchTicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drops_miner_watch_ticks_total",
			Help: "Total number of watch loop ticks",
		},
		[]string{"result"},
	)

	// ClaimsTotal tracks claim attempts by outcome.
	ClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drops_miner_claims_total",
			Help: "Total number of drop claim attempts",
		},
		[]string{"result"},
	)

	// InventoryRefreshTotal tracks inventory fetches by outcome.
	InventoryRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drops_miner_inventory_refresh_total",
			Help: "Total number of inventory fetches",
		},
		[]string{"result"},
	)

	// CampaignsLoaded tracks the size of the current inventory.
	CampaignsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "drops_miner_campaigns_loaded",
		Help: "Number of campaigns in the current inventory",
	})

	// DropEventsTotal tracks push events received on the drop events topic.
	DropEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drops_miner_drop_events_total",
			Help: "Total number of drop events received",
		},
		[]string{"type"},
	)
)
