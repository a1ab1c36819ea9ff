package httpserver

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mselser95/drops-miner/internal/inventory"
	"github.com/mselser95/drops-miner/internal/miner"
	"go.uber.org/zap"
)

// MinerView is the read side of the miner exposed over HTTP.
type MinerView interface {
	Snapshot() miner.Snapshot
	Campaigns() []*inventory.DropsCampaign
	RequestRefresh()
}

// StatusHandler serves miner state as JSON.
type StatusHandler struct {
	miner  MinerView
	logger *zap.Logger
	now    func() time.Time
}

// NewStatusHandler creates a status handler.
func NewStatusHandler(m MinerView, logger *zap.Logger) *StatusHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &StatusHandler{
		miner:  m,
		logger: logger,
		now:    time.Now,
	}
}

// DropSummary is one drop of a campaign listing.
type DropSummary struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Rewards         string `json:"rewards"`
	CurrentMinutes  int    `json:"current_minutes"`
	RequiredMinutes int    `json:"required_minutes"`
	Claimed         bool   `json:"claimed"`
}

// CampaignSummary is one entry of GET /api/campaigns.
type CampaignSummary struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Game     string        `json:"game"`
	EndsAt   time.Time     `json:"ends_at"`
	Eligible bool          `json:"eligible"`
	Active   bool          `json:"active"`
	Claimed  int           `json:"claimed"`
	Total    int           `json:"total"`
	Drops    []DropSummary `json:"drops"`
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleStatus handles GET /api/status.
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.miner.Snapshot())
}

// HandleCampaigns handles GET /api/campaigns[?game=<name>].
func (h *StatusHandler) HandleCampaigns(w http.ResponseWriter, r *http.Request) {
	game := r.URL.Query().Get("game")
	now := h.now()

	campaigns := h.miner.Campaigns()
	out := make([]CampaignSummary, 0, len(campaigns))

	for _, c := range campaigns {
		if game != "" && c.Game.Name != game {
			continue
		}

		summary := CampaignSummary{
			ID:       c.ID,
			Name:     c.Name,
			Game:     c.Game.Name,
			EndsAt:   c.EndsAt,
			Eligible: c.Eligible,
			Active:   c.Active(now),
			Claimed:  c.ClaimedDrops(),
			Total:    c.TotalDrops(),
			Drops:    make([]DropSummary, 0, len(c.Drops)),
		}
		for _, d := range c.Drops {
			summary.Drops = append(summary.Drops, DropSummary{
				ID:              d.ID,
				Name:            d.Name,
				Rewards:         d.RewardsText(),
				CurrentMinutes:  d.CurrentMinutes(),
				RequiredMinutes: d.RequiredMinutes,
				Claimed:         d.IsClaimed(),
			})
		}
		out = append(out, summary)
	}

	h.logger.Debug("campaigns-request-served",
		zap.String("game", game),
		zap.Int("campaigns", len(out)))

	h.writeJSON(w, http.StatusOK, out)
}

// HandleRefresh handles POST /api/refresh by scheduling an inventory reload.
func (h *StatusHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	h.miner.RequestRefresh()
	h.logger.Info("inventory-refresh-requested", zap.String("remote-addr", r.RemoteAddr))

	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh scheduled"})
}

// HandleMethodNotAllowed answers unsupported methods on /api routes.
func (h *StatusHandler) HandleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
}

func (h *StatusHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}
