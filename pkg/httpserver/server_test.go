package httpserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mselser95/drops-miner/internal/inventory"
	"github.com/mselser95/drops-miner/internal/miner"
	"github.com/mselser95/drops-miner/pkg/healthprobe"
	"go.uber.org/zap"
)

type fakeMiner struct {
	snapshot  miner.Snapshot
	campaigns []*inventory.DropsCampaign
	refreshes atomic.Int32
}

func (f *fakeMiner) Snapshot() miner.Snapshot { return f.snapshot }
func (f *fakeMiner) Campaigns() []*inventory.DropsCampaign { return f.campaigns }
func (f *fakeMiner) RequestRefresh() { f.refreshes.Add(1) }

func newFakeMiner() *fakeMiner {
	now := time.Now()
	return &fakeMiner{
		snapshot: miner.Snapshot{
			State:     miner.StateWatching,
			Running:   true,
			Login:     "miner",
			Channel:   "streamer",
			Campaigns: 2,
			Games:     []string{"GameA", "GameB"},
		},
		campaigns: []*inventory.DropsCampaign{
			inventory.NewTestCampaign("a", 1, "GameA", now.Add(-time.Hour), now.Add(time.Hour),
				inventory.TestDrop{ID: "d1", Required: 60, Current: 15}),
			inventory.NewTestCampaign("b", 2, "GameB", now.Add(-time.Hour), now.Add(time.Hour),
				inventory.TestDrop{ID: "d2", Required: 30, Claimed: true}),
		},
	}
}

func serve(s *Server, method, target string) *http.Response {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(w, req)
	return w.Result()
}

func TestNew(t *testing.T) {
	logger := zap.NewNop()
	healthChecker := healthprobe.New()

	tests := []struct {
		name string
		cfg  *Config
	}{
		{
			name: "minimal",
			cfg: &Config{
				Port:          "8080",
				Logger:        logger,
				HealthChecker: healthChecker,
			},
		},
		{
			name: "with_miner",
			cfg: &Config{
				Port:          "8080",
				Logger:        logger,
				HealthChecker: healthChecker,
				Miner:         newFakeMiner(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := New(tt.cfg)
			if server.server == nil {
				t.Fatal("New() server.server is nil")
			}
			if server.server.Addr != ":8080" {
				t.Errorf("Addr = %s, want :8080", server.server.Addr)
			}
			if server.healthChecker != tt.cfg.HealthChecker {
				t.Error("New() healthChecker not set correctly")
			}
		})
	}
}

func TestProbeEndpoints(t *testing.T) {
	hc := healthprobe.New()
	server := New(&Config{Port: "0", Logger: zap.NewNop(), HealthChecker: hc})

	resp := serve(server, http.MethodGet, "/health")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/health status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	resp = serve(server, http.MethodGet, "/ready")
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("/ready status = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}

	hc.SetReady(true)
	resp = serve(server, http.MethodGet, "/ready")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/ready status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server := New(&Config{Port: "0", Logger: zap.NewNop(), HealthChecker: healthprobe.New()})

	resp := serve(server, http.MethodGet, "/metrics")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Metrics endpoint status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read metrics response body: %v", err)
	}
	if len(body) == 0 {
		t.Error("Metrics endpoint returned empty body")
	}
}

func TestStatusEndpoint(t *testing.T) {
	server := New(&Config{
		Port:          "0",
		Logger:        zap.NewNop(),
		HealthChecker: healthprobe.New(),
		Miner:         newFakeMiner(),
	})

	resp := serve(server, http.MethodGet, "/api/status")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body map[string]any
	err := json.NewDecoder(resp.Body).Decode(&body)
	if err != nil {
		t.Fatalf("Failed to decode status: %v", err)
	}

	if body["state"] != "watching" {
		t.Errorf("state = %v, want watching", body["state"])
	}
	if body["channel"] != "streamer" {
		t.Errorf("channel = %v, want streamer", body["channel"])
	}
}

func TestCampaignsEndpoint(t *testing.T) {
	server := New(&Config{
		Port:          "0",
		Logger:        zap.NewNop(),
		HealthChecker: healthprobe.New(),
		Miner:         newFakeMiner(),
	})

	tests := []struct {
		name      string
		target    string
		wantCount int
	}{
		{name: "all", target: "/api/campaigns", wantCount: 2},
		{name: "filtered", target: "/api/campaigns?game=GameB", wantCount: 1},
		{name: "unknown_game", target: "/api/campaigns?game=Nope", wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := serve(server, http.MethodGet, tt.target)
			defer resp.Body.Close()

			var body []CampaignSummary
			err := json.NewDecoder(resp.Body).Decode(&body)
			if err != nil {
				t.Fatalf("Failed to decode campaigns: %v", err)
			}
			if len(body) != tt.wantCount {
				t.Fatalf("campaigns = %d, want %d", len(body), tt.wantCount)
			}
		})
	}

	resp := serve(server, http.MethodGet, "/api/campaigns?game=GameA")
	defer resp.Body.Close()

	var body []CampaignSummary
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if len(body) != 1 || len(body[0].Drops) != 1 {
		t.Fatalf("unexpected body: %+v", body)
	}
	drop := body[0].Drops[0]
	if drop.CurrentMinutes != 15 || drop.RequiredMinutes != 60 || drop.Claimed {
		t.Errorf("drop = %+v", drop)
	}
	if !body[0].Active || body[0].Total != 1 {
		t.Errorf("campaign = %+v", body[0])
	}
}

func TestRefreshEndpoint(t *testing.T) {
	fm := newFakeMiner()
	server := New(&Config{
		Port:          "0",
		Logger:        zap.NewNop(),
		HealthChecker: healthprobe.New(),
		Miner:         fm,
	})

	resp := serve(server, http.MethodPost, "/api/refresh")
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("refresh status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}
	if fm.refreshes.Load() != 1 {
		t.Errorf("refreshes = %d, want 1", fm.refreshes.Load())
	}

	resp = serve(server, http.MethodGet, "/api/refresh")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET refresh status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}

	var errResp ErrorResponse
	err := json.NewDecoder(resp.Body).Decode(&errResp)
	if err != nil || errResp.Error == "" {
		t.Errorf("error response = %+v, err = %v", errResp, err)
	}
}

func TestAPIRoutesAbsentWithoutMiner(t *testing.T) {
	server := New(&Config{Port: "0", Logger: zap.NewNop(), HealthChecker: healthprobe.New()})

	resp := serve(server, http.MethodGet, "/api/status")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	server := New(&Config{Port: "0", Logger: zap.NewNop(), HealthChecker: healthprobe.New()})

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Start()
	}()

	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}

	select {
	case err := <-serverDone:
		if err != nil {
			t.Errorf("Start() returned error after shutdown: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after shutdown")
	}
}
