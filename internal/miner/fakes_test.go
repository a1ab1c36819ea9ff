package miner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mselser95/drops-miner/internal/inventory"
	"github.com/mselser95/drops-miner/internal/settings"
	"github.com/mselser95/drops-miner/internal/storage"
	"github.com/mselser95/drops-miner/pkg/types"
	"github.com/mselser95/drops-miner/pkg/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type testStream struct {
	id      int
	login   string
	viewers int
}

type testCampaign struct {
	id       string
	gameID   int
	game     string
	dropID   string
	claimID  string
	required int
}

func (c testCampaign) slug() string {
	return strings.ReplaceAll(strings.ToLower(c.game), " ", "-")
}

func (c testCampaign) payload() string {
	start := testNow.Add(-time.Hour).Format(time.RFC3339)
	end := testNow.Add(24 * time.Hour).Format(time.RFC3339)
	return fmt.Sprintf(`{"id":%q,"name":"Campaign %s","status":"ACTIVE",`+
		`"game":{"id":"%d","displayName":%q,"slug":%q},"startAt":%q,"endAt":%q,`+
		`"self":{"isAccountConnected":true},"timeBasedDrops":[{"id":%q,"name":"Drop %s",`+
		`"startAt":%q,"endAt":%q,"requiredMinutesWatched":%d,`+
		`"self":{"dropInstanceID":%q,"isClaimed":false,"currentMinutesWatched":0}}]}`,
		c.id, c.id, c.gameID, c.game, c.slug(), start, end,
		c.dropID, c.dropID, start, end, c.required, c.claimID)
}

type fakeGateway struct {
	mu           sync.Mutex
	userGate     chan struct{} // CurrentUser blocks until closed
	userErr      error
	noUser       bool
	campaigns    []testCampaign
	directories  map[string][]testStream
	claimErr     error
	claimCalls   []string
	dirCalls     int
	dirErr       error
	closeCalls   int
	inventoryErr error
	progress     map[string]int // drop id -> minutes reported by the Inventory query
	progressErr  error
}

func (g *fakeGateway) CurrentUser(ctx context.Context) (*types.CurrentUserData, error) {
	if g.userGate != nil {
		select {
		case <-g.userGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.userErr != nil {
		return nil, g.userErr
	}
	var data types.CurrentUserData
	if !g.noUser {
		err := json.Unmarshal([]byte(`{"currentUser":{"id":"1234","login":"miner"}}`), &data)
		if err != nil {
			return nil, err
		}
	}
	return &data, nil
}

func (g *fakeGateway) DropCampaigns(ctx context.Context) (*types.DropCampaignsData, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.inventoryErr != nil {
		return nil, g.inventoryErr
	}

	parts := make([]string, 0, len(g.campaigns))
	for _, c := range g.campaigns {
		parts = append(parts, c.payload())
	}

	var data types.DropCampaignsData
	raw := `{"currentUser":{"id":"1234","dropCampaigns":[` + strings.Join(parts, ",") + `]}}`
	err := json.Unmarshal([]byte(raw), &data)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

func (g *fakeGateway) Inventory(ctx context.Context) (*types.InventoryData, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.progressErr != nil {
		return nil, g.progressErr
	}

	drops := make([]string, 0, len(g.progress))
	for id, minutes := range g.progress {
		drops = append(drops, fmt.Sprintf(
			`{"id":%q,"self":{"currentMinutesWatched":%d,"isClaimed":false}}`, id, minutes))
	}

	var data types.InventoryData
	raw := `{"currentUser":{"id":"1234","inventory":{"dropCampaignsInProgress":[{"id":"p","timeBasedDrops":[` +
		strings.Join(drops, ",") + `]}]}}}`
	err := json.Unmarshal([]byte(raw), &data)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

func (g *fakeGateway) GameDirectory(ctx context.Context, slug string, limit int) (*types.GameDirectoryData, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.dirCalls++
	if g.dirErr != nil {
		return nil, g.dirErr
	}

	edges := make([]string, 0, len(g.directories[slug]))
	for _, s := range g.directories[slug] {
		edges = append(edges, fmt.Sprintf(
			`{"node":{"viewersCount":%d,"broadcaster":{"id":"%d","login":%q,"displayName":%q}}}`,
			s.viewers, s.id, s.login, strings.ToUpper(s.login)))
	}

	var data types.GameDirectoryData
	raw := `{"game":{"id":"1","name":"x","streams":{"edges":[` + strings.Join(edges, ",") + `]}}}`
	err := json.Unmarshal([]byte(raw), &data)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

func (g *fakeGateway) ClaimDrop(ctx context.Context, dropInstanceID string) (*types.ClaimDropData, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.claimCalls = append(g.claimCalls, dropInstanceID)
	if g.claimErr != nil {
		return nil, g.claimErr
	}

	var data types.ClaimDropData
	raw := fmt.Sprintf(`{"claimDropRewards":{"status":"ELIGIBLE_FOR_ALL","dropInstanceID":%q}}`, dropInstanceID)
	err := json.Unmarshal([]byte(raw), &data)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

func (g *fakeGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.closeCalls++
	return nil
}

func (g *fakeGateway) claims() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return append([]string(nil), g.claimCalls...)
}

func (g *fakeGateway) setClaimErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.claimErr = err
}

type fakePool struct {
	mu      sync.Mutex
	topics  map[string]websocket.Handler
	started int
	stopped int
}

func (p *fakePool) AddTopic(topic string, handler websocket.Handler) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.topics == nil {
		p.topics = make(map[string]websocket.Handler)
	}
	p.topics[topic] = handler
	return nil
}

func (p *fakePool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.started++
}

func (p *fakePool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopped++
}

type fakeWatcher struct {
	mu    sync.Mutex
	calls []string
	errs  []error
}

func (w *fakeWatcher) Watch(ctx context.Context, channel *inventory.Channel) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.calls = append(w.calls, channel.Login)
	if len(w.errs) > 0 {
		err := w.errs[0]
		w.errs = w.errs[1:]
		return err
	}
	return nil
}

func (w *fakeWatcher) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return len(w.calls)
}

type recordingSink struct {
	mu       sync.Mutex
	prints   []string
	statuses []string
	channels []string
	notices  []string
}

func (s *recordingSink) Print(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prints = append(s.prints, message)
}

func (s *recordingSink) Status(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, text)
}

func (s *recordingSink) Progress(current, total int) {}

func (s *recordingSink) Channel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels = append(s.channels, name)
}

func (s *recordingSink) Drop(drop *inventory.TimedDrop) {}

func (s *recordingSink) Inventory(campaigns []*inventory.DropsCampaign) {}

func (s *recordingSink) Notify(title, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, title+": "+body)
}

func (s *recordingSink) lastStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.statuses) == 0 {
		return ""
	}
	return s.statuses[len(s.statuses)-1]
}

func (s *recordingSink) notifications() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.notices...)
}

type panicSink struct{}

func (panicSink) Print(string) { panic("print") }
func (panicSink) Status(string) { panic("status") }
func (panicSink) Progress(int, int) { panic("progress") }
func (panicSink) Channel(string) { panic("channel") }
func (panicSink) Drop(*inventory.TimedDrop) { panic("drop") }
func (panicSink) Inventory([]*inventory.DropsCampaign) { panic("inventory") }
func (panicSink) Notify(string, string) { panic("notify") }

type memoryStorage struct {
	mu      sync.Mutex
	records []*storage.ClaimRecord
}

func (s *memoryStorage) StoreClaim(ctx context.Context, rec *storage.ClaimRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *memoryStorage) Close() error { return nil }

type mapCache struct {
	mu   sync.Mutex
	data map[string]interface{}
}

func (c *mapCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *mapCache) Set(key string, value interface{}, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = make(map[string]interface{})
	}
	c.data[key] = value
	return true
}

func (c *mapCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

func (c *mapCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
}

func (c *mapCache) Close() {}

type harness struct {
	miner    *Miner
	gateway  *fakeGateway
	watcher  *fakeWatcher
	sink     *recordingSink
	settings *settings.Store
	storage  *memoryStorage

	poolsMu sync.Mutex
	pools   []*fakePool
}

func (h *harness) lastPool() *fakePool {
	h.poolsMu.Lock()
	defer h.poolsMu.Unlock()
	if len(h.pools) == 0 {
		return nil
	}
	return h.pools[len(h.pools)-1]
}

func (h *harness) poolCount() int {
	h.poolsMu.Lock()
	defer h.poolsMu.Unlock()
	return len(h.pools)
}

// newHarness builds a miner whose watch loop effectively never fires, so
// tests drive ticks through Tick.
func newHarness(t *testing.T, gw *fakeGateway, mutate func(*Config)) *harness {
	t.Helper()

	store := settings.NewStore(filepath.Join(t.TempDir(), "settings.json"), zap.NewNop())
	store.Update(func(s *settings.Settings) { s.OAuthToken = "token" })

	h := &harness{
		gateway:  gw,
		watcher:  &fakeWatcher{},
		sink:     &recordingSink{},
		settings: store,
		storage:  &memoryStorage{},
	}

	cfg := Config{
		Gateway:  gw,
		Settings: store,
		Watcher:  h.watcher,
		NewPool: func() EventPool {
			h.poolsMu.Lock()
			defer h.poolsMu.Unlock()
			p := &fakePool{}
			h.pools = append(h.pools, p)
			return p
		},
		Storage:         h.storage,
		Sink:            h.sink,
		WatchInterval:   time.Hour,
		RefreshInterval: time.Hour,
		ErrorPause:      time.Millisecond,
		RestartDelay:    time.Millisecond,
		Now:             func() time.Time { return testNow },
		Logger:          zap.NewNop(),
	}
	if mutate != nil {
		mutate(&cfg)
	}

	h.miner = New(cfg)
	t.Cleanup(h.miner.Stop)

	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	require.NoError(t, h.miner.Start(context.Background()))
}

var errBoom = errors.New("boom")
