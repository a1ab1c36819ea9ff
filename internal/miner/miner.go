package miner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/mselser95/drops-miner/internal/inventory"
	"github.com/mselser95/drops-miner/internal/settings"
	"github.com/mselser95/drops-miner/internal/storage"
	"github.com/mselser95/drops-miner/pkg/cache"
	"github.com/mselser95/drops-miner/pkg/types"
	"github.com/mselser95/drops-miner/pkg/websocket"
	"go.uber.org/zap"
)

// Gateway is the subset of the GQL client the miner uses.
type Gateway interface {
	CurrentUser(ctx context.Context) (*types.CurrentUserData, error)
	DropCampaigns(ctx context.Context) (*types.DropCampaignsData, error)
	Inventory(ctx context.Context) (*types.InventoryData, error)
	GameDirectory(ctx context.Context, slug string, limit int) (*types.GameDirectoryData, error)
	ClaimDrop(ctx context.Context, dropInstanceID string) (*types.ClaimDropData, error)
	Close() error
}

// EventPool is the push event subscription surface.
type EventPool interface {
	AddTopic(topic string, handler websocket.Handler) error
	Start(ctx context.Context)
	Stop()
}

// Config holds miner configuration.
type Config struct {
	Gateway   Gateway
	Settings  *settings.Store
	Watcher   Watcher
	NewPool   func() EventPool // called on every Start
	Directory *cache.Directory // optional, caches directory listings
	Storage   storage.Storage  // optional, records claims
	Sink      Sink

	WatchInterval   time.Duration // default: 20s
	RefreshInterval time.Duration // default: 1h
	ErrorPause      time.Duration // default: 5s
	RestartDelay    time.Duration // default: 2s
	DirectoryLimit  int           // default: 30
	KnownChannels   int           // 0 keeps every directory channel seen

	Now    func() time.Time
	Logger *zap.Logger
}

// Miner orchestrates login, inventory, channel selection, watching and claiming.
type Miner struct {
	cfg    Config
	logger *zap.Logger
	sink   Sink
	latch  *LoginLatch
	state  atomic.Int32

	// lifecycle; lifecycleMu is held for run setup and for the whole teardown,
	// never across network calls
	lifecycleMu sync.Mutex
	running     atomic.Bool
	cancel      context.CancelFunc
	startDone   chan struct{}
	pool        EventPool
	wg          sync.WaitGroup
	refresh     chan struct{}

	// inventory, replaced as a whole
	invMu         sync.RWMutex
	campaigns     []*inventory.DropsCampaign
	games         map[int]*inventory.Game
	lastInventory time.Time

	// watch state
	switchMu    sync.Mutex
	watchMu     sync.RWMutex
	channels    *expirable.LRU[string, *inventory.Channel]
	watching    *inventory.Channel
	currentDrop *inventory.TimedDrop
}

// New creates a stopped miner.
func New(cfg Config) *Miner {
	if cfg.WatchInterval == 0 {
		cfg.WatchInterval = 20 * time.Second
	}
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = time.Hour
	}
	if cfg.ErrorPause == 0 {
		cfg.ErrorPause = 5 * time.Second
	}
	if cfg.RestartDelay == 0 {
		cfg.RestartDelay = 2 * time.Second
	}
	if cfg.DirectoryLimit == 0 {
		cfg.DirectoryLimit = 30
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Sink == nil {
		cfg.Sink = NewLogSink(cfg.Logger)
	}

	return &Miner{
		cfg:      cfg,
		logger:   cfg.Logger,
		sink:     cfg.Sink,
		latch:    NewLoginLatch(),
		games:    make(map[int]*inventory.Game),
		channels: expirable.NewLRU[string, *inventory.Channel](cfg.KnownChannels, nil, 0),
		refresh:  make(chan struct{}, 1),
	}
}

// State returns the current lifecycle state.
func (m *Miner) State() State {
	return State(m.state.Load())
}

func (m *Miner) setState(s State) {
	prev := State(m.state.Swap(int32(s)))
	StateGauge.Set(float64(s))
	if prev != s {
		m.logger.Debug("miner-state-changed",
			zap.Stringer("from", prev),
			zap.Stringer("to", s))
	}
}

// Running reports whether the miner has been started and not stopped. It is
// true while Start is still in progress.
func (m *Miner) Running() bool {
	return m.running.Load()
}

// Start logs in if needed, loads the inventory, starts the event pool, picks a
// channel and launches the background loops. It is a no-op when already running.
// Any failure runs the full stop path before the error is returned. A concurrent
// Stop interrupts a Start in progress.
func (m *Miner) Start(ctx context.Context) error {
	m.lifecycleMu.Lock()
	if m.running.Load() {
		m.lifecycleMu.Unlock()
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel = cancel
	m.startDone = done
	m.running.Store(true)
	m.lifecycleMu.Unlock()

	m.emitPrint("Starting miner...")

	err := m.start(runCtx)
	close(done)

	if err != nil {
		if isCancelled(runCtx, err) {
			m.logger.Info("miner-start-interrupted", zap.Error(err))
		} else {
			m.logger.Error("miner-start-failed", zap.Error(err))
			m.emitPrint(fmt.Sprintf("Error starting miner: %v", err))
			m.emitStatus("Error")
		}
		m.stop(done)
		return err
	}

	m.emitPrint("Miner started successfully")
	m.emitStatus("Running")

	return nil
}

func (m *Miner) start(ctx context.Context) error {
	if !m.latch.IsSet() {
		err := m.Login(ctx)
		if err != nil {
			return err
		}
	}

	err := m.FetchInventory(ctx)
	if err != nil {
		return err
	}
	m.claimPending(ctx)

	if m.cfg.NewPool != nil {
		err = m.startPool(ctx)
		if err != nil {
			return err
		}
	}

	err = m.SwitchChannel(ctx, nil)
	if err != nil {
		return err
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	m.wg.Add(2)
	go m.watchLoop(ctx)
	go m.maintenanceLoop(ctx)

	return nil
}

func (m *Miner) startPool(ctx context.Context) error {
	id, _ := m.latch.Value()

	pool := m.cfg.NewPool()
	m.pool = pool

	err := pool.AddTopic(fmt.Sprintf("user-drop-events.%d", id.UserID), m.HandleDropEvent)
	if err != nil {
		return fmt.Errorf("subscribe drop events: %w", err)
	}

	err = pool.AddTopic(fmt.Sprintf("onsite-notifications.%d", id.UserID), m.HandleNotification)
	if err != nil {
		return fmt.Errorf("subscribe notifications: %w", err)
	}

	pool.Start(ctx)

	return nil
}

// Stop cancels the background loops and waits for them, stops the event pool
// and closes the gateway. A Start in progress is cancelled and awaited first.
// It is idempotent.
func (m *Miner) Stop() {
	m.stop(nil)
}

// stop tears down the run whose Start closes done, or the current run when
// done is nil.
func (m *Miner) stop(done chan struct{}) {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	if !m.running.Load() || (done != nil && m.startDone != done) {
		return
	}

	m.emitPrint("Stopping miner...")
	m.emitStatus("Stopping...")

	m.cancel()
	<-m.startDone
	m.wg.Wait()

	if m.pool != nil {
		m.pool.Stop()
		m.pool = nil
	}

	err := m.cfg.Gateway.Close()
	if err != nil {
		m.logger.Warn("gateway-close-failed", zap.Error(err))
	}

	m.running.Store(false)
	m.setState(StateStopped)
	m.emitPrint("Miner stopped")
	m.emitStatus("Stopped")
}

// Restart stops the miner, pauses briefly and starts it again.
func (m *Miner) Restart(ctx context.Context) error {
	m.Stop()

	timer := time.NewTimer(m.cfg.RestartDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}

	return m.Start(ctx)
}

// pause sleeps for d or until ctx is done.
func pause(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// isCancelled reports whether err stems from ctx cancellation.
func isCancelled(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}
