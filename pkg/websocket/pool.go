package websocket

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrPoolFull is returned when every connection is at its topic limit and no
// further connection may be opened.
var ErrPoolFull = errors.New("pubsub pool: topic limit reached")

// PoolConfig holds PubSub pool configuration.
type PoolConfig struct {
	MaxConnections      int    // default: 10
	TopicsPerConnection int    // default: 50
	Connection          Config // template for every connection
	Logger              *zap.Logger
}

// Pool spreads topics over as few connections as the per-connection limit allows.
type Pool struct {
	cfg     PoolConfig
	logger  *zap.Logger
	mu      sync.Mutex
	conns   []*Connection
	topics  map[string]int // topic -> connection index
	ctx     context.Context
	running bool
}

// NewPool creates an empty pool.
func NewPool(cfg PoolConfig) *Pool {
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 10
	}
	if cfg.TopicsPerConnection <= 0 {
		cfg.TopicsPerConnection = 50
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Pool{
		cfg:    cfg,
		logger: cfg.Logger,
		topics: make(map[string]int),
	}
}

// AddTopic registers topic on the last connection with spare capacity, opening
// a new connection when all are full. Duplicate topics are ignored.
func (p *Pool) AddTopic(topic string, handler Handler) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.topics[topic]; exists {
		return nil
	}

	index := len(p.conns) - 1
	if index < 0 || p.conns[index].TopicCount() >= p.cfg.TopicsPerConnection {
		if len(p.conns) >= p.cfg.MaxConnections {
			p.logger.Warn("pool-full",
				zap.String("topic", topic),
				zap.Int("connections", len(p.conns)))
			return ErrPoolFull
		}
		index = p.provision()
	}

	conn := p.conns[index]
	conn.AddTopic(topic, handler)
	p.topics[topic] = index

	// a fresh connection of a running pool has not dialed yet, so it
	// picks the topic up with its first LISTEN
	if p.running {
		conn.Start(p.ctx)
	}

	PoolTopics.Set(float64(len(p.topics)))

	p.logger.Debug("pool-topic-added",
		zap.String("topic", topic),
		zap.Int("connection-id", index))

	return nil
}

// provision appends a new connection. Must be called with p.mu held.
func (p *Pool) provision() int {
	index := len(p.conns)

	cfg := p.cfg.Connection
	base := cfg.Logger
	if base == nil {
		base = p.logger
	}
	cfg.Logger = base.With(zap.Int("connection-id", index))

	p.conns = append(p.conns, NewConnection(cfg))
	PoolConnections.Set(float64(len(p.conns)))

	return index
}

// Start starts every connection, provisioning one if the pool is empty.
// Calling Start on a running pool is a no-op.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}

	if len(p.conns) == 0 {
		p.provision()
	}

	p.ctx = ctx
	p.running = true

	for _, conn := range p.conns {
		conn.Start(ctx)
	}

	p.logger.Info("websocket-pool-started",
		zap.Int("connections", len(p.conns)),
		zap.Int("topics", len(p.topics)))
}

// Stop stops every connection concurrently and waits for all of them.
// It is idempotent and safe when the pool was never started.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	conns := make([]*Connection, len(p.conns))
	copy(conns, p.conns)
	p.mu.Unlock()

	p.logger.Info("closing-websocket-pool")

	var stopWg sync.WaitGroup
	for _, conn := range conns {
		stopWg.Add(1)
		go func(c *Connection) {
			defer stopWg.Done()
			c.Stop()
		}(conn)
	}
	stopWg.Wait()

	p.logger.Info("websocket-pool-closed")
}

// Running reports whether the pool has been started and not stopped.
func (p *Pool) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.running
}

// Connections returns the pool's connections in provisioning order.
func (p *Pool) Connections() []*Connection {
	p.mu.Lock()
	defer p.mu.Unlock()

	conns := make([]*Connection, len(p.conns))
	copy(conns, p.conns)

	return conns
}

// TopicCount returns the number of registered topics.
func (p *Pool) TopicCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.topics)
}
