package websocket

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/mselser95/drops-miner/pkg/types"
	"go.uber.org/zap"
)

// DefaultURL is the PubSub endpoint.
const DefaultURL = "wss://pubsub-edge.twitch.tv/v1"

const nonceLength = 30

var (
	// ErrConnectionLost is returned by a session when no PONG arrived in time.
	ErrConnectionLost = errors.New("pubsub: connection lost")

	// errReconnectRequested ends a session after the server sent RECONNECT.
	errReconnectRequested = errors.New("pubsub: reconnect requested")
)

// State is the lifecycle state of a Connection.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribing
	StateActive
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateSubscribing:
		return "subscribing"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Handler receives the decoded message payload of one topic.
type Handler func(ctx context.Context, message []byte) error

// Dialer opens websocket connections. *websocket.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// Config holds PubSub connection configuration.
type Config struct {
	URL          string
	Token        func() string
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	PingInterval time.Duration
	PongTimeout  time.Duration
	ReadSlice    time.Duration // longest wait for a frame per loop iteration
	Reconnect    ReconnectConfig
	Dialer       Dialer
	Now          func() time.Time
	Logger       *zap.Logger
}

func (cfg *Config) applyDefaults() {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Token == nil {
		cfg.Token = func() string { return "" }
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PingInterval == 0 {
		cfg.PingInterval = 4 * time.Minute
	}
	if cfg.PongTimeout == 0 {
		cfg.PongTimeout = 10 * time.Second
	}
	if cfg.ReadSlice == 0 {
		cfg.ReadSlice = 500 * time.Millisecond
	}
	if cfg.Reconnect.InitialDelay == 0 {
		cfg.Reconnect = ReconnectConfig{
			InitialDelay:      5 * time.Second,
			MaxDelay:          5 * time.Second,
			BackoffMultiplier: 1.0,
		}
	}
	if cfg.Dialer == nil {
		cfg.Dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.DialTimeout,
		}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
}

// Connection is one PubSub websocket carrying a fixed set of topics.
// It reconnects on its own until Stop is called.
type Connection struct {
	cfg          Config
	logger       *zap.Logger
	reconnectMgr *ReconnectManager

	mu       sync.Mutex
	topics   []string
	handlers map[string]Handler
	cancel   context.CancelFunc
	running  bool

	state atomic.Int32
	wg    sync.WaitGroup
}

// NewConnection creates a new, stopped connection.
func NewConnection(cfg Config) *Connection {
	cfg.applyDefaults()

	return &Connection{
		cfg:          cfg,
		logger:       cfg.Logger,
		reconnectMgr: NewReconnectManager(cfg.Reconnect, cfg.Logger),
		handlers:     make(map[string]Handler),
	}
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	return State(c.state.Load())
}

func (c *Connection) setState(s State) {
	prev := State(c.state.Swap(int32(s)))
	if prev != s {
		c.logger.Debug("websocket-state-changed",
			zap.Stringer("from", prev),
			zap.Stringer("to", s))
	}
}

// AddTopic registers a topic and its handler. Topics are sent with the next
// LISTEN, so a topic added while active takes effect on reconnect.
// Returns false if the topic was already registered.
func (c *Connection) AddTopic(topic string, handler Handler) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.handlers[topic]; exists {
		return false
	}

	c.topics = append(c.topics, topic)
	c.handlers[topic] = handler

	return true
}

// Topics returns a copy of the registered topics.
func (c *Connection) Topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	topics := make([]string, len(c.topics))
	copy(topics, c.topics)

	return topics
}

// TopicCount returns the number of registered topics.
func (c *Connection) TopicCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.topics)
}

func (c *Connection) handler(topic string) Handler {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.handlers[topic]
}

// Start launches the connection loop. Calling Start on a running connection is a no-op.
func (c *Connection) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.running = true

	c.logger.Info("websocket-connection-starting",
		zap.String("url", c.cfg.URL),
		zap.Int("topics", len(c.topics)))

	c.wg.Add(1)
	go c.run(runCtx)
}

// Stop closes the socket and waits for the loop to exit.
// It is idempotent and safe to call before Start.
func (c *Connection) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	cancel()
	c.wg.Wait()

	c.logger.Info("websocket-connection-stopped")
}

// run keeps a session alive until ctx is cancelled.
func (c *Connection) run(ctx context.Context) {
	defer c.wg.Done()
	defer c.setState(StateDisconnected)

	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return
		}

		c.setState(StateDisconnected)
		c.logger.Warn("websocket-session-ended", zap.Error(err))

		err = c.reconnectMgr.Wait(ctx)
		if err != nil {
			return
		}
	}
}

// session dials, subscribes and runs the active loop for one socket.
func (c *Connection) session(ctx context.Context) error {
	c.setState(StateConnecting)

	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	conn, resp, err := c.cfg.Dialer.DialContext(dialCtx, c.cfg.URL, nil)
	cancel()
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		SessionsEndedTotal.WithLabelValues("dial_error").Inc()
		return fmt.Errorf("dial pubsub: %w", err)
	}

	connectedAt := time.Now()
	c.logger.Info("websocket-connected", zap.String("url", c.cfg.URL))

	frames := make(chan []byte)
	readErrs := make(chan error, 1)
	done := make(chan struct{})

	var readerWg sync.WaitGroup
	readerWg.Add(1)
	go c.readLoop(conn, frames, readErrs, done, &readerWg)

	defer func() {
		close(done)
		_ = conn.Close()
		readerWg.Wait()
		ConnectionDuration.Observe(time.Since(connectedAt).Seconds())
	}()

	c.setState(StateSubscribing)

	topics := c.Topics()
	if len(topics) > 0 {
		err = c.writeJSON(conn, &types.PubSubRequest{
			Type:  types.PubSubListen,
			Nonce: nonce(),
			Data: &types.ListenData{
				Topics:    topics,
				AuthToken: c.cfg.Token(),
			},
		})
		if err != nil {
			SessionsEndedTotal.WithLabelValues("write_error").Inc()
			return fmt.Errorf("send listen: %w", err)
		}
		c.logger.Debug("websocket-listen-sent", zap.Strings("topics", topics))
	}

	c.setState(StateActive)
	ActiveConnections.Inc()
	defer ActiveConnections.Dec()

	c.reconnectMgr.Reset()

	return c.activeLoop(ctx, conn, frames, readErrs)
}

// activeLoop sends probes and dispatches frames. Probe deadlines start fresh
// on every connect.
func (c *Connection) activeLoop(
	ctx context.Context,
	conn *websocket.Conn,
	frames <-chan []byte,
	readErrs <-chan error,
) error {
	now := c.cfg.Now()
	nextPing := now
	maxPong := now.Add(c.cfg.PongTimeout)

	for {
		now = c.cfg.Now()

		if !now.Before(nextPing) {
			err := c.writeJSON(conn, &types.PubSubRequest{Type: types.PubSubPing})
			if err != nil {
				SessionsEndedTotal.WithLabelValues("write_error").Inc()
				return fmt.Errorf("send ping: %w", err)
			}
			nextPing = now.Add(c.cfg.PingInterval)
			maxPong = now.Add(c.cfg.PongTimeout)
		}

		if !now.Before(maxPong) {
			SessionsEndedTotal.WithLabelValues("pong_timeout").Inc()
			c.logger.Warn("websocket-pong-timeout")
			return ErrConnectionLost
		}

		timer := time.NewTimer(c.cfg.ReadSlice)

		select {
		case <-ctx.Done():
			timer.Stop()
			c.setState(StateClosing)
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
			SessionsEndedTotal.WithLabelValues("stopped").Inc()
			return ctx.Err()

		case err := <-readErrs:
			timer.Stop()
			SessionsEndedTotal.WithLabelValues("read_error").Inc()
			return fmt.Errorf("read frame: %w", err)

		case data := <-frames:
			timer.Stop()
			if c.handleFrame(ctx, data, &maxPong, nextPing) {
				SessionsEndedTotal.WithLabelValues("reconnect_requested").Inc()
				return errReconnectRequested
			}

		case <-timer.C:
		}
	}
}

// readLoop forwards frames until the socket fails or done is closed.
func (c *Connection) readLoop(
	conn *websocket.Conn,
	frames chan<- []byte,
	readErrs chan<- error,
	done <-chan struct{},
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			readErrs <- err
			return
		}

		select {
		case frames <- data:
		case <-done:
			return
		}
	}
}

// handleFrame processes one inbound frame and reports whether the server
// asked for a reconnect.
func (c *Connection) handleFrame(ctx context.Context, data []byte, maxPong *time.Time, nextPing time.Time) bool {
	var frame types.PubSubFrame
	err := json.Unmarshal(data, &frame)
	if err != nil {
		c.logger.Warn("websocket-invalid-frame", zap.Error(err))
		return false
	}

	MessagesReceivedTotal.WithLabelValues(frame.Type).Inc()

	switch frame.Type {
	case types.PubSubPong:
		*maxPong = nextPing

	case types.PubSubMessage:
		if frame.Data == nil {
			c.logger.Warn("websocket-message-without-data")
			return false
		}
		handler := c.handler(frame.Data.Topic)
		if handler == nil {
			c.logger.Debug("websocket-unknown-topic", zap.String("topic", frame.Data.Topic))
			return false
		}
		c.dispatch(ctx, frame.Data.Topic, handler, []byte(frame.Data.Message))

	case types.PubSubResponse:
		if frame.Error != "" {
			c.logger.Error("websocket-listen-rejected",
				zap.String("nonce", frame.Nonce),
				zap.String("error", frame.Error))
		}

	case types.PubSubReconnect:
		c.logger.Info("websocket-reconnect-requested")
		return true

	default:
		c.logger.Debug("websocket-unhandled-frame", zap.String("type", frame.Type))
	}

	return false
}

// dispatch runs a topic handler. Failures are logged and never end the session.
func (c *Connection) dispatch(ctx context.Context, topic string, handler Handler, message []byte) {
	defer func() {
		if r := recover(); r != nil {
			HandlerErrorsTotal.WithLabelValues(topicKind(topic)).Inc()
			c.logger.Error("topic-handler-panic",
				zap.String("topic", topic),
				zap.Any("panic", r))
		}
	}()

	err := handler(ctx, message)
	if err != nil {
		HandlerErrorsTotal.WithLabelValues(topicKind(topic)).Inc()
		c.logger.Error("topic-handler-failed",
			zap.String("topic", topic),
			zap.Error(err))
	}
}

func (c *Connection) writeJSON(conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	err = conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}

	return conn.WriteMessage(websocket.TextMessage, data)
}

// topicKind strips the user id suffix from a topic name.
func topicKind(topic string) string {
	kind, _, _ := strings.Cut(topic, ".")
	return kind
}

func nonce() string {
	const letters = "abcdefghijklmnopqrstuvwxyz"

	b := make([]byte, nonceLength)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}

	return string(b)
}
