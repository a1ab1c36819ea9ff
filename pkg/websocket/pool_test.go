package websocket

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"
)

func testPoolConfig(url string, maxConns, perConn int) PoolConfig {
	logger, _ := zap.NewDevelopment()

	return PoolConfig{
		MaxConnections:      maxConns,
		TopicsPerConnection: perConn,
		Connection:          testConfig(url),
		Logger:              logger,
	}
}

func noopHandler(context.Context, []byte) error { return nil }

func TestNewPool_Defaults(t *testing.T) {
	pool := NewPool(PoolConfig{})

	if pool.cfg.MaxConnections != 10 {
		t.Errorf("expected 10 max connections, got %d", pool.cfg.MaxConnections)
	}
	if pool.cfg.TopicsPerConnection != 50 {
		t.Errorf("expected 50 topics per connection, got %d", pool.cfg.TopicsPerConnection)
	}
	if len(pool.Connections()) != 0 {
		t.Errorf("expected no connections, got %d", len(pool.Connections()))
	}
}

func TestPool_AddTopicFillsConnectionsInOrder(t *testing.T) {
	pool := NewPool(testPoolConfig("ws://127.0.0.1:1", 3, 2))

	for i := 0; i < 5; i++ {
		err := pool.AddTopic(fmt.Sprintf("topic.%d", i), noopHandler)
		if err != nil {
			t.Fatalf("add topic %d: %v", i, err)
		}
	}

	conns := pool.Connections()
	if len(conns) != 3 {
		t.Fatalf("expected 3 connections, got %d", len(conns))
	}

	expected := []int{2, 2, 1}
	for i, conn := range conns {
		if conn.TopicCount() != expected[i] {
			t.Errorf("connection %d: expected %d topics, got %d", i, expected[i], conn.TopicCount())
		}
	}

	if pool.TopicCount() != 5 {
		t.Errorf("expected 5 topics, got %d", pool.TopicCount())
	}
}

func TestPool_AddTopicFull(t *testing.T) {
	pool := NewPool(testPoolConfig("ws://127.0.0.1:1", 2, 1))

	if err := pool.AddTopic("a", noopHandler); err != nil {
		t.Fatal(err)
	}
	if err := pool.AddTopic("b", noopHandler); err != nil {
		t.Fatal(err)
	}

	err := pool.AddTopic("c", noopHandler)
	if !errors.Is(err, ErrPoolFull) {
		t.Errorf("expected ErrPoolFull, got %v", err)
	}

	if pool.TopicCount() != 2 {
		t.Errorf("expected 2 topics, got %d", pool.TopicCount())
	}
}

func TestPool_AddTopicDuplicateIgnored(t *testing.T) {
	pool := NewPool(testPoolConfig("ws://127.0.0.1:1", 1, 1))

	if err := pool.AddTopic("a", noopHandler); err != nil {
		t.Fatal(err)
	}
	// would exceed both limits if it were not a duplicate
	if err := pool.AddTopic("a", noopHandler); err != nil {
		t.Errorf("expected duplicate to be ignored, got %v", err)
	}
	if pool.TopicCount() != 1 {
		t.Errorf("expected 1 topic, got %d", pool.TopicCount())
	}
}

func TestPool_StopWhenNeverStarted(t *testing.T) {
	pool := NewPool(testPoolConfig("ws://127.0.0.1:1", 2, 2))
	_ = pool.AddTopic("a", noopHandler)

	pool.Stop()
	pool.Stop()

	if pool.Running() {
		t.Error("expected pool not running")
	}
}

func TestPool_StartProvisionsConnection(t *testing.T) {
	server := newFakePubSub(t)
	pool := NewPool(testPoolConfig(server.url(), 2, 2))

	pool.Start(context.Background())
	defer pool.Stop()

	if len(pool.Connections()) != 1 {
		t.Fatalf("expected 1 connection, got %d", len(pool.Connections()))
	}

	waitFor(t, 2*time.Second, func() bool {
		return pool.Connections()[0].State() == StateActive
	}, "active connection")
}

func TestPool_StartAndStop(t *testing.T) {
	server := newFakePubSub(t)
	pool := NewPool(testPoolConfig(server.url(), 3, 1))

	for _, topic := range []string{"user-drop-events.1", "onsite-notifications.1"} {
		if err := pool.AddTopic(topic, noopHandler); err != nil {
			t.Fatal(err)
		}
	}

	pool.Start(context.Background())
	pool.Start(context.Background())

	waitFor(t, 2*time.Second, func() bool { return server.listenCount() == 2 }, "listen per connection")

	// a topic added while running lands on a new, immediately started connection
	if err := pool.AddTopic("user-drop-events.2", noopHandler); err != nil {
		t.Fatal(err)
	}
	waitFor(t, 2*time.Second, func() bool { return server.listenCount() == 3 }, "listen for late topic")

	pool.Stop()
	pool.Stop()

	for i, conn := range pool.Connections() {
		if conn.State() != StateDisconnected {
			t.Errorf("connection %d: expected disconnected, got %v", i, conn.State())
		}
	}
}
