package miner

import (
	"context"
	"fmt"

	"github.com/mselser95/drops-miner/internal/inventory"
	"github.com/mselser95/drops-miner/pkg/types"
)

// Watcher performs one unit of watch credit for a channel.
type Watcher interface {
	Watch(ctx context.Context, channel *inventory.Channel) error
}

// MetadataFetcher is the part of the gateway StreamWatcher needs.
type MetadataFetcher interface {
	StreamMetadata(ctx context.Context, login string) (*types.StreamMetadataData, error)
}

// StreamWatcher confirms the channel is still live on every tick.
// It returns ErrChannelOffline once the stream has ended.
type StreamWatcher struct {
	gateway MetadataFetcher
}

// NewStreamWatcher creates a watcher backed by stream metadata lookups.
func NewStreamWatcher(gateway MetadataFetcher) *StreamWatcher {
	return &StreamWatcher{gateway: gateway}
}

func (w *StreamWatcher) Watch(ctx context.Context, channel *inventory.Channel) error {
	data, err := w.gateway.StreamMetadata(ctx, channel.Login)
	if err != nil {
		return fmt.Errorf("fetch stream metadata: %w", err)
	}

	if data.User == nil || data.User.Stream == nil {
		return fmt.Errorf("%s: %w", channel.Login, ErrChannelOffline)
	}

	return nil
}
