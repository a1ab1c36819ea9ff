package miner

import (
	"github.com/mselser95/drops-miner/internal/inventory"
	"go.uber.org/zap"
)

// Sink receives user-facing events from the miner. Calls are fire-and-forget:
// the miner never retries them and recovers from panics inside them.
type Sink interface {
	Print(message string)
	Status(text string)
	Progress(current, total int)
	Channel(name string)
	Drop(drop *inventory.TimedDrop)
	Inventory(campaigns []*inventory.DropsCampaign)
	Notify(title, body string)
}

// LogSink writes every event to a zap logger.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink logging through logger.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Print(message string) {
	s.logger.Info(message)
}

func (s *LogSink) Status(text string) {
	s.logger.Info("status-changed", zap.String("status", text))
}

func (s *LogSink) Progress(current, total int) {
	s.logger.Debug("drop-progress",
		zap.Int("current-minutes", current),
		zap.Int("required-minutes", total))
}

func (s *LogSink) Channel(name string) {
	s.logger.Info("channel-changed", zap.String("channel", name))
}

func (s *LogSink) Drop(drop *inventory.TimedDrop) {
	if drop == nil {
		s.logger.Info("current-drop-cleared")
		return
	}
	s.logger.Info("current-drop",
		zap.String("drop-id", drop.ID),
		zap.String("drop", drop.Name),
		zap.Int("current-minutes", drop.CurrentMinutes()),
		zap.Int("required-minutes", drop.RequiredMinutes))
}

func (s *LogSink) Inventory(campaigns []*inventory.DropsCampaign) {
	s.logger.Info("inventory-updated", zap.Int("campaigns", len(campaigns)))
}

func (s *LogSink) Notify(title, body string) {
	s.logger.Info("notification",
		zap.String("title", title),
		zap.String("body", body))
}

// MultiSink fans every event out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) Print(message string) {
	for _, s := range m {
		s.Print(message)
	}
}

func (m MultiSink) Status(text string) {
	for _, s := range m {
		s.Status(text)
	}
}

func (m MultiSink) Progress(current, total int) {
	for _, s := range m {
		s.Progress(current, total)
	}
}

func (m MultiSink) Channel(name string) {
	for _, s := range m {
		s.Channel(name)
	}
}

func (m MultiSink) Drop(drop *inventory.TimedDrop) {
	for _, s := range m {
		s.Drop(drop)
	}
}

func (m MultiSink) Inventory(campaigns []*inventory.DropsCampaign) {
	for _, s := range m {
		s.Inventory(campaigns)
	}
}

func (m MultiSink) Notify(title, body string) {
	for _, s := range m {
		s.Notify(title, body)
	}
}
