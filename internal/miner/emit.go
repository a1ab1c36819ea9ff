package miner

import (
	"github.com/mselser95/drops-miner/internal/inventory"
	"go.uber.org/zap"
)

// emit delivers one event to the sink. A panicking sink is logged and ignored.
func (m *Miner) emit(event string, fn func(Sink)) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("sink-panic",
				zap.String("event", event),
				zap.Any("panic", r))
		}
	}()

	fn(m.sink)
}

func (m *Miner) emitPrint(message string) {
	m.emit("print", func(s Sink) { s.Print(message) })
}

func (m *Miner) emitStatus(text string) {
	m.emit("status", func(s Sink) { s.Status(text) })
}

func (m *Miner) emitProgress(drop *inventory.TimedDrop) {
	current, total := drop.CurrentMinutes(), drop.RequiredMinutes
	m.emit("progress", func(s Sink) { s.Progress(current, total) })
}

func (m *Miner) emitChannel(name string) {
	m.emit("channel", func(s Sink) { s.Channel(name) })
}

func (m *Miner) emitDrop(drop *inventory.TimedDrop) {
	m.emit("drop", func(s Sink) { s.Drop(drop) })
}

func (m *Miner) emitInventory(campaigns []*inventory.DropsCampaign) {
	m.emit("inventory", func(s Sink) { s.Inventory(campaigns) })
}

// notify sends a user-facing notification unless notifications are disabled.
func (m *Miner) notify(title, body string) {
	if !m.cfg.Settings.Get().NotificationsEnabled {
		return
	}
	m.emit("notify", func(s Sink) { s.Notify(title, body) })
}
