package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ConsoleStorage implements Storage by pretty-printing to console.
type ConsoleStorage struct {
	logger *zap.Logger
}

// NewConsoleStorage creates a new console storage.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		logger: logger,
	}
}

// StoreClaim pretty-prints a claimed drop to console.
func (c *ConsoleStorage) StoreClaim(ctx context.Context, rec *ClaimRecord) error {
	fmt.Println("\n" + "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("🎁 DROP CLAIMED\n")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("ID:       %s\n", rec.ID[:8])
	fmt.Printf("Drop:     %s\n", rec.DropName)
	fmt.Printf("Rewards:  %s\n", rec.Rewards)
	fmt.Printf("Campaign: %s\n", rec.CampaignName)
	fmt.Printf("Game:     %s\n", rec.GameName)
	if rec.ChannelLogin != "" {
		fmt.Printf("Channel:  %s\n", rec.ChannelLogin)
	}
	fmt.Printf("Time:     %s\n", rec.ClaimedAt.Format("2006-01-02 15:04:05"))
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
