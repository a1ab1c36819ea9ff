package inventory

import (
	"fmt"
	"strconv"

	"github.com/mselser95/drops-miner/pkg/types"
)

// Channel is a live broadcast. ID is the equality key.
type Channel struct {
	ID           int
	Login        string
	DisplayName  string
	Game         *Game
	Viewers      int
	Online       bool
	DropsEnabled bool
}

// ChannelFromStream builds a Channel from a game directory stream node.
func ChannelFromStream(node *types.StreamNode) (*Channel, error) {
	if node == nil || node.Broadcaster == nil {
		return nil, fmt.Errorf("stream node has no broadcaster")
	}

	id, err := strconv.Atoi(node.Broadcaster.ID)
	if err != nil {
		return nil, fmt.Errorf("parse broadcaster id %q: %w", node.Broadcaster.ID, err)
	}

	ch := &Channel{
		ID:           id,
		Login:        node.Broadcaster.Login,
		DisplayName:  node.Broadcaster.DisplayName,
		Viewers:      node.ViewersCount,
		Online:       true,
		DropsEnabled: true, // the directory query is filtered to drops-enabled streams
	}
	if ch.DisplayName == "" {
		ch.DisplayName = ch.Login
	}

	if node.Game != nil {
		game, gameErr := NewGame(node.Game)
		if gameErr == nil {
			ch.Game = game
		}
	}

	return ch, nil
}

// Equal compares channels by id.
func (c *Channel) Equal(other *Channel) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.ID == other.ID
}

func (c *Channel) String() string {
	return c.DisplayName
}
