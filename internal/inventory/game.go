package inventory

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mselser95/drops-miner/pkg/types"
)

// Game is a title/category on the platform. ID is the equality key.
type Game struct {
	ID   int
	Name string
	Slug string
}

// NewGame builds a Game from a GQL game node.
func NewGame(p *types.GamePayload) (*Game, error) {
	if p == nil {
		return nil, fmt.Errorf("game payload is missing")
	}

	id, err := strconv.Atoi(p.ID)
	if err != nil {
		return nil, fmt.Errorf("parse game id %q: %w", p.ID, err)
	}

	name := p.DisplayName
	if name == "" {
		name = p.Name
	}
	if name == "" {
		return nil, fmt.Errorf("game %d has no name", id)
	}

	slug := p.Slug
	if slug == "" {
		slug = strings.ReplaceAll(strings.ToLower(name), " ", "-")
	}

	return &Game{ID: id, Name: name, Slug: slug}, nil
}

// Equal compares games by id.
func (g *Game) Equal(other *Game) bool {
	if g == nil || other == nil {
		return g == other
	}
	return g.ID == other.ID
}

func (g *Game) String() string {
	return g.Name
}
