package inventory

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const campaignJSON = `{
  "id": "camp-1",
  "name": "Winter Drops",
  "game": {"id": "512", "displayName": "Game A", "slug": "game-a"},
  "startAt": "2026-01-01T00:00:00Z",
  "endAt": "2026-02-01T00:00:00Z",
  "imageURL": "https://example.com/c.png",
  "self": {"isAccountConnected": true},
  "allow": {"isEnabled": true, "channels": [{"id": "42", "name": "streamer"}]},
  "timeBasedDrops": [
    {
      "id": "drop-1",
      "name": "Hat",
      "startAt": "2026-01-01T00:00:00Z",
      "endAt": "2026-02-01T00:00:00Z",
      "requiredMinutesWatched": 60,
      "benefitEdges": [{"benefit": {"id": "b1", "name": "Red Hat", "imageAssetURL": "https://example.com/h.png"}}],
      "self": {"dropInstanceID": "inst-1", "isClaimed": false, "currentMinutesWatched": 15}
    },
    {
      "id": "drop-2",
      "name": "Cape",
      "startAt": "2026-01-01T00:00:00Z",
      "endAt": "2026-02-01T00:00:00Z",
      "requiredMinutesWatched": 120,
      "preconditionDrops": [{"id": "drop-1"}]
    }
  ]
}`

func TestParseCampaign_RoundTrip(t *testing.T) {
	c, err := ParseCampaign([]byte(campaignJSON))
	require.NoError(t, err)

	assert.Equal(t, "camp-1", c.ID)
	assert.Equal(t, "Winter Drops", c.Name)
	assert.Equal(t, 512, c.Game.ID)
	assert.Equal(t, "Game A", c.Game.Name)
	assert.Equal(t, "game-a", c.Game.Slug)
	assert.Equal(t, 2, c.TotalDrops())
	assert.True(t, c.Eligible)
	assert.Contains(t, c.AllowedChannels, 42)

	d1 := c.Drop("drop-1")
	require.NotNil(t, d1)
	assert.Equal(t, 15, d1.CurrentMinutes())
	assert.Equal(t, "inst-1", d1.ClaimID())
	assert.Equal(t, "Red Hat", d1.Benefits[0].Name)
	assert.Same(t, c, d1.Campaign)

	d2 := c.Drop("drop-2")
	require.NotNil(t, d2)
	assert.Equal(t, "", d2.ClaimID())
	assert.Equal(t, []string{"drop-1"}, d2.Preconditions)

	assert.Nil(t, c.Drop("missing"))
}

func TestParseCampaign_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not-json", `{"id":`},
		{"missing-id", `{"name":"x","game":{"id":"1","name":"G"},"startAt":"2026-01-01T00:00:00Z","endAt":"2026-01-02T00:00:00Z"}`},
		{"missing-game", `{"id":"c","name":"x","startAt":"2026-01-01T00:00:00Z","endAt":"2026-01-02T00:00:00Z"}`},
		{"bad-game-id", `{"id":"c","name":"x","game":{"id":"abc","name":"G"},"startAt":"2026-01-01T00:00:00Z","endAt":"2026-01-02T00:00:00Z"}`},
		{"bad-time", `{"id":"c","name":"x","game":{"id":"1","name":"G"},"startAt":"yesterday","endAt":"2026-01-02T00:00:00Z"}`},
		{"bad-drop", `{"id":"c","name":"x","game":{"id":"1","name":"G"},"startAt":"2026-01-01T00:00:00Z","endAt":"2026-01-02T00:00:00Z","timeBasedDrops":[{"id":"d"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCampaign([]byte(tt.raw))
			require.Error(t, err)

			var parseErr *ParseError
			assert.True(t, errors.As(err, &parseErr))
		})
	}
}

func TestParseCampaign_DefaultSlugAndEligibility(t *testing.T) {
	raw := `{"id":"c","name":"x","game":{"id":"7","name":"Some Game"},"startAt":"2026-01-01T00:00:00Z","endAt":"2026-01-02T00:00:00Z"}`
	c, err := ParseCampaign([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "some-game", c.Game.Slug)
	assert.True(t, c.Eligible, "campaign without self edge is eligible")
	assert.Empty(t, c.AllowedChannels)
}

func TestCampaign_Progress(t *testing.T) {
	now := time.Now()
	empty := NewTestCampaign("c0", 1, "G", now.Add(-time.Hour), now.Add(time.Hour))
	assert.Equal(t, 0.0, empty.Progress())

	c := NewTestCampaign("c1", 1, "G", now.Add(-time.Hour), now.Add(time.Hour),
		TestDrop{ID: "a", Required: 10, Current: 5},
		TestDrop{ID: "b", Required: 10, Current: 10},
	)
	assert.InDelta(t, 0.75, c.Progress(), 1e-9)
	assert.Equal(t, 5, c.RemainingMinutes())
}

func TestCampaign_Availability(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(100 * time.Hour)
	c := NewTestCampaign("c", 1, "G", start, end)

	assert.InDelta(t, 0.75, c.Availability(start.Add(25*time.Hour)), 1e-9)
	assert.Equal(t, 0.0, c.Availability(end.Add(time.Hour)))

	zero := NewTestCampaign("z", 1, "G", start, start)
	assert.Equal(t, 0.0, zero.Availability(start))
}

func TestCampaign_FirstDrop(t *testing.T) {
	now := time.Now()
	c := NewTestCampaign("c", 1, "G", now.Add(-time.Hour), now.Add(time.Hour),
		TestDrop{ID: "far", Required: 60, Current: 0},
		TestDrop{ID: "near", Required: 60, Current: 50},
		TestDrop{ID: "done", Required: 60, Current: 60},
		TestDrop{ID: "claimed", Required: 60, Current: 59, Claimed: true},
	)

	first := c.FirstDrop(now)
	require.NotNil(t, first)
	assert.Equal(t, "near", first.ID)

	none := NewTestCampaign("n", 1, "G", now.Add(-time.Hour), now.Add(time.Hour),
		TestDrop{ID: "done", Required: 1, Current: 1})
	assert.Nil(t, none.FirstDrop(now))
}

func TestCampaign_CanEarn(t *testing.T) {
	now := time.Now()
	gameA := &Game{ID: 1, Name: "A"}
	gameB := &Game{ID: 2, Name: "B"}

	newCampaign := func() *DropsCampaign {
		return NewTestCampaign("c", 1, "A", now.Add(-time.Hour), now.Add(time.Hour),
			TestDrop{ID: "d", Required: 10})
	}

	t.Run("no-channel", func(t *testing.T) {
		assert.True(t, newCampaign().CanEarn(nil, now))
	})

	t.Run("restricted-channel-not-allowed", func(t *testing.T) {
		c := newCampaign()
		c.AllowedChannels[42] = struct{}{}
		assert.False(t, c.CanEarn(&Channel{ID: 7, Game: gameA}, now))
		assert.True(t, c.CanEarn(&Channel{ID: 42, Game: gameA}, now))
	})

	t.Run("restricted-regardless-of-drop-state", func(t *testing.T) {
		c := newCampaign()
		c.AllowedChannels[42] = struct{}{}
		c.Drops[0].AddMinutes(3)
		assert.False(t, c.CanEarn(&Channel{ID: 7}, now))
	})

	t.Run("wrong-game", func(t *testing.T) {
		assert.False(t, newCampaign().CanEarn(&Channel{ID: 7, Game: gameB}, now))
	})

	t.Run("unknown-game", func(t *testing.T) {
		assert.True(t, newCampaign().CanEarn(&Channel{ID: 7}, now))
	})

	t.Run("ineligible", func(t *testing.T) {
		c := newCampaign()
		c.Eligible = false
		assert.False(t, c.CanEarn(nil, now))
	})

	t.Run("inactive", func(t *testing.T) {
		c := newCampaign()
		assert.False(t, c.CanEarn(nil, now.Add(2*time.Hour)))
	})

	t.Run("nothing-earnable", func(t *testing.T) {
		c := newCampaign()
		c.Drops[0].AddMinutes(10)
		assert.False(t, c.CanEarn(nil, now))
	})
}
