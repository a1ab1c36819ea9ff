package types

import "encoding/json"

// PersistedQuery identifies a server-side stored GraphQL query.
type PersistedQuery struct {
	Version    int    `json:"version"`
	SHA256Hash string `json:"sha256Hash"`
}

// Extensions wraps the persisted query descriptor.
type Extensions struct {
	PersistedQuery PersistedQuery `json:"persistedQuery"`
}

// Operation is a single GQL request body.
type Operation struct {
	OperationName string         `json:"operationName"`
	Extensions    Extensions     `json:"extensions"`
	Variables     map[string]any `json:"variables"`
}

// GQLError is one entry of the response "errors" array.
type GQLError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// GQLResponse is the response envelope returned by the GQL endpoint.
type GQLResponse struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors []GQLError      `json:"errors,omitempty"`
}

// HasData reports whether the response carries a non-null data object.
func (r *GQLResponse) HasData() bool {
	return len(r.Data) > 0 && string(r.Data) != "null"
}

// GamePayload is a game node as returned by the campaign and directory queries.
type GamePayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Slug        string `json:"slug"`
}

// CurrentUserData is the data object of the CoreActionsCurrentUser query.
type CurrentUserData struct {
	CurrentUser *struct {
		ID          string `json:"id"`
		Login       string `json:"login"`
		DisplayName string `json:"displayName"`
	} `json:"currentUser"`
}

// DropCampaignsData is the data object of the ViewerDropsDashboard query.
// Campaigns are kept raw so that one malformed record does not fail the batch.
type DropCampaignsData struct {
	CurrentUser *struct {
		ID            string            `json:"id"`
		DropCampaigns []json.RawMessage `json:"dropCampaigns"`
	} `json:"currentUser"`
}

// InventoryData is the data object of the Inventory query: campaigns the
// account has started, with per-drop progress in each drop's self block.
type InventoryData struct {
	CurrentUser *struct {
		ID        string `json:"id"`
		Inventory *struct {
			DropCampaignsInProgress []CampaignPayload `json:"dropCampaignsInProgress"`
		} `json:"inventory"`
	} `json:"currentUser"`
}

// CampaignPayload is a single drop campaign node.
type CampaignPayload struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Status         string       `json:"status"`
	Game           *GamePayload `json:"game"`
	StartAt        string       `json:"startAt"`
	EndAt          string       `json:"endAt"`
	ImageURL       string       `json:"imageURL"`
	Description    string       `json:"description"`
	AccountLinkURL string       `json:"accountLinkURL"`
	Self           *struct {
		IsAccountConnected bool `json:"isAccountConnected"`
	} `json:"self"`
	TimeBasedDrops []DropPayload `json:"timeBasedDrops"`
	Allow          *struct {
		IsEnabled bool `json:"isEnabled"`
		Channels  []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"channels"`
	} `json:"allow"`
}

// DropPayload is a single time based drop node.
type DropPayload struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BenefitEdges []struct {
		Benefit BenefitPayload `json:"benefit"`
	} `json:"benefitEdges"`
	StartAt                string `json:"startAt"`
	EndAt                  string `json:"endAt"`
	RequiredMinutesWatched int    `json:"requiredMinutesWatched"`
	Self                   *struct {
		DropInstanceID        string `json:"dropInstanceID"`
		IsClaimed             bool   `json:"isClaimed"`
		CurrentMinutesWatched int    `json:"currentMinutesWatched"`
	} `json:"self"`
	PreconditionDrops []struct {
		ID string `json:"id"`
	} `json:"preconditionDrops"`
}

// BenefitPayload is the reward attached to a drop.
type BenefitPayload struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ImageAssetURL string `json:"imageAssetURL"`
}

// BroadcasterPayload identifies the channel owner of a stream.
type BroadcasterPayload struct {
	ID          string `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"displayName"`
}

// StreamNode is a live stream entry of the game directory.
type StreamNode struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	ViewersCount int                 `json:"viewersCount"`
	Broadcaster  *BroadcasterPayload `json:"broadcaster"`
	Game         *GamePayload        `json:"game"`
}

// GameDirectoryData is the data object of the DirectoryPage_Game query.
type GameDirectoryData struct {
	Game *struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Streams *struct {
			Edges []struct {
				Cursor string      `json:"cursor"`
				Node   *StreamNode `json:"node"`
			} `json:"edges"`
			PageInfo struct {
				HasNextPage bool `json:"hasNextPage"`
			} `json:"pageInfo"`
		} `json:"streams"`
	} `json:"game"`
}

// StreamMetadataData is the data object of the StreamMetadata query.
type StreamMetadataData struct {
	User *struct {
		ID          string `json:"id"`
		Login       string `json:"login"`
		DisplayName string `json:"displayName"`
		Stream      *struct {
			ID           string       `json:"id"`
			Type         string       `json:"type"`
			ViewersCount int          `json:"viewersCount"`
			Game         *GamePayload `json:"game"`
		} `json:"stream"`
	} `json:"user"`
}

// ClaimDropData is the data object of the DropsPage_ClaimDropRewards mutation.
type ClaimDropData struct {
	ClaimDropRewards *struct {
		Status         string `json:"status"`
		DropInstanceID string `json:"dropInstanceID"`
	} `json:"claimDropRewards"`
}
