package gql

import "github.com/mselser95/drops-miner/pkg/types"

// Operation names.
const (
	OpCurrentUser    = "CoreActionsCurrentUser"
	OpDropCampaigns  = "ViewerDropsDashboard"
	OpInventory      = "Inventory"
	OpStreamMetadata = "StreamMetadata"
	OpGameDirectory  = "DirectoryPage_Game"
	OpClaimDrop      = "DropsPage_ClaimDropRewards"
)

// DefaultDirectoryLimit is the number of streams requested from the game directory.
const DefaultDirectoryLimit = 30

func persisted(name, hash string, vars map[string]any) types.Operation {
	if vars == nil {
		vars = map[string]any{}
	}
	return types.Operation{
		OperationName: name,
		Extensions: types.Extensions{
			PersistedQuery: types.PersistedQuery{Version: 1, SHA256Hash: hash},
		},
		Variables: vars,
	}
}

// CurrentUserOp fetches the identity bound to the auth token.
func CurrentUserOp() types.Operation {
	return persisted(OpCurrentUser, "6f1b0c8c5f0e4e4e8f0e4e4e8f0e4e4e8f0e4e4e8f0e4e4e8f0e4e4e8f0e4e4e", nil)
}

// DropCampaignsOp lists the campaigns visible to the account.
func DropCampaignsOp() types.Operation {
	return persisted(OpDropCampaigns, "8d5d9b5e3f088f9d1ff39eb2caab11f7a4cf7a3353da9ce82b5778226ff37268",
		map[string]any{"fetchRewardCampaigns": true})
}

// InventoryOp lists in-progress drops of the account.
func InventoryOp() types.Operation {
	return persisted(OpInventory, "37fea486d6179047c41d0f549088a4c3a7dd60c05c70956e5f1dce3996103923",
		map[string]any{"fetchRewardCampaigns": true})
}

// StreamMetadataOp fetches live status for one channel.
func StreamMetadataOp(login string) types.Operation {
	return persisted(OpStreamMetadata, "059c4653b788f5bdb2f5a2d2a24b0ddc3831a15079001a3d927556a96fb0517f",
		map[string]any{"channelLogin": login})
}

// GameDirectoryOp lists live, drops-enabled streams of a game.
func GameDirectoryOp(slug string, limit int) types.Operation {
	if limit <= 0 {
		limit = DefaultDirectoryLimit
	}
	return persisted(OpGameDirectory, "d5c5df7ab9ae65c3ea0f225738c08a36a4a76e4c6c31db7f8c4b8dc064227f9e",
		map[string]any{
			"limit": limit,
			"slug":  slug,
			"options": map[string]any{
				"includeRestricted": []string{"SUB_ONLY_LIVE"},
				"systemFilters":     []string{"DROPS_ENABLED"},
			},
		})
}

// ClaimDropOp redeems a completed drop instance.
func ClaimDropOp(dropInstanceID string) types.Operation {
	return persisted(OpClaimDrop, "2f884fa187b8fadb2a49db0adc033e636f7b6aaee6e76de1e2bba9a7baf0daf6",
		map[string]any{
			"input": map[string]any{"dropInstanceID": dropInstanceID},
		})
}
