package events

import "time"

type Type string

const (
	TypeProtocolInitialized Type = "protocol_initialized"
	TypeFeesUpdated         Type = "fees_updated"
	TypeFeesWithdrawn       Type = "fees_withdrawn"
	TypeProjectCreated      Type = "project_created"
	TypeTradeHubCreated     Type = "trade_hub_created"
	TypeMinterCreated       Type = "minter_created"
	TypeAssetMinted         Type = "asset_minted"
	TypeListingCreated      Type = "listing_created"
	TypeListingDelisted     Type = "listing_delisted"
	TypeAssetPurchased      Type = "asset_purchased"
)

// Event is one committed state change. Fields is a flat map of addresses
// and amounts in wire form; events are only published after the
// transaction that produced them commits.
type Event struct {
	Type   Type              `json:"type"`
	At     time.Time         `json:"at"`
	Fields map[string]string `json:"fields,omitempty"`
}
