package domain

import (
	"encoding/json"
	"math/big"
)

// EventKind identifies a committed operation in the journal.
type EventKind string

// Journal event kinds, one per state-changing operation.
const (
	EventAssetApproved   EventKind = "ASSET_APPROVED"
	EventCampaignCreated EventKind = "CAMPAIGN_CREATED"
	EventConfigured      EventKind = "CONFIGURED"
	EventWhitelisted     EventKind = "WHITELISTED"
	EventJoined          EventKind = "JOINED"
	EventAdded           EventKind = "ADDED"
	EventBorrowed        EventKind = "BORROWED"
	EventRepaid          EventKind = "REPAID"
	EventExited          EventKind = "EXITED"
	EventRemoved         EventKind = "REMOVED"
	EventRewarded        EventKind = "REWARDED"
	EventRefunded        EventKind = "REFUNDED"
	EventForfeitClaimed  EventKind = "FORFEIT_CLAIMED"
)

// Event is one committed operation. Events are append-only and totally
// ordered by Seq; replaying them in order against an empty engine rebuilds
// its state.
type Event struct {
	Seq        uint64          // PRIMARY KEY, 1-based commit order
	EventID    string          // deterministic hash, see idhash.ComputeEventID
	Kind       EventKind       //
	CampaignID uint64          // 0 for EventAssetApproved
	Actor      Address         // operation caller
	Slot       uint64          // tick the operation executed at
	Amount     *big.Int        // requested or paid amount (nullable)
	Payload    json.RawMessage // kind-specific parameters (nullable)
}

// AssetPayload is the payload of EventAssetApproved.
type AssetPayload struct {
	Asset Address `json:"asset"`
}

// ConfiguredPayload is the payload of EventConfigured.
type ConfiguredPayload struct {
	Schedule Schedule        `json:"schedule"`
	Params   ConfigureParams `json:"params"`
}

// WhitelistPayload is the payload of EventWhitelisted.
type WhitelistPayload struct {
	Addresses []Address `json:"addresses"`
}

// CampaignSummary is a point-in-time aggregate of one campaign, written to
// the analytics store.
type CampaignSummary struct {
	CampaignID       uint64
	Slot             uint64
	Phase            string
	State            string
	Participants     uint32
	TotalCollateral  *big.Int
	RaisedCollateral *big.Int
	RewardSupply     *big.Int
	RewardPaid       *big.Int
	RewardEscrow     *big.Int
	OutstandingDebt  *big.Int
	Forfeited        *big.Int
	FloorMet         bool
	SnapshotAt       int64 // Unix timestamp in milliseconds
}
