package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"

	"solana-launchpad/internal/domain"
)

// ComputeEventID computes a deterministic event_id using SHA256.
// Formula: SHA256(seq|kind|campaign_id|actor|slot|amount)
// Returns hex-encoded hash (64 characters).
func ComputeEventID(
	seq uint64,
	kind domain.EventKind,
	campaignID uint64,
	actor domain.Address,
	slot uint64,
	amount *big.Int,
) string {
	amountStr := ""
	if amount != nil {
		amountStr = amount.String()
	}

	data := fmt.Sprintf("%d|%s|%d|%s|%d|%s",
		seq,
		string(kind),
		campaignID,
		actor.String(),
		slot,
		amountStr,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
