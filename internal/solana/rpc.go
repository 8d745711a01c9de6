package solana

import "context"

// RPCClient defines the Solana RPC HTTP calls the launch engine's slot clock needs.
type RPCClient interface {
	// GetSlot retrieves the current slot at the given commitment.
	GetSlot(ctx context.Context, commitment string) (uint64, error)
}

var _ RPCClient = (*HTTPClient)(nil)
