package stub

import (
	"context"
	"sync"

	"solana-launchpad/internal/solana"
)

// RPCClient implements solana.RPCClient for testing.
type RPCClient struct {
	mu    sync.Mutex
	slot  uint64
	err   error
	calls int
}

var _ solana.RPCClient = (*RPCClient)(nil)

// NewRPCClient creates a new stub RPC client reporting the given slot.
func NewRPCClient(slot uint64) *RPCClient {
	return &RPCClient{slot: slot}
}

// SetSlot changes the slot reported by GetSlot.
func (c *RPCClient) SetSlot(slot uint64) {
	c.mu.Lock()
	c.slot = slot
	c.mu.Unlock()
}

// SetError makes subsequent GetSlot calls fail with err. Nil clears it.
func (c *RPCClient) SetError(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

// Calls returns the number of GetSlot calls served.
func (c *RPCClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// GetSlot returns the configured slot.
func (c *RPCClient) GetSlot(_ context.Context, _ string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return 0, c.err
	}
	return c.slot, nil
}
