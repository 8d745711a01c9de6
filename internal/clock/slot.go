package clock

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"solana-launchpad/internal/observability"
	"solana-launchpad/internal/solana"
)

// DefaultCommitment is the commitment level used for slot reads.
const DefaultCommitment = "confirmed"

// RPCSlot is a Clock that asks the RPC node for the slot on every call.
type RPCSlot struct {
	client     solana.RPCClient
	commitment string
}

var _ Clock = (*RPCSlot)(nil)

// NewRPCSlot creates an RPC backed clock. Empty commitment means DefaultCommitment.
func NewRPCSlot(client solana.RPCClient, commitment string) *RPCSlot {
	if commitment == "" {
		commitment = DefaultCommitment
	}
	return &RPCSlot{client: client, commitment: commitment}
}

// Now returns the node's current slot.
func (c *RPCSlot) Now(ctx context.Context) (uint64, error) {
	start := time.Now()
	slot, err := c.client.GetSlot(ctx, c.commitment)
	observability.RecordRPCLatency("getSlot", time.Since(start).Seconds())
	if err != nil {
		observability.RecordSlotClockError("rpc")
		return 0, fmt.Errorf("get slot: %w", err)
	}
	observability.UpdateSlot(slot)
	return slot, nil
}

// SubscribedOptions configures a Subscribed clock.
type SubscribedOptions struct {
	// Logger for subscription lifecycle messages. Defaults to log.Default().
	Logger *log.Logger
	// Commitment used by the RPC fallback.
	Commitment string
}

// Subscribed is a Clock fed by slotSubscribe notifications. Until the first
// notification arrives, or after the stream ends, it falls back to RPC.
// The reported slot never decreases.
type Subscribed struct {
	fallback *RPCSlot
	logger   *log.Logger

	latest atomic.Uint64
	live   atomic.Bool

	wg   sync.WaitGroup
	stop context.CancelFunc
}

var _ Clock = (*Subscribed)(nil)

// NewSubscribed creates a clock that follows ws and falls back to rpc.
// Call Start to begin consuming notifications.
func NewSubscribed(rpc solana.RPCClient, opts SubscribedOptions) *Subscribed {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Subscribed{
		fallback: NewRPCSlot(rpc, opts.Commitment),
		logger:   logger,
	}
}

// Start subscribes to slot notifications and consumes them until ctx is
// cancelled, Stop is called, or the channel closes.
func (c *Subscribed) Start(ctx context.Context, ws solana.WSClient) error {
	ch, err := ws.SubscribeSlots(ctx)
	if err != nil {
		return fmt.Errorf("subscribe slots: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	c.stop = cancel
	c.live.Store(true)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.live.Store(false)
		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-ch:
				if !ok {
					c.logger.Printf("slot subscription closed, falling back to rpc")
					return
				}
				c.observe(n.Slot)
			}
		}
	}()
	return nil
}

// Stop ends notification consumption and waits for the consumer to exit.
func (c *Subscribed) Stop() {
	if c.stop != nil {
		c.stop()
	}
	c.wg.Wait()
}

// observe records slot if it is newer than the latest seen.
func (c *Subscribed) observe(slot uint64) {
	for {
		cur := c.latest.Load()
		if slot <= cur {
			return
		}
		if c.latest.CompareAndSwap(cur, slot) {
			observability.UpdateSlot(slot)
			return
		}
	}
}

// Now returns the latest notified slot, or the RPC slot when no live
// subscription has delivered one.
func (c *Subscribed) Now(ctx context.Context) (uint64, error) {
	if c.live.Load() {
		if slot := c.latest.Load(); slot > 0 {
			return slot, nil
		}
	}
	slot, err := c.fallback.Now(ctx)
	if err != nil {
		return 0, err
	}
	c.observe(slot)
	return c.latest.Load(), nil
}
