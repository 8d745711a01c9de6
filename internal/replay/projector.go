package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	"solana-launchpad/internal/access"
	"solana-launchpad/internal/asset"
	"solana-launchpad/internal/clock"
	"solana-launchpad/internal/domain"
	"solana-launchpad/internal/eligibility"
	"solana-launchpad/internal/idhash"
	"solana-launchpad/internal/launch"
	"solana-launchpad/internal/observability"
	"solana-launchpad/internal/storage"
)

// Projector rebuilds engine state by re-executing journal events.
//
// The rebuilt engine trusts the journal for everything outside the engine:
// asset transfers are discarded, every address is eligible and every
// caller is an admin. Payout amounts are recomputed and must match the
// amounts the journal recorded.
type Projector struct {
	mu     sync.Mutex
	engine *launch.Engine
	clock  *clock.Manual
	logger *log.Logger
}

// ProjectorOptions configures a Projector.
type ProjectorOptions struct {
	Logger  *log.Logger
	Metrics *observability.Metrics
}

// NewProjector creates a projector over an empty engine.
func NewProjector(opts ProjectorOptions) (*Projector, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	clk := clock.NewManual(0)
	engine, err := launch.New(launch.Options{
		Ledger:    asset.Discard{},
		Oracle:    eligibility.AllowAll{},
		Authority: access.Anyone{},
		Clock:     clk,
		Logger:    logger,
		Metrics:   opts.Metrics,
	})
	if err != nil {
		return nil, err
	}

	return &Projector{engine: engine, clock: clk, logger: logger}, nil
}

// Engine returns the rebuilt engine for read access. Callers must not
// invoke state-changing operations on it.
func (p *Projector) Engine() *launch.Engine {
	return p.engine
}

// LastSeq returns the Seq of the last applied event.
func (p *Projector) LastSeq() uint64 {
	return p.engine.LastSeq()
}

// Sync applies every journal event after LastSeq.
func (p *Projector) Sync(ctx context.Context, events storage.EventStore) (int, error) {
	before := p.LastSeq()
	last, err := NewRunner(events).Run(ctx, before+1, 0, p)
	return int(last - before), err
}

// Follow calls Sync every interval until ctx is done. Sync errors are
// logged and retried on the next tick.
func (p *Projector) Follow(ctx context.Context, events storage.EventStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if n, err := p.Sync(ctx, events); err != nil {
			p.logger.Printf("journal sync failed at seq %d: %v", p.LastSeq(), err)
		} else if n > 0 {
			p.logger.Printf("applied %d journal events, now at seq %d", n, p.LastSeq())
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// OnEvent implements Handler.
func (p *Projector) OnEvent(ctx context.Context, e *domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if want := p.engine.LastSeq() + 1; e.Seq != want {
		return fmt.Errorf("expected seq %d, got %d: %w", want, e.Seq, ErrInvalidOrdering)
	}
	if id := idhash.ComputeEventID(e.Seq, e.Kind, e.CampaignID, e.Actor, e.Slot, e.Amount); id != e.EventID {
		return fmt.Errorf("event id %s does not match content: %w", e.EventID, ErrDivergence)
	}

	p.clock.Set(e.Slot)
	if err := p.apply(ctx, e); err != nil {
		return err
	}

	if got := p.engine.LastSeq(); got != e.Seq {
		return fmt.Errorf("event %d committed as seq %d: %w", e.Seq, got, ErrDivergence)
	}
	return nil
}

func (p *Projector) apply(ctx context.Context, e *domain.Event) error {
	switch e.Kind {
	case domain.EventAssetApproved:
		var payload domain.AssetPayload
		if err := decode(e, &payload); err != nil {
			return err
		}
		return p.engine.ApproveCollateralAsset(ctx, e.Actor, payload.Asset)

	case domain.EventCampaignCreated:
		var params domain.CampaignParams
		if err := decode(e, &params); err != nil {
			return err
		}
		id, err := p.engine.CreateCampaign(ctx, e.Actor, params)
		if err != nil {
			return err
		}
		if id != e.CampaignID {
			return fmt.Errorf("created campaign %d, journal has %d: %w", id, e.CampaignID, ErrDivergence)
		}
		return nil

	case domain.EventConfigured:
		var payload domain.ConfiguredPayload
		if err := decode(e, &payload); err != nil {
			return err
		}
		return p.engine.Configure(ctx, e.Actor, e.CampaignID, payload.Schedule, payload.Params)

	case domain.EventWhitelisted:
		var payload domain.WhitelistPayload
		if err := decode(e, &payload); err != nil {
			return err
		}
		return p.engine.AddToWhitelist(ctx, e.Actor, e.CampaignID, payload.Addresses)

	case domain.EventJoined:
		return p.engine.Join(ctx, e.Actor, e.CampaignID, e.Amount)
	case domain.EventAdded:
		return p.engine.Add(ctx, e.Actor, e.CampaignID, e.Amount)
	case domain.EventBorrowed:
		return p.engine.Borrow(ctx, e.Actor, e.CampaignID, e.Amount)

	case domain.EventRepaid:
		return verify(e)(p.engine.Repay(ctx, e.Actor, e.CampaignID, e.Amount))
	case domain.EventExited:
		return verify(e)(p.engine.Exit(ctx, e.Actor, e.CampaignID))
	case domain.EventRemoved:
		return verify(e)(p.engine.Remove(ctx, e.Actor, e.CampaignID))
	case domain.EventRewarded:
		return verify(e)(p.engine.Reward(ctx, e.Actor, e.CampaignID))
	case domain.EventRefunded:
		return verify(e)(p.engine.Refund(ctx, e.Actor, e.CampaignID))
	case domain.EventForfeitClaimed:
		return verify(e)(p.engine.ClaimForfeited(ctx, e.Actor, e.CampaignID))

	default:
		return fmt.Errorf("%q: %w", e.Kind, ErrUnknownKind)
	}
}

// verify returns a check that the recomputed amount matches the journal.
func verify(e *domain.Event) func(*big.Int, error) error {
	return func(got *big.Int, err error) error {
		if err != nil {
			return err
		}
		want := e.Amount
		if want == nil {
			want = new(big.Int)
		}
		if got.Cmp(want) != 0 {
			return fmt.Errorf("%s paid %s, journal has %s: %w", e.Kind, got, want, ErrDivergence)
		}
		return nil
	}
}

func decode(e *domain.Event, v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%s event %d has no payload: %w", e.Kind, e.Seq, ErrDivergence)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Kind, err)
	}
	return nil
}
