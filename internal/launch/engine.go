// Package launch implements the collateralized campaign engine: the
// registry of campaigns, their phase schedules and whitelists, and the
// participant operations that move collateral and reward assets.
package launch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	"solana-launchpad/internal/clock"
	"solana-launchpad/internal/domain"
	"solana-launchpad/internal/idhash"
	"solana-launchpad/internal/observability"
	"solana-launchpad/internal/storage"
)

// AssetLedger moves assets between participants and the campaign escrow.
// Both methods run inside an engine operation with the ctx of that
// operation; any callback into the engine must carry it, or it blocks on
// the operation that is still in progress.
type AssetLedger interface {
	// Pull moves amount of asset from from into escrow.
	Pull(ctx context.Context, asset, from domain.Address, amount *big.Int) error
	// Push moves amount of asset from escrow to to.
	Push(ctx context.Context, asset, to domain.Address, amount *big.Int) error
}

// EligibilityOracle decides whether an address may join campaigns.
type EligibilityOracle interface {
	IsEligible(addr domain.Address) bool
}

// Authority decides who may create campaigns and approve collateral assets.
type Authority interface {
	IsAdmin(addr domain.Address) bool
}

// Options configures an Engine.
type Options struct {
	// Required collaborators
	Ledger    AssetLedger
	Oracle    EligibilityOracle
	Authority Authority
	Clock     clock.Clock

	// Journal receives every committed operation. Nil disables journaling.
	Journal storage.EventStore
	// StartSeq is the Seq of the last event already in Journal.
	StartSeq uint64

	Logger  *log.Logger
	Metrics *observability.Metrics
}

// Engine owns every campaign and serializes all operations on them.
type Engine struct {
	mu sync.Mutex

	ledger  AssetLedger
	oracle  EligibilityOracle
	auth    Authority
	clock   clock.Clock
	journal storage.EventStore
	logger  *log.Logger
	metrics *observability.Metrics

	seq     uint64
	backlog []*domain.Event

	approved  map[domain.Address]struct{}
	campaigns []*campaignRecord
}

// campaignRecord is a campaign with its whitelist and positions.
type campaignRecord struct {
	c         *domain.Campaign
	whitelist map[domain.Address]struct{}
	listOrder []domain.Address
	positions map[domain.Address]*domain.Position
	joinOrder []domain.Address
}

// New creates an empty engine.
func New(opts Options) (*Engine, error) {
	switch {
	case opts.Ledger == nil:
		return nil, errors.New("launch: asset ledger is required")
	case opts.Oracle == nil:
		return nil, errors.New("launch: eligibility oracle is required")
	case opts.Authority == nil:
		return nil, errors.New("launch: authority is required")
	case opts.Clock == nil:
		return nil, errors.New("launch: clock is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Engine{
		ledger:   opts.Ledger,
		oracle:   opts.Oracle,
		auth:     opts.Authority,
		clock:    opts.Clock,
		journal:  opts.Journal,
		logger:   logger,
		metrics:  opts.Metrics,
		seq:      opts.StartSeq,
		approved: make(map[domain.Address]struct{}),
	}, nil
}

// inOperationKey marks a context derived inside an engine operation.
type inOperationKey struct{}

// run executes one operation under the engine lock. Asset ledger callbacks
// receive the operation context, so a callback that calls back into the
// engine is rejected instead of observing a half-applied update.
// fn returns the event to journal, or nil when nothing changed.
func (e *Engine) run(ctx context.Context, op string, fn func(ctx context.Context, now uint64) (*domain.Event, error)) error {
	if inner, ok := ctx.Value(inOperationKey{}).(string); ok {
		return fmt.Errorf("%s inside %s: %w", op, inner, domain.ErrReentrantCall)
	}

	start := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()

	now, err := e.clock.Now(ctx)
	if err != nil {
		e.metrics.RecordOperation(op, "clock", time.Since(start))
		return fmt.Errorf("%s: read clock: %w", op, err)
	}

	ev, err := fn(context.WithValue(ctx, inOperationKey{}, op), now)
	e.metrics.RecordOperation(op, domain.ErrorKind(err), time.Since(start))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if ev != nil {
		ev.Slot = now
		e.commit(ctx, ev)
	}
	return nil
}

// commit assigns the next sequence number and journals ev. A journal
// failure never undoes the committed operation: the event stays in the
// backlog and is retried on the next commit or FlushJournal.
func (e *Engine) commit(ctx context.Context, ev *domain.Event) {
	e.seq++
	ev.Seq = e.seq
	ev.EventID = idhash.ComputeEventID(ev.Seq, ev.Kind, ev.CampaignID, ev.Actor, ev.Slot, ev.Amount)
	e.metrics.UpdateJournalSeq(int64(ev.Seq))

	if int(ev.CampaignID) < len(e.campaigns) && ev.Kind != domain.EventAssetApproved {
		c := e.campaigns[ev.CampaignID].c
		e.metrics.UpdateCampaignTotals(fmt.Sprint(c.ID), toFloat(c.TotalCollateral), toFloat(c.RewardPaid))
	}

	if e.journal == nil {
		return
	}
	e.backlog = append(e.backlog, ev)
	if err := e.flush(ctx); err != nil {
		e.logger.Printf("journal append failed (%d events pending): %v", len(e.backlog), err)
	}
}

// flush appends backlogged events in order, stopping at the first failure.
func (e *Engine) flush(ctx context.Context) error {
	for len(e.backlog) > 0 {
		if err := e.journal.Append(ctx, e.backlog[0]); err != nil {
			return fmt.Errorf("append event %d: %w", e.backlog[0].Seq, err)
		}
		e.backlog = e.backlog[1:]
	}
	return nil
}

// FlushJournal retries journaling events whose append failed earlier.
func (e *Engine) FlushJournal(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.journal == nil {
		return nil
	}
	return e.flush(ctx)
}

// JournalBacklog returns the number of committed events not yet journaled.
func (e *Engine) JournalBacklog() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.backlog)
}

// LastSeq returns the sequence number of the last committed operation.
func (e *Engine) LastSeq() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq
}

// campaign returns the record for id.
func (e *Engine) campaign(id uint64) (*campaignRecord, error) {
	if id >= uint64(len(e.campaigns)) {
		return nil, fmt.Errorf("campaign %d: %w", id, domain.ErrUnknownCampaign)
	}
	return e.campaigns[id], nil
}

// configured returns the record for id if it exists and is configured.
func (e *Engine) configured(id uint64) (*campaignRecord, error) {
	rec, err := e.campaign(id)
	if err != nil {
		return nil, err
	}
	if !rec.c.Configured() {
		return nil, fmt.Errorf("campaign %d: %w", id, domain.ErrNotConfigured)
	}
	return rec, nil
}

// gate applies the checks shared by participant operations: the campaign
// exists and is configured, it is not in refund-only mode, and now falls in
// the required phase.
func (e *Engine) gate(id uint64, now uint64, want domain.Phase) (*campaignRecord, error) {
	rec, err := e.configured(id)
	if err != nil {
		return nil, err
	}
	if rec.c.FloorFailed(now) {
		return nil, fmt.Errorf("campaign %d collateral %s below floor %s: %w",
			id, rec.c.TotalCollateral, rec.c.FundingFloor(), domain.ErrFloorNotMet)
	}
	if got := rec.c.Schedule.PhaseAt(now); got != want {
		return nil, fmt.Errorf("campaign %d in %s, need %s: %w", id, got, want, domain.ErrWrongPhase)
	}
	return rec, nil
}

// snapshot captures the campaign and one position so a failed payout can
// restore them.
func (rec *campaignRecord) snapshot(addr domain.Address) func() {
	c := rec.c.Clone()
	pos, had := rec.positions[addr]
	var p *domain.Position
	if had {
		p = pos.Clone()
	}
	return func() {
		*rec.c = *c
		if had {
			*rec.positions[addr] = *p
		} else {
			delete(rec.positions, addr)
		}
	}
}

// position returns the caller's position, requiring it to exist.
func (rec *campaignRecord) position(addr domain.Address) (*domain.Position, error) {
	pos, ok := rec.positions[addr]
	if !ok || !pos.Joined {
		return nil, fmt.Errorf("%s in campaign %d: %w", addr, rec.c.ID, domain.ErrNotJoined)
	}
	return pos, nil
}

// newEvent builds an unsequenced event.
func newEvent(kind domain.EventKind, id uint64, actor domain.Address, amount *big.Int) *domain.Event {
	ev := &domain.Event{Kind: kind, CampaignID: id, Actor: actor}
	if amount != nil {
		ev.Amount = new(big.Int).Set(amount)
	}
	return ev
}

// withPayload attaches a JSON payload to ev.
func withPayload(ev *domain.Event, payload any) (*domain.Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", ev.Kind, err)
	}
	ev.Payload = data
	return ev, nil
}

func toFloat(v *big.Int) float64 {
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
