// Package eligibility implements the stake lock that decides which
// addresses may join campaigns.
package eligibility

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"solana-launchpad/internal/clock"
	"solana-launchpad/internal/domain"
)

// AssetLedger moves the lock-up asset in and out of the lock's custody.
type AssetLedger interface {
	Pull(ctx context.Context, asset, from domain.Address, amount *big.Int) error
	Push(ctx context.Context, asset, to domain.Address, amount *big.Int) error
}

// Authority gates lock configuration.
type Authority interface {
	IsAdmin(addr domain.Address) bool
}

// Stake is one address's active lock.
type Stake struct {
	Amount    *big.Int
	LockedAt  uint64
	UnlocksAt uint64
}

// Lock holds stakes of a single lock-up asset. An address is eligible while
// its stake covers the current minimum lock-up amount.
type Lock struct {
	mu     sync.Mutex
	ledger AssetLedger
	clock  clock.Clock
	auth   Authority

	asset     domain.Address
	minAmount *big.Int
	minPeriod uint64
	stakes    map[domain.Address]Stake
	// pending holds callers whose transfer is in flight; l.mu is not held
	// across ledger calls.
	pending map[domain.Address]struct{}
}

// NewLock creates an unconfigured lock. Until SetLockUpAsset is called no
// address is eligible.
func NewLock(ledger AssetLedger, clk clock.Clock, auth Authority) *Lock {
	return &Lock{
		ledger:    ledger,
		clock:     clk,
		auth:      auth,
		minAmount: new(big.Int),
		stakes:    make(map[domain.Address]Stake),
		pending:   make(map[domain.Address]struct{}),
	}
}

// SetLockUpAsset sets the asset stakes are denominated in. Admin only.
func (l *Lock) SetLockUpAsset(caller, asset domain.Address) error {
	if !l.auth.IsAdmin(caller) {
		return fmt.Errorf("set lock-up asset: %w", domain.ErrUnauthorized)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.asset = asset
	return nil
}

// SetMinLockUpAmount sets the stake size Lock pulls. Admin only.
func (l *Lock) SetMinLockUpAmount(caller domain.Address, amount *big.Int) error {
	if !l.auth.IsAdmin(caller) {
		return fmt.Errorf("set min lock-up amount: %w", domain.ErrUnauthorized)
	}
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("set min lock-up amount: %w", domain.ErrOutOfRange)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minAmount = new(big.Int).Set(amount)
	return nil
}

// SetMinLockUpPeriod sets how many slots a stake stays locked. Admin only.
func (l *Lock) SetMinLockUpPeriod(caller domain.Address, slots uint64) error {
	if !l.auth.IsAdmin(caller) {
		return fmt.Errorf("set min lock-up period: %w", domain.ErrUnauthorized)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minPeriod = slots
	return nil
}

// Lock pulls the minimum lock-up amount from caller and records the stake.
func (l *Lock) Lock(ctx context.Context, caller domain.Address) error {
	now, err := l.clock.Now(ctx)
	if err != nil {
		return fmt.Errorf("lock: %w", err)
	}

	l.mu.Lock()
	if l.asset.IsZero() {
		l.mu.Unlock()
		return fmt.Errorf("lock: %w", domain.ErrLockNotSet)
	}
	if _, ok := l.stakes[caller]; ok {
		l.mu.Unlock()
		return fmt.Errorf("lock %s: %w", caller, domain.ErrAlreadyLocked)
	}
	if _, ok := l.pending[caller]; ok {
		l.mu.Unlock()
		return fmt.Errorf("lock %s: %w", caller, domain.ErrAlreadyLocked)
	}
	l.pending[caller] = struct{}{}
	asset, period := l.asset, l.minPeriod
	amount := new(big.Int).Set(l.minAmount)
	l.mu.Unlock()

	err = l.ledger.Pull(ctx, asset, caller, amount)

	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pending, caller)
	if err != nil {
		return fmt.Errorf("lock %s: %w", caller, err)
	}
	l.stakes[caller] = Stake{Amount: amount, LockedAt: now, UnlocksAt: now + period}
	return nil
}

// Unlock returns caller's stake once its lock-up period has elapsed.
func (l *Lock) Unlock(ctx context.Context, caller domain.Address) error {
	now, err := l.clock.Now(ctx)
	if err != nil {
		return fmt.Errorf("unlock: %w", err)
	}

	l.mu.Lock()
	stake, ok := l.stakes[caller]
	if !ok {
		l.mu.Unlock()
		return fmt.Errorf("unlock %s: %w", caller, domain.ErrNotLocked)
	}
	if now < stake.UnlocksAt {
		l.mu.Unlock()
		return fmt.Errorf("unlock %s until slot %d: %w", caller, stake.UnlocksAt, domain.ErrLockPeriodActive)
	}
	delete(l.stakes, caller)
	l.pending[caller] = struct{}{}
	asset := l.asset
	l.mu.Unlock()

	err = l.ledger.Push(ctx, asset, caller, stake.Amount)

	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pending, caller)
	if err != nil {
		l.stakes[caller] = stake
		return fmt.Errorf("unlock %s: %w", caller, err)
	}
	return nil
}

// IsEligible reports whether addr holds a stake covering the current minimum.
func (l *Lock) IsEligible(addr domain.Address) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.asset.IsZero() {
		return false
	}
	stake, ok := l.stakes[addr]
	return ok && stake.Amount.Cmp(l.minAmount) >= 0
}

// StakeOf returns a copy of addr's stake.
func (l *Lock) StakeOf(addr domain.Address) (Stake, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	stake, ok := l.stakes[addr]
	if !ok {
		return Stake{}, false
	}
	stake.Amount = new(big.Int).Set(stake.Amount)
	return stake, true
}

// AllowAll is an oracle that admits every address.
type AllowAll struct{}

// IsEligible always returns true.
func (AllowAll) IsEligible(domain.Address) bool { return true }
