package scenario

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/big"

	"solana-launchpad/internal/access"
	"solana-launchpad/internal/asset"
	"solana-launchpad/internal/clock"
	"solana-launchpad/internal/domain"
	"solana-launchpad/internal/eligibility"
	"solana-launchpad/internal/launch"
	"solana-launchpad/internal/observability"
	"solana-launchpad/internal/storage"
)

// LockVault is the account name holding eligibility stakes.
const LockVault = "lock-vault"

// Options configures a run.
type Options struct {
	// Journal receives the engine's events. Nil disables journaling.
	Journal storage.EventStore
	// Admins are granted admin authority in addition to the scenario's own.
	Admins  []domain.Address
	Logger  *log.Logger
	Metrics *observability.Metrics
}

// StepResult is the outcome of one step.
type StepResult struct {
	Index    int
	Step     Step
	Returned *big.Int
	Err      error
	// Failure explains why the outcome did not match the step's expectation.
	Failure string
}

// OK reports whether the step behaved as expected.
func (r StepResult) OK() bool { return r.Failure == "" }

// Result is the state after a run.
type Result struct {
	Engine    *launch.Engine
	Book      *asset.Book
	Clock     *clock.Manual
	Campaigns map[string]uint64
	Steps     []StepResult
}

// Failures returns the steps whose outcome did not match.
func (r *Result) Failures() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if !s.OK() {
			out = append(out, s)
		}
	}
	return out
}

// Balance returns account's holding of asset, both given by scenario name.
func (r *Result) Balance(asset, account string) *big.Int {
	return r.Book.BalanceOf(Account(asset), Account(account))
}

// Run bootstraps the scenario and executes its steps in order. Bootstrap
// failures abort the run; step mismatches are recorded in the result.
func Run(ctx context.Context, sc *Scenario, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	res := &Result{
		Book:      asset.NewBook(),
		Clock:     clock.NewManual(sc.StartSlot),
		Campaigns: make(map[string]uint64),
	}
	escrow := Account(sc.Escrow)

	admins := make([]domain.Address, 0, len(sc.Admins))
	for _, a := range sc.Admins {
		admins = append(admins, Account(a))
	}
	admin := admins[0]
	admins = append(admins, opts.Admins...)
	auth := access.NewAdmins(admins...)

	for _, a := range sc.Assets {
		mint, minter := Account(a.Name), Account(a.Minter)
		res.Book.AddMinter(mint, minter)
		for holder, amount := range a.Mints {
			if err := res.Book.Mint(minter, mint, Account(holder), amount.Int()); err != nil {
				return nil, fmt.Errorf("mint %s to %s: %w", a.Name, holder, err)
			}
		}
	}
	for _, ap := range sc.Approvals {
		spender := escrow
		if ap.Spender != "" {
			spender = Account(ap.Spender)
		}
		res.Book.Approve(Account(ap.Owner), Account(ap.Asset), spender, ap.Amount.Int())
	}

	var (
		oracle launch.EligibilityOracle = eligibility.AllowAll{}
		lock   *eligibility.Lock
	)
	if sc.Lockup != nil {
		vault := Account(LockVault)
		lock = eligibility.NewLock(asset.NewEscrow(res.Book, vault), res.Clock, auth)
		if err := lock.SetLockUpAsset(admin, Account(sc.Lockup.Asset)); err != nil {
			return nil, fmt.Errorf("lockup asset: %w", err)
		}
		if err := lock.SetMinLockUpAmount(admin, sc.Lockup.MinAmount.Int()); err != nil {
			return nil, fmt.Errorf("lockup amount: %w", err)
		}
		if err := lock.SetMinLockUpPeriod(admin, sc.Lockup.Period); err != nil {
			return nil, fmt.Errorf("lockup period: %w", err)
		}
		oracle = lock
	}

	engine, err := launch.New(launch.Options{
		Ledger:    asset.NewEscrow(res.Book, escrow),
		Oracle:    oracle,
		Authority: auth,
		Clock:     res.Clock,
		Journal:   opts.Journal,
		Logger:    logger,
		Metrics:   opts.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	res.Engine = engine

	for _, a := range sc.CollateralAssets {
		if err := engine.ApproveCollateralAsset(ctx, admin, Account(a)); err != nil {
			return nil, fmt.Errorf("approve collateral %s: %w", a, err)
		}
	}

	for _, cs := range sc.Campaigns {
		creator := admin
		if cs.Creator != "" {
			creator = Account(cs.Creator)
		}
		id, err := engine.CreateCampaign(ctx, creator, domain.CampaignParams{
			RewardAsset:     Account(cs.RewardAsset),
			CollateralAsset: Account(cs.CollateralAsset),
			Beneficiary:     Account(cs.Beneficiary),
			CollateralRatio: cs.CollateralRatio.Int(),
			BorrowRatio:     cs.BorrowRatio.Int(),
			RewardSupply:    cs.RewardSupply.Int(),
			FundingCap:      cs.FundingCap.Int(),
		})
		if err != nil {
			return nil, fmt.Errorf("create campaign %s: %w", cs.Name, err)
		}
		res.Campaigns[cs.Name] = id

		if cs.Schedule != nil {
			var bounds domain.ConfigureParams
			if cs.Bounds != nil {
				bounds = domain.ConfigureParams{
					AuxParam:        cs.Bounds.AuxParam.Int(),
					MinContribution: cs.Bounds.MinContribution.Int(),
					MaxContribution: cs.Bounds.MaxContribution.Int(),
					Floor:           cs.Bounds.Floor.Int(),
				}
			}
			if err := engine.Configure(ctx, Account(cs.Beneficiary), id, *cs.Schedule, bounds); err != nil {
				return nil, fmt.Errorf("configure campaign %s: %w", cs.Name, err)
			}
		}
		if len(cs.Whitelist) > 0 {
			if err := engine.AddToWhitelist(ctx, Account(cs.Beneficiary), id, accounts(cs.Whitelist)); err != nil {
				return nil, fmt.Errorf("whitelist campaign %s: %w", cs.Name, err)
			}
		}
		logger.Printf("campaign %s created with id %d", cs.Name, id)
	}

	for i, step := range sc.Steps {
		if now, _ := res.Clock.Now(ctx); step.Slot > now {
			res.Clock.Set(step.Slot)
		}
		r := StepResult{Index: i, Step: step}
		r.Returned, r.Err = execute(ctx, engine, lock, res.Campaigns[step.Campaign], step)
		r.Failure = check(step, r.Returned, r.Err)
		if !r.OK() {
			logger.Printf("step %d (%s by %s at slot %d): %s", i, step.Op, step.Caller, step.Slot, r.Failure)
		}
		res.Steps = append(res.Steps, r)
	}
	return res, nil
}

func execute(ctx context.Context, e *launch.Engine, lock *eligibility.Lock, id uint64, s Step) (*big.Int, error) {
	caller := Account(s.Caller)
	switch s.Op {
	case OpJoin:
		return nil, e.Join(ctx, caller, id, s.Amount.Int())
	case OpAdd:
		return nil, e.Add(ctx, caller, id, s.Amount.Int())
	case OpBorrow:
		return nil, e.Borrow(ctx, caller, id, s.Amount.Int())
	case OpRepay:
		return e.Repay(ctx, caller, id, s.Amount.Int())
	case OpExit:
		return e.Exit(ctx, caller, id)
	case OpRemove:
		return e.Remove(ctx, caller, id)
	case OpReward:
		return e.Reward(ctx, caller, id)
	case OpRefund:
		return e.Refund(ctx, caller, id)
	case OpClaimForfeited:
		return e.ClaimForfeited(ctx, caller, id)
	case OpWhitelist:
		return nil, e.AddToWhitelist(ctx, caller, id, accounts(s.Accounts))
	case OpLock, OpUnlock:
		if lock == nil {
			return nil, fmt.Errorf("%s: %w", s.Op, domain.ErrLockNotSet)
		}
		if s.Op == OpLock {
			return nil, lock.Lock(ctx, caller)
		}
		return nil, lock.Unlock(ctx, caller)
	default:
		return nil, fmt.Errorf("%w: op %q", ErrInvalidScenario, s.Op)
	}
}

func check(s Step, returned *big.Int, err error) string {
	switch {
	case s.Expect == "" && err != nil:
		return fmt.Sprintf("unexpected error: %v", err)
	case s.Expect != "" && err == nil:
		return fmt.Sprintf("expected %s, got success", s.Expect)
	case s.Expect != "" && domain.ErrorKind(err) != s.Expect:
		return fmt.Sprintf("expected %s, got %s (%v)", s.Expect, domain.ErrorKind(err), err)
	}
	if s.Returns != nil && err == nil {
		got := returned
		if got == nil {
			got = new(big.Int)
		}
		if got.Cmp(s.Returns.Int()) != 0 {
			return fmt.Sprintf("returned %s, want %s", got, s.Returns.Int())
		}
	}
	return ""
}

func accounts(names []string) []domain.Address {
	out := make([]domain.Address, 0, len(names))
	for _, n := range names {
		out = append(out, Account(n))
	}
	return out
}
