package domain

import "errors"

// Operation errors. Every rejected operation returns one of these (possibly
// wrapped with context) and leaves campaign state untouched.
var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrUnknownCampaign     = errors.New("unknown campaign")
	ErrInvalidRatio        = errors.New("invalid ratio")
	ErrUnapprovedAsset     = errors.New("collateral asset not approved")
	ErrInvalidSchedule     = errors.New("invalid schedule")
	ErrInvalidBounds       = errors.New("invalid contribution bounds")
	ErrAlreadyConfigured   = errors.New("campaign already configured")
	ErrNotConfigured       = errors.New("campaign not configured")
	ErrWrongPhase          = errors.New("wrong phase")
	ErrNotWhitelisted      = errors.New("not whitelisted")
	ErrNotEligible         = errors.New("not eligible")
	ErrAlreadyJoined       = errors.New("already joined")
	ErrNotJoined           = errors.New("not joined")
	ErrOutOfRange          = errors.New("amount out of range")
	ErrDebtCeilingExceeded = errors.New("debt ceiling exceeded")
	ErrAlreadyRewarded     = errors.New("already rewarded")
	ErrFloorNotMet         = errors.New("funding floor not met")
	ErrFloorMet            = errors.New("funding floor met, refund unavailable")
	ErrAlreadyExited       = errors.New("already exited")
	ErrAlreadyRemoved      = errors.New("already removed")
	ErrAlreadyRefunded     = errors.New("already refunded")
	ErrInsufficientEscrow  = errors.New("insufficient reward escrow")
	ErrReentrantCall       = errors.New("re-entrant call rejected")

	// Asset ledger errors.
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")

	// Eligibility lock errors.
	ErrAlreadyLocked    = errors.New("already locked")
	ErrNotLocked        = errors.New("not locked")
	ErrLockPeriodActive = errors.New("lock-up period still active")
	ErrLockNotSet       = errors.New("lock-up asset not set")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrUnauthorized, "unauthorized"},
	{ErrUnknownCampaign, "unknown_campaign"},
	{ErrInvalidRatio, "invalid_ratio"},
	{ErrUnapprovedAsset, "unapproved_asset"},
	{ErrInvalidSchedule, "invalid_schedule"},
	{ErrInvalidBounds, "invalid_bounds"},
	{ErrAlreadyConfigured, "already_configured"},
	{ErrNotConfigured, "not_configured"},
	{ErrWrongPhase, "wrong_phase"},
	{ErrNotWhitelisted, "not_whitelisted"},
	{ErrNotEligible, "not_eligible"},
	{ErrAlreadyJoined, "already_joined"},
	{ErrNotJoined, "not_joined"},
	{ErrOutOfRange, "out_of_range"},
	{ErrDebtCeilingExceeded, "debt_ceiling_exceeded"},
	{ErrAlreadyRewarded, "already_rewarded"},
	{ErrFloorNotMet, "floor_not_met"},
	{ErrFloorMet, "floor_met"},
	{ErrAlreadyExited, "already_exited"},
	{ErrAlreadyRemoved, "already_removed"},
	{ErrAlreadyRefunded, "already_refunded"},
	{ErrInsufficientEscrow, "insufficient_escrow"},
	{ErrReentrantCall, "reentrant_call"},
	{ErrInsufficientBalance, "insufficient_balance"},
	{ErrInsufficientAllowance, "insufficient_allowance"},
	{ErrAlreadyLocked, "already_locked"},
	{ErrNotLocked, "not_locked"},
	{ErrLockPeriodActive, "lock_period_active"},
	{ErrLockNotSet, "lock_not_set"},
	{ErrInvalidAddress, "invalid_address"},
}

// ErrorKind returns a stable label for err, suitable for metrics.
// Unrecognised errors map to "internal".
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}
