package domain

import "fmt"

// Phase is the time window a campaign is in at a given tick.
type Phase int

// Campaign phases in chronological order.
const (
	PhasePreJoin Phase = iota
	PhaseJoin
	PhaseAdd
	PhaseBorrowRepay
	PhaseSettlement
)

func (p Phase) String() string {
	switch p {
	case PhasePreJoin:
		return "PRE_JOIN"
	case PhaseJoin:
		return "JOIN"
	case PhaseAdd:
		return "ADD"
	case PhaseBorrowRepay:
		return "BORROW_REPAY"
	case PhaseSettlement:
		return "SETTLEMENT"
	default:
		return fmt.Sprintf("PHASE(%d)", int(p))
	}
}

// Schedule holds the four phase boundaries, in slots. Each phase is the
// half-open interval from its start to the next boundary.
type Schedule struct {
	JoinStart   uint64 `json:"join_start" yaml:"join_start"`
	AddStart    uint64 `json:"add_start" yaml:"add_start"`
	BorrowStart uint64 `json:"borrow_start" yaml:"borrow_start"`
	ExitStart   uint64 `json:"exit_start" yaml:"exit_start"`
}

// Validate checks that boundaries are strictly increasing and all lie after now.
func (s Schedule) Validate(now uint64) error {
	if s.JoinStart <= now {
		return fmt.Errorf("%w: join start %d not after current slot %d", ErrInvalidSchedule, s.JoinStart, now)
	}
	if !(s.JoinStart < s.AddStart && s.AddStart < s.BorrowStart && s.BorrowStart < s.ExitStart) {
		return fmt.Errorf("%w: boundaries %d/%d/%d/%d not strictly increasing",
			ErrInvalidSchedule, s.JoinStart, s.AddStart, s.BorrowStart, s.ExitStart)
	}
	return nil
}

// PhaseAt maps a tick onto the schedule.
func (s Schedule) PhaseAt(now uint64) Phase {
	switch {
	case now >= s.ExitStart:
		return PhaseSettlement
	case now >= s.BorrowStart:
		return PhaseBorrowRepay
	case now >= s.AddStart:
		return PhaseAdd
	case now >= s.JoinStart:
		return PhaseJoin
	default:
		return PhasePreJoin
	}
}
