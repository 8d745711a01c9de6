package replay

import "errors"

var (
	// ErrInvalidOrdering is returned when journal events are not contiguous in Seq.
	ErrInvalidOrdering = errors.New("events are not in journal order")

	// ErrDivergence is returned when re-executing an event does not reproduce
	// what the journal recorded.
	ErrDivergence = errors.New("replay diverged from journal")

	// ErrUnknownKind is returned for an event kind the projector cannot apply.
	ErrUnknownKind = errors.New("unknown event kind")
)
