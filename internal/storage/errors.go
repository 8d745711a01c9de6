package storage

import "errors"

// Sentinels shared by the journal and summary stores. Both are append-only:
// a record, once written, is never replaced.
var (
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey reports an event sequence or summary snapshot that
	// was already written.
	ErrDuplicateKey = errors.New("already recorded")

	// ErrInvalidInput covers nil records, sequence gaps and amounts that
	// cannot be stored as whole token units.
	ErrInvalidInput = errors.New("invalid record")
)
