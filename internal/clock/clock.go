// Package clock provides the slot sources that drive campaign phases.
package clock

import (
	"context"
	"sync"
)

// Clock reports the current chain slot.
type Clock interface {
	Now(ctx context.Context) (uint64, error)
}

// Manual is a Clock whose slot is set explicitly. Used by tests, scenarios and replay.
type Manual struct {
	mu   sync.Mutex
	slot uint64
}

var _ Clock = (*Manual)(nil)

// NewManual creates a manual clock at slot.
func NewManual(slot uint64) *Manual {
	return &Manual{slot: slot}
}

// Now returns the current slot.
func (m *Manual) Now(_ context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slot, nil
}

// Set moves the clock to slot. Moving backwards is allowed.
func (m *Manual) Set(slot uint64) {
	m.mu.Lock()
	m.slot = slot
	m.mu.Unlock()
}

// Advance moves the clock forward by n slots and returns the new slot.
func (m *Manual) Advance(n uint64) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slot += n
	return m.slot
}
