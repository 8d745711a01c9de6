// Package access holds the administrator set that gates campaign creation
// and collateral asset approval.
package access

import (
	"fmt"
	"sort"
	"sync"

	"solana-launchpad/internal/domain"
)

// Admins is a mutable set of administrator addresses.
type Admins struct {
	mu     sync.RWMutex
	admins map[domain.Address]struct{}
}

// NewAdmins creates an admin set seeded with initial.
func NewAdmins(initial ...domain.Address) *Admins {
	a := &Admins{admins: make(map[domain.Address]struct{}, len(initial))}
	for _, addr := range initial {
		a.admins[addr] = struct{}{}
	}
	return a
}

// IsAdmin reports whether addr holds admin authority.
func (a *Admins) IsAdmin(addr domain.Address) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.admins[addr]
	return ok
}

// Grant adds addr to the admin set. Caller must be an admin.
func (a *Admins) Grant(caller, addr domain.Address) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.admins[caller]; !ok {
		return fmt.Errorf("grant admin: %w", domain.ErrUnauthorized)
	}
	a.admins[addr] = struct{}{}
	return nil
}

// Revoke removes addr from the admin set. Caller must be an admin and the
// set never becomes empty.
func (a *Admins) Revoke(caller, addr domain.Address) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.admins[caller]; !ok {
		return fmt.Errorf("revoke admin: %w", domain.ErrUnauthorized)
	}
	if _, ok := a.admins[addr]; !ok {
		return nil
	}
	if len(a.admins) == 1 {
		return fmt.Errorf("revoke last admin %s: %w", addr, domain.ErrUnauthorized)
	}
	delete(a.admins, addr)
	return nil
}

// SetAdmin hands the caller's authority to next.
func (a *Admins) SetAdmin(caller, next domain.Address) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.admins[caller]; !ok {
		return fmt.Errorf("set admin: %w", domain.ErrUnauthorized)
	}
	delete(a.admins, caller)
	a.admins[next] = struct{}{}
	return nil
}

// List returns the admins in base58 order.
func (a *Admins) List() []domain.Address {
	a.mu.RLock()
	out := make([]domain.Address, 0, len(a.admins))
	for addr := range a.admins {
		out = append(out, addr)
	}
	a.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Anyone grants admin authority to every address. It backs engines rebuilt
// from the journal, where authorization was checked when the event committed.
type Anyone struct{}

// IsAdmin always returns true.
func (Anyone) IsAdmin(domain.Address) bool { return true }
