package asset

import (
	"context"
	"math/big"

	"solana-launchpad/internal/domain"
)

// Escrow adapts a Book to the pull/push interface used by the launch
// engine. Pulls are transfer-from calls with the escrow account as spender,
// so participants must Approve the escrow address first.
type Escrow struct {
	book    *Book
	account domain.Address
}

// NewEscrow binds book to the escrow account.
func NewEscrow(book *Book, account domain.Address) *Escrow {
	return &Escrow{book: book, account: account}
}

// Account returns the escrow address participants approve.
func (e *Escrow) Account() domain.Address {
	return e.account
}

// Pull moves amount of asset from from into escrow.
func (e *Escrow) Pull(ctx context.Context, asset, from domain.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	return e.book.TransferFrom(ctx, e.account, asset, from, e.account, amount)
}

// Push moves amount of asset from escrow to to.
func (e *Escrow) Push(ctx context.Context, asset, to domain.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	return e.book.Transfer(ctx, asset, e.account, to, amount)
}

// Discard accepts every pull and push without moving anything. It backs
// engines rebuilt from the journal, whose transfers already happened.
type Discard struct{}

// Pull implements the engine's asset ledger.
func (Discard) Pull(context.Context, domain.Address, domain.Address, *big.Int) error { return nil }

// Push implements the engine's asset ledger.
func (Discard) Push(context.Context, domain.Address, domain.Address, *big.Int) error { return nil }
