// Package asset provides an in-memory fungible token book with
// approve/transfer-from semantics and a per-asset minter allow-list.
package asset

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"solana-launchpad/internal/domain"
)

// Transfer describes one balance movement.
type Transfer struct {
	Asset  domain.Address
	From   domain.Address
	To     domain.Address
	Amount *big.Int
}

// TransferHook is invoked after a transfer has been applied. A non-nil
// error reverts the transfer and is returned to the caller. The hook runs
// while the caller still holds its own locks: a hook that calls back into
// the engine must pass on the ctx it was given, which is how the engine
// recognizes and rejects the nested call.
type TransferHook func(ctx context.Context, t Transfer) error

// Book holds balances, allowances and minters for any number of assets.
type Book struct {
	mu         sync.Mutex
	balances   map[domain.Address]map[domain.Address]*big.Int
	allowances map[domain.Address]map[allowanceKey]*big.Int
	minters    map[domain.Address]map[domain.Address]struct{}
	supply     map[domain.Address]*big.Int
	hook       TransferHook
}

type allowanceKey struct {
	owner   domain.Address
	spender domain.Address
}

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{
		balances:   make(map[domain.Address]map[domain.Address]*big.Int),
		allowances: make(map[domain.Address]map[allowanceKey]*big.Int),
		minters:    make(map[domain.Address]map[domain.Address]struct{}),
		supply:     make(map[domain.Address]*big.Int),
	}
}

// SetTransferHook installs a hook called after every transfer.
func (b *Book) SetTransferHook(h TransferHook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hook = h
}

// AddMinter allows minter to mint asset.
func (b *Book) AddMinter(asset, minter domain.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.minters[asset]
	if !ok {
		m = make(map[domain.Address]struct{})
		b.minters[asset] = m
	}
	m[minter] = struct{}{}
}

// IsMinter reports whether minter may mint asset.
func (b *Book) IsMinter(asset, minter domain.Address) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.minters[asset][minter]
	return ok
}

// Mint credits amount of asset to to. The caller must be a minter.
func (b *Book) Mint(caller, asset, to domain.Address, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.minters[asset][caller]; !ok {
		return fmt.Errorf("mint %s: %w", asset, domain.ErrUnauthorized)
	}
	b.credit(asset, to, amount)
	b.totalSupply(asset).Add(b.totalSupply(asset), amount)
	return nil
}

// Burn destroys amount of the holder's balance.
func (b *Book) Burn(holder, asset domain.Address, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.debit(asset, holder, amount); err != nil {
		return err
	}
	b.totalSupply(asset).Sub(b.totalSupply(asset), amount)
	return nil
}

// BalanceOf returns a copy of holder's balance.
func (b *Book) BalanceOf(asset, holder domain.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.balance(asset, holder))
}

// TotalSupply returns a copy of the minted supply of asset.
func (b *Book) TotalSupply(asset domain.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.totalSupply(asset))
}

// Approve sets the amount spender may move out of owner's balance.
func (b *Book) Approve(owner, asset, spender domain.Address, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.allowances[asset]
	if !ok {
		m = make(map[allowanceKey]*big.Int)
		b.allowances[asset] = m
	}
	m[allowanceKey{owner, spender}] = new(big.Int).Set(amount)
}

// Allowance returns a copy of the remaining allowance.
func (b *Book) Allowance(asset, owner, spender domain.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if v, ok := b.allowances[asset][allowanceKey{owner, spender}]; ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

// Transfer moves amount from from to to.
func (b *Book) Transfer(ctx context.Context, asset, from, to domain.Address, amount *big.Int) error {
	b.mu.Lock()
	if err := b.move(asset, from, to, amount); err != nil {
		b.mu.Unlock()
		return err
	}
	hook := b.hook
	b.mu.Unlock()

	return b.runHook(ctx, hook, Transfer{Asset: asset, From: from, To: to, Amount: amount}, nil)
}

// TransferFrom moves amount from owner to to, consuming spender's allowance.
func (b *Book) TransferFrom(ctx context.Context, spender, asset, owner, to domain.Address, amount *big.Int) error {
	b.mu.Lock()
	key := allowanceKey{owner, spender}
	allowed := b.allowances[asset][key]
	if allowed == nil || allowed.Cmp(amount) < 0 {
		b.mu.Unlock()
		return fmt.Errorf("transfer %s from %s: %w", amount, owner, domain.ErrInsufficientAllowance)
	}
	if err := b.move(asset, owner, to, amount); err != nil {
		b.mu.Unlock()
		return err
	}
	allowed.Sub(allowed, amount)
	hook := b.hook
	b.mu.Unlock()

	return b.runHook(ctx, hook, Transfer{Asset: asset, From: owner, To: to, Amount: amount}, func() {
		allowed.Add(allowed, amount)
	})
}

// runHook calls hook outside the lock and reverts the transfer if it fails.
func (b *Book) runHook(ctx context.Context, hook TransferHook, t Transfer, undo func()) error {
	if hook == nil {
		return nil
	}
	if err := hook(ctx, t); err != nil {
		b.mu.Lock()
		defer b.mu.Unlock()
		_ = b.move(t.Asset, t.To, t.From, t.Amount)
		if undo != nil {
			undo()
		}
		return err
	}
	return nil
}

func (b *Book) move(asset, from, to domain.Address, amount *big.Int) error {
	if err := b.debit(asset, from, amount); err != nil {
		return err
	}
	b.credit(asset, to, amount)
	return nil
}

func (b *Book) debit(asset, holder domain.Address, amount *big.Int) error {
	bal := b.balance(asset, holder)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("debit %s of %s from %s: %w", amount, asset, holder, domain.ErrInsufficientBalance)
	}
	bal.Sub(bal, amount)
	return nil
}

func (b *Book) credit(asset, holder domain.Address, amount *big.Int) {
	bal := b.balance(asset, holder)
	bal.Add(bal, amount)
}

// balance returns the live balance pointer, creating it if needed.
func (b *Book) balance(asset, holder domain.Address) *big.Int {
	m, ok := b.balances[asset]
	if !ok {
		m = make(map[domain.Address]*big.Int)
		b.balances[asset] = m
	}
	v, ok := m[holder]
	if !ok {
		v = new(big.Int)
		m[holder] = v
	}
	return v
}

func (b *Book) totalSupply(asset domain.Address) *big.Int {
	v, ok := b.supply[asset]
	if !ok {
		v = new(big.Int)
		b.supply[asset] = v
	}
	return v
}
