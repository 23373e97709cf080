package ledger

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// MemoryLedger keeps balances in memory. An account is controlled by its
// own address unless OpenAccount assigned it an owner; a mint can only be
// minted by its owner.
type MemoryLedger struct {
	mu       sync.RWMutex
	balances map[common.Address]map[common.Address]uint64
	supply   map[common.Address]uint64
	owners   map[common.Address]common.Address
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances: make(map[common.Address]map[common.Address]uint64),
		supply:   make(map[common.Address]uint64),
		owners:   make(map[common.Address]common.Address),
	}
}

func (l *MemoryLedger) BalanceOf(_ context.Context, asset, holder common.Address) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[asset][holder], nil
}

func (l *MemoryLedger) Supply(_ context.Context, mint common.Address) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.supply[mint], nil
}

// OpenAccount assigns owner as the controller of account. Opening an
// account again for the owner it already has is a no-op.
func (l *MemoryLedger) OpenAccount(_ context.Context, account, owner common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.owners[account]; ok {
		if existing == owner {
			return nil
		}
		return fmt.Errorf("%w: %s owned by %s", ErrAccountExists, account.Hex(), existing.Hex())
	}
	l.owners[account] = owner
	return nil
}

func (l *MemoryLedger) SigningAuthorityFor(pool common.Address) Authority {
	return SignedBy(PoolAuthority(pool))
}

// Credit adds amount of asset to holder outside of any authority. It
// stands in for deposits into the ledger from elsewhere.
func (l *MemoryLedger) Credit(_ context.Context, asset, holder common.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	balance := l.balances[asset][holder]
	if balance > math.MaxUint64-amount || l.supply[asset] > math.MaxUint64-amount {
		return ErrBalanceOverflow
	}
	l.setBalance(asset, holder, balance+amount)
	l.supply[asset] += amount
	return nil
}

func (l *MemoryLedger) Transfer(_ context.Context, auth Authority, asset, from, to common.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.transferLocked(auth, asset, from, to, amount)
	return err
}

func (l *MemoryLedger) Mint(_ context.Context, auth Authority, mint, to common.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.mintLocked(auth, mint, to, amount)
	return err
}

func (l *MemoryLedger) Burn(_ context.Context, auth Authority, mint, from common.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.burnLocked(auth, mint, from, amount)
	return err
}

// Apply executes movements as one unit. On failure every movement already
// applied in this call is rolled back.
func (l *MemoryLedger) Apply(_ context.Context, movements []Movement) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	undo := make([]func(), 0, len(movements))
	for i, m := range movements {
		revert, err := l.applyLocked(m)
		if err != nil {
			for j := len(undo) - 1; j >= 0; j-- {
				undo[j]()
			}
			return fmt.Errorf("movement %d (%s): %w", i, m.Kind, err)
		}
		undo = append(undo, revert)
	}
	return nil
}

func (l *MemoryLedger) applyLocked(m Movement) (func(), error) {
	switch m.Kind {
	case KindTransfer:
		return l.transferLocked(m.Authority, m.Asset, m.From, m.To, m.Amount)
	case KindMint:
		return l.mintLocked(m.Authority, m.Asset, m.To, m.Amount)
	case KindBurn:
		return l.burnLocked(m.Authority, m.Asset, m.From, m.Amount)
	default:
		return nil, fmt.Errorf("unknown movement kind %q", m.Kind)
	}
}

func (l *MemoryLedger) ownerOf(account common.Address) common.Address {
	if owner, ok := l.owners[account]; ok {
		return owner
	}
	return account
}

func (l *MemoryLedger) setBalance(asset, holder common.Address, amount uint64) {
	holders := l.balances[asset]
	if holders == nil {
		holders = make(map[common.Address]uint64)
		l.balances[asset] = holders
	}
	if amount == 0 {
		delete(holders, holder)
		return
	}
	holders[holder] = amount
}

func (l *MemoryLedger) transferLocked(auth Authority, asset, from, to common.Address, amount uint64) (func(), error) {
	if l.ownerOf(from) != auth.Signer() {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, from.Hex())
	}
	fromBalance := l.balances[asset][from]
	if fromBalance < amount {
		return nil, fmt.Errorf("%w: %s holds %d, needs %d", ErrInsufficientFunds, from.Hex(), fromBalance, amount)
	}
	if from == to {
		return func() {}, nil
	}
	toBalance := l.balances[asset][to]
	if toBalance > math.MaxUint64-amount {
		return nil, ErrBalanceOverflow
	}

	l.setBalance(asset, from, fromBalance-amount)
	l.setBalance(asset, to, toBalance+amount)
	return func() {
		l.setBalance(asset, from, fromBalance)
		l.setBalance(asset, to, toBalance)
	}, nil
}

func (l *MemoryLedger) mintLocked(auth Authority, mint, to common.Address, amount uint64) (func(), error) {
	owner, ok := l.owners[mint]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMint, mint.Hex())
	}
	if owner != auth.Signer() {
		return nil, fmt.Errorf("%w: mint %s", ErrUnauthorized, mint.Hex())
	}
	supply := l.supply[mint]
	balance := l.balances[mint][to]
	if supply > math.MaxUint64-amount || balance > math.MaxUint64-amount {
		return nil, ErrBalanceOverflow
	}

	l.supply[mint] = supply + amount
	l.setBalance(mint, to, balance+amount)
	return func() {
		l.supply[mint] = supply
		l.setBalance(mint, to, balance)
	}, nil
}

func (l *MemoryLedger) burnLocked(auth Authority, mint, from common.Address, amount uint64) (func(), error) {
	if l.ownerOf(from) != auth.Signer() {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, from.Hex())
	}
	balance := l.balances[mint][from]
	if balance < amount {
		return nil, fmt.Errorf("%w: %s holds %d shares, burning %d", ErrInsufficientFunds, from.Hex(), balance, amount)
	}
	supply := l.supply[mint]

	l.supply[mint] = supply - amount
	l.setBalance(mint, from, balance-amount)
	return func() {
		l.supply[mint] = supply
		l.setBalance(mint, from, balance)
	}, nil
}
