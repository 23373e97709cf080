// Package ledger defines the asset custody collaborator of a pool and an
// in-memory implementation of it.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrUnauthorized      = errors.New("authority does not control account")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBalanceOverflow   = errors.New("balance overflow")
	ErrAccountExists     = errors.New("account already exists")
	ErrUnknownMint       = errors.New("unknown mint")
)

// Authority is the capability presented to the ledger to move assets out of
// an account. The ledger decides which accounts an authority controls.
type Authority struct {
	signer common.Address
}

// SignedBy returns the authority of an account holder over its own accounts.
func SignedBy(signer common.Address) Authority {
	return Authority{signer: signer}
}

func (a Authority) Signer() common.Address {
	return a.signer
}

// BalanceReader reports custodied balances.
type BalanceReader interface {
	BalanceOf(ctx context.Context, asset, holder common.Address) (uint64, error)
}

// Ledger holds balances and executes asset movements. Each movement method
// is atomic: it is either applied in full or not at all.
type Ledger interface {
	BalanceReader
	Supply(ctx context.Context, mint common.Address) (uint64, error)
	// OpenAccount records owner as the controller of account. It succeeds
	// without change when account is already owned by owner.
	OpenAccount(ctx context.Context, account, owner common.Address) error
	Transfer(ctx context.Context, auth Authority, asset, from, to common.Address, amount uint64) error
	Mint(ctx context.Context, auth Authority, mint, to common.Address, amount uint64) error
	Burn(ctx context.Context, auth Authority, mint, from common.Address, amount uint64) error
	SigningAuthorityFor(pool common.Address) Authority
}

// Batcher is implemented by ledgers that can apply several movements as
// one atomic unit.
type Batcher interface {
	Apply(ctx context.Context, movements []Movement) error
}

// DeriveAddress returns a deterministic account address for seed and
// parts: the last 20 bytes of keccak256(seed || parts...).
func DeriveAddress(seed string, parts ...common.Address) common.Address {
	data := make([][]byte, 0, len(parts)+1)
	data = append(data, []byte(seed))
	for _, part := range parts {
		data = append(data, part.Bytes())
	}
	return common.BytesToAddress(crypto.Keccak256(data...))
}

// PoolAuthority is the signer that controls a pool's vaults and share mint.
func PoolAuthority(pool common.Address) common.Address {
	return DeriveAddress("pool_authority", pool)
}

// Execute applies movements in order. Ledgers implementing Batcher apply
// them atomically. Otherwise they run one at a time and, when one fails,
// the movements already applied are reversed with authorities taken from
// revertAs. A nil revertAs leaves them applied.
func Execute(ctx context.Context, l Ledger, movements []Movement, revertAs func(common.Address) Authority) error {
	if len(movements) == 0 {
		return nil
	}
	if batcher, ok := l.(Batcher); ok {
		return batcher.Apply(ctx, movements)
	}
	for i, m := range movements {
		if err := apply(ctx, l, m); err != nil {
			err = fmt.Errorf("movement %d (%s): %w", i, m.Kind, err)
			if revertAs == nil || i == 0 {
				return err
			}
			for j, undo := range Invert(movements[:i], revertAs) {
				if revertErr := apply(context.WithoutCancel(ctx), l, undo); revertErr != nil {
					return errors.Join(err, fmt.Errorf("revert %d (%s): %w", j, undo.Kind, revertErr))
				}
			}
			return err
		}
	}
	return nil
}

func apply(ctx context.Context, l Ledger, m Movement) error {
	switch m.Kind {
	case KindTransfer:
		return l.Transfer(ctx, m.Authority, m.Asset, m.From, m.To, m.Amount)
	case KindMint:
		return l.Mint(ctx, m.Authority, m.Asset, m.To, m.Amount)
	case KindBurn:
		return l.Burn(ctx, m.Authority, m.Asset, m.From, m.Amount)
	default:
		return fmt.Errorf("unknown movement kind %q", m.Kind)
	}
}
