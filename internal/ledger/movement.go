package ledger

import "github.com/ethereum/go-ethereum/common"

// MovementKind names a ledger primitive.
type MovementKind string

const (
	KindTransfer MovementKind = "transfer"
	KindMint     MovementKind = "mint"
	KindBurn     MovementKind = "burn"
)

// Movement is one asset movement of an operation plan. For mints and burns
// Asset is the share mint; From is unused by mints and To by burns.
type Movement struct {
	Kind      MovementKind
	Asset     common.Address
	From      common.Address
	To        common.Address
	Amount    uint64
	Authority Authority
}

func TransferOf(auth Authority, asset, from, to common.Address, amount uint64) Movement {
	return Movement{Kind: KindTransfer, Asset: asset, From: from, To: to, Amount: amount, Authority: auth}
}

func MintOf(auth Authority, mint, to common.Address, amount uint64) Movement {
	return Movement{Kind: KindMint, Asset: mint, To: to, Amount: amount, Authority: auth}
}

func BurnOf(auth Authority, mint, from common.Address, amount uint64) Movement {
	return Movement{Kind: KindBurn, Asset: mint, From: from, Amount: amount, Authority: auth}
}

// Invert returns the movements that undo movements, last one first.
// authorityFor names the authority controlling an account or mint.
func Invert(movements []Movement, authorityFor func(common.Address) Authority) []Movement {
	out := make([]Movement, 0, len(movements))
	for i := len(movements) - 1; i >= 0; i-- {
		m := movements[i]
		switch m.Kind {
		case KindTransfer:
			out = append(out, TransferOf(authorityFor(m.To), m.Asset, m.To, m.From, m.Amount))
		case KindMint:
			out = append(out, BurnOf(authorityFor(m.To), m.Asset, m.To, m.Amount))
		case KindBurn:
			out = append(out, MintOf(authorityFor(m.Asset), m.Asset, m.From, m.Amount))
		}
	}
	return out
}
