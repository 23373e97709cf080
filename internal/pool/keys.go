package pool

import (
	"github.com/ethereum/go-ethereum/common"

	"poolEngine/internal/ledger"
	"poolEngine/internal/model"
)

// Accounts are the ledger accounts of one pool. All of them are derived
// from the token pair, so a pair has exactly one pool.
type Accounts struct {
	Pool      common.Address
	TokenA    common.Address
	TokenB    common.Address
	Authority common.Address
	VaultA    common.Address
	VaultB    common.Address
	LPMint    common.Address
}

// DeriveAccounts returns the accounts of the pool for tokenA/tokenB. Order
// matters: the pool for (B, A) is a different pool.
func DeriveAccounts(tokenA, tokenB common.Address) Accounts {
	pool := ledger.DeriveAddress("liquidity_pool", tokenA, tokenB)
	return Accounts{
		Pool:      pool,
		TokenA:    tokenA,
		TokenB:    tokenB,
		Authority: ledger.PoolAuthority(pool),
		VaultA:    ledger.DeriveAddress("token_a_vault", pool),
		VaultB:    ledger.DeriveAddress("token_b_vault", pool),
		LPMint:    ledger.DeriveAddress("lp_token_mint", pool),
	}
}

func accountsOf(p model.Pool) Accounts {
	return Accounts{
		Pool:      common.HexToAddress(p.Address),
		TokenA:    common.HexToAddress(p.TokenA),
		TokenB:    common.HexToAddress(p.TokenB),
		Authority: common.HexToAddress(p.Authority),
		VaultA:    common.HexToAddress(p.VaultA),
		VaultB:    common.HexToAddress(p.VaultB),
		LPMint:    common.HexToAddress(p.LPMint),
	}
}

func (a Accounts) record() model.Pool {
	return model.Pool{
		Address:   a.Pool.Hex(),
		TokenA:    a.TokenA.Hex(),
		TokenB:    a.TokenB.Hex(),
		Authority: a.Authority.Hex(),
		VaultA:    a.VaultA.Hex(),
		VaultB:    a.VaultB.Hex(),
		LPMint:    a.LPMint.Hex(),
	}
}

// sides returns the vaults for a swap of tokenIn, input side first.
func (a Accounts) sides(tokenIn common.Address) (vaultIn, vaultOut, tokenOut common.Address, err error) {
	switch tokenIn {
	case a.TokenA:
		return a.VaultA, a.VaultB, a.TokenB, nil
	case a.TokenB:
		return a.VaultB, a.VaultA, a.TokenA, nil
	default:
		return common.Address{}, common.Address{}, common.Address{}, ErrTokenNotInPool
	}
}

// authorityFor maps an account of this pool to the authority controlling
// it: poolAuth for the vaults and the share mint, the holder otherwise.
func (a Accounts) authorityFor(poolAuth ledger.Authority) func(common.Address) ledger.Authority {
	return func(account common.Address) ledger.Authority {
		switch account {
		case a.VaultA, a.VaultB, a.LPMint:
			return poolAuth
		default:
			return ledger.SignedBy(account)
		}
	}
}
