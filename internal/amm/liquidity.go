package amm

// DepositResult is the outcome of a deposit: the amounts to move into the
// vaults, the shares to mint and the pool state to persist.
type DepositResult struct {
	AmountA  uint64
	AmountB  uint64
	LPMinted uint64
	Pool     PoolState
}

// Deposit computes share issuance for adding liquidity.
//
// The first deposit into an empty pool takes both amounts as offered and
// mints floor((a+b)/2) shares. Later deposits take all of amountA and the
// matching amount of B at the integer rate floor(vaultB/vaultA), minting
// shares pro rata to B.
func Deposit(pool PoolState, vaultA, vaultB, amountA, amountB uint64) (DepositResult, error) {
	var actualB, minted uint64

	if vaultA == 0 && vaultB == 0 {
		sum, err := addWide(wide(amountA), wide(amountB), "initial deposit")
		if err != nil {
			return DepositResult{}, err
		}
		// (a+b)/2 of two 64-bit values always fits in 64 bits.
		minted = sum.Rsh(sum, 1).Uint64()
		actualB = amountB
	} else {
		rate, err := divWide(wide(vaultB), wide(vaultA), "exchange rate")
		if err != nil {
			return DepositResult{}, err
		}
		requiredB, err := mulWide(wide(amountA), rate, "required b")
		if err != nil {
			return DepositResult{}, err
		}
		if requiredB.Gt(wide(amountB)) {
			return DepositResult{}, newError(KindInsufficientBalance, "deposit requires more token b than offered")
		}
		actualB = requiredB.Uint64()

		shares, err := mulDivWide(wide(actualB), wide(pool.TotalLPSupply), wide(vaultB), "lp mint")
		if err != nil {
			return DepositResult{}, err
		}
		if minted, err = narrow(shares, "lp mint"); err != nil {
			return DepositResult{}, err
		}
	}

	if minted == 0 {
		return DepositResult{}, newError(KindInvalidLPAmount, "deposit mints zero shares")
	}

	supply, err := addWide(wide(pool.TotalLPSupply), wide(minted), "lp supply")
	if err != nil {
		return DepositResult{}, err
	}
	if pool.TotalLPSupply, err = narrow(supply, "lp supply"); err != nil {
		return DepositResult{}, err
	}

	return DepositResult{
		AmountA:  amountA,
		AmountB:  actualB,
		LPMinted: minted,
		Pool:     pool,
	}, nil
}

// WithdrawResult is the outcome of a withdrawal: the payouts from each
// vault, the shares to burn and the pool state to persist.
type WithdrawResult struct {
	AmountA  uint64
	AmountB  uint64
	LPBurned uint64
	Pool     PoolState
}

// Withdraw computes the proportional payout for burning lpAmount shares.
// A payout that rounds down to zero is accepted.
func Withdraw(pool PoolState, vaultA, vaultB, lpAmount uint64) (WithdrawResult, error) {
	if lpAmount > pool.TotalLPSupply {
		return WithdrawResult{}, newError(KindExcessiveBurn, "burn %d exceeds supply %d", lpAmount, pool.TotalLPSupply)
	}

	burn := wide(lpAmount)
	supply := wide(pool.TotalLPSupply)

	outA, err := mulDivWide(burn, wide(vaultA), supply, "withdraw a")
	if err != nil {
		return WithdrawResult{}, err
	}
	outB, err := mulDivWide(burn, wide(vaultB), supply, "withdraw b")
	if err != nil {
		return WithdrawResult{}, err
	}

	remaining, err := subWide(supply, burn, "lp supply")
	if err != nil {
		return WithdrawResult{}, err
	}

	// burn <= supply, so both payouts are bounded by their vault.
	pool.TotalLPSupply = remaining.Uint64()
	return WithdrawResult{
		AmountA:  outA.Uint64(),
		AmountB:  outB.Uint64(),
		LPBurned: lpAmount,
		Pool:     pool,
	}, nil
}
