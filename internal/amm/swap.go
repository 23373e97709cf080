package amm

// SwapResult describes a swap. The whole input, fee included, goes to the
// input vault; AmountOut leaves the output vault.
type SwapResult struct {
	AmountIn    uint64
	Fee         uint64
	NetInput    uint64
	AmountOut   uint64
	NewVaultOut uint64
}

// Swap prices amountIn against the constant product vaultIn*vaultOut.
// The fee stays in the input vault and is not part of the invariant
// update, so it accrues to share holders.
func Swap(pool PoolState, vaultIn, vaultOut, amountIn, minimumOut uint64) (SwapResult, error) {
	input := wide(amountIn)
	fee, err := CalculateFee(pool, input)
	if err != nil {
		return SwapResult{}, err
	}
	net, err := subWide(input, fee, "net input")
	if err != nil {
		return SwapResult{}, err
	}

	k, err := mulWide(wide(vaultIn), wide(vaultOut), "invariant")
	if err != nil {
		return SwapResult{}, err
	}
	newIn, err := addWide(wide(vaultIn), net, "input vault")
	if err != nil {
		return SwapResult{}, err
	}
	newOut, err := divWide(k, newIn, "output vault")
	if err != nil {
		return SwapResult{}, err
	}
	out, err := subWide(wide(vaultOut), newOut, "output amount")
	if err != nil {
		return SwapResult{}, err
	}

	// out and newOut are bounded by vaultOut; fee and net by amountIn.
	result := SwapResult{
		AmountIn:    amountIn,
		Fee:         fee.Uint64(),
		NetInput:    net.Uint64(),
		AmountOut:   out.Uint64(),
		NewVaultOut: newOut.Uint64(),
	}
	if result.AmountOut < minimumOut {
		return SwapResult{}, newError(KindSlippageExceeded, "output %d below minimum %d", result.AmountOut, minimumOut)
	}
	return result, nil
}
