// Package amm holds the arithmetic of a two-asset constant-product pool.
//
// Every function is a pure transformation of a PoolState snapshot and the
// vault balances supplied by the caller. Nothing here reads storage or moves
// assets; callers apply the returned amounts and the updated PoolState only
// when the call succeeds.
package amm

// PoolState is the persisted configuration and accounting of a pool.
type PoolState struct {
	FeeNumerator   uint64 `json:"fee_numerator,string"`
	FeeDenominator uint64 `json:"fee_denominator,string"`
	TotalLPSupply  uint64 `json:"total_lp_supply,string"`
}

// NewPoolState validates the fee ratio and returns a pool with no shares
// outstanding.
func NewPoolState(feeNumerator, feeDenominator uint64) (PoolState, error) {
	state := PoolState{
		FeeNumerator:   feeNumerator,
		FeeDenominator: feeDenominator,
	}
	if err := state.Validate(); err != nil {
		return PoolState{}, err
	}
	return state, nil
}

// Validate checks that the fee is a proper fraction strictly below one.
func (s PoolState) Validate() error {
	if s.FeeDenominator == 0 {
		return newError(KindValidation, "fee denominator must be greater than zero")
	}
	if s.FeeNumerator >= s.FeeDenominator {
		return newError(KindValidation, "fee %d/%d must be below 100%%", s.FeeNumerator, s.FeeDenominator)
	}
	return nil
}
