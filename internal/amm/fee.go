package amm

import (
	"github.com/holiman/uint256"
)

// CalculateFee returns floor(amount * FeeNumerator / FeeDenominator).
// amount may be up to 128 bits wide.
func CalculateFee(pool PoolState, amount *uint256.Int) (*uint256.Int, error) {
	if amount == nil || !fitsWide(amount) {
		return nil, newError(KindArithmeticOverflow, "fee: amount exceeds %d bits", wideBits)
	}
	return mulDivWide(amount, wide(pool.FeeNumerator), wide(pool.FeeDenominator), "fee")
}

// FeeOn is CalculateFee for a 64-bit amount. The fee never exceeds the
// amount for a valid pool, so the result always fits.
func FeeOn(pool PoolState, amount uint64) (uint64, error) {
	fee, err := CalculateFee(pool, wide(amount))
	if err != nil {
		return 0, err
	}
	return narrow(fee, "fee")
}
