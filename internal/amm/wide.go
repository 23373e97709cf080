package amm

import (
	"github.com/holiman/uint256"
)

// wideBits bounds every intermediate value. Products of two 64-bit
// quantities always fit; anything wider is reported as an overflow.
const wideBits = 128

func wide(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func fitsWide(v *uint256.Int) bool {
	return v.BitLen() <= wideBits
}

func mulWide(x, y *uint256.Int, step string) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow || !fitsWide(z) {
		return nil, newError(KindArithmeticOverflow, "%s: multiplication exceeds %d bits", step, wideBits)
	}
	return z, nil
}

func addWide(x, y *uint256.Int, step string) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow || !fitsWide(z) {
		return nil, newError(KindArithmeticOverflow, "%s: addition exceeds %d bits", step, wideBits)
	}
	return z, nil
}

func subWide(x, y *uint256.Int, step string) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		return nil, newError(KindArithmeticOverflow, "%s: subtraction underflow", step)
	}
	return z, nil
}

// divWide truncates toward zero.
func divWide(x, y *uint256.Int, step string) (*uint256.Int, error) {
	if y.IsZero() {
		return nil, newError(KindArithmeticOverflow, "%s: division by zero", step)
	}
	return new(uint256.Int).Div(x, y), nil
}

// mulDivWide computes floor(x*y/d).
func mulDivWide(x, y, d *uint256.Int, step string) (*uint256.Int, error) {
	product, err := mulWide(x, y, step)
	if err != nil {
		return nil, err
	}
	return divWide(product, d, step)
}

func narrow(v *uint256.Int, step string) (uint64, error) {
	if !v.IsUint64() {
		return 0, newError(KindArithmeticOverflow, "%s: result exceeds 64 bits", step)
	}
	return v.Uint64(), nil
}
