package amm

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

func TestCalculateFee(t *testing.T) {
	pool := PoolState{FeeNumerator: 3, FeeDenominator: 1000}

	cases := []struct {
		amount uint64
		want   uint64
	}{
		{amount: 0, want: 0},
		{amount: 333, want: 0},
		{amount: 334, want: 1},
		{amount: 1000, want: 3},
		{amount: 18446744073709551615, want: 55340232221128654},
	}
	for _, tc := range cases {
		got, err := FeeOn(pool, tc.amount)
		if err != nil {
			t.Fatalf("fee on %d: %v", tc.amount, err)
		}
		if got != tc.want {
			t.Fatalf("fee on %d: got %d want %d", tc.amount, got, tc.want)
		}
	}
}

func TestCalculateFeeWideAmount(t *testing.T) {
	pool := PoolState{FeeNumerator: 1, FeeDenominator: 2}

	// 2^100 fits the 128-bit input range.
	amount := new(uint256.Int).Lsh(uint256.NewInt(1), 100)
	fee, err := CalculateFee(pool, amount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := new(uint256.Int).Lsh(uint256.NewInt(1), 99)
	if !fee.Eq(want) {
		t.Fatalf("fee mismatch: got %s want %s", fee.Hex(), want.Hex())
	}
}

func TestCalculateFeeOverflow(t *testing.T) {
	pool := PoolState{FeeNumerator: 1 << 40, FeeDenominator: 1 << 41}

	// 2^100 * 2^40 does not fit 128 bits.
	amount := new(uint256.Int).Lsh(uint256.NewInt(1), 100)
	if _, err := CalculateFee(pool, amount); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}

	tooWide := new(uint256.Int).Lsh(uint256.NewInt(1), 130)
	if _, err := CalculateFee(PoolState{FeeNumerator: 0, FeeDenominator: 1}, tooWide); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected overflow for input above 128 bits, got %v", err)
	}
}

func TestCalculateFeeZeroDenominator(t *testing.T) {
	if _, err := FeeOn(PoolState{}, 10); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected overflow on zero denominator, got %v", err)
	}
}
