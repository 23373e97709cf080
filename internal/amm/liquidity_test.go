package amm

import (
	"errors"
	"math"
	"testing"
)

func TestDepositEmptyPool(t *testing.T) {
	pool := PoolState{FeeNumerator: 3, FeeDenominator: 1000}

	got, err := Deposit(pool, 0, 0, 1000, 2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AmountA != 1000 || got.AmountB != 2000 || got.LPMinted != 1500 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got.Pool.TotalLPSupply != 1500 {
		t.Fatalf("supply not updated: %d", got.Pool.TotalLPSupply)
	}
	if pool.TotalLPSupply != 0 {
		t.Fatalf("input state mutated")
	}
}

func TestDepositEmptyPoolMaxAmounts(t *testing.T) {
	got, err := Deposit(PoolState{FeeDenominator: 1}, 0, 0, math.MaxUint64, math.MaxUint64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.LPMinted != math.MaxUint64 {
		t.Fatalf("expected max shares, got %d", got.LPMinted)
	}
}

func TestDepositPreservesRatio(t *testing.T) {
	pool := PoolState{FeeNumerator: 3, FeeDenominator: 1000, TotalLPSupply: 1500}

	got, err := Deposit(pool, 1000, 2000, 100, 250)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AmountA != 100 || got.AmountB != 200 || got.LPMinted != 150 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got.Pool.TotalLPSupply != 1650 {
		t.Fatalf("supply mismatch: %d", got.Pool.TotalLPSupply)
	}
}

func TestDepositTruncatesExchangeRate(t *testing.T) {
	// floor(2999/1000) = 2, so only 200 of B is taken for 100 of A.
	pool := PoolState{FeeDenominator: 1, TotalLPSupply: 1000}

	got, err := Deposit(pool, 1000, 2999, 100, 10_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AmountB != 200 {
		t.Fatalf("required b mismatch: %d", got.AmountB)
	}
	if got.LPMinted != 66 {
		t.Fatalf("lp mismatch: %d", got.LPMinted)
	}
}

func TestDepositInsufficientB(t *testing.T) {
	pool := PoolState{FeeDenominator: 1, TotalLPSupply: 1500}

	_, err := Deposit(pool, 1000, 2000, 100, 199)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
}

func TestDepositRequiredBBeyond64Bits(t *testing.T) {
	pool := PoolState{FeeDenominator: 1, TotalLPSupply: 10}

	_, err := Deposit(pool, 1, math.MaxUint64, math.MaxUint64, math.MaxUint64)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
}

func TestDepositZeroShares(t *testing.T) {
	pool := PoolState{FeeDenominator: 1, TotalLPSupply: 1}

	// 1 * floor(2000/1000) * 1 / 2000 rounds to zero.
	_, err := Deposit(pool, 1000, 2000, 1, 10)
	if !errors.Is(err, ErrInvalidLPAmount) {
		t.Fatalf("expected invalid lp amount, got %v", err)
	}

	_, err = Deposit(PoolState{FeeDenominator: 1}, 0, 0, 1, 0)
	if !errors.Is(err, ErrInvalidLPAmount) {
		t.Fatalf("expected invalid lp amount for dust first deposit, got %v", err)
	}
}

func TestDepositOneSidedVaults(t *testing.T) {
	pool := PoolState{FeeDenominator: 1, TotalLPSupply: 10}

	if _, err := Deposit(pool, 0, 100, 10, 10); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected overflow for empty vault a, got %v", err)
	}
	if _, err := Deposit(pool, 100, 0, 10, 10); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected overflow for empty vault b, got %v", err)
	}
}

func TestDepositSupplyOverflow(t *testing.T) {
	pool := PoolState{FeeDenominator: 1, TotalLPSupply: math.MaxUint64}

	_, err := Deposit(pool, 1, 1, 1, 1)
	if !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestWithdrawProportional(t *testing.T) {
	pool := PoolState{FeeDenominator: 1, TotalLPSupply: 1650}

	got, err := Withdraw(pool, 1100, 2200, 150)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AmountA != 100 || got.AmountB != 200 || got.LPBurned != 150 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got.Pool.TotalLPSupply != 1500 {
		t.Fatalf("supply mismatch: %d", got.Pool.TotalLPSupply)
	}
}

func TestWithdrawEverything(t *testing.T) {
	pool := PoolState{FeeDenominator: 1, TotalLPSupply: 1500}

	got, err := Withdraw(pool, 1003, 1997, 1500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AmountA != 1003 || got.AmountB != 1997 || got.Pool.TotalLPSupply != 0 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestWithdrawExcessiveBurn(t *testing.T) {
	pool := PoolState{FeeDenominator: 1, TotalLPSupply: 10}

	_, err := Withdraw(pool, 100, 100, 11)
	if !errors.Is(err, ErrExcessiveBurn) {
		t.Fatalf("expected excessive burn, got %v", err)
	}
}

func TestWithdrawZeroSupply(t *testing.T) {
	_, err := Withdraw(PoolState{FeeDenominator: 1}, 100, 100, 0)
	if !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected overflow on zero supply, got %v", err)
	}
}

func TestWithdrawDustRoundsToZero(t *testing.T) {
	pool := PoolState{FeeDenominator: 1, TotalLPSupply: 1_000_000}

	got, err := Withdraw(pool, 10, 5_000_000, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AmountA != 0 || got.AmountB != 5 {
		t.Fatalf("unexpected result: %+v", got)
	}
}
