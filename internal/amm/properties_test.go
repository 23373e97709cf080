package amm

import (
	"math/big"
	"testing"

	"pgregory.net/rapid"
)

func drawPool(t *rapid.T) PoolState {
	den := rapid.Uint64Range(1, 1_000_000).Draw(t, "den")
	num := rapid.Uint64Range(0, den-1).Draw(t, "num")
	return PoolState{FeeNumerator: num, FeeDenominator: den}
}

func TestFeeMatchesFloorAndIsMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pool := drawPool(t)
		a := rapid.Uint64().Draw(t, "a")
		b := rapid.Uint64().Draw(t, "b")
		if a > b {
			a, b = b, a
		}

		feeA, err := FeeOn(pool, a)
		if err != nil {
			t.Fatalf("fee on %d: %v", a, err)
		}
		feeB, err := FeeOn(pool, b)
		if err != nil {
			t.Fatalf("fee on %d: %v", b, err)
		}

		want := new(big.Int).SetUint64(a)
		want.Mul(want, new(big.Int).SetUint64(pool.FeeNumerator))
		want.Quo(want, new(big.Int).SetUint64(pool.FeeDenominator))
		if want.Uint64() != feeA {
			t.Fatalf("fee mismatch: got %d want %s", feeA, want)
		}
		if feeA > feeB {
			t.Fatalf("fee not monotonic: fee(%d)=%d > fee(%d)=%d", a, feeA, b, feeB)
		}
		if feeB > b {
			t.Fatalf("fee %d exceeds amount %d", feeB, b)
		}
	})
}

func TestWithdrawNeverExceedsVaults(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		supply := rapid.Uint64Range(1, 1<<63).Draw(t, "supply")
		pool := PoolState{FeeDenominator: 1, TotalLPSupply: supply}
		vaultA := rapid.Uint64().Draw(t, "vaultA")
		vaultB := rapid.Uint64().Draw(t, "vaultB")
		burn := rapid.Uint64Range(0, supply).Draw(t, "burn")

		got, err := Withdraw(pool, vaultA, vaultB, burn)
		if err != nil {
			t.Fatalf("withdraw: %v", err)
		}
		if got.AmountA > vaultA || got.AmountB > vaultB {
			t.Fatalf("payout exceeds vault: %+v", got)
		}
		if got.Pool.TotalLPSupply != supply-burn {
			t.Fatalf("supply mismatch: %d", got.Pool.TotalLPSupply)
		}
	})
}

func TestSwapFollowsInvariantLaw(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pool := drawPool(t)
		vaultIn := rapid.Uint64Range(1, 1<<62).Draw(t, "vaultIn")
		vaultOut := rapid.Uint64().Draw(t, "vaultOut")
		amountIn := rapid.Uint64Range(0, 1<<62).Draw(t, "amountIn")

		got, err := Swap(pool, vaultIn, vaultOut, amountIn, 0)
		if err != nil {
			t.Fatalf("swap: %v", err)
		}

		k := new(big.Int).Mul(new(big.Int).SetUint64(vaultIn), new(big.Int).SetUint64(vaultOut))
		newIn := new(big.Int).Add(new(big.Int).SetUint64(vaultIn), new(big.Int).SetUint64(got.NetInput))
		wantOut := new(big.Int).Quo(k, newIn)
		if wantOut.Uint64() != got.NewVaultOut {
			t.Fatalf("new vault out mismatch: got %d want %s", got.NewVaultOut, wantOut)
		}
		if got.AmountOut != vaultOut-got.NewVaultOut {
			t.Fatalf("output mismatch: %+v", got)
		}
		if got.Fee+got.NetInput != amountIn {
			t.Fatalf("fee split mismatch: %+v", got)
		}
	})
}

func TestDepositThenWithdrawDoesNotCreateValue(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pool := PoolState{FeeDenominator: 1}
		seedA := rapid.Uint64Range(1, 1<<40).Draw(t, "seedA")
		seedB := rapid.Uint64Range(1, 1<<40).Draw(t, "seedB")

		first, err := Deposit(pool, 0, 0, seedA, seedB)
		if err != nil {
			t.Skip("dust first deposit")
		}
		vaultA, vaultB := first.AmountA, first.AmountB

		amountA := rapid.Uint64Range(1, 1<<40).Draw(t, "amountA")
		second, err := Deposit(first.Pool, vaultA, vaultB, amountA, 1<<62)
		if err != nil {
			t.Skip("deposit rejected")
		}
		vaultA += second.AmountA
		vaultB += second.AmountB

		out, err := Withdraw(second.Pool, vaultA, vaultB, second.LPMinted)
		if err != nil {
			t.Fatalf("withdraw: %v", err)
		}
		if out.AmountB > second.AmountB {
			t.Fatalf("withdrew more b than deposited: in %d out %d", second.AmountB, out.AmountB)
		}
		if out.Pool.TotalLPSupply != first.LPMinted {
			t.Fatalf("supply not restored: %d != %d", out.Pool.TotalLPSupply, first.LPMinted)
		}
	})
}
