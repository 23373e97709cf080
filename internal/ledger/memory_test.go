package ledger

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	tokenA = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	alice  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob    = common.HexToAddress("0x2222222222222222222222222222222222222222")
	pool   = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func balance(t *testing.T, l *MemoryLedger, asset, holder common.Address) uint64 {
	t.Helper()
	got, err := l.BalanceOf(context.Background(), asset, holder)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return got
}

func TestTransferRequiresOwner(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	if err := l.Credit(ctx, tokenA, alice, 100); err != nil {
		t.Fatalf("credit: %v", err)
	}

	if err := l.Transfer(ctx, SignedBy(bob), tokenA, alice, bob, 10); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := l.Transfer(ctx, SignedBy(alice), tokenA, alice, bob, 101); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if err := l.Transfer(ctx, SignedBy(alice), tokenA, alice, bob, 40); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if balance(t, l, tokenA, alice) != 60 || balance(t, l, tokenA, bob) != 40 {
		t.Fatalf("balances not moved")
	}
}

func TestVaultControlledByPoolAuthority(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	vault := DeriveAddress("token_a_vault", pool)
	auth := l.SigningAuthorityFor(pool)

	if err := l.OpenAccount(ctx, vault, auth.Signer()); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := l.OpenAccount(ctx, vault, alice); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected account exists, got %v", err)
	}
	if err := l.OpenAccount(ctx, vault, auth.Signer()); err != nil {
		t.Fatalf("reopening for the same owner: %v", err)
	}
	if err := l.Credit(ctx, tokenA, vault, 50); err != nil {
		t.Fatalf("credit: %v", err)
	}

	if err := l.Transfer(ctx, SignedBy(vault), tokenA, vault, alice, 1); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("vault address must not sign for itself once owned, got %v", err)
	}
	if err := l.Transfer(ctx, auth, tokenA, vault, alice, 50); err != nil {
		t.Fatalf("authority transfer: %v", err)
	}
	if balance(t, l, tokenA, alice) != 50 {
		t.Fatalf("payout missing")
	}
}

func TestMintAndBurnTrackSupply(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	mint := DeriveAddress("lp_token_mint", pool)
	auth := l.SigningAuthorityFor(pool)

	if err := l.Mint(ctx, auth, mint, alice, 10); !errors.Is(err, ErrUnknownMint) {
		t.Fatalf("expected unknown mint, got %v", err)
	}
	if err := l.OpenAccount(ctx, mint, auth.Signer()); err != nil {
		t.Fatalf("open mint: %v", err)
	}
	if err := l.Mint(ctx, SignedBy(alice), mint, alice, 10); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized mint, got %v", err)
	}
	if err := l.Mint(ctx, auth, mint, alice, 10); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := l.Burn(ctx, auth, mint, alice, 4); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("only the holder burns, got %v", err)
	}
	if err := l.Burn(ctx, SignedBy(alice), mint, alice, 4); err != nil {
		t.Fatalf("burn: %v", err)
	}

	supply, err := l.Supply(ctx, mint)
	if err != nil {
		t.Fatalf("supply: %v", err)
	}
	if supply != 6 || balance(t, l, mint, alice) != 6 {
		t.Fatalf("supply %d balance %d", supply, balance(t, l, mint, alice))
	}
}

func TestApplyRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	if err := l.Credit(ctx, tokenA, alice, 100); err != nil {
		t.Fatalf("credit: %v", err)
	}

	err := Execute(ctx, l, []Movement{
		TransferOf(SignedBy(alice), tokenA, alice, bob, 60),
		TransferOf(SignedBy(alice), tokenA, alice, bob, 60),
	}, nil)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if balance(t, l, tokenA, alice) != 100 || balance(t, l, tokenA, bob) != 0 {
		t.Fatalf("partial plan was not rolled back")
	}
}

// unbatched hides MemoryLedger.Apply so Execute runs movements one by one.
type unbatched struct {
	Ledger
}

func TestExecuteRevertsWithoutBatcher(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	mint := DeriveAddress("lp_token_mint", pool)
	auth := l.SigningAuthorityFor(pool)
	if err := l.OpenAccount(ctx, mint, auth.Signer()); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := l.Credit(ctx, tokenA, alice, 100); err != nil {
		t.Fatalf("credit: %v", err)
	}
	authorityFor := func(account common.Address) Authority {
		if account == mint {
			return auth
		}
		return SignedBy(account)
	}
	plan := []Movement{
		MintOf(auth, mint, alice, 5),
		TransferOf(SignedBy(alice), tokenA, alice, bob, 60),
		TransferOf(SignedBy(alice), tokenA, alice, bob, 60),
	}

	err := Execute(ctx, unbatched{l}, plan, authorityFor)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if balance(t, l, tokenA, alice) != 100 || balance(t, l, tokenA, bob) != 0 || balance(t, l, mint, alice) != 0 {
		t.Fatalf("applied movements were not reverted")
	}
	if supply, _ := l.Supply(ctx, mint); supply != 0 {
		t.Fatalf("supply %d after revert", supply)
	}

	// Without revertAs the applied prefix stays.
	err = Execute(ctx, unbatched{l}, plan, nil)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if balance(t, l, tokenA, alice) != 40 || balance(t, l, mint, alice) != 5 {
		t.Fatalf("prefix unexpectedly reverted")
	}
}

func TestInvertReversesPlan(t *testing.T) {
	mint := DeriveAddress("lp_token_mint", pool)
	poolAuth := SignedBy(PoolAuthority(pool))
	authorityFor := func(account common.Address) Authority {
		if account == mint || account == pool {
			return poolAuth
		}
		return SignedBy(account)
	}

	got := Invert([]Movement{
		TransferOf(SignedBy(alice), tokenA, alice, pool, 10),
		MintOf(poolAuth, mint, alice, 3),
		BurnOf(SignedBy(bob), mint, bob, 2),
	}, authorityFor)

	want := []Movement{
		MintOf(poolAuth, mint, bob, 2),
		BurnOf(SignedBy(alice), mint, alice, 3),
		TransferOf(poolAuth, tokenA, pool, alice, 10),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d movements", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("movement %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestCreditOverflow(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	if err := l.Credit(ctx, tokenA, alice, math.MaxUint64); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := l.Credit(ctx, tokenA, bob, 1); !errors.Is(err, ErrBalanceOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger", "ledger.json")

	l := NewMemoryLedger()
	mint := DeriveAddress("lp_token_mint", pool)
	auth := l.SigningAuthorityFor(pool)
	if err := l.OpenAccount(ctx, mint, auth.Signer()); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := l.Mint(ctx, auth, mint, alice, 7); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := l.Credit(ctx, tokenA, bob, math.MaxUint64); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := l.SaveFile(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadMemoryLedger(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if balance(t, loaded, tokenA, bob) != math.MaxUint64 || balance(t, loaded, mint, alice) != 7 {
		t.Fatalf("balances lost")
	}
	if err := loaded.Mint(ctx, auth, mint, bob, 1); err != nil {
		t.Fatalf("mint owner lost: %v", err)
	}

	empty, err := LoadMemoryLedger(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if balance(t, empty, tokenA, bob) != 0 {
		t.Fatalf("expected empty ledger")
	}
}

func TestDeriveAddressIsDeterministic(t *testing.T) {
	a := DeriveAddress("token_a_vault", pool)
	if a != DeriveAddress("token_a_vault", pool) {
		t.Fatalf("derivation not deterministic")
	}
	if a == DeriveAddress("token_b_vault", pool) {
		t.Fatalf("seeds must separate accounts")
	}
	if PoolAuthority(pool) != DeriveAddress("pool_authority", pool) {
		t.Fatalf("authority derivation mismatch")
	}
}
