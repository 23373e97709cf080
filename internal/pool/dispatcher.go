// Package pool runs pool operations against a ledger: it serializes work
// per pool, prices operations with the amm package, applies the resulting
// movements and persists the new pool state.
package pool

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolEngine/internal/amm"
	"poolEngine/internal/ledger"
	"poolEngine/internal/metrics"
	"poolEngine/internal/model"
	"poolEngine/internal/storage"
)

// Dispatcher executes pool operations. It is safe for concurrent use;
// operations on the same pool run one at a time.
type Dispatcher struct {
	ledger  ledger.Ledger
	store   Store
	journal storage.Journal
	metrics *metrics.Metrics
	logger  *zap.Logger
	locks   *locker
	now     func() time.Time
}

// NewDispatcher wires a dispatcher. journal, m and logger may be nil.
func NewDispatcher(l ledger.Ledger, store Store, journal storage.Journal, m *metrics.Metrics, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		ledger:  l,
		store:   store,
		journal: journal,
		metrics: m,
		logger:  logger,
		locks:   newLocker(),
		now:     time.Now,
	}
}

// InitializePool creates the pool for tokenA/tokenB with the given fee
// ratio. The vaults and the share mint are opened under the pool's
// signing authority; accounts left open by an earlier failed attempt
// are reused.
func (d *Dispatcher) InitializePool(ctx context.Context, tokenA, tokenB common.Address, feeNumerator, feeDenominator uint64) (_ model.Pool, err error) {
	defer d.observe(model.OpInitialize, time.Now(), &err)

	if tokenA == tokenB {
		return model.Pool{}, ErrSameToken
	}
	state, err := amm.NewPoolState(feeNumerator, feeDenominator)
	if err != nil {
		return model.Pool{}, err
	}

	accounts := DeriveAccounts(tokenA, tokenB)
	accounts.Authority = d.ledger.SigningAuthorityFor(accounts.Pool).Signer()

	unlock := d.locks.lock(accounts.Pool)
	defer unlock()

	_, exists, err := d.store.LoadPool(ctx, accounts.Pool.Hex())
	if err != nil {
		return model.Pool{}, fmt.Errorf("load pool: %w", err)
	}
	if exists {
		return model.Pool{}, fmt.Errorf("%w: %s", ErrPoolExists, accounts.Pool.Hex())
	}

	for _, account := range []common.Address{accounts.VaultA, accounts.VaultB, accounts.LPMint} {
		if err := d.ledger.OpenAccount(ctx, account, accounts.Authority); err != nil {
			return model.Pool{}, fmt.Errorf("open account %s: %w", account.Hex(), err)
		}
	}

	record := accounts.record()
	record.PoolState = state
	if err := d.store.SavePool(ctx, record); err != nil {
		return model.Pool{}, fmt.Errorf("save pool: %w", err)
	}

	d.record(ctx, model.OperationRecord{
		Pool:      record.Address,
		Operation: model.OpInitialize,
		Account:   record.Authority,
	})
	d.metrics.SetLPSupply(record.Address, 0)
	d.logger.Info("pool initialized",
		zap.String("pool", record.Address),
		zap.String("token_a", record.TokenA),
		zap.String("token_b", record.TokenB),
		zap.Uint64("fee_numerator", feeNumerator),
		zap.Uint64("fee_denominator", feeDenominator),
	)
	return record, nil
}

// Deposit adds liquidity from account and mints shares to it.
func (d *Dispatcher) Deposit(ctx context.Context, poolAddr, account common.Address, amountA, amountB uint64) (_ amm.DepositResult, err error) {
	defer d.observe(model.OpDeposit, time.Now(), &err)

	unlock := d.locks.lock(poolAddr)
	defer unlock()

	p, accounts, err := d.load(ctx, poolAddr)
	if err != nil {
		return amm.DepositResult{}, err
	}
	if err := d.requireBalance(ctx, accounts.TokenA, account, amountA); err != nil {
		return amm.DepositResult{}, err
	}
	if err := d.requireBalance(ctx, accounts.TokenB, account, amountB); err != nil {
		return amm.DepositResult{}, err
	}
	vaultA, vaultB, err := d.vaults(ctx, accounts)
	if err != nil {
		return amm.DepositResult{}, err
	}

	res, err := amm.Deposit(p.PoolState, vaultA, vaultB, amountA, amountB)
	if err != nil {
		return amm.DepositResult{}, err
	}

	poolAuth := d.ledger.SigningAuthorityFor(accounts.Pool)
	user := ledger.SignedBy(account)
	plan := []ledger.Movement{
		ledger.MintOf(poolAuth, accounts.LPMint, account, res.LPMinted),
		ledger.TransferOf(user, accounts.TokenA, account, accounts.VaultA, res.AmountA),
		ledger.TransferOf(user, accounts.TokenB, account, accounts.VaultB, res.AmountB),
	}
	if err := d.commit(ctx, p, res.Pool, plan); err != nil {
		return amm.DepositResult{}, err
	}

	d.record(ctx, model.OperationRecord{
		Pool:          p.Address,
		Operation:     model.OpDeposit,
		Account:       account.Hex(),
		AmountA:       res.AmountA,
		AmountB:       res.AmountB,
		LPAmount:      res.LPMinted,
		TotalLPSupply: res.Pool.TotalLPSupply,
	})
	d.metrics.SetLPSupply(p.Address, res.Pool.TotalLPSupply)
	d.logger.Info("deposit",
		zap.String("pool", p.Address),
		zap.String("account", account.Hex()),
		zap.Uint64("amount_a", res.AmountA),
		zap.Uint64("amount_b", res.AmountB),
		zap.Uint64("lp_minted", res.LPMinted),
	)
	return res, nil
}

// Withdraw burns lpAmount of account's shares and pays out its share of
// both vaults.
func (d *Dispatcher) Withdraw(ctx context.Context, poolAddr, account common.Address, lpAmount uint64) (_ amm.WithdrawResult, err error) {
	defer d.observe(model.OpWithdraw, time.Now(), &err)

	unlock := d.locks.lock(poolAddr)
	defer unlock()

	p, accounts, err := d.load(ctx, poolAddr)
	if err != nil {
		return amm.WithdrawResult{}, err
	}
	if err := d.requireBalance(ctx, accounts.LPMint, account, lpAmount); err != nil {
		return amm.WithdrawResult{}, err
	}
	vaultA, vaultB, err := d.vaults(ctx, accounts)
	if err != nil {
		return amm.WithdrawResult{}, err
	}

	res, err := amm.Withdraw(p.PoolState, vaultA, vaultB, lpAmount)
	if err != nil {
		return amm.WithdrawResult{}, err
	}

	poolAuth := d.ledger.SigningAuthorityFor(accounts.Pool)
	plan := []ledger.Movement{
		ledger.TransferOf(poolAuth, accounts.TokenA, accounts.VaultA, account, res.AmountA),
		ledger.TransferOf(poolAuth, accounts.TokenB, accounts.VaultB, account, res.AmountB),
		ledger.BurnOf(ledger.SignedBy(account), accounts.LPMint, account, res.LPBurned),
	}
	if err := d.commit(ctx, p, res.Pool, plan); err != nil {
		return amm.WithdrawResult{}, err
	}

	d.record(ctx, model.OperationRecord{
		Pool:          p.Address,
		Operation:     model.OpWithdraw,
		Account:       account.Hex(),
		AmountA:       res.AmountA,
		AmountB:       res.AmountB,
		LPAmount:      res.LPBurned,
		TotalLPSupply: res.Pool.TotalLPSupply,
	})
	d.metrics.SetLPSupply(p.Address, res.Pool.TotalLPSupply)
	d.logger.Info("withdraw",
		zap.String("pool", p.Address),
		zap.String("account", account.Hex()),
		zap.Uint64("lp_burned", res.LPBurned),
		zap.Uint64("amount_a", res.AmountA),
		zap.Uint64("amount_b", res.AmountB),
	)
	return res, nil
}

// Swap sells amountIn of tokenIn from account for the other pool token.
func (d *Dispatcher) Swap(ctx context.Context, poolAddr, account, tokenIn common.Address, amountIn, minimumOut uint64) (_ amm.SwapResult, err error) {
	defer d.observe(model.OpSwap, time.Now(), &err)

	unlock := d.locks.lock(poolAddr)
	defer unlock()

	p, accounts, err := d.load(ctx, poolAddr)
	if err != nil {
		return amm.SwapResult{}, err
	}
	vaultIn, vaultOut, tokenOut, err := accounts.sides(tokenIn)
	if err != nil {
		return amm.SwapResult{}, fmt.Errorf("%w: %s", err, tokenIn.Hex())
	}
	if err := d.requireBalance(ctx, tokenIn, account, amountIn); err != nil {
		return amm.SwapResult{}, err
	}

	res, err := QuoteSwap(ctx, d.ledger, p, tokenIn, amountIn, minimumOut)
	if err != nil {
		return amm.SwapResult{}, err
	}

	plan := []ledger.Movement{
		ledger.TransferOf(d.ledger.SigningAuthorityFor(accounts.Pool), tokenOut, vaultOut, account, res.AmountOut),
		ledger.TransferOf(ledger.SignedBy(account), tokenIn, account, vaultIn, res.AmountIn),
	}
	if err := d.execute(ctx, accounts, plan); err != nil {
		return amm.SwapResult{}, err
	}

	d.record(ctx, model.OperationRecord{
		Pool:          p.Address,
		Operation:     model.OpSwap,
		Account:       account.Hex(),
		TokenIn:       tokenIn.Hex(),
		TokenOut:      tokenOut.Hex(),
		AmountIn:      res.AmountIn,
		AmountOut:     res.AmountOut,
		Fee:           res.Fee,
		TotalLPSupply: p.TotalLPSupply,
	})
	d.metrics.AddSwap(p.Address, tokenIn.Hex(), res.AmountIn, res.Fee)
	d.logger.Info("swap",
		zap.String("pool", p.Address),
		zap.String("account", account.Hex()),
		zap.String("token_in", tokenIn.Hex()),
		zap.Uint64("amount_in", res.AmountIn),
		zap.Uint64("fee", res.Fee),
		zap.Uint64("amount_out", res.AmountOut),
	)
	return res, nil
}

// Quote prices a swap against the current vault balances without moving
// anything.
func (d *Dispatcher) Quote(ctx context.Context, poolAddr, tokenIn common.Address, amountIn, minimumOut uint64) (amm.SwapResult, error) {
	unlock := d.locks.lock(poolAddr)
	defer unlock()

	p, _, err := d.load(ctx, poolAddr)
	if err != nil {
		return amm.SwapResult{}, err
	}
	return QuoteSwap(ctx, d.ledger, p, tokenIn, amountIn, minimumOut)
}

// QuoteSwap prices a swap of tokenIn on p using balances from reader.
func QuoteSwap(ctx context.Context, reader ledger.BalanceReader, p model.Pool, tokenIn common.Address, amountIn, minimumOut uint64) (amm.SwapResult, error) {
	accounts := accountsOf(p)
	vaultIn, vaultOut, tokenOut, err := accounts.sides(tokenIn)
	if err != nil {
		return amm.SwapResult{}, fmt.Errorf("%w: %s", err, tokenIn.Hex())
	}
	balanceIn, err := reader.BalanceOf(ctx, tokenIn, vaultIn)
	if err != nil {
		return amm.SwapResult{}, fmt.Errorf("read vault %s: %w", vaultIn.Hex(), err)
	}
	balanceOut, err := reader.BalanceOf(ctx, tokenOut, vaultOut)
	if err != nil {
		return amm.SwapResult{}, fmt.Errorf("read vault %s: %w", vaultOut.Hex(), err)
	}
	return amm.Swap(p.PoolState, balanceIn, balanceOut, amountIn, minimumOut)
}

// Pool returns the stored record of poolAddr.
func (d *Dispatcher) Pool(ctx context.Context, poolAddr common.Address) (model.Pool, error) {
	p, _, err := d.load(ctx, poolAddr)
	return p, err
}

// Pools lists every stored pool.
func (d *Dispatcher) Pools(ctx context.Context) ([]model.Pool, error) {
	return d.store.ListPools(ctx)
}

// Reserves returns the current vault balances of poolAddr.
func (d *Dispatcher) Reserves(ctx context.Context, poolAddr common.Address) (uint64, uint64, error) {
	_, accounts, err := d.load(ctx, poolAddr)
	if err != nil {
		return 0, 0, err
	}
	return d.vaults(ctx, accounts)
}

// CheckSupply verifies that the ledger's share supply equals the supply
// recorded in the pool state.
func (d *Dispatcher) CheckSupply(ctx context.Context, poolAddr common.Address) error {
	unlock := d.locks.lock(poolAddr)
	defer unlock()

	p, accounts, err := d.load(ctx, poolAddr)
	if err != nil {
		return err
	}
	supply, err := d.ledger.Supply(ctx, accounts.LPMint)
	if err != nil {
		return fmt.Errorf("read lp supply: %w", err)
	}
	if supply != p.TotalLPSupply {
		return fmt.Errorf("%w: ledger %d, pool %d", ErrSupplyMismatch, supply, p.TotalLPSupply)
	}
	return nil
}

func (d *Dispatcher) load(ctx context.Context, poolAddr common.Address) (model.Pool, Accounts, error) {
	p, ok, err := d.store.LoadPool(ctx, poolAddr.Hex())
	if err != nil {
		return model.Pool{}, Accounts{}, fmt.Errorf("load pool: %w", err)
	}
	if !ok {
		return model.Pool{}, Accounts{}, fmt.Errorf("%w: %s", ErrPoolNotFound, poolAddr.Hex())
	}
	return p, accountsOf(p), nil
}

func (d *Dispatcher) vaults(ctx context.Context, accounts Accounts) (uint64, uint64, error) {
	vaultA, err := d.ledger.BalanceOf(ctx, accounts.TokenA, accounts.VaultA)
	if err != nil {
		return 0, 0, fmt.Errorf("read vault a: %w", err)
	}
	vaultB, err := d.ledger.BalanceOf(ctx, accounts.TokenB, accounts.VaultB)
	if err != nil {
		return 0, 0, fmt.Errorf("read vault b: %w", err)
	}
	return vaultA, vaultB, nil
}

func (d *Dispatcher) requireBalance(ctx context.Context, asset, holder common.Address, amount uint64) error {
	balance, err := d.ledger.BalanceOf(ctx, asset, holder)
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}
	if balance < amount {
		return fmt.Errorf("%w: %s holds %d of %s, needs %d",
			amm.ErrInsufficientBalance, holder.Hex(), balance, asset.Hex(), amount)
	}
	return nil
}

// commit stores next and then applies plan. A failed save moves nothing;
// failed movements put the previous record back.
func (d *Dispatcher) commit(ctx context.Context, p model.Pool, next amm.PoolState, plan []ledger.Movement) error {
	updated := p
	updated.PoolState = next
	if err := d.store.SavePool(ctx, updated); err != nil {
		return fmt.Errorf("save pool: %w", err)
	}
	if err := d.execute(ctx, accountsOf(p), plan); err != nil {
		if restoreErr := d.store.SavePool(context.WithoutCancel(ctx), p); restoreErr != nil {
			d.logger.Error("pool state diverged from ledger",
				zap.String("pool", p.Address),
				zap.Uint64("stored_lp_supply", next.TotalLPSupply),
				zap.Uint64("ledger_lp_supply", p.TotalLPSupply),
				zap.Error(restoreErr),
			)
		}
		return err
	}
	return nil
}

func (d *Dispatcher) execute(ctx context.Context, accounts Accounts, plan []ledger.Movement) error {
	revertAs := accounts.authorityFor(d.ledger.SigningAuthorityFor(accounts.Pool))
	if err := ledger.Execute(ctx, d.ledger, plan, revertAs); err != nil {
		return fmt.Errorf("apply movements: %w", err)
	}
	return nil
}

// record journals an applied operation. The operation has already taken
// effect, so a journal failure is only logged.
func (d *Dispatcher) record(ctx context.Context, rec model.OperationRecord) {
	if d.journal == nil {
		return
	}
	rec.ExecutedAt = d.now().UTC().Format(time.RFC3339Nano)
	if err := d.journal.PutOperations(ctx, []model.OperationRecord{rec}); err != nil {
		d.logger.Warn("journal write failed",
			zap.String("pool", rec.Pool),
			zap.String("operation", rec.Operation),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) observe(operation string, start time.Time, err *error) {
	d.metrics.ObserveOperation(operation, *err, time.Since(start).Seconds())
	if *err != nil {
		d.logger.Debug("operation failed", zap.String("operation", operation), zap.Error(*err))
	}
}
