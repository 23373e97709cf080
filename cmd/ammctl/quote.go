package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolEngine/internal/amm"
	"poolEngine/internal/chain"
	"poolEngine/internal/config"
	"poolEngine/internal/model"
	"poolEngine/internal/pool"
)

type quoteOutput struct {
	ChainID   uint64 `json:"chain_id"`
	Pair      string `json:"pair"`
	TokenIn   string `json:"token_in"`
	SymbolIn  string `json:"symbol_in,omitempty"`
	SymbolOut string `json:"symbol_out,omitempty"`
	AmountIn  uint64 `json:"amount_in,string"`
	Fee       uint64 `json:"fee,string"`
	AmountOut uint64 `json:"amount_out,string"`
}

// runQuote prices a swap against the token balances an EVM pair contract
// holds, treating the pair as both vaults. Nothing is sent on chain.
func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	pair, err := addressFlag(cmd, "pair")
	if err != nil {
		return err
	}
	tokenA, err := addressFlag(cmd, "token-a")
	if err != nil {
		return err
	}
	tokenB, err := addressFlag(cmd, "token-b")
	if err != nil {
		return err
	}
	tokenIn, err := addressFlag(cmd, "token-in")
	if err != nil {
		return err
	}
	amountIn, _ := cmd.Flags().GetUint64("amount-in")
	minimumOut, _ := cmd.Flags().GetUint64("minimum-out")
	wantChain, _ := cmd.Flags().GetUint64("chain-id")
	num, _ := cmd.Flags().GetUint64("fee-numerator")
	den, _ := cmd.Flags().GetUint64("fee-denominator")

	state, err := amm.NewPoolState(num, den)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	chainID, err := chainClient.CheckChainID(ctx, wantChain)
	if err != nil {
		return err
	}
	logger.Debug("connected", zap.Uint64("chain_id", chainID))

	reader := &chain.RetryingReader{
		Reader:       chainClient,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       logger,
	}
	p := model.Pool{
		Address:   pair.Hex(),
		TokenA:    tokenA.Hex(),
		TokenB:    tokenB.Hex(),
		VaultA:    pair.Hex(),
		VaultB:    pair.Hex(),
		PoolState: state,
	}

	res, err := pool.QuoteSwap(ctx, reader, p, tokenIn, amountIn, minimumOut)
	if err != nil {
		return err
	}

	out := quoteOutput{
		ChainID:   chainID,
		Pair:      pair.Hex(),
		TokenIn:   tokenIn.Hex(),
		AmountIn:  res.AmountIn,
		Fee:       res.Fee,
		AmountOut: res.AmountOut,
	}
	tokenOut := tokenB
	if tokenIn == tokenB {
		tokenOut = tokenA
	}
	if meta, err := chainClient.TokenMeta(ctx, tokenIn); err == nil {
		out.SymbolIn = meta.Symbol
	} else {
		logger.Debug("token metadata fetch failed", zap.String("token", tokenIn.Hex()), zap.Error(err))
	}
	if meta, err := chainClient.TokenMeta(ctx, tokenOut); err == nil {
		out.SymbolOut = meta.Symbol
	} else {
		logger.Debug("token metadata fetch failed", zap.String("token", tokenOut.Hex()), zap.Error(err))
	}

	logger.Info("quote",
		zap.Uint64("chain_id", out.ChainID),
		zap.String("pair", out.Pair),
		zap.String("token_in", out.TokenIn),
		zap.Uint64("amount_in", out.AmountIn),
		zap.Uint64("amount_out", out.AmountOut),
	)
	return printJSON(cmd.OutOrStdout(), out)
}
