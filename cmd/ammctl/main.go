package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ammctl",
		Short:        "Constant-product liquidity pool engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a pool for a token pair",
		RunE:  runInit,
	}
	addStoreFlags(initCmd)
	initCmd.Flags().String("token-a", "", "token A address")
	initCmd.Flags().String("token-b", "", "token B address")
	initCmd.Flags().Uint64("fee-numerator", 3, "fee numerator")
	initCmd.Flags().Uint64("fee-denominator", 1000, "fee denominator")
	root.AddCommand(initCmd)

	fundCmd := &cobra.Command{
		Use:   "fund",
		Short: "Credit an account in the local ledger",
		RunE:  runFund,
	}
	addStoreFlags(fundCmd)
	fundCmd.Flags().String("token", "", "token address")
	fundCmd.Flags().String("account", "", "account address")
	fundCmd.Flags().Uint64("amount", 0, "amount in base units")
	root.AddCommand(fundCmd)

	balanceCmd := &cobra.Command{
		Use:   "balance",
		Short: "Show an account balance in the local ledger",
		RunE:  runBalance,
	}
	addStoreFlags(balanceCmd)
	balanceCmd.Flags().String("token", "", "token or LP mint address")
	balanceCmd.Flags().String("account", "", "account address")
	root.AddCommand(balanceCmd)

	depositCmd := &cobra.Command{
		Use:   "deposit",
		Short: "Add liquidity to a pool",
		RunE:  runDeposit,
	}
	addStoreFlags(depositCmd)
	depositCmd.Flags().String("pool", "", "pool address")
	depositCmd.Flags().String("account", "", "depositor address")
	depositCmd.Flags().Uint64("amount-a", 0, "token A amount offered")
	depositCmd.Flags().Uint64("amount-b", 0, "token B amount offered")
	root.AddCommand(depositCmd)

	withdrawCmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Burn LP shares for a proportional payout",
		RunE:  runWithdraw,
	}
	addStoreFlags(withdrawCmd)
	withdrawCmd.Flags().String("pool", "", "pool address")
	withdrawCmd.Flags().String("account", "", "share holder address")
	withdrawCmd.Flags().Uint64("lp-amount", 0, "LP shares to burn")
	root.AddCommand(withdrawCmd)

	swapCmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap one pool token for the other",
		RunE:  runSwap,
	}
	addStoreFlags(swapCmd)
	swapCmd.Flags().String("pool", "", "pool address")
	swapCmd.Flags().String("account", "", "trader address")
	swapCmd.Flags().String("token-in", "", "input token address")
	swapCmd.Flags().Uint64("amount-in", 0, "input amount including fee")
	swapCmd.Flags().Uint64("minimum-out", 0, "minimum acceptable output")
	root.AddCommand(swapCmd)

	poolsCmd := &cobra.Command{
		Use:   "pools",
		Short: "List pools",
		RunE:  runPools,
	}
	addStoreFlags(poolsCmd)
	root.AddCommand(poolsCmd)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show journaled operations",
		RunE:  runHistory,
	}
	addStoreFlags(historyCmd)
	historyCmd.Flags().String("pool", "", "only show operations of this pool")
	root.AddCommand(historyCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a swap against an on-chain pair's token balances",
		RunE:  runQuote,
	}
	quoteCmd.Flags().String("rpc", "", "EVM RPC URL")
	quoteCmd.Flags().Uint64("chain-id", 0, "expected chain ID (0 accepts any)")
	quoteCmd.Flags().String("pair", "", "pair contract holding both tokens")
	quoteCmd.Flags().String("token-a", "", "token A address")
	quoteCmd.Flags().String("token-b", "", "token B address")
	quoteCmd.Flags().String("token-in", "", "input token address")
	quoteCmd.Flags().Uint64("amount-in", 0, "input amount including fee")
	quoteCmd.Flags().Uint64("minimum-out", 0, "minimum acceptable output")
	quoteCmd.Flags().Uint64("fee-numerator", 3, "fee numerator")
	quoteCmd.Flags().Uint64("fee-denominator", 1000, "fee denominator")
	quoteCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	quoteCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(quoteCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pool API over HTTP",
		RunE:  runServe,
	}
	addStoreFlags(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "listen address")
	root.AddCommand(serveCmd)

	return root
}

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("state-file", "./data/pools.json", "pool state file (ignored with --pg-dsn)")
	cmd.Flags().String("ledger-file", "./data/ledger.json", "local ledger snapshot")
	cmd.Flags().StringSlice("journal", []string{"./data/operations.jsonl"}, "operation journal JSONL paths")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN for pools and journal")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
