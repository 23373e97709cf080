package main

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runInit(cmd *cobra.Command, _ []string) error {
	tokenA, err := addressFlag(cmd, "token-a")
	if err != nil {
		return err
	}
	tokenB, err := addressFlag(cmd, "token-b")
	if err != nil {
		return err
	}
	num, _ := cmd.Flags().GetUint64("fee-numerator")
	den, _ := cmd.Flags().GetUint64("fee-denominator")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		p, err := a.dispatcher.InitializePool(ctx, tokenA, tokenB, num, den)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), p)
	})
}

func runFund(cmd *cobra.Command, _ []string) error {
	token, err := addressFlag(cmd, "token")
	if err != nil {
		return err
	}
	account, err := addressFlag(cmd, "account")
	if err != nil {
		return err
	}
	amount, _ := cmd.Flags().GetUint64("amount")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.ledger.Credit(ctx, token, account, amount); err != nil {
			return err
		}
		a.logger.Info("account funded",
			zap.String("token", token.Hex()),
			zap.String("account", account.Hex()),
			zap.Uint64("amount", amount),
		)
		return nil
	})
}

func runBalance(cmd *cobra.Command, _ []string) error {
	token, err := addressFlag(cmd, "token")
	if err != nil {
		return err
	}
	account, err := addressFlag(cmd, "account")
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		balance, err := a.ledger.BalanceOf(ctx, token, account)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]interface{}{
			"token":   token.Hex(),
			"account": account.Hex(),
			"balance": balance,
		})
	})
}

func runDeposit(cmd *cobra.Command, _ []string) error {
	poolAddr, err := addressFlag(cmd, "pool")
	if err != nil {
		return err
	}
	account, err := addressFlag(cmd, "account")
	if err != nil {
		return err
	}
	amountA, _ := cmd.Flags().GetUint64("amount-a")
	amountB, _ := cmd.Flags().GetUint64("amount-b")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		res, err := a.dispatcher.Deposit(ctx, poolAddr, account, amountA, amountB)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	})
}

func runWithdraw(cmd *cobra.Command, _ []string) error {
	poolAddr, err := addressFlag(cmd, "pool")
	if err != nil {
		return err
	}
	account, err := addressFlag(cmd, "account")
	if err != nil {
		return err
	}
	lpAmount, _ := cmd.Flags().GetUint64("lp-amount")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		res, err := a.dispatcher.Withdraw(ctx, poolAddr, account, lpAmount)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	})
}

func runSwap(cmd *cobra.Command, _ []string) error {
	poolAddr, err := addressFlag(cmd, "pool")
	if err != nil {
		return err
	}
	account, err := addressFlag(cmd, "account")
	if err != nil {
		return err
	}
	tokenIn, err := addressFlag(cmd, "token-in")
	if err != nil {
		return err
	}
	amountIn, _ := cmd.Flags().GetUint64("amount-in")
	minimumOut, _ := cmd.Flags().GetUint64("minimum-out")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		res, err := a.dispatcher.Swap(ctx, poolAddr, account, tokenIn, amountIn, minimumOut)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	})
}

func runPools(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		pools, err := a.dispatcher.Pools(ctx)
		if err != nil {
			return err
		}
		for _, p := range pools {
			if err := a.dispatcher.CheckSupply(ctx, common.HexToAddress(p.Address)); err != nil {
				a.logger.Warn("supply check failed", zap.String("pool", p.Address), zap.Error(err))
			}
		}
		return printJSON(cmd.OutOrStdout(), pools)
	})
}
