package main

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"poolEngine/internal/config"
	"poolEngine/internal/model"
	"poolEngine/internal/storage"
)

// runHistory prints the operations recorded in the first journal file.
func runHistory(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if len(cfg.Journal) == 0 {
		return errors.New("no journal configured")
	}

	var pool string
	if raw, _ := cmd.Flags().GetString("pool"); strings.TrimSpace(raw) != "" {
		addr, err := addressFlag(cmd, "pool")
		if err != nil {
			return err
		}
		pool = addr.Hex()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ops, err := storage.NewJsonlJournal(cfg.Journal[0]).ReadOperations(ctx, pool)
	if err != nil {
		return err
	}
	if ops == nil {
		ops = []model.OperationRecord{}
	}
	return printJSON(cmd.OutOrStdout(), ops)
}
