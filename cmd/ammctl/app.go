package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolEngine/internal/config"
	"poolEngine/internal/ledger"
	"poolEngine/internal/metrics"
	"poolEngine/internal/model"
	"poolEngine/internal/pool"
	"poolEngine/internal/storage"
	"poolEngine/internal/storage/postgres"
)

// app is the wiring shared by the local commands.
type app struct {
	cfg        config.Config
	logger     *zap.Logger
	ledger     *ledger.MemoryLedger
	registry   *prometheus.Registry
	dispatcher *pool.Dispatcher
	pg         *postgres.Store
}

func openApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	l, err := ledger.LoadMemoryLedger(cfg.LedgerFile)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, ledger: l, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	journals := storage.MultiJournal{ledgerCheckpoint{ledger: l, path: cfg.LedgerFile}}
	for _, path := range cfg.Journal {
		journals = append(journals, storage.NewJsonlJournal(path))
	}

	var store pool.Store
	if cfg.PGDSN != "" {
		pg, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		a.pg = pg
		store = pg
		journals = append(journals, pg)
	} else {
		store = &pool.FileStore{Path: cfg.StateFile}
	}

	a.dispatcher = pool.NewDispatcher(l, store, journals, metrics.New(a.registry), logger)
	return a, nil
}

// ledgerCheckpoint writes the ledger snapshot after every journaled
// operation so pool state and balances are saved together.
type ledgerCheckpoint struct {
	ledger *ledger.MemoryLedger
	path   string
}

func (c ledgerCheckpoint) PutOperations(context.Context, []model.OperationRecord) error {
	return c.ledger.SaveFile(c.path)
}

// close persists the ledger and releases connections.
func (a *app) close() error {
	defer a.logger.Sync()
	if a.pg != nil {
		defer a.pg.Close()
	}
	if err := a.ledger.SaveFile(a.cfg.LedgerFile); err != nil {
		a.logger.Error("save ledger failed", zap.String("path", a.cfg.LedgerFile), zap.Error(err))
		return err
	}
	return nil
}

// withApp runs fn with an opened app and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	runErr := fn(ctx, a)
	if closeErr := a.close(); runErr == nil {
		runErr = closeErr
	}
	return runErr
}

func addressFlag(cmd *cobra.Command, name string) (common.Address, error) {
	raw, _ := cmd.Flags().GetString(name)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return common.Address{}, fmt.Errorf("--%s is required", name)
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("--%s: invalid address %s", name, raw)
	}
	return common.HexToAddress(raw), nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
