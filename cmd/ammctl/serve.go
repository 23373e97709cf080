package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolEngine/internal/api"
)

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}

	a.logger.Info("serve start",
		zap.String("addr", a.cfg.Addr),
		zap.String("ledger_file", a.cfg.LedgerFile),
		zap.Bool("postgres", a.pg != nil),
		zap.Strings("journal", a.cfg.Journal),
	)

	server := api.NewServer(a.dispatcher, a.registry, a.logger)
	serveErr := server.ListenAndServe(ctx, a.cfg.Addr)
	if closeErr := a.close(); serveErr == nil {
		serveErr = closeErr
	}
	return serveErr
}
