package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/areweheadlessyet/internal/app"
	"github.com/samvad-hq/areweheadlessyet/internal/config"
	"github.com/samvad-hq/areweheadlessyet/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "syncer start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("syncer starting", "config", cfg.Redacted())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	syncer, err := app.NewSyncer(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize syncer", "error", err)
		return err
	}

	if err := syncer.Run(ctx); err != nil {
		return fmt.Errorf("syncer run: %w", err)
	}

	return nil
}
