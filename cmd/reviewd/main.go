package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/codereview/internal/app"
	"github.com/samvad-hq/codereview/internal/config"
	"github.com/samvad-hq/codereview/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "reviewd start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("reviewd starting", "config", map[string]any{
		"app_env":         cfg.Env,
		"server_addr":     cfg.ServerAddr,
		"llm_provider":    cfg.LLMProvider,
		"storage_type":    cfg.StorageType,
		"publishers_file": cfg.PublishersFile,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := app.NewBackend(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize backend", "error", err)
		return err
	}

	if err := backend.Run(ctx); err != nil {
		return fmt.Errorf("backend run: %w", err)
	}

	logger.InfoObj("reviewd stopped", "reason", "signal")
	return nil
}
