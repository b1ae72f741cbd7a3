package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Victor-armando18/service-promotions/internal/infrastructure"
	"github.com/Victor-armando18/service-promotions/internal/interfaces"
	"github.com/Victor-armando18/service-promotions/internal/interfaces/httpapi"
	"github.com/Victor-armando18/service-promotions/internal/platform/config"
	"github.com/Victor-armando18/service-promotions/internal/platform/logging"
	"github.com/Victor-armando18/service-promotions/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, logger)

	loader := infrastructure.NewCachedLoader(infrastructure.NewFileRuleLoader(cfg.RulesDir), cfg.RulesTTL)
	svc := usecase.NewEvaluationService(
		loader,
		interfaces.NewDefaultEngine(),
		usecase.WithLogger(logger),
		usecase.WithBatchConcurrency(cfg.BatchConcurrency),
	)

	// A missing pack is not fatal: the server answers 503 until a reload succeeds.
	if _, err := svc.Reload(ctx, cfg.RulesVersion); err != nil {
		logger.Warn("initial rule pack not loaded",
			zap.String("dir", cfg.RulesDir),
			zap.String("version", cfg.RulesVersion),
			zap.Error(err))
	}

	e := httpapi.NewServer(svc, logger)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return e.Shutdown(shutdownCtx)
}
