package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/uhyunpark/ledgerreplay/params"
	"github.com/uhyunpark/ledgerreplay/pkg/api"
	"github.com/uhyunpark/ledgerreplay/pkg/util"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("") // "" means load from .env in current directory

	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Log.File != "" {
		logger, err = util.NewLoggerWithFile(cfg.Log.Level, os.Stderr, cfg.Log.File)
	} else {
		logger, err = util.NewLogger(cfg.Log.Level, os.Stderr)
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "level", cfg.Log.Level, "log_file", cfg.Log.File)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiServer := api.NewServer(cfg, sugar)
	srv := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		sugar.Infow("api_server_starting",
			"addr", cfg.API.Addr,
			"tx_store", cfg.Store.Backend,
			"freeze_locked", cfg.Ledger.FreezeLocked)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	case <-ctx.Done():
		sugar.Info("api_server_stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sugar.Errorw("api_server_shutdown_failed", "err", err)
		}
	}
}
