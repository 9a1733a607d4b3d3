package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/uhyunpark/ledgerreplay/params"
	"github.com/uhyunpark/ledgerreplay/pkg/app/core/transaction"
	"github.com/uhyunpark/ledgerreplay/pkg/app/engine"
	"github.com/uhyunpark/ledgerreplay/pkg/csvio"
	"github.com/uhyunpark/ledgerreplay/pkg/util"
)

const usage = "usage: payments <transactions.csv>"

// Exit codes
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run replays the CSV named by args[0] and writes the account snapshot to stdout
// Logs and diagnostics go to stderr only.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, usage)
		return exitUsage
	}
	path := args[0]

	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("")

	logger, err := newLogger(cfg.Log, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "logger: %v\n", err)
		return exitError
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	f, err := os.Open(path)
	if err != nil {
		sugar.Errorw("input_open_failed", "path", path, "err", err)
		return exitError
	}
	defer f.Close()

	reader, err := csvio.NewReader(f)
	if err != nil {
		sugar.Errorw("input_header_invalid", "path", path, "err", err)
		return exitError
	}

	store, err := transaction.OpenStore(cfg.Store.Backend, cfg.Store.Dir)
	if err != nil {
		sugar.Errorw("tx_store_open_failed", "backend", cfg.Store.Backend, "err", err)
		return exitError
	}
	defer store.Close()

	sugar.Debugw("replay_starting",
		"path", path,
		"tx_store", cfg.Store.Backend,
		"freeze_locked", cfg.Ledger.FreezeLocked)

	proc, err := engine.Run(ctx, reader, store,
		engine.WithLogger(sugar),
		engine.WithFreezeLocked(cfg.Ledger.FreezeLocked))
	if err != nil {
		sugar.Errorw("replay_failed", "path", path, "err", err)
		return exitError
	}

	stats := proc.Stats()
	sugar.Infow("replay_finished",
		"events", stats.Events(),
		"applied", stats.Applied,
		"skipped", stats.SkippedTotal(),
		"accounts", len(proc.Accounts()))

	if err := csvio.WriteAccounts(stdout, proc.Accounts()); err != nil {
		sugar.Errorw("output_write_failed", "err", err)
		return exitError
	}
	return exitOK
}

func newLogger(cfg params.Log, w io.Writer) (*zap.Logger, error) {
	if cfg.File != "" {
		return util.NewLoggerWithFile(cfg.Level, w, cfg.File)
	}
	return util.NewLogger(cfg.Level, w)
}
