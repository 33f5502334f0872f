// Package main реализует CLI клиента заметок.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"notesync/internal/client/adapters/tokenstore"
	"notesync/internal/client/app"
	"notesync/internal/client/config"
	"notesync/internal/client/domain/result"
	"notesync/internal/client/metrics"
	"notesync/internal/client/session"
	"notesync/pkg/logger"
)

// Константы для переменных окружения.
const (
	EnvLoggerMode  = "NOTESYNC_LOGGER_MODE"
	EnvLoggerLevel = "NOTESYNC_LOGGER_LEVEL"
)

// Константы для сообщений об ошибках.
const (
	ErrInitLogger           = "failed to initialize logger"
	ErrSyncLogger           = "failed to sync logger"
	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
	ErrInitTokenStore       = "failed to initialize token store"
	ErrCloseTokenStore      = "failed to close token store"
	ErrWriteMetrics         = "failed to write metrics"
)

// Константы для игнорируемых ошибок.
const (
	ErrSyncStderr = "sync /dev/stderr: invalid argument"
	ErrSyncStdout = "sync /dev/stdout: invalid argument"
)

func main() {
	showMetrics := flag.Bool("metrics", false, "print client metrics to stderr after the command")
	ephemeral := flag.Bool("ephemeral", false, "keep tokens in memory for this invocation only")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	env := logger.Development
	if strings.ToLower(os.Getenv(EnvLoggerMode)) == "production" {
		env = logger.Production
	}
	level := os.Getenv(EnvLoggerLevel)
	if level == "" {
		level = "warn"
	}

	log, err := logger.NewLogger(env, level)
	if err != nil {
		panic(ErrInitLogger + ": " + err.Error())
	}
	logger.SetGlobalLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx = logger.NewRequestIDContext(ctx, "")

	var exitCode int

	func() {
		defer stop()
		defer func() { syncLogger(log) }()

		cfg, err := config.Load(ctx)
		if err != nil {
			log.Error(ctx, ErrLoadConfig, zap.Error(err))
			exitCode = 1
			return
		}

		finalLogger, err := logger.NewLogger(cfg.Logging.GetEnvironment(), cfg.Logging.Level)
		if err != nil {
			log.Error(ctx, ErrInitLoggerWithConfig, zap.Error(err))
			exitCode = 1
			return
		}
		logger.SetGlobalLogger(finalLogger)
		log = finalLogger

		if *ephemeral {
			cfg.TokenStore.Driver = config.TokenStoreMemory
		}

		tokens, closeStore, err := tokenstore.New(ctx, cfg)
		if err != nil {
			log.Error(ctx, ErrInitTokenStore, zap.Error(err))
			exitCode = 1
			return
		}
		defer func() {
			if err := closeStore(); err != nil {
				log.Warn(ctx, ErrCloseTokenStore, zap.Error(err))
			}
		}()

		registry := prometheus.NewRegistry()
		client := session.New(cfg, tokens, session.WithMetrics(metrics.NewCollector(registry)))
		notes := app.NewNotesAPI(client, tokens, cfg.Session.LogoutAttempts)

		if err := run(ctx, notes, flag.Args(), os.Stdout); err != nil {
			reportError(err)
			exitCode = 1
		}

		if *showMetrics {
			if err := metrics.WriteText(os.Stderr, registry); err != nil {
				log.Warn(ctx, ErrWriteMetrics, zap.Error(err))
			}
		}
	}()

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func reportError(err error) {
	if errors.Is(err, ErrUsage) || errors.Is(err, ErrUnknownCmd) || errors.Is(err, ErrMissingNoteID) {
		fmt.Fprintf(os.Stderr, "notesync: %v\n\n%s", err, usage)
		return
	}
	fmt.Fprintf(os.Stderr, "notesync: %s error: %v\n", result.KindOf(err), err)
}

func syncLogger(log *logger.Logger) {
	if err := log.Sync(); err != nil {
		errMsg := err.Error()
		if strings.Contains(errMsg, ErrSyncStderr) || strings.Contains(errMsg, ErrSyncStdout) {
			return
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", ErrSyncLogger, err)
	}
}
