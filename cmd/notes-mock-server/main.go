// Package main реализует точку входа эталонного сервера заметок.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"notesync/internal/mockserver"
	"notesync/internal/mockserver/config"
	"notesync/pkg/logger"
	"notesync/pkg/shutdown"
)

// Константы для переменных окружения.
const (
	EnvLoggerMode  = "MOCKSERVER_LOGGER_MODE"
	EnvLoggerLevel = "MOCKSERVER_LOGGER_LEVEL"
)

// Константы для сообщений об ошибках.
const (
	ErrInitLogger           = "failed to initialize logger"
	ErrSyncLogger           = "failed to sync logger"
	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
	ErrInitStorage          = "failed to initialize storage"
	ErrStartHTTP            = "failed to start HTTP server"
)

// Константы для игнорируемых ошибок.
const (
	ErrSyncStderr = "sync /dev/stderr: invalid argument"
	ErrSyncStdout = "sync /dev/stdout: invalid argument"
)

// Константы для сообщений сервиса.
const (
	LogServiceStarted      = "notes mock server started"
	LogServiceShutdownDone = "notes mock server shutdown complete"
	LogClosingStorage      = "closing storage"
	LogStoppingHTTP        = "stopping HTTP server"
)

func main() {
	env := logger.Development
	if strings.ToLower(os.Getenv(EnvLoggerMode)) == "production" {
		env = logger.Production
	}

	log, err := logger.NewLogger(env, os.Getenv(EnvLoggerLevel))
	if err != nil {
		panic(ErrInitLogger + ": " + err.Error())
	}

	logger.SetGlobalLogger(log)

	ctx := logger.NewRequestIDContext(context.Background(), "")

	var exitCode int

	func() {
		defer func() {
			if err := log.Sync(); err != nil {
				errMsg := err.Error()
				if strings.Contains(errMsg, ErrSyncStderr) || strings.Contains(errMsg, ErrSyncStdout) {
					return
				}
				if _, writeErr := fmt.Fprintf(os.Stderr, "%s: %v\n", ErrSyncLogger, err); writeErr != nil {
					panic(writeErr)
				}
			}
		}()

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

		storage, err := mockserver.NewStorage(ctx, cfg)
		if err != nil {
			log.Error(ctx, ErrInitStorage, zap.Error(err))
			exitCode = 1
			return
		}

		server := mockserver.New(cfg, storage)
		if err := server.Listen(ctx, cfg.HTTP.GetAddress()); err != nil {
			log.Error(ctx, ErrStartHTTP, zap.Error(err))
			_ = storage.Close(ctx)
			exitCode = 1
			return
		}

		log.Info(ctx, LogServiceStarted,
			zap.String("address", cfg.HTTP.GetAddress()),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("startup_time", time.Now().Format(time.RFC3339)))

		shutdown.Wait(ctx, cfg.Shutdown.Timeout,
			func(ctx context.Context) error {
				log.Info(ctx, LogStoppingHTTP)
				if err := server.Shutdown(ctx); err != nil {
					return err
				}
				log.Info(ctx, LogClosingStorage)
				return storage.Close(ctx)
			},
		)

		log.Info(ctx, LogServiceShutdownDone)
	}()

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
