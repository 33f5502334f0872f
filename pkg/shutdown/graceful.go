// Package shutdown предоставляет корректное завершение приложения
// по сигналам SIGINT/SIGTERM или по отмене родительского контекста.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"notesync/pkg/logger"
)

// Константы для логирования.
const (
	LogShutdownStarted = "shutdown started"
	LogShutdownTimeout = "shutdown timed out before all hooks finished"
	LogHookFailed      = "shutdown hook failed"
)

// Hook освобождает ресурс при завершении.
type Hook func(ctx context.Context) error

// Wait блокирует выполнение до сигнала SIGINT/SIGTERM или отмены ctx,
// затем параллельно выполняет хуки в пределах timeout.
func Wait(ctx context.Context, timeout time.Duration, hooks ...Hook) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
	case <-ctx.Done():
	}

	Run(ctx, timeout, hooks...)
}

// Run выполняет хуки завершения без ожидания сигнала.
func Run(ctx context.Context, timeout time.Duration, hooks ...Hook) {
	log := logger.Log(ctx)
	log.Info(ctx, LogShutdownStarted, zap.Int("hooks", len(hooks)))

	hookCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	var wg sync.WaitGroup
	for _, hook := range hooks {
		wg.Add(1)
		go func(fn Hook) {
			defer wg.Done()
			if err := fn(hookCtx); err != nil {
				log.Warn(ctx, LogHookFailed, zap.Error(err))
			}
		}(hook)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-hookCtx.Done():
		log.Warn(ctx, LogShutdownTimeout, zap.Duration("timeout", timeout))
	}
}
