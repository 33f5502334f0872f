// Package mockserver собирает эталонный сервер заметок: хранилище, сценарии
// и HTTP интерфейс на fiber.
package mockserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	httpadapter "notesync/internal/mockserver/adapters/http"
	"notesync/internal/mockserver/app"
	"notesync/internal/mockserver/config"
	"notesync/pkg/logger"
)

// Константы для логирования.
const (
	LogServerStarting = "Starting notes mock server"
	LogServerStopping = "Stopping notes mock server"
	LogServeFailed    = "notes mock server stopped with error"

	ErrListen          = "failed to listen"
	ErrAlreadyStarted  = "server already started"
	ErrShutdownTimeout = "failed to shut down server"
)

// ErrNotStarted возвращается при обращении к адресу незапущенного сервера.
var ErrNotStarted = errors.New("server not started")

// Server - эталонный сервер заметок.
type Server struct {
	app     *fiber.App
	service *app.Service

	mu       sync.Mutex
	listener net.Listener
	done     chan struct{}
}

// New создает сервер поверх хранилища.
func New(cfg *config.Config, storage *Storage) *Server {
	service := app.NewService(storage.Repository,
		app.NewTokenIssuer(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL),
		app.NewPasswordHasher(cfg.JWT.BCryptCost),
		app.Config{RefreshTokenTTL: cfg.JWT.RefreshTokenTTL})

	fiberApp := fiber.New(fiber.Config{AppName: "notes-mock-server"})
	httpadapter.SetupRouter(fiberApp, service)

	return &Server{app: fiberApp, service: service}
}

// Listen открывает адрес и начинает обслуживание в фоне.
func (s *Server) Listen(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrListen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve начинает обслуживание ln в фоне.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return errors.New(ErrAlreadyStarted)
	}
	s.listener = ln
	s.done = make(chan struct{})

	log := logger.Log(ctx)
	log.Info(ctx, LogServerStarting, zap.String("address", ln.Addr().String()))

	go func() {
		defer close(s.done)
		if err := s.app.Listener(ln, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
			log.Error(ctx, LogServeFailed, zap.Error(err))
		}
	}()

	return nil
}

// URL возвращает базовый адрес запущенного сервера.
func (s *Server) URL() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return "", ErrNotStarted
	}
	return "http://" + s.listener.Addr().String(), nil
}

// Shutdown останавливает сервер и ждет завершения обслуживания.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log(ctx).Info(ctx, LogServerStopping)

	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrShutdownTimeout, err)
	}

	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", ErrShutdownTimeout, ctx.Err())
		}
	}
	return nil
}

// ExpireAccessTokens делает недействительными все выданные токены доступа.
func (s *Server) ExpireAccessTokens() {
	s.service.ExpireAccessTokens()
}

// Stats возвращает счетчики обновлений токенов.
func (s *Server) Stats() app.Stats {
	return s.service.Stats()
}
