package http

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"notesync/pkg/logger"
)

// Константы промежуточного ПО.
const (
	LocalUserID     = "userID"
	RequestIDHeader = "X-Request-ID"

	ErrorNoAuthHeader       = "no authorization header provided"
	ErrorInvalidTokenFormat = "invalid token format"
	ErrorInternal           = "Internal Server Error"
)

// NewLoggerMiddleware создает промежуточное ПО для логирования запросов.
func NewLoggerMiddleware() fiber.Handler {
	return func(ctx fiber.Ctx) error {
		requestCtx := ctx.Context()
		start := time.Now()

		requestID := ctx.Get(RequestIDHeader)
		if requestID == "" {
			requestID = logger.GenerateRequestID()
		}
		ctx.Set(RequestIDHeader, requestID)

		log := logger.Log(requestCtx).With(
			zap.String("path", ctx.Path()),
			zap.String("method", ctx.Method()),
			zap.String("request_id", requestID),
		)

		err := ctx.Next()

		fields := []zap.Field{
			zap.Int("status", ctx.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
		}
		if err != nil {
			log.Error(requestCtx, "Request failed", append(fields, zap.Error(err))...)
			return fmt.Errorf("request processing error: %w", err)
		}

		log.Debug(requestCtx, "Request completed", fields...)
		return nil
	}
}

// NewRecoveryMiddleware создает промежуточное ПО для восстановления после паники.
func NewRecoveryMiddleware() fiber.Handler {
	return func(ctx fiber.Ctx) (err error) {
		requestCtx := ctx.Context()

		defer func() {
			if r := recover(); r != nil {
				logger.Log(requestCtx).Error(requestCtx, "Server panic",
					zap.String("error", fmt.Sprintf("%v", r)),
					zap.String("stack", string(debug.Stack())),
				)
				err = ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": ErrorInternal})
			}
		}()

		return ctx.Next()
	}
}

// NewAuthMiddleware проверяет токен доступа и сохраняет идентификатор
// пользователя в Locals.
func NewAuthMiddleware(auth Authenticator) fiber.Handler {
	return func(ctx fiber.Ctx) error {
		requestCtx := ctx.Context()

		authHeader := ctx.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return unauthorized(ctx, ErrorNoAuthHeader)
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			return unauthorized(ctx, ErrorInvalidTokenFormat)
		}

		userID, err := auth.Authenticate(requestCtx, token)
		if err != nil {
			logger.Log(requestCtx).Debug(requestCtx, "Access token rejected", zap.Error(err))
			return unauthorized(ctx, err.Error())
		}

		ctx.Locals(LocalUserID, userID)
		return ctx.Next()
	}
}

func unauthorized(ctx fiber.Ctx, message string) error {
	return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": message})
}
