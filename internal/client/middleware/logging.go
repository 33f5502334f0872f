package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"notesync/pkg/logger"
)

// Константы для логирования.
const (
	LogRequestCompleted = "Request completed"
	LogRequestFailed    = "Request failed"
)

// Logging пишет метод, путь, статус и задержку каждого запроса.
// Заголовки и тела запросов не логируются.
func Logging() Middleware {
	return func(next Handler) Handler {
		return func(req *http.Request) (*http.Response, error) {
			ctx := req.Context()
			start := time.Now()

			log := logger.Log(ctx).With(
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
			)

			resp, err := next(req)
			latency := time.Since(start)

			if err != nil {
				log.Warn(ctx, LogRequestFailed, zap.Duration("latency", latency), zap.Error(err))
				return nil, err
			}

			log.Debug(ctx, LogRequestCompleted,
				zap.Int("status", resp.StatusCode),
				zap.Duration("latency", latency))
			return resp, nil
		}
	}
}
