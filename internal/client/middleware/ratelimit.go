package middleware

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"notesync/internal/client/domain/result"
	"notesync/internal/client/metrics"
)

// StageRateLimit - имя стадии ограничения частоты.
const StageRateLimit = "ratelimit"

// ErrRateLimitWait - сообщение об ошибке ожидания лимитера.
const ErrRateLimitWait = "rate limiter wait failed"

// NewLimiter создает лимитер. Неположительная частота снимает ограничение.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// RateLimit ждет разрешения лимитера перед отправкой. Если контекст запроса
// отменен раньше, запрос не отправляется и возвращается сетевая ошибка.
func RateLimit(limiter *rate.Limiter, collector metrics.MetricsCollector) Middleware {
	return func(next Handler) Handler {
		return func(req *http.Request) (*http.Response, error) {
			if err := limiter.Wait(req.Context()); err != nil {
				collector.RecordRejected(StageRateLimit)
				return nil, result.Network(fmt.Errorf("%s: %w", ErrRateLimitWait, err))
			}
			return next(req)
		}
	}
}
