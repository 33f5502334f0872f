package middleware

import (
	"fmt"
	"net/http"

	"notesync/internal/client/domain/result"
	"notesync/internal/client/metrics"
	"notesync/internal/client/resilience"
)

// StageBreaker - имя стадии circuit breaker.
const StageBreaker = "breaker"

// Breaker пропускает запросы через circuit breaker. Отказом считаются
// ошибки транспорта и ответы 5xx; 4xx считаются успехом.
func Breaker(cb *resilience.CircuitBreaker, collector metrics.MetricsCollector) Middleware {
	return func(next Handler) Handler {
		return func(req *http.Request) (*http.Response, error) {
			ctx := req.Context()
			if !cb.AllowRequest(ctx) {
				collector.RecordRejected(StageBreaker)
				return nil, result.Network(resilience.ErrCircuitOpen)
			}

			resp, err := next(req)
			switch {
			case err != nil:
				cb.RecordResult(ctx, err)
			case resp.StatusCode >= http.StatusInternalServerError:
				cb.RecordResult(ctx, fmt.Errorf("status %d", resp.StatusCode))
			default:
				cb.RecordResult(ctx, nil)
			}
			return resp, err
		}
	}
}
