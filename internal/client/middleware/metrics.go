package middleware

import (
	"net/http"
	"time"

	"notesync/internal/client/metrics"
)

// Metrics записывает количество и длительность запросов.
func Metrics(collector metrics.MetricsCollector) Middleware {
	return func(next Handler) Handler {
		return func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next(req)
			if err != nil {
				collector.RecordNetworkError(req.Method, time.Since(start))
				return nil, err
			}
			collector.RecordRequest(req.Method, resp.StatusCode, time.Since(start))
			return resp, nil
		}
	}
}
