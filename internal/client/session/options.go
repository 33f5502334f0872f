package session

import (
	"net/http"
	"time"

	"notesync/internal/client/metrics"
	"notesync/internal/client/middleware"
)

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient задает транспорт.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithMetrics задает сборщик метрик.
func WithMetrics(collector metrics.MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithClock задает источник времени для проверки срока действия токена.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithMiddleware добавляет стадии в конец цепочки, перед транспортом.
func WithMiddleware(stages ...middleware.Middleware) Option {
	return func(c *Client) {
		c.extra = append(c.extra, stages...)
	}
}

// RequestOption настраивает отдельный запрос.
type RequestOption func(*requestOptions)

type requestOptions struct {
	allowAnonymous bool
}

// AllowAnonymous разрешает отправить запрос без токена, если пара отсутствует.
func AllowAnonymous() RequestOption {
	return func(o *requestOptions) {
		o.allowAnonymous = true
	}
}
