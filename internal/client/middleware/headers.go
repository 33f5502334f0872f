package middleware

import (
	"net/http"

	"notesync/pkg/logger"
)

// RequestIDHeader - заголовок с идентификатором запроса.
const RequestIDHeader = "X-Request-ID"

// ClientHeader добавляет к каждому запросу фиксированный идентифицирующий заголовок.
func ClientHeader(name, value string) Middleware {
	return func(next Handler) Handler {
		return func(req *http.Request) (*http.Response, error) {
			if name != "" {
				req.Header.Set(name, value)
			}
			return next(req)
		}
	}
}

// RequestID берет идентификатор запроса из контекста или создает новый,
// кладет его в контекст запроса и в заголовок X-Request-ID.
func RequestID() Middleware {
	return func(next Handler) Handler {
		return func(req *http.Request) (*http.Response, error) {
			ctx := req.Context()
			requestID, ok := logger.GetRequestID(ctx)
			if !ok {
				requestID = logger.GenerateRequestID()
				ctx = logger.NewRequestIDContext(ctx, requestID)
				req = req.WithContext(ctx)
			}
			req.Header.Set(RequestIDHeader, requestID)
			return next(req)
		}
	}
}
