package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"notesync/pkg/logger"
)

// ErrPanic возвращается, если стадия цепочки запаниковала.
var ErrPanic = errors.New("panic in request chain")

// Recovery перехватывает панику в следующих стадиях и превращает ее в ошибку.
func Recovery() Middleware {
	return func(next Handler) Handler {
		return func(req *http.Request) (resp *http.Response, err error) {
			ctx := req.Context()
			defer func() {
				if r := recover(); r != nil {
					logger.Log(ctx).Error(ctx, "Request chain panic",
						zap.String("error", fmt.Sprintf("%v", r)),
						zap.String("stack", string(debug.Stack())))
					resp, err = nil, fmt.Errorf("%w: %v", ErrPanic, r)
				}
			}()
			return next(req)
		}
	}
}
