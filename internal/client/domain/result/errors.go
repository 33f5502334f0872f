// Package result определяет единый тип результата операций клиента
// и закрытую таксономию ошибок.
package result

import (
	"errors"
	"fmt"
	"net/http"
)

// Таксономия ошибок клиента.
var (
	ErrNetworkFailure  = errors.New("network failure")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrServerError     = errors.New("server error")
	ErrDecodeFailure   = errors.New("decode failure")

	// ErrInvalidArgument отклоняет запрос локально, без обращения к серверу.
	ErrInvalidArgument = fmt.Errorf("invalid argument: %w", ErrServerError)
)

// Kind - класс ошибки.
type Kind int

// Классы ошибок.
const (
	KindNone Kind = iota
	KindNetwork
	KindUnauthenticated
	KindServer
	KindDecode
)

// String возвращает имя класса.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNetwork:
		return "network"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindServer:
		return "server"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// ServerError описывает ответ сервера с кодом 4xx/5xx.
type ServerError struct {
	StatusCode int
	Message    string
}

// Error реализует интерфейс error.
func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error: status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("server error: status %d: %s", e.StatusCode, e.Message)
}

// Unwrap позволяет сравнивать ошибку с ErrServerError.
func (e *ServerError) Unwrap() error {
	return ErrServerError
}

// NewServerError создает ошибку сервера.
func NewServerError(statusCode int, message string) error {
	return &ServerError{StatusCode: statusCode, Message: message}
}

// Network оборачивает транспортную ошибку в ErrNetworkFailure,
// сохраняя исходную цепочку, включая отмену контекста.
func Network(err error) error {
	if err == nil || errors.Is(err, ErrNetworkFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrNetworkFailure, err)
}

// Decode оборачивает ошибку разбора ответа.
func Decode(err error) error {
	if err == nil || errors.Is(err, ErrDecodeFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrDecodeFailure, err)
}

// KindOf классифицирует произвольную ошибку. ErrNetworkFailure, отмена контекста
// и все нераспознанное относятся к сетевым ошибкам.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrDecodeFailure):
		return KindDecode
	case errors.Is(err, ErrServerError):
		return KindServer
	default:
		return KindNetwork
	}
}

// Normalize приводит ошибку к одному из классов таксономии.
func Normalize(err error) error {
	if err == nil {
		return nil
	}
	switch KindOf(err) {
	case KindUnauthenticated, KindDecode, KindServer:
		return err
	default:
		return Network(err)
	}
}
