// Package middleware содержит упорядоченную цепочку стадий, через которую
// проходит каждый исходящий запрос клиента.
package middleware

import (
	"net/http"

	"notesync/internal/client/domain/result"
)

// Handler отправляет запрос и возвращает ответ.
type Handler func(req *http.Request) (*http.Response, error)

// Middleware оборачивает Handler. Стадия может прервать цепочку, вернув ошибку
// без вызова следующей.
type Middleware func(next Handler) Handler

// Chain собирает цепочку: первая стадия выполняется первой.
func Chain(final Handler, stages ...Middleware) Handler {
	h := final
	for i := len(stages) - 1; i >= 0; i-- {
		h = stages[i](h)
	}
	return h
}

// Transport возвращает конечную стадию, отправляющую запрос через http.Client.
// Ошибки транспорта приводятся к ErrNetworkFailure.
func Transport(client *http.Client) Handler {
	return func(req *http.Request) (*http.Response, error) {
		resp, err := client.Do(req)
		if err != nil {
			return nil, result.Network(err)
		}
		return resp, nil
	}
}
