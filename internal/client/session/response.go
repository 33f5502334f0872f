package session

import "net/http"

// Response - полностью прочитанный ответ сервиса.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IsSuccess сообщает о статусе 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// IsUnauthorized сообщает о статусе 401.
func (r *Response) IsUnauthorized() bool {
	return r.StatusCode == http.StatusUnauthorized
}
