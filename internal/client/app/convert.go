package app

import (
	"encoding/json"
	"fmt"
	"net/http"

	"notesync/internal/client/domain/result"
	"notesync/internal/client/session"
)

type errorBody struct {
	Error string `json:"error"`
}

// convert приводит исход транспортного вызова к Result. Значение декодируется
// из тела ответа 2xx в T.
func convert[T any](resp *session.Response, err error) result.Result[T] {
	if err != nil {
		return result.Failure[T](err)
	}
	if err := statusError(resp); err != nil {
		return result.Failure[T](err)
	}

	var value T
	if err := json.Unmarshal(resp.Body, &value); err != nil {
		return result.Failure[T](result.Decode(err))
	}
	return result.Success(value)
}

// convertUnit - convert для операций без тела ответа.
func convertUnit(resp *session.Response, err error) result.Result[result.Unit] {
	if err != nil {
		return result.Failure[result.Unit](err)
	}
	if err := statusError(resp); err != nil {
		return result.Failure[result.Unit](err)
	}
	return result.Success(result.Unit{})
}

func statusError(resp *session.Response) error {
	if resp.IsSuccess() {
		return nil
	}

	message := ""
	var body errorBody
	if json.Unmarshal(resp.Body, &body) == nil {
		message = body.Error
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("%w: %s", result.ErrUnauthenticated, message)
	}
	return result.NewServerError(resp.StatusCode, message)
}
