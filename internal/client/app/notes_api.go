// Package app реализует фасад клиента заметок поверх клиента сессии.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"notesync/internal/client/domain/entities"
	"notesync/internal/client/domain/result"
	"notesync/internal/client/ports/api"
	"notesync/internal/client/ports/store"
	"notesync/internal/client/resilience"
	"notesync/internal/client/session"
	"notesync/pkg/logger"
)

// Пути REST сервиса.
const (
	PathRegister = "/api/auth/register"
	PathLogin    = "/api/auth/login"
	PathLogout   = "/api/auth/logout"
	PathNotes    = "/api/notes"
)

// Константы для логирования и ошибок.
const (
	LogRegister         = "notes api: register"
	LogLogin            = "notes api: login"
	LogLogout           = "notes api: logout"
	LogListNotes        = "notes api: list notes"
	LogGetNote          = "notes api: get note"
	LogCreateNote       = "notes api: create note"
	LogUpdateNote       = "notes api: update note"
	LogDeleteNote       = "notes api: delete note"
	LogRemoteLogoutFail = "Remote logout failed, clearing local session anyway"
	LogOperationFailed  = "Operation failed"

	ErrEmptyEmail       = "email is required"
	ErrEmptyPassword    = "password is required"
	ErrEmptyNoteID      = "note id is required"
	ErrInvalidPage      = "page must be at least 1"
	ErrInvalidSize      = "size must be at least 1"
	ErrEmptyTokens      = "login response contains no access token"
	ErrFailedSaveTokens = "failed to save tokens"
	ErrFailedClear      = "failed to clear tokens"
)

// NotesAPI реализует api.NotesAPI.
type NotesAPI struct {
	client      *session.Client
	store       store.TokenStore
	logoutRetry *resilience.Retry
}

var _ api.NotesAPI = (*NotesAPI)(nil)

// NewNotesAPI создает фасад. logoutAttempts - число попыток удаленного выхода
// при сетевых ошибках.
func NewNotesAPI(client *session.Client, tokens store.TokenStore, logoutAttempts int) *NotesAPI {
	retryConfig := resilience.DefaultRetryConfig()
	retryConfig.MaxAttempts = logoutAttempts
	retryConfig.ShouldRetry = func(err error) bool {
		return errors.Is(err, result.ErrNetworkFailure) &&
			!errors.Is(err, context.Canceled) &&
			!errors.Is(err, context.DeadlineExceeded)
	}

	return &NotesAPI{
		client:      client,
		store:       tokens,
		logoutRetry: resilience.NewRetry("logout", retryConfig),
	}
}

// Register регистрирует учетную запись. Токены не сохраняются.
func (a *NotesAPI) Register(ctx context.Context, creds entities.Credentials) result.Result[result.Unit] {
	logger.Log(ctx).Info(ctx, LogRegister)

	if err := validateCredentials(creds); err != nil {
		return result.Failure[result.Unit](err)
	}

	return logFailure(ctx, LogRegister, convertUnit(a.client.DoPublic(ctx, http.MethodPost, PathRegister, creds)))
}

// Login выполняет вход и сохраняет полученную пару токенов без изменений.
func (a *NotesAPI) Login(ctx context.Context, creds entities.Credentials) result.Result[result.Unit] {
	logger.Log(ctx).Info(ctx, LogLogin)

	if err := validateCredentials(creds); err != nil {
		return result.Failure[result.Unit](err)
	}

	pair, err := convert[entities.TokenPair](a.client.DoPublic(ctx, http.MethodPost, PathLogin, creds.LoginRequest())).Get()
	if err != nil {
		return logFailure(ctx, LogLogin, result.Failure[result.Unit](err))
	}
	if pair.IsZero() {
		return result.Failure[result.Unit](result.Decode(errors.New(ErrEmptyTokens)))
	}

	if err := a.client.ReplaceTokens(ctx, pair); err != nil {
		return logFailure(ctx, LogLogin, result.Failure[result.Unit](fmt.Errorf("%s: %w", ErrFailedSaveTokens, err)))
	}

	return result.Success(result.Unit{})
}

// Logout сообщает серверу о выходе и в любом случае очищает хранилище.
// Ошибка удаленного выхода не влияет на результат.
func (a *NotesAPI) Logout(ctx context.Context) result.Result[result.Unit] {
	log := logger.Log(ctx)
	log.Info(ctx, LogLogout)

	if pair, ok := a.store.GetTokens(ctx); ok && pair.HasRefreshToken() {
		err := a.logoutRetry.Execute(ctx, func(ctx context.Context) error {
			return convertUnit(a.client.DoPublic(ctx, http.MethodPost, PathLogout,
				map[string]string{"refreshToken": pair.RefreshToken})).Err()
		})
		if err != nil {
			log.Warn(ctx, LogRemoteLogoutFail, zap.Error(err))
		}
	}

	if err := a.client.ClearTokens(context.WithoutCancel(ctx)); err != nil {
		return logFailure(ctx, LogLogout, result.Failure[result.Unit](fmt.Errorf("%s: %w", ErrFailedClear, err)))
	}
	return result.Success(result.Unit{})
}

// ListNotes возвращает страницу заметок.
func (a *NotesAPI) ListNotes(ctx context.Context, page, size int) result.Result[entities.NoteResponse] {
	logger.Log(ctx).Debug(ctx, LogListNotes, zap.Int("page", page), zap.Int("size", size))

	if page < 1 {
		return result.Failure[entities.NoteResponse](invalid(ErrInvalidPage))
	}
	if size < 1 {
		return result.Failure[entities.NoteResponse](invalid(ErrInvalidSize))
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))

	return logFailure(ctx, LogListNotes,
		convert[entities.NoteResponse](a.client.Do(ctx, http.MethodGet, PathNotes+"?"+query.Encode(), nil)))
}

// GetNote возвращает заметку по идентификатору.
func (a *NotesAPI) GetNote(ctx context.Context, id string) result.Result[entities.Note] {
	logger.Log(ctx).Debug(ctx, LogGetNote, zap.String("note_id", id))

	if strings.TrimSpace(id) == "" {
		return result.Failure[entities.Note](invalid(ErrEmptyNoteID))
	}

	return logFailure(ctx, LogGetNote,
		convert[entities.Note](a.client.Do(ctx, http.MethodGet, notePath(id), nil)))
}

// CreateNote создает заметку и возвращает копию сервера.
func (a *NotesAPI) CreateNote(ctx context.Context, note entities.Note) result.Result[entities.Note] {
	logger.Log(ctx).Debug(ctx, LogCreateNote, zap.String("note_id", note.ID))

	return logFailure(ctx, LogCreateNote,
		convert[entities.Note](a.client.Do(ctx, http.MethodPost, PathNotes, note)))
}

// UpdateNote заменяет заголовок и содержимое заметки.
func (a *NotesAPI) UpdateNote(ctx context.Context, id, title, content string, lastEditedAt time.Time) result.Result[entities.Note] {
	logger.Log(ctx).Debug(ctx, LogUpdateNote, zap.String("note_id", id))

	if strings.TrimSpace(id) == "" {
		return result.Failure[entities.Note](invalid(ErrEmptyNoteID))
	}

	body := entities.UpdateNoteRequest{Title: title, Content: content, LastEditedAt: lastEditedAt}
	return logFailure(ctx, LogUpdateNote,
		convert[entities.Note](a.client.Do(ctx, http.MethodPut, notePath(id), body)))
}

// DeleteNote удаляет заметку.
func (a *NotesAPI) DeleteNote(ctx context.Context, id string) result.Result[result.Unit] {
	logger.Log(ctx).Debug(ctx, LogDeleteNote, zap.String("note_id", id))

	if strings.TrimSpace(id) == "" {
		return result.Failure[result.Unit](invalid(ErrEmptyNoteID))
	}

	return logFailure(ctx, LogDeleteNote,
		convertUnit(a.client.Do(ctx, http.MethodDelete, notePath(id), nil)))
}

func notePath(id string) string {
	return PathNotes + "/" + url.PathEscape(id)
}

func validateCredentials(creds entities.Credentials) error {
	if strings.TrimSpace(creds.Email) == "" {
		return invalid(ErrEmptyEmail)
	}
	if creds.Password == "" {
		return invalid(ErrEmptyPassword)
	}
	return nil
}

func invalid(message string) error {
	return fmt.Errorf("%w: %s", result.ErrInvalidArgument, message)
}

func logFailure[T any](ctx context.Context, operation string, r result.Result[T]) result.Result[T] {
	if r.IsFailure() {
		logger.Log(ctx).Warn(ctx, LogOperationFailed,
			zap.String("operation", operation),
			zap.Stringer("kind", r.Kind()),
			zap.Error(r.Err()))
	}
	return r
}
