// Package http содержит HTTP интерфейс эталонного сервера заметок на fiber.
package http

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"notesync/internal/mockserver/domain"
	"notesync/pkg/logger"
)

// Константы для логирования и ошибок.
const (
	LogHandlerRegister   = "handler: register"
	LogHandlerLogin      = "handler: login"
	LogHandlerRefresh    = "handler: refresh tokens" // #nosec G101 - not a credential
	LogHandlerLogout     = "handler: logout"
	LogHandlerListNotes  = "handler: list notes"
	LogHandlerGetNote    = "handler: get note"
	LogHandlerCreateNote = "handler: create note"
	LogHandlerUpdateNote = "handler: update note"
	LogHandlerDeleteNote = "handler: delete note"

	ErrorInvalidRequest       = "invalid request"
	ErrorInvalidQuery         = "page and size must be integers"
	ErrorFailedToServeRequest = "failed to serve request"
	ErrorRouteNotFound        = "Route not found"

	DefaultPage = 1
	DefaultSize = 20
)

// Authenticator проверяет токен доступа.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (string, error)
}

// Service - сценарии сервера, используемые обработчиками.
type Service interface {
	Authenticator
	Register(ctx context.Context, email, username, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	ListNotes(ctx context.Context, userID string, page, size int) ([]domain.Note, int, error)
	GetNote(ctx context.Context, userID, noteID string) (*domain.Note, error)
	CreateNote(ctx context.Context, note domain.Note) (*domain.Note, error)
	UpdateNote(ctx context.Context, note domain.Note) (*domain.Note, error)
	DeleteNote(ctx context.Context, userID, noteID string) error
}

// Handler содержит HTTP обработчики.
type Handler struct {
	service Service
}

// NewHandler создает обработчики.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Register обрабатывает регистрацию.
func (h *Handler) Register(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	logger.Log(requestCtx).Debug(requestCtx, LogHandlerRegister)

	var req RegisterRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		return badRequest(ctx, ErrorInvalidRequest)
	}

	user, err := h.service.Register(requestCtx, req.Email, req.Username, req.Password)
	if err != nil {
		return h.fail(ctx, LogHandlerRegister, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(RegisterResponse{ID: user.ID, Email: user.Email})
}

// Login обрабатывает вход.
func (h *Handler) Login(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	logger.Log(requestCtx).Debug(requestCtx, LogHandlerLogin)

	var req LoginRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		return badRequest(ctx, ErrorInvalidRequest)
	}

	pair, err := h.service.Login(requestCtx, req.Email, req.Password)
	if err != nil {
		return h.fail(ctx, LogHandlerLogin, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(toTokenResponse(pair))
}

// RefreshTokens обменивает токен обновления на новую пару.
func (h *Handler) RefreshTokens(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	logger.Log(requestCtx).Debug(requestCtx, LogHandlerRefresh)

	var req RefreshRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		return badRequest(ctx, ErrorInvalidRequest)
	}

	pair, err := h.service.Refresh(requestCtx, req.RefreshToken)
	if err != nil {
		return h.fail(ctx, LogHandlerRefresh, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(toTokenResponse(pair))
}

// Logout отзывает токен обновления.
func (h *Handler) Logout(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	logger.Log(requestCtx).Debug(requestCtx, LogHandlerLogout)

	var req RefreshRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		return badRequest(ctx, ErrorInvalidRequest)
	}

	if err := h.service.Logout(requestCtx, req.RefreshToken); err != nil {
		return h.fail(ctx, LogHandlerLogout, err)
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

// ListNotes возвращает страницу заметок.
func (h *Handler) ListNotes(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	logger.Log(requestCtx).Debug(requestCtx, LogHandlerListNotes)

	page, err := queryInt(ctx, "page", DefaultPage)
	if err != nil {
		return badRequest(ctx, ErrorInvalidQuery)
	}
	size, err := queryInt(ctx, "size", DefaultSize)
	if err != nil {
		return badRequest(ctx, ErrorInvalidQuery)
	}

	notes, total, err := h.service.ListNotes(requestCtx, userID(ctx), page, size)
	if err != nil {
		return h.fail(ctx, LogHandlerListNotes, err)
	}

	response := ListNotesResponse{Notes: make([]Note, 0, len(notes)), Total: total}
	for i := range notes {
		response.Notes = append(response.Notes, toNote(&notes[i]))
	}
	return ctx.Status(fiber.StatusOK).JSON(response)
}

// GetNote возвращает заметку.
func (h *Handler) GetNote(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	logger.Log(requestCtx).Debug(requestCtx, LogHandlerGetNote)

	note, err := h.service.GetNote(requestCtx, userID(ctx), ctx.Params("id"))
	if err != nil {
		return h.fail(ctx, LogHandlerGetNote, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(toNote(note))
}

// CreateNote создает заметку.
func (h *Handler) CreateNote(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	logger.Log(requestCtx).Debug(requestCtx, LogHandlerCreateNote)

	var req NoteRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		return badRequest(ctx, ErrorInvalidRequest)
	}

	note, err := h.service.CreateNote(requestCtx, domain.Note{
		ID:           req.ID,
		UserID:       userID(ctx),
		Title:        req.Title,
		Content:      req.Content,
		CreatedAt:    req.CreatedAt,
		LastEditedAt: req.LastEditedAt,
	})
	if err != nil {
		return h.fail(ctx, LogHandlerCreateNote, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(toNote(note))
}

// UpdateNote заменяет заголовок и содержимое заметки.
func (h *Handler) UpdateNote(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	logger.Log(requestCtx).Debug(requestCtx, LogHandlerUpdateNote)

	var req NoteRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		return badRequest(ctx, ErrorInvalidRequest)
	}

	note, err := h.service.UpdateNote(requestCtx, domain.Note{
		ID:           ctx.Params("id"),
		UserID:       userID(ctx),
		Title:        req.Title,
		Content:      req.Content,
		LastEditedAt: req.LastEditedAt,
	})
	if err != nil {
		return h.fail(ctx, LogHandlerUpdateNote, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(toNote(note))
}

// DeleteNote удаляет заметку.
func (h *Handler) DeleteNote(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	logger.Log(requestCtx).Debug(requestCtx, LogHandlerDeleteNote)

	if err := h.service.DeleteNote(requestCtx, userID(ctx), ctx.Params("id")); err != nil {
		return h.fail(ctx, LogHandlerDeleteNote, err)
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

// NotFound отвечает на запросы к несуществующим маршрутам.
func NotFound(ctx fiber.Ctx) error {
	return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": ErrorRouteNotFound})
}

// fail отправляет ошибку сценария с подходящим статусом.
func (h *Handler) fail(ctx fiber.Ctx, operation string, err error) error {
	requestCtx := ctx.Context()
	status := statusFor(err)

	message := err.Error()
	if status == fiber.StatusInternalServerError {
		logger.Log(requestCtx).Error(requestCtx, ErrorFailedToServeRequest,
			zap.String("operation", operation), zap.Error(err))
		message = ErrorInternal
	}

	return ctx.Status(status).JSON(fiber.Map{"error": message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrInvalidPassword),
		errors.Is(err, domain.ErrEmptyTitle),
		errors.Is(err, domain.ErrInvalidPage):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInvalidRefreshToken),
		errors.Is(err, domain.ErrInvalidAccessToken),
		errors.Is(err, domain.ErrExpiredAccessToken):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrNoteNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrEmailAlreadyExists),
		errors.Is(err, domain.ErrNoteAlreadyExists):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func badRequest(ctx fiber.Ctx, message string) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

func queryInt(ctx fiber.Ctx, key string, def int) (int, error) {
	raw := ctx.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func userID(ctx fiber.Ctx) string {
	id, _ := ctx.Locals(LocalUserID).(string)
	return id
}
