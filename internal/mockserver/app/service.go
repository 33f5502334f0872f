// Package app содержит сценарии эталонного сервера заметок: учетные записи,
// выдачу и ротацию токенов, CRUD заметок.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"notesync/internal/mockserver/domain"
	"notesync/internal/mockserver/ports"
	"notesync/pkg/logger"
)

const (
	methodRegister = "Register"
	methodLogin    = "Login"
	methodRefresh  = "Refresh"
	methodLogout   = "Logout"

	msgUserRegistered    = "user registered successfully"
	msgUserLoggedIn      = "user logged in successfully"
	msgTokensRefreshed   = "tokens refreshed successfully"
	msgRefreshRejected   = "refresh token rejected"
	msgUserLoggedOut     = "user logged out successfully"
	msgInvalidCredential = "invalid credentials provided"

	errCtxHashingPassword = "hashing password"
	errCtxCreatingUser    = "creating user"
	errCtxFindingUser     = "finding user"
	errCtxVerifying       = "verifying password"
	errCtxIssuingTokens   = "issuing tokens"
	errCtxStoringToken    = "storing refresh token"
	errCtxRevokingToken   = "revoking token"
)

// Stats - счетчики обращений к обновлению токенов.
type Stats struct {
	RefreshSucceeded int64
	RefreshRejected  int64
}

// Config содержит параметры сервиса.
type Config struct {
	RefreshTokenTTL time.Duration
}

// Service реализует сценарии сервера.
type Service struct {
	repo       ports.Repository
	tokens     *TokenIssuer
	passwords  *PasswordHasher
	refreshTTL time.Duration
	now        func() time.Time

	refreshSucceeded atomic.Int64
	refreshRejected  atomic.Int64
}

// NewService создает сервис.
func NewService(repo ports.Repository, tokens *TokenIssuer, passwords *PasswordHasher, cfg Config) *Service {
	return &Service{
		repo:       repo,
		tokens:     tokens,
		passwords:  passwords,
		refreshTTL: cfg.RefreshTokenTTL,
		now:        time.Now,
	}
}

// Register создает учетную запись.
func (s *Service) Register(ctx context.Context, email, username, password string) (*domain.User, error) {
	log := logger.Log(ctx).With(zap.String("method", methodRegister))

	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.ErrInvalidEmail
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxHashingPassword, err)
	}

	user := &domain.User{Email: email, Username: username, PasswordHash: hash}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxCreatingUser, err)
	}

	log.Info(ctx, msgUserRegistered, zap.String("userID", user.ID))
	return user, nil
}

// Login проверяет учетные данные и выдает пару токенов.
func (s *Service) Login(ctx context.Context, email, password string) (domain.TokenPair, error) {
	log := logger.Log(ctx).With(zap.String("method", methodLogin))

	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			log.Debug(ctx, msgInvalidCredential)
			return domain.TokenPair{}, domain.ErrInvalidCredentials
		}
		return domain.TokenPair{}, fmt.Errorf("%s: %w", errCtxFindingUser, err)
	}

	valid, err := s.passwords.Verify(password, user.PasswordHash)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("%s: %w", errCtxVerifying, err)
	}
	if !valid {
		log.Debug(ctx, msgInvalidCredential, zap.String("userID", user.ID))
		return domain.TokenPair{}, domain.ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user.ID)
	if err != nil {
		return domain.TokenPair{}, err
	}

	log.Info(ctx, msgUserLoggedIn, zap.String("userID", user.ID))
	return pair, nil
}

// Refresh обменивает активный токен обновления на новую пару. Старый токен отзывается.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	log := logger.Log(ctx).With(zap.String("method", methodRefresh))

	stored, err := s.repo.FindRefreshToken(ctx, refreshToken)
	if err != nil || !stored.Active(s.now()) {
		s.refreshRejected.Add(1)
		log.Debug(ctx, msgRefreshRejected)
		return domain.TokenPair{}, domain.ErrInvalidRefreshToken
	}

	revoked, err := s.repo.RevokeRefreshToken(ctx, refreshToken)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("%s: %w", errCtxRevokingToken, err)
	}
	if !revoked {
		s.refreshRejected.Add(1)
		log.Debug(ctx, msgRefreshRejected)
		return domain.TokenPair{}, domain.ErrInvalidRefreshToken
	}

	pair, err := s.issuePair(ctx, stored.UserID)
	if err != nil {
		return domain.TokenPair{}, err
	}

	s.refreshSucceeded.Add(1)
	log.Info(ctx, msgTokensRefreshed, zap.String("userID", stored.UserID))
	return pair, nil
}

// Logout отзывает токен обновления.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	log := logger.Log(ctx).With(zap.String("method", methodLogout))

	revoked, err := s.repo.RevokeRefreshToken(ctx, refreshToken)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtxRevokingToken, err)
	}
	if !revoked {
		return domain.ErrInvalidRefreshToken
	}

	log.Info(ctx, msgUserLoggedOut)
	return nil
}

// Authenticate проверяет токен доступа.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (string, error) {
	return s.tokens.Validate(ctx, accessToken)
}

// ExpireAccessTokens делает недействительными все выданные токены доступа.
func (s *Service) ExpireAccessTokens() {
	s.tokens.ExpireAll()
}

// Stats возвращает счетчики обновлений.
func (s *Service) Stats() Stats {
	return Stats{
		RefreshSucceeded: s.refreshSucceeded.Load(),
		RefreshRejected:  s.refreshRejected.Load(),
	}
}

func (s *Service) issuePair(ctx context.Context, userID string) (domain.TokenPair, error) {
	access, err := s.tokens.Issue(ctx, userID)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("%s: %w", errCtxIssuingTokens, err)
	}

	refresh := domain.RefreshToken{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: s.now().Add(s.refreshTTL).UTC().Truncate(time.Microsecond),
	}
	if err := s.repo.StoreRefreshToken(ctx, refresh); err != nil {
		return domain.TokenPair{}, fmt.Errorf("%s: %w", errCtxStoringToken, err)
	}

	return domain.TokenPair{AccessToken: access, RefreshToken: refresh.Token}, nil
}

// ListNotes возвращает страницу заметок пользователя.
func (s *Service) ListNotes(ctx context.Context, userID string, page, size int) ([]domain.Note, int, error) {
	if page < 1 || size < 1 {
		return nil, 0, domain.ErrInvalidPage
	}
	return s.repo.ListNotes(ctx, userID, size, (page-1)*size)
}

// GetNote возвращает заметку пользователя.
func (s *Service) GetNote(ctx context.Context, userID, noteID string) (*domain.Note, error) {
	return s.repo.GetNote(ctx, userID, noteID)
}

// CreateNote сохраняет заметку. Идентификатор, предложенный клиентом, сохраняется;
// пустой заменяется новым UUID. Пустые метки времени заполняются текущим временем.
func (s *Service) CreateNote(ctx context.Context, note domain.Note) (*domain.Note, error) {
	if strings.TrimSpace(note.Title) == "" {
		return nil, domain.ErrEmptyTitle
	}
	if note.ID == "" {
		note.ID = uuid.NewString()
	}

	now := s.now()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	if note.LastEditedAt.IsZero() {
		note.LastEditedAt = note.CreatedAt
	}
	note.CreatedAt = normalizeTime(note.CreatedAt)
	note.LastEditedAt = normalizeTime(note.LastEditedAt)

	if err := s.repo.CreateNote(ctx, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// UpdateNote заменяет заголовок и содержимое заметки.
func (s *Service) UpdateNote(ctx context.Context, note domain.Note) (*domain.Note, error) {
	if strings.TrimSpace(note.Title) == "" {
		return nil, domain.ErrEmptyTitle
	}
	if note.LastEditedAt.IsZero() {
		note.LastEditedAt = s.now()
	}
	note.LastEditedAt = normalizeTime(note.LastEditedAt)

	if err := s.repo.UpdateNote(ctx, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// DeleteNote удаляет заметку.
func (s *Service) DeleteNote(ctx context.Context, userID, noteID string) error {
	return s.repo.DeleteNote(ctx, userID, noteID)
}

// normalizeTime приводит время к точности хранилища.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
