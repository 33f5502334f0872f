// Package postgres содержит хранилище эталонного сервера на PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"notesync/internal/mockserver/domain"
	"notesync/internal/mockserver/ports"
	"notesync/pkg/logger"
)

// PgxPoolInterface - часть pgxpool.Pool, используемая репозиторием.
type PgxPoolInterface interface {
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
}

const uniqueViolation = "23505"

// Константы ошибок.
const (
	ErrCreateUser   = "failed to create user"
	ErrFindUser     = "failed to find user"
	ErrStoreToken   = "failed to store refresh token"
	ErrFindToken    = "failed to find refresh token"
	ErrRevokeToken  = "failed to revoke refresh token"
	ErrCreateNote   = "failed to create note"
	ErrGetNote      = "failed to get note"
	ErrCountNotes   = "failed to count notes"
	ErrListNotes    = "failed to list notes"
	ErrScanNote     = "failed to scan note"
	ErrIterateNotes = "error iterating rows"
	ErrUpdateNote   = "failed to update note"
	ErrDeleteNote   = "failed to delete note"
)

// Repository реализует ports.Repository.
type Repository struct {
	pool PgxPoolInterface
}

var _ ports.Repository = (*Repository)(nil)

// NewRepository создает репозиторий поверх пула соединений.
func NewRepository(pool PgxPoolInterface) *Repository {
	return &Repository{pool: pool}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// CreateUser сохраняет пользователя и заполняет ID и CreatedAt.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	log := logger.Log(ctx).With(zap.String("method", "Repository.CreateUser"))

	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, username, password_hash) VALUES ($1, $2, $3) RETURNING id, created_at`,
		strings.ToLower(user.Email), user.Username, user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyExists
		}
		log.Error(ctx, ErrCreateUser, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrCreateUser, err)
	}

	return nil
}

// FindUserByEmail ищет пользователя по email.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, username, password_hash, created_at FROM users WHERE email = $1`,
		strings.ToLower(email),
	).Scan(&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		logger.Log(ctx).Error(ctx, ErrFindUser, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrFindUser, err)
	}

	return &user, nil
}

// StoreRefreshToken сохраняет токен обновления.
func (r *Repository) StoreRefreshToken(ctx context.Context, token domain.RefreshToken) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO refresh_tokens (token, user_id, expires_at, is_revoked) VALUES ($1, $2, $3, $4)`,
		token.Token, token.UserID, token.ExpiresAt, token.IsRevoked,
	)
	if err != nil {
		logger.Log(ctx).Error(ctx, ErrStoreToken, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrStoreToken, err)
	}
	return nil
}

// FindRefreshToken ищет токен обновления.
func (r *Repository) FindRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	var stored domain.RefreshToken
	err := r.pool.QueryRow(ctx,
		`SELECT token, user_id, expires_at, is_revoked FROM refresh_tokens WHERE token = $1`,
		token,
	).Scan(&stored.Token, &stored.UserID, &stored.ExpiresAt, &stored.IsRevoked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvalidRefreshToken
		}
		logger.Log(ctx).Error(ctx, ErrFindToken, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrFindToken, err)
	}
	return &stored, nil
}

// RevokeRefreshToken отзывает токен, если он еще не отозван.
func (r *Repository) RevokeRefreshToken(ctx context.Context, token string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE refresh_tokens SET is_revoked = TRUE WHERE token = $1 AND is_revoked = FALSE`,
		token,
	)
	if err != nil {
		logger.Log(ctx).Error(ctx, ErrRevokeToken, zap.Error(err))
		return false, fmt.Errorf("%s: %w", ErrRevokeToken, err)
	}
	return tag.RowsAffected() == 1, nil
}

// CreateNote сохраняет заметку.
func (r *Repository) CreateNote(ctx context.Context, note *domain.Note) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO notes (id, user_id, title, content, created_at, last_edited_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		note.ID, note.UserID, note.Title, note.Content, note.CreatedAt, note.LastEditedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrNoteAlreadyExists
		}
		logger.Log(ctx).Error(ctx, ErrCreateNote, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrCreateNote, err)
	}
	return nil
}

// GetNote возвращает заметку пользователя.
func (r *Repository) GetNote(ctx context.Context, userID, noteID string) (*domain.Note, error) {
	var note domain.Note
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, title, content, created_at, last_edited_at FROM notes WHERE user_id = $1 AND id = $2`,
		userID, noteID,
	).Scan(&note.ID, &note.UserID, &note.Title, &note.Content, &note.CreatedAt, &note.LastEditedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoteNotFound
		}
		logger.Log(ctx).Error(ctx, ErrGetNote, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrGetNote, err)
	}
	return &note, nil
}

// ListNotes возвращает страницу заметок пользователя и их общее количество.
func (r *Repository) ListNotes(ctx context.Context, userID string, limit, offset int) ([]domain.Note, int, error) {
	log := logger.Log(ctx).With(zap.String("method", "Repository.ListNotes"))

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notes WHERE user_id = $1`,
		userID,
	).Scan(&total); err != nil {
		log.Error(ctx, ErrCountNotes, zap.Error(err))
		return nil, 0, fmt.Errorf("%s: %w", ErrCountNotes, err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, title, content, created_at, last_edited_at FROM notes WHERE user_id = $1 ORDER BY last_edited_at DESC, id LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		log.Error(ctx, ErrListNotes, zap.Error(err))
		return nil, 0, fmt.Errorf("%s: %w", ErrListNotes, err)
	}
	defer rows.Close()

	notes := make([]domain.Note, 0)
	for rows.Next() {
		var note domain.Note
		if err := rows.Scan(&note.ID, &note.UserID, &note.Title, &note.Content, &note.CreatedAt, &note.LastEditedAt); err != nil {
			log.Error(ctx, ErrScanNote, zap.Error(err))
			return nil, 0, fmt.Errorf("%s: %w", ErrScanNote, err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		log.Error(ctx, ErrIterateNotes, zap.Error(err))
		return nil, 0, fmt.Errorf("%s: %w", ErrIterateNotes, err)
	}

	return notes, total, nil
}

// UpdateNote заменяет заголовок, содержимое и время изменения, заполняя CreatedAt.
func (r *Repository) UpdateNote(ctx context.Context, note *domain.Note) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE notes SET title = $1, content = $2, last_edited_at = $3 WHERE user_id = $4 AND id = $5 RETURNING created_at`,
		note.Title, note.Content, note.LastEditedAt, note.UserID, note.ID,
	).Scan(&note.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNoteNotFound
		}
		logger.Log(ctx).Error(ctx, ErrUpdateNote, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrUpdateNote, err)
	}
	return nil
}

// DeleteNote удаляет заметку пользователя.
func (r *Repository) DeleteNote(ctx context.Context, userID, noteID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM notes WHERE user_id = $1 AND id = $2`,
		userID, noteID,
	)
	if err != nil {
		logger.Log(ctx).Error(ctx, ErrDeleteNote, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrDeleteNote, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}
