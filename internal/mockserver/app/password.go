package app

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"notesync/internal/mockserver/domain"
)

const (
	errMsgFailedToGenerateHash = "failed to generate password hash"
	errMsgErrorComparingHash   = "error comparing password with hash"
)

// PasswordHasher хэширует пароли с помощью bcrypt.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher создает хэшер. Недопустимая стоимость заменяется стоимостью по умолчанию.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash хэширует пароль.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if len(password) < domain.MinPasswordLength {
		return "", domain.ErrInvalidPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errMsgFailedToGenerateHash, err)
	}
	return string(hashed), nil
}

// Verify проверяет соответствие пароля хэшу.
func (h *PasswordHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", errMsgErrorComparingHash, err)
	}
	return true, nil
}
