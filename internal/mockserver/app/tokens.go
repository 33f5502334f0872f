package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"notesync/internal/mockserver/domain"
	"notesync/pkg/logger"
)

// Константы для работы с JWT.
const (
	msgTokenGenerated = "access token generated"
	msgTokenExpired   = "access token has expired"
	msgInvalidToken   = "invalid access token"
	//nolint:gosec
	errSigningToken = "error signing token"
)

// ErrInvalidAlgorithm возвращается для токена с неожиданным алгоритмом подписи.
var ErrInvalidAlgorithm = errors.New("invalid signing algorithm")

// Claims - утверждения токена доступа. Generation позволяет разом сделать
// недействительными все выданные токены.
type Claims struct {
	UserID     string `json:"user_id"`
	Generation int64  `json:"gen"`
	jwt.RegisteredClaims
}

// TokenIssuer выдает и проверяет токены доступа HS256.
type TokenIssuer struct {
	secret     []byte
	ttl        time.Duration
	generation atomic.Int64
	now        func() time.Time
}

// NewTokenIssuer создает выпускающий сервис.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue выдает токен доступа для пользователя.
func (s *TokenIssuer) Issue(ctx context.Context, userID string) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:     userID,
		Generation: s.generation.Load(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		logger.Log(ctx).Error(ctx, errSigningToken, zap.Error(err))
		return "", fmt.Errorf("%s: %w", errSigningToken, err)
	}

	logger.Log(ctx).Debug(ctx, msgTokenGenerated, zap.String("userID", userID))
	return token, nil
}

// Validate проверяет токен и возвращает идентификатор пользователя.
func (s *TokenIssuer) Validate(ctx context.Context, tokenString string) (string, error) {
	log := logger.Log(ctx)

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAlgorithm, token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			log.Debug(ctx, msgTokenExpired)
			return "", domain.ErrExpiredAccessToken
		}
		log.Debug(ctx, msgInvalidToken, zap.Error(err))
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidAccessToken, err)
	}

	if !token.Valid || claims.UserID == "" {
		return "", domain.ErrInvalidAccessToken
	}
	if claims.Generation != s.generation.Load() {
		log.Debug(ctx, msgTokenExpired)
		return "", domain.ErrExpiredAccessToken
	}

	return claims.UserID, nil
}

// ExpireAll делает недействительными все выданные токены доступа.
func (s *TokenIssuer) ExpireAll() {
	s.generation.Add(1)
}
