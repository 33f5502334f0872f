package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// isExpired сообщает, что токен доступа является JWT и его exp уже наступил.
// Подпись не проверяется. Непрозрачные токены и токены без exp истекшими
// не считаются.
func isExpired(accessToken string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return !exp.After(now)
}
