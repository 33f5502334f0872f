// Package entities содержит сущности клиента заметок.
package entities

// TokenPair представляет пару токенов текущей сессии.
// Значение неизменяемо и заменяется целиком при входе и обновлении.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// IsZero сообщает, что пара не содержит токена доступа.
func (p TokenPair) IsZero() bool {
	return p.AccessToken == ""
}

// HasRefreshToken сообщает, можно ли обновить пару.
func (p TokenPair) HasRefreshToken() bool {
	return p.RefreshToken != ""
}
