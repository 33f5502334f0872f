package config

import "time"

// SessionConfig управляет обновлением токенов.
type SessionConfig struct {
	// RefreshTimeout ограничивает общий запрос обновления, не зависящий от отмены вызывающих.
	RefreshTimeout time.Duration `yaml:"refresh_timeout" env:"NOTESYNC_SESSION_REFRESH_TIMEOUT" env-default:"10s"`
	// LogoutAttempts - число попыток удаленного выхода при сетевых ошибках.
	LogoutAttempts int `yaml:"logout_attempts" env:"NOTESYNC_SESSION_LOGOUT_ATTEMPTS" env-default:"2"`
}
