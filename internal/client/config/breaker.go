package config

import "time"

// BreakerConfig настраивает circuit breaker перед транспортом.
type BreakerConfig struct {
	ErrorThreshold   int           `yaml:"error_threshold" env:"NOTESYNC_BREAKER_ERROR_THRESHOLD" env-default:"5"`
	Timeout          time.Duration `yaml:"timeout" env:"NOTESYNC_BREAKER_TIMEOUT" env-default:"10s"`
	SuccessThreshold int           `yaml:"success_threshold" env:"NOTESYNC_BREAKER_SUCCESS_THRESHOLD" env-default:"2"`
}
