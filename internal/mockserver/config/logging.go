package config

import (
	"time"

	"notesync/pkg/logger"
)

// LoggingConfig содержит настройки логирования.
type LoggingConfig struct {
	Level string `yaml:"level" env:"MOCKSERVER_LOGGER_LEVEL" env-default:"info"`
	Mode  string `yaml:"mode" env:"MOCKSERVER_LOGGER_MODE" env-default:"development"`
}

// GetEnvironment получает строку режима в logger.Environment.
func (l *LoggingConfig) GetEnvironment() logger.Environment {
	if l.Mode == "production" {
		return logger.Production
	}
	return logger.Development
}

// ShutdownConfig содержит настройки для graceful shutdown.
type ShutdownConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"MOCKSERVER_GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"5s"`
}
