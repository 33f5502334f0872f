// Package config содержит конфигурацию клиента заметок.
package config

import (
	"context"
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"

	"notesync/pkg/logger"
)

// Константы ошибок и сообщений для конфигурации.
const (
	LogLoadingConfig    = "Loading notes client configuration"
	LogConfigLoaded     = "Configuration loaded successfully"
	ErrFailedLoadConfig = "Failed to load configuration"
)

// Config представляет полную конфигурацию клиента.
type Config struct {
	API        APIConfig        `yaml:"api"`
	Session    SessionConfig    `yaml:"session"`
	TokenStore TokenStoreConfig `yaml:"token_store"`
	Redis      RedisConfig      `yaml:"redis"`
	Breaker    BreakerConfig    `yaml:"breaker"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// Load загружает конфигурацию из переменных окружения.
func Load(ctx context.Context) (*Config, error) {
	log := logger.Log(ctx)

	log.Info(ctx, LogLoadingConfig)

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Error(ctx, ErrFailedLoadConfig, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrFailedLoadConfig, err)
	}

	log.Info(ctx, LogConfigLoaded,
		zap.String("api_base_url", cfg.API.BaseURL),
		zap.Duration("api_request_timeout", cfg.API.RequestTimeout),
		zap.Duration("session_refresh_timeout", cfg.Session.RefreshTimeout),
		zap.String("token_store_driver", cfg.TokenStore.Driver),
		zap.String("log_level", cfg.Logging.Level),
		zap.String("log_mode", cfg.Logging.Mode))

	return &cfg, nil
}
