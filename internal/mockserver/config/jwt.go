package config

import "time"

// JWTConfig содержит настройки выдачи токенов.
type JWTConfig struct {
	SecretKey       string        `yaml:"secret_key" env:"MOCKSERVER_JWT_SECRET_KEY" env-default:"mock-server-secret-change-me"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"MOCKSERVER_JWT_ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"MOCKSERVER_JWT_REFRESH_TOKEN_TTL" env-default:"720h"`
	BCryptCost      int           `yaml:"bcrypt_cost" env:"MOCKSERVER_JWT_BCRYPT_COST" env-default:"10"`
}
