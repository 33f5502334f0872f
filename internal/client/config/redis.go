package config

import (
	"net"
	"strconv"
	"time"
)

// RedisConfig представляет конфигурацию Redis для хранилища токенов.
type RedisConfig struct {
	Host           string        `yaml:"host" env:"NOTESYNC_REDIS_HOST" env-default:"localhost"`
	Port           int           `yaml:"port" env:"NOTESYNC_REDIS_PORT" env-default:"6379"`
	Password       string        `yaml:"password" env:"NOTESYNC_REDIS_PASSWORD" env-default:""`
	DB             int           `yaml:"db" env:"NOTESYNC_REDIS_DB" env-default:"0"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"NOTESYNC_REDIS_CONNECT_TIMEOUT" env-default:"5s"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"NOTESYNC_REDIS_READ_TIMEOUT" env-default:"3s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"NOTESYNC_REDIS_WRITE_TIMEOUT" env-default:"3s"`
	PoolSize       int           `yaml:"pool_size" env:"NOTESYNC_REDIS_POOL_SIZE" env-default:"4"`
}

// GetAddress возвращает адрес Redis в формате host:port.
func (c *RedisConfig) GetAddress() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
