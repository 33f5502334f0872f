package config

import (
	"net"
	"strconv"
)

// HTTPConfig содержит настройки HTTP сервера.
type HTTPConfig struct {
	Host string `yaml:"host" env:"MOCKSERVER_HTTP_HOST" env-default:"0.0.0.0"`
	Port int    `yaml:"port" env:"MOCKSERVER_HTTP_PORT" env-default:"8080"`
}

// GetAddress возвращает адрес для прослушивания.
func (c *HTTPConfig) GetAddress() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
