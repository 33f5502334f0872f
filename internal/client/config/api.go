package config

import (
	"strings"
	"time"
)

// APIConfig описывает удаленный REST сервис заметок.
type APIConfig struct {
	BaseURL           string        `yaml:"base_url" env:"NOTESYNC_API_BASE_URL" env-default:"http://localhost:8080"`
	RequestTimeout    time.Duration `yaml:"request_timeout" env:"NOTESYNC_API_REQUEST_TIMEOUT" env-default:"10s"`
	ClientHeaderName  string        `yaml:"client_header_name" env:"NOTESYNC_API_CLIENT_HEADER_NAME" env-default:"X-Client-Name"`
	ClientHeaderValue string        `yaml:"client_header_value" env:"NOTESYNC_API_CLIENT_HEADER_VALUE" env-default:"notesync-go"`
	RateLimit         float64       `yaml:"rate_limit" env:"NOTESYNC_API_RATE_LIMIT" env-default:"20"`
	RateBurst         int           `yaml:"rate_burst" env:"NOTESYNC_API_RATE_BURST" env-default:"10"`
}

// GetBaseURL возвращает адрес сервиса без завершающего слеша.
func (c *APIConfig) GetBaseURL() string {
	return strings.TrimRight(c.BaseURL, "/")
}
