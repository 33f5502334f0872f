package config

// Драйверы хранилища токенов.
const (
	TokenStoreFile   = "file"
	TokenStoreRedis  = "redis"
	TokenStoreMemory = "memory"
)

// TokenStoreConfig выбирает хранилище пары токенов.
type TokenStoreConfig struct {
	Driver string `yaml:"driver" env:"NOTESYNC_TOKEN_STORE_DRIVER" env-default:"file"`
	Dir    string `yaml:"dir" env:"NOTESYNC_TOKEN_STORE_DIR" env-default:".notesync"`
}
