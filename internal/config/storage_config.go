package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	StorageDriverMemory = "memory"
	StorageDriverBolt   = "bolt"
	StorageDriverRedis  = "redis"
)

type StorageConfig interface {
	GetStorageDriver() string
	GetStoragePath() string
	GetRedisAddr() string
	GetRedisDB() int
	GetStorageKeyPrefix() string
	GetEncryptionKey() string
}

type Storage struct {
	v *viper.Viper
}

var _ StorageConfig = Storage{}

func (s Storage) GetStorageDriver() string {
	return s.v.GetString(KeyStorageDriver)
}

// GetStoragePath returns the bbolt file path, defaulting to
// ~/.erp-client/session.db (or ./session.db without a home directory).
func (s Storage) GetStoragePath() string {
	if p := s.v.GetString(KeyStoragePath); p != "" {
		return p
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "session.db"
	}
	return filepath.Join(homeDir, configDirName, "session.db")
}

func (s Storage) GetRedisAddr() string {
	return s.v.GetString(KeyRedisAddr)
}

func (s Storage) GetRedisDB() int {
	return s.v.GetInt(KeyRedisDB)
}

func (s Storage) GetStorageKeyPrefix() string {
	return s.v.GetString(KeyStorageKeyPrefix)
}

// GetEncryptionKey returns the passphrase used to seal persisted values.
// Empty means values are stored in plaintext.
func (s Storage) GetEncryptionKey() string {
	return s.v.GetString(KeyEncryptionKey)
}
