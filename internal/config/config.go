package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix      = "ERP_CLIENT"
	configDirName  = ".erp-client"
	configFileName = "config"
)

type Config interface {
	ClientConfig
	SessionConfig
	StorageConfig
	PolicyConfig
	OAuthConfig
}

type mainConfig struct {
	Client
	Session
	Storage
	Policy
	OAuth
}

// New loads configuration from defaults, an optional config file and
// ERP_CLIENT_* environment variables, in increasing order of precedence.
func New() (Config, error) {
	v := viper.New()
	ApplyDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if homeDir, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(homeDir, configDirName))
	}
	v.AddConfigPath(".")
	v.SetConfigName(configFileName)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("[config New] failed to read config file: %w", err)
		}
	}
	return FromViper(v), nil
}

// FromViper wraps an already populated viper instance. Missing keys fall back
// to the defaults.
func FromViper(v *viper.Viper) Config {
	ApplyDefaults(v)
	return mainConfig{
		Client:  Client{v: v},
		Session: Session{v: v},
		Storage: Storage{v: v},
		Policy:  Policy{v: v},
		OAuth:   OAuth{v: v},
	}
}
