package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ClientConfig interface {
	GetEnv() string
	GetAppName() string
	GetBaseURL() string
	GetTimeout() time.Duration
	GetMetricsAddr() string
}

type Client struct {
	v *viper.Viper
}

var _ ClientConfig = Client{}

func (c Client) GetEnv() string {
	env := strings.ToUpper(c.v.GetString(KeyEnv))
	if env == "" {
		return "DEV"
	}
	return env
}

func (c Client) GetAppName() string {
	return c.v.GetString(KeyAppName)
}

// GetBaseURL returns the ERP API root every transport resolves paths against
// (e.g., "https://erp.example.com/api"), without a trailing slash.
func (c Client) GetBaseURL() string {
	return strings.TrimRight(c.v.GetString(KeyBaseURL), "/")
}

func (c Client) GetTimeout() time.Duration {
	return c.v.GetDuration(KeyTimeout)
}

// GetMetricsAddr is the listen address of the Prometheus endpoint served by
// long-running commands. Empty disables it.
func (c Client) GetMetricsAddr() string {
	return c.v.GetString(KeyMetricsAddr)
}
