package config

import (
	"time"

	"github.com/spf13/viper"
)

type SessionConfig interface {
	GetRefreshInterval() time.Duration
	GetRefreshTimeout() time.Duration
	GetNavigationDelay() time.Duration
	GetLoginRoute() string
	GetRefreshEndpoint() string
	GetLoginEndpoint() string
}

type Session struct {
	v *viper.Viper
}

var _ SessionConfig = Session{}

func (s Session) GetRefreshInterval() time.Duration {
	if d := s.v.GetDuration(KeyRefreshInterval); d > 0 {
		return d
	}
	return DefaultRefreshInterval
}

// GetRefreshTimeout bounds a single rotation call.
func (s Session) GetRefreshTimeout() time.Duration {
	return s.v.GetDuration(KeyRefreshTimeout)
}

func (s Session) GetNavigationDelay() time.Duration {
	if d := s.v.GetDuration(KeyNavigationDelay); d >= 0 {
		return d
	}
	return DefaultNavigationDelay
}

func (s Session) GetLoginRoute() string {
	return s.v.GetString(KeyLoginRoute)
}

func (s Session) GetRefreshEndpoint() string {
	return s.v.GetString(KeyRefreshEndpoint)
}

func (s Session) GetLoginEndpoint() string {
	return s.v.GetString(KeyLoginEndpoint)
}
