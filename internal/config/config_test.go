package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-erp-client/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := config.FromViper(viper.New())

	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, "http://localhost:8080/api", c.GetBaseURL())
	require.Equal(t, 5*time.Minute, c.GetRefreshInterval())
	require.Equal(t, 1500*time.Millisecond, c.GetNavigationDelay())
	require.Equal(t, "/login", c.GetLoginRoute())
	require.Equal(t, "/auth/refresh", c.GetRefreshEndpoint())
	require.Equal(t, "/auth/login", c.GetLoginEndpoint())
	require.Empty(t, c.GetMetricsAddr())
	require.Equal(t, config.StorageDriverBolt, c.GetStorageDriver())
	require.NotEmpty(t, c.GetStoragePath())
	require.ElementsMatch(t, []string{"business officer", "warehouse manager", "area business manager"}, c.GetRestrictedRoles())
	require.Contains(t, c.GetExemptRoutes(), "/auth/")
	require.Empty(t, c.GetOAuthIssuer())
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	v.Set(config.KeyBaseURL, "https://erp.example.com/api/")
	v.Set(config.KeyRefreshInterval, "1m")
	v.Set(config.KeyStorageDriver, config.StorageDriverRedis)
	v.Set(config.KeyEnv, "prod")
	c := config.FromViper(v)

	require.Equal(t, "https://erp.example.com/api", c.GetBaseURL())
	require.Equal(t, time.Minute, c.GetRefreshInterval())
	require.Equal(t, config.StorageDriverRedis, c.GetStorageDriver())
	require.Equal(t, "PROD", c.GetEnv())
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("ERP_CLIENT_SESSION_LOGIN_ROUTE", "/signin")
	t.Setenv("HOME", t.TempDir())

	c, err := config.New()
	require.NoError(t, err)
	require.Equal(t, "/signin", c.GetLoginRoute())
}
