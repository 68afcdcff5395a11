package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	KeyEnv     = "env"
	KeyAppName = "app-name"

	KeyBaseURL     = "api.base-url"
	KeyTimeout     = "api.timeout"
	KeyMetricsAddr = "metrics.addr"

	KeyRefreshInterval  = "session.refresh-interval"
	KeyNavigationDelay  = "session.navigation-delay"
	KeyLoginRoute       = "session.login-route"
	KeyRefreshEndpoint  = "session.refresh-endpoint"
	KeyLoginEndpoint    = "session.login-endpoint"
	KeyRefreshTimeout   = "session.refresh-timeout"
	KeyStorageDriver    = "storage.driver"
	KeyStoragePath      = "storage.path"
	KeyRedisAddr        = "storage.redis-addr"
	KeyRedisDB          = "storage.redis-db"
	KeyStorageKeyPrefix = "storage.key-prefix"
	KeyEncryptionKey    = "storage.encryption-key"

	KeyRestrictedRoles = "policy.restricted-roles"
	KeyExemptRoutes    = "policy.exempt-routes"

	KeyOAuthIssuer       = "oauth.issuer"
	KeyOAuthClientID     = "oauth.client-id"
	KeyOAuthClientSecret = "oauth.client-secret"
)

// DefaultRefreshInterval is the rotation period of the background refresh cycle.
const DefaultRefreshInterval = 5 * time.Minute

// DefaultNavigationDelay is the grace period before navigating to the login
// route after the session has been invalidated.
const DefaultNavigationDelay = 1500 * time.Millisecond

// ApplyDefaults sets default configuration values in the provided Viper instance.
func ApplyDefaults(v *viper.Viper) {
	v.SetDefault(KeyEnv, "DEV")
	v.SetDefault(KeyAppName, "ERP Client")

	v.SetDefault(KeyBaseURL, "http://localhost:8080/api")
	v.SetDefault(KeyTimeout, 30*time.Second)
	v.SetDefault(KeyMetricsAddr, "")

	v.SetDefault(KeyRefreshInterval, DefaultRefreshInterval)
	v.SetDefault(KeyNavigationDelay, DefaultNavigationDelay)
	v.SetDefault(KeyLoginRoute, "/login")
	v.SetDefault(KeyRefreshEndpoint, "/auth/refresh")
	v.SetDefault(KeyLoginEndpoint, "/auth/login")
	v.SetDefault(KeyRefreshTimeout, 10*time.Second)

	v.SetDefault(KeyStorageDriver, StorageDriverBolt)
	v.SetDefault(KeyStoragePath, "") // resolved to ~/.erp-client/session.db
	v.SetDefault(KeyRedisAddr, "localhost:6379")
	v.SetDefault(KeyRedisDB, 0)
	v.SetDefault(KeyStorageKeyPrefix, "erp:")
	v.SetDefault(KeyEncryptionKey, "")

	v.SetDefault(KeyRestrictedRoles, []string{
		"business officer",
		"warehouse manager",
		"area business manager",
	})
	v.SetDefault(KeyExemptRoutes, []string{
		"/auth/",
		"/divisions/public-lookup",
		"/public/",
		"/employees/subordinates",
	})

	v.SetDefault(KeyOAuthIssuer, "")
	v.SetDefault(KeyOAuthClientID, "")
	v.SetDefault(KeyOAuthClientSecret, "")
}
