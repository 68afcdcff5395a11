package config

import "github.com/spf13/viper"

// OAuthConfig switches rotation to the standard refresh_token grant when an
// issuer is configured.
type OAuthConfig interface {
	GetOAuthIssuer() string
	GetOAuthClientID() string
	GetOAuthClientSecret() string
}

type OAuth struct {
	v *viper.Viper
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetOAuthIssuer() string {
	return o.v.GetString(KeyOAuthIssuer)
}

func (o OAuth) GetOAuthClientID() string {
	return o.v.GetString(KeyOAuthClientID)
}

func (o OAuth) GetOAuthClientSecret() string {
	return o.v.GetString(KeyOAuthClientSecret)
}
