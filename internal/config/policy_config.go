package config

import "github.com/spf13/viper"

type PolicyConfig interface {
	GetRestrictedRoles() []string
	GetExemptRoutes() []string
}

type Policy struct {
	v *viper.Viper
}

var _ PolicyConfig = Policy{}

func (p Policy) GetRestrictedRoles() []string {
	return p.v.GetStringSlice(KeyRestrictedRoles)
}

func (p Policy) GetExemptRoutes() []string {
	return p.v.GetStringSlice(KeyExemptRoutes)
}
