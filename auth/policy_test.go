package auth_test

import (
	"testing"

	"github.com/jrsteele09/go-erp-client/auth"
	"github.com/stretchr/testify/require"
)

func TestRequestPolicy_DefaultExemptions(t *testing.T) {
	p := auth.NewRequestPolicy()

	exempt := []string{
		"http://erp.local/api/auth/login",
		"http://erp.local/api/auth/refresh",
		"http://erp.local/api/divisions/public-lookup?code=7",
		"http://erp.local/api/public/branding",
		"http://erp.local/api/employees/subordinates",
	}
	for _, u := range exempt {
		require.True(t, p.IsExempt(u), u)
	}

	scoped := []string{
		"http://erp.local/api/sales",
		"http://erp.local/api/divisions",
		"http://erp.local/api/employees",
	}
	for _, u := range scoped {
		require.False(t, p.IsExempt(u), u)
	}
}

func TestRequestPolicy_Custom(t *testing.T) {
	p := auth.NewRequestPolicy("/health", "  ")
	require.True(t, p.IsExempt("http://erp.local/health"))
	require.False(t, p.IsExempt("http://erp.local/api/auth/login"))
	require.Equal(t, []string{"/health"}, p.ExemptRoutes())
}
