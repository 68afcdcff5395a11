package token_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/token"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := signed(t, jwt.MapClaims{
		"sub":    "user-1",
		"roles":  []string{"Warehouse Manager", "viewer"},
		"exp":    exp.Unix(),
	})

	c, err := token.ParseClaims(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", c.Subject)
	require.Equal(t, []string{"Warehouse Manager", "viewer"}, c.Roles)
	require.True(t, c.ExpiresAt.Equal(exp))
	require.False(t, c.Expired(time.Now()))
	require.True(t, c.Expired(exp.Add(time.Second)))
}

func TestParseClaims_Invalid(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := token.ParseClaims("")
		require.ErrorIs(t, err, errors.ErrInvalidAccessToken)
	})

	t.Run("opaque token", func(t *testing.T) {
		_, err := token.ParseClaims("not-a-jwt")
		require.ErrorIs(t, err, errors.ErrInvalidAccessToken)
	})

	t.Run("no expiry", func(t *testing.T) {
		c, err := token.ParseClaims(signed(t, jwt.MapClaims{"sub": "x"}))
		require.NoError(t, err)
		require.True(t, c.ExpiresAt.IsZero())
		require.False(t, c.Expired(time.Now()))
	})
}
