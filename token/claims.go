package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/internal/utils"
)

// Claims are the access token fields the client is interested in. They are
// read without signature verification and must only drive client-side
// decisions; the server remains the authority.
type Claims struct {
	Subject   string
	Roles     []string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry that lies before now.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// ParseClaims decodes the payload of a JWT access token.
func ParseClaims(accessToken string) (*Claims, error) {
	if accessToken == "" {
		return nil, errors.ErrInvalidAccessToken
	}

	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, mapClaims); err != nil {
		return nil, fmt.Errorf("[token ParseClaims] %w: %w", errors.ErrInvalidAccessToken, err)
	}

	c := &Claims{}
	c.Subject, _ = mapClaims.GetSubject()
	switch roles := mapClaims["roles"].(type) {
	case []any:
		c.Roles = utils.ToStringSlice(roles)
	case string:
		c.Roles = []string{roles}
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}
