package token

import "golang.org/x/oauth2"

// Credentials is the persisted access/refresh token pair. An empty field
// means the token is absent; an empty AccessToken means logged out.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// HasAccess reports whether an access token is present.
func (c Credentials) HasAccess() bool {
	return c.AccessToken != ""
}

// HasRefresh reports whether a refresh token is present.
func (c Credentials) HasRefresh() bool {
	return c.RefreshToken != ""
}

// OAuth2 converts the pair into a bearer oauth2.Token. It returns nil when
// no access token is present.
func (c Credentials) OAuth2() *oauth2.Token {
	if !c.HasAccess() {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: c.RefreshToken,
	}
}

// FromOAuth2 builds Credentials from a token returned by a rotation.
func FromOAuth2(t *oauth2.Token) Credentials {
	if t == nil {
		return Credentials{}
	}
	return Credentials{AccessToken: t.AccessToken, RefreshToken: t.RefreshToken}
}
