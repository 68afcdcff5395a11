package oauthmodel

// TokenRequest is the body posted to the refresh endpoint to rotate the
// credential pair.
type TokenRequest struct {
	// RefreshToken is the currently persisted refresh token.
	// Example: "tGzv3JOkF0XG5Qx2TlKWIA"
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse is the success body of the refresh endpoint. Both tokens must
// be present for the rotation to count as successful.
type TokenResponse struct {
	// AccessToken replaces the stored access token.
	// Usage: Include in Authorization header: "Bearer <accessToken>"
	AccessToken string `json:"accessToken"`

	// RefreshToken replaces the stored refresh token; the previous one is
	// expected to be invalidated server-side.
	RefreshToken string `json:"refreshToken"`
}

// Complete reports whether both tokens are present.
func (r TokenResponse) Complete() bool {
	return r.AccessToken != "" && r.RefreshToken != ""
}
