package refresh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/oauthmodel"
	"github.com/jrsteele09/go-erp-client/token"
	"golang.org/x/oauth2"
)

// Rotator exchanges a refresh token for a new credential pair.
type Rotator interface {
	Rotate(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// HTTPRotator rotates through the ERP refresh endpoint: it posts
// {"refreshToken": ...} and expects {"accessToken": ..., "refreshToken": ...}.
// Any other shape or a non-2xx status is a rotation failure.
type HTTPRotator struct {
	endpoint string
	client   *http.Client
}

var _ Rotator = (*HTTPRotator)(nil)

// NewHTTPRotator builds a rotator posting to endpoint. A nil client means
// http.DefaultClient. The client must not carry the session RoundTripper.
func NewHTTPRotator(endpoint string, client *http.Client) *HTTPRotator {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPRotator{endpoint: endpoint, client: client}
}

func (r *HTTPRotator) Rotate(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, errors.ErrNoRefreshToken
	}

	body, err := json.Marshal(oauthmodel.TokenRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, fmt.Errorf("[HTTPRotator Rotate] %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("[HTTPRotator Rotate] %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[HTTPRotator Rotate] %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("[HTTPRotator Rotate] reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var payload oauthmodel.ErrorPayload
		_ = json.Unmarshal(raw, &payload)
		return nil, fmt.Errorf("[HTTPRotator Rotate] %w: status %d %s", errors.ErrRotationRejected, resp.StatusCode, payload.Message)
	}

	var tr oauthmodel.TokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return nil, fmt.Errorf("[HTTPRotator Rotate] %w: %w", errors.ErrInvalidRotationResponse, err)
	}
	if !tr.Complete() {
		return nil, fmt.Errorf("[HTTPRotator Rotate] %w: both tokens are required", errors.ErrInvalidRotationResponse)
	}

	tok := &oauth2.Token{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    "Bearer",
	}
	if claims, err := token.ParseClaims(tr.AccessToken); err == nil {
		tok.Expiry = claims.ExpiresAt
	}
	return tok, nil
}
