package refresh

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-erp-client/internal/errors"
	"golang.org/x/oauth2"
)

// OAuth2Rotator rotates with the standard refresh_token grant. A response
// without a new refresh token is incomplete.
type OAuth2Rotator struct {
	config *oauth2.Config
	client *http.Client
}

var _ Rotator = (*OAuth2Rotator)(nil)

// NewOAuth2Rotator builds a rotator for cfg. A nil client means the oauth2
// package default.
func NewOAuth2Rotator(cfg *oauth2.Config, client *http.Client) *OAuth2Rotator {
	return &OAuth2Rotator{config: cfg, client: client}
}

func (r *OAuth2Rotator) Rotate(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, errors.ErrNoRefreshToken
	}
	if r.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, r.client)
	}

	tok, err := r.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, fmt.Errorf("[OAuth2Rotator Rotate] %w: %s", errors.ErrRotationRejected, retrieveErr.ErrorCode)
		}
		return nil, fmt.Errorf("[OAuth2Rotator Rotate] %w", err)
	}
	// The oauth2 refresher copies the old refresh token forward when the
	// server omits one.
	if tok.AccessToken == "" || tok.RefreshToken == "" || tok.RefreshToken == refreshToken {
		return nil, fmt.Errorf("[OAuth2Rotator Rotate] %w: refresh token not rotated", errors.ErrInvalidRotationResponse)
	}
	return tok, nil
}

// DiscoverEndpoint resolves the token endpoint of an OpenID Connect issuer.
func DiscoverEndpoint(ctx context.Context, issuer string) (oauth2.Endpoint, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return oauth2.Endpoint{}, fmt.Errorf("[refresh DiscoverEndpoint] %w", err)
	}
	endpoint := provider.Endpoint()
	endpoint.AuthStyle = oauth2.AuthStyleInParams
	return endpoint, nil
}
