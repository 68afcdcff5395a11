package auth

import (
	"context"

	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/tenants"
	"github.com/jrsteele09/go-erp-client/token"
	"github.com/jrsteele09/go-erp-client/users"
)

// StoredTenantContext reads the actor and the division selection from
// persisted state. When no actor is stored the roles are taken from the
// access token's "roles" claim.
type StoredTenantContext struct {
	actors      *users.ActorStore
	selections  *tenants.SelectionStore
	credentials CredentialSource
}

var _ TenantContext = (*StoredTenantContext)(nil)

func NewStoredTenantContext(actors *users.ActorStore, selections *tenants.SelectionStore, credentials CredentialSource) *StoredTenantContext {
	return &StoredTenantContext{
		actors:      actors,
		selections:  selections,
		credentials: credentials,
	}
}

func (c *StoredTenantContext) Selection(ctx context.Context) (*tenants.Selection, error) {
	return c.selections.Get(ctx)
}

func (c *StoredTenantContext) Actor(ctx context.Context) (*users.Actor, error) {
	actor, err := c.actors.Get(ctx)
	if err == nil {
		return actor, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	creds := c.credentials.Get(ctx)
	if !creds.HasAccess() {
		return &users.Actor{}, nil
	}
	claims, err := token.ParseClaims(creds.AccessToken)
	if err != nil {
		// Opaque tokens carry no roles; treat the actor as unrestricted.
		return &users.Actor{}, nil
	}
	return &users.Actor{ID: claims.Subject, Roles: users.Roles(claims.Roles...)}, nil
}
