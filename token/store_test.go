package token_test

import (
	"context"
	"testing"

	clienterrors "github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/storage"
	"github.com/jrsteele09/go-erp-client/storage/repofake"
	"github.com/jrsteele09/go-erp-client/token"
	"github.com/stretchr/testify/require"
)

func TestStore_SetGetClear(t *testing.T) {
	ctx := context.Background()
	s := token.NewStore(repofake.NewFakeRepo())

	require.Equal(t, token.Credentials{}, s.Get(ctx))

	require.NoError(t, s.Set(ctx, "A1", "R1"))
	require.Equal(t, token.Credentials{AccessToken: "A1", RefreshToken: "R1"}, s.Get(ctx))

	require.NoError(t, s.Clear(ctx))
	require.Equal(t, token.Credentials{}, s.Get(ctx))

	// idempotent
	require.NoError(t, s.Clear(ctx))
}

func TestStore_SetAccessOnlyKeepsRefresh(t *testing.T) {
	ctx := context.Background()
	s := token.NewStore(repofake.NewFakeRepo())

	require.NoError(t, s.Set(ctx, "A1", "R1"))
	require.NoError(t, s.Set(ctx, "A2", ""))
	require.Equal(t, token.Credentials{AccessToken: "A2", RefreshToken: "R1"}, s.Get(ctx))
}

func TestStore_StorageFailureReadsAsLoggedOut(t *testing.T) {
	ctx := context.Background()
	repo := repofake.NewFakeRepo()
	s := token.NewStore(repo)
	require.NoError(t, s.Set(ctx, "A1", "R1"))

	repo.FailWith(repofake.ErrInjected)
	creds := s.Get(ctx)
	require.False(t, creds.HasAccess())
	require.False(t, creds.HasRefresh())
	err := s.Set(ctx, "A2", "R2")
	require.ErrorIs(t, err, repofake.ErrInjected)
	require.ErrorIs(t, err, clienterrors.ErrStorageUnavailable)
	require.ErrorIs(t, s.Clear(ctx), clienterrors.ErrStorageUnavailable)

	repo.FailWith(nil)
	require.Equal(t, "A1", repo.Snapshot()[storage.KeyAccessToken])
}

func TestCredentials_OAuth2(t *testing.T) {
	require.Nil(t, token.Credentials{RefreshToken: "R1"}.OAuth2())

	tok := token.Credentials{AccessToken: "A1", RefreshToken: "R1"}.OAuth2()
	require.Equal(t, "Bearer", tok.Type())
	require.Equal(t, token.Credentials{AccessToken: "A1", RefreshToken: "R1"}, token.FromOAuth2(tok))
	require.Equal(t, token.Credentials{}, token.FromOAuth2(nil))
}
