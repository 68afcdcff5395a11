package client_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-erp-client/client"
	"github.com/jrsteele09/go-erp-client/internal/config"
	clienterrors "github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/oauthmodel"
	"github.com/jrsteele09/go-erp-client/storage"
	"github.com/jrsteele09/go-erp-client/storage/repofake"
	"github.com/jrsteele09/go-erp-client/tenants"
	"github.com/jrsteele09/go-erp-client/token"
	"github.com/jrsteele09/go-erp-client/token/refresh"
	"github.com/jrsteele09/go-erp-client/transport"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req oauthmodel.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"Invalid credentials"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"accessToken": "A1",
			"refreshToken": "R1",
			"user": {"id": "7", "name": "Ada", "roles": [{"name": "Warehouse Manager"}], "branch": "North"}
		}`)
	})
	mux.HandleFunc("/api/stock", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer A1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"query": r.URL.RawQuery})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newConfig(baseURL string) config.Config {
	v := viper.New()
	v.Set(config.KeyBaseURL, baseURL)
	v.Set(config.KeyStorageDriver, config.StorageDriverMemory)
	return config.FromViper(v)
}

func TestClient_AuthenticateAndRequest(t *testing.T) {
	srv := newBackend(t)
	ctx := context.Background()

	c, err := client.New(ctx, newConfig(srv.URL+"/api"))
	require.NoError(t, err)
	defer c.Close()

	require.False(t, c.Bootstrap(ctx))

	err = c.Authenticate(ctx, "ada@example.com", "wrong")
	var apiErr *transport.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.False(t, c.IsLoggedIn())

	require.NoError(t, c.Authenticate(ctx, "ada@example.com", "secret"))
	require.True(t, c.IsLoggedIn())
	require.Equal(t, token.Credentials{AccessToken: "A1", RefreshToken: "R1"}, c.Credentials(ctx))
	require.Equal(t, refresh.Running, c.RefreshState())

	actor, err := c.Actors.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Warehouse Manager"}, actor.RoleNames())
	require.Equal(t, "North", actor.Profile["branch"])

	// restricted actor: "all" is never sent, a concrete id is
	require.NoError(t, c.Selections.Set(ctx, tenants.Selection{ID: tenants.AllDivisions, IsAllDivisions: true}))
	var got map[string]string
	require.NoError(t, c.Transports.JSON.Get(ctx, "stock", nil, &got))
	require.Equal(t, "", got["query"])

	require.NoError(t, c.Selections.Set(ctx, tenants.Selection{ID: "3"}))
	require.NoError(t, c.Transports.JSON.Get(ctx, "stock", nil, &got))
	require.Equal(t, "divisionId=3", got["query"])

	require.NoError(t, c.Logout(ctx))
	require.False(t, c.IsLoggedIn())
	require.Equal(t, refresh.Idle, c.RefreshState())
	_, err = c.Actors.Get(ctx)
	require.ErrorIs(t, err, clienterrors.ErrNotFound)

	// the unauthenticated request is rejected but the session was already gone
	err = c.Transports.JSON.Get(ctx, "stock", nil, nil)
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.SessionInvalidated)
}

func TestClient_BootstrapFromPersistedState(t *testing.T) {
	srv := newBackend(t)
	ctx := context.Background()
	repo := repofake.NewFakeRepo()
	require.NoError(t, repo.Set(ctx, map[string]string{
		storage.KeyAccessToken:  "A1",
		storage.KeyRefreshToken: "R1",
	}))

	c, err := client.New(ctx, newConfig(srv.URL+"/api"), client.WithRepo(repo))
	require.NoError(t, err)
	defer c.Close()

	require.True(t, c.Bootstrap(ctx))
	require.Equal(t, refresh.Running, c.RefreshState())
}

func TestClient_OAuthIssuer(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":         srv.URL,
			"token_endpoint": srv.URL + "/token",
			"jwks_uri":       srv.URL + "/jwks",
		})
	})

	v := viper.New()
	v.Set(config.KeyBaseURL, srv.URL+"/api")
	v.Set(config.KeyStorageDriver, config.StorageDriverMemory)
	v.Set(config.KeyOAuthIssuer, srv.URL)
	v.Set(config.KeyOAuthClientID, "erp-cli")

	c, err := client.New(context.Background(), config.FromViper(v))
	require.NoError(t, err)
	require.NoError(t, c.Close())

	v.Set(config.KeyOAuthIssuer, srv.URL+"/unknown")
	_, err = client.New(context.Background(), config.FromViper(v))
	require.Error(t, err)
}

func TestOpenRepo(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		v := viper.New()
		v.Set(config.KeyStorageDriver, config.StorageDriverMemory)
		repo, err := client.OpenRepo(ctx, config.FromViper(v))
		require.NoError(t, err)
		require.IsType(t, &repofake.FakeRepo{}, repo)
	})

	t.Run("bolt sealed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.db")
		v := viper.New()
		v.Set(config.KeyStorageDriver, config.StorageDriverBolt)
		v.Set(config.KeyStoragePath, path)
		v.Set(config.KeyEncryptionKey, "correct horse battery staple")

		repo, err := client.OpenRepo(ctx, config.FromViper(v))
		require.NoError(t, err)
		require.NoError(t, repo.Set(ctx, map[string]string{storage.KeyAccessToken: "A1"}))
		got, found, err := repo.Get(ctx, storage.KeyAccessToken)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "A1", got)
		require.NoError(t, repo.Close())
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		v := viper.New()
		v.Set(config.KeyStorageDriver, config.StorageDriverRedis)
		v.Set(config.KeyRedisAddr, mr.Addr())

		repo, err := client.OpenRepo(ctx, config.FromViper(v))
		require.NoError(t, err)
		defer repo.Close()
		require.NoError(t, repo.Set(ctx, map[string]string{storage.KeyRefreshToken: "R1"}))
		require.True(t, mr.Exists("erp:"+storage.KeyRefreshToken))
	})

	t.Run("unknown driver", func(t *testing.T) {
		v := viper.New()
		v.Set(config.KeyStorageDriver, "etcd")
		_, err := client.OpenRepo(ctx, config.FromViper(v))
		require.ErrorIs(t, err, clienterrors.ErrInvalidConfig)
	})
}
