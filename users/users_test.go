package users_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/storage"
	"github.com/jrsteele09/go-erp-client/storage/repofake"
	"github.com/jrsteele09/go-erp-client/users"
	"github.com/stretchr/testify/require"
)

func TestRoleDescriptor_Unmarshal(t *testing.T) {
	var actor users.Actor
	err := json.Unmarshal([]byte(`{"roles":[
		"Admin",
		{"name":"Business Officer"},
		{"roleName":"Warehouse Manager"},
		{"id":7},
		{"role":"Clerk","name":""}
	]}`), &actor)
	require.NoError(t, err)
	require.Equal(t, []string{"Admin", "Business Officer", "Warehouse Manager", "Clerk"}, actor.RoleNames())
}

func TestRestrictedRolePolicy(t *testing.T) {
	p := users.NewRestrictedRolePolicy()

	tests := []struct {
		name     string
		roles    []users.RoleDescriptor
		expected bool
	}{
		{"no roles", nil, false},
		{"admin", users.Roles("Admin"), false},
		{"business officer exact", users.Roles("business officer"), true},
		{"case insensitive", users.Roles("BUSINESS OFFICER"), true},
		{"substring", users.Roles("Senior Warehouse Manager (North)"), true},
		{"area business manager", users.Roles("Area Business Manager"), true},
		{"or-combined", users.Roles("Admin", "warehouse manager"), true},
		{"near miss", users.Roles("business manager"), false},
		{"empty name", []users.RoleDescriptor{{}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, p.IsRestricted(tt.roles))
		})
	}

	custom := users.NewRestrictedRolePolicy(" Store Keeper ")
	require.True(t, custom.IsRestricted(users.Roles("store keeper")))
	require.False(t, custom.IsRestricted(users.Roles("business officer")))
}

func TestActorStore(t *testing.T) {
	ctx := context.Background()
	repo := repofake.NewFakeRepo()
	s := users.NewActorStore(repo)

	_, err := s.Get(ctx)
	require.ErrorIs(t, err, errors.ErrNotFound)

	require.NoError(t, s.Set(ctx, &users.Actor{
		ID:      "u-1",
		Roles:   users.Roles("Business Officer"),
		Profile: map[string]any{"phone": "555"},
	}))
	got, err := s.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "u-1", got.ID)
	require.Equal(t, []string{"Business Officer"}, got.RoleNames())
	require.Equal(t, "555", got.Profile["phone"])

	require.NoError(t, repo.Set(ctx, map[string]string{storage.KeyUser: "{not json"}))
	_, err = s.Get(ctx)
	require.ErrorIs(t, err, errors.ErrMalformedState)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Get(ctx)
	require.ErrorIs(t, err, errors.ErrNotFound)
}
