package auth_test

import (
	"testing"

	"github.com/jrsteele09/go-card-portal/auth"
	"github.com/jrsteele09/go-card-portal/sessions"
	"github.com/jrsteele09/go-card-portal/users"
	"github.com/stretchr/testify/require"
)

func session(identity *users.Identity) sessions.Session {
	return sessions.Session{Token: "t", Identity: identity}
}

func TestRolesPartitionAuthenticatedSessions(t *testing.T) {
	tests := []struct {
		name     string
		identity *users.Identity
		admin    bool
	}{
		{name: "admin", identity: &users.Identity{ID: 1, UserType: users.RoleAdmin}, admin: true},
		{name: "user", identity: &users.Identity{ID: 2, UserType: users.RoleUser}, admin: false},
		{name: "superuser with user type", identity: &users.Identity{ID: 3, UserType: users.RoleUser, IsSuperuser: true}, admin: true},
		{name: "empty user type", identity: &users.Identity{ID: 4}, admin: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := session(tt.identity)
			require.True(t, auth.IsAuthenticated(s))
			require.Equal(t, tt.admin, auth.IsAdmin(s))
			require.Equal(t, !tt.admin, auth.IsUser(s))
		})
	}
}

func TestIsAuthenticated_RequiresBothHalves(t *testing.T) {
	require.False(t, auth.IsAuthenticated(sessions.Session{Identity: &users.Identity{ID: 1, UserType: users.RoleAdmin}}))
	require.False(t, auth.IsAuthenticated(sessions.Session{Token: "abc"}))
	require.False(t, auth.IsAuthenticated(sessions.Session{}))

	// Predicates follow suit
	noToken := sessions.Session{Identity: &users.Identity{ID: 1, UserType: users.RoleAdmin}}
	require.False(t, auth.IsAdmin(noToken))
	require.False(t, auth.IsUser(noToken))
	require.False(t, auth.HasPermission(noToken, auth.CapCardRequest))
}

func TestHasPermission(t *testing.T) {
	admin := session(&users.Identity{ID: 1, UserType: users.RoleAdmin})
	user := session(&users.Identity{ID: 2, UserType: users.RoleUser})
	anonymous := sessions.Session{}

	tests := []struct {
		capability auth.Capability
		admin      bool
		user       bool
	}{
		{capability: auth.CapAdmin, admin: true, user: false},
		{capability: auth.CapUser, admin: false, user: true},
		{capability: auth.CapCardManagement, admin: true, user: false},
		{capability: auth.CapCardRequest, admin: true, user: true},
		{capability: auth.CapUserDashboard, admin: false, user: true},
		{capability: auth.CapAdminDashboard, admin: true, user: false},
		{capability: "card_managment", admin: false, user: false},
		{capability: "", admin: false, user: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.capability), func(t *testing.T) {
			require.Equal(t, tt.admin, auth.HasPermission(admin, tt.capability))
			require.Equal(t, tt.user, auth.HasPermission(user, tt.capability))
			require.False(t, auth.HasPermission(anonymous, tt.capability))
		})
	}
}

func TestCardManagementIffAdmin(t *testing.T) {
	for _, s := range []sessions.Session{
		{},
		session(&users.Identity{ID: 1, UserType: users.RoleAdmin}),
		session(&users.Identity{ID: 2, UserType: users.RoleUser}),
		session(&users.Identity{ID: 3, IsSuperuser: true}),
	} {
		require.Equal(t, auth.IsAdmin(s), auth.HasPermission(s, auth.CapCardManagement))
	}
}

func TestCapabilities_AllRecognised(t *testing.T) {
	admin := session(&users.Identity{ID: 1, UserType: users.RoleAdmin})
	user := session(&users.Identity{ID: 2, UserType: users.RoleUser})

	// Every listed capability is granted to at least one role
	for _, c := range auth.Capabilities {
		require.True(t, auth.HasPermission(admin, c) || auth.HasPermission(user, c), c)
	}
}
