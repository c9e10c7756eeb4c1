package token_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jrsteele09/go-card-portal/token"
	"github.com/jrsteele09/go-card-portal/users"
	"github.com/stretchr/testify/require"
)

// testFixture holds all test dependencies
type testFixture struct {
	now     time.Time
	revoked *token.InMemoryRevokedTokenCache
	manager *token.Manager
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{
		now:     time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		revoked: token.NewInMemoryRevokedTokenCache(),
	}
	f.manager = token.NewManager(
		token.NewHMACSigner("test-secret"),
		token.WithLifetime(time.Hour),
		token.WithRevokedCache(f.revoked),
		token.WithNowFunc(func() time.Time { return f.now }),
	)
	return f
}

func TestIssueAndVerify(t *testing.T) {
	f := setupTestFixture(t)

	raw, err := f.manager.Issue(&users.Identity{ID: 42, UserType: users.RoleAdmin, IsSuperuser: true})
	require.NoError(t, err)

	claims, err := f.manager.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, 42, claims.UserID)
	require.Equal(t, users.RoleAdmin, claims.UserType)
	require.True(t, claims.IsSuperuser)
	require.NotEmpty(t, claims.ID)
	require.Equal(t, f.now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestIssue_UniqueTokens(t *testing.T) {
	f := setupTestFixture(t)
	identity := &users.Identity{ID: 1, UserType: users.RoleUser}

	first, err := f.manager.Issue(identity)
	require.NoError(t, err)
	second, err := f.manager.Issue(identity)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestVerify_Rejects(t *testing.T) {
	f := setupTestFixture(t)
	raw, err := f.manager.Issue(&users.Identity{ID: 7, UserType: users.RoleUser})
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		f.now = f.now.Add(2 * time.Hour)
		defer func() { f.now = f.now.Add(-2 * time.Hour) }()

		_, err := f.manager.Verify(raw)
		require.True(t, errors.Is(err, token.ErrInvalidToken))
	})

	t.Run("other secret", func(t *testing.T) {
		other := token.NewManager(token.NewHMACSigner("another-secret"), token.WithNowFunc(func() time.Time { return f.now }))
		_, err := other.Verify(raw)
		require.True(t, errors.Is(err, token.ErrInvalidToken))
	})

	t.Run("other issuer", func(t *testing.T) {
		other := token.NewManager(token.NewHMACSigner("test-secret"), token.WithIssuer("elsewhere"), token.WithNowFunc(func() time.Time { return f.now }))
		_, err := other.Verify(raw)
		require.True(t, errors.Is(err, token.ErrInvalidToken))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := f.manager.Verify("9944b09199c62bcf9418ad846dd0e4bbdfc6ee4b")
		require.True(t, errors.Is(err, token.ErrInvalidToken))
	})
}

func TestRevoke(t *testing.T) {
	f := setupTestFixture(t)
	raw, err := f.manager.Issue(&users.Identity{ID: 7, UserType: users.RoleUser})
	require.NoError(t, err)

	f.manager.Revoke(raw)
	_, err = f.manager.Verify(raw)
	require.True(t, errors.Is(err, token.ErrRevokedToken))
	require.Equal(t, 1, f.revoked.Len())

	// Revoking garbage is a no-op
	f.manager.Revoke("not-a-token")
	require.Equal(t, 1, f.revoked.Len())
}

func TestRevokedCache_Cleanup(t *testing.T) {
	cache := token.NewInMemoryRevokedTokenCache()
	now := time.Now()
	cache.Add("old", now.Add(-time.Minute))
	cache.Add("live", now.Add(time.Minute))

	cache.Cleanup(now)
	require.False(t, cache.IsRevoked("old"))
	require.True(t, cache.IsRevoked("live"))
}
