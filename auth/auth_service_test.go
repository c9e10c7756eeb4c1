package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-card-portal/auth"
	"github.com/jrsteele09/go-card-portal/internal/errors"
	"github.com/jrsteele09/go-card-portal/internal/utils"
	"github.com/jrsteele09/go-card-portal/sessions"
	"github.com/jrsteele09/go-card-portal/storage"
	fakestore "github.com/jrsteele09/go-card-portal/storage/repofake"
	"github.com/jrsteele09/go-card-portal/users"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "jane.doe@example.com"
	testPassword = "Password123"
	testToken    = "9944b09199c62bcf9418ad846dd0e4bbdfc6ee4b"
)

// fakeAuthenticator answers logins from a fixed table of accounts
type fakeAuthenticator struct {
	lock     sync.Mutex
	accounts map[string]fakeAccount
	calls    int
	block    chan struct{} // when set, Authenticate waits for it to close
	err      error         // when set, returned for every call
}

type fakeAccount struct {
	password string
	token    string
	identity *users.Identity
}

func (fa *fakeAuthenticator) Authenticate(ctx context.Context, email, password string) (string, *users.Identity, error) {
	fa.lock.Lock()
	fa.calls++
	block := fa.block
	fa.lock.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", nil, ctx.Err()
		}
	}
	if fa.err != nil {
		return "", nil, fa.err
	}

	acc, ok := fa.accounts[email]
	if !ok || acc.password != password {
		return "", nil, &errors.AuthenticationError{Status: 400, Message: "Invalid credentials"}
	}
	return acc.token, acc.identity.Clone(), nil
}

type recordingNavigator struct {
	lock  sync.Mutex
	paths []string
}

func (rn *recordingNavigator) Navigate(path string) {
	rn.lock.Lock()
	defer rn.lock.Unlock()
	rn.paths = append(rn.paths, path)
}

func (rn *recordingNavigator) visited() []string {
	rn.lock.Lock()
	defer rn.lock.Unlock()
	return append([]string(nil), rn.paths...)
}

// testFixture holds all test dependencies
type testFixture struct {
	kv            storage.Store
	store         *sessions.Store
	authenticator *fakeAuthenticator
	navigator     *recordingNavigator
	service       *auth.Service
}

func userIdentity() *users.Identity {
	return &users.Identity{
		ID:           12,
		Email:        testEmail,
		Username:     "jane",
		FirstName:    "Jane",
		LastName:     "Doe",
		UserType:     users.RoleUser,
		Status:       users.StatusActive,
		TotalCards:   2,
		TotalBalance: utils.MustDecimal("1500.25"),
	}
}

func adminIdentity() *users.Identity {
	return &users.Identity{ID: 1, Email: "admin@example.com", UserType: users.RoleAdmin, Status: users.StatusActive}
}

// setupTestFixture creates a service over kv, or over a fresh fake store when kv is nil
func setupTestFixture(t *testing.T, kv storage.Store) *testFixture {
	t.Helper()

	if kv == nil {
		kv = fakestore.NewFakeStore()
	}
	store := sessions.NewStore(kv)
	fa := &fakeAuthenticator{accounts: map[string]fakeAccount{
		testEmail:           {password: testPassword, token: testToken, identity: userIdentity()},
		"admin@example.com": {password: "Admin1234", token: "admintoken", identity: adminIdentity()},
	}}
	nav := &recordingNavigator{}

	service, err := auth.NewService(store, fa, auth.WithNavigator(nav, "/login"))
	require.NoError(t, err)

	return &testFixture{kv: kv, store: store, authenticator: fa, navigator: nav, service: service}
}

func TestNewService_RequiresDependencies(t *testing.T) {
	_, err := auth.NewService(nil, &fakeAuthenticator{})
	require.Error(t, err)

	_, err = auth.NewService(sessions.NewStore(fakestore.NewFakeStore()), nil)
	require.Error(t, err)
}

func TestRestoreSession(t *testing.T) {
	t.Run("starts loading until restored", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		require.True(t, f.service.Loading())
		require.False(t, f.service.IsAuthenticated())

		f.service.RestoreSession()
		require.False(t, f.service.Loading())
		require.False(t, f.service.IsAuthenticated())
	})

	t.Run("restores a persisted pair", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		require.NoError(t, f.store.Save(testToken, userIdentity()))

		f.service.RestoreSession()
		require.True(t, f.service.IsAuthenticated())
		require.Equal(t, testToken, f.service.Token())
		require.Equal(t, userIdentity(), f.service.Identity())
	})

	t.Run("token without user fails closed and clears storage", func(t *testing.T) {
		kv := fakestore.NewFakeStore()
		kv.Seed(map[string]string{sessions.TokenKey: "abc"})
		f := setupTestFixture(t, kv)

		f.service.RestoreSession()
		require.False(t, f.service.IsAuthenticated())
		require.False(t, f.service.Loading())
		require.Empty(t, f.service.Token())
		require.Nil(t, f.service.Identity())
		require.Equal(t, 0, kv.Len())
	})

	t.Run("null user fails closed", func(t *testing.T) {
		kv := fakestore.NewFakeStore()
		kv.Seed(map[string]string{sessions.TokenKey: "abc", sessions.UserKey: "null"})
		f := setupTestFixture(t, kv)

		f.service.RestoreSession()
		require.False(t, f.service.IsAuthenticated())
		require.False(t, f.service.IsUser())
		require.False(t, f.service.IsAdmin())
		require.Nil(t, f.service.Identity())
		require.Equal(t, 0, kv.Len())
	})

	t.Run("corrupt user fails closed", func(t *testing.T) {
		kv := fakestore.NewFakeStore()
		kv.Seed(map[string]string{sessions.TokenKey: "abc", sessions.UserKey: "{not json"})
		f := setupTestFixture(t, kv)

		f.service.RestoreSession()
		require.False(t, f.service.IsAuthenticated())
		require.Equal(t, 0, kv.Len())
	})
}

func TestLogin(t *testing.T) {
	t.Run("success persists and publishes the session", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.service.RestoreSession()

		require.NoError(t, f.service.Login(context.Background(), testEmail, testPassword))
		require.True(t, f.service.IsAuthenticated())
		require.True(t, f.service.IsUser())
		require.False(t, f.service.IsAdmin())

		persisted, err := f.store.Load()
		require.NoError(t, err)
		require.Equal(t, testToken, persisted.Token)
		require.Equal(t, userIdentity(), persisted.Identity)
	})

	t.Run("rejected credentials leave the session empty", func(t *testing.T) {
		kv := fakestore.NewFakeStore()
		f := setupTestFixture(t, kv)
		f.service.RestoreSession()

		err := f.service.Login(context.Background(), "a@x.com", "secret")
		require.Error(t, err)

		var authErr *errors.AuthenticationError
		require.True(t, errors.As(err, &authErr))
		require.Equal(t, "Invalid credentials", authErr.Error())

		require.False(t, f.service.IsAuthenticated())
		require.Equal(t, 0, kv.Len())
	})

	t.Run("failure keeps an existing session", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.service.RestoreSession()
		require.NoError(t, f.service.Login(context.Background(), testEmail, testPassword))

		err := f.service.Login(context.Background(), testEmail, "wrong")
		require.Error(t, err)
		require.Equal(t, testToken, f.service.Token())
	})

	t.Run("network failure is wrapped", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.authenticator.err = errors.Wrapf(errors.ErrNetwork, "dial tcp")

		err := f.service.Login(context.Background(), testEmail, testPassword)
		require.True(t, errors.Is(err, errors.ErrNetwork))
		require.False(t, f.service.IsAuthenticated())
	})

	t.Run("invalid input never reaches the backend", func(t *testing.T) {
		f := setupTestFixture(t, nil)

		err := f.service.Login(context.Background(), "not-an-email", "")
		require.True(t, errors.Is(err, errors.ErrInvalidInput))
		require.Equal(t, 0, f.authenticator.calls)
	})

	t.Run("storage failure leaves the session untouched", func(t *testing.T) {
		kv := fakestore.NewFakeStore()
		kv.FailWrites = errors.New("disk full")
		f := setupTestFixture(t, kv)

		err := f.service.Login(context.Background(), testEmail, testPassword)
		require.Error(t, err)
		require.False(t, f.service.IsAuthenticated())
	})

	t.Run("second login while one is in flight is rejected", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.authenticator.block = make(chan struct{})

		done := make(chan error, 1)
		go func() {
			done <- f.service.Login(context.Background(), testEmail, testPassword)
		}()

		require.Eventually(t, func() bool {
			f.authenticator.lock.Lock()
			defer f.authenticator.lock.Unlock()
			return f.authenticator.calls == 1
		}, time.Second, 5*time.Millisecond)

		err := f.service.Login(context.Background(), testEmail, testPassword)
		require.True(t, errors.Is(err, errors.ErrLoginInProgress))

		close(f.authenticator.block)
		require.NoError(t, <-done)
		require.True(t, f.service.IsAuthenticated())
	})
}

func TestLoginThenRestore_RoundTrip(t *testing.T) {
	kv := fakestore.NewFakeStore()
	f := setupTestFixture(t, kv)
	f.service.RestoreSession()
	require.NoError(t, f.service.Login(context.Background(), testEmail, testPassword))

	// A new service over the same storage simulates a restart
	reloaded := setupTestFixture(t, kv)
	reloaded.service.RestoreSession()

	require.Equal(t, f.service.Token(), reloaded.service.Token())
	require.Equal(t, f.service.Identity(), reloaded.service.Identity())
}

func TestLogout(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.service.RestoreSession()
	require.NoError(t, f.service.Login(context.Background(), testEmail, testPassword))

	f.service.Logout()
	first := f.service.Session()
	f.service.Logout()
	second := f.service.Session()

	require.Equal(t, first, second)
	require.False(t, second.IsAuthenticated())
	require.False(t, second.Loading)
	require.Equal(t, []string{"/login", "/login"}, f.navigator.visited())

	persisted, err := f.store.Load()
	require.NoError(t, err)
	require.False(t, persisted.IsAuthenticated())
}

func TestUpdateIdentity(t *testing.T) {
	t.Run("replaces the identity and keeps the token", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		require.NoError(t, f.service.Login(context.Background(), testEmail, testPassword))

		updated := userIdentity()
		updated.PhoneNumber = "+44 7700 900000"
		require.NoError(t, f.service.UpdateIdentity(updated))

		require.Equal(t, testToken, f.service.Token())
		require.Equal(t, "+44 7700 900000", f.service.Identity().PhoneNumber)

		persisted, err := f.store.Load()
		require.NoError(t, err)
		require.Equal(t, "+44 7700 900000", persisted.Identity.PhoneNumber)
	})

	t.Run("rejected when signed out", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.service.RestoreSession()

		err := f.service.UpdateIdentity(userIdentity())
		require.True(t, errors.Is(err, errors.ErrNotAuthenticated))
		require.Nil(t, f.service.Identity())
	})
}

func TestRotateToken(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.service.RestoreSession()
	require.True(t, errors.Is(f.service.RotateToken("new"), errors.ErrNotAuthenticated))

	require.NoError(t, f.service.Login(context.Background(), testEmail, testPassword))
	require.Error(t, f.service.RotateToken(""))

	require.NoError(t, f.service.RotateToken("rotated"))
	require.Equal(t, "rotated", f.service.Token())
	require.Equal(t, testEmail, f.service.Identity().Email)

	persisted, err := f.store.Load()
	require.NoError(t, err)
	require.Equal(t, "rotated", persisted.Token)
	require.Equal(t, 12, persisted.Identity.ID)
}

func TestIdentity_ReturnsACopy(t *testing.T) {
	f := setupTestFixture(t, nil)
	require.NoError(t, f.service.Login(context.Background(), testEmail, testPassword))

	f.service.Identity().Email = "mutated@example.com"
	require.Equal(t, testEmail, f.service.Identity().Email)
}

func TestSubscribe(t *testing.T) {
	f := setupTestFixture(t, nil)

	var seen []sessions.Session
	unsubscribe := f.service.Subscribe(func(s sessions.Session) {
		seen = append(seen, s)
	})

	f.service.RestoreSession()
	require.NoError(t, f.service.Login(context.Background(), testEmail, testPassword))
	f.service.Logout()

	require.Len(t, seen, 3)
	require.False(t, seen[0].IsAuthenticated())
	require.False(t, seen[0].Loading)
	require.True(t, seen[1].IsAuthenticated())
	require.False(t, seen[2].IsAuthenticated())

	unsubscribe()
	require.NoError(t, f.service.Login(context.Background(), testEmail, testPassword))
	require.Len(t, seen, 3)
}

func TestListenerMayCallBack(t *testing.T) {
	f := setupTestFixture(t, nil)

	var authenticated bool
	f.service.Subscribe(func(sessions.Session) {
		authenticated = f.service.IsAuthenticated()
	})

	require.NoError(t, f.service.Login(context.Background(), testEmail, testPassword))
	require.True(t, authenticated)
}
