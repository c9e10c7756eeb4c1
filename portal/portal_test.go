package portal_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-card-portal/accounts"
	"github.com/jrsteele09/go-card-portal/api"
	"github.com/jrsteele09/go-card-portal/cards"
	"github.com/jrsteele09/go-card-portal/guard"
	"github.com/jrsteele09/go-card-portal/internal/config"
	"github.com/jrsteele09/go-card-portal/internal/errors"
	"github.com/jrsteele09/go-card-portal/internal/utils"
	"github.com/jrsteele09/go-card-portal/notifications"
	"github.com/jrsteele09/go-card-portal/portal"
	"github.com/jrsteele09/go-card-portal/router"
	"github.com/jrsteele09/go-card-portal/server"
	"github.com/jrsteele09/go-card-portal/storage"
	"github.com/jrsteele09/go-card-portal/users"
	fakeuserrepo "github.com/jrsteele09/go-card-portal/users/repofake"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const (
	adminEmail    = "admin@portal.test"
	adminPassword = "Admin1234"
	userEmail     = "jane@portal.test"
	userPassword  = "Password123"

	pollInterval = 20 * time.Millisecond
	waitFor      = 2 * time.Second
)

// testFixture runs the development backend behind a real HTTP listener
type testFixture struct {
	cfg     config.Config
	backend *httptest.Server
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("SYSTEM_ADMIN_EMAIL", adminEmail)
	t.Setenv("SYSTEM_ADMIN_PASSWORD", adminPassword)
	t.Setenv("STORAGE_BACKEND", string(config.StorageMemory))

	cfg := config.New()
	handler, err := server.New(cfg, fakeuserrepo.NewFakeUserRepo())
	require.NoError(t, err)

	f := &testFixture{cfg: cfg, backend: httptest.NewServer(handler)}
	t.Cleanup(f.backend.Close)
	return f
}

// newPortal builds and starts a portal talking to the fixture's backend
func (f *testFixture) newPortal(t *testing.T, opts ...portal.Option) *portal.Portal {
	t.Helper()
	opts = append([]portal.Option{
		portal.WithBaseURL(f.backend.URL),
		portal.WithHTTPClient(f.backend.Client()),
		portal.WithPollerOptions(notifications.WithInterval(pollInterval)),
	}, opts...)

	p, err := portal.New(f.cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, p.Close()) })
	require.NoError(t, p.Start(context.Background()))
	return p
}

func (f *testFixture) adminPortal(t *testing.T) *portal.Portal {
	t.Helper()
	p := f.newPortal(t)
	require.NoError(t, p.Login(context.Background(), adminEmail, adminPassword))
	return p
}

// createUser registers an active user account through the admin API
func (f *testFixture) createUser(t *testing.T, admin *portal.Portal, email string) *accounts.User {
	t.Helper()
	created, err := admin.Accounts.CreateUser(context.Background(), accounts.NewUser{
		Email:           email,
		Username:        email,
		FirstName:       "Jane",
		LastName:        "Doe",
		Password:        userPassword,
		PasswordConfirm: userPassword,
		UserType:        users.RoleUser,
	})
	require.NoError(t, err)
	return created
}

func newRequest() cards.NewRequest {
	return cards.NewRequest{
		CardType:         cards.TypeTravel,
		CardName:         "Holiday card",
		RequestedLimit:   utils.NewDecimal(2500),
		DateOfBirth:      utils.NewDate(1990, time.March, 4),
		IdentityDocument: "uploads/id.pdf",
		IncomeProof:      "uploads/payslip.pdf",
		Reason:           "Booking flights and hotels abroad",
	}
}

func hasCategory(list []notifications.Notification, category notifications.Category) bool {
	for _, n := range list {
		if n.Category == category {
			return true
		}
	}
	return false
}

func TestLogin_ReturnsToRequestedPage(t *testing.T) {
	f := setupTestFixture(t)
	f.createUser(t, f.adminPortal(t), userEmail)

	p := f.newPortal(t)
	require.False(t, p.Auth.IsAuthenticated())
	require.False(t, p.Poller.Running())

	outcome := p.Navigate(router.AddCardPath)
	require.Equal(t, guard.Allowed, outcome.State)
	require.Equal(t, router.LoginPath, outcome.Location.Path)
	require.Equal(t, router.AddCardPath, outcome.Location.From)

	require.NoError(t, p.Login(context.Background(), userEmail, userPassword))
	current := p.Router.Current()
	require.Equal(t, guard.Allowed, current.State)
	require.Equal(t, router.AddCardPath, current.Location.Path)
	require.True(t, p.Poller.Running())

	p.Logout(context.Background())
	require.False(t, p.Auth.IsAuthenticated())
	require.Equal(t, router.LoginPath, p.Router.Current().Location.Path)
	require.Eventually(t, func() bool { return !p.Poller.Running() }, waitFor, pollInterval)
}

func TestLogin_AdminGoesToDashboard(t *testing.T) {
	f := setupTestFixture(t)
	p := f.adminPortal(t)

	require.True(t, p.Auth.IsAdmin())
	require.Equal(t, router.AdminDashboardPath, p.Router.Current().Location.Path)

	// Public-only pages send a signed-in admin back to the dashboard
	require.Equal(t, router.AdminDashboardPath, p.Navigate(router.LoginPath).Location.Path)
	require.Equal(t, router.AccessDeniedPath, p.Navigate(router.UserDashboardPath).Location.Path)
}

func TestLogin_Failure(t *testing.T) {
	f := setupTestFixture(t)
	p := f.newPortal(t)

	err := p.Login(context.Background(), adminEmail, "Wrong1234")
	var authErr *errors.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.False(t, p.Auth.IsAuthenticated())
	require.False(t, p.Poller.Running())
}

func TestStart_RestoresPersistedSession(t *testing.T) {
	f := setupTestFixture(t)
	store := storage.NewMemoryStore()

	first, err := portal.New(f.cfg, portal.WithBaseURL(f.backend.URL), portal.WithHTTPClient(f.backend.Client()), portal.WithStore(store))
	require.NoError(t, err)
	require.NoError(t, first.Start(context.Background()))
	require.NoError(t, first.Login(context.Background(), adminEmail, adminPassword))
	require.NoError(t, first.Close())

	second := f.newPortal(t, portal.WithStore(store), portal.WithInitialPath(router.CardManagementPath))
	require.True(t, second.Auth.IsAuthenticated())
	require.True(t, second.Auth.IsAdmin())
	require.True(t, second.Poller.Running())
	require.Equal(t, router.CardManagementPath, second.Router.Current().Location.Path)

	stats, err := second.Cards.AdminStats(context.Background())
	require.NoError(t, err)
	require.Zero(t, stats.PendingRequests)
}

func TestStart_Twice(t *testing.T) {
	f := setupTestFixture(t)
	p := f.newPortal(t)
	require.Error(t, p.Start(context.Background()))
}

func TestNotifications_RequestAndApproval(t *testing.T) {
	f := setupTestFixture(t)
	admin := f.adminPortal(t)
	f.createUser(t, admin, userEmail)

	user := f.newPortal(t)
	require.NoError(t, user.Login(context.Background(), userEmail, userPassword))

	request, err := user.Cards.RequestCard(context.Background(), newRequest())
	require.NoError(t, err)
	require.Equal(t, cards.RequestPending, request.Status)

	require.Eventually(t, func() bool {
		return hasCategory(admin.Poller.Notifications(), notifications.CategoryNewRequest)
	}, waitFor, pollInterval)
	require.Positive(t, admin.Poller.UnreadCount())

	reviewed, err := admin.Cards.ReviewRequest(context.Background(), request.ID, cards.Review{Status: cards.RequestApproved})
	require.NoError(t, err)
	require.Equal(t, cards.RequestApproved, reviewed.Status)

	require.Eventually(t, func() bool {
		return hasCategory(user.Poller.Notifications(), notifications.CategoryCardApproval)
	}, waitFor, pollInterval)

	myCards, err := user.Cards.MyCards(context.Background())
	require.NoError(t, err)
	require.Len(t, myCards, 1)

	require.NoError(t, user.Poller.MarkAsRead(context.Background()))
	require.Zero(t, user.Poller.UnreadCount())
}

func TestLogin_OverExistingSessionReplacesNotifications(t *testing.T) {
	f := setupTestFixture(t)
	admin := f.adminPortal(t)
	f.createUser(t, admin, userEmail)

	requester := f.newPortal(t)
	require.NoError(t, requester.Login(context.Background(), userEmail, userPassword))
	_, err := requester.Cards.RequestCard(context.Background(), newRequest())
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return hasCategory(admin.Poller.Notifications(), notifications.CategoryNewRequest)
	}, waitFor, pollInterval)

	// The admin's portal signs in as the user without logging out first
	require.NoError(t, admin.Login(context.Background(), userEmail, userPassword))
	require.True(t, admin.Auth.IsUser())
	require.True(t, admin.Poller.Running())
	require.Never(t, func() bool {
		return hasCategory(admin.Poller.Notifications(), notifications.CategoryNewRequest)
	}, 5*pollInterval, pollInterval)
}

func TestGateway_RevokedTokenEndsSession(t *testing.T) {
	f := setupTestFixture(t)
	f.createUser(t, f.adminPortal(t), userEmail)

	p := f.newPortal(t)
	require.NoError(t, p.Login(context.Background(), userEmail, userPassword))

	// Revoke on the backend only; the local session still holds the token
	require.True(t, p.Gateway.Post(context.Background(), api.LogoutPath, nil).OK)

	_, err := p.Cards.MyCards(context.Background())
	require.ErrorIs(t, err, errors.ErrSessionExpired)
	require.False(t, p.Auth.IsAuthenticated())
	require.Equal(t, router.LoginPath, p.Router.Current().Location.Path)
	require.Eventually(t, func() bool { return !p.Poller.Running() }, waitFor, pollInterval)
}

func TestGateway_ForbiddenShowsAccessDenied(t *testing.T) {
	f := setupTestFixture(t)
	f.createUser(t, f.adminPortal(t), userEmail)

	p := f.newPortal(t)
	require.NoError(t, p.Login(context.Background(), userEmail, userPassword))

	_, err := p.Cards.AdminRequests(context.Background())
	require.ErrorIs(t, err, errors.ErrPermissionDenied)
	require.True(t, p.Auth.IsAuthenticated())

	current := p.Router.Current()
	require.Equal(t, router.AccessDeniedPath, current.Location.Path)
	require.Equal(t, guard.Allowed, current.State)
}

func TestViews(t *testing.T) {
	f := setupTestFixture(t)
	f.createUser(t, f.adminPortal(t), userEmail)

	var visits []router.Visit
	p := f.newPortal(t, portal.WithView(router.CardDetailsPath, func(v router.Visit) {
		visits = append(visits, v)
	}))

	// Signed out, the view never runs
	p.Navigate("/card-details/7")
	require.Empty(t, visits)

	require.NoError(t, p.Login(context.Background(), userEmail, userPassword))
	require.Len(t, visits, 1)
	require.Equal(t, "7", visits[0].Params["cardId"])
}

func TestNew_UnknownViewPattern(t *testing.T) {
	f := setupTestFixture(t)
	_, err := portal.New(f.cfg, portal.WithStore(storage.NewMemoryStore()), portal.WithView("/nowhere", func(router.Visit) {}))
	require.Error(t, err)
}

func TestPoller_NoGoroutinesLeft(t *testing.T) {
	// Registered first so it runs after every other cleanup
	t.Cleanup(func() { goleak.VerifyNone(t) })

	f := setupTestFixture(t)
	p := f.adminPortal(t)
	require.True(t, p.Poller.Running())

	p.Logout(context.Background())
	require.Eventually(t, func() bool { return !p.Poller.Running() }, waitFor, pollInterval)

	require.NoError(t, p.Login(context.Background(), adminEmail, adminPassword))
	require.True(t, p.Poller.Running())
}

func TestWithoutPolling(t *testing.T) {
	f := setupTestFixture(t)
	p := f.newPortal(t, portal.WithoutPolling())

	require.NoError(t, p.Login(context.Background(), adminEmail, adminPassword))
	require.False(t, p.Poller.Running())

	require.NoError(t, p.Poller.Start(context.Background()))
	require.True(t, p.Poller.Running())
}
