package portal

import (
	"context"
	"net/http"
	"sync"

	"github.com/jrsteele09/go-card-portal/accounts"
	"github.com/jrsteele09/go-card-portal/api"
	"github.com/jrsteele09/go-card-portal/auth"
	"github.com/jrsteele09/go-card-portal/cards"
	"github.com/jrsteele09/go-card-portal/internal/config"
	"github.com/jrsteele09/go-card-portal/notifications"
	"github.com/jrsteele09/go-card-portal/router"
	"github.com/jrsteele09/go-card-portal/sessions"
	"github.com/jrsteele09/go-card-portal/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Portal is the application context: one session, one router and the
// domain clients that share its authenticated gateway.
type Portal struct {
	Auth          *auth.Service
	Router        *router.Router
	Gateway       *api.Gateway
	Cards         *cards.Client
	Accounts      *accounts.Client
	Notifications *notifications.Client
	Poller        *notifications.Poller

	store     storage.Store
	history   *router.History
	noPolling bool

	lock        sync.Mutex
	cancel      context.CancelFunc
	unsubscribe func()
}

type options struct {
	store        storage.Store
	baseURL      string
	dataFolder   string
	httpClient   *http.Client
	views        map[string]router.View
	onResolve    func(router.Outcome)
	onNew        func([]notifications.Notification)
	pollerOpts   []notifications.PollerOption
	initialPath  string
	fallbackView router.View
	noPolling    bool
}

// Option defines a function type to modify how New builds the Portal.
type Option func(*options)

// WithStore replaces the configured storage backend. Close still closes it.
func WithStore(store storage.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithBaseURL overrides the configured backend root
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = baseURL
	}
}

// WithDataFolder overrides the folder the file and SQLite stores live in
func WithDataFolder(folder string) Option {
	return func(o *options) {
		o.dataFolder = folder
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithView attaches a view to one of the standard routes
func WithView(pattern string, view router.View) Option {
	return func(o *options) {
		o.views[pattern] = view
	}
}

// WithFallbackView is shown for paths matching no route, once the fallback guard allows it
func WithFallbackView(view router.View) Option {
	return func(o *options) {
		o.fallbackView = view
	}
}

func WithOnResolve(fn func(router.Outcome)) Option {
	return func(o *options) {
		o.onResolve = fn
	}
}

// WithOnNotifications is called from the poller with each batch of new notifications
func WithOnNotifications(fn func([]notifications.Notification)) Option {
	return func(o *options) {
		o.onNew = fn
	}
}

// WithPollerOptions passes extra options to the notification poller
func WithPollerOptions(opts ...notifications.PollerOption) Option {
	return func(o *options) {
		o.pollerOpts = append(o.pollerOpts, opts...)
	}
}

// WithoutPolling keeps the poller stopped until the caller starts it, e.g. for one-shot commands
func WithoutPolling() Option {
	return func(o *options) {
		o.noPolling = true
	}
}

// WithInitialPath sets the location the history starts at. Defaults to "/".
func WithInitialPath(path string) Option {
	return func(o *options) {
		o.initialPath = path
	}
}

// New builds every component of the portal. Nothing runs until Start.
func New(cfg config.Config, opts ...Option) (*Portal, error) {
	o := options{
		baseURL:     cfg.GetAPIBaseURL(),
		dataFolder:  cfg.GetDataFolder(),
		views:       make(map[string]router.View),
		initialPath: router.HomePath,
	}
	for _, opt := range opts {
		opt(&o)
	}

	store := o.store
	if store == nil {
		var err error
		if store, err = storage.Open(cfg.GetStorageBackend(), o.dataFolder); err != nil {
			return nil, errors.Wrap(err, "[portal.New] storage.Open")
		}
	}

	clientOpts := []api.Option{api.WithTimeout(cfg.GetRequestTimeout())}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(o.httpClient))
	}
	apiClient := api.NewClient(o.baseURL, clientOpts...)

	history := router.NewHistory(o.initialPath)
	authService, err := auth.NewService(sessions.NewStore(store), apiClient, auth.WithNavigator(history, router.LoginPath))
	if err != nil {
		_ = store.Close()
		return nil, errors.Wrap(err, "[portal.New] auth.NewService")
	}
	gateway := api.NewGateway(apiClient, authService, history, api.WithAccessDeniedPath(router.AccessDeniedPath))

	routerOpts := []router.RouterOption{}
	if o.fallbackView != nil {
		routerOpts = append(routerOpts, router.WithFallback(router.FallbackGuard, o.fallbackView))
	}
	if o.onResolve != nil {
		routerOpts = append(routerOpts, router.WithOnResolve(o.onResolve))
	}
	appRouter := router.New(history, authService, router.AppRoutes(), routerOpts...)
	for pattern, view := range o.views {
		if !appRouter.Handle(pattern, view) {
			_ = store.Close()
			return nil, errors.Errorf("[portal.New] no route for view %q", pattern)
		}
	}

	notificationClient := notifications.NewClient(gateway)
	pollerOpts := []notifications.PollerOption{
		notifications.WithInterval(cfg.GetNotificationPollInterval()),
		notifications.WithRecentLimit(cfg.GetRecentNotificationLimit()),
	}
	if o.onNew != nil {
		pollerOpts = append(pollerOpts, notifications.WithOnNew(o.onNew))
	}
	pollerOpts = append(pollerOpts, o.pollerOpts...)

	return &Portal{
		Auth:          authService,
		Router:        appRouter,
		Gateway:       gateway,
		Cards:         cards.NewClient(gateway),
		Accounts:      accounts.NewClient(gateway, authService),
		Notifications: notificationClient,
		Poller:        notifications.NewPoller(notificationClient, authService, pollerOpts...),
		store:         store,
		history:       history,
		noPolling:     o.noPolling,
	}, nil
}

// Start restores the persisted session, starts routing and, while signed in,
// keeps the notification poller running. The poller stops on its own when the
// session ends and is started again by the next login.
func (p *Portal) Start(ctx context.Context) error {
	p.lock.Lock()
	if p.cancel != nil {
		p.lock.Unlock()
		return errors.New("[Portal.Start] already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	if !p.noPolling {
		p.unsubscribe = p.Auth.Subscribe(func(s sessions.Session) {
			if s.IsAuthenticated() {
				p.startPoller(runCtx)
			}
		})
	}
	p.lock.Unlock()

	p.Auth.RestoreSession()
	p.Router.Start()
	return nil
}

func (p *Portal) startPoller(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := p.Poller.Start(ctx); err != nil {
		log.Debug().Err(err).Msg("notification poller not started")
	}
}

// Login signs in and moves to the page the user was sent away from, or to their dashboard
func (p *Portal) Login(ctx context.Context, email, password string) error {
	if err := p.Auth.Login(ctx, email, password); err != nil {
		return err
	}
	p.Router.AfterLogin()
	return nil
}

// Logout asks the backend to revoke the token, then ends the session locally
// whatever the reply. The poller winds down with the session.
func (p *Portal) Logout(ctx context.Context) {
	if p.Auth.IsAuthenticated() {
		if result := p.Gateway.Post(ctx, api.LogoutPath, nil); !result.OK {
			log.Debug().Err(result.Err).Msg("token not revoked by backend")
		}
	}
	p.Auth.Logout()
}

// Navigate moves the application to path and returns the resolved outcome
func (p *Portal) Navigate(path string) router.Outcome {
	p.history.Navigate(path)
	return p.Router.Current()
}

// Close stops background work and releases storage. The session stays persisted.
func (p *Portal) Close() error {
	p.lock.Lock()
	cancel, unsubscribe := p.cancel, p.unsubscribe
	p.unsubscribe = nil
	p.lock.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
	p.Poller.Stop()
	p.Router.Stop()

	if err := p.store.Close(); err != nil {
		return errors.Wrap(err, "[Portal.Close] store.Close")
	}
	return nil
}
