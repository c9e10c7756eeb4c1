package router

import (
	"sync"

	"github.com/jrsteele09/go-card-portal/guard"
	"github.com/jrsteele09/go-card-portal/sessions"
	"github.com/rs/zerolog/log"
)

const maxRedirectHops = 8

// Authorizer is the auth service as seen by the router
type Authorizer interface {
	guard.Authorizer
	Subscribe(func(sessions.Session)) func()
}

// Outcome is the resolved state of the current location
type Outcome struct {
	Location Location
	Pattern  string // empty for the fallback route
	Params   map[string]string
	State    guard.State
}

// Router applies guard decisions to every navigation.
// Views run only after their route's guard has allowed the location.
type Router struct {
	history  *History
	auth     Authorizer
	routes   []compiledRoute
	fallback compiledRoute

	resolveLock sync.Mutex

	lock        sync.RWMutex
	outcome     Outcome
	onResolve   func(Outcome)
	unsubscribe []func()
}

// RouterOption defines a function type to modify the Router instance.
type RouterOption func(*Router)

// WithFallback overrides the guard used for paths matching no route
func WithFallback(g guard.Guard, view View) RouterOption {
	return func(r *Router) {
		r.fallback = compiledRoute{Route: Route{Guard: g, View: view}}
	}
}

// WithOnResolve registers a callback for every resolved outcome, including Checking
func WithOnResolve(fn func(Outcome)) RouterOption {
	return func(r *Router) {
		r.onResolve = fn
	}
}

func New(history *History, a Authorizer, routes []Route, options ...RouterOption) *Router {
	r := &Router{
		history:  history,
		auth:     a,
		fallback: compiledRoute{Route: Route{Guard: FallbackGuard}},
	}
	for _, route := range routes {
		r.routes = append(r.routes, compile(route))
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Handle attaches view to the route registered for pattern
func (r *Router) Handle(pattern string, view View) bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	for i := range r.routes {
		if r.routes[i].Pattern == pattern {
			r.routes[i].View = view
			return true
		}
	}
	return false
}

// Start listens to history and auth changes and resolves the current location
func (r *Router) Start() {
	r.lock.Lock()
	r.unsubscribe = append(r.unsubscribe,
		r.history.Listen(func(Location) { r.Resolve() }),
		r.auth.Subscribe(func(sessions.Session) { r.Resolve() }),
	)
	r.lock.Unlock()

	r.Resolve()
}

func (r *Router) Stop() {
	r.lock.Lock()
	unsubscribe := r.unsubscribe
	r.unsubscribe = nil
	r.lock.Unlock()

	for _, fn := range unsubscribe {
		fn()
	}
}

// Current returns the last resolved outcome
func (r *Router) Current() Outcome {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.outcome
}

func (r *Router) History() *History {
	return r.history
}

// Resolve evaluates the current location, following redirects until a route
// allows it, the session is still loading, or the hop limit is reached.
func (r *Router) Resolve() {
	r.resolveLock.Lock()
	outcome, view := r.resolve(r.history.Current())
	r.resolveLock.Unlock()

	r.lock.Lock()
	r.outcome = outcome
	onResolve := r.onResolve
	r.lock.Unlock()

	if onResolve != nil {
		onResolve(outcome)
	}
	if view != nil {
		view(Visit{Location: outcome.Location, Pattern: outcome.Pattern, Params: outcome.Params})
	}
}

func (r *Router) resolve(requested Location) (Outcome, View) {
	loc := requested
	for hop := 0; hop <= maxRedirectHops; hop++ {
		route, params := r.match(loc.Path)
		decision := guard.Evaluate(route.Guard, r.auth, CleanPath(loc.Path))

		switch decision.State {
		case guard.Checking:
			return Outcome{Location: loc, Pattern: route.Pattern, Params: params, State: guard.Checking}, nil

		case guard.Allowed:
			if loc != requested {
				r.history.replace(loc)
			}
			return Outcome{Location: loc, Pattern: route.Pattern, Params: params, State: guard.Allowed}, route.View

		default:
			log.Debug().
				Str("path", loc.Path).
				Str("guard", route.Guard.Kind.String()).
				Str("redirect", decision.Redirect).
				Msg("navigation redirected")
			from := decision.From
			if loc.From != "" {
				// Keep the first requested path across chained redirects
				from = loc.From
			}
			loc = Location{Path: decision.Redirect, From: from}
		}
	}

	log.Error().Str("path", requested.Path).Int("hops", maxRedirectHops).Msg("too many redirects")
	r.history.replace(Location{Path: AccessDeniedPath, From: requested.Path})
	return Outcome{Location: Location{Path: AccessDeniedPath, From: requested.Path}, State: guard.DeniedRedirect}, nil
}

func (r *Router) match(path string) (compiledRoute, map[string]string) {
	segments := splitPath(path)

	r.lock.RLock()
	defer r.lock.RUnlock()
	for _, route := range r.routes {
		if params, ok := route.match(segments); ok {
			return route, params
		}
	}
	return r.fallback, nil
}

// AfterLogin sends a freshly signed-in session back to the page it was
// redirected from, or to its dashboard.
func (r *Router) AfterLogin() {
	current := r.history.Current()
	if current.From != "" && CleanPath(current.From) != LoginPath {
		r.history.Replace(Location{Path: current.From})
		return
	}
	if r.auth.IsAdmin() {
		r.history.Navigate(AdminDashboardPath)
		return
	}
	r.history.Navigate(UserDashboardPath)
}
