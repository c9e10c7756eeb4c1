package router

import (
	"strings"

	"github.com/jrsteele09/go-card-portal/auth"
	"github.com/jrsteele09/go-card-portal/guard"
)

// Visit is handed to a view once its guard allows the navigation
type Visit struct {
	Location Location
	Pattern  string
	Params   map[string]string
}

type View func(Visit)

// Route binds a path pattern to its guard. Segments written as {name} match any value.
type Route struct {
	Pattern string
	Guard   guard.Guard
	View    View
}

// FallbackGuard protects every path that matches no route
var FallbackGuard = guard.Protected("", HomePath)

// AppRoutes is the portal's route table
func AppRoutes() []Route {
	return []Route{
		// Public
		{Pattern: HomePath, Guard: guard.PublicOnly()},
		{Pattern: LoginPath, Guard: guard.PublicOnly()},

		// Users
		{Pattern: UserDashboardPath, Guard: guard.UserOnly()},
		{Pattern: CardDetailsPath, Guard: guard.UserOnly()},
		{Pattern: ProfilePath, Guard: guard.UserOnly()},
		{Pattern: AddCardPath, Guard: guard.Protected(auth.CapCardRequest, "")},

		// Admins
		{Pattern: AdminDashboardPath, Guard: guard.AdminOnly()},
		{Pattern: CardManagementPath, Guard: guard.AdminOnly()},
		{Pattern: CreateUserPath, Guard: guard.AdminOnly()},
		{Pattern: GeneratedCardsPath, Guard: guard.AdminOnly()},

		{Pattern: AccessDeniedPath, Guard: guard.Open()},
	}
}

type compiledRoute struct {
	Route
	segments []string
}

func compile(r Route) compiledRoute {
	return compiledRoute{Route: r, segments: splitPath(r.Pattern)}
}

// match reports whether path fits the route and returns the captured parameters
func (cr compiledRoute) match(segments []string) (map[string]string, bool) {
	if len(segments) != len(cr.segments) {
		return nil, false
	}
	var params map[string]string
	for i, seg := range cr.segments {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			if segments[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[seg[1:len(seg)-1]] = segments[i]
			continue
		}
		if seg != segments[i] {
			return nil, false
		}
	}
	return params, true
}

// CleanPath drops any query or fragment and a trailing slash
func CleanPath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return HomePath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return HomePath
		}
	}
	return path
}

func splitPath(path string) []string {
	path = strings.Trim(CleanPath(path), "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
