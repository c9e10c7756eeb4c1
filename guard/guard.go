// Package guard decides whether a location may be shown for the current session.
// Every route carries one Guard value and a single dispatcher, Evaluate, resolves it.
package guard

import (
	"github.com/jrsteele09/go-card-portal/auth"
)

// Kind is the guard variant
type Kind int

const (
	KindOpen Kind = iota
	KindProtected
	KindAdminOnly
	KindUserOnly
	KindPublicOnly
)

func (k Kind) String() string {
	switch k {
	case KindOpen:
		return "open"
	case KindProtected:
		return "protected"
	case KindAdminOnly:
		return "admin_only"
	case KindUserOnly:
		return "user_only"
	case KindPublicOnly:
		return "public_only"
	default:
		return "unknown"
	}
}

// Default redirect targets
const (
	LoginPath          = "/login"
	AccessDeniedPath   = "/access-denied"
	AdminDashboardPath = "/admin-dashboard"
	UserDashboardPath  = "/user-dashboard"
)

// Guard is a tagged variant. Capability and Fallback are only read for KindProtected.
type Guard struct {
	Kind       Kind
	Capability auth.Capability // empty means any authenticated session
	Fallback   string          // where unauthenticated visitors go, LoginPath when empty
}

func Open() Guard {
	return Guard{Kind: KindOpen}
}

// Protected requires an authenticated session holding capability (if given).
// Unauthenticated visitors are sent to fallback, or to the login page when fallback is empty.
func Protected(capability auth.Capability, fallback string) Guard {
	return Guard{Kind: KindProtected, Capability: capability, Fallback: fallback}
}

func AdminOnly() Guard {
	return Guard{Kind: KindAdminOnly}
}

func UserOnly() Guard {
	return Guard{Kind: KindUserOnly}
}

// PublicOnly pages are hidden from signed-in sessions, e.g. the login page
func PublicOnly() Guard {
	return Guard{Kind: KindPublicOnly}
}

// Authorizer is the read side of the auth service the guards consult
type Authorizer interface {
	Loading() bool
	IsAuthenticated() bool
	IsAdmin() bool
	IsUser() bool
	HasPermission(auth.Capability) bool
}

// State of a single navigation attempt
type State int

const (
	Checking State = iota
	Allowed
	DeniedRedirect
)

func (s State) String() string {
	switch s {
	case Checking:
		return "checking"
	case Allowed:
		return "allowed"
	case DeniedRedirect:
		return "denied_redirect"
	default:
		return "unknown"
	}
}

// Decision is the outcome of evaluating a guard.
// For DeniedRedirect, Redirect is the target and From the path originally requested.
type Decision struct {
	State    State
	Redirect string
	From     string
}

func allow() Decision {
	return Decision{State: Allowed}
}

func redirect(to, from string) Decision {
	return Decision{State: DeniedRedirect, Redirect: to, From: from}
}

// Evaluate resolves g for a navigation to path. While the session is still
// being restored the answer is always Checking.
func Evaluate(g Guard, a Authorizer, path string) Decision {
	if a.Loading() {
		return Decision{State: Checking}
	}

	switch g.Kind {
	case KindOpen:
		return allow()

	case KindProtected:
		if !a.IsAuthenticated() {
			fallback := g.Fallback
			if fallback == "" {
				fallback = LoginPath
			}
			return redirect(fallback, path)
		}
		if g.Capability != "" && !a.HasPermission(g.Capability) {
			return redirect(AccessDeniedPath, path)
		}
		return allow()

	case KindAdminOnly:
		if !a.IsAuthenticated() {
			return redirect(LoginPath, path)
		}
		if !a.IsAdmin() {
			return redirect(AccessDeniedPath, path)
		}
		return allow()

	case KindUserOnly:
		if !a.IsAuthenticated() {
			return redirect(LoginPath, path)
		}
		if !a.IsUser() {
			return redirect(AccessDeniedPath, path)
		}
		return allow()

	case KindPublicOnly:
		if !a.IsAuthenticated() {
			return allow()
		}
		if a.IsAdmin() {
			return redirect(AdminDashboardPath, path)
		}
		return redirect(UserDashboardPath, path)

	default:
		// Unknown variants fail closed
		return redirect(AccessDeniedPath, path)
	}
}
