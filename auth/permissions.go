package auth

import (
	"github.com/jrsteele09/go-card-portal/sessions"
	"github.com/rs/zerolog/log"
)

// Capability names a permission a protected view requires
type Capability string

const (
	CapAdmin          Capability = "admin"
	CapUser           Capability = "user"
	CapCardManagement Capability = "card_management"
	CapCardRequest    Capability = "card_request"
	CapUserDashboard  Capability = "user_dashboard"
	CapAdminDashboard Capability = "admin_dashboard"
)

// Capabilities lists every capability the evaluator recognises
var Capabilities = []Capability{
	CapAdmin,
	CapUser,
	CapCardManagement,
	CapCardRequest,
	CapUserDashboard,
	CapAdminDashboard,
}

// IsAuthenticated is true iff the session holds both a token and an identity
func IsAuthenticated(s sessions.Session) bool {
	return s.IsAuthenticated()
}

// IsAdmin is true for an authenticated admin or superuser
func IsAdmin(s sessions.Session) bool {
	return s.IsAuthenticated() && s.Identity.IsAdmin()
}

// IsUser is true for every authenticated identity that is not an admin
func IsUser(s sessions.Session) bool {
	return s.IsAuthenticated() && !s.Identity.IsAdmin()
}

// HasPermission evaluates capability c against the session.
// Unauthenticated sessions and unknown capabilities are always denied.
func HasPermission(s sessions.Session, c Capability) bool {
	if !IsAuthenticated(s) {
		return false
	}

	switch c {
	case CapAdmin, CapCardManagement, CapAdminDashboard:
		return IsAdmin(s)
	case CapUser, CapUserDashboard:
		return IsUser(s)
	case CapCardRequest:
		return true
	default:
		log.Debug().Str("capability", string(c)).Msg("unknown capability denied")
		return false
	}
}
