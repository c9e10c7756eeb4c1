package sessions

import (
	"github.com/jrsteele09/go-card-portal/users"
)

// Session is the in-memory view of the signed-in user.
// Token and Identity are set together and cleared together.
// Loading is true only until the persisted session has been checked once.
type Session struct {
	Identity *users.Identity // nil when signed out
	Token    string          // opaque backend token, empty when signed out
	Loading  bool
}

// IsAuthenticated is true only when both halves of the session are present
func (s Session) IsAuthenticated() bool {
	return s.Token != "" && s.Identity != nil
}

// Clone copies the session so the identity can be handed out safely
func (s Session) Clone() Session {
	s.Identity = s.Identity.Clone()
	return s
}
