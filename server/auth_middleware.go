package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-card-portal/api"
	"github.com/jrsteele09/go-card-portal/users"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyAccount stores the authenticated account
	ContextKeyAccount ContextKey = "account"
	// ContextKeyToken stores the raw session token of the request
	ContextKeyToken ContextKey = "token"
)

// RequireAuth validates the "Authorization: Token <key>" header and loads the caller's account
func (s *Server) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := tokenFromHeader(r.Header.Get("Authorization"))
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		claims, err := s.tokens.Verify(raw)
		if err != nil {
			log.Debug().Err(err).Msg("rejected token")
			writeDetail(w, http.StatusUnauthorized, "Invalid token.")
			return
		}

		account, err := s.users.GetByID(claims.UserID)
		if err != nil || account == nil {
			writeDetail(w, http.StatusUnauthorized, "Invalid token.")
			return
		}
		if account.Status != users.StatusActive {
			writeDetail(w, http.StatusUnauthorized, "User inactive or deleted.")
			return
		}

		snapshot := *account
		ctx := context.WithValue(r.Context(), ContextKeyAccount, &snapshot)
		ctx = context.WithValue(ctx, ContextKeyToken, raw)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin must be chained after RequireAuth
func (s *Server) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := accountFromContext(r.Context())
		if account == nil || !account.IsAdmin() {
			writeError(w, http.StatusForbidden, "Unauthorized")
			return
		}
		next(w, r)
	}
}

func accountFromContext(ctx context.Context) *users.Account {
	account, _ := ctx.Value(ContextKeyAccount).(*users.Account)
	return account
}

func tokenFromContext(ctx context.Context) string {
	raw, _ := ctx.Value(ContextKeyToken).(string)
	return raw
}

func tokenFromHeader(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], api.TokenType) {
		return "", false
	}
	raw := strings.TrimSpace(parts[1])
	return raw, raw != ""
}
