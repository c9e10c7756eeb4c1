package server

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-card-portal/accounts"
	"github.com/jrsteele09/go-card-portal/cards"
	"github.com/jrsteele09/go-card-portal/internal/utils"
	"github.com/jrsteele09/go-card-portal/internal/validation"
	"github.com/jrsteele09/go-card-portal/users"
	"github.com/rs/zerolog/log"
)

// usersPageSize is the page size of the admin user list
const usersPageSize = 20

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginReply struct {
	Message string          `json:"message"`
	User    *users.Identity `json:"user,omitempty"`
	Token   string          `json:"token,omitempty"`
	Errors  any             `json:"errors,omitempty"`
}

// userPage mirrors the paginated list shape: {count, next, previous, results}
type userPage struct {
	Count    int             `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  []accounts.User `json:"results"`
}

func loginFailed(w http.ResponseWriter, reason string) {
	writeJSON(w, http.StatusBadRequest, loginReply{
		Message: "Login failed",
		Errors:  map[string][]string{"non_field_errors": {reason}},
	})
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := readJSON(w, r, &req); err != nil {
			loginFailed(w, "Email and password are required")
			return
		}
		if err := validation.Struct(req); err != nil {
			loginFailed(w, "Email and password are required")
			return
		}

		stored, err := s.users.GetByEmail(req.Email)
		if err != nil || stored == nil || !users.CheckPasswordHash(req.Password, stored.PasswordHash) {
			loginFailed(w, "Invalid email or password")
			return
		}
		if stored.Status != users.StatusActive {
			loginFailed(w, "Account is suspended or inactive")
			return
		}

		account := *stored
		account.LastLogin = utils.Ptr(s.now())
		if err := s.users.Upsert(&account); err != nil {
			log.Err(err).Int("user_id", account.ID).Msg("failed to record last login")
		}

		raw, err := s.tokens.Issue(&account.Identity)
		if err != nil {
			log.Err(err).Msg("failed to issue token")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		log.Info().Str("email", account.Email).Msg("user logged in")
		writeJSON(w, http.StatusOK, loginReply{
			Message: "Login successful",
			User:    s.profile(&account),
			Token:   raw,
		})
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.tokens.Revoke(tokenFromContext(r.Context()))
		writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
	}
}

func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.profile(accountFromContext(r.Context())))
	}
}

func (s *Server) UpdateProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update accounts.ProfileUpdate
		if err := readJSON(w, r, &update); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := validation.Struct(update); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		account := accountFromContext(r.Context())
		if update.Username != "" {
			account.Username = update.Username
		}
		if update.FirstName != "" {
			account.FirstName = update.FirstName
		}
		if update.LastName != "" {
			account.LastName = update.LastName
		}
		if update.PhoneNumber != "" {
			account.PhoneNumber = update.PhoneNumber
		}
		if err := s.users.Upsert(account); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, s.profile(account))
	}
}

// ChangePasswordHandler replaces the caller's token: the old one is revoked and a new one returned
func (s *Server) ChangePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var change accounts.PasswordChange
		if err := readJSON(w, r, &change); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := validation.Struct(change); err != nil {
			if change.NewPassword != change.NewPasswordConfirm {
				writeFieldErrors(w, map[string]string{"non_field_errors": "New passwords don't match"})
				return
			}
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		account := accountFromContext(r.Context())
		if !users.CheckPasswordHash(change.OldPassword, account.PasswordHash) {
			writeFieldErrors(w, map[string]string{"old_password": "Old password is incorrect"})
			return
		}
		if err := users.ValidatePasswordStrength(change.NewPassword); err != nil {
			writeFieldErrors(w, map[string]string{"new_password": err.Error()})
			return
		}

		hash, err := users.HashPassword(change.NewPassword)
		if err != nil {
			log.Err(err).Msg("failed to hash password")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		account.PasswordHash = hash
		if err := s.users.Upsert(account); err != nil {
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		s.tokens.Revoke(tokenFromContext(r.Context()))
		raw, err := s.tokens.Issue(&account.Identity)
		if err != nil {
			log.Err(err).Msg("failed to issue token")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		log.Info().Int("user_id", account.ID).Msg("password changed")
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Password changed successfully",
			"token":   raw,
		})
	}
}

// ListUsersHandler filters by search (name or email), user_type and status, newest first
func (s *Server) ListUsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := s.users.List(0, 0)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		query := r.URL.Query()
		search := strings.ToLower(query.Get("search"))
		userType := users.RoleType(query.Get("user_type"))
		status := users.StatusType(query.Get("status"))

		matched := make([]*users.Account, 0, len(all))
		for _, account := range all {
			if search != "" && !matchesSearch(account, search) {
				continue
			}
			if userType != "" && account.UserType != userType {
				continue
			}
			if status != "" && account.Status != status {
				continue
			}
			matched = append(matched, account)
		}
		sort.SliceStable(matched, func(i, j int) bool {
			return createdAt(matched[i]).After(createdAt(matched[j])) ||
				(createdAt(matched[i]).Equal(createdAt(matched[j])) && matched[i].ID > matched[j].ID)
		})

		page := 1
		if p, err := strconv.Atoi(query.Get("page")); err == nil {
			page = p
		}
		lastPage := max(1, (len(matched)+usersPageSize-1)/usersPageSize)
		if page < 1 || page > lastPage {
			writeDetail(w, http.StatusNotFound, "Invalid page.")
			return
		}

		start := (page - 1) * usersPageSize
		end := min(start+usersPageSize, len(matched))
		reply := userPage{Count: len(matched), Results: make([]accounts.User, 0, end-start)}
		for _, account := range matched[start:end] {
			reply.Results = append(reply.Results, s.adminView(account))
		}
		if page < lastPage {
			reply.Next = utils.Ptr(pageURL(r, page+1))
		}
		if page > 1 {
			reply.Previous = utils.Ptr(pageURL(r, page-1))
		}
		writeJSON(w, http.StatusOK, reply)
	}
}

func (s *Server) CreateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req accounts.NewUser
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := validation.Struct(req); err != nil {
			if req.Password != req.PasswordConfirm {
				writeFieldErrors(w, map[string]string{"non_field_errors": "Passwords don't match"})
				return
			}
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := users.ValidatePasswordStrength(req.Password); err != nil {
			writeFieldErrors(w, map[string]string{"password": err.Error()})
			return
		}
		if existing, err := s.users.GetByEmail(req.Email); err == nil && existing != nil {
			writeFieldErrors(w, map[string]string{"email": "user with this email already exists."})
			return
		}

		hash, err := users.HashPassword(req.Password)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		account := &users.Account{
			Identity: users.Identity{
				Email:       req.Email,
				Username:    req.Username,
				FirstName:   req.FirstName,
				LastName:    req.LastName,
				PhoneNumber: req.PhoneNumber,
				UserType:    req.UserType,
				Status:      users.StatusActive,
				DateCreated: utils.Ptr(s.now()),
			},
			PasswordHash: hash,
		}
		if err := s.users.Upsert(account); err != nil {
			writeFieldErrors(w, map[string]string{"email": err.Error()})
			return
		}

		log.Info().
			Str("email", account.Email).
			Str("created_by", accountFromContext(r.Context()).Email).
			Msg("user created")
		writeJSON(w, http.StatusCreated, s.adminView(account))
	}
}

func (s *Server) UpdateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stored, ok := s.userFromPath(w, r)
		if !ok {
			return
		}

		var update accounts.UserUpdate
		if err := readJSON(w, r, &update); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := validation.Struct(update); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		account := *stored
		account.Email = update.Email
		account.Username = update.Username
		account.FirstName = update.FirstName
		account.LastName = update.LastName
		account.PhoneNumber = update.PhoneNumber
		account.UserType = update.UserType
		account.Status = update.Status
		if err := s.users.Upsert(&account); err != nil {
			writeFieldErrors(w, map[string]string{"email": err.Error()})
			return
		}

		log.Info().
			Str("email", account.Email).
			Str("updated_by", accountFromContext(r.Context()).Email).
			Msg("user updated")
		writeJSON(w, http.StatusOK, s.adminView(&account))
	}
}

// DeleteUserHandler removes the account together with its cards and requests
func (s *Server) DeleteUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := s.userFromPath(w, r)
		if !ok {
			return
		}
		if err := s.users.Delete(account.ID); err != nil {
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		s.data.deleteCardsOf(account.ID)
		s.data.deleteRequestsOf(account.ID)

		log.Info().
			Str("email", account.Email).
			Str("deleted_by", accountFromContext(r.Context()).Email).
			Msg("user deleted")
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) userFromPath(w http.ResponseWriter, r *http.Request) (*users.Account, bool) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return nil, false
	}
	account, err := s.users.GetByID(id)
	if err != nil || account == nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return nil, false
	}
	return account, true
}

// profile is the identity of account with its card totals
func (s *Server) profile(account *users.Account) *users.Identity {
	identity := account.Identity.Clone()
	owned := s.data.cardsWhere(func(c cards.Card) bool {
		return c.UserID == account.ID && c.Status != cards.StatusExpired
	})
	identity.TotalCards = len(owned)
	identity.TotalBalance = utils.Decimal{}
	for _, c := range owned {
		identity.TotalBalance = identity.TotalBalance.Add(c.Balance)
	}
	return identity
}

func (s *Server) adminView(account *users.Account) accounts.User {
	identity := s.profile(account)
	return accounts.User{
		ID:           identity.ID,
		Email:        identity.Email,
		Username:     identity.Username,
		FirstName:    identity.FirstName,
		LastName:     identity.LastName,
		FullName:     identity.FullName(),
		PhoneNumber:  identity.PhoneNumber,
		UserType:     identity.UserType,
		Status:       identity.Status,
		DateCreated:  identity.DateCreated,
		LastLogin:    identity.LastLogin,
		TotalCards:   identity.TotalCards,
		TotalBalance: identity.TotalBalance,
		IsActive:     identity.Status == users.StatusActive,
	}
}

func matchesSearch(account *users.Account, search string) bool {
	for _, field := range []string{account.FirstName, account.LastName, account.Email} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func createdAt(account *users.Account) time.Time {
	return utils.Value(account.DateCreated)
}

func pageURL(r *http.Request, page int) string {
	query := r.URL.Query()
	query.Set("page", strconv.Itoa(page))
	u := url.URL{Scheme: getScheme(r), Host: r.Host, Path: r.URL.Path, RawQuery: query.Encode()}
	return u.String()
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
