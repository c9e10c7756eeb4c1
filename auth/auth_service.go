package auth

import (
	"context"
	"sync"
	"sync/atomic"

	portalerrors "github.com/jrsteele09/go-card-portal/internal/errors"
	"github.com/jrsteele09/go-card-portal/internal/validation"
	"github.com/jrsteele09/go-card-portal/sessions"
	"github.com/jrsteele09/go-card-portal/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const defaultLogoutPath = "/login"

// Authenticator exchanges credentials for a token and the identity it belongs to.
// A rejection by the backend is reported as *errors.AuthenticationError.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (token string, identity *users.Identity, err error)
}

// Navigator moves the application to another location
type Navigator interface {
	Navigate(path string)
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Service owns the current Session. It is the only writer of the session store.
type Service struct {
	store         *sessions.Store
	authenticator Authenticator
	navigator     Navigator
	logoutPath    string

	lock    sync.RWMutex
	session sessions.Session

	loggingIn atomic.Bool

	listenerLock sync.Mutex
	listeners    map[int]func(sessions.Session)
	nextListener int
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNavigator sets where Logout sends the application, e.g. the router's history and "/login"
func WithNavigator(nav Navigator, logoutPath string) ServiceOption {
	return func(s *Service) {
		s.navigator = nav
		if logoutPath != "" {
			s.logoutPath = logoutPath
		}
	}
}

// NewService creates a Service in the loading state. Call RestoreSession before
// relying on any of the predicates.
func NewService(store *sessions.Store, authenticator Authenticator, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("[NewService] session store is required")
	}
	if authenticator == nil {
		return nil, errors.New("[NewService] authenticator is required")
	}

	s := &Service{
		store:         store,
		authenticator: authenticator,
		logoutPath:    defaultLogoutPath,
		session:       sessions.Session{Loading: true},
		listeners:     make(map[int]func(sessions.Session)),
	}

	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// RestoreSession loads the persisted session. A missing or corrupt pair leaves the
// service signed out and clears storage. Loading is false once this returns.
func (s *Service) RestoreSession() {
	restored, err := s.store.Load()
	if err != nil {
		log.Warn().Err(err).Msg("discarding persisted session")
	}

	if err != nil || !restored.IsAuthenticated() {
		if clearErr := s.store.Clear(); clearErr != nil {
			log.Err(clearErr).Msg("failed to clear session storage")
		}
		restored = sessions.Session{}
	}
	restored.Loading = false

	s.replace(restored)

	if restored.IsAuthenticated() {
		log.Info().Int("user_id", restored.Identity.ID).Msg("session restored")
	}
}

// Login authenticates with the backend and, on success, persists and publishes the new session.
// On any failure the current session is left as it was.
func (s *Service) Login(ctx context.Context, email, password string) error {
	if err := validation.Struct(loginInput{Email: email, Password: password}); err != nil {
		return err
	}

	if !s.loggingIn.CompareAndSwap(false, true) {
		return portalerrors.ErrLoginInProgress
	}
	defer s.loggingIn.Store(false)

	token, identity, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		var authErr *portalerrors.AuthenticationError
		if errors.As(err, &authErr) {
			log.Info().Str("email", email).Int("status", authErr.Status).Msg("login rejected")
			return authErr
		}
		return errors.Wrap(err, "[Service.Login] authenticate")
	}
	if token == "" || identity == nil {
		return errors.Wrap(portalerrors.ErrUnexpectedReply, "[Service.Login] token and user missing from reply")
	}

	if err := s.store.Save(token, identity); err != nil {
		return errors.Wrap(err, "[Service.Login] store.Save")
	}

	s.replace(sessions.Session{Token: token, Identity: identity.Clone()})
	log.Info().Int("user_id", identity.ID).Str("user_type", string(identity.UserType)).Msg("logged in")
	return nil
}

// Logout clears storage and the in-memory session then navigates to the logout path.
// It is safe to call when already signed out.
func (s *Service) Logout() {
	if err := s.store.Clear(); err != nil {
		log.Err(err).Msg("failed to clear session storage")
	}

	if s.IsAuthenticated() {
		log.Info().Msg("logged out")
	}
	s.replace(sessions.Session{})

	if s.navigator != nil {
		s.navigator.Navigate(s.logoutPath)
	}
}

// UpdateIdentity replaces the identity of the signed-in user. The token is unchanged.
func (s *Service) UpdateIdentity(identity *users.Identity) error {
	if identity == nil {
		return errors.Wrap(portalerrors.ErrInvalidInput, "[Service.UpdateIdentity] identity is required")
	}

	current := s.Session()
	if !current.IsAuthenticated() {
		return portalerrors.ErrNotAuthenticated
	}

	if err := s.store.SaveIdentity(identity); err != nil {
		return errors.Wrap(err, "[Service.UpdateIdentity] store.SaveIdentity")
	}

	s.replace(sessions.Session{Token: current.Token, Identity: identity.Clone()})
	return nil
}

// RotateToken swaps the token of the signed-in user, e.g. after a password change
// invalidated the old one. The identity is unchanged.
func (s *Service) RotateToken(token string) error {
	if token == "" {
		return errors.Wrap(portalerrors.ErrInvalidInput, "[Service.RotateToken] token is required")
	}

	current := s.Session()
	if !current.IsAuthenticated() {
		return portalerrors.ErrNotAuthenticated
	}

	if err := s.store.Save(token, current.Identity); err != nil {
		return errors.Wrap(err, "[Service.RotateToken] store.Save")
	}

	s.replace(sessions.Session{Token: token, Identity: current.Identity})
	log.Debug().Int("user_id", current.Identity.ID).Msg("session token rotated")
	return nil
}

// Session returns a copy of the current session
func (s *Service) Session() sessions.Session {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.session.Clone()
}

func (s *Service) Token() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.session.Token
}

func (s *Service) Identity() *users.Identity {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.session.Identity.Clone()
}

func (s *Service) Loading() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.session.Loading
}

func (s *Service) IsAuthenticated() bool {
	return IsAuthenticated(s.Session())
}

func (s *Service) IsAdmin() bool {
	return IsAdmin(s.Session())
}

func (s *Service) IsUser() bool {
	return IsUser(s.Session())
}

func (s *Service) HasPermission(c Capability) bool {
	return HasPermission(s.Session(), c)
}

// Subscribe registers fn to be called with the new session after every change.
// The returned function removes the listener.
func (s *Service) Subscribe(fn func(sessions.Session)) func() {
	s.listenerLock.Lock()
	defer s.listenerLock.Unlock()

	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn

	return func() {
		s.listenerLock.Lock()
		defer s.listenerLock.Unlock()
		delete(s.listeners, id)
	}
}

// replace swaps the whole session and notifies listeners outside the lock
func (s *Service) replace(next sessions.Session) {
	s.lock.Lock()
	s.session = next
	s.lock.Unlock()

	s.listenerLock.Lock()
	listeners := make([]func(sessions.Session), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.listenerLock.Unlock()

	for _, fn := range listeners {
		fn(next.Clone())
	}
}
