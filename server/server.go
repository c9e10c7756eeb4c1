package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-card-portal/internal/config"
	"github.com/jrsteele09/go-card-portal/token"
	"github.com/jrsteele09/go-card-portal/users"
	"github.com/rs/zerolog/log"
)

// Server is an in-memory implementation of the card portal backend, used for
// local development and integration tests
type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	users   users.UserRepo
	tokens  *token.Manager
	data    *store
	nowFunc func() time.Time
}

type ServerOption func(*Server)

func WithNowFunc(now func() time.Time) ServerOption {
	return func(s *Server) {
		s.nowFunc = now
	}
}

func New(config config.Config, userRepo users.UserRepo, options ...ServerOption) (*Server, error) {
	s := &Server{
		env:     config.GetEnv(),
		mux:     http.NewServeMux(),
		config:  config,
		users:   userRepo,
		data:    newStore(),
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	s.tokens = token.NewManager(
		token.NewHMACSigner(config.GetTokenSecret()),
		token.WithLifetime(config.GetTokenLifetime()),
		token.WithNowFunc(s.now),
	)

	// Bootstrap: ensure the system administrator exists
	if err := s.InitialiseSystem(); err != nil {
		return nil, fmt.Errorf("[Server New] Failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) now() time.Time {
	return s.nowFunc()
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Debug().Str("method", fmt.Sprintf("%-7s", method)).Msg(path)
}
