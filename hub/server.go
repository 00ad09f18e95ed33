// Package hub is the central authentication service the front-end apps all
// talk to: password-grant login, refresh-token rotation, profile, MFA
// enrollment, and per-device session management, behind one JSON API.
package hub

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hubcentral/go-session-hub/internal/config"
	"github.com/hubcentral/go-session-hub/token"
	"github.com/hubcentral/go-session-hub/users"
)

type Server struct {
	env    string
	mux    *http.ServeMux
	routes []string
	config config.Config
	users  users.UserRepo
	tokens *token.Manager
	log    zerolog.Logger
}

func New(config config.Config, userRepo users.UserRepo, tokens *token.Manager, log zerolog.Logger) (*Server, error) {
	s := &Server{
		mux:    http.NewServeMux(),
		config: config,
		users:  userRepo,
		tokens: tokens,
		log:    log,
	}
	s.env = config.GetEnv()

	if err := s.bootstrapAdmin(); err != nil {
		return nil, fmt.Errorf("[Server New] failed to bootstrap admin user: %w", err)
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

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			s.log.Debug().Str("method", parts[0]).Str("path", parts[1]).Msg("route")
		} else {
			s.log.Debug().Str("path", parts[0]).Msg("route")
		}
	}
}
