package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-punch-server/dispatch"
	"github.com/jrsteele09/go-punch-server/internal/config"
	"github.com/jrsteele09/go-punch-server/sessions"
)

// Server exposes the webhook and health endpoints.
type Server struct {
	env        string
	mux        *http.ServeMux
	routes     []string
	config     config.Config
	dispatcher *dispatch.Dispatcher
	engine     *sessions.Engine
	reconciler *sessions.Reconciler
	store      sessions.Store
	loc        *time.Location
}

// New creates a Server wired to the dispatcher and the core it fronts.
func New(cfg config.Config, dispatcher *dispatch.Dispatcher, engine *sessions.Engine, reconciler *sessions.Reconciler, store sessions.Store, loc *time.Location) *Server {
	s := &Server{
		env:        cfg.Env,
		mux:        http.NewServeMux(),
		config:     cfg,
		dispatcher: dispatcher,
		engine:     engine,
		reconciler: reconciler,
		store:      store,
		loc:        loc,
	}
	s.initRoutes()
	s.logRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("POST "+RouteWebhook, ChainMiddleware(s.WebhookHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		log.Info().Str("method", parts[0]).Str("path", parts[1]).Msg("route registered")
	}
}
