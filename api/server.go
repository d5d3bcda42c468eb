package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"siaga-desk/api/handlers"
	"siaga-desk/config"
	"siaga-desk/core/incidents"
	"siaga-desk/core/store"
	"siaga-desk/core/utils"
)

type ServerDeps struct {
	IncidentsSvc *incidents.Service
	Feed         *store.FeedHub
}

type Server struct {
	cfg    *config.AppConfig
	svc    *incidents.Service
	feed   *store.FeedHub
	logger *utils.Logger
	router chi.Router
}

func NewServer(cfg *config.AppConfig, deps ServerDeps, logger *utils.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		svc:    deps.IncidentsSvc,
		feed:   deps.Feed,
		logger: logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

type routeHandlers struct {
	incidents *handlers.IncidentsHandler
	webhook   *handlers.WebhookHandler
	events    *handlers.EventsHandler
}

func (s *Server) newRouteHandlers() routeHandlers {
	return routeHandlers{
		incidents: handlers.NewIncidentsHandler(s.cfg, s.svc, s.logger),
		webhook:   handlers.NewWebhookHandler(s.svc, s.logger),
		events:    handlers.NewEventsHandler(s.cfg, s.feed, s.logger),
	}
}
