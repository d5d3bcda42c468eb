package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) routes() chi.Router {
	h := s.newRouteHandlers()
	r := chi.NewRouter()
	r.Use(s.recoverMiddleware)
	r.Use(s.loggingMiddleware)
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.jsonMiddleware)
			r.MethodFunc(http.MethodGet, "/incidents", h.incidents.List)
			r.MethodFunc(http.MethodGet, "/incidents/{id}", h.incidents.Get)
			r.MethodFunc(http.MethodPatch, "/incidents/{id}", h.incidents.Update)
			r.MethodFunc(http.MethodDelete, "/incidents/{id}", h.incidents.Delete)
			r.MethodFunc(http.MethodPost, "/webhook/incident", h.webhook.Ingest)
			r.MethodFunc(http.MethodGet, "/webhook/incident", h.webhook.Health)
		})
		// SSE keeps its own content type, so it stays outside jsonMiddleware.
		r.MethodFunc(http.MethodGet, "/events/incidents", h.events.Stream)
	})
	return r
}
