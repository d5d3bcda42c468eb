package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"siaga-desk/config"
	"siaga-desk/core/incidents"
	"siaga-desk/core/store"
	"siaga-desk/core/utils"
)

type IncidentsHandler struct {
	cfg    *config.AppConfig
	svc    *incidents.Service
	logger *utils.Logger
}

func NewIncidentsHandler(cfg *config.AppConfig, svc *incidents.Service, logger *utils.Logger) *IncidentsHandler {
	return &IncidentsHandler{cfg: cfg, svc: svc, logger: logger}
}

func (h *IncidentsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.IncidentFilter{
		Status: strings.TrimSpace(q.Get("status")),
		Search: strings.TrimSpace(q.Get("search")),
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filter.Limit = n
		}
	}
	if raw := strings.TrimSpace(q.Get("offset")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			filter.Offset = n
		}
	}
	items, total, err := h.svc.List(r.Context(), filter)
	if err != nil {
		if h.logger != nil {
			h.logger.Errorf("list incidents: %v", err)
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch incidents")
		return
	}
	if items == nil {
		items = []store.Incident{}
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"incidents": items,
		"total":     total,
		"limit":     h.cfg.EffectiveListLimit(filter.Limit),
		"offset":    filter.Offset,
	}, "")
}

func (h *IncidentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(urlParam(r, "id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "incident id required")
		return
	}
	incident, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "incident not found")
			return
		}
		if h.logger != nil {
			h.logger.Errorf("get incident %s: %v", id, err)
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch incident")
		return
	}
	writeSuccess(w, http.StatusOK, incident, "")
}

func (h *IncidentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(urlParam(r, "id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "incident id required")
		return
	}
	var req incidents.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, incidents.ErrInvalidStatus):
			writeError(w, http.StatusBadRequest, "invalid status. Must be one of: New, In Progress, Resolved, Closed")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "incident not found")
		default:
			if h.logger != nil {
				h.logger.Errorf("update incident %s: %v", id, err)
			}
			writeError(w, http.StatusInternalServerError, "failed to update incident")
		}
		return
	}
	writeSuccess(w, http.StatusOK, updated, fmt.Sprintf("Incident %s updated successfully", updated.IncidentID))
}

func (h *IncidentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(urlParam(r, "id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "incident id required")
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "incident not found")
			return
		}
		if h.logger != nil {
			h.logger.Errorf("delete incident %s: %v", id, err)
		}
		writeError(w, http.StatusInternalServerError, "failed to delete incident")
		return
	}
	writeSuccess(w, http.StatusOK, nil, "Incident deleted successfully")
}
