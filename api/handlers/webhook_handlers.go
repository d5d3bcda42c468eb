package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"siaga-desk/core/incidents"
	"siaga-desk/core/store"
	"siaga-desk/core/utils"
)

type WebhookHandler struct {
	svc    *incidents.Service
	logger *utils.Logger
}

func NewWebhookHandler(svc *incidents.Service, logger *utils.Logger) *WebhookHandler {
	return &WebhookHandler{svc: svc, logger: logger}
}

// Ingest accepts loosely-typed incident reports from upstream automations
// and upserts them by incident_id.
func (h *WebhookHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var payload incidents.IngestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	incident, created, err := h.svc.Ingest(r.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, incidents.ErrMissingIncidentID):
			writeError(w, http.StatusBadRequest, "incident_id is required")
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusConflict, "incident with this incident_id already exists")
		default:
			if h.logger != nil {
				h.logger.Errorf("ingest incident: %v", err)
			}
			writeError(w, http.StatusInternalServerError, "failed to process incident")
		}
		return
	}
	if created {
		writeSuccess(w, http.StatusCreated, incident, fmt.Sprintf("Incident %s created", incident.IncidentID))
		return
	}
	writeSuccess(w, http.StatusOK, incident, fmt.Sprintf("Incident %s updated", incident.IncidentID))
}

func (h *WebhookHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, nil, "Incident webhook endpoint is active. Use POST to submit incidents.")
}
