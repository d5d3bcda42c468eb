package incidents

import (
	"context"
	"errors"
	"strings"
	"time"

	"siaga-desk/config"
	"siaga-desk/core/store"
	"siaga-desk/core/utils"
)

var (
	ErrInvalidStatus     = errors.New("invalid status")
	ErrMissingIncidentID = errors.New("incident_id required")
)

// Service holds the incident lifecycle rules on top of the store: status
// validation, loose-payload normalization, upsert by business key and
// webhook fan-out after updates.
type Service struct {
	cfg    *config.AppConfig
	store  store.IncidentsStore
	sender WebhookSender
	logger *utils.Logger
	now    func() time.Time
}

func NewService(cfg *config.AppConfig, st store.IncidentsStore, sender WebhookSender, logger *utils.Logger) *Service {
	return &Service{cfg: cfg, store: st, sender: sender, logger: logger, now: time.Now}
}

type UpdateRequest struct {
	Status        *string `json:"status,omitempty"`
	ProjectName   *string `json:"project_name,omitempty"`
	Description   *string `json:"description,omitempty"`
	IncidentType  *string `json:"incident_type,omitempty"`
	Impact        *string `json:"impact,omitempty"`
	PIC           *string `json:"pic,omitempty"`
	PhoneNumber   *string `json:"phone_number,omitempty"`
	WaktuKejadian *string `json:"waktu_kejadian,omitempty"`
	WaktuChat     *string `json:"waktu_chat,omitempty"`
}

func (s *Service) List(ctx context.Context, filter store.IncidentFilter) ([]store.Incident, int, error) {
	filter.Limit = s.cfg.EffectiveListLimit(filter.Limit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.store.ListIncidents(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id string) (*store.Incident, error) {
	return s.store.GetIncident(ctx, id)
}

// Update applies a partial update to an incident. The current row is fetched
// first so the sheets-sync payload always carries the full state. Webhook
// delivery happens after the row is persisted and never blocks the caller.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*store.Incident, error) {
	current, err := s.store.GetIncident(ctx, id)
	if err != nil {
		return nil, err
	}
	oldStatus := current.Status
	if req.Status != nil {
		status := strings.TrimSpace(*req.Status)
		if !IsValidStatus(status) {
			return nil, ErrInvalidStatus
		}
		current.Status = status
	}
	if req.ProjectName != nil {
		current.ProjectName = *req.ProjectName
	}
	if req.Description != nil {
		current.Description = *req.Description
	}
	if req.IncidentType != nil {
		current.IncidentType = *req.IncidentType
	}
	if req.Impact != nil {
		current.Impact = *req.Impact
	}
	if req.PIC != nil {
		current.PIC = *req.PIC
	}
	if req.PhoneNumber != nil {
		current.PhoneNumber = *req.PhoneNumber
	}
	now := s.now().UTC()
	if req.WaktuKejadian != nil {
		t := NormalizeTimestamp(*req.WaktuKejadian, now)
		current.WaktuKejadian = &t
	}
	if req.WaktuChat != nil {
		t := NormalizeTimestamp(*req.WaktuChat, now)
		current.WaktuChat = &t
	}
	if err := s.store.UpdateIncident(ctx, current); err != nil {
		return nil, err
	}
	s.dispatchUpdateWebhooks(*current, oldStatus)
	return current, nil
}

type IngestPayload struct {
	IncidentID    string `json:"incident_id"`
	Status        string `json:"status"`
	ProjectName   string `json:"project_name"`
	Description   string `json:"description"`
	IncidentType  string `json:"incident_type"`
	Impact        string `json:"impact"`
	PIC           string `json:"pic"`
	PhoneNumber   string `json:"phone_number"`
	WaktuKejadian string `json:"waktu_kejadian"`
	WaktuChat     string `json:"waktu_chat"`
}

// Ingest upserts an incident reported by an upstream automation. The business
// key incident_id decides between insert and update; everything else is
// normalized with forgiving defaults. Returns the stored row and whether a
// new row was created.
func (s *Service) Ingest(ctx context.Context, payload IngestPayload) (*store.Incident, bool, error) {
	key := strings.TrimSpace(payload.IncidentID)
	if key == "" {
		return nil, false, ErrMissingIncidentID
	}
	now := s.now().UTC()
	kejadian := NormalizeTimestamp(payload.WaktuKejadian, now)
	chat := NormalizeTimestamp(payload.WaktuChat, now)
	incoming := store.Incident{
		IncidentID:    key,
		Status:        NormalizeStatus(payload.Status),
		ProjectName:   strings.TrimSpace(payload.ProjectName),
		Description:   strings.TrimSpace(payload.Description),
		IncidentType:  defaultString(payload.IncidentType, "Unknown"),
		Impact:        defaultString(payload.Impact, "Unknown"),
		PIC:           defaultString(payload.PIC, "Unassigned"),
		PhoneNumber:   strings.TrimSpace(payload.PhoneNumber),
		WaktuKejadian: &kejadian,
		WaktuChat:     &chat,
	}

	existing, err := s.store.GetIncidentByKey(ctx, key)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}
	if existing != nil {
		incoming.ID = existing.ID
		incoming.CreatedAt = existing.CreatedAt
		if err := s.store.UpdateIncident(ctx, &incoming); err != nil {
			return nil, false, err
		}
		if s.logger != nil {
			s.logger.Printf("INGEST update incident_id=%s status=%s", key, incoming.Status)
		}
		return &incoming, false, nil
	}
	if err := s.store.InsertIncident(ctx, &incoming); err != nil {
		return nil, false, err
	}
	if s.logger != nil {
		s.logger.Printf("INGEST create incident_id=%s status=%s", key, incoming.Status)
	}
	return &incoming, true, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteIncident(ctx, id); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Printf("DELETE incident id=%s", id)
	}
	return nil
}

// dispatchUpdateWebhooks runs detached from the request: the response must
// not wait on external automations and their failures are log-only.
func (s *Service) dispatchUpdateWebhooks(incident store.Incident, oldStatus string) {
	if s.sender == nil || s.cfg == nil {
		return
	}
	syncURL := strings.TrimSpace(s.cfg.Webhooks.SheetsSyncURL)
	notifyURL := strings.TrimSpace(s.cfg.Webhooks.StatusNotifyURL)
	statusChanged := incident.Status != oldStatus
	if syncURL == "" && (notifyURL == "" || !statusChanged) {
		return
	}
	timeout := s.cfg.Webhooks.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if syncURL != "" {
			if err := s.sender.Send(ctx, syncURL, buildSheetsSyncPayload(incident)); err != nil && s.logger != nil {
				s.logger.Warnf("sheets-sync webhook failed incident_id=%s: %v", incident.IncidentID, err)
			}
		}
		if notifyURL != "" && statusChanged {
			notif := StatusChangeNotification{
				IncidentID:  incident.IncidentID,
				PhoneNumber: incident.PhoneNumber,
				OldStatus:   oldStatus,
				NewStatus:   incident.Status,
				Description: incident.Description,
			}
			if err := s.sender.Send(ctx, notifyURL, notif); err != nil && s.logger != nil {
				s.logger.Warnf("status-notify webhook failed incident_id=%s: %v", incident.IncidentID, err)
			}
		}
	}()
}

func buildSheetsSyncPayload(incident store.Incident) SheetsSyncPayload {
	return SheetsSyncPayload{
		IncidentID:    incident.IncidentID,
		ProjectName:   incident.ProjectName,
		Status:        incident.Status,
		Keterangan:    incident.Description,
		Tipe:          incident.IncidentType,
		Impact:        incident.Impact,
		WaktuKejadian: formatTimePtr(incident.WaktuKejadian),
		PIC:           incident.PIC,
		NomorWA:       incident.PhoneNumber,
		WaktuChat:     formatTimePtr(incident.WaktuChat),
	}
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func defaultString(raw, fallback string) string {
	if trimmed := strings.TrimSpace(raw); trimmed != "" {
		return trimmed
	}
	return fallback
}
