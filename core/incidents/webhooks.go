package incidents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type WebhookSender interface {
	Send(ctx context.Context, url string, payload any) error
}

type HTTPWebhookSender struct {
	client *http.Client
}

func NewHTTPWebhookSender(timeout time.Duration) *HTTPWebhookSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPWebhookSender{client: &http.Client{Timeout: timeout}}
}

func (s *HTTPWebhookSender) Send(ctx context.Context, url string, payload any) error {
	if strings.TrimSpace(url) == "" {
		return errors.New("webhook url missing")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("webhook status %d", resp.StatusCode)
}

// SheetsSyncPayload is the row snapshot pushed to the spreadsheet-sync
// automation after every update. Field names follow the sheet columns.
type SheetsSyncPayload struct {
	IncidentID    string `json:"incident_id"`
	ProjectName   string `json:"project_name"`
	Status        string `json:"status"`
	Keterangan    string `json:"keterangan"`
	Tipe          string `json:"tipe"`
	Impact        string `json:"impact"`
	WaktuKejadian string `json:"waktu_kejadian"`
	PIC           string `json:"pic"`
	NomorWA       string `json:"nomor_wa"`
	WaktuChat     string `json:"waktu_chat"`
}

// StatusChangeNotification is posted to the notification automation when a
// status actually changes.
type StatusChangeNotification struct {
	IncidentID  string `json:"incident_id"`
	PhoneNumber string `json:"phone_number"`
	OldStatus   string `json:"old_status"`
	NewStatus   string `json:"new_status"`
	Description string `json:"description"`
}
