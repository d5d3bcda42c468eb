package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

type Incident struct {
	ID            string     `json:"id"`
	IncidentID    string     `json:"incident_id"`
	Status        string     `json:"status"`
	ProjectName   string     `json:"project_name"`
	Description   string     `json:"description"`
	IncidentType  string     `json:"incident_type"`
	Impact        string     `json:"impact"`
	PIC           string     `json:"pic"`
	PhoneNumber   string     `json:"phone_number"`
	WaktuKejadian *time.Time `json:"waktu_kejadian,omitempty"`
	WaktuChat     *time.Time `json:"waktu_chat,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type IncidentFilter struct {
	Status string
	Search string
	Limit  int
	Offset int
}

type IncidentsStore interface {
	ListIncidents(ctx context.Context, filter IncidentFilter) ([]Incident, int, error)
	GetIncident(ctx context.Context, id string) (*Incident, error)
	GetIncidentByKey(ctx context.Context, incidentID string) (*Incident, error)
	InsertIncident(ctx context.Context, incident *Incident) error
	UpdateIncident(ctx context.Context, incident *Incident) error
	DeleteIncident(ctx context.Context, id string) error
}

type incidentsStore struct {
	db     *sql.DB
	driver string
	feed   *FeedHub
}

// NewIncidentsStore builds the incidents store. feed may be nil; when set,
// every successful mutation publishes a change event on it.
func NewIncidentsStore(db *sql.DB, driver string, feed *FeedHub) IncidentsStore {
	return &incidentsStore{db: db, driver: driver, feed: feed}
}

const incidentColumns = `id, incident_id, status, project_name, description, incident_type, impact, pic, phone_number, waktu_kejadian, waktu_chat, created_at, updated_at`

func (s *incidentsStore) ListIncidents(ctx context.Context, filter IncidentFilter) ([]Incident, int, error) {
	var clauses []string
	var args []any
	status := strings.TrimSpace(filter.Status)
	if status != "" && !strings.EqualFold(status, "all") {
		clauses = append(clauses, "status=?")
		args = append(args, status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		clauses = append(clauses, "LOWER(incident_id) LIKE ?")
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	countQuery := rebind(s.driver, "SELECT COUNT(*) FROM incidents"+where)
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + incidentColumns + " FROM incidents" + where + " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}
	rows, err := s.db.QueryContext(ctx, rebind(s.driver, query), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var res []Incident
	for rows.Next() {
		inc, err := scanIncidentRow(rows)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, inc)
	}
	return res, total, rows.Err()
}

func (s *incidentsStore) GetIncident(ctx context.Context, id string) (*Incident, error) {
	row := s.db.QueryRowContext(ctx, rebind(s.driver, `
		SELECT `+incidentColumns+` FROM incidents WHERE id=?`), id)
	return scanIncident(row)
}

func (s *incidentsStore) GetIncidentByKey(ctx context.Context, incidentID string) (*Incident, error) {
	row := s.db.QueryRowContext(ctx, rebind(s.driver, `
		SELECT `+incidentColumns+` FROM incidents WHERE incident_id=?`), strings.TrimSpace(incidentID))
	return scanIncident(row)
}

func (s *incidentsStore) InsertIncident(ctx context.Context, incident *Incident) error {
	if strings.TrimSpace(incident.IncidentID) == "" {
		return errors.New("incident_id required")
	}
	if strings.TrimSpace(incident.ID) == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		incident.ID = id.String()
	}
	now := time.Now().UTC()
	incident.CreatedAt = now
	incident.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, rebind(s.driver, `
		INSERT INTO incidents(`+incidentColumns+`)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`),
		incident.ID, strings.TrimSpace(incident.IncidentID), incident.Status, incident.ProjectName,
		incident.Description, incident.IncidentType, incident.Impact, incident.PIC, incident.PhoneNumber,
		nullableTime(incident.WaktuKejadian), nullableTime(incident.WaktuChat), now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	s.publish(ChangeInsert, incident, "")
	return nil
}

func (s *incidentsStore) UpdateIncident(ctx context.Context, incident *Incident) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, rebind(s.driver, `
		UPDATE incidents SET incident_id=?, status=?, project_name=?, description=?, incident_type=?, impact=?, pic=?, phone_number=?, waktu_kejadian=?, waktu_chat=?, updated_at=?
		WHERE id=?`),
		strings.TrimSpace(incident.IncidentID), incident.Status, incident.ProjectName, incident.Description,
		incident.IncidentType, incident.Impact, incident.PIC, incident.PhoneNumber,
		nullableTime(incident.WaktuKejadian), nullableTime(incident.WaktuChat), now, incident.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	incident.UpdatedAt = now
	s.publish(ChangeUpdate, incident, "")
	return nil
}

func (s *incidentsStore) DeleteIncident(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, rebind(s.driver, `DELETE FROM incidents WHERE id=?`), id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	s.publish(ChangeDelete, nil, id)
	return nil
}

func (s *incidentsStore) publish(eventType string, incident *Incident, oldID string) {
	if s.feed == nil {
		return
	}
	ev := ChangeEvent{Type: eventType, OldID: oldID}
	if incident != nil {
		snapshot := *incident
		ev.Incident = &snapshot
	}
	s.feed.Publish(ev)
}

func scanIncident(row *sql.Row) (*Incident, error) {
	var inc Incident
	var kejadian, chat sql.NullTime
	if err := row.Scan(&inc.ID, &inc.IncidentID, &inc.Status, &inc.ProjectName, &inc.Description, &inc.IncidentType, &inc.Impact, &inc.PIC, &inc.PhoneNumber, &kejadian, &chat, &inc.CreatedAt, &inc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if kejadian.Valid {
		inc.WaktuKejadian = &kejadian.Time
	}
	if chat.Valid {
		inc.WaktuChat = &chat.Time
	}
	return &inc, nil
}

func scanIncidentRow(rows *sql.Rows) (Incident, error) {
	var inc Incident
	var kejadian, chat sql.NullTime
	if err := rows.Scan(&inc.ID, &inc.IncidentID, &inc.Status, &inc.ProjectName, &inc.Description, &inc.IncidentType, &inc.Impact, &inc.PIC, &inc.PhoneNumber, &kejadian, &chat, &inc.CreatedAt, &inc.UpdatedAt); err != nil {
		return inc, err
	}
	if kejadian.Valid {
		inc.WaktuKejadian = &kejadian.Time
	}
	if chat.Valid {
		inc.WaktuChat = &chat.Time
	}
	return inc, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed")
}
