package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ultraval/secure-desk-api/internal/models"
)

// IncidentRepository manages persistence for reported incidents.
type IncidentRepository struct {
	db *sqlx.DB
}

// NewIncidentRepository constructs a new repository.
func NewIncidentRepository(db *sqlx.DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

// Create inserts a new incident row.
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	if incident.ID == "" {
		incident.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if incident.CreatedAt.IsZero() {
		incident.CreatedAt = now
	}
	incident.UpdatedAt = now
	if incident.OccurredAt.IsZero() {
		incident.OccurredAt = now
	}
	if incident.Status == "" {
		incident.Status = models.IncidentStatusNew
	}
	const query = `INSERT INTO incidents (id, room_id, classification_id, priority, status, description, numeric_value, occurred_at, reported_by, assigned_to, created_at, updated_at)
VALUES (:id, :room_id, :classification_id, :priority, :status, :description, :numeric_value, :occurred_at, :reported_by, :assigned_to, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, incident); err != nil {
		return fmt.Errorf("create incident: %w", err)
	}
	return nil
}

// GetByID returns an incident by identifier.
func (r *IncidentRepository) GetByID(ctx context.Context, id string) (*models.Incident, error) {
	const query = `SELECT id, room_id, classification_id, priority, status, description, numeric_value, occurred_at, reported_by, assigned_to, created_at, updated_at
FROM incidents WHERE id = $1 LIMIT 1`
	var incident models.Incident
	if err := r.db.GetContext(ctx, &incident, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get incident: %w", err)
	}
	return &incident, nil
}

// List returns incidents per provided filter with total count.
func (r *IncidentRepository) List(ctx context.Context, filter models.IncidentFilter) ([]models.Incident, int, error) {
	base := "FROM incidents"
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.RoomID != "" {
		where = append(where, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Priority != nil {
		where = append(where, fmt.Sprintf("priority = $%d", len(args)+1))
		args = append(args, *filter.Priority)
	}
	if filter.AssignedTo != "" {
		where = append(where, fmt.Sprintf("assigned_to = $%d", len(args)+1))
		args = append(args, filter.AssignedTo)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("occurred_at >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("occurred_at <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	whereClause := strings.Join(where, " AND ")
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size
	query := fmt.Sprintf(`SELECT id, room_id, classification_id, priority, status, description, numeric_value, occurred_at, reported_by, assigned_to, created_at, updated_at
%s WHERE %s ORDER BY occurred_at DESC, created_at DESC LIMIT %d OFFSET %d`, base, whereClause, size, offset)
	var incidents []models.Incident
	if err := r.db.SelectContext(ctx, &incidents, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list incidents: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count incidents: %w", err)
	}
	return incidents, total, nil
}

// Assign routes an incident to a user and marks it ASSIGNED.
func (r *IncidentRepository) Assign(ctx context.Context, id, assigneeID string) error {
	const query = `UPDATE incidents SET assigned_to = $2, status = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, assigneeID, models.IncidentStatusAssigned, time.Now().UTC()); err != nil {
		return fmt.Errorf("assign incident: %w", err)
	}
	return nil
}

// UpdateStatus persists a lifecycle transition.
func (r *IncidentRepository) UpdateStatus(ctx context.Context, id string, status models.IncidentStatus) error {
	const query = `UPDATE incidents SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update incident status: %w", err)
	}
	return nil
}

// StatusCountRow pairs a status label with its count.
type StatusCountRow struct {
	Label string `db:"label"`
	Count int    `db:"count"`
}

// CountByStatusForDay aggregates incident counts per status for one day.
func (r *IncidentRepository) CountByStatusForDay(ctx context.Context, day time.Time) ([]StatusCountRow, error) {
	const query = `SELECT status AS label, COUNT(*) AS count FROM incidents
WHERE occurred_at >= $1 AND occurred_at < $2 GROUP BY status`
	start := day.Truncate(24 * time.Hour)
	var rows []StatusCountRow
	if err := r.db.SelectContext(ctx, &rows, query, start, start.Add(24*time.Hour)); err != nil {
		return nil, fmt.Errorf("count incidents by status: %w", err)
	}
	return rows, nil
}

// CountByPriorityForDay aggregates incident counts per priority for one day.
func (r *IncidentRepository) CountByPriorityForDay(ctx context.Context, day time.Time) ([]StatusCountRow, error) {
	const query = `SELECT priority AS label, COUNT(*) AS count FROM incidents
WHERE occurred_at >= $1 AND occurred_at < $2 GROUP BY priority`
	start := day.Truncate(24 * time.Hour)
	var rows []StatusCountRow
	if err := r.db.SelectContext(ctx, &rows, query, start, start.Add(24*time.Hour)); err != nil {
		return nil, fmt.Errorf("count incidents by priority: %w", err)
	}
	return rows, nil
}
