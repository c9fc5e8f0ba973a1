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

// ClassificationRepository manages persistence for incident classifications.
type ClassificationRepository struct {
	db *sqlx.DB
}

// NewClassificationRepository constructs a new repository.
func NewClassificationRepository(db *sqlx.DB) *ClassificationRepository {
	return &ClassificationRepository{db: db}
}

// List returns classifications per provided filter with total count.
func (r *ClassificationRepository) List(ctx context.Context, filter models.ClassificationFilter) ([]models.Classification, int, error) {
	base := "FROM classifications"
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Active != nil {
		where = append(where, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
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
	query := fmt.Sprintf(`SELECT id, name, description, numeric_rule, active, created_at, updated_at
%s WHERE %s ORDER BY name ASC LIMIT %d OFFSET %d`, base, whereClause, size, offset)
	var classifications []models.Classification
	if err := r.db.SelectContext(ctx, &classifications, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classifications: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classifications: %w", err)
	}
	return classifications, total, nil
}

// GetByID returns a classification by identifier.
func (r *ClassificationRepository) GetByID(ctx context.Context, id string) (*models.Classification, error) {
	const query = `SELECT id, name, description, numeric_rule, active, created_at, updated_at FROM classifications WHERE id = $1 LIMIT 1`
	var classification models.Classification
	if err := r.db.GetContext(ctx, &classification, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get classification: %w", err)
	}
	return &classification, nil
}

// Create inserts a new classification.
func (r *ClassificationRepository) Create(ctx context.Context, classification *models.Classification) error {
	if classification.ID == "" {
		classification.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if classification.CreatedAt.IsZero() {
		classification.CreatedAt = now
	}
	classification.UpdatedAt = now
	const query = `INSERT INTO classifications (id, name, description, numeric_rule, active, created_at, updated_at)
VALUES (:id, :name, :description, :numeric_rule, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, classification); err != nil {
		return fmt.Errorf("create classification: %w", err)
	}
	return nil
}

// Update modifies an existing classification.
func (r *ClassificationRepository) Update(ctx context.Context, classification *models.Classification) error {
	classification.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classifications SET name = :name, description = :description, numeric_rule = :numeric_rule, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, classification); err != nil {
		return fmt.Errorf("update classification: %w", err)
	}
	return nil
}
