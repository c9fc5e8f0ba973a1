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

// PaymentRepository manages the finance ledger.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs a new repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a new ledger entry.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	if payment.PaidAt.IsZero() {
		payment.PaidAt = payment.CreatedAt
	}
	const query = `INSERT INTO payments (id, incident_id, amount_cents, currency, method, reference, paid_at, recorded_by, created_at)
VALUES (:id, :incident_id, :amount_cents, :currency, :method, :reference, :paid_at, :recorded_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// GetByID returns a ledger entry by identifier.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	const query = `SELECT id, incident_id, amount_cents, currency, method, reference, paid_at, recorded_by, created_at FROM payments WHERE id = $1 LIMIT 1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &payment, nil
}

// List returns ledger entries per provided filter with total count.
func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error) {
	base := "FROM payments"
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.IncidentID != "" {
		where = append(where, fmt.Sprintf("incident_id = $%d", len(args)+1))
		args = append(args, filter.IncidentID)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("paid_at >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("paid_at <= $%d", len(args)+1))
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
	query := fmt.Sprintf(`SELECT id, incident_id, amount_cents, currency, method, reference, paid_at, recorded_by, created_at
%s WHERE %s ORDER BY paid_at DESC LIMIT %d OFFSET %d`, base, whereClause, size, offset)
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	return payments, total, nil
}

// SumForDay returns entry count and cents total for one calendar day.
func (r *PaymentRepository) SumForDay(ctx context.Context, day time.Time) (int, int64, error) {
	const query = `SELECT COUNT(*) AS count, COALESCE(SUM(amount_cents), 0) AS total FROM payments WHERE paid_at >= $1 AND paid_at < $2`
	start := day.Truncate(24 * time.Hour)
	var row struct {
		Count int   `db:"count"`
		Total int64 `db:"total"`
	}
	if err := r.db.GetContext(ctx, &row, query, start, start.Add(24*time.Hour)); err != nil {
		return 0, 0, fmt.Errorf("sum payments for day: %w", err)
	}
	return row.Count, row.Total, nil
}
