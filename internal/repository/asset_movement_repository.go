package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ultraval/secure-desk-api/internal/models"
)

// AssetMovementRepository manages the asset relocation log.
type AssetMovementRepository struct {
	db *sqlx.DB
}

// NewAssetMovementRepository constructs a new repository.
func NewAssetMovementRepository(db *sqlx.DB) *AssetMovementRepository {
	return &AssetMovementRepository{db: db}
}

// Create inserts a new movement record.
func (r *AssetMovementRepository) Create(ctx context.Context, movement *models.AssetMovement) error {
	if movement.ID == "" {
		movement.ID = uuid.NewString()
	}
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now().UTC()
	}
	if movement.MovedAt.IsZero() {
		movement.MovedAt = movement.CreatedAt
	}
	const query = `INSERT INTO asset_movements (id, asset_tag, from_room_id, to_room_id, reason, moved_at, recorded_by, created_at)
VALUES (:id, :asset_tag, :from_room_id, :to_room_id, :reason, :moved_at, :recorded_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, movement); err != nil {
		return fmt.Errorf("create asset movement: %w", err)
	}
	return nil
}

// List returns movement records per provided filter with total count.
func (r *AssetMovementRepository) List(ctx context.Context, filter models.AssetMovementFilter) ([]models.AssetMovement, int, error) {
	base := "FROM asset_movements"
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.AssetTag != "" {
		where = append(where, fmt.Sprintf("asset_tag = $%d", len(args)+1))
		args = append(args, filter.AssetTag)
	}
	if filter.RoomID != "" {
		where = append(where, fmt.Sprintf("(from_room_id = $%d OR to_room_id = $%d)", len(args)+1, len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("moved_at >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("moved_at <= $%d", len(args)+1))
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
	query := fmt.Sprintf(`SELECT id, asset_tag, from_room_id, to_room_id, reason, moved_at, recorded_by, created_at
%s WHERE %s ORDER BY moved_at DESC LIMIT %d OFFSET %d`, base, whereClause, size, offset)
	var movements []models.AssetMovement
	if err := r.db.SelectContext(ctx, &movements, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list asset movements: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count asset movements: %w", err)
	}
	return movements, total, nil
}

// CountForDay returns the number of movements recorded on one calendar day.
func (r *AssetMovementRepository) CountForDay(ctx context.Context, day time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM asset_movements WHERE moved_at >= $1 AND moved_at < $2`
	start := day.Truncate(24 * time.Hour)
	var count int
	if err := r.db.GetContext(ctx, &count, query, start, start.Add(24*time.Hour)); err != nil {
		return 0, fmt.Errorf("count asset movements for day: %w", err)
	}
	return count, nil
}
