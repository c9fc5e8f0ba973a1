package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ultraval/secure-desk-api/internal/models"
)

// QuincenaRepository manages the additive biweekly counter store. Buckets
// are keyed by (room_id, year, month, half); increments are commutative so
// concurrent writers never lose updates.
type QuincenaRepository struct {
	db *sqlx.DB
}

// NewQuincenaRepository constructs a new repository.
func NewQuincenaRepository(db *sqlx.DB) *QuincenaRepository {
	return &QuincenaRepository{db: db}
}

const incrementLateEntry = `INSERT INTO quincena_counters (room_id, year, month, half, minutes_late_entries, count_late_entries, minutes_early_closures, count_early_closures, updated_at)
VALUES ($1, $2, $3, $4, $5, 1, 0, 0, $6)
ON CONFLICT (room_id, year, month, half) DO UPDATE SET
	minutes_late_entries = quincena_counters.minutes_late_entries + EXCLUDED.minutes_late_entries,
	count_late_entries = quincena_counters.count_late_entries + 1,
	updated_at = EXCLUDED.updated_at`

const incrementEarlyClosure = `INSERT INTO quincena_counters (room_id, year, month, half, minutes_late_entries, count_late_entries, minutes_early_closures, count_early_closures, updated_at)
VALUES ($1, $2, $3, $4, 0, 0, $5, 1, $6)
ON CONFLICT (room_id, year, month, half) DO UPDATE SET
	minutes_early_closures = quincena_counters.minutes_early_closures + EXCLUDED.minutes_early_closures,
	count_early_closures = quincena_counters.count_early_closures + 1,
	updated_at = EXCLUDED.updated_at`

// Increment applies one additive update to the bucket the increment's date
// resolves to. The upsert races safely: the unique key plus additive
// DO UPDATE makes interleaved writers equivalent to any sequential order.
func (r *QuincenaRepository) Increment(ctx context.Context, inc models.CounterIncrement) error {
	period := models.ResolvePeriod(inc.Date)
	var query string
	switch inc.Category {
	case models.CategoryLateEntry:
		query = incrementLateEntry
	case models.CategoryEarlyClosure:
		query = incrementEarlyClosure
	default:
		return fmt.Errorf("unknown counter category %q", inc.Category)
	}
	if _, err := r.db.ExecContext(ctx, query, inc.RoomID, period.Year, period.Month, period.Half, inc.Value, time.Now().UTC()); err != nil {
		return fmt.Errorf("increment quincena counter: %w", err)
	}
	return nil
}

// FetchMonth returns counter rows for one month, joined with room names,
// optionally restricted to a single room. Both halves come back ordered so
// callers can shape per-room responses without re-sorting.
func (r *QuincenaRepository) FetchMonth(ctx context.Context, filter models.QuincenaStatsFilter) ([]models.QuincenaCounter, error) {
	where := []string{"qc.year = $1", "qc.month = $2"}
	args := []interface{}{filter.Year, filter.Month}
	if filter.RoomID != "" {
		where = append(where, fmt.Sprintf("qc.room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	query := fmt.Sprintf(`SELECT qc.room_id, r.name AS room_name, qc.year, qc.month, qc.half, qc.minutes_late_entries, qc.minutes_early_closures, qc.count_late_entries, qc.count_early_closures, qc.updated_at
FROM quincena_counters qc
JOIN rooms r ON r.id = qc.room_id
WHERE %s
ORDER BY r.name ASC, qc.half ASC`, strings.Join(where, " AND "))
	var counters []models.QuincenaCounter
	if err := r.db.SelectContext(ctx, &counters, query, args...); err != nil {
		return nil, fmt.Errorf("fetch month counters: %w", err)
	}
	return counters, nil
}

// FetchYear returns per-period totals across all rooms for a whole year,
// feeding the timeline endpoint. Room granularity is collapsed in SQL.
func (r *QuincenaRepository) FetchYear(ctx context.Context, year int) ([]models.QuincenaCounter, error) {
	const query = `SELECT '' AS room_id, '' AS room_name, year, month, half,
	COALESCE(SUM(minutes_late_entries), 0) AS minutes_late_entries,
	COALESCE(SUM(minutes_early_closures), 0) AS minutes_early_closures,
	COALESCE(SUM(count_late_entries), 0) AS count_late_entries,
	COALESCE(SUM(count_early_closures), 0) AS count_early_closures,
	MAX(updated_at) AS updated_at
FROM quincena_counters
WHERE year = $1
GROUP BY year, month, half
ORDER BY month ASC, half ASC`
	var counters []models.QuincenaCounter
	if err := r.db.SelectContext(ctx, &counters, query, year); err != nil {
		return nil, fmt.Errorf("fetch year counters: %w", err)
	}
	return counters, nil
}

const rebuildZeroWindow = `UPDATE quincena_counters SET
	minutes_late_entries = 0,
	count_late_entries = 0,
	minutes_early_closures = 0,
	count_early_closures = 0,
	updated_at = $3
WHERE make_date(year, month, 1) >= date_trunc('month', $1::timestamptz)::date
  AND make_date(year, month, 1) < $2::timestamptz::date`

const rebuildFromIncidents = `INSERT INTO quincena_counters (room_id, year, month, half, minutes_late_entries, minutes_early_closures, count_late_entries, count_early_closures, updated_at)
SELECT i.room_id,
	EXTRACT(YEAR FROM i.occurred_at)::int,
	EXTRACT(MONTH FROM i.occurred_at)::int,
	CASE WHEN EXTRACT(DAY FROM i.occurred_at) <= 15 THEN 1 ELSE 2 END,
	COALESCE(SUM(CASE WHEN c.numeric_rule->>'category' = 'late_entry' THEN COALESCE(i.numeric_value, 0) ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN c.numeric_rule->>'category' = 'early_closure' THEN COALESCE(i.numeric_value, 0) ELSE 0 END), 0),
	COUNT(*) FILTER (WHERE c.numeric_rule->>'category' = 'late_entry'),
	COUNT(*) FILTER (WHERE c.numeric_rule->>'category' = 'early_closure'),
	$3
FROM incidents i
JOIN classifications c ON c.id = i.classification_id
WHERE (c.numeric_rule->>'enabled')::boolean
  AND i.occurred_at >= $1 AND i.occurred_at < $2
GROUP BY 1, 2, 3, 4
ON CONFLICT (room_id, year, month, half) DO UPDATE SET
	minutes_late_entries = EXCLUDED.minutes_late_entries,
	minutes_early_closures = EXCLUDED.minutes_early_closures,
	count_late_entries = EXCLUDED.count_late_entries,
	count_early_closures = EXCLUDED.count_early_closures,
	updated_at = EXCLUDED.updated_at`

// RebuildWindow recomputes every bucket inside [from, to) from the incident
// log, overwriting whatever the live additive path accumulated. Buckets with
// no surviving incidents are zeroed rather than deleted so the window ends up
// exactly equal to the recomputation. Returns the number of rebuilt buckets.
func (r *QuincenaRepository) RebuildWindow(ctx context.Context, from, to time.Time) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin rebuild tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, rebuildZeroWindow, from, to, now); err != nil {
		return 0, fmt.Errorf("zero counter window: %w", err)
	}
	res, err := tx.ExecContext(ctx, rebuildFromIncidents, from, to, now)
	if err != nil {
		return 0, fmt.Errorf("rebuild counters from incidents: %w", err)
	}
	rebuilt, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rebuild rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit rebuild tx: %w", err)
	}
	return int(rebuilt), nil
}
