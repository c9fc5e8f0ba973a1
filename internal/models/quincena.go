package models

import "time"

// Period identifies a biweekly bucket: half 1 covers days 1-15, half 2
// covers day 16 through the end of the month.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Half  int `json:"half"`
}

// ResolvePeriod maps a date to its quincenal period. Pure and total; the
// aggregation path and the "current period" endpoint share it so the two
// can never disagree on the boundary.
func ResolvePeriod(date time.Time) Period {
	half := 1
	if date.Day() > 15 {
		half = 2
	}
	return Period{
		Year:  date.Year(),
		Month: int(date.Month()),
		Half:  half,
	}
}

// QuincenaCounter is an additive accumulator row keyed by room and period.
// Rows are only ever incremented or recomputed, never deleted.
type QuincenaCounter struct {
	RoomID              string    `db:"room_id" json:"room_id"`
	RoomName            string    `db:"room_name" json:"room_name"`
	Year                int       `db:"year" json:"year"`
	Month               int       `db:"month" json:"month"`
	Half                int       `db:"half" json:"half"`
	MinutesLateEntries  int       `db:"minutes_late_entries" json:"minutes_late"`
	MinutesEarlyClosure int       `db:"minutes_early_closures" json:"minutes_early"`
	CountLateEntries    int       `db:"count_late_entries" json:"count_late"`
	CountEarlyClosure   int       `db:"count_early_closures" json:"count_early"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// CounterIncrement describes a single additive update to one bucket.
type CounterIncrement struct {
	RoomID   string
	Category CounterCategory
	Value    int
	Date     time.Time
}

// QuincenaStatsFilter selects counter rows for reporting.
type QuincenaStatsFilter struct {
	Year   int
	Month  int
	RoomID string
}
