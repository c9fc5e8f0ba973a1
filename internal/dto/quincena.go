package dto

import "github.com/ultraval/secure-desk-api/internal/models"

// PeriodStatsRow is one counter bucket flattened for API consumption.
type PeriodStatsRow struct {
	RoomID       string `json:"room_id"`
	RoomName     string `json:"room_name"`
	Year         int    `json:"year"`
	Month        int    `json:"month"`
	Half         int    `json:"half"`
	MinutesLate  int    `json:"minutes_late"`
	MinutesEarly int    `json:"minutes_early"`
	CountLate    int    `json:"count_late"`
	CountEarly   int    `json:"count_early"`
}

// RoomTotals sums both halves of a month per room for table/chart views.
type RoomTotals struct {
	RoomID       string `json:"room_id"`
	RoomName     string `json:"room_name"`
	MinutesLate  int    `json:"minutes_late"`
	MinutesEarly int    `json:"minutes_early"`
	CountLate    int    `json:"count_late"`
	CountEarly   int    `json:"count_early"`
	TotalMinutes int    `json:"total_minutes"`
	TotalCount   int    `json:"total_count"`
}

// MonthStatsResponse is the month-view reporting payload.
type MonthStatsResponse struct {
	Year   int              `json:"year"`
	Month  int              `json:"month"`
	RoomID *string          `json:"room_id,omitempty"`
	Rows   []PeriodStatsRow `json:"rows"`
	Totals []RoomTotals     `json:"totals"`
}

// TimelinePoint is one period's aggregate across all rooms.
type TimelinePoint struct {
	Year         int `json:"year"`
	Month        int `json:"month"`
	Half         int `json:"half"`
	MinutesLate  int `json:"minutes_late"`
	MinutesEarly int `json:"minutes_early"`
	CountLate    int `json:"count_late"`
	CountEarly   int `json:"count_early"`
}

// TimelineResponse spans the selected year and the previous one. A year
// without data yields an empty series, not an error.
type TimelineResponse struct {
	Year     int             `json:"year"`
	Current  []TimelinePoint `json:"current"`
	Previous []TimelinePoint `json:"previous"`
}

// CurrentPeriodResponse echoes the server-side period resolution.
type CurrentPeriodResponse struct {
	Period models.Period `json:"period"`
	Date   string        `json:"date"`
}

// ReconcileRequest triggers an on-demand counter recomputation.
type ReconcileRequest struct {
	Full   bool `json:"full"`
	Months int  `json:"months" validate:"omitempty,min=1,max=24"`
}

// ReconcileResponse summarises a reconciliation run.
type ReconcileResponse struct {
	BucketsRebuilt int    `json:"buckets_rebuilt"`
	Window         string `json:"window"`
}
