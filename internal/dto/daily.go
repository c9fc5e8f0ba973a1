package dto

// DailyIncidentSection aggregates incident counts for one day.
type DailyIncidentSection struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
}

// DailyPaymentSection aggregates finance activity for one day.
type DailyPaymentSection struct {
	Count      int   `json:"count"`
	TotalCents int64 `json:"total_cents"`
}

// DailyMovementSection aggregates asset movements for one day.
type DailyMovementSection struct {
	Count int `json:"count"`
}

// DailyReportResponse is the consolidated daily report payload.
type DailyReportResponse struct {
	Date      string               `json:"date"`
	Incidents DailyIncidentSection `json:"incidents"`
	Payments  DailyPaymentSection  `json:"payments"`
	Movements DailyMovementSection `json:"movements"`
}
