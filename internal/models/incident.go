package models

import "time"

// IncidentStatus captures the triage lifecycle of an incident.
type IncidentStatus string

const (
	IncidentStatusNew        IncidentStatus = "NEW"
	IncidentStatusAssigned   IncidentStatus = "ASSIGNED"
	IncidentStatusInProgress IncidentStatus = "IN_PROGRESS"
	IncidentStatusResolved   IncidentStatus = "RESOLVED"
	IncidentStatusClosed     IncidentStatus = "CLOSED"
)

// IncidentPriority orders incidents for triage.
type IncidentPriority string

const (
	PriorityLow      IncidentPriority = "LOW"
	PriorityMedium   IncidentPriority = "MEDIUM"
	PriorityHigh     IncidentPriority = "HIGH"
	PriorityCritical IncidentPriority = "CRITICAL"
)

// Incident is a reported event in a casino room.
type Incident struct {
	ID               string           `db:"id" json:"id"`
	RoomID           string           `db:"room_id" json:"room_id"`
	ClassificationID string           `db:"classification_id" json:"classification_id"`
	Priority         IncidentPriority `db:"priority" json:"priority"`
	Status           IncidentStatus   `db:"status" json:"status"`
	Description      string           `db:"description" json:"description"`
	NumericValue     *int             `db:"numeric_value" json:"numeric_value,omitempty"`
	OccurredAt       time.Time        `db:"occurred_at" json:"occurred_at"`
	ReportedBy       string           `db:"reported_by" json:"reported_by"`
	AssignedTo       *string          `db:"assigned_to" json:"assigned_to,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// IncidentFilter captures listing criteria for incidents.
type IncidentFilter struct {
	RoomID     string
	Status     *IncidentStatus
	Priority   *IncidentPriority
	AssignedTo string
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PageSize   int
}

// ValidTransition reports whether an incident may move between the two states.
func ValidTransition(from, to IncidentStatus) bool {
	allowed := map[IncidentStatus][]IncidentStatus{
		IncidentStatusNew:        {IncidentStatusAssigned, IncidentStatusClosed},
		IncidentStatusAssigned:   {IncidentStatusInProgress, IncidentStatusClosed},
		IncidentStatusInProgress: {IncidentStatusResolved, IncidentStatusClosed},
		IncidentStatusResolved:   {IncidentStatusClosed, IncidentStatusInProgress},
	}
	for _, next := range allowed[from] {
		if next == to {
			return true
		}
	}
	return false
}
