package dto

import "github.com/ultraval/secure-desk-api/internal/models"

// CreateIncidentRequest submits a new incident from a room.
type CreateIncidentRequest struct {
	RoomID           string  `json:"room_id" validate:"required"`
	ClassificationID string  `json:"classification_id" validate:"required"`
	Priority         string  `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH CRITICAL"`
	Description      string  `json:"description" validate:"required"`
	NumericValue     *int    `json:"numeric_value" validate:"omitempty,min=0"`
	OccurredAt       *string `json:"occurred_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// AssignIncidentRequest routes an incident to a user.
type AssignIncidentRequest struct {
	AssigneeID string `json:"assignee_id" validate:"required"`
}

// UpdateIncidentStatusRequest moves an incident through its lifecycle.
type UpdateIncidentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=NEW ASSIGNED IN_PROGRESS RESOLVED CLOSED"`
}

// CreateIncidentResponse returns the stored incident plus the aggregation
// outcome: "ok", "skipped" (no numeric rule) or "degraded" (best-effort
// counter update failed; the incident itself stands).
type CreateIncidentResponse struct {
	Incident    *models.Incident `json:"incident"`
	Aggregation string           `json:"aggregation"`
}
