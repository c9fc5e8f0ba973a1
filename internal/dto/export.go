package dto

import "github.com/ultraval/secure-desk-api/internal/models"

// ExportRequest queues an asynchronous report export.
type ExportRequest struct {
	Type   models.ExportType   `json:"type" validate:"required,oneof=quincena daily"`
	Year   int                 `json:"year" validate:"omitempty,min=2000,max=2100"`
	Month  int                 `json:"month" validate:"omitempty,min=1,max=12"`
	Date   string              `json:"date" validate:"omitempty,datetime=2006-01-02"`
	RoomID *string             `json:"room_id,omitempty"`
	Format models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportJobResponse acknowledges a queued job.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes job progress and the signed download URL.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"result_url,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
