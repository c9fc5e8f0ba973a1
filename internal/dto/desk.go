package dto

import "github.com/ultraval/secure-desk-api/internal/models"

// CreateRoomRequest registers a monitored room.
type CreateRoomRequest struct {
	Name  string `json:"name" validate:"required"`
	Venue string `json:"venue" validate:"required"`
}

// UpdateRoomRequest edits an existing room.
type UpdateRoomRequest struct {
	Name   string `json:"name" validate:"required"`
	Venue  string `json:"venue" validate:"required"`
	Active *bool  `json:"active"`
}

// CreateClassificationRequest registers an incident classification.
type CreateClassificationRequest struct {
	Name        string             `json:"name" validate:"required"`
	Description string             `json:"description"`
	NumericRule models.NumericRule `json:"numeric_rule"`
}

// UpdateClassificationRequest edits a classification.
type UpdateClassificationRequest struct {
	Name        string             `json:"name" validate:"required"`
	Description string             `json:"description"`
	NumericRule models.NumericRule `json:"numeric_rule"`
	Active      *bool              `json:"active"`
}

// CreateUserRequest provisions an account.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=SUPERADMIN SUPERVISOR OPERATOR FINANCE RRHH MAINTENANCE"`
}

// UpdateUserRequest edits an account.
type UpdateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=SUPERADMIN SUPERVISOR OPERATOR FINANCE RRHH MAINTENANCE"`
	Active   *bool  `json:"active"`
}

// CreatePaymentRequest records an incident-related payment.
type CreatePaymentRequest struct {
	IncidentID  string `json:"incident_id" validate:"required"`
	AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
	Currency    string `json:"currency" validate:"required,len=3"`
	Method      string `json:"method" validate:"required,oneof=CASH TRANSFER CARD"`
	Reference   string `json:"reference"`
	PaidAt      string `json:"paid_at" validate:"omitempty,datetime=2006-01-02"`
}

// CreateAssetMovementRequest records an asset relocation.
type CreateAssetMovementRequest struct {
	AssetTag   string  `json:"asset_tag" validate:"required"`
	FromRoomID *string `json:"from_room_id"`
	ToRoomID   string  `json:"to_room_id" validate:"required"`
	Reason     string  `json:"reason" validate:"required"`
	MovedAt    string  `json:"moved_at" validate:"omitempty,datetime=2006-01-02"`
}

// CapabilitiesResponse returns the caller's resolved capability set.
type CapabilitiesResponse struct {
	Role         models.UserRole `json:"role"`
	Capabilities []string        `json:"capabilities"`
}
