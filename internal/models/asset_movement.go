package models

import "time"

// AssetMovement logs an asset relocation between rooms.
type AssetMovement struct {
	ID         string    `db:"id" json:"id"`
	AssetTag   string    `db:"asset_tag" json:"asset_tag"`
	FromRoomID *string   `db:"from_room_id" json:"from_room_id,omitempty"`
	ToRoomID   string    `db:"to_room_id" json:"to_room_id"`
	Reason     string    `db:"reason" json:"reason"`
	MovedAt    time.Time `db:"moved_at" json:"moved_at"`
	RecordedBy string    `db:"recorded_by" json:"recorded_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AssetMovementFilter captures listing criteria for movements.
type AssetMovementFilter struct {
	AssetTag string
	RoomID   string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}
