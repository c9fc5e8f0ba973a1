package models

import "time"

// Room represents a monitored casino room.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Venue     string    `db:"venue" json:"venue"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RoomFilter captures listing criteria for rooms.
type RoomFilter struct {
	Active   *bool
	Search   string
	Page     int
	PageSize int
}
