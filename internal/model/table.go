package model

import "time"

// DiningTable is a physical table guests can share a session around.
type DiningTable struct {
	ID      int64  `gorm:"primaryKey"`
	VenueID int64  `gorm:"index;not null"`
	Label   string `gorm:"size:64"`
	// Capacity is nullable; callers fall back to the configured default when unset.
	Capacity  *int
	CreatedAt time.Time
	UpdatedAt time.Time
}
