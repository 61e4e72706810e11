package model

import "time"

// Venue is a tenant restaurant account.
type Venue struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"size:128;not null"`
	// OrderingEnabled is the ordering permission flag owned by the permission layer.
	OrderingEnabled bool      `gorm:"not null;default:false"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`

	// Associations
	Categories []Category    `gorm:"foreignKey:VenueID"`
	Tables     []DiningTable `gorm:"foreignKey:VenueID"`
}
