package model

import "time"

// Category is a menu section together with its raw schedule columns.
// Only the columns relevant to ScheduleType are expected to be set.
type Category struct {
	ID           int64  `gorm:"primaryKey"`
	VenueID      int64  `gorm:"index;not null"`
	Name         string `gorm:"size:128;not null"`
	DisplayOrder int    `gorm:"not null;default:0"`
	IsActive     bool   `gorm:"not null;default:true"`

	ScheduleType  string  `gorm:"size:32;not null;default:'always'"`
	StartTime     *string `gorm:"size:5"`  // "HH:MM"
	EndTime       *string `gorm:"size:5"`  // "HH:MM"
	DaysOfWeek    string  `gorm:"size:64"` // "mon,tue,wed"
	StartDate     *string `gorm:"size:10"` // "2006-01-02"
	EndDate       *string `gorm:"size:10"`
	EventActive   bool    `gorm:"not null;default:false"`
	EventName     string  `gorm:"size:128"`
	EventPriority int     `gorm:"not null;default:0"`
	StartMonth    *int
	StartDay      *int
	EndMonth      *int
	EndDay        *int

	CreatedAt time.Time
	UpdatedAt time.Time

	// Associations
	Items []MenuItem `gorm:"foreignKey:CategoryID"`
}

// MenuItem is a single orderable dish.
type MenuItem struct {
	ID           int64  `gorm:"primaryKey"`
	CategoryID   int64  `gorm:"index;not null"`
	Name         string `gorm:"size:256;not null"`
	Description  string `gorm:"size:1024"`
	PriceCents   int64  `gorm:"not null;default:0"`
	DisplayOrder int    `gorm:"not null;default:0"`
	Available    bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
