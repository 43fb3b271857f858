package model

import "time"

// Booking is the local replica of one booking reported by the booking API.
// It is owned by the feed; the timeline only reads it.
type Booking struct {
	ID            string   `gorm:"primaryKey;size:64"`
	Day           string   `gorm:"size:10;index;not null"` // YYYY-MM-DD
	StartTime     string   `gorm:"size:8;not null"`
	DurationHours *float64 // nil when upstream did not supply one
	Status        string   `gorm:"size:16;not null"`
	Seats         int      `gorm:"not null;default:0"`
	Vehicles      int      `gorm:"not null;default:0"`
	TourName      string   `gorm:"size:256"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Weight is the load a booking adds to its departure hour.
func (b Booking) Weight() int {
	return b.Seats + b.Vehicles
}
