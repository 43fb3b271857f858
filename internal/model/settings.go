package model

import "time"

// SettingsID is the primary key of the single operator settings row.
const SettingsID = 1

// OperatorSettings is the persisted configuration record edited from the settings screen.
type OperatorSettings struct {
	ID            uint `gorm:"primaryKey"`
	BusyThreshold int  `gorm:"not null"`
	UpdatedAt     time.Time
}

// BusyHourAlert records that an alert went out for one hour of one day.
type BusyHourAlert struct {
	Day       string    `gorm:"primaryKey;size:10"`
	Hour      int       `gorm:"primaryKey;autoIncrement:false"`
	Weight    int       `gorm:"not null"`
	AlertedAt time.Time `gorm:"not null"`
}

func (OperatorSettings) TableName() string { return "operator_settings" }

func (BusyHourAlert) TableName() string { return "busy_hour_alerts" }
