package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tour-ops-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	ReplaceDay(ctx context.Context, day string, bookings []model.Booking) error
	BookingsForDay(ctx context.Context, day string) ([]model.Booking, error)
	BusyThreshold(ctx context.Context) (*int, error)
	SetBusyThreshold(ctx context.Context, threshold int) error
	RecordBusyHour(ctx context.Context, day string, hour, weight int, at time.Time) (bool, error)
	Subscriptions(ctx context.Context) ([]model.PushSubscription, error)
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// ReplaceDay makes the stored list for day equal to bookings: reported rows are
// upserted, rows of that day the feed no longer reports are removed.
func (s *gormStore) ReplaceDay(ctx context.Context, day string, bookings []model.Booking) error {
	ids := make([]string, 0, len(bookings))
	for i := range bookings {
		ids = append(ids, bookings[i].ID)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stale := tx.Where("day = ?", day)
		if len(ids) > 0 {
			stale = stale.Where("id NOT IN ?", ids)
		}
		res := stale.Delete(&model.Booking{})
		if res.Error != nil {
			return fmt.Errorf("failed to remove stale bookings for %s: %w", day, res.Error)
		}
		if res.RowsAffected > 0 {
			log.Info().Str("day", day).Int64("removed", res.RowsAffected).Msg("bookings no longer reported by the feed")
		}

		if len(bookings) == 0 {
			return nil
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"day", "start_time", "duration_hours", "status", "seats", "vehicles", "tour_name", "updated_at",
			}),
		}).Create(&bookings).Error; err != nil {
			return fmt.Errorf("failed to upsert bookings for %s: %w", day, err)
		}
		return nil
	})
}

// BookingsForDay returns the day's bookings in departure order. Ties keep the
// order in which the bookings were first seen.
func (s *gormStore) BookingsForDay(ctx context.Context, day string) ([]model.Booking, error) {
	var bookings []model.Booking
	if err := s.db.WithContext(ctx).
		Where("day = ?", day).
		Order("start_time, created_at, id").
		Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to load bookings for %s: %w", day, err)
	}
	return bookings, nil
}

// BusyThreshold returns the saved threshold, or nil when none was saved yet.
func (s *gormStore) BusyThreshold(ctx context.Context) (*int, error) {
	var settings model.OperatorSettings
	err := s.db.WithContext(ctx).First(&settings, model.SettingsID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load operator settings: %w", err)
	}
	return &settings.BusyThreshold, nil
}

func (s *gormStore) SetBusyThreshold(ctx context.Context, threshold int) error {
	if threshold < 0 {
		return fmt.Errorf("busy threshold must not be negative, got %d", threshold)
	}
	settings := model.OperatorSettings{ID: model.SettingsID, BusyThreshold: threshold}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"busy_threshold", "updated_at"}),
	}).Create(&settings).Error; err != nil {
		return fmt.Errorf("failed to save operator settings: %w", err)
	}
	return nil
}

// RecordBusyHour stores the alert for (day, hour) and reports whether it is new.
func (s *gormStore) RecordBusyHour(ctx context.Context, day string, hour, weight int, at time.Time) (bool, error) {
	alert := model.BusyHourAlert{Day: day, Hour: hour, Weight: weight, AlertedAt: at}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&alert)
	if res.Error != nil {
		return false, fmt.Errorf("failed to record busy hour %s %02d:00: %w", day, hour, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *gormStore) Subscriptions(ctx context.Context) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to load push subscriptions: %w", err)
	}
	return subs, nil
}
