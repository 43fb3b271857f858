package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tour-ops-backend/internal/model"
)

// newSQLiteDB opens a private in-memory database with the service schema.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(&model.Booking{}, &model.OperatorSettings{}, &model.BusyHourAlert{}, &model.PushSubscription{}))

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return gormDB
}

// A helper function to create a mock database connection.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

func duration(h float64) *float64 {
	return &h
}

func ids(bookings []model.Booking) []string {
	out := make([]string, len(bookings))
	for i, b := range bookings {
		out[i] = b.ID
	}
	return out
}

func TestGormStore_ReplaceDay(t *testing.T) {
	ctx := context.Background()
	s := NewGormStore(newSQLiteDB(t))

	first := []model.Booking{
		{ID: "b2", Day: "2026-10-18", StartTime: "11:00", DurationHours: duration(2), Status: "confirmed", Seats: 3},
		{ID: "b1", Day: "2026-10-18", StartTime: "09:00", Status: "confirmed", Seats: 2, Vehicles: 1},
		{ID: "other", Day: "2026-10-19", StartTime: "09:00", Status: "confirmed"},
	}
	require.NoError(t, s.ReplaceDay(ctx, "2026-10-18", first[:2]))
	require.NoError(t, s.ReplaceDay(ctx, "2026-10-19", first[2:]))

	got, err := s.BookingsForDay(ctx, "2026-10-18")
	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "b2"}, ids(got), "ordered by departure")
	assert.Nil(t, got[0].DurationHours)
	assert.Equal(t, 3, got[0].Weight())
	require.NotNil(t, got[1].DurationHours)
	assert.Equal(t, 2.0, *got[1].DurationHours)

	// b1 disappears from the feed, b2 is rescheduled, b3 is new.
	second := []model.Booking{
		{ID: "b2", Day: "2026-10-18", StartTime: "08:00", DurationHours: duration(1), Status: "completed", Seats: 3},
		{ID: "b3", Day: "2026-10-18", StartTime: "14:30", Status: "cancelled", Seats: 1},
	}
	require.NoError(t, s.ReplaceDay(ctx, "2026-10-18", second))

	got, err = s.BookingsForDay(ctx, "2026-10-18")
	require.NoError(t, err)
	assert.Equal(t, []string{"b2", "b3"}, ids(got))
	assert.Equal(t, "08:00", got[0].StartTime)
	assert.Equal(t, "completed", got[0].Status)

	other, err := s.BookingsForDay(ctx, "2026-10-19")
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, ids(other), "other days are untouched")

	// An empty report clears the day.
	require.NoError(t, s.ReplaceDay(ctx, "2026-10-18", nil))
	got, err = s.BookingsForDay(ctx, "2026-10-18")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGormStore_BusyThreshold(t *testing.T) {
	ctx := context.Background()
	s := NewGormStore(newSQLiteDB(t))

	threshold, err := s.BusyThreshold(ctx)
	require.NoError(t, err)
	assert.Nil(t, threshold, "no settings saved yet")

	require.NoError(t, s.SetBusyThreshold(ctx, 7))
	require.NoError(t, s.SetBusyThreshold(ctx, 9))

	threshold, err = s.BusyThreshold(ctx)
	require.NoError(t, err)
	require.NotNil(t, threshold)
	assert.Equal(t, 9, *threshold)

	assert.Error(t, s.SetBusyThreshold(ctx, -1))
}

func TestGormStore_RecordBusyHour(t *testing.T) {
	ctx := context.Background()
	s := NewGormStore(newSQLiteDB(t))
	now := time.Now()

	created, err := s.RecordBusyHour(ctx, "2026-10-18", 10, 6, now)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.RecordBusyHour(ctx, "2026-10-18", 10, 8, now)
	require.NoError(t, err)
	assert.False(t, created, "an hour is alerted once per day")

	created, err = s.RecordBusyHour(ctx, "2026-10-19", 10, 6, now)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestGormStore_Subscriptions(t *testing.T) {
	ctx := context.Background()
	gormDB := newSQLiteDB(t)
	s := NewGormStore(gormDB)

	require.NoError(t, gormDB.Create(&model.PushSubscription{Endpoint: "https://push.example/1", P256DH: "k", Auth: "a"}).Error)

	subs, err := s.Subscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "https://push.example/1", subs[0].Endpoint)
}

func TestGormStore_BookingsForDayQueryFailure(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "bookings" WHERE day = $1`)).
		WithArgs("2026-10-18").
		WillReturnError(errors.New("connection reset"))

	_, err := s.BookingsForDay(context.Background(), "2026-10-18")
	assert.ErrorContains(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_ReplaceDayRollsBackOnFailure(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "bookings" WHERE day = $1 AND id NOT IN ($2)`)).
		WithArgs("2026-10-18", "b1").
		WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	err := s.ReplaceDay(context.Background(), "2026-10-18", []model.Booking{{ID: "b1", Day: "2026-10-18", StartTime: "09:00"}})
	assert.ErrorContains(t, err, "lock timeout")
	assert.NoError(t, mock.ExpectationsWereMet())
}
