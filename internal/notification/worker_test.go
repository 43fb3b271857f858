package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tour-ops-backend/internal/model"
	"tour-ops-backend/internal/store"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	mu       sync.Mutex
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SendFunc(payload, sub, options)
}

func response(code int) *http.Response {
	return &http.Response{StatusCode: code, Body: io.NopCloser(bytes.NewBufferString(""))}
}

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.PushSubscription{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

var busy = BusyHour{Day: "2026-10-18", Hour: 9, Bookings: 3, Weight: 7, Threshold: 5}

func TestBusyHour_Message(t *testing.T) {
	assert.Equal(t, "Busy hour 2026-10-18 09:00: 3 departures, 7 seats/vehicles (threshold 5)", busy.Message())
}

func TestWorkerPool_Dispatch(t *testing.T) {
	wp := NewWorkerPool(1, store.NewGormStore(newSQLiteDB(t)), &webpush.Options{})

	wp.Dispatch(busy)

	select {
	case job := <-wp.Jobs():
		assert.Equal(t, busy, job)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_SendsToEverySubscription(t *testing.T) {
	db := newSQLiteDB(t)
	require.NoError(t, db.Create(&[]model.PushSubscription{
		{Endpoint: "https://example.com/a", P256DH: "pa", Auth: "aa"},
		{Endpoint: "https://example.com/b", P256DH: "pb", Auth: "ab"},
	}).Error)

	wp := NewWorkerPool(1, store.NewGormStore(db), &webpush.Options{})
	var endpoints []string
	wp.sender = &mockSender{SendFunc: func(payload []byte, sub *webpush.Subscription, _ *webpush.Options) (*http.Response, error) {
		var msg struct {
			Title string   `json:"title"`
			Body  string   `json:"body"`
			Data  BusyHour `json:"data"`
		}
		require.NoError(t, json.Unmarshal(payload, &msg))
		assert.Equal(t, busy, msg.Data)
		assert.Equal(t, busy.Message(), msg.Body)
		endpoints = append(endpoints, sub.Endpoint)
		return response(http.StatusCreated), nil
	}}

	wp.sendBusyHour(context.Background(), busy)

	assert.ElementsMatch(t, []string{"https://example.com/a", "https://example.com/b"}, endpoints)
}

func TestWorkerPool_DeletesExpiredSubscription(t *testing.T) {
	db := newSQLiteDB(t)
	require.NoError(t, db.Create(&[]model.PushSubscription{
		{Endpoint: "https://example.com/gone", P256DH: "p", Auth: "a"},
		{Endpoint: "https://example.com/live", P256DH: "p", Auth: "a"},
	}).Error)

	wp := NewWorkerPool(1, store.NewGormStore(db), &webpush.Options{})
	wp.sender = &mockSender{SendFunc: func(_ []byte, sub *webpush.Subscription, _ *webpush.Options) (*http.Response, error) {
		if strings.HasSuffix(sub.Endpoint, "gone") {
			return response(http.StatusGone), nil
		}
		return response(http.StatusCreated), nil
	}}

	wp.sendBusyHour(context.Background(), busy)

	var left []model.PushSubscription
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "https://example.com/live", left[0].Endpoint)
}

func TestWorkerPool_SendErrorKeepsSubscription(t *testing.T) {
	db := newSQLiteDB(t)
	require.NoError(t, db.Create(&model.PushSubscription{Endpoint: "https://example.com/flaky", P256DH: "p", Auth: "a"}).Error)

	wp := NewWorkerPool(1, store.NewGormStore(db), &webpush.Options{})
	wp.sender = &mockSender{SendFunc: func([]byte, *webpush.Subscription, *webpush.Options) (*http.Response, error) {
		return nil, fmt.Errorf("connection reset")
	}}

	wp.sendBusyHour(context.Background(), busy)

	var count int64
	require.NoError(t, db.Model(&model.PushSubscription{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	wp := NewWorkerPool(1, store.NewGormStore(gormDB), &webpush.Options{})
	var wg sync.WaitGroup
	wg.Add(1)
	wp.sender = &mockSender{SendFunc: func(_ []byte, sub *webpush.Subscription, _ *webpush.Options) (*http.Response, error) {
		assert.Equal(t, "https://example.com/push", sub.Endpoint)
		wg.Done()
		return response(http.StatusCreated), nil
	}}

	mock.ExpectQuery(`SELECT \* FROM "push_subscriptions"`).
		WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
			AddRow("https://example.com/push", "p", "a", time.Now()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)
	wp.Dispatch(busy)
	wg.Wait()

	assert.NoError(t, mock.ExpectationsWereMet())
}
