package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog/log"

	"tour-ops-backend/internal/model"
	"tour-ops-backend/internal/store"
)

// BusyHour is one alert job: an hour of a day whose departure load crossed the threshold.
type BusyHour struct {
	Day       string `json:"day"`
	Hour      int    `json:"hour"`
	Bookings  int    `json:"bookings"`
	Weight    int    `json:"totalSeatOrVehicle"`
	Threshold int    `json:"busyThreshold"`
}

// Message is the human readable alert text.
func (b BusyHour) Message() string {
	return fmt.Sprintf("Busy hour %s %02d:00: %d departures, %d seats/vehicles (threshold %d)",
		b.Day, b.Hour, b.Bookings, b.Weight, b.Threshold)
}

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers for sending busy-hour alerts.
type WorkerPool struct {
	size    int
	jobs    chan BusyHour
	store   store.Store
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, s store.Store, webpushOptions *webpush.Options) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan BusyHour, size*HoursBuffer),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// HoursBuffer lets a whole day of busy hours queue per worker without blocking the live loop.
const HoursBuffer = 24

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Debug().Int("worker", id).Msg("notification worker started")
	for {
		select {
		case job := <-wp.jobs:
			log.Info().Int("worker", id).Str("day", job.Day).Int("hour", job.Hour).Msg("sending busy-hour alert")
			wp.sendBusyHour(ctx, job)
		case <-ctx.Done():
			log.Debug().Int("worker", id).Msg("notification worker shutting down")
			return
		}
	}
}

// Dispatch queues an alert. It blocks only when every buffer slot is taken.
func (wp *WorkerPool) Dispatch(job BusyHour) {
	wp.jobs <- job
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan BusyHour {
	return wp.jobs
}

func (wp *WorkerPool) sendBusyHour(ctx context.Context, job BusyHour) {
	subscriptions, err := wp.store.Subscriptions(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to load push subscriptions")
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(struct {
		Title string   `json:"title"`
		Body  string   `json:"body"`
		Data  BusyHour `json:"data"`
	}{Title: "Busy hour", Body: job.Message(), Data: job})
	if err != nil {
		log.Error().Err(err).Msg("failed to encode busy-hour alert")
		return
	}

	log.Info().Int("subscriptions", len(subscriptions)).Str("day", job.Day).Int("hour", job.Hour).Msg("sending busy-hour notifications")
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Warn().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to send notification")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		log.Info().Str("endpoint", sub.Endpoint).Msg("subscription expired, deleting")
		if err := wp.store.DB().WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to delete expired subscription")
		}
	}
}
