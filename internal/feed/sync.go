package feed

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"tour-ops-backend/internal/model"
	"tour-ops-backend/internal/parse"
	"tour-ops-backend/internal/store"
	"tour-ops-backend/internal/timeline"
)

// Fetcher is the part of Client the Syncer needs.
type Fetcher interface {
	Fetch(ctx context.Context, day string) ([]ApiBooking, error)
}

// Syncer mirrors one day of the booking API into the local store.
type Syncer struct {
	fetcher Fetcher
	store   store.Store
}

// NewSyncer creates a Syncer.
func NewSyncer(fetcher Fetcher, s store.Store) *Syncer {
	return &Syncer{fetcher: fetcher, store: s}
}

// SyncDay fetches day and replaces the stored list with the result. A failed
// fetch leaves the stored list untouched.
func (s *Syncer) SyncDay(ctx context.Context, day string) (int, error) {
	items, err := s.fetcher.Fetch(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("fetch aborted, stored bookings kept: %w", err)
	}

	rows := make([]model.Booking, 0, len(items))
	for _, item := range items {
		row, ok := toRow(item, day)
		if ok {
			rows = append(rows, row)
		}
	}

	if err := s.store.ReplaceDay(ctx, day, rows); err != nil {
		return 0, err
	}
	log.Info().Str("day", day).Int("bookings", len(rows)).Msg("booking feed synced")
	return len(rows), nil
}

func toRow(item ApiBooking, day string) (model.Booking, bool) {
	if item.ID == "" {
		log.Warn().Str("day", day).Msg("booking without id skipped")
		return model.Booking{}, false
	}
	if item.Date != "" && item.Date != day {
		log.Warn().Str("booking_id", item.ID).Str("date", item.Date).Str("day", day).Msg("booking reported for another day skipped")
		return model.Booking{}, false
	}

	// A malformed start is stored as reported; the timeline leaves it out.
	start := strings.TrimSpace(item.StartTime)
	if clock, err := parse.ParseClock(start); err == nil {
		start = clock.String()
	}

	return model.Booking{
		ID:            item.ID,
		Day:           day,
		StartTime:     start,
		DurationHours: item.DurationHours,
		Status:        string(normalizeStatus(item)),
		Seats:         item.Seats,
		Vehicles:      item.Vehicles,
		TourName:      item.TourName,
	}, true
}

func normalizeStatus(item ApiBooking) timeline.Lifecycle {
	switch status := timeline.Lifecycle(strings.ToLower(strings.TrimSpace(item.Status))); status {
	case timeline.LifecycleConfirmed, timeline.LifecycleCompleted, timeline.LifecycleCancelled:
		return status
	case "":
		return timeline.LifecycleConfirmed
	default:
		log.Warn().Str("booking_id", item.ID).Str("status", item.Status).Msg("unknown booking status treated as confirmed")
		return timeline.LifecycleConfirmed
	}
}
