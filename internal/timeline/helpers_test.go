package timeline

import (
	"time"

	"github.com/rs/zerolog"
)

var testDay = time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

func newTestEngine(opts Options) *Engine {
	nop := zerolog.Nop()
	opts.Logger = &nop
	return New(opts)
}

func hours(h float64) *float64 {
	return &h
}

func booking(id, start string, duration float64) Booking {
	return Booking{
		ID:            id,
		Date:          testDay,
		StartTime:     start,
		DurationHours: hours(duration),
		Lifecycle:     LifecycleConfirmed,
		Weight:        1,
	}
}

func at(hour, minute int) time.Time {
	return time.Date(testDay.Year(), testDay.Month(), testDay.Day(), hour, minute, 0, 0, time.UTC)
}
