package timeline

import (
	"time"

	"tour-ops-backend/internal/parse"
)

// DeriveStatus is the per-booking state machine. A completed flag from the
// backend wins over the clock; off-today bookings are never live.
func DeriveStatus(flag Lifecycle, iv Interval, nowMinute int, today bool) Status {
	switch {
	case flag == LifecycleCompleted:
		return StatusCompleted
	case !today:
		return StatusPending
	case nowMinute < iv.Start:
		return StatusPending
	case nowMinute < iv.End:
		return StatusActive
	default:
		return StatusCompleted
	}
}

// MinuteOfDay returns the floored minutes since local midnight of t.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// DailyView derives every booking's status against now and aggregates the day.
// A nil or negative busyThreshold falls back to DefaultBusyThreshold.
func (e *Engine) DailyView(bookings []Booking, now, viewedDay time.Time, busyThreshold *int) DailyView {
	threshold := DefaultBusyThreshold
	if busyThreshold != nil {
		if *busyThreshold >= 0 {
			threshold = *busyThreshold
		} else {
			e.logger.Warn().Int("busy_threshold", *busyThreshold).Msg("negative busy threshold, using default")
		}
	}

	local := now.In(e.loc)
	today := parse.SameDay(local, viewedDay)
	nowMinute := MinuteOfDay(local)

	entries := e.entries(bookings)
	view := DailyView{
		Statuses:  make(map[string]Status, len(entries)),
		Hours:     NewHours(),
		Threshold: threshold,
	}

	for _, en := range entries {
		status := DeriveStatus(en.booking.Lifecycle, en.interval, nowMinute, today)
		view.Statuses[en.booking.ID] = status

		switch status {
		case StatusActive:
			view.Counts.Active++
		case StatusCompleted:
			view.Counts.Completed++
		}
		view.Hours.Add(en.interval.Start/60, en.booking.Weight)
	}

	view.Counts.Remaining = len(entries) - view.Counts.Completed
	view.Hours.MarkBusy(threshold)
	return view
}
