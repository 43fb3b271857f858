package timeline

import "time"

// Lifecycle is the authoritative booking state set by the backend.
type Lifecycle string

const (
	LifecycleConfirmed Lifecycle = "confirmed"
	LifecycleCompleted Lifecycle = "completed"
	LifecycleCancelled Lifecycle = "cancelled"
)

// Status is the clock-derived state of a booking.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

const (
	DayMinutes  = 24 * 60
	HoursPerDay = 24

	DefaultBusyThreshold = 5
	DefaultDuration      = 2 * time.Hour
	DefaultMinSpan       = time.Minute
)

// Booking is one entry of a day's list as handed over by the booking collaborator.
// The engine never mutates it.
type Booking struct {
	ID        string
	Date      time.Time
	StartTime string
	// DurationHours is nil when upstream did not supply one.
	DurationHours *float64
	Lifecycle     Lifecycle
	// Weight is the seat or vehicle count used for load aggregation.
	Weight int
}

// Interval is a half-open span [Start, End) in minutes since midnight of the viewed day.
type Interval struct {
	Start int
	End   int
}

// Overlaps reports whether two half-open intervals share at least one instant.
// Touching boundaries do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && o.Start < i.End
}

// PackedBar places one booking on a row of the shared lane.
type PackedBar struct {
	BookingID string `json:"bookingId"`
	Row       int    `json:"row"`
	Start     int    `json:"startMinute"`
	End       int    `json:"endMinute"`
}

// Interval returns the bar's span.
func (b PackedBar) Interval() Interval {
	return Interval{Start: b.Start, End: b.End}
}

// DayCounts are whole-day groupings of non-cancelled bookings.
type DayCounts struct {
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Remaining int `json:"remaining"`
}

// DailyView is the clock-dependent half of the timeline.
type DailyView struct {
	Statuses  map[string]Status `json:"statuses"`
	Hours     Hours             `json:"hours"`
	Counts    DayCounts         `json:"counts"`
	Threshold int               `json:"busyThreshold"`
}
