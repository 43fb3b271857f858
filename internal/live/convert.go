package live

import (
	"time"

	"tour-ops-backend/internal/model"
	"tour-ops-backend/internal/timeline"
)

// ToTimeline maps stored rows of one day to engine bookings.
func ToTimeline(rows []model.Booking, day time.Time) []timeline.Booking {
	out := make([]timeline.Booking, 0, len(rows))
	for _, r := range rows {
		out = append(out, timeline.Booking{
			ID:            r.ID,
			Date:          day,
			StartTime:     r.StartTime,
			DurationHours: r.DurationHours,
			Lifecycle:     lifecycle(r.Status),
			Weight:        r.Weight(),
		})
	}
	return out
}

func lifecycle(status string) timeline.Lifecycle {
	switch l := timeline.Lifecycle(status); l {
	case timeline.LifecycleCompleted, timeline.LifecycleCancelled:
		return l
	default:
		return timeline.LifecycleConfirmed
	}
}
