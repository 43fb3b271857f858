package timeline

// HourBucket is the departure load of one hour of the viewed day.
type HourBucket struct {
	Hour     int  `json:"hour"`
	Bookings int  `json:"bookingCount"`
	Weight   int  `json:"totalSeatOrVehicle"`
	Busy     bool `json:"isBusy"`
}

// Hours holds one bucket per hour, indexed by hour.
type Hours [HoursPerDay]HourBucket

// NewHours returns empty buckets labelled 0 through 23.
func NewHours() Hours {
	var h Hours
	for i := range h {
		h[i].Hour = i
	}
	return h
}

// Add counts a booking departing in hour. Out-of-range hours are ignored.
func (h *Hours) Add(hour, weight int) {
	if hour < 0 || hour >= HoursPerDay {
		return
	}
	h[hour].Bookings++
	h[hour].Weight += weight
}

// MarkBusy flags every hour whose load is strictly above threshold.
func (h *Hours) MarkBusy(threshold int) {
	for i := range h {
		h[i].Busy = h[i].Weight > threshold
	}
}

// Busy lists the busy hours in ascending order.
func (h Hours) Busy() []int {
	var out []int
	for _, b := range h {
		if b.Busy {
			out = append(out, b.Hour)
		}
	}
	return out
}

// TotalBookings sums the booking count over all hours.
func (h Hours) TotalBookings() int {
	n := 0
	for _, b := range h {
		n += b.Bookings
	}
	return n
}

// Peak returns the hour with the highest load, the earliest one on ties.
func (h Hours) Peak() HourBucket {
	peak := h[0]
	for _, b := range h[1:] {
		if b.Weight > peak.Weight {
			peak = b
		}
	}
	return peak
}
