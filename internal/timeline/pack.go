package timeline

// Pack assigns every usable booking to the lowest row whose bars it does not
// overlap. Rows are tried in increasing order and the first free one wins, so
// bookings with identical spans keep their input order across rows.
func (e *Engine) Pack(bookings []Booking) []PackedBar {
	entries := e.entries(bookings)
	bars := make([]PackedBar, 0, len(entries))

	var rows [][]Interval
	for _, en := range entries {
		row := firstFreeRow(rows, en.interval)
		if row == len(rows) {
			rows = append(rows, nil)
		}
		rows[row] = append(rows[row], en.interval)

		bars = append(bars, PackedBar{
			BookingID: en.booking.ID,
			Row:       row,
			Start:     en.interval.Start,
			End:       en.interval.End,
		})
	}
	return bars
}

func firstFreeRow(rows [][]Interval, iv Interval) int {
	for i, row := range rows {
		free := true
		for _, placed := range row {
			if placed.Overlaps(iv) {
				free = false
				break
			}
		}
		if free {
			return i
		}
	}
	return len(rows)
}

// RowCount is the number of rows a packed lane needs.
func RowCount(bars []PackedBar) int {
	n := 0
	for _, b := range bars {
		if b.Row+1 > n {
			n = b.Row + 1
		}
	}
	return n
}

// Span converts a bar into a pixel offset and width on an axis of axisWidth
// pixels covering the full day.
func Span(bar PackedBar, axisWidth float64) (left, width float64) {
	perMinute := axisWidth / DayMinutes
	return float64(bar.Start) * perMinute, float64(bar.End-bar.Start) * perMinute
}
