package parse

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseClock(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expected  Clock
		expectErr bool
	}{
		{name: "Standard", raw: "09:00", expected: Clock{Hour: 9, Minute: 0}},
		{name: "Single digit hour", raw: "9:05", expected: Clock{Hour: 9, Minute: 5}},
		{name: "With seconds", raw: "13:45:59", expected: Clock{Hour: 13, Minute: 45}},
		{name: "Dot separator", raw: "07.30", expected: Clock{Hour: 7, Minute: 30}},
		{name: "Surrounding spaces", raw: "  23:59 ", expected: Clock{Hour: 23, Minute: 59}},
		{name: "Midnight", raw: "00:00", expected: Clock{}},
		{name: "Hour out of range", raw: "24:00", expectErr: true},
		{name: "Minute out of range", raw: "10:60", expectErr: true},
		{name: "Seconds out of range", raw: "10:10:61", expectErr: true},
		{name: "Empty", raw: "", expectErr: true},
		{name: "Garbage", raw: "ten o'clock", expectErr: true},
		{name: "Missing minutes", raw: "10", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := ParseClock(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedTime))
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, parsed)
			}
		})
	}
}

func TestClock_MinutesAndString(t *testing.T) {
	c := Clock{Hour: 9, Minute: 5}
	assert.Equal(t, 545, c.Minutes())
	assert.Equal(t, "09:05", c.String())
}

func TestParseDay(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Shanghai")
	assert.NoError(t, err)

	day, err := ParseDay("2026-10-18", loc)
	assert.NoError(t, err)
	assert.Equal(t, "2026-10-18", DayKey(day))
	assert.Equal(t, loc, day.Location())

	_, err = ParseDay("18/10/2026", loc)
	assert.True(t, errors.Is(err, ErrMalformedDay))
}

func TestSameDay(t *testing.T) {
	a := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	b := time.Date(2026, 10, 18, 23, 59, 0, 0, time.UTC)
	c := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	assert.True(t, SameDay(a, b))
	assert.False(t, SameDay(b, c))
}
