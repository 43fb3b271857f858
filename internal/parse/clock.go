package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrMalformedTime is returned for a time-of-day that cannot be read.
	ErrMalformedTime = errors.New("malformed time of day")
	// ErrMalformedDay is returned for a calendar day that cannot be read.
	ErrMalformedDay = errors.New("malformed calendar day")
)

// Accepts "9:05", "09:05", "09:05:30" and the upstream variant "09.05".
var clockRe = regexp.MustCompile(`^(\d{1,2})[:.](\d{2})(?:[:.](\d{2}))?$`)

// DayLayout is the wire and storage layout of a calendar day.
const DayLayout = "2006-01-02"

// Clock is a wall-clock time of day in the venue's timezone.
type Clock struct {
	Hour   int
	Minute int
}

// Minutes returns the number of minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ParseClock reads a time-of-day string. Seconds are accepted and dropped.
func ParseClock(raw string) (Clock, error) {
	s := strings.TrimSpace(raw)
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return Clock{}, errors.Wrapf(ErrMalformedTime, "%q", raw)
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return Clock{}, errors.Wrapf(ErrMalformedTime, "%q out of range", raw)
	}
	if m[3] != "" {
		if sec, _ := strconv.Atoi(m[3]); sec > 59 {
			return Clock{}, errors.Wrapf(ErrMalformedTime, "%q out of range", raw)
		}
	}

	return Clock{Hour: hour, Minute: minute}, nil
}

// ParseDay reads a "2006-01-02" calendar day in loc.
func ParseDay(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(DayLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, errors.Wrapf(ErrMalformedDay, "%q", raw)
	}
	return day, nil
}

// DayKey formats the calendar date of t, ignoring its clock.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// SameDay reports whether a and b carry the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
