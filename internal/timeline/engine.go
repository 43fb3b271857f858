package timeline

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tour-ops-backend/internal/parse"
)

// MidnightPolicy decides what happens to a span that runs past 24:00.
type MidnightPolicy string

const (
	// MidnightClamp cuts the span at 24:00 of the viewed day.
	MidnightClamp MidnightPolicy = "clamp"
	// MidnightExtend keeps the full span, so End may exceed DayMinutes.
	MidnightExtend MidnightPolicy = "extend"
	// MidnightDrop removes the booking from layout and aggregation.
	MidnightDrop MidnightPolicy = "drop"
)

// ErrCrossesMidnight is reported for bookings removed under MidnightDrop.
var ErrCrossesMidnight = errors.New("booking runs past midnight")

// ParseMidnightPolicy validates a configured policy name. Empty means clamp.
func ParseMidnightPolicy(raw string) (MidnightPolicy, error) {
	switch p := MidnightPolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return MidnightClamp, nil
	case MidnightClamp, MidnightExtend, MidnightDrop:
		return p, nil
	default:
		return "", fmt.Errorf("unknown midnight policy %q", raw)
	}
}

// Options tune interval construction. Zero values fall back to the defaults.
type Options struct {
	Location        *time.Location
	DefaultDuration time.Duration
	MinSpan         time.Duration
	Midnight        MidnightPolicy
	Logger          *zerolog.Logger
}

// Engine packs and evaluates one day's bookings. It holds no state between calls
// and is safe for concurrent use.
type Engine struct {
	loc            *time.Location
	defaultMinutes float64
	minSpanMinutes int
	midnight       MidnightPolicy
	logger         *zerolog.Logger
}

// New creates an Engine.
func New(opts Options) *Engine {
	e := &Engine{
		loc:            opts.Location,
		defaultMinutes: opts.DefaultDuration.Minutes(),
		minSpanMinutes: int(math.Ceil(opts.MinSpan.Minutes())),
		midnight:       opts.Midnight,
		logger:         opts.Logger,
	}
	if e.loc == nil {
		e.loc = time.UTC
	}
	if e.defaultMinutes <= 0 {
		e.defaultMinutes = DefaultDuration.Minutes()
	}
	if e.minSpanMinutes < 1 {
		e.minSpanMinutes = 1
	}
	if e.midnight == "" {
		e.midnight = MidnightClamp
	}
	if e.logger == nil {
		e.logger = &log.Logger
	}
	return e
}

// Location returns the venue timezone the engine reads the clock in.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Interval converts a booking's start and duration into a span on the day axis.
func (e *Engine) Interval(b Booking) (Interval, error) {
	clock, err := parse.ParseClock(b.StartTime)
	if err != nil {
		return Interval{}, err
	}

	minutes := e.defaultMinutes
	if b.DurationHours != nil {
		minutes = *b.DurationHours * 60
	}
	// NaN fails every comparison, so it lands on the minimum span too.
	if !(minutes >= float64(e.minSpanMinutes)) {
		minutes = float64(e.minSpanMinutes)
	}
	minutes = math.Min(math.Round(minutes), 2*DayMinutes)

	start := clock.Minutes()
	end := start + int(minutes)
	if end > DayMinutes {
		switch e.midnight {
		case MidnightExtend:
		case MidnightDrop:
			return Interval{}, fmt.Errorf("%s + %.0f min: %w", clock, minutes, ErrCrossesMidnight)
		default:
			end = DayMinutes
		}
	}
	return Interval{Start: start, End: end}, nil
}

type entry struct {
	booking  Booking
	interval Interval
}

// entries drops cancelled bookings and the ones whose span cannot be built,
// keeping input order.
func (e *Engine) entries(bookings []Booking) []entry {
	out := make([]entry, 0, len(bookings))
	for _, b := range bookings {
		if b.Lifecycle == LifecycleCancelled {
			continue
		}
		iv, err := e.Interval(b)
		if err != nil {
			e.logger.Warn().
				Str("booking_id", b.ID).
				Str("start_time", b.StartTime).
				Err(err).
				Msg("booking left out of the timeline")
			continue
		}
		if b.Weight < 0 {
			e.logger.Warn().Str("booking_id", b.ID).Int("weight", b.Weight).Msg("negative seat count treated as zero")
			b.Weight = 0
		}
		out = append(out, entry{booking: b, interval: iv})
	}
	return out
}
