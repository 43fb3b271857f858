package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"tour-ops-backend/internal/live"
	"tour-ops-backend/internal/parse"
	"tour-ops-backend/internal/timeline"
)

// DefaultAxisWidth maps one minute to one pixel.
const DefaultAxisWidth = timeline.DayMinutes

type barResponse struct {
	timeline.PackedBar
	Left   float64         `json:"left"`
	Width  float64         `json:"width"`
	Status timeline.Status `json:"status"`
}

type timelineResponse struct {
	Date          string             `json:"date"`
	Live          bool               `json:"live"`
	Generation    uint64             `json:"generation,omitempty"`
	EvaluatedAt   time.Time          `json:"evaluatedAt"`
	AxisWidth     float64            `json:"axisWidth"`
	Rows          int                `json:"rows"`
	Bars          []barResponse      `json:"bars"`
	Hours         timeline.Hours     `json:"hours"`
	Counts        timeline.DayCounts `json:"counts"`
	BusyThreshold int                `json:"busyThreshold"`
}

type hoursResponse struct {
	Date          string         `json:"date"`
	BusyThreshold int            `json:"busyThreshold"`
	BusyHours     []int          `json:"busyHours"`
	Hours         timeline.Hours `json:"hours"`
}

// GetTimeline handles GET /api/timeline?date=YYYY-MM-DD&width=px.
func (h *Handler) GetTimeline(c *gin.Context) {
	day, ok := h.bindDay(c)
	if !ok {
		return
	}
	width := float64(DefaultAxisWidth)
	if raw := c.Query("width"); raw != "" {
		w, err := strconv.ParseFloat(raw, 64)
		if err != nil || w <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "width must be a positive number"})
			return
		}
		width = w
	}

	snap, isLive, err := h.snapshot(c.Request.Context(), day)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve bookings"})
		return
	}

	bars := make([]barResponse, 0, len(snap.Bars))
	for _, bar := range snap.Bars {
		left, w := timeline.Span(bar, width)
		bars = append(bars, barResponse{PackedBar: bar, Left: left, Width: w, Status: snap.View.Statuses[bar.BookingID]})
	}

	c.JSON(http.StatusOK, timelineResponse{
		Date:          parse.DayKey(day),
		Live:          isLive,
		Generation:    snap.Generation,
		EvaluatedAt:   snap.EvaluatedAt,
		AxisWidth:     width,
		Rows:          snap.Rows,
		Bars:          bars,
		Hours:         snap.View.Hours,
		Counts:        snap.View.Counts,
		BusyThreshold: snap.View.Threshold,
	})
}

// GetHours handles GET /api/timeline/hours?date=YYYY-MM-DD.
func (h *Handler) GetHours(c *gin.Context) {
	day, ok := h.bindDay(c)
	if !ok {
		return
	}
	snap, _, err := h.snapshot(c.Request.Context(), day)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve bookings"})
		return
	}
	busy := snap.View.Hours.Busy()
	if busy == nil {
		busy = []int{}
	}
	c.JSON(http.StatusOK, hoursResponse{
		Date:          parse.DayKey(day),
		BusyThreshold: snap.View.Threshold,
		BusyHours:     busy,
		Hours:         snap.View.Hours,
	})
}

// bindDay reads the date query parameter. An absent date means today.
func (h *Handler) bindDay(c *gin.Context) (time.Time, bool) {
	raw := c.Query("date")
	if raw == "" {
		return h.today(), true
	}
	day, err := parse.ParseDay(raw, h.engine.Location())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use YYYY-MM-DD."})
		return time.Time{}, false
	}
	return day, true
}

// snapshot serves the live board for its own day and computes any other day
// from the store.
func (h *Handler) snapshot(ctx context.Context, day time.Time) (live.Snapshot, bool, error) {
	if h.live != nil && h.live.IsLive(day) {
		if snap := h.live.Board().Snapshot(); snap.Generation > 0 {
			return snap, true, nil
		}
	}

	key := parse.DayKey(day)
	rows, err := h.store.BookingsForDay(ctx, key)
	if err != nil {
		log.Error().Err(err).Str("day", key).Msg("failed to load bookings")
		return live.Snapshot{}, false, err
	}
	list := live.ToTimeline(rows, day)
	now := h.now()
	bars := h.engine.Pack(list)
	return live.Snapshot{
		Day:         day,
		EvaluatedAt: now,
		Bars:        bars,
		Rows:        timeline.RowCount(bars),
		View:        h.engine.DailyView(list, now, day, h.threshold(ctx)),
	}, false, nil
}

// isLiveRequest matches timeline requests for today, which must never be cached.
func (h *Handler) isLiveRequest(c *gin.Context) bool {
	raw := c.Query("date")
	if raw == "" {
		return true
	}
	day, err := parse.ParseDay(raw, h.engine.Location())
	if err != nil {
		return true
	}
	return parse.SameDay(day, h.today())
}
