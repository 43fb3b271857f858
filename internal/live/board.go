package live

import (
	"sync"
	"time"

	"tour-ops-backend/internal/timeline"
)

// Snapshot is one published evaluation of the live day.
type Snapshot struct {
	Day         time.Time
	Generation  uint64
	EvaluatedAt time.Time
	Bars        []timeline.PackedBar
	Rows        int
	View        timeline.DailyView
}

// Board holds the current booking list of one day, its layout and the last
// published evaluation.
//
// The layout depends only on the list, so it is computed once per Replace.
// Statuses depend on the clock and are recomputed by Evaluate. Evaluations
// may overlap; the one that started last wins.
type Board struct {
	engine *timeline.Engine

	mu         sync.RWMutex
	day        time.Time
	bookings   []timeline.Booking
	bars       []timeline.PackedBar
	rows       int
	generation uint64

	seq       uint64
	published uint64
	snapshot  Snapshot
}

// NewBoard creates an empty board.
func NewBoard(engine *timeline.Engine) *Board {
	return &Board{engine: engine}
}

// Replace swaps in a new list for day and recomputes the layout.
// It returns the new list generation.
func (b *Board) Replace(day time.Time, bookings []timeline.Booking) uint64 {
	list := make([]timeline.Booking, len(bookings))
	copy(list, bookings)
	bars := b.engine.Pack(list)
	rows := timeline.RowCount(bars)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.day = day
	b.bookings = list
	b.bars = bars
	b.rows = rows
	b.generation++
	return b.generation
}

// Day returns the day the board currently holds.
func (b *Board) Day() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.day
}

// Generation returns the current list generation. Zero means nothing was loaded.
func (b *Board) Generation() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.generation
}

// Evaluate derives statuses and aggregates of the current list against now.
// The returned bool is false when a later-started evaluation was already
// published; the returned snapshot is then the one that won.
func (b *Board) Evaluate(now time.Time, busyThreshold *int) (Snapshot, bool) {
	seq, snap, list := b.begin()
	snap.View = b.engine.DailyView(list, now, snap.Day, busyThreshold)
	snap.EvaluatedAt = now
	return b.publish(seq, snap)
}

func (b *Board) begin() (uint64, Snapshot, []timeline.Booking) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	return b.seq, Snapshot{
		Day:        b.day,
		Generation: b.generation,
		Bars:       b.bars,
		Rows:       b.rows,
	}, b.bookings
}

func (b *Board) publish(seq uint64, snap Snapshot) (Snapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if seq < b.published {
		return b.snapshot, false
	}
	b.published = seq
	b.snapshot = snap
	return snap, true
}

// Snapshot returns the last published evaluation.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshot
}
