package live

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"tour-ops-backend/config"
	"tour-ops-backend/internal/metrics"
	"tour-ops-backend/internal/notification"
	"tour-ops-backend/internal/parse"
	"tour-ops-backend/internal/store"
	"tour-ops-backend/internal/timeline"
)

// DaySyncer refreshes the stored list of one day from upstream.
type DaySyncer interface {
	SyncDay(ctx context.Context, day string) (int, error)
}

// AlertDispatcher queues busy-hour alerts.
type AlertDispatcher interface {
	Dispatch(job notification.BusyHour)
}

// Service keeps the board loaded with today's bookings and re-evaluates it
// on every tick.
type Service struct {
	engine  *timeline.Engine
	board   *Board
	store   store.Store
	syncer  DaySyncer
	alerts  AlertDispatcher
	metrics *metrics.Metrics

	tick             time.Duration
	syncEvery        time.Duration
	defaultThreshold *int
	threshold        atomic.Pointer[int]

	// last Reload attempt; a failed load is retried at retryInterval, not per tick
	mu          sync.Mutex
	attempted   time.Time
	attemptedAt time.Time

	now func() time.Time
}

// defaultRetry paces reload attempts when no sync interval is configured.
const defaultRetry = time.Minute

// NewService wires the live loop. syncer, alerts and m may be nil.
func NewService(cfg *config.Config, engine *timeline.Engine, s store.Store, syncer DaySyncer, alerts AlertDispatcher, m *metrics.Metrics) *Service {
	return &Service{
		engine:           engine,
		board:            NewBoard(engine),
		store:            s,
		syncer:           syncer,
		alerts:           alerts,
		metrics:          m,
		tick:             cfg.Timeline.Tick,
		syncEvery:        cfg.Feed.Interval,
		defaultThreshold: cfg.Timeline.BusyThreshold,
		now:              time.Now,
	}
}

// Board returns the live board.
func (s *Service) Board() *Board {
	return s.board
}

// Today returns the current calendar day in the engine's location.
func (s *Service) Today() time.Time {
	return startOfDay(s.now().In(s.engine.Location()))
}

// IsLive reports whether day is the day held by the board.
func (s *Service) IsLive(day time.Time) bool {
	return s.board.Generation() > 0 && parse.SameDay(day, s.board.Day())
}

// Run loads today and keeps the board fresh until ctx is done.
func (s *Service) Run(ctx context.Context) {
	log.Info().Dur("tick", s.tick).Dur("sync", s.syncEvery).Msg("starting live timeline")

	s.Reload(ctx, s.Today())

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	var syncC <-chan time.Time
	if s.syncer != nil && s.syncEvery > 0 {
		syncTicker := time.NewTicker(s.syncEvery)
		defer syncTicker.Stop()
		syncC = syncTicker.C
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("live timeline shutting down")
			return
		case <-ticker.C:
			s.onTick(ctx)
		case <-syncC:
			day, _ := s.lastAttempt()
			s.Reload(ctx, day)
		}
	}
}

func (s *Service) onTick(ctx context.Context) {
	today := s.Today()
	if parse.SameDay(today, s.board.Day()) {
		s.evaluate()
		return
	}

	day, at := s.lastAttempt()
	switch {
	case !parse.SameDay(today, day):
		log.Info().Str("day", parse.DayKey(today)).Msg("day rolled over, reloading")
	case s.now().Sub(at) >= s.retryInterval():
		log.Warn().Str("day", parse.DayKey(today)).Msg("retrying failed board load")
	default:
		return
	}
	s.Reload(ctx, today)
}

func (s *Service) retryInterval() time.Duration {
	if s.syncEvery > 0 {
		return s.syncEvery
	}
	return defaultRetry
}

func (s *Service) lastAttempt() (time.Time, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempted, s.attemptedAt
}

// Reload syncs day from upstream, loads it from the store onto the board and
// evaluates it. A failed sync keeps the previously stored rows.
func (s *Service) Reload(ctx context.Context, day time.Time) {
	key := parse.DayKey(day)

	s.mu.Lock()
	s.attempted, s.attemptedAt = day, s.now()
	s.mu.Unlock()

	if s.syncer != nil {
		n, err := s.syncer.SyncDay(ctx, key)
		s.metrics.ObserveSync(err)
		if err != nil {
			log.Warn().Err(err).Str("day", key).Msg("booking sync failed, keeping stored list")
		} else {
			log.Debug().Str("day", key).Int("bookings", n).Msg("booking sync done")
		}
	}

	rows, err := s.store.BookingsForDay(ctx, key)
	if err != nil {
		log.Error().Err(err).Str("day", key).Msg("failed to load bookings")
		return
	}
	gen := s.board.Replace(day, ToTimeline(rows, day))
	log.Debug().Str("day", key).Uint64("generation", gen).Int("bookings", len(rows)).Msg("board replaced")

	s.loadThreshold(ctx)
	s.recordBusyHours(ctx, s.evaluate())
}

// Refresh reloads the busy threshold and re-evaluates the board.
func (s *Service) Refresh(ctx context.Context) {
	s.loadThreshold(ctx)
	if s.board.Generation() == 0 {
		return
	}
	s.recordBusyHours(ctx, s.evaluate())
}

// Threshold returns the busy threshold in effect: the stored setting, else
// the configured one. nil lets the engine apply its default. When the setting
// cannot be read the configured value applies.
func (s *Service) Threshold() *int {
	if t := s.threshold.Load(); t != nil {
		return t
	}
	return s.defaultThreshold
}

func (s *Service) loadThreshold(ctx context.Context) {
	t, err := s.store.BusyThreshold(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read busy threshold, using configured value")
		s.threshold.Store(nil)
		return
	}
	s.threshold.Store(t)
}

func (s *Service) evaluate() Snapshot {
	start := time.Now()
	snap, _ := s.board.Evaluate(s.now(), s.Threshold())
	s.metrics.ObserveView(snap.View, snap.Rows, time.Since(start))
	return snap
}

func (s *Service) recordBusyHours(ctx context.Context, snap Snapshot) {
	key := parse.DayKey(snap.Day)
	for _, bucket := range snap.View.Hours {
		if !bucket.Busy {
			continue
		}
		fresh, err := s.store.RecordBusyHour(ctx, key, bucket.Hour, bucket.Weight, s.now())
		if err != nil {
			log.Error().Err(err).Str("day", key).Int("hour", bucket.Hour).Msg("failed to record busy hour")
			continue
		}
		if !fresh || s.alerts == nil {
			continue
		}
		s.alerts.Dispatch(notification.BusyHour{
			Day:       key,
			Hour:      bucket.Hour,
			Bookings:  bucket.Bookings,
			Weight:    bucket.Weight,
			Threshold: snap.View.Threshold,
		})
		s.metrics.ObserveAlert()
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
