package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tour-ops-backend/internal/timeline"
)

const namespace = "tourops"

// Metrics holds the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	bookings   *prometheus.GaugeVec
	busyHours  prometheus.Gauge
	layoutRows prometheus.Gauge
	evaluation prometheus.Histogram
	syncs      *prometheus.CounterVec
	alerts     prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		bookings: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bookings",
			Help:      "Bookings of the live day by derived state.",
		}, []string{"state"}),
		busyHours: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "busy_hours",
			Help:      "Hours of the live day whose departure load exceeds the busy threshold.",
		}),
		layoutRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "layout_rows",
			Help:      "Rows needed to draw the live day without collisions.",
		}),
		evaluation: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_seconds",
			Help:      "Time spent deriving the daily view.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05},
		}),
		syncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_total",
			Help:      "Booking feed synchronisations by result.",
		}, []string{"result"}),
		alerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "busy_hour_alerts_total",
			Help:      "Busy-hour alerts dispatched.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.bookings, m.busyHours, m.layoutRows, m.evaluation, m.syncs, m.alerts,
	)
	return m
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveView records the outcome of one live evaluation.
func (m *Metrics) ObserveView(view timeline.DailyView, rows int, took time.Duration) {
	if m == nil {
		return
	}
	pending := view.Counts.Remaining - view.Counts.Active
	m.bookings.WithLabelValues(string(timeline.StatusPending)).Set(float64(pending))
	m.bookings.WithLabelValues(string(timeline.StatusActive)).Set(float64(view.Counts.Active))
	m.bookings.WithLabelValues(string(timeline.StatusCompleted)).Set(float64(view.Counts.Completed))
	m.busyHours.Set(float64(len(view.Hours.Busy())))
	m.layoutRows.Set(float64(rows))
	m.evaluation.Observe(took.Seconds())
}

// ObserveSync counts one feed synchronisation.
func (m *Metrics) ObserveSync(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.syncs.WithLabelValues(result).Inc()
}

// ObserveAlert counts one dispatched busy-hour alert.
func (m *Metrics) ObserveAlert() {
	if m == nil {
		return
	}
	m.alerts.Inc()
}
