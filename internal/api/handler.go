package api

import (
	"context"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"tour-ops-backend/internal/live"
	"tour-ops-backend/internal/store"
	"tour-ops-backend/internal/timeline"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store            store.Store
	engine           *timeline.Engine
	live             *live.Service
	webpush          *webpush.Options
	cache            *cache.Cache
	defaultThreshold *int

	now func() time.Time
}

// NewHandler creates a new API handler. svc may be nil, every day is then
// computed from the store.
func NewHandler(s store.Store, engine *timeline.Engine, svc *live.Service, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:   s,
		engine:  engine,
		live:    svc,
		webpush: webpushOptions,
		now:     time.Now,
	}
}

// WithDefaultThreshold sets the busy threshold used when none is stored.
func (h *Handler) WithDefaultThreshold(t *int) *Handler {
	h.defaultThreshold = t
	return h
}

// threshold resolves the busy threshold for an on-demand view.
func (h *Handler) threshold(ctx context.Context) *int {
	if h.live != nil {
		return h.live.Threshold()
	}
	t, err := h.store.BusyThreshold(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read busy threshold")
		return h.defaultThreshold
	}
	if t == nil {
		return h.defaultThreshold
	}
	return t
}

func (h *Handler) today() time.Time {
	y, m, d := h.now().In(h.engine.Location()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, h.engine.Location())
}
