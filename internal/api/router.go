package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"tour-ops-backend/config"
	"tour-ops-backend/internal/live"
	"tour-ops-backend/internal/metrics"
	"tour-ops-backend/internal/mw"
	"tour-ops-backend/internal/store"
	"tour-ops-backend/internal/timeline"
)

// limiterIdle is how long a client IP keeps its token bucket without requests.
const limiterIdle = 10 * time.Minute

// Deps are the collaborators the router serves from.
type Deps struct {
	Config  *config.Config
	Store   store.Store
	Engine  *timeline.Engine
	Live    *live.Service
	Metrics *metrics.Metrics
	WebPush *webpush.Options
	// Clock overrides time.Now for on-demand views.
	Clock func() time.Time
}

// NewRouter creates and configures a new Gin router.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	srv := d.Config.Server
	ttl := time.Duration(srv.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(ttl, 2*ttl)

	handler := NewHandler(d.Store, d.Engine, d.Live, d.WebPush).WithDefaultThreshold(d.Config.Timeline.BusyThreshold)
	handler.cache = cacheStore
	if d.Clock != nil {
		handler.now = d.Clock
	}

	caching := gin.HandlerFunc(func(c *gin.Context) { c.Next() })
	if ttl > 0 {
		caching = mw.Cache(cacheStore, ttl, handler.isLiveRequest)
	}

	api := r.Group("/api")
	if srv.RateLimitPerSec > 0 {
		api.Use(mw.RateLimiter(mw.NewIPRateLimiter(rate.Limit(srv.RateLimitPerSec), srv.RateLimitBurst, limiterIdle)))
	}
	{
		api.GET("/timeline", caching, handler.GetTimeline)
		api.GET("/timeline/hours", caching, handler.GetHours)

		api.GET("/settings", handler.GetSettings)
		api.PUT("/settings", handler.PutSettings)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	if d.Metrics != nil {
		r.GET(d.Config.Metrics.Path, gin.WrapH(d.Metrics.Handler()))
	}

	return r
}
