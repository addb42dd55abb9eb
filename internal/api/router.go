package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"bin-status-backend/config"
	"bin-status-backend/internal/bins"
	"bin-status-backend/internal/mw"
	"bin-status-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, b *bins.Service, s store.Store, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(b, s, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 10*time.Minute)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Ingestion
		api.POST("/bins", handler.RegisterBin)
		api.POST("/bins/:location/:id/telemetry", handler.ReportTelemetry)
		api.POST("/bins/:location/:id/heartbeat", handler.ReportHeartbeat)

		// Read side. Liveness decisions run off the sweep, so a few
		// seconds of response caching is acceptable here.
		api.GET("/bins", caching, handler.ListBins)
		api.GET("/bins/:location/:id", handler.GetBin)

		// Offline-alert subscriptions
		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
