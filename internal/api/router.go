package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"menu-availability-backend/config"
	"menu-availability-backend/internal/gateway"
	"menu-availability-backend/internal/mw"
)

// NewRouter creates and configures the gin engine.
func NewRouter(cfg config.ServerConfig, handler *Handler, ws *gateway.WSHandler) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestid.New())
	r.Use(mw.RequestLogger())
	r.Use(corsMiddleware(cfg.AllowedOrigins))

	limit := rate.Limit(cfg.RateLimitPerSec)
	if cfg.RateLimitPerSec <= 0 {
		limit = rate.Inf
	}
	rateLimiter := mw.RateLimiter(limit, cfg.RateLimitBurst)

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	caching := mw.Cache(cache.New(ttl, 2*ttl), ttl)

	r.GET("/healthz", handler.Healthz)
	if ws != nil {
		r.GET("/ws", ws.ServeWS)
	}

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		venues := api.Group("/venues/:venue_id")
		venues.GET("/menu", caching, handler.GetMenu)
		venues.GET("/menu/preview", handler.GetMenuPreview)

		venues.POST("/tables/:table_id/join", handler.JoinTable)
		venues.POST("/tables/:table_id/leave", handler.LeaveTable)
		venues.GET("/tables/:table_id/occupancy", handler.GetOccupancy)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	conf := cors.DefaultConfig()
	if len(origins) == 0 {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = origins
	}
	conf.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	conf.AddAllowHeaders("Authorization", "X-Request-ID")
	conf.AddExposeHeaders("X-Request-ID", mw.CacheHeader)
	return cors.New(conf)
}
