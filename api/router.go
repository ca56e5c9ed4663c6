package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/sitecheck/api/handler"
	"github.com/use-agent/sitecheck/api/middleware"
	"github.com/use-agent/sitecheck/cache"
	"github.com/use-agent/sitecheck/config"
	"github.com/use-agent/sitecheck/models"
	"github.com/use-agent/sitecheck/region"
	"github.com/use-agent/sitecheck/webhook"
)

// Deps are the long-lived components the routes share.
type Deps struct {
	Fetchers  handler.Fetchers
	Validator *region.Validator
	Cache     *cache.Cache      // optional
	Webhook   *webhook.Notifier // optional
	PoolStats func() models.PoolStats
	StartTime time.Time
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(cfg *config.Config, d Deps) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health: no auth required.
	v1.GET("/health", handler.Health(d.PoolStats, d.StartTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/validate", handler.Validate(d.Fetchers, d.Validator, d.Cache, d.Webhook))
	protected.POST("/validate/html", handler.ValidateHTML(d.Validator))

	return r
}
