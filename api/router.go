package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kri-ruj/linksaver/api/handler"
	"github.com/kri-ruj/linksaver/api/middleware"
	"github.com/kri-ruj/linksaver/config"
	"github.com/kri-ruj/linksaver/store"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Three surfaces, three trust models: /callback is authenticated by its
// webhook signature, /api/v1 by API key, and /api/v1/health plus /metrics
// are open so probes and scrapers always work.
func NewRouter(cfg *config.Config, st *store.Store, h handler.MessageHandler, gatherer prometheus.Gatherer, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	// LINE webhook — signature-verified, outside API-key auth.
	r.POST("/callback", handler.Webhook(cfg.Line.ChannelSecret, h))

	// Prometheus scrape endpoint.
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if len(cfg.Auth.APIKeys) > 0 {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Articles
	protected.GET("/articles", handler.ListArticles(st))
	protected.GET("/articles/:id", handler.GetArticle(st))
	protected.POST("/articles/:id/stage", handler.UpdateStage(st))
	protected.POST("/articles/:id/notes", handler.UpdateNotes(st))
	protected.POST("/articles/:id/archive", handler.Archive(st))

	// Insights
	protected.GET("/articles/:id/similar", handler.Similar(st))
	protected.GET("/duplicates", handler.Duplicates(st))
	protected.GET("/stats", handler.Stats(st))

	return r
}
