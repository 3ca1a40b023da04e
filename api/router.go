package api

import (
	"content-service/config"
	"content-service/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router builds the HTTP boundary. Item routes live under /<plural>-api
// (e.g. /articles-api, /jokes-api) to match the ingress prefix convention.
func Router(cfg *config.Config, h *Handler) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"*"},
		ExposeHeaders: []string{"Content-Length"},
	}))
	r.Use(middleware.Prometheus(cfg.ServiceName()))

	healthCheck := func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy", "service": cfg.ServiceName()})
	}
	r.GET("/", healthCheck)
	r.GET("/health", healthCheck)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ready", "service": cfg.ServiceName()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	group := r.Group("/" + cfg.Schema.Plural + "-api")
	{
		group.GET("", h.GetPaginated)
		group.GET("/stats", h.GetStats)
		group.GET("/:id", h.GetByID)
		group.POST("/refresh", h.TriggerRefresh)
	}

	return r
}
