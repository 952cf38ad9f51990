package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voucher-service/pkg/logger"
)

// RouterConfig carries the HTTP-facing settings
type RouterConfig struct {
	Version     string
	CORSOrigins []string
}

// SetupRouter builds the gin engine with every route registered
func SetupRouter(h *BookingHandler, cfg RouterConfig, log logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log))
	r.MaxMultipartMemory = 32 << 20

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "Booking parser API. POST /api/upload then /api/search, or /api/parse with multipart (file + booking)."})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"sessions": h.service.CacheSize(),
			"version":  cfg.Version,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/upload", h.Upload)
		api.POST("/search", h.Search)
		api.POST("/parse", h.Parse)
		api.POST("/parse_sample", h.ParseSample)
		api.GET("/sessions", h.Sessions)
		api.GET("/lookups/:booking", h.History)
	}

	return r
}
