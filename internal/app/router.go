package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"driverqueue/internal/handler"
	"driverqueue/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	DriverHandler       *handler.DriverHandler
	QueueHandler        *handler.QueueHandler
	NotificationHandler *handler.NotificationHandler
	// RedisClient is optional; without it Idempotency-Key headers are ignored.
	RedisClient *redis.Client
	NewRelicApp *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	if deps.RedisClient != nil {
		router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		// Driver routes.
		drivers := api.Group("/drivers")
		{
			drivers.GET("", deps.DriverHandler.GetAll)
			drivers.POST("", deps.DriverHandler.Register)
			drivers.GET("/:id", deps.DriverHandler.GetDriver)
			drivers.PATCH("/:id/status", deps.DriverHandler.SetStatus)
			drivers.POST("/:id/activate", deps.DriverHandler.Activate)
			drivers.POST("/:id/deactivate", deps.DriverHandler.Deactivate)
			drivers.POST("/:id/return", deps.DriverHandler.Return)
		}

		// Queue routes.
		queue := api.Group("/queue")
		{
			queue.GET("", deps.QueueHandler.GetQueue)
			queue.POST("/call-next", deps.QueueHandler.CallNext)
		}
		api.GET("/stats", deps.QueueHandler.GetStats)

		// WhatsApp relay.
		api.POST("/whatsapp/send", deps.NotificationHandler.Send)
	}

	return router
}
