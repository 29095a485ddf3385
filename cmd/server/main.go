package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"driverqueue/internal/app"
	"driverqueue/internal/config"
	"driverqueue/internal/handler"
	"driverqueue/internal/repository"
	"driverqueue/internal/service"
	"driverqueue/internal/whatsapp"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before the store so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
			nrApp = nil
		} else {
			log.Printf("New Relic enabled: app=%s", cfg.NewRelic.AppName)
		}
	}

	// Open the driver store.
	store, err := app.NewStore(ctx, cfg.Store, nrApp)
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.Store.Driver, err)
	}
	defer store.Close()

	// Redis is optional and only backs idempotent POSTs.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Println("Connected to Redis")
	}

	gin.SetMode(gin.ReleaseMode)
	server := wireServer(store, redisClient, nrApp, cfg)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(store repository.Store, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	// Initialize the notification channel.
	whatsappClient := whatsapp.NewClient(whatsapp.Config{
		APIURL:  cfg.WhatsApp.APIURL,
		Token:   cfg.WhatsApp.Token,
		PhoneID: cfg.WhatsApp.PhoneID,
		Timeout: cfg.WhatsApp.Timeout,
	})
	if !whatsappClient.Configured() {
		log.Println("WhatsApp credentials not set; notifications will be simulated")
	}

	// Initialize repositories.
	driverRepo := repository.NewDriverRepository(store)

	// Initialize services.
	notificationService := service.NewNotificationService(whatsappClient, cfg.Queue.NotifyTimeout)
	driverService := service.NewDriverService(driverRepo)
	queueService := service.NewQueueService(driverRepo, notificationService, cfg.Queue.PickupMessage)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		DriverHandler:       handler.NewDriverHandler(driverService, queueService),
		QueueHandler:        handler.NewQueueHandler(queueService),
		NotificationHandler: handler.NewNotificationHandler(notificationService),
		RedisClient:         redisClient,
		NewRelicApp:         nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
