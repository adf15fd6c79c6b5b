package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.ApiService/controllers"
	container "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Container"
	control "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Control"
	realtime "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Realtime"
	implementation "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Repository/Implementation"
)

func main() {
	// Initialize dependency injection container
	ctr, err := container.NewApiContainer()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize container: %v", err))
	}
	defer ctr.Shutdown(context.Background())

	logger := ctr.GetLogger()
	logger.Info("Starting API Service")

	// Initialize database
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := ctr.InitializeDatabase(ctx); err != nil {
		logger.FatalWithError(err, "Failed to initialize database")
	}

	db, err := ctr.GetDatabase()
	if err != nil {
		logger.FatalWithError(err, "Failed to get database connection")
	}

	healthChecker, err := ctr.GetHealthChecker()
	if err != nil {
		logger.FatalWithError(err, "Failed to get health checker")
	}

	// Create repositories
	deviceRepo := implementation.NewPostgresDeviceRepository(db)
	readingRepo := implementation.NewPostgresReadingRepository(db)
	pumpRepo := implementation.NewPostgresPumpStateRepository(db)
	thresholdRepo := implementation.NewPostgresThresholdRepository(db)

	// Get configuration
	config := ctr.GetConfig()

	// Realtime layer: registry, router, presence
	registry := realtime.NewSessionRegistry(logger)
	router := realtime.NewBroadcastRouter(registry, logger)
	presence := realtime.NewPresenceTracker(config.Device.PresenceStaleness)

	// Control service wires ingestion to the realtime layer
	controlService := control.NewControlService(
		config.Device.Token,
		config.Device.HistoryWindow,
		deviceRepo,
		readingRepo,
		pumpRepo,
		thresholdRepo,
		presence,
		router,
		logger,
	)

	// Initialize Gin router
	engine := gin.New()
	engine.Use(gin.Logger())
	engine.Use(gin.Recovery())

	// Configure CORS from config
	corsConfig := cors.Config{
		AllowOrigins:     config.CORS.AllowedOrigins,
		AllowMethods:     config.CORS.AllowedMethods,
		AllowHeaders:     config.CORS.AllowedHeaders,
		ExposeHeaders:    config.CORS.ExposedHeaders,
		AllowCredentials: config.CORS.AllowCredentials,
		MaxAge:           time.Duration(config.CORS.MaxAge) * time.Second,
	}
	engine.Use(cors.New(corsConfig))

	// Create controllers and register routes
	telemetryController := controllers.NewTelemetryController(controlService, logger)
	statusController := controllers.NewStatusController(controlService, logger)
	thresholdController := controllers.NewThresholdController(controlService, logger)
	wsController := controllers.NewWSController(registry, deviceRepo, config.Device.Token, config.Device.SendQueueSize, logger)
	healthController := controllers.NewHealthController(healthChecker, logger)

	telemetryController.RegisterRoutes(engine)
	statusController.RegisterRoutes(engine)
	thresholdController.RegisterRoutes(engine)
	wsController.RegisterRoutes(engine)
	healthController.RegisterRoutes(engine)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Get port from configuration
	port := config.Server.Port

	// Create HTTP server. Read/write timeouts stay unset: they would tear
	// down the long-lived WebSocket sessions.
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           engine,
		ReadHeaderTimeout: config.Server.ReadTimeout,
		IdleTimeout:       config.Server.IdleTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		logger.Info("HTTP server starting on port " + port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithError(err, "Failed to start HTTP server")
		}
	}()

	logger.Info("API service running... press Ctrl+C to stop")

	// Wait for shutdown signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("Shutting down...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithError(err, "Server forced to shutdown")
	}
}
