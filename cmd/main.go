package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"catalog-service/internal/catalog"
	"catalog-service/internal/handler"
	mid "catalog-service/internal/middleware"
	"catalog-service/internal/pricing"
	"catalog-service/internal/store"
	"catalog-service/internal/sync"
	"catalog-service/internal/webhook"
	"catalog-service/pkg/config"
	"catalog-service/pkg/database"
	"catalog-service/pkg/jwtutil"
	"catalog-service/pkg/logger"
	"catalog-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(appConfig); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting catalog-service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize JWT utility
	jwtutil.Initialize(appConfig.JWT.SigningKey)

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	if err := database.InitDB(appConfig); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Wire the catalog core
	dataStore := store.NewGormStore(database.GetDB())
	pricingOpts := pricing.Options{
		MinProfit:       appConfig.Pricing.MinProfit,
		MaxProfit:       appConfig.Pricing.MaxProfit,
		MinMargin:       appConfig.Pricing.MinMargin,
		MaxMargin:       appConfig.Pricing.MaxMargin,
		MidProfit:       appConfig.Pricing.MidProfit,
		MOQTargetProfit: appConfig.Pricing.MOQTargetProfit,
	}
	catalogService := catalog.NewService(dataStore, pricingOpts)
	notifier := webhook.NewClient(appConfig.Webhook)
	processor := sync.NewProcessor(dataStore, appConfig.Sync, pricingOpts, notifier, log)
	handler.Init(catalogService, processor, dataStore)

	// Root context cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start the daily reconciliation scheduler
	scheduler := sync.NewScheduler(processor, appConfig.Sync.DailyHourUTC, log)
	go scheduler.Start(ctx)

	// Initialize Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Catalog API routes
	catalogAPI := e.Group("/api/catalogs", mid.AuthMiddleware)
	catalogAPI.GET("", handler.ListCatalogs)
	catalogAPI.GET("/:asin", handler.GetCatalog)

	// Brand API routes
	brandAPI := e.Group("/api/brands", mid.AuthMiddleware)
	brandAPI.GET("", handler.ListBrands)
	brandAPI.GET("/qualified", handler.ListQualifiedBrands)

	// Admin API routes
	adminAPI := e.Group("/api/admin", mid.AuthMiddleware, mid.AdminMiddleware)
	adminAPI.PUT("/catalog", handler.UpdateCatalogProduct)
	adminAPI.PUT("/brands/selling-status", handler.BulkBrandUpdate)
	adminAPI.POST("/brands/:id/merge", handler.MergeBrand)
	adminAPI.POST("/sync", handler.TriggerSync)

	// Start server
	go func() {
		port := appConfig.Server.Port
		log.Info("Starting server", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	// Block until a termination signal arrives
	<-ctx.Done()
	log.Info("Shutting down catalog-service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}
	if err := database.Close(); err != nil {
		log.Error("Database shutdown error", zap.Error(err))
	}
	log.Info("Shutdown complete")
}
