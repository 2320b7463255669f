package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/ledger-service/pkg/cloudevents"
	"github.com/wms-platform/ledger-service/pkg/errors"
	"github.com/wms-platform/ledger-service/pkg/kafka"
	"github.com/wms-platform/ledger-service/pkg/logging"
	"github.com/wms-platform/ledger-service/pkg/metrics"
	"github.com/wms-platform/ledger-service/pkg/middleware"
	"github.com/wms-platform/ledger-service/pkg/mongodb"
	"github.com/wms-platform/ledger-service/pkg/outbox"
	"github.com/wms-platform/ledger-service/pkg/tracing"

	"github.com/wms-platform/ledger-service/internal/application"
	mongoRepo "github.com/wms-platform/ledger-service/internal/infrastructure/mongodb"
)

const serviceName = "ledger-service"

func main() {
	// Setup enhanced logger
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting ledger-service API")

	// Load configuration
	config := loadConfig()
	ctx := context.Background()

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "true") == "true"

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	// Initialize Prometheus metrics
	metricsConfig := metrics.DefaultConfig(serviceName)
	m := metrics.New(metricsConfig)
	logger.Info("Metrics initialized")

	// Initialize validator with ledger-specific rules
	middleware.InitValidator()

	// Initialize MongoDB with instrumentation and circuit breaker
	mongoClient, err := mongodb.NewProductionClient(ctx, config.MongoDB, m, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	// Initialize Kafka producer with instrumentation and circuit breaker
	kafkaProducer := kafka.NewProductionProducer(config.Kafka, m, logger)
	defer kafkaProducer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	// Initialize CloudEvents factory
	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceLedger)

	// Initialize repositories with event factory
	movementLog := mongoRepo.NewMovementLogRepository(mongoClient.Database(), eventFactory)
	projections := mongoRepo.NewProjectionRepository(mongoClient.Database(), eventFactory)

	// Initialize and start outbox publisher
	outboxPublisher := outbox.NewPublisher(
		movementLog.GetOutboxRepository(),
		kafkaProducer,
		logger,
		m,
		&outbox.PublisherConfig{
			PollInterval: 1 * time.Second,
			BatchSize:    100,
		},
	)
	if err := outboxPublisher.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox publisher")
		os.Exit(1)
	}
	defer outboxPublisher.Stop()
	logger.Info("Outbox publisher started")

	// Initialize application services
	ledgerService := application.NewLedgerApplicationService(movementLog, projections, logger, m)
	queryService := application.NewLedgerQueryService(movementLog, projections, config.DefaultCurrency, logger)
	rebuildService := application.NewRebuildService(movementLog, projections, logger, m)

	// Setup Gin router with middleware
	router := gin.New()

	// Apply standard middleware
	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middleware.Setup(router, middlewareConfig)

	// Add metrics middleware
	router.Use(middleware.MetricsMiddleware(m))

	// Add tracing middleware
	router.Use(middleware.SimpleTracingMiddleware(serviceName))

	// Propagate CloudEvents correlation headers
	router.Use(middleware.CloudEvents())

	// Handle 404 and 405 errors
	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	// Health check endpoints
	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))

	// Metrics endpoint
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	// API v1 routes with tenant context required
	api := router.Group("/api/v1")
	api.Use(middleware.RequireTenantAuth()) // All API routes require tenant headers
	{
		api.POST("/movements", applyMovementHandler(ledgerService, config.DefaultCurrency, logger))

		positions := api.Group("/positions/:itemId/:warehouseId")
		{
			positions.GET("", getPositionHandler(queryService, logger))
			positions.GET("/movements", getMovementsHandler(queryService, logger))
			positions.POST("/rebuild", rebuildHandler(rebuildService, config.DefaultCurrency, logger))
			positions.POST("/reconcile", reconcileHandler(rebuildService, config.DefaultCurrency, logger))
		}
	}

	// Start server
	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
}

// Config holds application configuration
type Config struct {
	ServerAddr      string
	DefaultCurrency string
	MongoDB         *mongodb.Config
	Kafka           *kafka.Config
}

func loadConfig() *Config {
	return &Config{
		ServerAddr:      getEnv("SERVER_ADDR", ":8020"),
		DefaultCurrency: getEnv("DEFAULT_CURRENCY", "USD"),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "wms_ledger"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
		Kafka: &kafka.Config{
			Brokers:      []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			ClientID:     "ledger-service",
			BatchSize:    100,
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: -1,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// HTTP Handlers

func applyMovementHandler(service *application.LedgerApplicationService, defaultCurrency string, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			ItemID       string `json:"itemId" binding:"required,item_id"`
			WarehouseID  string `json:"warehouseId" binding:"required,warehouse_id"`
			MovementType string `json:"movementType" binding:"required,movement_type"`
			Quantity     int64  `json:"quantity" binding:"required"`
			UnitCost     *int64 `json:"unitCost"`
			Currency     string `json:"currency" binding:"omitempty,currency_code"`
			OccurredAt   string `json:"occurredAt"`
			CausationID  string `json:"causationId"`
		}

		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}
		if req.Currency == "" {
			req.Currency = defaultCurrency
		}

		var occurredAt time.Time
		if req.OccurredAt != "" {
			parsed, err := time.Parse(time.RFC3339, req.OccurredAt)
			if err != nil {
				responder.RespondBadRequest("occurredAt must be RFC 3339")
				return
			}
			occurredAt = parsed
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"item.id":       req.ItemID,
			"warehouse.id":  req.WarehouseID,
			"movement.type": req.MovementType,
			"quantity":      req.Quantity,
		})

		cmd := application.ApplyMovementCommand{
			ItemID:        req.ItemID,
			WarehouseID:   req.WarehouseID,
			MovementType:  req.MovementType,
			Quantity:      req.Quantity,
			UnitCost:      req.UnitCost,
			Currency:      req.Currency,
			OccurredAt:    occurredAt,
			CausationID:   req.CausationID,
			CorrelationID: middleware.GetWMSCorrelationID(c),
			TenantID:      middleware.GetWMSTenantID(c),
		}

		position, err := service.ApplyMovement(c.Request.Context(), cmd)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusCreated, position)
	}
}

func getPositionHandler(service *application.LedgerQueryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		query := application.GetPositionQuery{
			ItemID:      c.Param("itemId"),
			WarehouseID: c.Param("warehouseId"),
		}
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"item.id":      query.ItemID,
			"warehouse.id": query.WarehouseID,
		})

		position, err := service.GetPosition(c.Request.Context(), query)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, position)
	}
}

func getMovementsHandler(service *application.LedgerQueryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		limit := 0
		if limitStr := c.Query("limit"); limitStr != "" {
			if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
				limit = parsedLimit
				if limit > 1000 {
					limit = 1000
				}
			}
		}

		query := application.GetMovementsQuery{
			ItemID:      c.Param("itemId"),
			WarehouseID: c.Param("warehouseId"),
			Limit:       limit,
		}

		movements, err := service.GetMovements(c.Request.Context(), query)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{"movements": movements, "total": len(movements)})
	}
}

func rebuildHandler(service *application.RebuildService, defaultCurrency string, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			Currency string `json:"currency" binding:"omitempty,currency_code"`
		}
		if c.Request.ContentLength > 0 {
			if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
				responder.RespondWithAppError(appErr)
				return
			}
		}
		if req.Currency == "" {
			req.Currency = defaultCurrency
		}

		cmd := application.RebuildCommand{
			ItemID:      c.Param("itemId"),
			WarehouseID: c.Param("warehouseId"),
			Currency:    req.Currency,
		}
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"item.id":      cmd.ItemID,
			"warehouse.id": cmd.WarehouseID,
		})

		position, err := service.Rebuild(c.Request.Context(), cmd)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, position)
	}
}

func reconcileHandler(service *application.RebuildService, defaultCurrency string, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			Currency string `json:"currency" binding:"omitempty,currency_code"`
		}
		if c.Request.ContentLength > 0 {
			if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
				responder.RespondWithAppError(appErr)
				return
			}
		}
		if req.Currency == "" {
			req.Currency = defaultCurrency
		}

		cmd := application.ReconcileCommand{
			ItemID:      c.Param("itemId"),
			WarehouseID: c.Param("warehouseId"),
			Currency:    req.Currency,
		}
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"item.id":      cmd.ItemID,
			"warehouse.id": cmd.WarehouseID,
		})

		report, err := service.Reconcile(c.Request.Context(), cmd)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, report)
	}
}
