package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/StayNest-Travel/service-billing/internal/application"
	"github.com/StayNest-Travel/service-billing/internal/auth"
	"github.com/StayNest-Travel/service-billing/internal/config"
	"github.com/StayNest-Travel/service-billing/internal/database"
	"github.com/StayNest-Travel/service-billing/internal/events"
	"github.com/StayNest-Travel/service-billing/internal/handler"
	"github.com/StayNest-Travel/service-billing/internal/logger"
	"github.com/StayNest-Travel/service-billing/internal/middleware"
	"github.com/StayNest-Travel/service-billing/internal/repository"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewNamed(cfg.AppEnv, "service-billing")
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting service-billing",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DB, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.HotelModel{},
			&repository.RoomTypeModel{},
			&repository.BookingModel{},
			&repository.OfferModel{},
			&repository.CommissionModel{},
		); err != nil {
			zapLogger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		zapLogger.Info("database migration completed (dev auto-migrate)")
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, 15*time.Minute)

	// Initialize Kafka producer
	producer := events.NewProducer(cfg.Kafka.Brokers, zapLogger)
	defer producer.Close()

	clock := clockwork.NewRealClock()

	// Initialize repositories
	offerRepo := repository.NewGormOfferRepository(db)
	commissionRepo := repository.NewGormCommissionRepository(db)
	hotelRepo := repository.NewGormHotelRepository(db)
	bookingRepo := repository.NewGormBookingRepository(db)

	// Initialize application services
	pricingService := application.NewPricingService(offerRepo, hotelRepo, clock, cfg.Billing.TaxPercent, zapLogger)
	commissionService := application.NewCommissionService(commissionRepo, hotelRepo, bookingRepo, producer, clock, cfg.Billing, zapLogger)
	offerService := application.NewOfferService(offerRepo, clock, zapLogger)

	// Initialize Kafka consumer for booking confirmations
	consumerGroupID := cfg.Kafka.GroupPrefix + "billing-service"
	bookingConsumer := events.NewBookingEventConsumer(cfg.Kafka.Brokers, consumerGroupID, pricingService, zapLogger)
	defer bookingConsumer.Close()

	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()

	go func() {
		zapLogger.Info("starting booking event consumer")
		if err := bookingConsumer.Start(consumerCtx); err != nil {
			if consumerCtx.Err() == nil {
				zapLogger.Error("booking event consumer failed", zap.Error(err))
			}
		}
	}()

	// Scheduled billing jobs: invoice the prior month on the 1st, scan for
	// overdue invoices daily.
	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err = scheduler.AddFunc("0 2 1 * *", func() {
		prev := clock.Now().UTC().AddDate(0, -1, 0)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := commissionService.Generate(ctx, int(prev.Month()), prev.Year()); err != nil {
			zapLogger.Error("scheduled commission generation failed", zap.Error(err))
		}
	})
	if err != nil {
		zapLogger.Fatal("failed to schedule commission generation", zap.Error(err))
	}
	_, err = scheduler.AddFunc("0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := commissionService.RefreshOverdueStatus(ctx); err != nil {
			zapLogger.Error("scheduled overdue scan failed", zap.Error(err))
		}
	})
	if err != nil {
		zapLogger.Fatal("failed to schedule overdue scan", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize HTTP handlers
	pricingHandler := handler.NewPricingHandler(pricingService)
	commissionHandler := handler.NewCommissionHandler(commissionService)
	offerHandler := handler.NewOfferHandler(offerService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.LoggerMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())

	healthHandler := handler.NewHealthHandler(db, "service-billing")
	healthHandler.RegisterRoutes(router)

	apiV1 := router.Group("/api/v1")
	pricingHandler.RegisterRoutes(apiV1, jwtManager)
	commissionHandler.RegisterRoutes(apiV1, jwtManager)
	offerHandler.RegisterRoutes(apiV1, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zapLogger.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down service-billing...")

	consumerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("service-billing stopped")
}
