package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kodi-rentals/service-rental/internal/application"
	"github.com/kodi-rentals/service-rental/internal/cache"
	"github.com/kodi-rentals/service-rental/internal/config"
	bookingDomain "github.com/kodi-rentals/service-rental/internal/domain/booking"
	propertyDomain "github.com/kodi-rentals/service-rental/internal/domain/property"
	reviewDomain "github.com/kodi-rentals/service-rental/internal/domain/review"
	rentalEvents "github.com/kodi-rentals/service-rental/internal/events"
	"github.com/kodi-rentals/service-rental/internal/handler"
	"github.com/kodi-rentals/service-rental/internal/jobs"
	"github.com/kodi-rentals/service-rental/internal/repository"
	"github.com/kodi-rentals/service-rental/internal/repository/memory"
	"github.com/kodi-rentals/service-rental/migrations"
	"github.com/kodi-rentals/service-rental/pkg/auth"
	"github.com/kodi-rentals/service-rental/pkg/database"
	"github.com/kodi-rentals/service-rental/pkg/health"
	"github.com/kodi-rentals/service-rental/pkg/kafka"
	"github.com/kodi-rentals/service-rental/pkg/logger"
	"github.com/kodi-rentals/service-rental/pkg/middleware"
)

const serviceName = "service-rental"

type storage struct {
	bookings   bookingDomain.BookingRepository
	properties propertyDomain.PropertyRepository
	reviews    reviewDomain.ReviewRepository
	tx         application.Transactor
	pinger     health.Pinger
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.String("storage", cfg.StorageDriver),
	)

	store, err := openStorage(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize storage", zap.Error(err))
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		15*time.Minute,
		7*24*time.Hour,
	)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Property read cache
	checks := map[string]health.Pinger{"storage": store.pinger}
	var propertyCache application.Cache = cache.NewNoop()
	if cfg.RedisConfig.Addr != "" {
		redisCache := cache.NewRedisCache(cache.Config{
			Addr:     cfg.RedisConfig.Addr,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
			TTL:      cfg.RedisConfig.TTL,
		}, log)
		defer func() { _ = redisCache.Close() }()
		propertyCache = redisCache
		checks["redis"] = redisCache
	}

	// Initialize application services
	bookingService := application.NewBookingService(
		store.bookings,
		store.properties,
		store.tx,
		bookingDomain.NewNightlyPricingStrategy(),
		kafkaProducer,
		log,
	)
	propertyService := application.NewPropertyService(
		store.properties,
		store.tx,
		propertyCache,
		kafkaProducer,
		cfg.DefaultCurrency,
		log,
	)
	reviewService := application.NewReviewService(store.reviews, store.properties, kafkaProducer, log)

	// Initialize and start account event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(cfg.KafkaConfig.Brokers) > 0 {
		groupID := cfg.KafkaConfig.GroupPrefix + serviceName
		accountConsumer := rentalEvents.NewAccountEventConsumer(
			cfg.KafkaConfig.Brokers,
			groupID,
			bookingService,
			log,
		)
		defer func() { _ = accountConsumer.Close() }()

		go func() {
			log.Info("starting account event consumer")
			if err := accountConsumer.Start(ctx); err != nil && err != context.Canceled {
				log.Error("account event consumer error", zap.Error(err))
			}
		}()
	}

	// Schedule expiry of stale pending requests
	expiryJob, err := jobs.NewPendingExpiryJob(cfg.PendingExpirySchedule, bookingService, log)
	if err != nil {
		log.Fatal("failed to schedule pending expiry job", zap.Error(err))
	}
	expiryJob.Start()

	// Setup Gin router
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler.RegisterValidators()
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(serviceName, checks)
	healthHandler.RegisterRoutes(router)

	// Register routes
	handler.NewPropertyHandler(propertyService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewReviewHandler(reviewService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewAdminBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down " + serviceName + "...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server and scheduler with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	expiryJob.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info(serviceName + " stopped")
}

func openStorage(cfg *config.ServiceConfig, log *zap.Logger) (*storage, error) {
	if cfg.StorageDriver == config.StorageMemory {
		log.Warn("using in-memory storage; data is lost on restart")
		s := memory.NewStore()
		return &storage{
			bookings:   s.Bookings(),
			properties: s.Properties(),
			reviews:    s.Reviews(),
			tx:         s,
			pinger:     s,
		}, nil
	}

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		return nil, err
	}

	// Run database migrations
	if err := database.RunMigrations(dbConfig.DatabaseURL(), migrations.FS, ".", log); err != nil {
		return nil, err
	}

	return &storage{
		bookings:   repository.NewGormBookingRepository(db),
		properties: repository.NewGormPropertyRepository(db),
		reviews:    repository.NewGormReviewRepository(db),
		tx:         repository.NewGormTransactor(db),
		pinger:     repository.NewDBPinger(db),
	}, nil
}
