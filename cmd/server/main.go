package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coupon-service/internal/config"
	"coupon-service/internal/database"
	"coupon-service/internal/handlers"
	"coupon-service/internal/kafka"
	"coupon-service/internal/logger"
	"coupon-service/internal/redis"
	"coupon-service/internal/repository/postgres"
	"coupon-service/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Фабричные функции для подключения внешних сервисов (подменяемые в тестах).
var (
	dbConnect        = database.Connect
	redisConnect     = redis.Connect
	newKafkaProducer = kafka.NewProducer
	newKafkaConsumer = kafka.NewConsumer
	kafkaHealthCheck = handlers.CheckKafkaHealth
	loadConfig       = config.Load
	newLogger        = logger.New
)

// application агрегирует собранные зависимости.
type application struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	producer *kafka.Producer
	consumer *kafka.Consumer
	router   chi.Router
	server   *http.Server
}

func main() {
	app, err := buildApplication()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build app: %v\n", err)
		os.Exit(1)
	}
	app.log.Info("Starting coupon service...")

	go func() {
		app.log.WithField("address", app.server.Addr).Info("HTTP server starting")
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	app.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(app.cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := app.server.Shutdown(ctx); err != nil {
		app.log.WithError(err).Error("Server forced to shutdown")
	}
	app.close()
	app.log.Info("Server exited")
}

// buildApplication создает все зависимости (подменяемые в тестах).
func buildApplication() (*application, error) {
	cfg := loadConfig()
	log := newLogger(&cfg.Logger)
	app := &application{cfg: cfg, log: log}

	db, err := dbConnect(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	app.db = db

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := db.EnsureSchema(ctx)
		cancel()
		if err != nil {
			app.close()
			return nil, fmt.Errorf("db schema: %w", err)
		}
	}

	// Redis нужен только для rate limiting
	if cfg.RateLimit.Enabled {
		redisClient, err := redisConnect(&cfg.Redis, log)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("redis connect: %w", err)
		}
		app.redis = redisClient
	}

	if cfg.Kafka.Enabled {
		producer, err := newKafkaProducer(&cfg.Kafka, log)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		app.producer = producer

		consumer, err := newKafkaConsumer(&cfg.Kafka, log)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("kafka consumer: %w", err)
		}
		app.consumer = consumer

		kafka.RegisterAuditHandlers(consumer, log)
		if err := consumer.Start(); err != nil {
			app.close()
			return nil, fmt.Errorf("kafka consumer start: %w", err)
		}
	}

	couponRepo := postgres.NewCouponRepository(db)
	couponService := services.NewCouponService(couponRepo, services.NewCouponMapper(), log)
	rateLimiter := services.NewRateLimiter(app.redis, log, &cfg.RateLimit)

	// интерфейсы получают nil только при выключенной зависимости
	var producer handlers.EventProducer
	if app.producer != nil {
		producer = app.producer
	}
	var redisHealth handlers.RedisHealth
	if app.redis != nil {
		redisHealth = app.redis
	}
	var kafkaBrokers []string
	if cfg.Kafka.Enabled {
		kafkaBrokers = cfg.Kafka.Brokers
	}

	couponHandler := handlers.NewCouponHandler(couponService, producer, log)
	healthHandler := handlers.NewHealthHandler(db, redisHealth, kafkaBrokers, kafkaHealthCheck)
	rateLimitHandler := handlers.NewRateLimitHandler(rateLimiter, log)

	app.router = setupRoutes(cfg, log, couponHandler, healthHandler, rateLimitHandler, rateLimiter)
	app.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      app.router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	return app, nil
}

// setupRoutes настраивает маршруты HTTP сервера
func setupRoutes(cfg *config.Config, log *logger.Logger, couponHandler *handlers.CouponHandler, healthHandler *handlers.HealthHandler, rateLimitHandler *handlers.RateLimitHandler, rateLimiter *services.RateLimiter) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if cfg.Server.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"Location", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if cfg.Metrics.Enabled {
		r.Use(handlers.MetricsMiddleware)
	}
	r.Use(handlers.LoggingMiddleware(log))

	// Health check endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/health/readiness", healthHandler.Readiness)
	r.Get("/health/liveness", healthHandler.Liveness)

	// Coupon endpoints
	r.Route("/coupon", func(r chi.Router) {
		r.Use(handlers.RateLimitMiddleware(rateLimiter, log))
		couponHandler.Routes(r)
	})

	// Rate limit status
	r.Get("/api/rate-limit/status", rateLimitHandler.Status)

	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler())
	}

	return r
}

// close освобождает ресурсы в обратном порядке подключения
func (a *application) close() {
	if err := a.consumer.Stop(); err != nil {
		a.log.WithError(err).Warn("Failed to stop Kafka consumer")
	}
	if err := a.producer.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close Kafka producer")
	}
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close Redis")
	}
	if err := a.db.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close database")
	}
}
