package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"user-sync-service/internal/api"
	"user-sync-service/internal/client"
	"user-sync-service/internal/config"
	"user-sync-service/internal/consumer"
	"user-sync-service/internal/repository"
	"user-sync-service/internal/scheduler"
	"user-sync-service/internal/service"
	"user-sync-service/migrations"
)

func connectDB(dsn string) (*sql.DB, error) {
	if !strings.Contains(dsn, "?") {
		dsn += "?parseTime=true"
	}

	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", dsn)
		if err == nil {
			err = db.Ping()
			if err == nil {
				return db, nil
			}
		}
		log.Printf("Retry %d: Failed to connect to DB: %v", i+1, err)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to DB after retries: %v", err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := connectDB(cfg.DatabaseDSN)
	if err != nil {
		panic(err)
	}

	if err := migrations.AutoMigrateUsers(3, db); err != nil {
		log.Fatalf("Failed to migrate users table: %v", err)
	}
	if err := migrations.AutoMigrateAddresses(3, db); err != nil {
		log.Fatalf("Failed to migrate addresses table: %v", err)
	}
	if err := migrations.AutoMigrateCreditCards(3, db); err != nil {
		log.Fatalf("Failed to migrate credit_cards table: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	providerClient := client.NewDummyJSONClient(cfg.ProviderBaseURL, &http.Client{Timeout: cfg.RequestTimeout})
	userRepo := repository.NewUserRepository(db)
	syncService := service.NewSyncService(providerClient, userRepo, rdb, cfg.BatchSize)

	jobWriter := config.NewKafkaWriter(config.JobsTopic)
	jobReader := config.NewKafkaReader(config.JobsTopic, "user-sync-workers")

	beat := scheduler.NewScheduler(jobWriter, cfg)
	worker := consumer.NewConsumer(syncService, jobReader)

	ctx := context.Background()
	go beat.Start(ctx)
	go worker.Start(ctx)

	userHandler := api.NewUserHandler(userRepo, syncService, beat)

	e := echo.New()

	limiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(1),
				Burst:     3,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(context echo.Context) (string, error) {
			return context.Request().RemoteAddr, nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
	}

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.RateLimiterWithConfig(limiterConfig))

	// Routes
	e.GET("/users", userHandler.ListUsers)
	e.GET("/users/:id", userHandler.GetUserByID)
	e.GET("/jobs/:name", userHandler.GetJobRun)

	// Manual triggers require a token
	triggers := e.Group("/jobs")
	triggers.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(cfg.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return &jwt.RegisteredClaims{}
		},
	}))
	triggers.POST("/:name/run", userHandler.TriggerJob)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":  "ok",
			"service": "user-sync-service",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	// Start server
	e.Logger.Fatal(e.Start(":8080"))
}
