package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dropoutsanta/cursorleaderboard/internal/api/handlers"
	"github.com/dropoutsanta/cursorleaderboard/internal/auth"
	"github.com/dropoutsanta/cursorleaderboard/internal/config"
	"github.com/dropoutsanta/cursorleaderboard/internal/jobs"
	"github.com/dropoutsanta/cursorleaderboard/internal/repository"
	"github.com/dropoutsanta/cursorleaderboard/internal/service"
	"github.com/dropoutsanta/cursorleaderboard/internal/storage"
	"github.com/dropoutsanta/cursorleaderboard/internal/vision"
	"github.com/dropoutsanta/cursorleaderboard/internal/worker"
	apperrors "github.com/dropoutsanta/cursorleaderboard/pkg/errors"
	"github.com/dropoutsanta/cursorleaderboard/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	db, err := initPostgres(cfg)
	if err != nil {
		logger.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	logger.Info("Connected to PostgreSQL")

	redisClient, err := initRedis(cfg)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	logger.Info("Connected to Redis")

	subRepo := repository.NewSubmissionRepository(db)
	cache := repository.NewLeaderboardCache(redisClient)

	if err := subRepo.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Database migrations completed")

	screenshotStore, err := storage.NewCloudinaryStore(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize screenshot storage: %v", err)
	}

	extractor, err := vision.NewGeminiExtractor(context.Background(), cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		logger.Fatalf("Failed to initialize vision extractor: %v", err)
	}

	verifier, err := auth.NewGoTrueVerifier(cfg.Supabase.URL, cfg.Supabase.AnonKey)
	if err != nil {
		logger.Fatalf("Failed to initialize identity verifier: %v", err)
	}

	// Cache refreshes run off the request path; four workers is plenty for
	// a task that coalesces to "rebuild the one listing".
	pool := worker.NewPool(4, 64, subRepo, cache)
	pool.Start()

	refresher := jobs.NewCacheRefresher(subRepo, cache, jobs.RefresherConfig{
		Interval: 60 * time.Second,
	})
	refresherCtx, refresherCancel := context.WithCancel(context.Background())
	defer refresherCancel()
	if err := refresher.Start(refresherCtx); err != nil {
		logger.Warnf("Failed to start cache refresher: %v", err)
	}

	leaderboardService := service.NewLeaderboardService(subRepo, cache)
	submissionService := service.NewSubmissionService(subRepo, screenshotStore, extractor, pool)

	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService, subRepo, cache)
	submissionHandler := handlers.NewSubmissionHandler(submissionService, cfg.Server.MaxUploadSize)
	previewHandler := handlers.NewPreviewHandler(leaderboardService)

	app := fiber.New(fiber.Config{
		AppName:      "Cursor Leaderboard",
		BodyLimit:    cfg.Server.MaxUploadSize + 1<<20,
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	api := app.Group("/api/v1")

	api.Post("/submissions", auth.Middleware(verifier), submissionHandler.Submit)
	api.Get("/leaderboard", leaderboardHandler.GetLeaderboard)
	api.Get("/users/:id", leaderboardHandler.GetUserRank)
	api.Get("/og/:id", previewHandler.GetCard)
	api.Get("/health", leaderboardHandler.HealthCheck)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Cursor Leaderboard API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/submissions",
				"GET /api/v1/leaderboard",
				"GET /api/v1/users/:id",
				"GET /api/v1/og/:id",
				"GET /api/v1/health",
			},
		})
	})

	// Graceful shutdown: stop intake first, then drain background work.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Info("Shutting down server...")

		refresher.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(ctx); err != nil {
			logger.Errorf("Server forced to shutdown: %v", err)
		}

		if err := pool.Shutdown(15 * time.Second); err != nil {
			logger.Errorf("Worker pool shutdown error: %v", err)
		}

		if err := subRepo.Close(); err != nil {
			logger.Errorf("Error closing PostgreSQL: %v", err)
		}
		if err := cache.Close(); err != nil {
			logger.Errorf("Error closing Redis: %v", err)
		}

		logger.Info("Server shutdown complete")
	}()

	port := cfg.Server.Port
	logger.Infof("Server starting on port %d...", port)
	if err := app.Listen(fmt.Sprintf(":%d", port)); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}

// initPostgres initializes PostgreSQL connection with connection pooling.
// TranslateError is required: the pipeline distinguishes a uniqueness
// conflict from other insert failures.
func initPostgres(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.GetDSN()

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}

	return db, nil
}

// initRedis initializes Redis connection with connection pooling
func initRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Username:     cfg.Redis.Username,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}

// customErrorHandler handles errors that escape the handlers
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   "INTERNAL",
		"message": apperrors.MessageOf(err),
	})
}
