package main

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dropoutsanta/cursorleaderboard/internal/config"
	"github.com/dropoutsanta/cursorleaderboard/internal/models"
	"github.com/dropoutsanta/cursorleaderboard/internal/repository"
	"github.com/dropoutsanta/cursorleaderboard/internal/stats"
	"github.com/dropoutsanta/cursorleaderboard/internal/worker"
)

const (
	TotalSubmissions = 500
	BatchSize        = 100
	NamePrefix       = "dev_"
)

var providers = []string{"github", "twitter", ""}

func main() {
	log.Println("Starting seeder for Cursor Leaderboard...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := initPostgres(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	log.Println("Connected to PostgreSQL")

	redisClient, err := initRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis")

	repo := repository.NewSubmissionRepository(db)
	cache := repository.NewLeaderboardCache(redisClient)

	if err := repo.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()

	log.Printf("Generating %d submissions...", TotalSubmissions)
	subs := generateSubmissions(TotalSubmissions)

	log.Println("Inserting submissions into PostgreSQL...")
	startTime := time.Now()
	if err := repo.BulkInsert(ctx, subs, BatchSize); err != nil {
		log.Fatalf("Failed to seed PostgreSQL: %v", err)
	}
	log.Printf("Inserted %d submissions in %v", len(subs), time.Since(startTime))

	log.Println("Warming leaderboard cache...")
	if err := worker.RebuildCache(ctx, repo, cache); err != nil {
		log.Fatalf("Failed to warm cache: %v", err)
	}

	total, err := repo.Count(ctx)
	if err != nil {
		log.Fatalf("Failed to verify: %v", err)
	}
	log.Printf("Seeding completed: %d submissions", total)

	if top, err := repo.ListByTokens(ctx); err == nil {
		log.Println("Top 10:")
		ranked := models.BuildEntries(top)
		for i := 0; i < 10 && i < len(ranked); i++ {
			n, _ := new(big.Int).SetString(ranked[i].Tokens, 10)
			log.Printf("   %d. %s - %s tokens", ranked[i].Rank, ranked[i].Name, stats.FormatTokens(n))
		}
	}

	repo.Close()
	cache.Close()

	log.Println("Seeder finished!")
}

// generateSubmissions creates random submissions spanning magnitudes from
// thousands to low billions, so ranking exercises the full numeric range.
func generateSubmissions(count int) []models.Submission {
	subs := make([]models.Submission, count)

	for i := 0; i < count; i++ {
		tokens := randomTokens()
		agents := rand.Int63n(20_000)
		tabs := rand.Int63n(5_000)
		streak := rand.Int63n(365)
		joined := rand.Int63n(900)
		provider := providers[rand.Intn(len(providers))]

		sub := models.Submission{
			ID:            uuid.NewString(),
			UserID:        uuid.NewString(),
			Name:          fmt.Sprintf("%s%d", NamePrefix, i+1),
			Tokens:        tokens.String(),
			Agents:        &agents,
			Tabs:          &tabs,
			Streak:        &streak,
			JoinedDaysAgo: &joined,
			TopModels:     models.StringList{"claude-4.5-sonnet", "gpt-5", "composer-1"},
		}

		if provider != "" {
			handle := sub.Name
			sub.SocialProvider = &provider
			sub.SocialHandle = &handle
		}

		subs[i] = sub
	}

	return subs
}

// randomTokens picks an order of magnitude first so the board is not
// dominated by a single band.
func randomTokens() *big.Int {
	switch rand.Intn(4) {
	case 0: // thousands
		return big.NewInt(rand.Int63n(999_000) + 1_000)
	case 1: // millions
		return big.NewInt(rand.Int63n(999_000_000) + 1_000_000)
	case 2: // hundreds of millions
		return big.NewInt(rand.Int63n(9_000_000_000) + 100_000_000)
	default: // low billions
		return big.NewInt(rand.Int63n(20_000_000_000) + 1_000_000_000)
	}
}

// initPostgres initializes PostgreSQL connection
func initPostgres(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}

	return db, nil
}

// initRedis initializes Redis connection
func initRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}
